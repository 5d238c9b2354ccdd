// Package export 渲染固定版式的《设备维修原始记录表》。
// 一条故障(可带嵌套维修记录和照片)映射为一张固定表格,
// 缺失的可选字段一律以"无"占位,零照片也能导出。
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/model"
	"github.com/xuri/excelize/v2"
)

const (
	sheetName   = "设备维修原始记录表"
	placeholder = "无"

	timeLayout = "2006-01-02 15:04"
	dateLayout = "2006-01-02"
)

// Filename 根据故障 ID 确定性地命名导出文件
func Filename(faultID uint) string {
	return fmt.Sprintf("设备维修原始记录表_%d.xlsx", faultID)
}

// BuildWorkbook 把一条故障渲染为固定版式的工作簿。
// 除产出文件外没有任何副作用。
func BuildWorkbook(fault *model.Fault) (*excelize.File, error) {
	if fault == nil {
		return nil, fmt.Errorf("fault is required")
	}

	f := excelize.NewFile()
	defaultSheet := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
		return nil, err
	}

	record := fault.MaintenanceRecord

	// 标题行,八列合并
	if err := f.MergeCell(sheetName, "A1", "H1"); err != nil {
		return nil, err
	}
	setCell(f, "A1", "设备维修原始记录表")

	// 第 2 行: 位置 / 报修时间 / 报修人 / 现场位置
	setRow(f, 2,
		"故障设备具体位置", valueOr(fault.SpecificLocation),
		"故障报修时间", formatTime(&fault.ReportedAt, timeLayout),
		"报修人", valueOr(fault.ReporterName()),
		"现场位置/监控点", valueOr(fault.MonitorLocation),
	)

	// 第 3 行: 到场时间 / 维修人员 / 维修日期 / 维修车辆
	setRow(f, 3,
		"运维人员到达现场时间", formatTime(recordArrivedAt(record), timeLayout),
		"维修人员", valueOr(recordMaintainerName(record)),
		"维修日期", formatTime(recordCompletedAt(record), dateLayout),
		"维修车辆", valueOr(recordVehicle(record)),
	)

	// 第 4 行: 设备名称 / 类别 / 型号 / 所需工具器材
	setRow(f, 4,
		"设备名称", valueOr(fault.EquipmentName),
		"设备类别", valueOr(fault.EquipmentCategory),
		"设备型号", valueOr(fault.EquipmentModel),
		"维修及处理所需专用工具、仪器、器材、备件等", valueOr(recordTools(record)),
	)

	// 第 5 行: 现象详情占满右侧
	setCell(f, "A5", "故障现象类别")
	setCell(f, "B5", placeholder)
	setCell(f, "C5", "现象详情")
	if err := f.MergeCell(sheetName, "D5", "H5"); err != nil {
		return nil, err
	}
	setCell(f, "D5", valueOr(fault.Description))

	// 第 6-7 行: 原因分析与过程结果,整行展开
	if err := wideRow(f, 6, "故障原因分析", valueOr(recordReason(record))); err != nil {
		return nil, err
	}
	if err := wideRow(f, 7, "维修过程及结果", valueOr(recordProcessResult(record))); err != nil {
		return nil, err
	}

	// 第 8 行: 维修前/后照片
	setCell(f, "A8", "维修前照片")
	if err := f.MergeCell(sheetName, "B8", "D8"); err != nil {
		return nil, err
	}
	setCell(f, "B8", photoCell(record, model.PhotoBefore))
	setCell(f, "E8", "维修后照片")
	if err := f.MergeCell(sheetName, "F8", "H8"); err != nil {
		return nil, err
	}
	setCell(f, "F8", photoCell(record, model.PhotoAfter))

	// 第 9 行: 备注事项
	if err := wideRow(f, 9, "备注事项", valueOr(recordRemarks(record))); err != nil {
		return nil, err
	}

	if err := applyStyles(f); err != nil {
		return nil, err
	}

	return f, nil
}

// photoCell 渲染照片引用列表,按上传顺序编号;无照片时为"无"
func photoCell(record *model.MaintenanceRecord, photoType model.PhotoType) string {
	if record == nil {
		return placeholder
	}
	var refs []string
	for _, photo := range record.Photos {
		if photo.PhotoType == photoType {
			refs = append(refs, fmt.Sprintf("[%s照片%d]", photoType.Label(), len(refs)+1))
		}
	}
	if len(refs) == 0 {
		return placeholder
	}
	return strings.Join(refs, "\n")
}

// setRow 填充一行四组"标签/值"单元格
func setRow(f *excelize.File, row int, cells ...string) {
	columns := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	for i, value := range cells {
		if i >= len(columns) {
			break
		}
		setCell(f, fmt.Sprintf("%s%d", columns[i], row), value)
	}
}

// wideRow 填充"标签 + 整行值"的行
func wideRow(f *excelize.File, row int, label, value string) error {
	setCell(f, fmt.Sprintf("A%d", row), label)
	if err := f.MergeCell(sheetName, fmt.Sprintf("B%d", row), fmt.Sprintf("H%d", row)); err != nil {
		return err
	}
	setCell(f, fmt.Sprintf("B%d", row), value)
	return nil
}

func setCell(f *excelize.File, cell, value string) {
	_ = f.SetCellValue(sheetName, cell, value)
}

// applyStyles 设置列宽、边框和标题样式
func applyStyles(f *excelize.File) error {
	if err := f.SetColWidth(sheetName, "A", "H", 16); err != nil {
		return err
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", "H1", titleStyle); err != nil {
		return err
	}

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	bodyStyle, err := f.NewStyle(&excelize.Style{
		Border:    border,
		Alignment: &excelize.Alignment{Vertical: "center", WrapText: true},
	})
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheetName, "A2", "H9", bodyStyle)
}

// valueOr 空白值替换为占位符
func valueOr(s string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}

// formatTime 格式化时间,缺失时返回占位符
func formatTime(t *time.Time, layout string) string {
	if t == nil || t.IsZero() {
		return placeholder
	}
	return t.Format(layout)
}

func recordArrivedAt(r *model.MaintenanceRecord) *time.Time {
	if r == nil {
		return nil
	}
	return r.ArrivedAt
}

func recordCompletedAt(r *model.MaintenanceRecord) *time.Time {
	if r == nil {
		return nil
	}
	return r.CompletedAt
}

func recordMaintainerName(r *model.MaintenanceRecord) string {
	if r == nil {
		return ""
	}
	return r.MaintainerName()
}

func recordVehicle(r *model.MaintenanceRecord) string {
	if r == nil {
		return ""
	}
	return r.MaintenanceVehicle
}

func recordTools(r *model.MaintenanceRecord) string {
	if r == nil {
		return ""
	}
	return r.RequiredToolsMaterials
}

func recordReason(r *model.MaintenanceRecord) string {
	if r == nil {
		return ""
	}
	return r.FaultReasonAnalysis
}

func recordProcessResult(r *model.MaintenanceRecord) string {
	if r == nil {
		return ""
	}
	return r.MaintenanceProcessResult
}

func recordRemarks(r *model.MaintenanceRecord) string {
	if r == nil {
		return ""
	}
	return r.Remarks
}
