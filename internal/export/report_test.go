package export

import (
	"testing"
	"time"

	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/model"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFilename 导出文件名由故障 ID 确定
func TestFilename(t *testing.T) {
	assert.Equal(t, "设备维修原始记录表_42.xlsx", Filename(42))
}

// TestBuildWorkbookMinimalFault 只有必填字段的故障也能导出,缺失字段填"无"
func TestBuildWorkbookMinimalFault(t *testing.T) {
	fault := &model.Fault{
		ID:               1,
		EquipmentName:    "车道摄像机",
		SpecificLocation: "三号收费站入口",
		Description:      "画面黑屏",
		Status:           workflow.StatusPending,
		Urgency:          workflow.UrgencyGeneral,
		ReportedAt:       time.Date(2026, 8, 1, 9, 30, 0, 0, time.Local),
	}

	f, err := BuildWorkbook(fault)
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue(sheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "设备维修原始记录表", title)

	name, _ := f.GetCellValue(sheetName, "B4")
	assert.Equal(t, "车道摄像机", name)

	reportedAt, _ := f.GetCellValue(sheetName, "D2")
	assert.Equal(t, "2026-08-01 09:30", reportedAt)

	// 无维修记录:维修人员、原因分析、照片全部为占位符
	maintainer, _ := f.GetCellValue(sheetName, "D3")
	assert.Equal(t, "无", maintainer)
	reason, _ := f.GetCellValue(sheetName, "B6")
	assert.Equal(t, "无", reason)
	beforePhotos, _ := f.GetCellValue(sheetName, "B8")
	assert.Equal(t, "无", beforePhotos)
	afterPhotos, _ := f.GetCellValue(sheetName, "F8")
	assert.Equal(t, "无", afterPhotos)
}

// TestBuildWorkbookFullRecord 带完整维修记录和照片的导出
func TestBuildWorkbookFullRecord(t *testing.T) {
	arrived := time.Date(2026, 8, 2, 10, 0, 0, 0, time.Local)
	completed := time.Date(2026, 8, 2, 14, 30, 0, 0, time.Local)
	maintainerID := uint(5)

	fault := &model.Fault{
		ID:                7,
		EquipmentName:     "费额显示器",
		EquipmentModel:    "FED-200",
		EquipmentCategory: "收费设备",
		SpecificLocation:  "二号收费站出口",
		MonitorLocation:   "监控点 3",
		Description:       "显示乱码",
		Status:            workflow.StatusResolved,
		Urgency:           workflow.UrgencyUrgent,
		ReportedAt:        time.Date(2026, 8, 1, 8, 0, 0, 0, time.Local),
		MaintenanceRecord: &model.MaintenanceRecord{
			ID:                       3,
			FaultID:                  7,
			MaintainerID:             &maintainerID,
			Maintainer:               &model.User{ID: 5, Username: "lisi"},
			ArrivedAt:                &arrived,
			CompletedAt:              &completed,
			MaintenanceVehicle:       "维修车 A-01",
			RequiredToolsMaterials:   "螺丝刀、备用显示屏",
			FaultReasonAnalysis:      "显示模块老化",
			MaintenanceProcessResult: "更换显示模块,恢复正常",
			Remarks:                  "建议定期巡检",
			Photos: []model.MaintenancePhoto{
				{ID: 1, PhotoType: model.PhotoBefore, ImagePath: "a.jpg"},
				{ID: 2, PhotoType: model.PhotoBefore, ImagePath: "b.jpg"},
				{ID: 3, PhotoType: model.PhotoAfter, ImagePath: "c.jpg"},
				{ID: 4, PhotoType: model.PhotoDuring, ImagePath: "d.jpg"},
			},
		},
	}

	f, err := BuildWorkbook(fault)
	require.NoError(t, err)
	defer f.Close()

	maintainer, _ := f.GetCellValue(sheetName, "D3")
	assert.Equal(t, "lisi", maintainer)
	arrivedAt, _ := f.GetCellValue(sheetName, "B3")
	assert.Equal(t, "2026-08-02 10:00", arrivedAt)
	repairDate, _ := f.GetCellValue(sheetName, "F3")
	assert.Equal(t, "2026-08-02", repairDate)

	result, _ := f.GetCellValue(sheetName, "B7")
	assert.Equal(t, "更换显示模块,恢复正常", result)

	// 维修前两张照片按顺序编号,维修中的不落入前/后两栏
	beforePhotos, _ := f.GetCellValue(sheetName, "B8")
	assert.Equal(t, "[维修前照片1]\n[维修前照片2]", beforePhotos)
	afterPhotos, _ := f.GetCellValue(sheetName, "F8")
	assert.Equal(t, "[维修后照片1]", afterPhotos)

	remarks, _ := f.GetCellValue(sheetName, "B9")
	assert.Equal(t, "建议定期巡检", remarks)
}

// TestBuildWorkbookNilFault 空入参直接报错
func TestBuildWorkbookNilFault(t *testing.T) {
	_, err := BuildWorkbook(nil)
	assert.Error(t, err)
}
