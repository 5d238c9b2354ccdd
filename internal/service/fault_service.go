package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/export"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/metrics"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/model"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/repository"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/utils"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/websocket"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/workflow"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ErrFaultNotFound 故障不存在
var ErrFaultNotFound = errors.New("fault not found")

// FaultService 故障服务接口。上报、撤销、工作流流转和导出
// 全部经由此处,动作是否允许统一交给 workflow.Authorize 判定。
type FaultService interface {
	Report(ctx context.Context, session *workflow.Session, req *ReportFaultRequest) (*model.Fault, error)
	List(session *workflow.Session, query *FaultListQuery) ([]*model.Fault, int64, error)
	Get(session *workflow.Session, id uint) (*model.Fault, error)
	Cancel(ctx context.Context, session *workflow.Session, id uint) error
	Accept(ctx context.Context, session *workflow.Session, id uint) (*model.Fault, error)
	Resolve(ctx context.Context, session *workflow.Session, id uint, req *ResolveFaultRequest) (*model.Fault, error)
	CannotResolve(ctx context.Context, session *workflow.Session, id uint, req *CannotResolveRequest) (*model.Fault, error)
	Delete(ctx context.Context, session *workflow.Session, id uint) error
	Export(session *workflow.Session, id uint) (*excelize.File, string, error)
	History(session *workflow.Session, id uint) ([]*model.StatusHistoryModel, error)
}

// ReportFaultRequest 上报故障请求
type ReportFaultRequest struct {
	EquipmentName     string `json:"equipment_name" binding:"required"` // 设备名称
	EquipmentModel    string `json:"equipment_model"`                   // 设备型号
	EquipmentCategory string `json:"equipment_category"`                // 设备类别
	CenterStakeNumber string `json:"center_stake_number"`               // 中心桩号
	SpecificLocation  string `json:"specific_location" binding:"required"`
	MonitorLocation   string `json:"monitor_location"`
	Description       string `json:"description" binding:"required"`
	Urgency           string `json:"urgency"` // general / urgent / very_urgent,缺省 general
}

// ResolveFaultRequest 标记已解决请求,维修过程及结果为必填
type ResolveFaultRequest struct {
	ArrivedAt                *time.Time `json:"arrived_at"`
	MaintenanceVehicle       string     `json:"maintenance_vehicle"`
	RequiredToolsMaterials   string     `json:"required_tools_materials"`
	FaultReasonAnalysis      string     `json:"fault_reason_analysis"`
	MaintenanceProcessResult string     `json:"maintenance_process_result"`
	Remarks                  string     `json:"remarks"`
}

// CannotResolveRequest 标记无法解决请求,原因分析为必填
type CannotResolveRequest struct {
	ArrivedAt           *time.Time `json:"arrived_at"`
	FaultReasonAnalysis string     `json:"fault_reason_analysis"`
	Remarks             string     `json:"remarks"`
}

// FaultListQuery 故障列表查询参数
type FaultListQuery struct {
	Status        string // 显式状态过滤,留空时按角色取默认视角
	Urgency       string
	EquipmentName string // 设备名称子串
	Location      string // 具体位置子串
	ReporterName  string // 上报人用户名子串
	StartDate     string // YYYY-MM-DD,含
	EndDate       string // YYYY-MM-DD,含
	Page          int
	PageSize      int
}

// 必填字段缺失的校验错误,入库前拦下
var (
	errProcessResultRequired  = &utils.ValidationError{Code: "PROCESS_RESULT_REQUIRED", Message: "维修过程及结果不能为空"}
	errReasonAnalysisRequired = &utils.ValidationError{Code: "REASON_ANALYSIS_REQUIRED", Message: "故障原因分析不能为空"}
	errInvalidUrgency         = &utils.ValidationError{Code: "INVALID_URGENCY", Message: "紧急程度不合法"}
	errInvalidStatus          = &utils.ValidationError{Code: "INVALID_STATUS", Message: "故障状态不合法"}
	errInvalidDate            = &utils.ValidationError{Code: "INVALID_DATE", Message: "日期格式不正确，应为 YYYY-MM-DD"}
)

// faultService 故障服务实现
type faultService struct {
	db          *gorm.DB
	faultRepo   repository.FaultRepository
	recordRepo  repository.MaintenanceRecordRepository
	historyRepo repository.StatusHistoryRepository
	auditSvc    AuditLogService
	hub         *websocket.Hub
	logger      *logrus.Entry
}

// NewFaultService 创建故障服务
func NewFaultService(
	db *gorm.DB,
	faultRepo repository.FaultRepository,
	recordRepo repository.MaintenanceRecordRepository,
	historyRepo repository.StatusHistoryRepository,
	auditSvc AuditLogService,
	hub *websocket.Hub,
	logger *logrus.Entry,
) FaultService {
	return &faultService{
		db:          db,
		faultRepo:   faultRepo,
		recordRepo:  recordRepo,
		historyRepo: historyRepo,
		auditSvc:    auditSvc,
		hub:         hub,
		logger:      logger,
	}
}

// Report 上报故障,上报人即为当前会话用户
func (s *faultService) Report(ctx context.Context, session *workflow.Session, req *ReportFaultRequest) (*model.Fault, error) {
	if err := workflow.Authorize(session, workflow.FaultState{}, workflow.ActionReport); err != nil {
		return nil, err
	}

	urgency := workflow.Urgency(req.Urgency)
	if req.Urgency == "" {
		urgency = workflow.UrgencyGeneral
	}
	if !urgency.Valid() {
		return nil, errInvalidUrgency
	}

	reporterID := session.UserID
	fault := &model.Fault{
		ReporterID:        &reporterID,
		EquipmentName:     strings.TrimSpace(req.EquipmentName),
		EquipmentModel:    strings.TrimSpace(req.EquipmentModel),
		EquipmentCategory: strings.TrimSpace(req.EquipmentCategory),
		CenterStakeNumber: strings.TrimSpace(req.CenterStakeNumber),
		SpecificLocation:  strings.TrimSpace(req.SpecificLocation),
		MonitorLocation:   strings.TrimSpace(req.MonitorLocation),
		Description:       strings.TrimSpace(req.Description),
		Status:            workflow.StatusPending,
		Urgency:           urgency,
	}
	if err := fault.Validate(); err != nil {
		return nil, &utils.ValidationError{Code: "INVALID_FAULT", Message: err.Error()}
	}

	if err := s.faultRepo.Create(fault); err != nil {
		return nil, fmt.Errorf("failed to create fault: %w", err)
	}

	metrics.RecordFaultReported()
	s.recordHistory(fault.ID, "", workflow.StatusPending, session.Username, "故障上报")
	_ = s.auditSvc.RecordAction(ctx, session, string(workflow.ActionReport), "fault", faultResourceID(fault.ID), map[string]interface{}{
		"equipment_name": fault.EquipmentName,
		"urgency":        string(fault.Urgency),
	})
	s.publish(websocket.FaultEvent{
		Type:      "fault.reported",
		FaultID:   fault.ID,
		To:        string(workflow.StatusPending),
		Operator:  session.Username,
		Equipment: fault.EquipmentName,
	})

	s.logger.WithFields(logrus.Fields{
		"fault_id": fault.ID,
		"reporter": session.Username,
	}).Info("故障已上报")

	return s.faultRepo.FindByID(fault.ID)
}

// List 按角色视角查询故障列表。
// 收费站工作人员只看自己上报且未了结的;运维人员看待处理、
// 处理中以及自己经手过的;管理员默认看全部未了结的。
// 显式传入状态过滤时以显式条件为准(管理员与运维可用)。
func (s *faultService) List(session *workflow.Session, query *FaultListQuery) ([]*model.Fault, int64, error) {
	if session == nil {
		return nil, 0, workflow.Authorize(nil, workflow.FaultState{}, workflow.ActionReport)
	}
	if query == nil {
		query = &FaultListQuery{}
	}

	filter := &repository.FaultFilter{
		EquipmentName: query.EquipmentName,
		Location:      query.Location,
		Page:          query.Page,
		PageSize:      query.PageSize,
	}

	if query.Urgency != "" {
		urgency := workflow.Urgency(query.Urgency)
		if !urgency.Valid() {
			return nil, 0, errInvalidUrgency
		}
		filter.Urgency = &urgency
	}

	if query.StartDate != "" {
		start, err := parseDate(query.StartDate)
		if err != nil {
			return nil, 0, errInvalidDate
		}
		filter.ReportedAfter = &start
	}
	if query.EndDate != "" {
		end, err := parseDate(query.EndDate)
		if err != nil {
			return nil, 0, errInvalidDate
		}
		// 含当天整天
		end = end.AddDate(0, 0, 1)
		filter.ReportedBefore = &end
	}

	explicit := query.Status != ""
	if explicit {
		status := workflow.Status(query.Status)
		if !status.Valid() {
			return nil, 0, errInvalidStatus
		}
		filter.Statuses = []workflow.Status{status}
	}

	switch session.Role {
	case workflow.RoleReporter:
		reporterID := session.UserID
		filter.ReporterID = &reporterID
		if !explicit {
			filter.ExcludeStatuses = []workflow.Status{workflow.StatusResolved, workflow.StatusCannotResolve}
		}

	case workflow.RoleMaintainer:
		if !explicit {
			maintainerID := session.UserID
			filter.Statuses = []workflow.Status{workflow.StatusPending, workflow.StatusInProgress}
			filter.MaintainerID = &maintainerID
		}
		filter.ReporterName = query.ReporterName

	case workflow.RoleAdmin:
		if !explicit {
			filter.ExcludeStatuses = []workflow.Status{workflow.StatusResolved, workflow.StatusCannotResolve}
		}
		filter.ReporterName = query.ReporterName
	}

	return s.faultRepo.FindByFilter(filter)
}

// Get 查询故障详情
func (s *faultService) Get(session *workflow.Session, id uint) (*model.Fault, error) {
	if session == nil {
		return nil, workflow.Authorize(nil, workflow.FaultState{}, workflow.ActionReport)
	}
	return s.findFault(id)
}

// Cancel 上报人撤销待处理的故障,撤销即整条删除
func (s *faultService) Cancel(ctx context.Context, session *workflow.Session, id uint) error {
	fault, err := s.findFault(id)
	if err != nil {
		return err
	}
	if err := workflow.Authorize(session, fault.State(), workflow.ActionCancel); err != nil {
		return err
	}

	if err := s.faultRepo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete fault: %w", err)
	}

	metrics.RecordTransition(string(workflow.ActionCancel))
	_ = s.auditSvc.RecordAction(ctx, session, string(workflow.ActionCancel), "fault", faultResourceID(id), map[string]interface{}{
		"equipment_name": fault.EquipmentName,
	})
	s.publish(websocket.FaultEvent{
		Type:      "fault.cancelled",
		FaultID:   id,
		From:      string(fault.Status),
		Operator:  session.Username,
		Equipment: fault.EquipmentName,
	})

	s.logger.WithFields(logrus.Fields{
		"fault_id": id,
		"operator": session.Username,
	}).Info("故障上报已撤销")
	return nil
}

// Accept 运维人员接单。状态以条件更新落库,
// 并发接单时只有一个请求能从 pending 迁移成功。
func (s *faultService) Accept(ctx context.Context, session *workflow.Session, id uint) (*model.Fault, error) {
	fault, err := s.findFault(id)
	if err != nil {
		return nil, err
	}
	if err := workflow.Authorize(session, fault.State(), workflow.ActionAccept); err != nil {
		return nil, err
	}

	won, err := s.faultRepo.CompareAndSetStatus(id, workflow.StatusPending, workflow.StatusInProgress)
	if err != nil {
		return nil, fmt.Errorf("failed to accept fault: %w", err)
	}
	if !won {
		// 已被别人抢先接单,按最新状态给出一致的拒绝理由
		fresh, ferr := s.findFault(id)
		if ferr != nil {
			return nil, ferr
		}
		return nil, workflow.Authorize(session, fresh.State(), workflow.ActionAccept)
	}

	// 接单即建维修记录,维护人为接单者
	if _, err := s.recordRepo.GetOrCreate(id, session.UserID); err != nil {
		return nil, fmt.Errorf("failed to create maintenance record: %w", err)
	}

	metrics.RecordTransition(string(workflow.ActionAccept))
	s.recordHistory(id, workflow.StatusPending, workflow.StatusInProgress, session.Username, "运维人员接单")
	_ = s.auditSvc.RecordAction(ctx, session, string(workflow.ActionAccept), "fault", faultResourceID(id), nil)
	s.publish(websocket.FaultEvent{
		Type:      "fault.status_changed",
		FaultID:   id,
		From:      string(workflow.StatusPending),
		To:        string(workflow.StatusInProgress),
		Operator:  session.Username,
		Equipment: fault.EquipmentName,
	})

	s.logger.WithFields(logrus.Fields{
		"fault_id":   id,
		"maintainer": session.Username,
	}).Info("故障已接单")

	return s.findFault(id)
}

// Resolve 完成维修,标记已解决并补全维修记录
func (s *faultService) Resolve(ctx context.Context, session *workflow.Session, id uint, req *ResolveFaultRequest) (*model.Fault, error) {
	if req == nil || strings.TrimSpace(req.MaintenanceProcessResult) == "" {
		// 必填缺失在入库之前拦下,不产生半成品状态
		return nil, errProcessResultRequired
	}

	fault, err := s.findFault(id)
	if err != nil {
		return nil, err
	}
	if err := workflow.Authorize(session, fault.State(), workflow.ActionResolve); err != nil {
		return nil, err
	}

	return s.complete(ctx, session, fault, workflow.StatusResolved, workflow.ActionResolve, func(record *model.MaintenanceRecord, now time.Time) {
		if req.ArrivedAt != nil {
			record.ArrivedAt = req.ArrivedAt
		}
		record.CompletedAt = &now
		record.MaintenanceVehicle = strings.TrimSpace(req.MaintenanceVehicle)
		record.RequiredToolsMaterials = strings.TrimSpace(req.RequiredToolsMaterials)
		record.FaultReasonAnalysis = strings.TrimSpace(req.FaultReasonAnalysis)
		record.MaintenanceProcessResult = strings.TrimSpace(req.MaintenanceProcessResult)
		record.Remarks = strings.TrimSpace(req.Remarks)
	})
}

// CannotResolve 标记无法解决,原因分析必填
func (s *faultService) CannotResolve(ctx context.Context, session *workflow.Session, id uint, req *CannotResolveRequest) (*model.Fault, error) {
	if req == nil || strings.TrimSpace(req.FaultReasonAnalysis) == "" {
		return nil, errReasonAnalysisRequired
	}

	fault, err := s.findFault(id)
	if err != nil {
		return nil, err
	}
	if err := workflow.Authorize(session, fault.State(), workflow.ActionCannotResolve); err != nil {
		return nil, err
	}

	return s.complete(ctx, session, fault, workflow.StatusCannotResolve, workflow.ActionCannotResolve, func(record *model.MaintenanceRecord, now time.Time) {
		if req.ArrivedAt != nil {
			record.ArrivedAt = req.ArrivedAt
		}
		record.CompletedAt = &now
		record.FaultReasonAnalysis = strings.TrimSpace(req.FaultReasonAnalysis)
		record.Remarks = strings.TrimSpace(req.Remarks)
	})
}

// complete 把处理中的故障迁移到终态,同时补全维修记录。
// 状态迁移用条件更新,输掉竞争时整体失败,不落任何一半。
func (s *faultService) complete(
	ctx context.Context,
	session *workflow.Session,
	fault *model.Fault,
	to workflow.Status,
	action workflow.Action,
	fill func(record *model.MaintenanceRecord, now time.Time),
) (*model.Fault, error) {
	now := time.Now()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		txFaults := repository.NewFaultRepository(tx)
		txRecords := repository.NewMaintenanceRecordRepository(tx)

		won, err := txFaults.CompareAndSetStatus(fault.ID, workflow.StatusInProgress, to)
		if err != nil {
			return err
		}
		if !won {
			return &staleStateError{faultID: fault.ID, action: action}
		}

		record, err := txRecords.GetOrCreate(fault.ID, session.UserID)
		if err != nil {
			return err
		}
		if record.MaintainerID == nil {
			maintainerID := session.UserID
			record.MaintainerID = &maintainerID
		}
		fill(record, now)
		return txRecords.Save(record)
	})
	if err != nil {
		var stale *staleStateError
		if errors.As(err, &stale) {
			fresh, ferr := s.findFault(fault.ID)
			if ferr != nil {
				return nil, ferr
			}
			return nil, workflow.Authorize(session, fresh.State(), action)
		}
		return nil, fmt.Errorf("failed to complete fault: %w", err)
	}

	metrics.RecordTransition(string(action))
	s.recordHistory(fault.ID, workflow.StatusInProgress, to, session.Username, "")
	_ = s.auditSvc.RecordAction(ctx, session, string(action), "fault", faultResourceID(fault.ID), nil)
	s.publish(websocket.FaultEvent{
		Type:      "fault.status_changed",
		FaultID:   fault.ID,
		From:      string(workflow.StatusInProgress),
		To:        string(to),
		Operator:  session.Username,
		Equipment: fault.EquipmentName,
	})

	s.logger.WithFields(logrus.Fields{
		"fault_id": fault.ID,
		"status":   string(to),
		"operator": session.Username,
	}).Info("故障处理完成")

	return s.findFault(fault.ID)
}

// Delete 管理员删除故障记录,任何状态均可
func (s *faultService) Delete(ctx context.Context, session *workflow.Session, id uint) error {
	fault, err := s.findFault(id)
	if err != nil {
		return err
	}
	if err := workflow.Authorize(session, fault.State(), workflow.ActionDelete); err != nil {
		return err
	}

	if err := s.faultRepo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete fault: %w", err)
	}

	_ = s.auditSvc.RecordAction(ctx, session, string(workflow.ActionDelete), "fault", faultResourceID(id), map[string]interface{}{
		"equipment_name": fault.EquipmentName,
		"status":         string(fault.Status),
	})
	s.logger.WithFields(logrus.Fields{
		"fault_id": id,
		"operator": session.Username,
	}).Info("故障记录已删除")
	return nil
}

// Export 导出《设备维修原始记录表》,返回工作簿和文件名
func (s *faultService) Export(session *workflow.Session, id uint) (*excelize.File, string, error) {
	fault, err := s.findFault(id)
	if err != nil {
		return nil, "", err
	}
	if err := workflow.Authorize(session, fault.State(), workflow.ActionExport); err != nil {
		return nil, "", err
	}

	workbook, err := export.BuildWorkbook(fault)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build report: %w", err)
	}
	return workbook, export.Filename(fault.ID), nil
}

// History 查询故障状态变更历史
func (s *faultService) History(session *workflow.Session, id uint) ([]*model.StatusHistoryModel, error) {
	if _, err := s.findFault(id); err != nil {
		return nil, err
	}
	return s.historyRepo.FindByFaultID(id)
}

// findFault 查询故障,不存在时返回 ErrFaultNotFound
func (s *faultService) findFault(id uint) (*model.Fault, error) {
	fault, err := s.faultRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFaultNotFound
		}
		return nil, err
	}
	return fault, nil
}

// recordHistory 追加状态变更历史,失败只记日志
func (s *faultService) recordHistory(faultID uint, from, to workflow.Status, operator, reason string) {
	history := &model.StatusHistoryModel{
		FaultID:    faultID,
		FromStatus: string(from),
		ToStatus:   string(to),
		Operator:   operator,
		Reason:     reason,
	}
	if err := s.historyRepo.Save(history); err != nil {
		s.logger.WithError(err).WithField("fault_id", faultID).Warn("状态历史写入失败")
	}
}

// publish 广播故障事件,Hub 缺席时静默跳过
func (s *faultService) publish(event websocket.FaultEvent) {
	if s.hub != nil {
		s.hub.PublishFaultEvent(event)
	}
}

// staleStateError 条件更新没有命中,说明状态已被并发请求改走
type staleStateError struct {
	faultID uint
	action  workflow.Action
}

func (e *staleStateError) Error() string {
	return fmt.Sprintf("fault %d state changed concurrently during %s", e.faultID, e.action)
}

// parseDate 解析 YYYY-MM-DD 日期
func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(s))
}

// faultResourceID 审计日志中的故障资源 ID
func faultResourceID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
