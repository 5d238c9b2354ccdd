package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/model"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/repository"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/storage"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/utils"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/workflow"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrRecordNotFound 维修记录不存在
var ErrRecordNotFound = errors.New("maintenance record not found")

var (
	errRecordForbidden = &workflow.GuardError{
		Status:  http.StatusForbidden,
		Code:    "RECORD_FORBIDDEN",
		Message: "您没有权限修改此维修记录",
	}
	errInvalidPhotoType = &utils.ValidationError{Code: "INVALID_PHOTO_TYPE", Message: "照片类型不合法"}
)

// MaintenanceService 维修记录服务接口。
// 记录浏览按角色取景,修改只开放给记录的维护人和管理员。
type MaintenanceService interface {
	List(session *workflow.Session, query *RecordListQuery) ([]*model.MaintenanceRecord, int64, error)
	Get(session *workflow.Session, id uint) (*model.MaintenanceRecord, error)
	GetByFault(session *workflow.Session, faultID uint) (*model.MaintenanceRecord, error)
	Update(ctx context.Context, session *workflow.Session, id uint, req *UpdateRecordRequest) (*model.MaintenanceRecord, error)
	UploadPhoto(ctx context.Context, session *workflow.Session, recordID uint, photoType string, filename string, src io.Reader) (*model.MaintenancePhoto, error)
	DeletePhoto(ctx context.Context, session *workflow.Session, photoID uint) error
}

// RecordListQuery 维修记录列表查询参数
type RecordListQuery struct {
	EquipmentName string // 设备名称子串(经由故障关联)
	Page          int
	PageSize      int
}

// UpdateRecordRequest 修改维修记录请求,nil 字段保持不变
type UpdateRecordRequest struct {
	ArrivedAt                *time.Time `json:"arrived_at"`
	CompletedAt              *time.Time `json:"completed_at"`
	MaintenanceVehicle       *string    `json:"maintenance_vehicle"`
	RequiredToolsMaterials   *string    `json:"required_tools_materials"`
	FaultReasonAnalysis      *string    `json:"fault_reason_analysis"`
	MaintenanceProcessResult *string    `json:"maintenance_process_result"`
	Remarks                  *string    `json:"remarks"`
}

// maintenanceService 维修记录服务实现
type maintenanceService struct {
	recordRepo repository.MaintenanceRecordRepository
	photoRepo  repository.PhotoRepository
	photos     *storage.PhotoStore
	auditSvc   AuditLogService
	logger     *logrus.Entry
}

// NewMaintenanceService 创建维修记录服务
func NewMaintenanceService(
	recordRepo repository.MaintenanceRecordRepository,
	photoRepo repository.PhotoRepository,
	photos *storage.PhotoStore,
	auditSvc AuditLogService,
	logger *logrus.Entry,
) MaintenanceService {
	return &maintenanceService{
		recordRepo: recordRepo,
		photoRepo:  photoRepo,
		photos:     photos,
		auditSvc:   auditSvc,
		logger:     logger,
	}
}

// List 按角色视角查询维修记录。
// 运维人员看自己经手的,收费站工作人员看自己上报故障的,管理员看全部。
func (s *maintenanceService) List(session *workflow.Session, query *RecordListQuery) ([]*model.MaintenanceRecord, int64, error) {
	if session == nil {
		return nil, 0, workflow.Authorize(nil, workflow.FaultState{}, workflow.ActionReport)
	}
	if query == nil {
		query = &RecordListQuery{}
	}

	filter := &repository.MaintenanceRecordFilter{
		EquipmentName: query.EquipmentName,
		Page:          query.Page,
		PageSize:      query.PageSize,
	}

	switch session.Role {
	case workflow.RoleMaintainer:
		maintainerID := session.UserID
		filter.MaintainerID = &maintainerID
	case workflow.RoleReporter:
		reporterID := session.UserID
		filter.ReporterID = &reporterID
	}

	return s.recordRepo.FindByFilter(filter)
}

// Get 查询维修记录详情
func (s *maintenanceService) Get(session *workflow.Session, id uint) (*model.MaintenanceRecord, error) {
	if session == nil {
		return nil, workflow.Authorize(nil, workflow.FaultState{}, workflow.ActionReport)
	}
	return s.findRecord(id)
}

// GetByFault 按故障查询维修记录
func (s *maintenanceService) GetByFault(session *workflow.Session, faultID uint) (*model.MaintenanceRecord, error) {
	if session == nil {
		return nil, workflow.Authorize(nil, workflow.FaultState{}, workflow.ActionReport)
	}
	record, err := s.recordRepo.FindByFaultID(faultID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return record, nil
}

// Update 修改维修记录,只允许记录维护人和管理员
func (s *maintenanceService) Update(ctx context.Context, session *workflow.Session, id uint, req *UpdateRecordRequest) (*model.MaintenanceRecord, error) {
	record, err := s.findRecord(id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeModify(session, record); err != nil {
		return nil, err
	}
	if req == nil {
		return record, nil
	}

	if req.ArrivedAt != nil {
		record.ArrivedAt = req.ArrivedAt
	}
	if req.CompletedAt != nil {
		record.CompletedAt = req.CompletedAt
	}
	if req.MaintenanceVehicle != nil {
		record.MaintenanceVehicle = strings.TrimSpace(*req.MaintenanceVehicle)
	}
	if req.RequiredToolsMaterials != nil {
		record.RequiredToolsMaterials = strings.TrimSpace(*req.RequiredToolsMaterials)
	}
	if req.FaultReasonAnalysis != nil {
		record.FaultReasonAnalysis = strings.TrimSpace(*req.FaultReasonAnalysis)
	}
	if req.MaintenanceProcessResult != nil {
		record.MaintenanceProcessResult = strings.TrimSpace(*req.MaintenanceProcessResult)
	}
	if req.Remarks != nil {
		record.Remarks = strings.TrimSpace(*req.Remarks)
	}

	if err := s.recordRepo.Save(record); err != nil {
		return nil, fmt.Errorf("failed to update maintenance record: %w", err)
	}

	_ = s.auditSvc.RecordAction(ctx, session, "update_record", "maintenance_record", recordResourceID(id), nil)
	return s.findRecord(id)
}

// UploadPhoto 为维修记录上传照片。照片只增不删(管理员例外),
// 文件落盘成功后才写数据库行。
func (s *maintenanceService) UploadPhoto(
	ctx context.Context,
	session *workflow.Session,
	recordID uint,
	photoType string,
	filename string,
	src io.Reader,
) (*model.MaintenancePhoto, error) {
	record, err := s.findRecord(recordID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeModify(session, record); err != nil {
		return nil, err
	}

	pt := model.PhotoType(photoType)
	if photoType == "" {
		pt = model.PhotoOther
	}
	if !pt.Valid() {
		return nil, errInvalidPhotoType
	}

	relPath, err := s.photos.Save(record.FaultID, pt, filename, src)
	if err != nil {
		return nil, &utils.ValidationError{Code: "INVALID_PHOTO", Message: "照片保存失败：" + err.Error()}
	}

	photo := &model.MaintenancePhoto{
		MaintenanceRecordID: recordID,
		PhotoType:           pt,
		ImagePath:           relPath,
	}
	if err := s.photoRepo.Create(photo); err != nil {
		// 数据库失败时回收已落盘的文件
		_ = s.photos.Remove(relPath)
		return nil, fmt.Errorf("failed to save photo: %w", err)
	}

	_ = s.auditSvc.RecordAction(ctx, session, "upload_photo", "maintenance_record", recordResourceID(recordID), map[string]interface{}{
		"photo_type": string(pt),
	})
	s.logger.WithFields(logrus.Fields{
		"record_id":  recordID,
		"photo_type": string(pt),
		"operator":   session.Username,
	}).Info("维修照片已上传")

	return photo, nil
}

// DeletePhoto 删除照片,仅管理员
func (s *maintenanceService) DeletePhoto(ctx context.Context, session *workflow.Session, photoID uint) error {
	if session == nil {
		return workflow.Authorize(nil, workflow.FaultState{}, workflow.ActionReport)
	}
	if session.Role != workflow.RoleAdmin {
		return errRecordForbidden
	}

	photo, err := s.photoRepo.FindByID(photoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecordNotFound
		}
		return err
	}

	if err := s.photoRepo.Delete(photoID); err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	_ = s.photos.Remove(photo.ImagePath)

	_ = s.auditSvc.RecordAction(ctx, session, "delete_photo", "maintenance_record", recordResourceID(photo.MaintenanceRecordID), nil)
	return nil
}

// authorizeModify 修改类操作只开放给记录维护人和管理员
func (s *maintenanceService) authorizeModify(session *workflow.Session, record *model.MaintenanceRecord) error {
	if session == nil {
		return workflow.Authorize(nil, workflow.FaultState{}, workflow.ActionReport)
	}
	if session.Role == workflow.RoleAdmin {
		return nil
	}
	if session.Role == workflow.RoleMaintainer &&
		record.MaintainerID != nil && *record.MaintainerID == session.UserID {
		return nil
	}
	return errRecordForbidden
}

// findRecord 查询维修记录,不存在时返回 ErrRecordNotFound
func (s *maintenanceService) findRecord(id uint) (*model.MaintenanceRecord, error) {
	record, err := s.recordRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return record, nil
}

// recordResourceID 审计日志中的维修记录资源 ID
func recordResourceID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
