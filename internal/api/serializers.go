package api

import (
	"time"

	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/model"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/storage"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/workflow"
)

// Serializer 把数据模型整形为响应对象。
// 状态和紧急程度同时带机读值和中文标签,照片路径换算成可访问 URL,
// 允许的动作由工作流守卫统一计算。
type Serializer struct {
	photos *storage.PhotoStore
}

// NewSerializer 创建序列化器
func NewSerializer(photos *storage.PhotoStore) *Serializer {
	return &Serializer{photos: photos}
}

// FaultResponse 故障响应
type FaultResponse struct {
	ID                 uint            `json:"id"`
	Reporter           *uint           `json:"reporter"`
	ReporterName       string          `json:"reporter_name"`
	ReporterDepartment string          `json:"reporter_department"`
	EquipmentName      string          `json:"equipment_name"`
	EquipmentModel     string          `json:"equipment_model"`
	EquipmentCategory  string          `json:"equipment_category"`
	CenterStakeNumber  string          `json:"center_stake_number"`
	SpecificLocation   string          `json:"specific_location"`
	MonitorLocation    string          `json:"monitor_location"`
	Description        string          `json:"description"`
	Status             string          `json:"status"`
	StatusLabel        string          `json:"status_label"`
	Urgency            string          `json:"urgency"`
	UrgencyLabel       string          `json:"urgency_label"`
	ReportedAt         time.Time       `json:"reported_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	MaintenanceRecord  *RecordResponse `json:"maintenance_record_detail"`
	AllowedActions     []string        `json:"allowed_actions"`
}

// RecordResponse 维修记录响应
type RecordResponse struct {
	ID                       uint            `json:"id"`
	FaultID                  uint            `json:"fault"`
	Maintainer               *uint           `json:"maintainer"`
	MaintainerName           string          `json:"maintainer_name"`
	MaintainerDepartment     string          `json:"maintainer_department"`
	ArrivedAt                *time.Time      `json:"arrived_at"`
	CompletedAt              *time.Time      `json:"completed_at"`
	MaintenanceVehicle       string          `json:"maintenance_vehicle"`
	RequiredToolsMaterials   string          `json:"required_tools_materials"`
	FaultReasonAnalysis      string          `json:"fault_reason_analysis"`
	MaintenanceProcessResult string          `json:"maintenance_process_result"`
	Remarks                  string          `json:"remarks"`
	CreatedAt                time.Time       `json:"created_at"`
	UpdatedAt                time.Time       `json:"updated_at"`
	Photos                   []PhotoResponse `json:"photos"`
	Fault                    *FaultBrief     `json:"fault_detail,omitempty"`
}

// FaultBrief 维修记录里嵌套的故障摘要
type FaultBrief struct {
	ID               uint   `json:"id"`
	EquipmentName    string `json:"equipment_name"`
	SpecificLocation string `json:"specific_location"`
	Status           string `json:"status"`
	StatusLabel      string `json:"status_label"`
	ReporterName     string `json:"reporter_name"`
}

// PhotoResponse 维修照片响应
type PhotoResponse struct {
	ID             uint      `json:"id"`
	PhotoType      string    `json:"photo_type"`
	PhotoTypeLabel string    `json:"photo_type_label"`
	ImageURL       string    `json:"image_url"`
	UploadedAt     time.Time `json:"uploaded_at"`
}

// UserResponse 用户响应
type UserResponse struct {
	ID             uint   `json:"id"`
	Username       string `json:"username"`
	Role           string `json:"role"`
	RoleLabel      string `json:"role_label"`
	Department     *uint  `json:"department"`
	DepartmentName string `json:"department_name"`
}

// HistoryResponse 状态历史响应
type HistoryResponse struct {
	ID         uint      `json:"id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	Operator   string    `json:"operator"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}

// Fault 整形故障响应,allowed_actions 按当前会话计算
func (s *Serializer) Fault(fault *model.Fault, session *workflow.Session) *FaultResponse {
	resp := &FaultResponse{
		ID:                fault.ID,
		Reporter:          fault.ReporterID,
		ReporterName:      fault.ReporterName(),
		EquipmentName:     fault.EquipmentName,
		EquipmentModel:    fault.EquipmentModel,
		EquipmentCategory: fault.EquipmentCategory,
		CenterStakeNumber: fault.CenterStakeNumber,
		SpecificLocation:  fault.SpecificLocation,
		MonitorLocation:   fault.MonitorLocation,
		Description:       fault.Description,
		Status:            string(fault.Status),
		StatusLabel:       fault.Status.Label(),
		Urgency:           string(fault.Urgency),
		UrgencyLabel:      fault.Urgency.Label(),
		ReportedAt:        fault.ReportedAt,
		UpdatedAt:         fault.UpdatedAt,
		AllowedActions:    []string{},
	}
	if fault.Reporter != nil {
		resp.ReporterDepartment = fault.Reporter.DepartmentName()
	}
	if fault.MaintenanceRecord != nil {
		resp.MaintenanceRecord = s.Record(fault.MaintenanceRecord, false)
	}
	for _, action := range workflow.AllowedActions(session, fault.State()) {
		resp.AllowedActions = append(resp.AllowedActions, string(action))
	}
	return resp
}

// Faults 整形故障列表
func (s *Serializer) Faults(faults []*model.Fault, session *workflow.Session) []*FaultResponse {
	responses := make([]*FaultResponse, 0, len(faults))
	for _, fault := range faults {
		responses = append(responses, s.Fault(fault, session))
	}
	return responses
}

// Record 整形维修记录响应,withFault 控制是否嵌入故障摘要
func (s *Serializer) Record(record *model.MaintenanceRecord, withFault bool) *RecordResponse {
	resp := &RecordResponse{
		ID:                       record.ID,
		FaultID:                  record.FaultID,
		Maintainer:               record.MaintainerID,
		MaintainerName:           record.MaintainerName(),
		ArrivedAt:                record.ArrivedAt,
		CompletedAt:              record.CompletedAt,
		MaintenanceVehicle:       record.MaintenanceVehicle,
		RequiredToolsMaterials:   record.RequiredToolsMaterials,
		FaultReasonAnalysis:      record.FaultReasonAnalysis,
		MaintenanceProcessResult: record.MaintenanceProcessResult,
		Remarks:                  record.Remarks,
		CreatedAt:                record.CreatedAt,
		UpdatedAt:                record.UpdatedAt,
		Photos:                   make([]PhotoResponse, 0, len(record.Photos)),
	}
	if record.Maintainer != nil {
		resp.MaintainerDepartment = record.Maintainer.DepartmentName()
	}
	for _, photo := range record.Photos {
		resp.Photos = append(resp.Photos, PhotoResponse{
			ID:             photo.ID,
			PhotoType:      string(photo.PhotoType),
			PhotoTypeLabel: photo.PhotoType.Label(),
			ImageURL:       s.photos.URL(photo.ImagePath),
			UploadedAt:     photo.UploadedAt,
		})
	}
	if withFault && record.Fault != nil {
		resp.Fault = &FaultBrief{
			ID:               record.Fault.ID,
			EquipmentName:    record.Fault.EquipmentName,
			SpecificLocation: record.Fault.SpecificLocation,
			Status:           string(record.Fault.Status),
			StatusLabel:      record.Fault.Status.Label(),
			ReporterName:     record.Fault.ReporterName(),
		}
	}
	return resp
}

// Records 整形维修记录列表,带故障摘要
func (s *Serializer) Records(records []*model.MaintenanceRecord) []*RecordResponse {
	responses := make([]*RecordResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, s.Record(record, true))
	}
	return responses
}

// Photo 整形维修照片响应
func (s *Serializer) Photo(photo *model.MaintenancePhoto) PhotoResponse {
	return PhotoResponse{
		ID:             photo.ID,
		PhotoType:      string(photo.PhotoType),
		PhotoTypeLabel: photo.PhotoType.Label(),
		ImageURL:       s.photos.URL(photo.ImagePath),
		UploadedAt:     photo.UploadedAt,
	}
}

// User 整形用户响应
func (s *Serializer) User(user *model.User) *UserResponse {
	return &UserResponse{
		ID:             user.ID,
		Username:       user.Username,
		Role:           string(user.Role),
		RoleLabel:      user.Role.Label(),
		Department:     user.DepartmentID,
		DepartmentName: user.DepartmentName(),
	}
}

// Users 整形用户列表
func (s *Serializer) Users(users []*model.User) []*UserResponse {
	responses := make([]*UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, s.User(user))
	}
	return responses
}

// Histories 整形状态历史列表
func (s *Serializer) Histories(histories []*model.StatusHistoryModel) []*HistoryResponse {
	responses := make([]*HistoryResponse, 0, len(histories))
	for _, history := range histories {
		responses = append(responses, &HistoryResponse{
			ID:         history.ID,
			FromStatus: history.FromStatus,
			ToStatus:   history.ToStatus,
			Operator:   history.Operator,
			Reason:     history.Reason,
			CreatedAt:  history.CreatedAt,
		})
	}
	return responses
}
