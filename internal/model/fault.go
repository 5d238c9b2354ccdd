package model

import (
	"errors"
	"strings"
	"time"

	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/workflow"
)

// Fault 故障上报数据模型
type Fault struct {
	ID                uint               `gorm:"primaryKey" json:"id"`
	ReporterID        *uint              `gorm:"index" json:"reporter"` // 上报人,用户删除后保留故障
	Reporter          *User              `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	EquipmentName     string             `gorm:"type:varchar(200);not null" json:"equipment_name"`
	EquipmentModel    string             `gorm:"type:varchar(100)" json:"equipment_model"`
	EquipmentCategory string             `gorm:"type:varchar(100)" json:"equipment_category"`
	CenterStakeNumber string             `gorm:"type:varchar(50)" json:"center_stake_number"`
	SpecificLocation  string             `gorm:"type:varchar(255);not null" json:"specific_location"`
	MonitorLocation   string             `gorm:"type:varchar(255)" json:"monitor_location"`
	Description       string             `gorm:"type:text;not null" json:"description"`
	Status            workflow.Status    `gorm:"type:varchar(20);not null;default:pending;index" json:"status"`
	Urgency           workflow.Urgency   `gorm:"type:varchar(20);not null;default:general" json:"urgency"`
	ReportedAt        time.Time          `gorm:"autoCreateTime;index" json:"reported_at"`
	UpdatedAt         time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
	MaintenanceRecord *MaintenanceRecord `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// TableName 指定表名
func (Fault) TableName() string {
	return "faults"
}

// Validate 验证故障模型,设备名称/具体位置/故障描述为必填
func (f *Fault) Validate() error {
	if strings.TrimSpace(f.EquipmentName) == "" {
		return errors.New("equipment name is required")
	}
	if strings.TrimSpace(f.SpecificLocation) == "" {
		return errors.New("specific location is required")
	}
	if strings.TrimSpace(f.Description) == "" {
		return errors.New("description is required")
	}
	if !f.Status.Valid() {
		return errors.New("invalid fault status")
	}
	if !f.Urgency.Valid() {
		return errors.New("invalid fault urgency")
	}
	return nil
}

// State 返回守卫判定所需的属性切片
func (f *Fault) State() workflow.FaultState {
	var reporterID uint
	if f.ReporterID != nil {
		reporterID = *f.ReporterID
	}
	return workflow.FaultState{
		ReporterID: reporterID,
		Status:     f.Status,
	}
}

// ReporterName 返回上报人用户名,上报人已删除时为空串
func (f *Fault) ReporterName() string {
	if f.Reporter == nil {
		return ""
	}
	return f.Reporter.Username
}
