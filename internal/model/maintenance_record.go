package model

import (
	"errors"
	"time"
)

// MaintenanceRecord 维修记录数据模型。
// 每个故障至多一条,接单时创建,解决时补全。
type MaintenanceRecord struct {
	ID                       uint               `gorm:"primaryKey" json:"id"`
	FaultID                  uint               `gorm:"not null;uniqueIndex" json:"fault"`
	Fault                    *Fault             `json:"-"`
	MaintainerID             *uint              `gorm:"index" json:"maintainer"` // 维护人员
	Maintainer               *User              `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	ArrivedAt                *time.Time         `json:"arrived_at"`   // 到达现场时间
	CompletedAt              *time.Time         `json:"completed_at"` // 完成维修时间
	MaintenanceVehicle       string             `gorm:"type:varchar(100)" json:"maintenance_vehicle"`
	RequiredToolsMaterials   string             `gorm:"type:text" json:"required_tools_materials"` // 维修所需专用工具、仪器、器材、备件等
	FaultReasonAnalysis      string             `gorm:"type:text" json:"fault_reason_analysis"`
	MaintenanceProcessResult string             `gorm:"type:text" json:"maintenance_process_result"`
	Remarks                  string             `gorm:"type:text" json:"remarks"`
	CreatedAt                time.Time          `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt                time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
	Photos                   []MaintenancePhoto `gorm:"constraint:OnDelete:CASCADE" json:"photos"`
}

// TableName 指定表名
func (MaintenanceRecord) TableName() string {
	return "maintenance_records"
}

// Validate 验证维修记录模型
func (m *MaintenanceRecord) Validate() error {
	if m.FaultID == 0 {
		return errors.New("fault id is required")
	}
	return nil
}

// MaintainerName 返回维护人员用户名,已删除时为空串
func (m *MaintenanceRecord) MaintainerName() string {
	if m.Maintainer == nil {
		return ""
	}
	return m.Maintainer.Username
}
