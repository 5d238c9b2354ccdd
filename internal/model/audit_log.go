package model

import (
	"errors"
	"time"
)

// AuditLogModel 审计日志数据模型
type AuditLogModel struct {
	ID           string    `gorm:"primaryKey;type:varchar(64)"`
	UserID       uint      `gorm:"not null;index"`
	Username     string    `gorm:"type:varchar(150);not null"`
	Action       string    `gorm:"type:varchar(64);not null;index"` // report/cancel/accept/resolve/...
	ResourceType string    `gorm:"type:varchar(32);not null"`       // fault/user/department/...
	ResourceID   string    `gorm:"type:varchar(64);not null;index"`
	RequestID    string    `gorm:"type:varchar(64);index"`
	IP           string    `gorm:"type:varchar(45)"` // IPv4 或 IPv6
	UserAgent    string    `gorm:"type:text"`
	Details      []byte    `gorm:"type:jsonb"` // 操作详情
	CreatedAt    time.Time `gorm:"not null;index"`
}

// TableName 指定表名
func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// Validate 验证审计日志模型
func (a *AuditLogModel) Validate() error {
	if a.ID == "" {
		return errors.New("audit log ID is required")
	}
	if a.UserID == 0 {
		return errors.New("user ID is required")
	}
	if a.Action == "" {
		return errors.New("action is required")
	}
	if a.ResourceType == "" {
		return errors.New("resource type is required")
	}
	if a.ResourceID == "" {
		return errors.New("resource ID is required")
	}
	return nil
}
