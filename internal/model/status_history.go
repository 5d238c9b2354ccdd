package model

import (
	"errors"
	"time"
)

// StatusHistoryModel 故障状态变更历史数据模型
type StatusHistoryModel struct {
	ID         uint      `gorm:"primaryKey"`
	FaultID    uint      `gorm:"not null;index"`
	FromStatus string    `gorm:"type:varchar(20)"`
	ToStatus   string    `gorm:"type:varchar(20);not null"`
	Operator   string    `gorm:"type:varchar(150);not null"` // 操作人用户名
	Reason     string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index"`
}

// TableName 指定表名
func (StatusHistoryModel) TableName() string {
	return "status_history"
}

// Validate 验证状态历史模型
func (h *StatusHistoryModel) Validate() error {
	if h.FaultID == 0 {
		return errors.New("fault id is required")
	}
	if h.ToStatus == "" {
		return errors.New("to status is required")
	}
	if h.Operator == "" {
		return errors.New("operator is required")
	}
	return nil
}
