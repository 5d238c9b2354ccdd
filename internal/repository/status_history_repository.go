package repository

import (
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/model"
	"gorm.io/gorm"
)

// StatusHistoryRepository 状态历史仓储接口
type StatusHistoryRepository interface {
	Save(history *model.StatusHistoryModel) error
	FindByFaultID(faultID uint) ([]*model.StatusHistoryModel, error)
}

// statusHistoryRepository 状态历史仓储实现
type statusHistoryRepository struct {
	db *gorm.DB
}

// NewStatusHistoryRepository 创建状态历史仓储
func NewStatusHistoryRepository(db *gorm.DB) StatusHistoryRepository {
	return &statusHistoryRepository{db: db}
}

// Save 保存状态历史
func (r *statusHistoryRepository) Save(history *model.StatusHistoryModel) error {
	return r.db.Create(history).Error
}

// FindByFaultID 按时间顺序返回一个故障的状态变更历史
func (r *statusHistoryRepository) FindByFaultID(faultID uint) ([]*model.StatusHistoryModel, error) {
	var histories []*model.StatusHistoryModel
	err := r.db.
		Where("fault_id = ?", faultID).
		Order("created_at ASC").
		Find(&histories).Error
	return histories, err
}
