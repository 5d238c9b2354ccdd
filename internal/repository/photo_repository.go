package repository

import (
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/model"
	"gorm.io/gorm"
)

// PhotoRepository 维修照片仓储接口
type PhotoRepository interface {
	Create(photo *model.MaintenancePhoto) error
	FindByID(id uint) (*model.MaintenancePhoto, error)
	FindByRecordID(recordID uint) ([]*model.MaintenancePhoto, error)
	Delete(id uint) error
}

// photoRepository 维修照片仓储实现
type photoRepository struct {
	db *gorm.DB
}

// NewPhotoRepository 创建维修照片仓储
func NewPhotoRepository(db *gorm.DB) PhotoRepository {
	return &photoRepository{db: db}
}

// Create 新增照片
func (r *photoRepository) Create(photo *model.MaintenancePhoto) error {
	return r.db.Create(photo).Error
}

// FindByID 根据 ID 查找照片
func (r *photoRepository) FindByID(id uint) (*model.MaintenancePhoto, error) {
	var photo model.MaintenancePhoto
	if err := r.db.First(&photo, id).Error; err != nil {
		return nil, err
	}
	return &photo, nil
}

// FindByRecordID 按上传时间顺序返回一条维修记录的全部照片
func (r *photoRepository) FindByRecordID(recordID uint) ([]*model.MaintenancePhoto, error) {
	var photos []*model.MaintenancePhoto
	err := r.db.
		Where("maintenance_record_id = ?", recordID).
		Order("uploaded_at ASC").
		Find(&photos).Error
	return photos, err
}

// Delete 删除照片记录
func (r *photoRepository) Delete(id uint) error {
	return r.db.Delete(&model.MaintenancePhoto{}, id).Error
}
