package repository

import (
	"errors"

	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/model"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/utils"
	"gorm.io/gorm"
)

// MaintenanceRecordRepository 维修记录仓储接口
type MaintenanceRecordRepository interface {
	Save(record *model.MaintenanceRecord) error
	FindByID(id uint) (*model.MaintenanceRecord, error)
	FindByFaultID(faultID uint) (*model.MaintenanceRecord, error)
	// GetOrCreate 按故障取维修记录,不存在时以 maintainerID 为维护人创建。
	// 每个故障至多一条维修记录由 fault_id 唯一索引保证。
	GetOrCreate(faultID uint, maintainerID uint) (*model.MaintenanceRecord, error)
	FindByFilter(filter *MaintenanceRecordFilter) ([]*model.MaintenanceRecord, int64, error)
	Delete(id uint) error
}

// MaintenanceRecordFilter 维修记录查询过滤器
type MaintenanceRecordFilter struct {
	MaintainerID  *uint  // 维护人员视角
	ReporterID    *uint  // 上报人视角(经由故障关联)
	EquipmentName string // 设备名称子串(经由故障关联)
	Page          int
	PageSize      int
}

// maintenanceRecordRepository 维修记录仓储实现
type maintenanceRecordRepository struct {
	db *gorm.DB
}

// NewMaintenanceRecordRepository 创建维修记录仓储
func NewMaintenanceRecordRepository(db *gorm.DB) MaintenanceRecordRepository {
	return &maintenanceRecordRepository{db: db}
}

// Save 保存维修记录
func (r *maintenanceRecordRepository) Save(record *model.MaintenanceRecord) error {
	return r.db.Save(record).Error
}

// FindByID 根据 ID 查找维修记录
func (r *maintenanceRecordRepository) FindByID(id uint) (*model.MaintenanceRecord, error) {
	var record model.MaintenanceRecord
	err := r.db.
		Preload("Maintainer.Department").
		Preload("Fault.Reporter.Department").
		Preload("Photos", func(db *gorm.DB) *gorm.DB {
			return db.Order("uploaded_at ASC")
		}).
		First(&record, id).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByFaultID 根据故障 ID 查找维修记录
func (r *maintenanceRecordRepository) FindByFaultID(faultID uint) (*model.MaintenanceRecord, error) {
	var record model.MaintenanceRecord
	err := r.db.
		Preload("Maintainer.Department").
		Preload("Photos", func(db *gorm.DB) *gorm.DB {
			return db.Order("uploaded_at ASC")
		}).
		Where("fault_id = ?", faultID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetOrCreate 按故障取维修记录,不存在时创建
func (r *maintenanceRecordRepository) GetOrCreate(faultID uint, maintainerID uint) (*model.MaintenanceRecord, error) {
	record, err := r.FindByFaultID(faultID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	record = &model.MaintenanceRecord{
		FaultID:      faultID,
		MaintainerID: &maintainerID,
	}
	if err := r.db.Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// FindByFilter 根据过滤器查找维修记录
func (r *maintenanceRecordRepository) FindByFilter(filter *MaintenanceRecordFilter) ([]*model.MaintenanceRecord, int64, error) {
	query := r.db.Model(&model.MaintenanceRecord{})

	if filter != nil {
		if filter.MaintainerID != nil {
			query = query.Where("maintenance_records.maintainer_id = ?", *filter.MaintainerID)
		}
		if filter.ReporterID != nil || filter.EquipmentName != "" {
			faults := r.db.Session(&gorm.Session{NewDB: true}).
				Model(&model.Fault{}).
				Select("id")
			if filter.ReporterID != nil {
				faults = faults.Where("reporter_id = ?", *filter.ReporterID)
			}
			if filter.EquipmentName != "" {
				faults = faults.Where(`equipment_name LIKE ? ESCAPE '\'`, utils.ContainsPattern(filter.EquipmentName))
			}
			query = query.Where("maintenance_records.fault_id IN (?)", faults)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter != nil && filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var records []*model.MaintenanceRecord
	err := query.
		Preload("Maintainer.Department").
		Preload("Fault.Reporter.Department").
		Preload("Photos", func(db *gorm.DB) *gorm.DB {
			return db.Order("uploaded_at ASC")
		}).
		Order("maintenance_records.created_at DESC").
		Find(&records).Error
	return records, total, err
}

// Delete 删除维修记录及其照片
func (r *maintenanceRecordRepository) Delete(id uint) error {
	return r.db.Select("Photos").Delete(&model.MaintenanceRecord{ID: id}).Error
}
