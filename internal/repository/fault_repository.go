package repository

import (
	"time"

	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/model"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/utils"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/workflow"
	"gorm.io/gorm"
)

// FaultRepository 故障仓储接口
type FaultRepository interface {
	Create(fault *model.Fault) error
	Save(fault *model.Fault) error
	FindByID(id uint) (*model.Fault, error)
	FindByFilter(filter *FaultFilter) ([]*model.Fault, int64, error)
	Delete(id uint) error
	// CompareAndSetStatus 仅当当前状态为 from 时才落库迁移到 to,
	// 返回是否写成功。两个运维同时接单时只会有一个赢家。
	CompareAndSetStatus(id uint, from, to workflow.Status) (bool, error)
}

// FaultFilter 故障查询过滤器
type FaultFilter struct {
	Statuses        []workflow.Status // 只保留这些状态
	ExcludeStatuses []workflow.Status // 排除这些状态
	ReporterID      *uint             // 上报人
	MaintainerID    *uint             // 维护人员(经由维修记录关联),与 Statuses 取并集
	Urgency         *workflow.Urgency
	EquipmentName   string // 设备名称子串
	Location        string // 具体位置子串
	ReporterName    string // 上报人用户名子串
	ReportedAfter   *time.Time
	ReportedBefore  *time.Time
	Page            int
	PageSize        int
}

// faultRepository 故障仓储实现
type faultRepository struct {
	db *gorm.DB
}

// NewFaultRepository 创建故障仓储
func NewFaultRepository(db *gorm.DB) FaultRepository {
	return &faultRepository{db: db}
}

// Create 新建故障
func (r *faultRepository) Create(fault *model.Fault) error {
	return r.db.Create(fault).Error
}

// Save 保存故障
func (r *faultRepository) Save(fault *model.Fault) error {
	return r.db.Save(fault).Error
}

// FindByID 根据 ID 查找故障,带上报人和嵌套的维修记录
func (r *faultRepository) FindByID(id uint) (*model.Fault, error) {
	var fault model.Fault
	err := r.db.
		Preload("Reporter.Department").
		Preload("MaintenanceRecord.Maintainer.Department").
		Preload("MaintenanceRecord.Photos", func(db *gorm.DB) *gorm.DB {
			return db.Order("uploaded_at ASC")
		}).
		First(&fault, id).Error
	if err != nil {
		return nil, err
	}
	return &fault, nil
}

// FindByFilter 根据过滤器查找故障,返回当前页和总数
func (r *faultRepository) FindByFilter(filter *FaultFilter) ([]*model.Fault, int64, error) {
	query := r.db.Model(&model.Fault{})

	if filter != nil {
		if len(filter.Statuses) > 0 || filter.MaintainerID != nil {
			// 状态集合与"自己处理过的"取并集(运维人员视角)
			cond := r.db.Session(&gorm.Session{NewDB: true})
			var sub *gorm.DB
			if len(filter.Statuses) > 0 {
				sub = cond.Where("faults.status IN ?", filter.Statuses)
			}
			if filter.MaintainerID != nil {
				mine := cond.Where(
					"faults.id IN (?)",
					r.db.Session(&gorm.Session{NewDB: true}).
						Model(&model.MaintenanceRecord{}).
						Select("fault_id").
						Where("maintainer_id = ?", *filter.MaintainerID),
				)
				if sub != nil {
					sub = sub.Or(mine)
				} else {
					sub = mine
				}
			}
			query = query.Where(sub)
		}
		if len(filter.ExcludeStatuses) > 0 {
			query = query.Where("faults.status NOT IN ?", filter.ExcludeStatuses)
		}
		if filter.ReporterID != nil {
			query = query.Where("faults.reporter_id = ?", *filter.ReporterID)
		}
		if filter.Urgency != nil {
			query = query.Where("faults.urgency = ?", *filter.Urgency)
		}
		if filter.EquipmentName != "" {
			query = query.Where(`faults.equipment_name LIKE ? ESCAPE '\'`, utils.ContainsPattern(filter.EquipmentName))
		}
		if filter.Location != "" {
			query = query.Where(`faults.specific_location LIKE ? ESCAPE '\'`, utils.ContainsPattern(filter.Location))
		}
		if filter.ReporterName != "" {
			query = query.Where(
				"faults.reporter_id IN (?)",
				r.db.Session(&gorm.Session{NewDB: true}).
					Model(&model.User{}).
					Select("id").
					Where(`username LIKE ? ESCAPE '\'`, utils.ContainsPattern(filter.ReporterName)),
			)
		}
		if filter.ReportedAfter != nil {
			query = query.Where("faults.reported_at >= ?", *filter.ReportedAfter)
		}
		if filter.ReportedBefore != nil {
			query = query.Where("faults.reported_at < ?", *filter.ReportedBefore)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter != nil && filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var faults []*model.Fault
	err := query.
		Preload("Reporter.Department").
		Preload("MaintenanceRecord.Maintainer").
		Preload("MaintenanceRecord.Photos", func(db *gorm.DB) *gorm.DB {
			return db.Order("uploaded_at ASC")
		}).
		Order("faults.reported_at DESC").
		Find(&faults).Error
	return faults, total, err
}

// Delete 删除故障,维修记录与照片随之级联删除
func (r *faultRepository) Delete(id uint) error {
	return r.db.Select("MaintenanceRecord").Delete(&model.Fault{ID: id}).Error
}

// CompareAndSetStatus 条件更新故障状态
func (r *faultRepository) CompareAndSetStatus(id uint, from, to workflow.Status) (bool, error) {
	result := r.db.Model(&model.Fault{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
