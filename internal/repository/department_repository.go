package repository

import (
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/model"
	"gorm.io/gorm"
)

// DepartmentRepository 部门仓储接口
type DepartmentRepository interface {
	Create(dept *model.Department) error
	Save(dept *model.Department) error
	FindByID(id uint) (*model.Department, error)
	FindByName(name string) (*model.Department, error)
	FindAll() ([]*model.Department, error)
	Delete(id uint) error
}

// departmentRepository 部门仓储实现
type departmentRepository struct {
	db *gorm.DB
}

// NewDepartmentRepository 创建部门仓储
func NewDepartmentRepository(db *gorm.DB) DepartmentRepository {
	return &departmentRepository{db: db}
}

// Create 新建部门
func (r *departmentRepository) Create(dept *model.Department) error {
	return r.db.Create(dept).Error
}

// Save 保存部门
func (r *departmentRepository) Save(dept *model.Department) error {
	return r.db.Save(dept).Error
}

// FindByID 根据 ID 查找部门
func (r *departmentRepository) FindByID(id uint) (*model.Department, error) {
	var dept model.Department
	if err := r.db.First(&dept, id).Error; err != nil {
		return nil, err
	}
	return &dept, nil
}

// FindByName 根据名称查找部门
func (r *departmentRepository) FindByName(name string) (*model.Department, error) {
	var dept model.Department
	if err := r.db.Where("name = ?", name).First(&dept).Error; err != nil {
		return nil, err
	}
	return &dept, nil
}

// FindAll 查找所有部门
func (r *departmentRepository) FindAll() ([]*model.Department, error) {
	var depts []*model.Department
	err := r.db.Order("name ASC").Find(&depts).Error
	return depts, err
}

// Delete 删除部门,引用它的用户 department_id 置空
func (r *departmentRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.User{}).
			Where("department_id = ?", id).
			Update("department_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Department{}, id).Error
	})
}
