package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/model"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/repository"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/utils"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/workflow"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrDepartmentNotFound 部门不存在
var ErrDepartmentNotFound = errors.New("department not found")

var errDepartmentNameTaken = &utils.ValidationError{Code: "DEPARTMENT_NAME_TAKEN", Message: "部门名称已存在"}

// DepartmentService 部门管理服务接口,仅管理员可用(路由层限定)
type DepartmentService interface {
	Create(ctx context.Context, session *workflow.Session, req *DepartmentRequest) (*model.Department, error)
	Update(ctx context.Context, session *workflow.Session, id uint, req *DepartmentRequest) (*model.Department, error)
	Get(id uint) (*model.Department, error)
	List() ([]*model.Department, error)
	Delete(ctx context.Context, session *workflow.Session, id uint) error
}

// DepartmentRequest 创建/修改部门请求
type DepartmentRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// departmentService 部门管理服务实现
type departmentService struct {
	deptRepo repository.DepartmentRepository
	auditSvc AuditLogService
	logger   *logrus.Entry
}

// NewDepartmentService 创建部门管理服务
func NewDepartmentService(
	deptRepo repository.DepartmentRepository,
	auditSvc AuditLogService,
	logger *logrus.Entry,
) DepartmentService {
	return &departmentService{
		deptRepo: deptRepo,
		auditSvc: auditSvc,
		logger:   logger,
	}
}

// Create 创建部门。名称去除首尾空白后校验,
// 校验失败直接拒绝,不产生任何空名称部门。
func (s *departmentService) Create(ctx context.Context, session *workflow.Session, req *DepartmentRequest) (*model.Department, error) {
	name := strings.TrimSpace(req.Name)
	if err := utils.ValidateDepartmentName(name); err != nil {
		return nil, err
	}

	if _, err := s.deptRepo.FindByName(name); err == nil {
		return nil, errDepartmentNameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	dept := &model.Department{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
	}
	if err := s.deptRepo.Create(dept); err != nil {
		return nil, fmt.Errorf("failed to create department: %w", err)
	}

	_ = s.auditSvc.RecordAction(ctx, session, "create_department", "department", deptResourceID(dept.ID), map[string]interface{}{
		"name": dept.Name,
	})
	s.logger.WithField("name", dept.Name).Info("部门已创建")
	return dept, nil
}

// Update 修改部门
func (s *departmentService) Update(ctx context.Context, session *workflow.Session, id uint, req *DepartmentRequest) (*model.Department, error) {
	dept, err := s.findDepartment(id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if err := utils.ValidateDepartmentName(name); err != nil {
		return nil, err
	}

	if name != dept.Name {
		if _, err := s.deptRepo.FindByName(name); err == nil {
			return nil, errDepartmentNameTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	dept.Name = name
	dept.Description = strings.TrimSpace(req.Description)
	if err := s.deptRepo.Save(dept); err != nil {
		return nil, fmt.Errorf("failed to update department: %w", err)
	}

	_ = s.auditSvc.RecordAction(ctx, session, "update_department", "department", deptResourceID(id), map[string]interface{}{
		"name": dept.Name,
	})
	return dept, nil
}

// Get 查询部门
func (s *departmentService) Get(id uint) (*model.Department, error) {
	return s.findDepartment(id)
}

// List 查询所有部门
func (s *departmentService) List() ([]*model.Department, error) {
	return s.deptRepo.FindAll()
}

// Delete 删除部门,归属它的用户变为未归属
func (s *departmentService) Delete(ctx context.Context, session *workflow.Session, id uint) error {
	dept, err := s.findDepartment(id)
	if err != nil {
		return err
	}

	if err := s.deptRepo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete department: %w", err)
	}

	_ = s.auditSvc.RecordAction(ctx, session, "delete_department", "department", deptResourceID(id), map[string]interface{}{
		"name": dept.Name,
	})
	s.logger.WithField("name", dept.Name).Info("部门已删除")
	return nil
}

// findDepartment 查询部门,不存在时返回 ErrDepartmentNotFound
func (s *departmentService) findDepartment(id uint) (*model.Department, error) {
	dept, err := s.deptRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepartmentNotFound
		}
		return nil, err
	}
	return dept, nil
}

// deptResourceID 审计日志中的部门资源 ID
func deptResourceID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
