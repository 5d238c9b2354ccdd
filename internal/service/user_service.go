package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/auth"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/model"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/repository"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/utils"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/workflow"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrUserNotFound 用户不存在
var ErrUserNotFound = errors.New("user not found")

var (
	errUsernameTaken = &utils.ValidationError{Code: "USERNAME_TAKEN", Message: "用户名已存在"}
	errInvalidRole   = &utils.ValidationError{Code: "INVALID_ROLE", Message: "角色不合法"}
	errSelfDelete    = &workflow.GuardError{
		Status:  http.StatusBadRequest,
		Code:    "SELF_DELETE",
		Message: "不能删除当前登录的账号",
	}
)

// UserService 用户管理服务接口,仅管理员可用(路由层限定)
type UserService interface {
	Create(ctx context.Context, session *workflow.Session, req *CreateUserRequest) (*model.User, error)
	Update(ctx context.Context, session *workflow.Session, id uint, req *UpdateUserRequest) (*model.User, error)
	Get(id uint) (*model.User, error)
	List() ([]*model.User, error)
	Delete(ctx context.Context, session *workflow.Session, id uint) error
}

// CreateUserRequest 创建用户请求
type CreateUserRequest struct {
	Username     string `json:"username" binding:"required"`
	Password     string `json:"password" binding:"required"`
	Role         string `json:"role" binding:"required"` // reporter / maintainer / admin
	DepartmentID *uint  `json:"department"`
}

// UpdateUserRequest 修改用户请求。用户名不可改,
// 密码留空表示保持原密码。
type UpdateUserRequest struct {
	Password     *string `json:"password"`
	Role         *string `json:"role"`
	DepartmentID *uint   `json:"department"`
	// ClearDepartment 为 true 时清除部门归属
	ClearDepartment bool `json:"clear_department"`
}

// userService 用户管理服务实现
type userService struct {
	userRepo repository.UserRepository
	deptRepo repository.DepartmentRepository
	sessions *auth.SessionManager
	auditSvc AuditLogService
	logger   *logrus.Entry
}

// NewUserService 创建用户管理服务
func NewUserService(
	userRepo repository.UserRepository,
	deptRepo repository.DepartmentRepository,
	sessions *auth.SessionManager,
	auditSvc AuditLogService,
	logger *logrus.Entry,
) UserService {
	return &userService{
		userRepo: userRepo,
		deptRepo: deptRepo,
		sessions: sessions,
		auditSvc: auditSvc,
		logger:   logger,
	}
}

// Create 创建用户
func (s *userService) Create(ctx context.Context, session *workflow.Session, req *CreateUserRequest) (*model.User, error) {
	username := strings.TrimSpace(req.Username)
	if err := utils.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	role := workflow.Role(req.Role)
	if !role.Valid() {
		return nil, errInvalidRole
	}

	if _, err := s.userRepo.FindByUsername(username); err == nil {
		return nil, errUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if req.DepartmentID != nil {
		if _, err := s.deptRepo.FindByID(*req.DepartmentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrDepartmentNotFound
			}
			return nil, err
		}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		DepartmentID: req.DepartmentID,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	_ = s.auditSvc.RecordAction(ctx, session, "create_user", "user", userResourceID(user.ID), map[string]interface{}{
		"username": user.Username,
		"role":     string(user.Role),
	})
	s.logger.WithFields(logrus.Fields{
		"username": user.Username,
		"role":     string(user.Role),
	}).Info("用户已创建")

	return s.userRepo.FindByID(user.ID)
}

// Update 修改用户。用户名保持不变,角色变更后
// 使该用户现有会话全部失效,下次请求按新角色判定。
func (s *userService) Update(ctx context.Context, session *workflow.Session, id uint, req *UpdateUserRequest) (*model.User, error) {
	user, err := s.findUser(id)
	if err != nil {
		return nil, err
	}

	roleChanged := false
	if req.Role != nil {
		role := workflow.Role(*req.Role)
		if !role.Valid() {
			return nil, errInvalidRole
		}
		roleChanged = role != user.Role
		user.Role = role
	}

	if req.Password != nil && *req.Password != "" {
		if err := utils.ValidatePassword(*req.Password); err != nil {
			return nil, err
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	if req.ClearDepartment {
		user.DepartmentID = nil
		user.Department = nil
	} else if req.DepartmentID != nil {
		if _, err := s.deptRepo.FindByID(*req.DepartmentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrDepartmentNotFound
			}
			return nil, err
		}
		user.DepartmentID = req.DepartmentID
	}

	if err := s.userRepo.Save(user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if roleChanged {
		_ = s.sessions.InvalidateUser(user.ID)
	}

	_ = s.auditSvc.RecordAction(ctx, session, "update_user", "user", userResourceID(id), map[string]interface{}{
		"role_changed": roleChanged,
	})
	return s.userRepo.FindByID(id)
}

// Get 查询用户
func (s *userService) Get(id uint) (*model.User, error) {
	return s.findUser(id)
}

// List 查询所有用户
func (s *userService) List() ([]*model.User, error) {
	return s.userRepo.FindAll()
}

// Delete 删除用户,删除即会话作废;不能删除自己
func (s *userService) Delete(ctx context.Context, session *workflow.Session, id uint) error {
	if session != nil && session.UserID == id {
		return errSelfDelete
	}

	user, err := s.findUser(id)
	if err != nil {
		return err
	}

	if err := s.userRepo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	_ = s.sessions.InvalidateUser(id)

	_ = s.auditSvc.RecordAction(ctx, session, "delete_user", "user", userResourceID(id), map[string]interface{}{
		"username": user.Username,
	})
	s.logger.WithField("username", user.Username).Info("用户已删除")
	return nil
}

// findUser 查询用户,不存在时返回 ErrUserNotFound
func (s *userService) findUser(id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// userResourceID 审计日志中的用户资源 ID
func userResourceID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
