package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/auth"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/model"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/repository"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/workflow"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// errBadCredentials 登录失败不区分"用户不存在"和"密码错误"
var errBadCredentials = &workflow.GuardError{
	Status:  http.StatusUnauthorized,
	Code:    "BAD_CREDENTIALS",
	Message: "用户名或密码错误",
}

// AuthService 认证服务接口
type AuthService interface {
	Login(ctx context.Context, req *LoginRequest) (*model.User, string, error)
	Logout(ctx context.Context, session *workflow.Session, token string) error
	CurrentUser(session *workflow.Session) (*model.User, error)
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// authService 认证服务实现
type authService struct {
	userRepo repository.UserRepository
	sessions *auth.SessionManager
	auditSvc AuditLogService
	logger   *logrus.Entry
}

// NewAuthService 创建认证服务
func NewAuthService(
	userRepo repository.UserRepository,
	sessions *auth.SessionManager,
	auditSvc AuditLogService,
	logger *logrus.Entry,
) AuthService {
	return &authService{
		userRepo: userRepo,
		sessions: sessions,
		auditSvc: auditSvc,
		logger:   logger,
	}
}

// Login 校验用户名密码,成功后签发会话令牌
func (s *authService) Login(ctx context.Context, req *LoginRequest) (*model.User, string, error) {
	user, err := s.userRepo.FindByUsername(req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", errBadCredentials
		}
		return nil, "", err
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.logger.WithField("username", req.Username).Warn("登录失败：密码错误")
		return nil, "", errBadCredentials
	}

	token, err := s.sessions.Issue(user)
	if err != nil {
		return nil, "", err
	}

	_ = s.auditSvc.RecordAction(ctx, &workflow.Session{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}, "login", "user", userResourceID(user.ID), nil)

	s.logger.WithFields(logrus.Fields{
		"username": user.Username,
		"role":     string(user.Role),
	}).Info("用户登录成功")

	return user, token, nil
}

// Logout 使当前会话失效,幂等
func (s *authService) Logout(ctx context.Context, session *workflow.Session, token string) error {
	if err := s.sessions.Invalidate(token); err != nil {
		return err
	}
	if session != nil {
		_ = s.auditSvc.RecordAction(ctx, session, "logout", "user", userResourceID(session.UserID), nil)
	}
	return nil
}

// CurrentUser 返回当前会话对应的用户
func (s *authService) CurrentUser(session *workflow.Session) (*model.User, error) {
	if session == nil {
		return nil, workflow.Authorize(nil, workflow.FaultState{}, workflow.ActionReport)
	}
	return s.userRepo.FindByID(session.UserID)
}
