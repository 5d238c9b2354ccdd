package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/model"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/repository"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/workflow"
	"github.com/sirupsen/logrus"
)

// AuditLogService 审计日志服务接口
type AuditLogService interface {
	RecordAction(ctx context.Context, session *workflow.Session, action, resourceType, resourceID string, details interface{}) error
	FindByResource(resourceType, resourceID string) ([]*model.AuditLogModel, error)
}

// auditLogService 审计日志服务实现
type auditLogService struct {
	auditRepo repository.AuditLogRepository
	logger    *logrus.Entry
}

// NewAuditLogService 创建审计日志服务
func NewAuditLogService(auditRepo repository.AuditLogRepository, logger *logrus.Entry) AuditLogService {
	return &auditLogService{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// RecordAction 记录操作审计日志。
// 审计失败只记日志不回传,业务流程不因审计而中断。
func (s *auditLogService) RecordAction(
	ctx context.Context,
	session *workflow.Session,
	action string,
	resourceType string,
	resourceID string,
	details interface{},
) error {
	if session == nil {
		return nil
	}

	detailsJSON, err := json.Marshal(details)
	if err != nil {
		detailsJSON = nil
	}

	auditLog := &model.AuditLogModel{
		ID:           uuid.New().String(),
		UserID:       session.UserID,
		Username:     session.Username,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		RequestID:    ContextString(ctx, "request_id"),
		IP:           ContextString(ctx, "ip"),
		UserAgent:    ContextString(ctx, "user_agent"),
		Details:      detailsJSON,
		CreatedAt:    time.Now(),
	}

	if err := s.auditRepo.Save(auditLog); err != nil {
		if s.logger != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"action":      action,
				"resource_id": resourceID,
			}).Warn("审计日志写入失败")
		}
		return err
	}
	return nil
}

// FindByResource 查询某资源的审计日志
func (s *auditLogService) FindByResource(resourceType, resourceID string) ([]*model.AuditLogModel, error) {
	return s.auditRepo.FindByResource(resourceType, resourceID)
}

// ContextString 从 context 取字符串值,缺失时为空串
func ContextString(ctx context.Context, key string) string {
	if ctx == nil {
		return ""
	}
	if v := ctx.Value(key); v != nil {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return ""
}
