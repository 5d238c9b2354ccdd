package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/service"
)

// AuditController 审计日志控制器,路由层限定仅管理员可达
type AuditController struct {
	auditSvc service.AuditLogService
}

// NewAuditController 创建审计日志控制器
func NewAuditController(auditSvc service.AuditLogService) *AuditController {
	return &AuditController{auditSvc: auditSvc}
}

// ListByResource 按资源查询审计日志
func (ctrl *AuditController) ListByResource(c *gin.Context) {
	resourceType := c.Query("resource_type")
	resourceID := c.Query("resource_id")
	if resourceType == "" || resourceID == "" {
		Error(c, http.StatusBadRequest, TranslateForRequest(c, "error.bad_request"), "resource_type and resource_id are required")
		return
	}

	logs, err := ctrl.auditSvc.FindByResource(resourceType, resourceID)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, logs)
}
