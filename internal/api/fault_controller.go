package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/auth"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/service"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/workflow"
)

// FaultController 故障控制器
type FaultController struct {
	faultSvc   service.FaultService
	serializer *Serializer
}

// NewFaultController 创建故障控制器
func NewFaultController(faultSvc service.FaultService, serializer *Serializer) *FaultController {
	return &FaultController{
		faultSvc:   faultSvc,
		serializer: serializer,
	}
}

// Report 上报故障
func (ctrl *FaultController) Report(c *gin.Context) {
	var req service.ReportFaultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, TranslateForRequest(c, "error.bad_request"), err.Error())
		return
	}

	session := auth.CurrentSession(c)
	fault, err := ctrl.faultSvc.Report(c.Request.Context(), session, &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, ctrl.serializer.Fault(fault, session))
}

// List 查询故障列表,按角色取景
func (ctrl *FaultController) List(c *gin.Context) {
	session := auth.CurrentSession(c)

	query := &service.FaultListQuery{
		Status:        c.Query("status"),
		Urgency:       c.Query("urgency"),
		EquipmentName: c.Query("equipment_name"),
		Location:      c.Query("location"),
		ReporterName:  c.Query("reporter_name"),
		StartDate:     c.Query("start_date"),
		EndDate:       c.Query("end_date"),
		Page:          queryInt(c, "page", 1),
		PageSize:      queryInt(c, "page_size", 20),
	}

	faults, total, err := ctrl.faultSvc.List(session, query)
	if err != nil {
		RespondError(c, err)
		return
	}
	Paginated(c, ctrl.serializer.Faults(faults, session), NewPagination(query.Page, query.PageSize, total))
}

// Get 查询故障详情
func (ctrl *FaultController) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	session := auth.CurrentSession(c)
	fault, err := ctrl.faultSvc.Get(session, id)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, ctrl.serializer.Fault(fault, session))
}

// Cancel 上报人撤销待处理的故障
func (ctrl *FaultController) Cancel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	session := auth.CurrentSession(c)
	if err := ctrl.faultSvc.Cancel(c.Request.Context(), session, id); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"message": TranslateForRequest(c, "success.deleted")})
}

// Accept 运维人员接单
func (ctrl *FaultController) Accept(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	session := auth.CurrentSession(c)
	fault, err := ctrl.faultSvc.Accept(c.Request.Context(), session, id)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, ctrl.serializer.Fault(fault, session))
}

// Resolve 标记已解决
func (ctrl *FaultController) Resolve(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.ResolveFaultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, TranslateForRequest(c, "error.bad_request"), err.Error())
		return
	}

	session := auth.CurrentSession(c)
	fault, err := ctrl.faultSvc.Resolve(c.Request.Context(), session, id, &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, ctrl.serializer.Fault(fault, session))
}

// CannotResolve 标记无法解决
func (ctrl *FaultController) CannotResolve(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.CannotResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, TranslateForRequest(c, "error.bad_request"), err.Error())
		return
	}

	session := auth.CurrentSession(c)
	fault, err := ctrl.faultSvc.CannotResolve(c.Request.Context(), session, id, &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, ctrl.serializer.Fault(fault, session))
}

// Delete 管理员删除故障记录
func (ctrl *FaultController) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	session := auth.CurrentSession(c)
	if err := ctrl.faultSvc.Delete(c.Request.Context(), session, id); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"message": TranslateForRequest(c, "success.deleted")})
}

// Remove 删除故障。管理员走记录删除,
// 其他用户视为上报人撤销,权限由工作流守卫判定。
func (ctrl *FaultController) Remove(c *gin.Context) {
	session := auth.CurrentSession(c)
	if session != nil && session.Role == workflow.RoleAdmin {
		ctrl.Delete(c)
		return
	}
	ctrl.Cancel(c)
}

// Export 导出《设备维修原始记录表》
func (ctrl *FaultController) Export(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	session := auth.CurrentSession(c)
	workbook, filename, err := ctrl.faultSvc.Export(session, id)
	if err != nil {
		RespondError(c, err)
		return
	}

	// 文件名含中文,按 RFC 5987 编码
	c.Header("Content-Disposition",
		fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(filename)))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := workbook.Write(c.Writer); err != nil {
		GetLogger().WithError(err).Error("导出文件写出失败")
	}
}

// History 查询故障状态变更历史
func (ctrl *FaultController) History(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	session := auth.CurrentSession(c)
	histories, err := ctrl.faultSvc.History(session, id)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, ctrl.serializer.Histories(histories))
}

// pathID 解析路径里的数字 ID,非法时直接响应 400
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		Error(c, http.StatusBadRequest, TranslateForRequest(c, "error.bad_request"), "invalid id")
		return 0, false
	}
	return uint(id), true
}

// queryInt 解析查询参数里的整数,缺失或非法时用默认值
func queryInt(c *gin.Context, key string, fallback int) int {
	value := c.Query(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
