package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/auth"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/service"
)

// DepartmentController 部门管理控制器,路由层限定仅管理员可达
type DepartmentController struct {
	deptSvc service.DepartmentService
}

// NewDepartmentController 创建部门管理控制器
func NewDepartmentController(deptSvc service.DepartmentService) *DepartmentController {
	return &DepartmentController{deptSvc: deptSvc}
}

// Create 创建部门
func (ctrl *DepartmentController) Create(c *gin.Context) {
	var req service.DepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, TranslateForRequest(c, "error.bad_request"), err.Error())
		return
	}

	dept, err := ctrl.deptSvc.Create(c.Request.Context(), auth.CurrentSession(c), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, dept)
}

// List 查询部门列表
func (ctrl *DepartmentController) List(c *gin.Context) {
	depts, err := ctrl.deptSvc.List()
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, depts)
}

// Get 查询部门
func (ctrl *DepartmentController) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	dept, err := ctrl.deptSvc.Get(id)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, dept)
}

// Update 修改部门
func (ctrl *DepartmentController) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.DepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, TranslateForRequest(c, "error.bad_request"), err.Error())
		return
	}

	dept, err := ctrl.deptSvc.Update(c.Request.Context(), auth.CurrentSession(c), id, &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, dept)
}

// Delete 删除部门,归属它的用户变为未归属
func (ctrl *DepartmentController) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := ctrl.deptSvc.Delete(c.Request.Context(), auth.CurrentSession(c), id); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"message": TranslateForRequest(c, "success.deleted")})
}
