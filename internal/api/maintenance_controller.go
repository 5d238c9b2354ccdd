package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/auth"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/service"
)

// MaintenanceController 维修记录控制器
type MaintenanceController struct {
	maintSvc   service.MaintenanceService
	serializer *Serializer
}

// NewMaintenanceController 创建维修记录控制器
func NewMaintenanceController(maintSvc service.MaintenanceService, serializer *Serializer) *MaintenanceController {
	return &MaintenanceController{
		maintSvc:   maintSvc,
		serializer: serializer,
	}
}

// List 查询维修记录列表,按角色取景
func (ctrl *MaintenanceController) List(c *gin.Context) {
	session := auth.CurrentSession(c)

	query := &service.RecordListQuery{
		EquipmentName: c.Query("equipment_name"),
		Page:          queryInt(c, "page", 1),
		PageSize:      queryInt(c, "page_size", 20),
	}

	records, total, err := ctrl.maintSvc.List(session, query)
	if err != nil {
		RespondError(c, err)
		return
	}
	Paginated(c, ctrl.serializer.Records(records), NewPagination(query.Page, query.PageSize, total))
}

// Get 查询维修记录详情
func (ctrl *MaintenanceController) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	session := auth.CurrentSession(c)
	record, err := ctrl.maintSvc.Get(session, id)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, ctrl.serializer.Record(record, true))
}

// Update 修改维修记录
func (ctrl *MaintenanceController) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.UpdateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, TranslateForRequest(c, "error.bad_request"), err.Error())
		return
	}

	session := auth.CurrentSession(c)
	record, err := ctrl.maintSvc.Update(c.Request.Context(), session, id, &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, ctrl.serializer.Record(record, true))
}

// UploadPhoto 上传维修照片,multipart 表单,字段 image + photo_type
func (ctrl *MaintenanceController) UploadPhoto(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		Error(c, http.StatusBadRequest, TranslateForRequest(c, "error.bad_request"), "missing image file")
		return
	}

	src, err := file.Open()
	if err != nil {
		Error(c, http.StatusBadRequest, TranslateForRequest(c, "error.bad_request"), err.Error())
		return
	}
	defer src.Close()

	session := auth.CurrentSession(c)
	photo, err := ctrl.maintSvc.UploadPhoto(
		c.Request.Context(),
		session,
		id,
		c.PostForm("photo_type"),
		file.Filename,
		src,
	)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, ctrl.serializer.Photo(photo))
}

// DeletePhoto 删除维修照片,仅管理员
func (ctrl *MaintenanceController) DeletePhoto(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	session := auth.CurrentSession(c)
	if err := ctrl.maintSvc.DeletePhoto(c.Request.Context(), session, id); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"message": TranslateForRequest(c, "success.deleted")})
}
