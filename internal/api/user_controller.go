package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/auth"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/service"
)

// UserController 用户管理控制器,路由层限定仅管理员可达
type UserController struct {
	userSvc    service.UserService
	serializer *Serializer
}

// NewUserController 创建用户管理控制器
func NewUserController(userSvc service.UserService, serializer *Serializer) *UserController {
	return &UserController{
		userSvc:    userSvc,
		serializer: serializer,
	}
}

// Create 创建用户
func (ctrl *UserController) Create(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, TranslateForRequest(c, "error.bad_request"), err.Error())
		return
	}

	user, err := ctrl.userSvc.Create(c.Request.Context(), auth.CurrentSession(c), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, ctrl.serializer.User(user))
}

// List 查询用户列表
func (ctrl *UserController) List(c *gin.Context) {
	users, err := ctrl.userSvc.List()
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, ctrl.serializer.Users(users))
}

// Get 查询用户
func (ctrl *UserController) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	user, err := ctrl.userSvc.Get(id)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, ctrl.serializer.User(user))
}

// Update 修改用户,用户名不可改
func (ctrl *UserController) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, TranslateForRequest(c, "error.bad_request"), err.Error())
		return
	}

	user, err := ctrl.userSvc.Update(c.Request.Context(), auth.CurrentSession(c), id, &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, ctrl.serializer.User(user))
}

// Delete 删除用户
func (ctrl *UserController) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := ctrl.userSvc.Delete(c.Request.Context(), auth.CurrentSession(c), id); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"message": TranslateForRequest(c, "success.deleted")})
}
