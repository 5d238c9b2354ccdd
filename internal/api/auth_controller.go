package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/auth"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/service"
)

// AuthController 认证控制器
type AuthController struct {
	authSvc    service.AuthService
	sessions   *auth.SessionManager
	serializer *Serializer
}

// NewAuthController 创建认证控制器
func NewAuthController(authSvc service.AuthService, sessions *auth.SessionManager, serializer *Serializer) *AuthController {
	return &AuthController{
		authSvc:    authSvc,
		sessions:   sessions,
		serializer: serializer,
	}
}

// Login 登录,成功后下发会话 Cookie
func (ctrl *AuthController) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, TranslateForRequest(c, "error.bad_request"), err.Error())
		return
	}

	user, token, err := ctrl.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.SetCookie(
		ctrl.sessions.CookieName(),
		token,
		int(ctrl.sessions.TTL().Seconds()),
		"/",
		"",
		false,
		true, // HttpOnly,脚本不可读
	)

	Success(c, ctrl.serializer.User(user))
}

// Logout 登出,清除会话行和 Cookie
func (ctrl *AuthController) Logout(c *gin.Context) {
	session := auth.CurrentSession(c)
	token := auth.CurrentToken(c)

	if err := ctrl.authSvc.Logout(c.Request.Context(), session, token); err != nil {
		RespondError(c, err)
		return
	}

	c.SetCookie(ctrl.sessions.CookieName(), "", -1, "/", "", false, true)
	Success(c, gin.H{"message": TranslateForRequest(c, "success.logout")})
}

// Me 返回当前登录用户
func (ctrl *AuthController) Me(c *gin.Context) {
	session := auth.CurrentSession(c)

	user, err := ctrl.authSvc.CurrentUser(session)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, ctrl.serializer.User(user))
}

// CSRFToken 下发 CSRF Token
func (ctrl *AuthController) CSRFToken(c *gin.Context) {
	token, err := GetCSRFToken(c)
	if err != nil {
		Error(c, http.StatusInternalServerError, TranslateForRequest(c, "error.internal_error"), err.Error())
		return
	}
	Success(c, gin.H{"csrf_token": token})
}
