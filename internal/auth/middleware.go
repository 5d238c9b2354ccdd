package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/workflow"
)

// sessionContextKey 会话在 gin 上下文中的键
const sessionContextKey = "auth_session"

// SessionMiddleware 会话中间件。解析 Cookie 中的会话令牌,
// 把身份放进上下文;未登录请求放行,由 RequireAuth 决定是否拦截。
func SessionMiddleware(manager *SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(manager.CookieName())
		if err == nil && token != "" {
			if session, err := manager.Resolve(token); err == nil {
				c.Set(sessionContextKey, session)
				c.Set("session_token", token)
			}
		}
		c.Next()
	}
}

// RequireAuth 要求已认证,否则 401
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentSession(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": "未登录或会话已过期",
			})
			return
		}
		c.Next()
	}
}

// RequireRoles 要求当前用户具备给定角色之一,否则 403
func RequireRoles(roles ...workflow.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := CurrentSession(c)
		if session == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": "未登录或会话已过期",
			})
			return
		}
		for _, role := range roles {
			if session.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"code":    http.StatusForbidden,
			"message": "您没有权限执行此操作",
		})
	}
}

// CurrentSession 取当前请求的会话身份,未认证时返回 nil
func CurrentSession(c *gin.Context) *workflow.Session {
	value, exists := c.Get(sessionContextKey)
	if !exists {
		return nil
	}
	session, ok := value.(*workflow.Session)
	if !ok {
		return nil
	}
	return session
}

// CurrentToken 取当前请求的会话令牌
func CurrentToken(c *gin.Context) string {
	return c.GetString("session_token")
}
