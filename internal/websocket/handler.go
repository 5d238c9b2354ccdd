package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gorillaWS "github.com/gorilla/websocket"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/auth"
)

var upgrader = gorillaWS.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// 跨域由 CORS 中间件统一控制,升级时不再二次校验
		return true
	},
}

// FaultFeedHandler 故障事件推送。以会话 Cookie 认证,
// 连接建立后收到所有故障状态变更事件。
func FaultFeedHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := auth.CurrentSession(c)
		if session == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "未登录或会话已过期"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upgrade connection"})
			return
		}

		client := NewClient(uuid.New().String(), session.UserID, hub, conn)
		hub.Register <- client

		go client.ReadPump()
		go client.WritePump()
	}
}
