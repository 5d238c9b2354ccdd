package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/model"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/repository"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/workflow"
	"gorm.io/gorm"
)

// ErrSessionInvalid 会话不存在或已过期
var ErrSessionInvalid = errors.New("session invalid or expired")

// SessionManager 数据库会话管理器。
// 登录创建会话行并下发 Cookie,登出整行删除——失效即原子清除,
// 不存在散落的缓存需要逐个擦除。
type SessionManager struct {
	sessions   repository.SessionRepository
	ttl        time.Duration
	cookieName string
}

// NewSessionManager 创建会话管理器
func NewSessionManager(db *gorm.DB, cookieName string, ttl time.Duration) *SessionManager {
	if cookieName == "" {
		cookieName = "sessionid"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionManager{
		sessions:   repository.NewSessionRepository(db),
		ttl:        ttl,
		cookieName: cookieName,
	}
}

// CookieName 返回会话 Cookie 名称
func (m *SessionManager) CookieName() string {
	return m.cookieName
}

// TTL 返回会话有效期
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Issue 为用户签发新会话,返回会话令牌
func (m *SessionManager) Issue(user *model.User) (string, error) {
	token := newToken()
	session := &model.SessionModel{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(m.ttl),
	}
	if err := m.sessions.Create(session); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return token, nil
}

// Resolve 根据令牌解析会话身份。过期会话顺手删除。
func (m *SessionManager) Resolve(token string) (*workflow.Session, error) {
	if token == "" {
		return nil, ErrSessionInvalid
	}

	session, err := m.sessions.FindByToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, err
	}

	if session.Expired(time.Now()) {
		_ = m.sessions.DeleteByToken(token)
		return nil, ErrSessionInvalid
	}
	if session.User == nil {
		// 用户已被删除,会话随之作废
		_ = m.sessions.DeleteByToken(token)
		return nil, ErrSessionInvalid
	}

	return &workflow.Session{
		UserID:     session.User.ID,
		Username:   session.User.Username,
		Role:       session.User.Role,
		Department: session.User.DepartmentName(),
	}, nil
}

// Invalidate 使指定会话失效
func (m *SessionManager) Invalidate(token string) error {
	if token == "" {
		return nil
	}
	return m.sessions.DeleteByToken(token)
}

// InvalidateUser 使某用户的全部会话失效
func (m *SessionManager) InvalidateUser(userID uint) error {
	return m.sessions.DeleteByUserID(userID)
}

// Cleanup 清理过期会话
func (m *SessionManager) Cleanup() (int64, error) {
	return m.sessions.DeleteExpired(time.Now())
}

// newToken 生成不可猜测的会话令牌
func newToken() string {
	return strings.ReplaceAll(uuid.New().String()+uuid.New().String(), "-", "")
}
