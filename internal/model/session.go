package model

import (
	"errors"
	"time"
)

// SessionModel 会话数据模型。
// 登录时创建,登出或过期时整行删除,使失效是一次原子操作。
type SessionModel struct {
	Token     string    `gorm:"primaryKey;type:varchar(64)"`
	UserID    uint      `gorm:"not null;index"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName 指定表名
func (SessionModel) TableName() string {
	return "sessions"
}

// Validate 验证会话模型
func (s *SessionModel) Validate() error {
	if s.Token == "" {
		return errors.New("session token is required")
	}
	if s.UserID == 0 {
		return errors.New("user id is required")
	}
	if s.ExpiresAt.IsZero() {
		return errors.New("expiry time is required")
	}
	return nil
}

// Expired 判断会话是否已过期
func (s *SessionModel) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
