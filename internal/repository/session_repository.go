package repository

import (
	"time"

	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/model"
	"gorm.io/gorm"
)

// SessionRepository 会话仓储接口
type SessionRepository interface {
	Create(session *model.SessionModel) error
	FindByToken(token string) (*model.SessionModel, error)
	DeleteByToken(token string) error
	DeleteByUserID(userID uint) error
	DeleteExpired(now time.Time) (int64, error)
}

// sessionRepository 会话仓储实现
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository 创建会话仓储
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

// Create 新建会话
func (r *sessionRepository) Create(session *model.SessionModel) error {
	return r.db.Create(session).Error
}

// FindByToken 根据令牌查找会话,带用户及其部门
func (r *sessionRepository) FindByToken(token string) (*model.SessionModel, error) {
	var session model.SessionModel
	err := r.db.Preload("User.Department").Where("token = ?", token).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// DeleteByToken 删除指定会话
func (r *sessionRepository) DeleteByToken(token string) error {
	return r.db.Where("token = ?", token).Delete(&model.SessionModel{}).Error
}

// DeleteByUserID 删除某用户的全部会话(删除用户时一并失效)
func (r *sessionRepository) DeleteByUserID(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&model.SessionModel{}).Error
}

// DeleteExpired 清理过期会话,返回清理条数
func (r *sessionRepository) DeleteExpired(now time.Time) (int64, error) {
	result := r.db.Where("expires_at < ?", now).Delete(&model.SessionModel{})
	return result.RowsAffected, result.Error
}
