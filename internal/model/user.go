package model

import (
	"errors"
	"strings"

	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/workflow"
)

// User 用户数据模型
type User struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	Username     string        `gorm:"type:varchar(150);not null;uniqueIndex" json:"username"`
	PasswordHash string        `gorm:"type:varchar(128);not null" json:"-"`
	Role         workflow.Role `gorm:"type:varchar(20);not null;default:reporter;index" json:"role"`
	DepartmentID *uint         `gorm:"index" json:"department"` // 归属部门,弱引用
	Department   *Department   `gorm:"constraint:OnDelete:SET NULL" json:"-"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// Validate 验证用户模型
func (u *User) Validate() error {
	if strings.TrimSpace(u.Username) == "" {
		return errors.New("username is required")
	}
	if u.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	if !u.Role.Valid() {
		return errors.New("invalid user role")
	}
	return nil
}

// DepartmentName 返回归属部门名称,未归属时为空串
func (u *User) DepartmentName() string {
	if u.Department == nil {
		return ""
	}
	return u.Department.Name
}
