package model

import (
	"errors"
	"strings"
)

// Department 部门数据模型
type Department struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

// TableName 指定表名
func (Department) TableName() string {
	return "departments"
}

// Validate 验证部门模型,名称去除首尾空白后不得为空
func (d *Department) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return errors.New("department name cannot be blank")
	}
	return nil
}
