package model

import (
	"errors"
	"time"
)

// PhotoType 维修照片类型
type PhotoType string

const (
	PhotoBefore PhotoType = "before" // 维修前
	PhotoDuring PhotoType = "during" // 维修中
	PhotoAfter  PhotoType = "after"  // 维修后
	PhotoOther  PhotoType = "other"  // 其他
)

// Valid 判断照片类型是否合法
func (t PhotoType) Valid() bool {
	switch t {
	case PhotoBefore, PhotoDuring, PhotoAfter, PhotoOther:
		return true
	}
	return false
}

// Label 返回照片类型的中文标签
func (t PhotoType) Label() string {
	switch t {
	case PhotoBefore:
		return "维修前"
	case PhotoDuring:
		return "维修中"
	case PhotoAfter:
		return "维修后"
	case PhotoOther:
		return "其他"
	}
	return string(t)
}

// MaintenancePhoto 维修照片数据模型,客户端视角只增不删
type MaintenancePhoto struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	MaintenanceRecordID uint      `gorm:"not null;index" json:"maintenance_record"`
	PhotoType           PhotoType `gorm:"type:varchar(20);not null;default:other" json:"photo_type"`
	ImagePath           string    `gorm:"type:varchar(255);not null" json:"-"` // 媒体根目录下的相对路径
	UploadedAt          time.Time `gorm:"autoCreateTime;index" json:"uploaded_at"`
}

// TableName 指定表名
func (MaintenancePhoto) TableName() string {
	return "maintenance_photos"
}

// Validate 验证维修照片模型
func (p *MaintenancePhoto) Validate() error {
	if p.MaintenanceRecordID == 0 {
		return errors.New("maintenance record id is required")
	}
	if p.ImagePath == "" {
		return errors.New("image path is required")
	}
	if !p.PhotoType.Valid() {
		return errors.New("invalid photo type")
	}
	return nil
}
