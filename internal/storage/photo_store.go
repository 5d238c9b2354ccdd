package storage

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/model"
)

// PhotoStore 维修照片存储。照片写入媒体根目录下,
// 路径按故障和日期组织: fault_photos/fault_<id>/<年>/<月>/<日>/<类型>_<uuid>.<ext>
type PhotoStore struct {
	mediaDir string
	mediaURL string
}

// NewPhotoStore 创建照片存储
func NewPhotoStore(mediaDir, mediaURL string) *PhotoStore {
	if mediaDir == "" {
		mediaDir = "media"
	}
	if mediaURL == "" {
		mediaURL = "/media"
	}
	return &PhotoStore{
		mediaDir: mediaDir,
		mediaURL: strings.TrimRight(mediaURL, "/"),
	}
}

// MediaDir 返回媒体根目录
func (s *PhotoStore) MediaDir() string {
	return s.mediaDir
}

// Save 保存一张照片,返回媒体根目录下的相对路径
func (s *PhotoStore) Save(faultID uint, photoType model.PhotoType, filename string, src io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt(ext) {
		return "", fmt.Errorf("unsupported image extension: %q", ext)
	}

	now := time.Now()
	relDir := filepath.Join(
		"fault_photos",
		fmt.Sprintf("fault_%d", faultID),
		fmt.Sprintf("%d", now.Year()),
		fmt.Sprintf("%d", int(now.Month())),
		fmt.Sprintf("%d", now.Day()),
	)
	if err := os.MkdirAll(filepath.Join(s.mediaDir, relDir), 0o755); err != nil {
		return "", fmt.Errorf("failed to create photo directory: %w", err)
	}

	relPath := filepath.Join(relDir, fmt.Sprintf("%s_%s%s", photoType, uuid.New().String(), ext))
	dst, err := os.Create(filepath.Join(s.mediaDir, relPath))
	if err != nil {
		return "", fmt.Errorf("failed to create photo file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to write photo file: %w", err)
	}

	return filepath.ToSlash(relPath), nil
}

// URL 根据相对路径构造对外访问 URL
func (s *PhotoStore) URL(relPath string) string {
	if relPath == "" {
		return ""
	}
	return s.mediaURL + "/" + path.Clean(filepath.ToSlash(relPath))
}

// Remove 删除照片文件,文件不存在视为成功
func (s *PhotoStore) Remove(relPath string) error {
	if relPath == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.mediaDir, filepath.FromSlash(relPath)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// allowedExt 只接受常见图片扩展名
func allowedExt(ext string) bool {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp":
		return true
	}
	return false
}
