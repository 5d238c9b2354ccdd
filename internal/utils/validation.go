package utils

import (
	"html"
	"regexp"
	"strings"
	"unicode"
)

// SanitizeString 清理字符串,转义 HTML 并移除控制字符
func SanitizeString(input string) string {
	sanitized := html.EscapeString(input)

	var result strings.Builder
	for _, r := range sanitized {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		result.WriteRune(r)
	}

	return result.String()
}

// ValidateDepartmentName 验证部门名称,去除首尾空白后不得为空
func ValidateDepartmentName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ErrEmptyName
	}
	if len(trimmed) > 100 {
		return ErrNameTooLong
	}
	return nil
}

// ValidateUsername 验证用户名格式
func ValidateUsername(username string) error {
	trimmed := strings.TrimSpace(username)
	if trimmed == "" {
		return ErrEmptyName
	}
	if len(trimmed) > 150 {
		return ErrNameTooLong
	}
	// 只允许字母、数字、下划线、连字符、@ 和 .（与 Django 用户名规则一致）
	matched, _ := regexp.MatchString(`^[\w.@+-]+$`, trimmed)
	if !matched {
		return ErrInvalidUsername
	}
	return nil
}

// ValidatePassword 验证密码长度
func ValidatePassword(password string) error {
	if len(password) < 4 {
		return ErrPasswordTooShort
	}
	if len(password) > 128 {
		return ErrPasswordTooLong
	}
	return nil
}

// TrimAndValidate 清理并验证字符串
func TrimAndValidate(s string, maxLen int) (string, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", ErrEmptyString
	}
	if maxLen > 0 && len(trimmed) > maxLen {
		return "", ErrStringTooLong
	}
	return SanitizeString(trimmed), nil
}

// 错误定义
var (
	ErrEmptyName        = &ValidationError{Code: "EMPTY_NAME", Message: "名称不能为空"}
	ErrNameTooLong      = &ValidationError{Code: "NAME_TOO_LONG", Message: "名称超出长度限制"}
	ErrInvalidUsername  = &ValidationError{Code: "INVALID_USERNAME", Message: "用户名包含非法字符"}
	ErrPasswordTooShort = &ValidationError{Code: "PASSWORD_TOO_SHORT", Message: "密码长度不能少于 4 位"}
	ErrPasswordTooLong  = &ValidationError{Code: "PASSWORD_TOO_LONG", Message: "密码超出长度限制"}
	ErrEmptyString      = &ValidationError{Code: "EMPTY_STRING", Message: "内容不能为空"}
	ErrStringTooLong    = &ValidationError{Code: "STRING_TOO_LONG", Message: "内容超出长度限制"}
)

// ValidationError 验证错误
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
