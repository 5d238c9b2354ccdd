package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestValidateDepartmentName 部门名称去空白后不得为空
func TestValidateDepartmentName(t *testing.T) {
	assert.NoError(t, ValidateDepartmentName("机电部"))
	assert.NoError(t, ValidateDepartmentName("  机电部  "))

	assert.Equal(t, ErrEmptyName, ValidateDepartmentName(""))
	assert.Equal(t, ErrEmptyName, ValidateDepartmentName("   "))
	assert.Equal(t, ErrEmptyName, ValidateDepartmentName("\t\n"))

	assert.Equal(t, ErrNameTooLong, ValidateDepartmentName(strings.Repeat("长", 101)))
}

// TestValidateUsername 用户名字符集校验
func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("zhangsan"))
	assert.NoError(t, ValidateUsername("zhang.san@example"))
	assert.NoError(t, ValidateUsername("user_01-x"))

	assert.Error(t, ValidateUsername(""))
	assert.Error(t, ValidateUsername("   "))
	assert.Error(t, ValidateUsername("bad user"))
	assert.Error(t, ValidateUsername("bad#user"))
}

// TestValidatePassword 密码长度校验
func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("1234"))
	assert.NoError(t, ValidatePassword("a-longer-password"))

	assert.Equal(t, ErrPasswordTooShort, ValidatePassword("123"))
	assert.Equal(t, ErrPasswordTooLong, ValidatePassword(strings.Repeat("x", 129)))
}

// TestSanitizeString 转义 HTML 并移除控制字符
func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "&lt;script&gt;", SanitizeString("<script>"))
	assert.Equal(t, "ab", SanitizeString("a\x00b"))
	// 换行和制表符保留
	assert.Equal(t, "a\nb\tc", SanitizeString("a\nb\tc"))
}

// TestContainsPattern 模糊匹配转义 LIKE 元字符
func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "%摄像机%", ContainsPattern("摄像机"))
	assert.Equal(t, "%50\\%%", ContainsPattern("50%"))
	assert.Equal(t, "%a\\_b%", ContainsPattern("a_b"))
	assert.Equal(t, "%c\\\\d%", ContainsPattern("c\\d"))
}

// TestTrimAndValidate 清理并校验
func TestTrimAndValidate(t *testing.T) {
	out, err := TrimAndValidate("  正常内容  ", 100)
	assert.NoError(t, err)
	assert.Equal(t, "正常内容", out)

	_, err = TrimAndValidate("   ", 100)
	assert.Equal(t, ErrEmptyString, err)
}
