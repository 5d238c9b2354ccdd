package api

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// I18nManager 国际化管理器
type I18nManager struct {
	messages map[string]map[string]string // lang -> key -> message
}

var defaultI18nManager *I18nManager

func init() {
	defaultI18nManager = NewI18nManager()
	defaultI18nManager.LoadMessages("zh", map[string]string{
		"error.not_found":      "资源未找到",
		"error.unauthorized":   "未登录或会话已过期",
		"error.forbidden":      "您没有权限执行此操作",
		"error.bad_request":    "请求参数错误",
		"error.internal_error": "服务器内部错误",
		"success.created":      "创建成功",
		"success.updated":      "更新成功",
		"success.deleted":      "删除成功",
		"success.logout":       "已退出登录",
	})
	defaultI18nManager.LoadMessages("en", map[string]string{
		"error.not_found":      "Resource not found",
		"error.unauthorized":   "Unauthorized",
		"error.forbidden":      "Forbidden",
		"error.bad_request":    "Bad request",
		"error.internal_error": "Internal server error",
		"success.created":      "Created successfully",
		"success.updated":      "Updated successfully",
		"success.deleted":      "Deleted successfully",
		"success.logout":       "Logged out",
	})
}

// NewI18nManager 创建国际化管理器
func NewI18nManager() *I18nManager {
	return &I18nManager{
		messages: make(map[string]map[string]string),
	}
}

// LoadMessages 加载语言消息
func (m *I18nManager) LoadMessages(lang string, messages map[string]string) {
	m.messages[lang] = messages
}

// Translate 翻译消息。找不到时回退中文,再找不到原样返回 key。
func (m *I18nManager) Translate(lang, key string) string {
	if messages, ok := m.messages[lang]; ok {
		if message, ok := messages[key]; ok {
			return message
		}
	}
	if lang != "zh" {
		if messages, ok := m.messages["zh"]; ok {
			if message, ok := messages[key]; ok {
				return message
			}
		}
	}
	return key
}

// I18nMiddleware 国际化中间件。界面以中文为主,
// 默认语言为 zh,可经查询参数或 Accept-Language 切换。
func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := "zh"

		if queryLang := c.Query("lang"); queryLang != "" {
			lang = normalizeLanguage(queryLang)
		} else if headerLang := c.GetHeader("Accept-Language"); headerLang != "" {
			lang = parseAcceptLanguage(headerLang)
		}

		c.Set("language", lang)
		c.Next()
	}
}

// TranslateForRequest 按请求语言翻译消息
func TranslateForRequest(c *gin.Context, key string) string {
	lang := c.GetString("language")
	if lang == "" {
		lang = "zh"
	}
	return defaultI18nManager.Translate(lang, key)
}

// normalizeLanguage 归一化语言标记
func normalizeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if strings.HasPrefix(lang, "en") {
		return "en"
	}
	return "zh"
}

// parseAcceptLanguage 解析 Accept-Language 头,取第一个语言
func parseAcceptLanguage(header string) string {
	parts := strings.Split(header, ",")
	if len(parts) == 0 {
		return "zh"
	}
	first := strings.SplitN(strings.TrimSpace(parts[0]), ";", 2)[0]
	return normalizeLanguage(first)
}
