package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/service"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/utils"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/workflow"
)

// APIError API 错误
type APIError struct {
	Code    int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	return e.Message
}

// ErrorHandlerMiddleware 错误处理中间件
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()

			var apiErr *APIError
			if errors.As(err, &apiErr) {
				Error(c, apiErr.Code, apiErr.Message, apiErr.Detail)
			} else {
				Error(c, http.StatusInternalServerError, "internal server error", err.Error())
			}
		}
	}
}

// WrapError 包装错误
func WrapError(err error, code int, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Detail:  err.Error(),
	}
}

// RespondError 把服务层错误映射为 HTTP 响应。
// 守卫错误自带状态码和中文解释,校验错误一律 400,
// 未找到一律 404,其余落到 500。
func RespondError(c *gin.Context, err error) {
	var guardErr *workflow.GuardError
	if errors.As(err, &guardErr) {
		Error(c, guardErr.Status, guardErr.Message, guardErr.Code)
		return
	}

	var validationErr *utils.ValidationError
	if errors.As(err, &validationErr) {
		Error(c, http.StatusBadRequest, validationErr.Message, validationErr.Code)
		return
	}

	switch {
	case errors.Is(err, service.ErrFaultNotFound),
		errors.Is(err, service.ErrRecordNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrDepartmentNotFound):
		Error(c, http.StatusNotFound, TranslateForRequest(c, "error.not_found"), "")
	default:
		Error(c, http.StatusInternalServerError, TranslateForRequest(c, "error.internal_error"), err.Error())
	}
}
