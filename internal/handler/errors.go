package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"shortlink-service/internal/service"
	"shortlink-service/internal/store"
)

// ErrorResponse 统一的错误响应
type ErrorResponse struct {
	Error  string   `json:"error" example:"URL validation failed"`
	Code   string   `json:"code" example:"INVALID_URL"`
	Errors []string `json:"errors" example:"URL must have a host"`
}

type errorKind struct {
	err     error
	status  int
	code    string
	message string
}

// 顺序很重要：拒绝类错误要先于 ErrServiceUnavailable 判断
var errorKinds = []errorKind{
	{service.ErrInvalidURL, http.StatusBadRequest, "INVALID_URL", "URL validation failed"},
	{service.ErrSelfReferential, http.StatusBadRequest, "SELF_REFERENTIAL", "URL points to this shortener"},
	{service.ErrUnsafeURL, http.StatusBadRequest, "UNSAFE_URL", "URL detected as potentially harmful"},
	{service.ErrUnknownShortCode, http.StatusNotFound, "UNKNOWN_SHORT_CODE", "short link not found"},
	{service.ErrGenerationExhausted, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "service temporarily unavailable"},
	{service.ErrServiceUnavailable, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "service temporarily unavailable"},
	{store.ErrStorageUnavailable, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "service temporarily unavailable"},
}

func writeError(c *gin.Context, status int, code, message string, reasons ...string) {
	if len(reasons) == 0 {
		reasons = []string{message}
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message, Code: code, Errors: reasons})
}

// respondError 把服务层错误映射为 HTTP 响应，内部错误细节只进日志
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	// 只有请求自身的截止时间已过才返回 504
	if errors.Is(err, context.DeadlineExceeded) && c.Request.Context().Err() != nil {
		writeError(c, http.StatusGatewayTimeout, "SERVICE_UNAVAILABLE", "request timed out")
		return
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			writeError(c, k.status, k.code, k.message, service.Reasons(err)...)
			return
		}
	}
	writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}
