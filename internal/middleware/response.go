package middleware

import (
	"github.com/gin-gonic/gin"
)

// abort 以统一的错误格式结束请求
func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":  message,
		"code":   code,
		"errors": []string{message},
	})
}
