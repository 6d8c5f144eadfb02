package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
	// 外部传入的 Request-ID 超过此长度时重新生成
	requestIDMaxLen = 64
)

// RequestID 读取或生成请求追踪 ID，写入上下文与响应头
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" || len(rid) > requestIDMaxLen {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Header(requestIDHeader, rid)
		c.Next()
	}
}

// GetRequestID 当前请求的追踪 ID，未经过 RequestID 中间件时为空
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
