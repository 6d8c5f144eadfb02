package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"course-planner/pkg/errcode"
	"course-planner/pkg/response"
)

// BodyLimit 请求体大小限制
// 声明了 Content-Length 且超限时直接 413；未声明长度时由 MaxBytesReader 截断，读取失败落到参数校验错误
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, errcode.RequestTooLarge, "请求体过大")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
