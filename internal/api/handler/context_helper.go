package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"course-planner/internal/service"
	"course-planner/pkg/errcode"
	"course-planner/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, errcode.NoUserToken, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, errcode.NoUserToken, "未认证")
		return "", false
	}
	return s, true
}

// MustGetTableID 读取路径参数 :id。非法 UUID 视为时间表不存在并写入 404。
func MustGetTableID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		response.NotFound(c, errcode.TimetableNotFound, service.ErrTimetableNotFound.Error())
		return "", false
	}
	return id, true
}

// MustGetLectureID 读取路径参数 :lecture_id，非法 UUID 时按 notFound 写入 404
func MustGetLectureID(c *gin.Context, code int, notFound error) (string, bool) {
	id := c.Param("lecture_id")
	if _, err := uuid.Parse(id); err != nil {
		response.NotFound(c, code, notFound.Error())
		return "", false
	}
	return id, true
}
