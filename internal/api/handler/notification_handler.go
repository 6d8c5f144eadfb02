package handler

import (
	"github.com/gin-gonic/gin"

	"course-planner/internal/dto"
	"course-planner/internal/service"
	"course-planner/pkg/response"
)

// NotificationHandler 通知 Handler
type NotificationHandler struct {
	svc service.NotificationService
}

// NewNotificationHandler 创建 NotificationHandler 实例
func NewNotificationHandler(svc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// List 当前用户的通知与广播，新的在前
// GET /api/v1/notifications?offset=0&limit=20
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.NotificationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		handleBindError(c, err)
		return
	}

	list, total, err := h.svc.List(c.Request.Context(), userID, &req)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OKList(c, list, total, req.Offset, req.GetLimit())
}
