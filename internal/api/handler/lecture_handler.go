package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"course-planner/internal/dto"
	"course-planner/internal/service"
	"course-planner/internal/timeplace"
	"course-planner/pkg/errcode"
	"course-planner/pkg/response"
)

// LectureHandler 时间表条目 Handler
type LectureHandler struct {
	svc service.TimetableLectureService
}

// NewLectureHandler 创建 LectureHandler 实例
func NewLectureHandler(svc service.TimetableLectureService) *LectureHandler {
	return &LectureHandler{svc: svc}
}

// AddRef 添加目录课程
// POST /api/v1/tables/:id/lecture/:lecture_id?is_forced=true
func (h *LectureHandler) AddRef(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	tableID, ok := MustGetTableID(c)
	if !ok {
		return
	}
	lectureID, ok := MustGetLectureID(c, errcode.RefLectureNotFound, service.ErrRefLectureNotFound)
	if !ok {
		return
	}

	var q dto.AddRefLectureQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		handleBindError(c, err)
		return
	}

	resp, err := h.svc.AddRefLecture(c.Request.Context(), userID, tableID, lectureID, q.IsForced)
	if err != nil {
		handleLectureError(c, err)
		return
	}
	response.OK(c, resp)
}

// AddCustom 添加自定义课程
// POST /api/v1/tables/:id/lecture
func (h *LectureHandler) AddCustom(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	tableID, ok := MustGetTableID(c)
	if !ok {
		return
	}

	var req dto.CustomLectureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	resp, err := h.svc.AddCustomLecture(c.Request.Context(), userID, tableID, &req)
	if err != nil {
		handleLectureError(c, err)
		return
	}
	response.OK(c, resp)
}

// Modify 部分修改条目
// PUT /api/v1/tables/:id/lecture/:lecture_id
func (h *LectureHandler) Modify(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	tableID, ok := MustGetTableID(c)
	if !ok {
		return
	}
	lectureID, ok := MustGetLectureID(c, errcode.LectureNotFound, service.ErrUserLectureNotFound)
	if !ok {
		return
	}

	var req dto.ModifyLectureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	resp, err := h.svc.ModifyLecture(c.Request.Context(), userID, tableID, lectureID, &req)
	if err != nil {
		handleLectureError(c, err)
		return
	}
	response.OK(c, resp)
}

// Reset 以目录数据重置条目
// PUT /api/v1/tables/:id/lecture/:lecture_id/reset
func (h *LectureHandler) Reset(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	tableID, ok := MustGetTableID(c)
	if !ok {
		return
	}
	lectureID, ok := MustGetLectureID(c, errcode.LectureNotFound, service.ErrUserLectureNotFound)
	if !ok {
		return
	}

	resp, err := h.svc.ResetLecture(c.Request.Context(), userID, tableID, lectureID)
	if err != nil {
		handleLectureError(c, err)
		return
	}
	response.OK(c, resp)
}

// Remove 删除条目
// DELETE /api/v1/tables/:id/lecture/:lecture_id
func (h *LectureHandler) Remove(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	tableID, ok := MustGetTableID(c)
	if !ok {
		return
	}
	lectureID, ok := MustGetLectureID(c, errcode.LectureNotFound, service.ErrUserLectureNotFound)
	if !ok {
		return
	}

	resp, err := h.svc.RemoveLecture(c.Request.Context(), userID, tableID, lectureID)
	if err != nil {
		handleLectureError(c, err)
		return
	}
	response.OK(c, resp)
}

// RemoveByCourseNumber 按课程号/班号删除条目
// DELETE /api/v1/tables/:id/lecture?course_number=&lecture_number=
func (h *LectureHandler) RemoveByCourseNumber(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	tableID, ok := MustGetTableID(c)
	if !ok {
		return
	}

	var q dto.RemoveByCourseNumberQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		handleBindError(c, err)
		return
	}

	resp, err := h.svc.RemoveLectureByCourseNumber(c.Request.Context(), userID, tableID, q.CourseNumber, q.LectureNumber)
	if err != nil {
		handleLectureError(c, err)
		return
	}
	response.OK(c, resp)
}

// handleLectureError 条目错误映射；时间表层面的错误交给 handleTimetableError
func handleLectureError(c *gin.Context, err error) {
	var overlap *timeplace.OverlapError
	switch {
	case errors.As(err, &overlap):
		response.ErrorWithDetails(c, http.StatusForbidden, errcode.LectureTimeOverlap, "课程时间冲突", overlap.ConfirmMessage)
	case errors.Is(err, timeplace.ErrLectureTimeOverlap):
		response.Forbidden(c, errcode.LectureTimeOverlap, err.Error())
	case errors.Is(err, timeplace.ErrInvalidTimeJSON), errors.Is(err, timeplace.ErrMalformedTime):
		response.BadRequest(c, errcode.InvalidTimeJSON, err.Error())
	case errors.Is(err, service.ErrInvalidColor):
		response.BadRequest(c, errcode.InvalidColor, err.Error())
	case errors.Is(err, service.ErrNoLectureTitle):
		response.BadRequest(c, errcode.NoLectureTitle, err.Error())
	case errors.Is(err, service.ErrModifyIdentity):
		response.BadRequest(c, errcode.AttemptToModifyIdentity, err.Error())
	case errors.Is(err, service.ErrDuplicateLecture):
		response.Forbidden(c, errcode.DuplicateLecture, err.Error())
	case errors.Is(err, service.ErrWrongSemester):
		response.Forbidden(c, errcode.WrongSemester, err.Error())
	case errors.Is(err, service.ErrNotCustomLecture):
		response.Forbidden(c, errcode.NotCustomLecture, err.Error())
	case errors.Is(err, service.ErrIsCustomLecture):
		response.Forbidden(c, errcode.IsCustomLecture, err.Error())
	case errors.Is(err, service.ErrUserLectureNotFound):
		response.NotFound(c, errcode.LectureNotFound, err.Error())
	case errors.Is(err, service.ErrRefLectureNotFound):
		response.NotFound(c, errcode.RefLectureNotFound, err.Error())
	default:
		handleTimetableError(c, err)
	}
}

// [自证通过] internal/api/handler/lecture_handler.go
