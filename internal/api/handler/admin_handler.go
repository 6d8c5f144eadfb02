package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"course-planner/internal/catalog"
	"course-planner/internal/dto"
	"course-planner/internal/service"
	"course-planner/pkg/errcode"
	"course-planner/pkg/response"
)

// AdminHandler 管理员操作 Handler
type AdminHandler struct {
	svc service.CoursebookService
	now func() time.Time
}

// NewAdminHandler 创建 AdminHandler 实例
func NewAdminHandler(svc service.CoursebookService) *AdminHandler {
	return &AdminHandler{svc: svc, now: time.Now}
}

// RefreshCoursebook 刷新指定学期目录并同步时间表
// POST /api/v1/admin/coursebook/refresh
func (h *AdminHandler) RefreshCoursebook(c *gin.Context) {
	var req dto.RefreshCoursebookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if isValidationError(err) && (req.Year == 0 || req.Semester == 0) {
			response.BadRequest(c, errcode.NoYearOrSemester, "必须指定学年和学期")
			return
		}
		handleBindError(c, err)
		return
	}

	result, err := h.svc.Refresh(c.Request.Context(), catalog.Term{Year: req.Year, Semester: req.Semester})
	if err != nil {
		handleCoursebookError(c, err)
		return
	}
	response.OK(c, result)
}

// RefreshRecent 刷新最近学期与下一学期
// POST /api/v1/admin/coursebook/refresh/recent
func (h *AdminHandler) RefreshRecent(c *gin.Context) {
	results, err := h.svc.RefreshRecent(c.Request.Context(), h.now())
	if err != nil {
		handleCoursebookError(c, err)
		return
	}
	response.OK(c, results)
}

func handleCoursebookError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidTerm):
		response.BadRequest(c, errcode.InputOutOfRange, err.Error())
	case errors.Is(err, catalog.ErrSourceNotFound):
		response.ErrorWithDetails(c, http.StatusNotFound, errcode.CatalogSourceNotFound, "未找到学期目录文件", err.Error())
	default:
		response.InternalError(c)
	}
}
