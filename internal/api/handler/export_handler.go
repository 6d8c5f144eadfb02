package handler

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"course-planner/internal/dto"
	"course-planner/internal/service"
	"course-planner/pkg/errcode"
	"course-planner/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportXLSX 导出时间表网格
// GET /api/v1/tables/:id/export/xlsx
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	tableID, ok := MustGetTableID(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportXLSX(c.Request.Context(), userID, tableID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}
	sendFile(c, buf, filename, contentTypeXLSX)
}

// ExportICS 导出 iCalendar
// GET /api/v1/tables/:id/export/ics?term_start=2024-03-04&weeks=16
func (h *ExportHandler) ExportICS(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	tableID, ok := MustGetTableID(c)
	if !ok {
		return
	}

	var req dto.ExportICSRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		handleBindError(c, err)
		return
	}

	buf, filename, err := h.exportSvc.ExportICS(c.Request.Context(), userID, tableID, &req)
	if err != nil {
		h.handleExportError(c, err)
		return
	}
	sendFile(c, buf, filename, contentTypeICS)
}

// sendFile 设置下载响应头
func sendFile(c *gin.Context, buf *bytes.Buffer, filename, contentType string) {
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidTermStart):
		response.BadRequest(c, errcode.InputOutOfRange, err.Error())
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		handleTimetableError(c, err)
	}
}
