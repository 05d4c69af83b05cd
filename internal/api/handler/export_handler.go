package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/Peiji-Yu/SEU-virtualCampus-sub001/internal/service"
	"github.com/Peiji-Yu/SEU-virtualCampus-sub001/pkg/response"
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

// ExportRoster 导出教学班选课名单（xlsx）
// GET /api/v1/sections/:id/roster.xlsx
func (h *ExportHandler) ExportRoster(c *gin.Context) {
	sectionID := c.Param("id")
	if sectionID == "" {
		response.BadRequest(c, 10001, "教学班ID不能为空")
		return
	}

	buf, filename, err := h.exportSvc.ExportRoster(c.Request.Context(), sectionID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	setDownloadHeaders(c, filename, contentTypeXLSX)
	c.Data(http.StatusOK, contentTypeXLSX, buf.Bytes())
}

// ExportTimetableICS 导出个人周课表（iCalendar）
// GET /api/v1/enrollments/mine/timetable.ics
func (h *ExportHandler) ExportTimetableICS(c *gin.Context) {
	studentID, ok := MustGetStudentID(c)
	if !ok {
		return
	}

	data, filename, err := h.exportSvc.ExportTimetableICS(c.Request.Context(), studentID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	setDownloadHeaders(c, filename, contentTypeICS)
	c.Data(http.StatusOK, contentTypeICS, data)
}

// setDownloadHeaders 设置文件下载响应头，文件名按 RFC 5987 编码以支持中文
func setDownloadHeaders(c *gin.Context, filename, contentType string) {
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Header("Content-Type", contentType)
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSectionNotFound):
		response.NotFound(c, 21001, "教学班不存在")
	case errors.Is(err, service.ErrExportNoEnrollments):
		response.NotFound(c, 23001, "当前没有可导出的选课记录")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}
