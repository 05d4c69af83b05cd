package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Peiji-Yu/SEU-virtualCampus-sub001/internal/dto"
	"github.com/Peiji-Yu/SEU-virtualCampus-sub001/internal/service"
	"github.com/Peiji-Yu/SEU-virtualCampus-sub001/pkg/response"
)

// SectionHandler 教学班模块 HTTP 处理器
type SectionHandler struct {
	sectionSvc service.SectionService
}

// NewSectionHandler 创建 SectionHandler
func NewSectionHandler(sectionSvc service.SectionService) *SectionHandler {
	return &SectionHandler{sectionSvc: sectionSvc}
}

// ListSections 获取教学班列表
// GET /api/v1/sections
func (h *SectionHandler) ListSections(c *gin.Context) {
	var req dto.SectionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	sections, total, err := h.sectionSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, sections, total, req.GetPage(), req.GetPageSize())
}

// GetSection 获取教学班详情
// GET /api/v1/sections/:id
func (h *SectionHandler) GetSection(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "教学班ID不能为空")
		return
	}

	section, err := h.sectionSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleSectionError(c, err)
		return
	}

	response.OK(c, section)
}

// CreateSection 创建教学班（含课表归一化与排课冲突检测）
// POST /api/v1/sections
func (h *SectionHandler) CreateSection(c *gin.Context) {
	var req dto.CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	section, err := h.sectionSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleSectionError(c, err)
		return
	}

	response.Created(c, section)
}

// UpdateSection 更新教学班
// PUT /api/v1/sections/:id
func (h *SectionHandler) UpdateSection(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "教学班ID不能为空")
		return
	}

	var req dto.UpdateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	section, err := h.sectionSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleSectionError(c, err)
		return
	}

	response.OK(c, section)
}

// DeleteSection 删除教学班（仅允许删除无人选课的教学班）
// DELETE /api/v1/sections/:id
func (h *SectionHandler) DeleteSection(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "教学班ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.sectionSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		h.handleSectionError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleSectionError 统一处理教学班模块业务错误
// 排课冲突携带结构化详情，便于前端高亮冲突时段
func (h *SectionHandler) handleSectionError(c *gin.Context, err error) {
	var conflictErr *service.ConflictError
	switch {
	case errors.As(err, &conflictErr):
		response.ErrorWithDetails(c, http.StatusConflict, 21002, conflictErr.Message, gin.H{
			"rule":             conflictErr.Report.Rule,
			"other_section_id": conflictErr.Report.OtherSectionID,
			"day":              conflictErr.Report.Day,
			"candidate":        conflictErr.Report.Candidate.String(),
			"existing":         conflictErr.Report.Existing.String(),
		})
	case errors.Is(err, service.ErrSectionNotFound):
		response.NotFound(c, 21001, "教学班不存在")
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 20001, "课程不存在")
	case errors.Is(err, service.ErrCapacityBelowEnrolled):
		response.Error(c, http.StatusConflict, 21003, "容量不能低于当前已选人数")
	case errors.Is(err, service.ErrSectionNotEmpty):
		response.Error(c, http.StatusConflict, 21004, "教学班仍有学生选课，不能删除")
	default:
		response.InternalError(c)
	}
}
