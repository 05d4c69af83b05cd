package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Peiji-Yu/SEU-virtualCampus-sub001/internal/service"
	"github.com/Peiji-Yu/SEU-virtualCampus-sub001/pkg/response"
)

// EnrollmentHandler 选课模块 HTTP 处理器
type EnrollmentHandler struct {
	enrollSvc service.EnrollmentService
}

// NewEnrollmentHandler 创建 EnrollmentHandler
func NewEnrollmentHandler(enrollSvc service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollSvc: enrollSvc}
}

// Enroll 学生选课
// POST /api/v1/sections/:id/enroll
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	sectionID := c.Param("id")
	if sectionID == "" {
		response.BadRequest(c, 10001, "教学班ID不能为空")
		return
	}

	studentID, ok := MustGetStudentID(c)
	if !ok {
		return
	}

	enrollment, err := h.enrollSvc.Enroll(c.Request.Context(), sectionID, studentID)
	if err != nil {
		h.handleEnrollError(c, err)
		return
	}

	response.Created(c, enrollment)
}

// Withdraw 学生退课
// DELETE /api/v1/sections/:id/enroll
func (h *EnrollmentHandler) Withdraw(c *gin.Context) {
	sectionID := c.Param("id")
	if sectionID == "" {
		response.BadRequest(c, 10001, "教学班ID不能为空")
		return
	}

	studentID, ok := MustGetStudentID(c)
	if !ok {
		return
	}

	if err := h.enrollSvc.Withdraw(c.Request.Context(), sectionID, studentID); err != nil {
		h.handleEnrollError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListMine 我的选课记录
// GET /api/v1/enrollments/mine
func (h *EnrollmentHandler) ListMine(c *gin.Context) {
	studentID, ok := MustGetStudentID(c)
	if !ok {
		return
	}

	enrollments, err := h.enrollSvc.ListMine(c.Request.Context(), studentID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": enrollments})
}

// MyTimetable 我的周课表
// GET /api/v1/enrollments/mine/timetable
func (h *EnrollmentHandler) MyTimetable(c *gin.Context) {
	studentID, ok := MustGetStudentID(c)
	if !ok {
		return
	}

	timetable, err := h.enrollSvc.MyTimetable(c.Request.Context(), studentID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, timetable)
}

// handleEnrollError 统一处理选课模块业务错误
func (h *EnrollmentHandler) handleEnrollError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSectionNotFound):
		response.NotFound(c, 21001, "教学班不存在")
	case errors.Is(err, service.ErrEnrollSectionFull):
		response.Error(c, http.StatusConflict, 22001, "教学班已满")
	case errors.Is(err, service.ErrAlreadyEnrolled):
		response.Error(c, http.StatusConflict, 22002, "已选过该教学班")
	case errors.Is(err, service.ErrNotEnrolled):
		response.NotFound(c, 22003, "未选该教学班")
	default:
		response.InternalError(c)
	}
}
