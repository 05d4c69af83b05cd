package handler

import "github.com/Peiji-Yu/SEU-virtualCampus-sub001/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Course     *CourseHandler
	Section    *SectionHandler
	Enrollment *EnrollmentHandler
	Export     *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Course:     NewCourseHandler(svc.Course),
		Section:    NewSectionHandler(svc.Section),
		Enrollment: NewEnrollmentHandler(svc.Enrollment),
		Export:     NewExportHandler(svc.Export),
	}
}
