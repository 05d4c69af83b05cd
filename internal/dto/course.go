package dto

// ── 课程模块 DTO ──

// CreateCourseRequest 创建课程请求
type CreateCourseRequest struct {
	Code   string  `json:"code"   binding:"required,max=20"`
	Name   string  `json:"name"   binding:"required,max=100"`
	Credit float64 `json:"credit" binding:"omitempty,min=0,max=20"`
}

// UpdateCourseRequest 更新课程请求
type UpdateCourseRequest struct {
	Name   *string  `json:"name"   binding:"omitempty,max=100"`
	Credit *float64 `json:"credit" binding:"omitempty,min=0,max=20"`
}

// CourseListRequest 课程列表查询参数
type CourseListRequest struct {
	Keyword string `form:"keyword" binding:"omitempty,max=50"`
	PaginationRequest
}

// CourseBrief 课程简要信息（嵌入教学班响应）
type CourseBrief struct {
	ID     string  `json:"id"`
	Code   string  `json:"code"`
	Name   string  `json:"name"`
	Credit float64 `json:"credit"`
}

// CourseResponse 课程响应
type CourseResponse struct {
	ID        string  `json:"id"`
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Credit    float64 `json:"credit"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}
