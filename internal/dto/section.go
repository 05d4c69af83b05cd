package dto

import "encoding/json"

// ── 教学班模块 DTO ──

// CreateSectionRequest 创建教学班请求。
// Schedule 接受任意历史课表形态（字符串/数组/对象），由归一化器统一处理。
type CreateSectionRequest struct {
	CourseID    string          `json:"course_id"    binding:"required,uuid"`
	TeacherName string          `json:"teacher_name" binding:"required,max=50"`
	Room        string          `json:"room"         binding:"required,max=50"`
	Schedule    json.RawMessage `json:"schedule"     binding:"required"`
	Capacity    int             `json:"capacity"     binding:"required,min=1"`
}

// UpdateSectionRequest 编辑教学班请求（整体替换教师/教室/课表/容量）
type UpdateSectionRequest struct {
	TeacherName string          `json:"teacher_name" binding:"required,max=50"`
	Room        string          `json:"room"         binding:"required,max=50"`
	Schedule    json.RawMessage `json:"schedule"     binding:"required"`
	Capacity    int             `json:"capacity"     binding:"required,min=1"`
}

// SectionListRequest 教学班列表查询参数
type SectionListRequest struct {
	CourseID string `form:"course_id" binding:"omitempty,uuid"`
	PaginationRequest
}

// MeetingResponse 归一化后的单个上课时段
type MeetingResponse struct {
	Day         string `json:"day"`
	StartMinute int    `json:"start_minute"`
	EndMinute   int    `json:"end_minute"`
	TimeText    string `json:"time_text"` // "HH:MM-HH:MM"
}

// SectionResponse 教学班响应
type SectionResponse struct {
	ID            string            `json:"id"`
	Course        *CourseBrief      `json:"course,omitempty"`
	TeacherName   string            `json:"teacher_name"`
	Room          string            `json:"room"`
	ScheduleRaw   json.RawMessage   `json:"schedule_raw"`
	Meetings      []MeetingResponse `json:"meetings"`
	Capacity      int               `json:"capacity"`
	EnrolledCount int               `json:"enrolled_count"`
	CreatedAt     string            `json:"created_at"`
	UpdatedAt     string            `json:"updated_at"`
}
