package dto

// ── 选课模块 DTO ──

// EnrollmentResponse 选课记录响应
type EnrollmentResponse struct {
	ID         string           `json:"id"`
	StudentID  string           `json:"student_id"`
	Section    *SectionResponse `json:"section,omitempty"`
	EnrolledAt string           `json:"enrolled_at"`
}

// TimetableEntryResponse 个人周课表中的一个时段（按星期、开始时间排序）
type TimetableEntryResponse struct {
	Day         string `json:"day"`
	StartMinute int    `json:"start_minute"`
	EndMinute   int    `json:"end_minute"`
	TimeText    string `json:"time_text"`
	SectionID   string `json:"section_id"`
	CourseName  string `json:"course_name"`
	TeacherName string `json:"teacher_name"`
	Room        string `json:"room"`
}

// TimetableResponse 个人周课表（只读派生视图，不单独存储）
type TimetableResponse struct {
	StudentID string                   `json:"student_id"`
	Entries   []TimetableEntryResponse `json:"entries"`
}
