package model

import "gorm.io/datatypes"

// TeachingSection 教学班表 — 对应 teaching_sections
//
// ScheduleRaw 原样保存外部传入的课表形态（字符串/数组/对象），
// 参与冲突检测时每次读取都经 timetable.Normalizer 重新归一化，
// 存储格式不构成本核心的契约。
//
// EnrolledCount 是选课人数的权威计数，只允许通过
// EnrollmentRepository 的条件更新语句变更（见排课台账约束）：
// 0 <= enrolled_count <= capacity 由数据库 CHECK 约束兜底。
type TeachingSection struct {
	SectionID     string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"section_id"`
	CourseID      string         `gorm:"type:uuid;not null;index"                       json:"course_id"`
	TeacherName   string         `gorm:"type:varchar(50);not null"                      json:"teacher_name"`
	Room          string         `gorm:"type:varchar(50);not null"                      json:"room"`
	ScheduleRaw   datatypes.JSON `gorm:"type:jsonb"                                     json:"schedule_raw"`
	Capacity      int            `gorm:"type:int;not null"                              json:"capacity"`
	EnrolledCount int            `gorm:"type:int;not null;default:0"                    json:"enrolled_count"`
	VersionedModel

	// 关联
	Course *Course `gorm:"foreignKey:CourseID;references:CourseID" json:"course,omitempty"`
}

// TableName 指定表名
func (TeachingSection) TableName() string { return "teaching_sections" }
