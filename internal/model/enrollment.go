package model

import "time"

// Enrollment 选课关系表 — 对应 enrollments
// (section_id, student_id) 复合唯一：一名学生对同一教学班至多一条选课记录，
// 唯一索引同时兜底并发重复选课。
type Enrollment struct {
	EnrollmentID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"       json:"enrollment_id"`
	SectionID    string    `gorm:"type:uuid;not null;uniqueIndex:uk_section_student"    json:"section_id"`
	StudentID    string    `gorm:"type:varchar(20);not null;uniqueIndex:uk_section_student;index" json:"student_id"`
	EnrolledAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"                   json:"enrolled_at"`

	// 关联
	Section *TeachingSection `gorm:"foreignKey:SectionID;references:SectionID" json:"section,omitempty"`
}

// TableName 指定表名
func (Enrollment) TableName() string { return "enrollments" }
