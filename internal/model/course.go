package model

// Course 课程表 — 对应 courses
// 课程目录由教务管理端维护，教学班通过 CourseID 外键引用
type Course struct {
	CourseID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_id"`
	Code     string  `gorm:"type:varchar(20);not null;uniqueIndex"          json:"code"`
	Name     string  `gorm:"type:varchar(100);not null"                     json:"name"`
	Credit   float64 `gorm:"type:numeric(3,1);not null;default:0"           json:"credit"`
	BaseModel
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }
