package model

import "time"

// Exam 考试元数据，由考务模块维护，阅卷中心只读
// swagger:model Exam
type Exam struct {
	BaseModel
	Title       string     `gorm:"size:200;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Published   bool       `gorm:"default:false" json:"published"`
	StartAt     *time.Time `json:"startAt,omitempty"`
	EndAt       *time.Time `json:"endAt,omitempty"`
}

func (Exam) TableName() string {
	return "exams"
}
