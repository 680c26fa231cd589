package model

import "time"

// MarkerScore 单个评阅人对一份答案的评分记录。
// (answer_id, marker_id) 唯一约束保证同一评阅人只占一行，覆盖打分走 upsert。
type MarkerScore struct {
	BaseModel
	AnswerID uint      `gorm:"uniqueIndex:idx_answer_marker;type:bigint unsigned;not null" json:"answerId"`
	MarkerID uint      `gorm:"uniqueIndex:idx_answer_marker;type:bigint unsigned;not null" json:"markerId"`
	Score    float64   `gorm:"type:decimal(5,2);not null" json:"score"`
	Comments string    `gorm:"type:text" json:"comments"`
	MarkedAt time.Time `json:"markedAt"`
}

func (MarkerScore) TableName() string {
	return "marker_scores"
}
