package model

// ExamQuestion 主观题题目，MaxScore 为题目满分，评分校验的上界
// swagger:model ExamQuestion
type ExamQuestion struct {
	BaseModel
	ExamID  uint   `gorm:"index;type:bigint unsigned" json:"examId"`
	Content string `gorm:"type:text" json:"content"`
	// 题目满分
	MaxScore float64 `gorm:"type:decimal(5,2);not null" json:"maxScore"`
	// 该题需要的评阅人数量，0 表示使用全局配置
	RequiredMarkerCount int `gorm:"default:0" json:"requiredMarkerCount"`
}

func (ExamQuestion) TableName() string {
	return "exam_questions"
}
