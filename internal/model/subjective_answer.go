package model

import "time"

// AnswerStatus 主观题答案的阅卷状态
type AnswerStatus string

const (
	AnswerPending    AnswerStatus = "pending"    // 待评阅
	AnswerMarking    AnswerStatus = "marking"    // 评阅中
	AnswerMarked     AnswerStatus = "marked"     // 已评阅
	AnswerDisputed   AnswerStatus = "disputed"   // 有争议
	AnswerArbitrated AnswerStatus = "arbitrated" // 已仲裁
)

// validTransitions 状态机转换表。不在表中的转换保持原状态
var validTransitions = map[AnswerStatus][]AnswerStatus{
	AnswerPending:  {AnswerMarking},
	AnswerMarking:  {AnswerMarking, AnswerMarked, AnswerDisputed},
	AnswerMarked:   {AnswerDisputed},
	AnswerDisputed: {AnswerArbitrated},
}

// CanTransition 判断 from → to 是否为合法状态转换
func (s AnswerStatus) CanTransition(to AnswerStatus) bool {
	for _, t := range validTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// SubjectiveAnswer 一份主观题答案及其阅卷生命周期
// swagger:model SubjectiveAnswer
type SubjectiveAnswer struct {
	BaseModel
	ParticipantID uint `gorm:"index;type:bigint unsigned;not null" json:"participantId"`
	QuestionID    uint `gorm:"index;type:bigint unsigned;not null" json:"questionId"`
	// 考生提交后不可变更
	AnswerText string       `gorm:"type:text" json:"answerText"`
	Status     AnswerStatus `gorm:"type:enum('pending','marking','marked','disputed','arbitrated');default:'pending'" json:"status"`

	// 多人评分记录，(answer_id, marker_id) 唯一，一行一个评阅人
	MarkerScores []MarkerScore `gorm:"foreignKey:AnswerID" json:"markerScores,omitempty"`
	// 已评阅的评阅人数量，与 marker_scores 行数保持一致
	MarkerCount int `gorm:"default:0" json:"markerCount"`
	// 每次评分后重算的均值与总体方差
	AverageScore  float64 `gorm:"type:decimal(5,2);default:0" json:"averageScore"`
	ScoreVariance float64 `gorm:"type:decimal(5,2);default:0" json:"scoreVariance"`
	// 方差超过阈值时置位
	NeedArbitration bool `gorm:"default:false" json:"needArbitration"`

	// 最终得分：marked 时为均值，arbitrated 时为仲裁人调整值
	FinalScore *float64 `gorm:"type:decimal(5,2)" json:"finalScore,omitempty"`
	// 主评阅人（最后一位完成评分的评阅人）及其评语
	MarkerID *uint      `gorm:"index;type:bigint unsigned" json:"markerId,omitempty"`
	MarkedAt *time.Time `json:"markedAt,omitempty"`
	Comments string     `gorm:"type:text" json:"comments"`

	// 争议信息
	DisputeReason string     `gorm:"type:text" json:"disputeReason,omitempty"`
	DisputedAt    *time.Time `json:"disputedAt,omitempty"`
	// 当前仲裁单，仅升级后有值
	ArbitrationID *uint `gorm:"index;type:bigint unsigned" json:"arbitrationId,omitempty"`

	// 乐观锁版本号，并发写同一份答案时检测冲突
	LockVersion int `gorm:"default:0" json:"-"`
}

func (SubjectiveAnswer) TableName() string {
	return "subjective_answers"
}
