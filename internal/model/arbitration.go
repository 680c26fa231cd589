package model

import "time"

type ArbitrationStatus string

const (
	ArbitrationPending   ArbitrationStatus = "pending"   // 待处理
	ArbitrationReviewing ArbitrationStatus = "reviewing" // 审核中
	ArbitrationApproved  ArbitrationStatus = "approved"  // 已批准（分数被调整）
	ArbitrationRejected  ArbitrationStatus = "rejected"  // 已拒绝（维持原分）
)

// Terminal 仲裁单是否已关闭
func (s ArbitrationStatus) Terminal() bool {
	return s == ArbitrationApproved || s == ArbitrationRejected
}

// Arbitration 争议答案的仲裁单。一次争议对应一张单，关闭后不再改动；
// 同一答案再次争议会另开新单。
// swagger:model Arbitration
type Arbitration struct {
	BaseModel
	AnswerID     uint              `gorm:"index;type:bigint unsigned;not null" json:"answerId"`
	RequesterID  uint              `gorm:"type:bigint unsigned;not null" json:"requesterId"`
	ArbitratorID *uint             `gorm:"index;type:bigint unsigned" json:"arbitratorId,omitempty"`
	Reason       string            `gorm:"type:text;not null" json:"reason"`
	Status       ArbitrationStatus `gorm:"type:enum('pending','reviewing','approved','rejected');default:'pending'" json:"status"`
	// 升级时争议均分的快照
	OriginalScore float64 `gorm:"type:decimal(5,2)" json:"originalScore"`
	// 仲裁人调整后的分数，批准前为空
	AdjustedScore *float64   `gorm:"type:decimal(5,2)" json:"adjustedScore,omitempty"`
	Resolution    string     `gorm:"type:text" json:"resolution,omitempty"`
	ResolvedAt    *time.Time `json:"resolvedAt,omitempty"`
}

func (Arbitration) TableName() string {
	return "arbitrations"
}
