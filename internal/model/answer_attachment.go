package model

// AnswerAttachment 答题卡扫描件等附件，对象实际内容存储在 StorageService 后端
type AnswerAttachment struct {
	UUIDBase
	AnswerID    uint   `gorm:"index;type:bigint unsigned;not null" json:"answerId"`
	FileName    string `gorm:"size:255" json:"fileName"`
	ContentType string `gorm:"size:100" json:"contentType"`
	Size        int64  `json:"size"`
	URL         string `gorm:"size:500" json:"url"`
}

func (AnswerAttachment) TableName() string {
	return "answer_attachments"
}
