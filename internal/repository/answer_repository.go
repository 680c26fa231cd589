package repository

import (
	"errors"

	"grading_center_backend/internal/model"
	"grading_center_backend/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnswerRepository struct {
	DB *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) *AnswerRepository {
	return &AnswerRepository{DB: db}
}

func (r *AnswerRepository) Create(answer *model.SubjectiveAnswer) error {
	return r.DB.Create(answer).Error
}

func (r *AnswerRepository) FindByID(id uint) (*model.SubjectiveAnswer, error) {
	var answer model.SubjectiveAnswer
	err := r.DB.Preload("MarkerScores", func(db *gorm.DB) *gorm.DB {
		return db.Order("marker_scores.marked_at")
	}).First(&answer, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAnswerNotFound
		}
		return nil, err
	}
	return &answer, nil
}

// answerUpdates 收集一次评阅/争议/仲裁变更会触碰的全部列。
// 用 map 而不是结构体更新，零值（清空 final_score 等）才能落库
func answerUpdates(a *model.SubjectiveAnswer) map[string]interface{} {
	return map[string]interface{}{
		"status":           a.Status,
		"marker_count":     a.MarkerCount,
		"average_score":    a.AverageScore,
		"score_variance":   a.ScoreVariance,
		"need_arbitration": a.NeedArbitration,
		"final_score":      a.FinalScore,
		"marker_id":        a.MarkerID,
		"marked_at":        a.MarkedAt,
		"comments":         a.Comments,
		"dispute_reason":   a.DisputeReason,
		"disputed_at":      a.DisputedAt,
		"arbitration_id":   a.ArbitrationID,
		"lock_version":     a.LockVersion + 1,
	}
}

// ApplyMarking 在一个事务里 upsert 评阅人的评分行并写回答案行。
// 评分行的 (answer_id, marker_id) 唯一约束保证同一评阅人覆盖而非追加；
// 答案行带乐观锁版本校验，并发写同一答案时返回 ErrConflict
func (r *AnswerRepository) ApplyMarking(answer *model.SubjectiveAnswer, score *model.MarkerScore) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "answer_id"}, {Name: "marker_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"score", "comments", "marked_at", "updated_at",
			}),
		}).Create(score).Error; err != nil {
			return err
		}

		res := tx.Model(&model.SubjectiveAnswer{}).
			Where("id = ? AND lock_version = ?", answer.ID, answer.LockVersion).
			Updates(answerUpdates(answer))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return util.ErrConflict
		}
		answer.LockVersion++
		return nil
	})
}

// UpdateGuarded 带乐观锁版本校验的答案行更新（争议、仲裁写回）
func (r *AnswerRepository) UpdateGuarded(answer *model.SubjectiveAnswer) error {
	res := r.DB.Model(&model.SubjectiveAnswer{}).
		Where("id = ? AND lock_version = ?", answer.ID, answer.LockVersion).
		Updates(answerUpdates(answer))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrConflict
	}
	answer.LockVersion++
	return nil
}

// ListByExamAndStatus 分页查询某场考试下指定状态的答案
func (r *AnswerRepository) ListByExamAndStatus(examID uint, status model.AnswerStatus, page, size int) ([]model.SubjectiveAnswer, int64, error) {
	var answers []model.SubjectiveAnswer
	var total int64

	base := r.DB.Model(&model.SubjectiveAnswer{}).
		Joins("JOIN exam_questions ON exam_questions.id = subjective_answers.question_id").
		Where("exam_questions.exam_id = ? AND subjective_answers.status = ?", examID, status)

	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "subjective_answers.created_at DESC"
	if status == model.AnswerMarked {
		order = "subjective_answers.marked_at DESC"
	}

	err := base.Order(order).
		Offset((page - 1) * size).
		Limit(size).
		Find(&answers).Error
	return answers, total, err
}

func (r *AnswerRepository) CreateAttachment(att *model.AnswerAttachment) error {
	return r.DB.Create(att).Error
}

func (r *AnswerRepository) ListAttachments(answerID uint) ([]model.AnswerAttachment, error) {
	var atts []model.AnswerAttachment
	err := r.DB.Where("answer_id = ?", answerID).Find(&atts).Error
	return atts, err
}
