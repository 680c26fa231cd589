package repository

import (
	"errors"

	"grading_center_backend/internal/model"
	"grading_center_backend/internal/util"

	"gorm.io/gorm"
)

type ArbitrationRepository struct {
	DB *gorm.DB
}

func NewArbitrationRepository(db *gorm.DB) *ArbitrationRepository {
	return &ArbitrationRepository{DB: db}
}

func (r *ArbitrationRepository) Create(c *model.Arbitration) error {
	return r.DB.Create(c).Error
}

func (r *ArbitrationRepository) FindByID(id uint) (*model.Arbitration, error) {
	var c model.Arbitration
	if err := r.DB.First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCaseNotFound
		}
		return nil, err
	}
	return &c, nil
}

// FindOpenByAnswer 查找某份答案上未关闭的仲裁单，没有则返回 nil
func (r *ArbitrationRepository) FindOpenByAnswer(answerID uint) (*model.Arbitration, error) {
	var c model.Arbitration
	err := r.DB.Where("answer_id = ? AND status IN ?", answerID,
		[]model.ArbitrationStatus{model.ArbitrationPending, model.ArbitrationReviewing}).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ArbitrationRepository) Update(c *model.Arbitration) error {
	return r.DB.Save(c).Error
}

func (r *ArbitrationRepository) ListByStatus(status model.ArbitrationStatus, page, size int) ([]model.Arbitration, int64, error) {
	var cases []model.Arbitration
	var total int64

	query := r.DB.Model(&model.Arbitration{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&cases).Error
	return cases, total, err
}

func (r *ArbitrationRepository) CountOpen() (int64, error) {
	var n int64
	err := r.DB.Model(&model.Arbitration{}).
		Where("status IN ?", []model.ArbitrationStatus{model.ArbitrationPending, model.ArbitrationReviewing}).
		Count(&n).Error
	return n, err
}
