package repository

import (
	"errors"

	"grading_center_backend/internal/model"
	"grading_center_backend/internal/util"

	"gorm.io/gorm"
)

type ExamRepository struct {
	DB *gorm.DB
}

func NewExamRepository(db *gorm.DB) *ExamRepository {
	return &ExamRepository{DB: db}
}

func (r *ExamRepository) List(page, size int) ([]model.Exam, int64, error) {
	var exams []model.Exam
	var total int64

	if err := r.DB.Model(&model.Exam{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.DB.Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&exams).Error
	return exams, total, err
}

func (r *ExamRepository) FindByID(id uint) (*model.Exam, error) {
	var exam model.Exam
	err := r.DB.First(&exam, id).Error
	return &exam, err
}

func (r *ExamRepository) ListQuestions(examID uint) ([]model.ExamQuestion, error) {
	var questions []model.ExamQuestion
	err := r.DB.Where("exam_id = ?", examID).Order("id").Find(&questions).Error
	return questions, err
}

func (r *ExamRepository) FindQuestionByID(id uint) (*model.ExamQuestion, error) {
	var q model.ExamQuestion
	if err := r.DB.First(&q, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}
	return &q, nil
}
