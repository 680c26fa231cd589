package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"grading_center_backend/internal/model"
	"grading_center_backend/internal/repository"
)

// AnswerService 答案的录入、列表与详情。评分/争议流程见 GradingService
type AnswerService struct {
	AnswerRepo *repository.AnswerRepository
	ExamRepo   *repository.ExamRepository
	UserRepo   *repository.UserRepository
	CaseRepo   *repository.ArbitrationRepository
	Cache      *AnswerCache
	Storage    *StorageService
}

func NewAnswerService(
	answerRepo *repository.AnswerRepository,
	examRepo *repository.ExamRepository,
	userRepo *repository.UserRepository,
	caseRepo *repository.ArbitrationRepository,
	cache *AnswerCache,
	storage *StorageService,
) *AnswerService {
	return &AnswerService{
		AnswerRepo: answerRepo,
		ExamRepo:   examRepo,
		UserRepo:   userRepo,
		CaseRepo:   caseRepo,
		Cache:      cache,
		Storage:    storage,
	}
}

// CreateAnswer 考生提交主观题答案，进入待评阅状态。答案文本此后不可变更
func (s *AnswerService) CreateAnswer(participantID, questionID uint, answerText string) (*model.SubjectiveAnswer, error) {
	question, err := s.ExamRepo.FindQuestionByID(questionID)
	if err != nil {
		return nil, err
	}

	answer := &model.SubjectiveAnswer{
		ParticipantID: participantID,
		QuestionID:    questionID,
		AnswerText:    answerText,
		Status:        model.AnswerPending,
	}
	if err := s.AnswerRepo.Create(answer); err != nil {
		return nil, err
	}

	s.Cache.Invalidate(question.ExamID)
	return answer, nil
}

// AnswerPage 列表页载荷，直接进出缓存
type AnswerPage struct {
	List  []model.SubjectiveAnswer `json:"list"`
	Total int64                    `json:"total"`
	Page  int                      `json:"page"`
	Size  int                      `json:"size"`
}

// ListByExam 某场考试下指定状态的答案分页，带 Redis 缓存
func (s *AnswerService) ListByExam(examID uint, status model.AnswerStatus, page, size int) (*AnswerPage, error) {
	var cached AnswerPage
	if s.Cache.Get(examID, string(status), page, size, &cached) {
		return &cached, nil
	}

	answers, total, err := s.AnswerRepo.ListByExamAndStatus(examID, status, page, size)
	if err != nil {
		return nil, err
	}

	result := &AnswerPage{List: answers, Total: total, Page: page, Size: size}
	s.Cache.Set(examID, string(status), page, size, result)
	return result, nil
}

// MarkerScoreInfo 评分记录附带评阅人信息
type MarkerScoreInfo struct {
	model.MarkerScore
	MarkerName  string `json:"markerName,omitempty"`
	MarkerEmail string `json:"markerEmail,omitempty"`
}

// AnswerDetail 答案详情：评分记录、仲裁信息、附件
type AnswerDetail struct {
	*model.SubjectiveAnswer
	MarkerScoresWithInfo []MarkerScoreInfo        `json:"markerScoresWithInfo,omitempty"`
	ArbitrationInfo      *model.Arbitration       `json:"arbitrationInfo,omitempty"`
	Attachments          []model.AnswerAttachment `json:"attachments,omitempty"`
}

func (s *AnswerService) GetDetail(answerID uint) (*AnswerDetail, error) {
	answer, err := s.AnswerRepo.FindByID(answerID)
	if err != nil {
		return nil, err
	}

	detail := &AnswerDetail{SubjectiveAnswer: answer}

	// 评阅人信息
	if len(answer.MarkerScores) > 0 {
		ids := make([]uint, 0, len(answer.MarkerScores))
		for _, ms := range answer.MarkerScores {
			ids = append(ids, ms.MarkerID)
		}
		markers, err := s.UserRepo.FindByIDs(ids)
		if err == nil {
			byID := make(map[uint]model.User, len(markers))
			for _, m := range markers {
				byID[m.ID] = m
			}
			for _, ms := range answer.MarkerScores {
				info := MarkerScoreInfo{MarkerScore: ms}
				if m, ok := byID[ms.MarkerID]; ok {
					info.MarkerName = m.Name
					info.MarkerEmail = m.Email
				}
				detail.MarkerScoresWithInfo = append(detail.MarkerScoresWithInfo, info)
			}
		}
	}

	// 仲裁信息
	if answer.ArbitrationID != nil {
		if arb, err := s.CaseRepo.FindByID(*answer.ArbitrationID); err == nil {
			detail.ArbitrationInfo = arb
		}
	}

	if atts, err := s.AnswerRepo.ListAttachments(answerID); err == nil && len(atts) > 0 {
		detail.Attachments = atts
	}

	return detail, nil
}

// UploadAttachment 上传答题卡扫描件等附件
func (s *AnswerService) UploadAttachment(ctx context.Context, answerID uint, fileName, contentType string, size int64, reader io.Reader) (*model.AnswerAttachment, error) {
	if _, err := s.AnswerRepo.FindByID(answerID); err != nil {
		return nil, err
	}

	objectKey := fmt.Sprintf("answers/%d/%s%s", answerID, model.GenerateUUID(), filepath.Ext(fileName))
	url, err := s.Storage.Upload(ctx, objectKey, reader, size, contentType)
	if err != nil {
		return nil, err
	}

	att := &model.AnswerAttachment{
		AnswerID:    answerID,
		FileName:    fileName,
		ContentType: contentType,
		Size:        size,
		URL:         url,
	}
	if err := s.AnswerRepo.CreateAttachment(att); err != nil {
		return nil, err
	}
	return att, nil
}

// ListExams 考试列表（考务模块数据，阅卷中心只读）
func (s *AnswerService) ListExams(page, size int) ([]model.Exam, int64, error) {
	return s.ExamRepo.List(page, size)
}

// ListQuestions 某场考试的主观题列表
func (s *AnswerService) ListQuestions(examID uint) ([]model.ExamQuestion, error) {
	if _, err := s.ExamRepo.FindByID(examID); err != nil {
		return nil, err
	}
	return s.ExamRepo.ListQuestions(examID)
}
