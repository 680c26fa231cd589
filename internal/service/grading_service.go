package service

import (
	"errors"
	"strings"
	"time"

	"grading_center_backend/internal/model"
	"grading_center_backend/internal/util"
	"grading_center_backend/pkg/keylock"
	"grading_center_backend/pkg/logger"
	"grading_center_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// AnswerStore 评分流程需要的答案持久化操作
type AnswerStore interface {
	FindByID(id uint) (*model.SubjectiveAnswer, error)
	ApplyMarking(answer *model.SubjectiveAnswer, score *model.MarkerScore) error
	UpdateGuarded(answer *model.SubjectiveAnswer) error
}

// QuestionStore 题目元数据读取（满分、评阅人数量覆盖）
type QuestionStore interface {
	FindQuestionByID(id uint) (*model.ExamQuestion, error)
}

// GradingService 主观题评分与争议流程。
// 同一答案的读-算-写通过 Locks 串行化，不同答案完全并行
type GradingService struct {
	Answers     AnswerStore
	Questions   QuestionStore
	Policy      *GradingPolicy
	Locks       *keylock.KeyLock
	Arbitration *ArbitrationService
	Cache       *AnswerCache
	Hub         *NotifyHub
}

func NewGradingService(answers AnswerStore, questions QuestionStore, policy *GradingPolicy, locks *keylock.KeyLock) *GradingService {
	return &GradingService{
		Answers:   answers,
		Questions: questions,
		Policy:    policy,
		Locks:     locks,
	}
}

// SubmitScore 评阅人提交（或覆盖）对一份答案的评分。
// 按 markerId upsert 评分记录，重算均值/方差，按状态机推进答案状态；
// 凑齐评阅人且无需仲裁时写最终分。校验失败时记录不发生任何变更
func (s *GradingService) SubmitScore(answerID, markerID uint, score float64, comments string) (*model.SubjectiveAnswer, error) {
	s.Locks.Lock(answerID)
	defer s.Locks.Unlock(answerID)

	answer, err := s.Answers.FindByID(answerID)
	if err != nil {
		return nil, err
	}

	question, err := s.Questions.FindQuestionByID(answer.QuestionID)
	if err != nil {
		return nil, err
	}

	if score < 0 || score > question.MaxScore {
		monitoring.ScoreSubmissionCounter.WithLabelValues("rejected").Inc()
		return nil, util.ErrScoreOutOfRange
	}

	now := time.Now()

	// 同一评阅人覆盖自己之前的评分，不追加
	scores := make([]float64, 0, len(answer.MarkerScores)+1)
	replaced := false
	for i := range answer.MarkerScores {
		ms := &answer.MarkerScores[i]
		if ms.MarkerID == markerID {
			ms.Score = score
			ms.Comments = comments
			ms.MarkedAt = now
			replaced = true
		}
		scores = append(scores, ms.Score)
	}
	if !replaced {
		answer.MarkerScores = append(answer.MarkerScores, model.MarkerScore{
			AnswerID: answer.ID,
			MarkerID: markerID,
			Score:    score,
			Comments: comments,
			MarkedAt: now,
		})
		scores = append(scores, score)
	}

	agg := Aggregate(scores, s.Policy.VarianceThreshold())
	required := s.Policy.RequiredMarkerCount(question)
	markerCount := len(scores)

	// 候选状态
	var candidate model.AnswerStatus
	switch {
	case markerCount == 0:
		candidate = model.AnswerPending
	case markerCount < required:
		candidate = model.AnswerMarking
	case agg.NeedArbitration:
		candidate = model.AnswerDisputed
	default:
		candidate = model.AnswerMarked
	}

	// 不合法的转换保持原状态（已仲裁的答案不会被普通评分拉回）
	prev := answer.Status
	if !prev.CanTransition(candidate) {
		candidate = prev
	}

	answer.Status = candidate
	answer.MarkerCount = markerCount
	answer.AverageScore = agg.Mean
	answer.ScoreVariance = agg.Variance
	answer.NeedArbitration = agg.NeedArbitration

	switch candidate {
	case model.AnswerMarked:
		final := agg.Mean
		mid := markerID
		answer.FinalScore = &final
		answer.MarkerID = &mid
		answer.MarkedAt = &now
		answer.Comments = comments
	case model.AnswerDisputed:
		// 最终分仅在 marked/arbitrated 状态有值
		answer.FinalScore = nil
	}

	scoreRow := &model.MarkerScore{
		AnswerID: answer.ID,
		MarkerID: markerID,
		Score:    score,
		Comments: comments,
		MarkedAt: now,
	}
	if err := s.Answers.ApplyMarking(answer, scoreRow); err != nil {
		if errors.Is(err, util.ErrConflict) {
			monitoring.ScoreSubmissionCounter.WithLabelValues("conflict").Inc()
		}
		return nil, err
	}

	monitoring.ScoreSubmissionCounter.WithLabelValues("accepted").Inc()

	// 刚进入争议状态时自动升级仲裁
	if prev != model.AnswerDisputed && answer.Status == model.AnswerDisputed && s.Arbitration != nil {
		if _, err := s.Arbitration.escalateLocked(answer, markerID, "评分方差超过仲裁阈值"); err != nil &&
			!errors.Is(err, util.ErrOpenCaseExists) {
			logger.Log.Error("auto-escalation failed",
				zap.Uint("answerId", answer.ID), zap.Error(err))
		}
	}

	s.Cache.Invalidate(question.ExamID)
	return answer, nil
}

// FileDispute 考生对已评阅的答案提出争议。不触碰评分记录
func (s *GradingService) FileDispute(answerID, requesterID uint, reason string) (*model.SubjectiveAnswer, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, util.ErrEmptyDisputeReason
	}

	s.Locks.Lock(answerID)
	defer s.Locks.Unlock(answerID)

	answer, err := s.Answers.FindByID(answerID)
	if err != nil {
		return nil, err
	}

	// 只有已评阅的答案才能提出争议
	if answer.Status != model.AnswerMarked {
		return nil, util.ErrInvalidStateTransition
	}

	now := time.Now()
	answer.Status = model.AnswerDisputed
	answer.DisputeReason = reason
	answer.DisputedAt = &now
	answer.FinalScore = nil

	if err := s.Answers.UpdateGuarded(answer); err != nil {
		return nil, err
	}

	monitoring.DisputeCounter.Inc()
	if question, qerr := s.Questions.FindQuestionByID(answer.QuestionID); qerr == nil {
		s.Cache.Invalidate(question.ExamID)
	}
	s.Hub.Publish(EventAnswerDisputed, answer)

	logger.Log.Info("dispute filed",
		zap.Uint("answerId", answer.ID),
		zap.Uint("requesterId", requesterID))
	return answer, nil
}
