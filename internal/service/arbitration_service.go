package service

import (
	"strings"
	"time"

	"grading_center_backend/internal/model"
	"grading_center_backend/internal/util"
	"grading_center_backend/pkg/keylock"
	"grading_center_backend/pkg/logger"
	"grading_center_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// CaseStore 仲裁单持久化操作
type CaseStore interface {
	Create(c *model.Arbitration) error
	FindByID(id uint) (*model.Arbitration, error)
	FindOpenByAnswer(answerID uint) (*model.Arbitration, error)
	Update(c *model.Arbitration) error
	ListByStatus(status model.ArbitrationStatus, page, size int) ([]model.Arbitration, int64, error)
	CountOpen() (int64, error)
}

// ArbitrationService 把争议答案和唯一一张未关闭的仲裁单桥接起来。
// 升级与裁决都按答案 id 串行化，与评分提交共用同一把键锁
type ArbitrationService struct {
	Cases     CaseStore
	Answers   AnswerStore
	Questions QuestionStore
	Locks     *keylock.KeyLock
	Hub       *NotifyHub
}

func NewArbitrationService(cases CaseStore, answers AnswerStore, questions QuestionStore, locks *keylock.KeyLock) *ArbitrationService {
	return &ArbitrationService{
		Cases:     cases,
		Answers:   answers,
		Questions: questions,
		Locks:     locks,
	}
}

// SyncOpenGauge 用存量未关闭仲裁单数量校准监控指标，重启后调用一次
func (s *ArbitrationService) SyncOpenGauge() {
	n, err := s.Cases.CountOpen()
	if err != nil {
		logger.Log.Warn("count open arbitrations failed", zap.Error(err))
		return
	}
	monitoring.OpenArbitrations.Set(float64(n))
}

// Escalate 把争议答案升级为仲裁单。答案必须处于 disputed 状态，
// 且当前没有未关闭的仲裁单
func (s *ArbitrationService) Escalate(answerID, requesterID uint, reason string) (*model.Arbitration, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, util.ErrEmptyDisputeReason
	}

	s.Locks.Lock(answerID)
	defer s.Locks.Unlock(answerID)

	answer, err := s.Answers.FindByID(answerID)
	if err != nil {
		return nil, err
	}
	return s.escalateLocked(answer, requesterID, reason)
}

// escalateLocked 调用方必须已持有该答案的键锁
func (s *ArbitrationService) escalateLocked(answer *model.SubjectiveAnswer, requesterID uint, reason string) (*model.Arbitration, error) {
	if answer.Status != model.AnswerDisputed {
		return nil, util.ErrInvalidStateTransition
	}

	open, err := s.Cases.FindOpenByAnswer(answer.ID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, util.ErrOpenCaseExists
	}

	arb := &model.Arbitration{
		AnswerID:    answer.ID,
		RequesterID: requesterID,
		Reason:      reason,
		Status:      model.ArbitrationPending,
		// 快照升级时刻的争议均分
		OriginalScore: answer.AverageScore,
	}
	if err := s.Cases.Create(arb); err != nil {
		return nil, err
	}

	caseID := arb.ID
	answer.ArbitrationID = &caseID
	if err := s.Answers.UpdateGuarded(answer); err != nil {
		return nil, err
	}

	monitoring.ArbitrationCounter.WithLabelValues("opened").Inc()
	monitoring.OpenArbitrations.Inc()
	s.Hub.Publish(EventCaseOpened, arb)

	logger.Log.Info("arbitration escalated",
		zap.Uint("answerId", answer.ID),
		zap.Uint("caseId", arb.ID),
		zap.Float64("originalScore", arb.OriginalScore))
	return arb, nil
}

// Claim 仲裁人认领待处理的仲裁单，pending → reviewing。
// 与升级/裁决一样按答案 id 串行化，并发认领只有一人成功
func (s *ArbitrationService) Claim(caseID, arbitratorID uint) (*model.Arbitration, error) {
	arb, err := s.Cases.FindByID(caseID)
	if err != nil {
		return nil, err
	}

	s.Locks.Lock(arb.AnswerID)
	defer s.Locks.Unlock(arb.AnswerID)

	// 锁内重读，拿锁前别人可能已经认领
	arb, err = s.Cases.FindByID(caseID)
	if err != nil {
		return nil, err
	}
	if arb.Status != model.ArbitrationPending {
		return nil, util.ErrInvalidStateTransition
	}

	aid := arbitratorID
	arb.ArbitratorID = &aid
	arb.Status = model.ArbitrationReviewing
	if err := s.Cases.Update(arb); err != nil {
		return nil, err
	}
	return arb, nil
}

// Resolve 仲裁人裁决。approve 时调整分写回答案作为最终分；
// 否则维持原均分。两种结局都关闭仲裁单并把答案置为 arbitrated。
// 已关闭的仲裁单不允许再次裁决
func (s *ArbitrationService) Resolve(caseID, arbitratorID uint, approve bool, adjustedScore float64, resolution string) (*model.Arbitration, error) {
	arb, err := s.Cases.FindByID(caseID)
	if err != nil {
		return nil, err
	}
	if arb.Status.Terminal() {
		return nil, util.ErrInvalidStateTransition
	}

	s.Locks.Lock(arb.AnswerID)
	defer s.Locks.Unlock(arb.AnswerID)

	answer, err := s.Answers.FindByID(arb.AnswerID)
	if err != nil {
		return nil, err
	}
	if !answer.Status.CanTransition(model.AnswerArbitrated) {
		return nil, util.ErrInvalidStateTransition
	}

	final := arb.OriginalScore
	if approve {
		question, err := s.Questions.FindQuestionByID(answer.QuestionID)
		if err != nil {
			return nil, err
		}
		if adjustedScore < 0 || adjustedScore > question.MaxScore {
			return nil, util.ErrScoreOutOfRange
		}
		final = adjustedScore
	}

	now := time.Now()
	aid := arbitratorID
	arb.ArbitratorID = &aid
	arb.Resolution = resolution
	arb.ResolvedAt = &now
	if approve {
		adj := adjustedScore
		arb.Status = model.ArbitrationApproved
		arb.AdjustedScore = &adj
	} else {
		arb.Status = model.ArbitrationRejected
	}
	if err := s.Cases.Update(arb); err != nil {
		return nil, err
	}

	answer.Status = model.AnswerArbitrated
	answer.FinalScore = &final
	answer.NeedArbitration = false
	if err := s.Answers.UpdateGuarded(answer); err != nil {
		return nil, err
	}

	monitoring.ArbitrationCounter.WithLabelValues(string(arb.Status)).Inc()
	monitoring.OpenArbitrations.Dec()
	s.Hub.Publish(EventCaseResolved, arb)

	logger.Log.Info("arbitration resolved",
		zap.Uint("caseId", arb.ID),
		zap.Uint("answerId", arb.AnswerID),
		zap.String("status", string(arb.Status)),
		zap.Float64("finalScore", final))
	return arb, nil
}

func (s *ArbitrationService) Get(caseID uint) (*model.Arbitration, error) {
	return s.Cases.FindByID(caseID)
}

func (s *ArbitrationService) List(status model.ArbitrationStatus, page, size int) ([]model.Arbitration, int64, error) {
	return s.Cases.ListByStatus(status, page, size)
}
