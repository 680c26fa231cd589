package service

import (
	"errors"
	"sync"
	"testing"

	"grading_center_backend/internal/model"
	"grading_center_backend/internal/util"

	"github.com/google/go-cmp/cmp"
)

// disputedAnswer 三位评阅人意见分歧后进入争议状态的答案
func disputedAnswer(id uint) *model.SubjectiveAnswer {
	return &model.SubjectiveAnswer{
		BaseModel:  model.BaseModel{ID: id},
		QuestionID: 1,
		Status:     model.AnswerDisputed,
		MarkerScores: []model.MarkerScore{
			{AnswerID: id, MarkerID: 101, Score: 2},
			{AnswerID: id, MarkerID: 102, Score: 8},
			{AnswerID: id, MarkerID: 103, Score: 9},
		},
		MarkerCount:     3,
		AverageScore:    19.0 / 3,
		ScoreVariance:   9.56,
		NeedArbitration: true,
	}
}

func TestEscalate(t *testing.T) {
	f := newGradingFixture(t, disputedAnswer(1))

	arb, err := f.arb.Escalate(1, 201, "评分分歧过大")
	if err != nil {
		t.Fatalf("Escalate: %v", err)
	}

	if arb.Status != model.ArbitrationPending {
		t.Errorf("status = %s, want pending", arb.Status)
	}
	if arb.AnswerID != 1 || arb.RequesterID != 201 {
		t.Errorf("case = %+v, want answerId 1 requesterId 201", arb)
	}
	if diff := cmp.Diff(19.0/3, arb.OriginalScore, approxFloat); diff != "" {
		t.Errorf("originalScore mismatch (-want +got):\n%s", diff)
	}

	stored := f.answers.get(t, 1)
	if stored.ArbitrationID == nil || *stored.ArbitrationID != arb.ID {
		t.Errorf("answer.arbitrationId = %v, want %d", stored.ArbitrationID, arb.ID)
	}
}

func TestEscalate_RequiresDisputed(t *testing.T) {
	answer := pendingAnswer(1)
	answer.Status = model.AnswerMarked
	f := newGradingFixture(t, answer)

	if _, err := f.arb.Escalate(1, 201, "理由"); !errors.Is(err, util.ErrInvalidStateTransition) {
		t.Errorf("err = %v, want ErrInvalidStateTransition", err)
	}
}

func TestEscalate_OpenCaseUnique(t *testing.T) {
	f := newGradingFixture(t, disputedAnswer(1))

	if _, err := f.arb.Escalate(1, 201, "第一次"); err != nil {
		t.Fatalf("first escalate: %v", err)
	}
	if _, err := f.arb.Escalate(1, 202, "第二次"); !errors.Is(err, util.ErrOpenCaseExists) {
		t.Errorf("err = %v, want ErrOpenCaseExists", err)
	}
}

func TestEscalate_EmptyReason(t *testing.T) {
	f := newGradingFixture(t, disputedAnswer(1))

	if _, err := f.arb.Escalate(1, 201, ""); !errors.Is(err, util.ErrEmptyDisputeReason) {
		t.Errorf("err = %v, want ErrEmptyDisputeReason", err)
	}
}

func TestClaim(t *testing.T) {
	f := newGradingFixture(t, disputedAnswer(1))
	arb, err := f.arb.Escalate(1, 201, "评分分歧过大")
	if err != nil {
		t.Fatalf("escalate: %v", err)
	}

	claimed, err := f.arb.Claim(arb.ID, 301)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if claimed.Status != model.ArbitrationReviewing {
		t.Errorf("status = %s, want reviewing", claimed.Status)
	}
	if claimed.ArbitratorID == nil || *claimed.ArbitratorID != 301 {
		t.Errorf("arbitratorId = %v, want 301", claimed.ArbitratorID)
	}

	// 已被认领的仲裁单不能再次认领
	if _, err := f.arb.Claim(arb.ID, 302); !errors.Is(err, util.ErrInvalidStateTransition) {
		t.Errorf("second claim err = %v, want ErrInvalidStateTransition", err)
	}
}

// rendezvousCases 卡住最初两次 FindByID，直到两个调用方都读到了
// pending 状态的仲裁单才放行，复现并发认领的交错
type rendezvousCases struct {
	*memCases
	mu      sync.Mutex
	arrived int
	ready   chan struct{}
}

func (c *rendezvousCases) FindByID(id uint) (*model.Arbitration, error) {
	c.mu.Lock()
	c.arrived++
	if c.arrived == 2 {
		close(c.ready)
	}
	c.mu.Unlock()
	<-c.ready
	return c.memCases.FindByID(id)
}

func TestClaim_ConcurrentSingleWinner(t *testing.T) {
	f := newGradingFixture(t, disputedAnswer(1))
	arb, err := f.arb.Escalate(1, 201, "评分分歧过大")
	if err != nil {
		t.Fatalf("escalate: %v", err)
	}
	f.arb.Cases = &rendezvousCases{memCases: f.cases, ready: make(chan struct{})}

	arbitrators := []uint{301, 302}
	errs := make([]error, len(arbitrators))
	var wg sync.WaitGroup
	for i, aid := range arbitrators {
		wg.Add(1)
		go func(i int, aid uint) {
			defer wg.Done()
			_, errs[i] = f.arb.Claim(arb.ID, aid)
		}(i, aid)
	}
	wg.Wait()

	// 恰好一人认领成功，另一人拿到状态错误
	var won, lost int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, util.ErrInvalidStateTransition):
			lost++
		default:
			t.Errorf("unexpected claim error: %v", err)
		}
	}
	if won != 1 || lost != 1 {
		t.Fatalf("won=%d lost=%d, want exactly one winner", won, lost)
	}

	claimed, err := f.cases.FindByID(arb.ID)
	if err != nil {
		t.Fatalf("find case: %v", err)
	}
	if claimed.Status != model.ArbitrationReviewing || claimed.ArbitratorID == nil {
		t.Fatalf("case = %+v, want reviewing with arbitrator recorded", claimed)
	}
}

func TestResolve_Approved(t *testing.T) {
	f := newGradingFixture(t, disputedAnswer(1))
	arb, err := f.arb.Escalate(1, 201, "评分分歧过大")
	if err != nil {
		t.Fatalf("escalate: %v", err)
	}

	resolved, err := f.arb.Resolve(arb.ID, 301, true, 7, "以中间分为准")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if resolved.Status != model.ArbitrationApproved {
		t.Errorf("case status = %s, want approved", resolved.Status)
	}
	if resolved.AdjustedScore == nil || *resolved.AdjustedScore != 7 {
		t.Errorf("adjustedScore = %v, want 7", resolved.AdjustedScore)
	}
	if resolved.ResolvedAt == nil || resolved.Resolution != "以中间分为准" {
		t.Errorf("resolution fields not recorded: %+v", resolved)
	}

	answer := f.answers.get(t, 1)
	if answer.Status != model.AnswerArbitrated {
		t.Errorf("answer status = %s, want arbitrated", answer.Status)
	}
	if answer.FinalScore == nil || *answer.FinalScore != 7 {
		t.Errorf("finalScore = %v, want adjusted 7", answer.FinalScore)
	}
	if answer.NeedArbitration {
		t.Error("needArbitration still set after resolution")
	}
}

func TestResolve_RejectedKeepsOriginalScore(t *testing.T) {
	f := newGradingFixture(t, disputedAnswer(1))
	arb, err := f.arb.Escalate(1, 201, "评分分歧过大")
	if err != nil {
		t.Fatalf("escalate: %v", err)
	}

	resolved, err := f.arb.Resolve(arb.ID, 301, false, 0, "争议不成立")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if resolved.Status != model.ArbitrationRejected {
		t.Errorf("case status = %s, want rejected", resolved.Status)
	}
	if resolved.AdjustedScore != nil {
		t.Errorf("adjustedScore = %v, want nil on rejection", *resolved.AdjustedScore)
	}

	answer := f.answers.get(t, 1)
	if answer.Status != model.AnswerArbitrated {
		t.Errorf("answer status = %s, want arbitrated", answer.Status)
	}
	if answer.FinalScore == nil {
		t.Fatal("finalScore = nil, want original mean")
	}
	if diff := cmp.Diff(19.0/3, *answer.FinalScore, approxFloat); diff != "" {
		t.Errorf("finalScore mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_TerminalCase(t *testing.T) {
	f := newGradingFixture(t, disputedAnswer(1))
	arb, err := f.arb.Escalate(1, 201, "评分分歧过大")
	if err != nil {
		t.Fatalf("escalate: %v", err)
	}
	if _, err := f.arb.Resolve(arb.ID, 301, true, 7, "以中间分为准"); err != nil {
		t.Fatalf("first resolve: %v", err)
	}

	if _, err := f.arb.Resolve(arb.ID, 302, false, 0, "再裁一次"); !errors.Is(err, util.ErrInvalidStateTransition) {
		t.Errorf("err = %v, want ErrInvalidStateTransition on closed case", err)
	}
}

func TestResolve_AdjustedScoreOutOfRange(t *testing.T) {
	f := newGradingFixture(t, disputedAnswer(1))
	arb, err := f.arb.Escalate(1, 201, "评分分歧过大")
	if err != nil {
		t.Fatalf("escalate: %v", err)
	}

	if _, err := f.arb.Resolve(arb.ID, 301, true, 20, "超出满分"); !errors.Is(err, util.ErrScoreOutOfRange) {
		t.Errorf("err = %v, want ErrScoreOutOfRange", err)
	}

	// 裁决失败时答案保持争议状态
	answer := f.answers.get(t, 1)
	if answer.Status != model.AnswerDisputed {
		t.Errorf("answer status = %s, want disputed unchanged", answer.Status)
	}
}

func TestResolve_CaseNotFound(t *testing.T) {
	f := newGradingFixture(t)

	if _, err := f.arb.Resolve(99, 301, true, 7, "不存在"); !errors.Is(err, util.ErrCaseNotFound) {
		t.Errorf("err = %v, want ErrCaseNotFound", err)
	}
}
