package service

import (
	"errors"
	"sync"
	"testing"

	"grading_center_backend/internal/config"
	"grading_center_backend/internal/model"
	"grading_center_backend/internal/util"
	"grading_center_backend/pkg/keylock"

	"github.com/google/go-cmp/cmp"
)

// memAnswers 内存版 AnswerStore，带与仓储层一致的乐观锁语义
type memAnswers struct {
	mu       sync.Mutex
	answers  map[uint]*model.SubjectiveAnswer
	applyErr error // 强制 ApplyMarking 返回的错误
}

func newMemAnswers(list ...*model.SubjectiveAnswer) *memAnswers {
	m := &memAnswers{answers: make(map[uint]*model.SubjectiveAnswer)}
	for _, a := range list {
		m.answers[a.ID] = cloneAnswer(a)
	}
	return m
}

func cloneAnswer(a *model.SubjectiveAnswer) *model.SubjectiveAnswer {
	cp := *a
	cp.MarkerScores = append([]model.MarkerScore(nil), a.MarkerScores...)
	if a.FinalScore != nil {
		v := *a.FinalScore
		cp.FinalScore = &v
	}
	if a.MarkerID != nil {
		v := *a.MarkerID
		cp.MarkerID = &v
	}
	if a.ArbitrationID != nil {
		v := *a.ArbitrationID
		cp.ArbitrationID = &v
	}
	return &cp
}

func (m *memAnswers) FindByID(id uint) (*model.SubjectiveAnswer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.answers[id]
	if !ok {
		return nil, util.ErrAnswerNotFound
	}
	return cloneAnswer(a), nil
}

func (m *memAnswers) ApplyMarking(answer *model.SubjectiveAnswer, score *model.MarkerScore) error {
	if m.applyErr != nil {
		return m.applyErr
	}
	return m.store(answer)
}

func (m *memAnswers) UpdateGuarded(answer *model.SubjectiveAnswer) error {
	return m.store(answer)
}

func (m *memAnswers) store(answer *model.SubjectiveAnswer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.answers[answer.ID]
	if !ok {
		return util.ErrAnswerNotFound
	}
	if cur.LockVersion != answer.LockVersion {
		return util.ErrConflict
	}
	answer.LockVersion++
	m.answers[answer.ID] = cloneAnswer(answer)
	return nil
}

// get 返回存储中的当前版本，用于断言
func (m *memAnswers) get(t *testing.T, id uint) *model.SubjectiveAnswer {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.answers[id]
	if !ok {
		t.Fatalf("answer %d not in store", id)
	}
	return cloneAnswer(a)
}

type memQuestions struct {
	questions map[uint]*model.ExamQuestion
}

func (m *memQuestions) FindQuestionByID(id uint) (*model.ExamQuestion, error) {
	q, ok := m.questions[id]
	if !ok {
		return nil, util.ErrQuestionNotFound
	}
	return q, nil
}

type memCases struct {
	mu     sync.Mutex
	nextID uint
	cases  map[uint]*model.Arbitration
}

func newMemCases() *memCases {
	return &memCases{cases: make(map[uint]*model.Arbitration)}
}

func (m *memCases) Create(c *model.Arbitration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c.ID = m.nextID
	cp := *c
	m.cases[c.ID] = &cp
	return nil
}

func (m *memCases) FindByID(id uint) (*model.Arbitration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cases[id]
	if !ok {
		return nil, util.ErrCaseNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCases) FindOpenByAnswer(answerID uint) (*model.Arbitration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cases {
		if c.AnswerID == answerID && !c.Status.Terminal() {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memCases) Update(c *model.Arbitration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cases[c.ID]; !ok {
		return util.ErrCaseNotFound
	}
	cp := *c
	m.cases[c.ID] = &cp
	return nil
}

func (m *memCases) ListByStatus(status model.ArbitrationStatus, page, size int) ([]model.Arbitration, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Arbitration
	for _, c := range m.cases {
		if status == "" || c.Status == status {
			out = append(out, *c)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memCases) CountOpen() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, c := range m.cases {
		if !c.Status.Terminal() {
			n++
		}
	}
	return n, nil
}

type gradingFixture struct {
	svc       *GradingService
	arb       *ArbitrationService
	answers   *memAnswers
	questions *memQuestions
	cases     *memCases
}

// newGradingFixture 组装评分+仲裁服务，题目 1 满分 10 分，
// 全局要求 3 位评阅人，方差阈值 2.5
func newGradingFixture(t *testing.T, answers ...*model.SubjectiveAnswer) *gradingFixture {
	t.Helper()

	store := newMemAnswers(answers...)
	questions := &memQuestions{questions: map[uint]*model.ExamQuestion{
		1: {BaseModel: model.BaseModel{ID: 1}, ExamID: 1, Content: "简述平衡二叉树的旋转操作", MaxScore: 10},
	}}
	cases := newMemCases()
	locks := keylock.New()
	policy := NewGradingPolicy(&config.GradingConfig{VarianceThreshold: 2.5, RequiredMarkerCount: 3})

	arb := NewArbitrationService(cases, store, questions, locks)
	svc := NewGradingService(store, questions, policy, locks)
	svc.Arbitration = arb

	return &gradingFixture{svc: svc, arb: arb, answers: store, questions: questions, cases: cases}
}

func pendingAnswer(id uint) *model.SubjectiveAnswer {
	return &model.SubjectiveAnswer{
		BaseModel:  model.BaseModel{ID: id},
		QuestionID: 1,
		Status:     model.AnswerPending,
	}
}

func TestSubmitScore_FirstScore(t *testing.T) {
	f := newGradingFixture(t, pendingAnswer(1))

	got, err := f.svc.SubmitScore(1, 101, 8, "结构清晰")
	if err != nil {
		t.Fatalf("SubmitScore: %v", err)
	}

	if got.Status != model.AnswerMarking {
		t.Errorf("status = %s, want marking", got.Status)
	}
	if got.MarkerCount != 1 || got.AverageScore != 8 || got.ScoreVariance != 0 {
		t.Errorf("stats = (%d, %.2f, %.2f), want (1, 8.00, 0.00)",
			got.MarkerCount, got.AverageScore, got.ScoreVariance)
	}
	if got.FinalScore != nil {
		t.Errorf("finalScore = %v, want nil before consensus", *got.FinalScore)
	}
}

func TestSubmitScore_SameMarkerOverwrites(t *testing.T) {
	f := newGradingFixture(t, pendingAnswer(1))

	if _, err := f.svc.SubmitScore(1, 101, 8, ""); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	got, err := f.svc.SubmitScore(1, 101, 9, "重新评定")
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}

	if got.MarkerCount != 1 {
		t.Errorf("markerCount = %d, want 1 after overwrite", got.MarkerCount)
	}
	if got.AverageScore != 9 {
		t.Errorf("averageScore = %.2f, want 9", got.AverageScore)
	}
	if len(got.MarkerScores) != 1 || got.MarkerScores[0].Score != 9 {
		t.Errorf("markerScores = %+v, want single row with score 9", got.MarkerScores)
	}
}

func TestSubmitScore_ConsensusFinalizes(t *testing.T) {
	f := newGradingFixture(t, pendingAnswer(1))

	for _, sub := range []struct {
		marker uint
		score  float64
	}{{101, 8}, {102, 8}} {
		if _, err := f.svc.SubmitScore(1, sub.marker, sub.score, ""); err != nil {
			t.Fatalf("submit marker %d: %v", sub.marker, err)
		}
	}
	got, err := f.svc.SubmitScore(1, 103, 9, "最后一位")
	if err != nil {
		t.Fatalf("final submit: %v", err)
	}

	if got.Status != model.AnswerMarked {
		t.Fatalf("status = %s, want marked", got.Status)
	}
	want := AggregateResult{Mean: 25.0 / 3, Variance: 0.222222, NeedArbitration: false}
	gotAgg := AggregateResult{Mean: got.AverageScore, Variance: got.ScoreVariance, NeedArbitration: got.NeedArbitration}
	if diff := cmp.Diff(want, gotAgg, approxFloat); diff != "" {
		t.Errorf("aggregate mismatch (-want +got):\n%s", diff)
	}
	if got.FinalScore == nil {
		t.Fatal("finalScore = nil, want mean")
	}
	if diff := cmp.Diff(25.0/3, *got.FinalScore, approxFloat); diff != "" {
		t.Errorf("finalScore mismatch (-want +got):\n%s", diff)
	}
	if got.MarkerID == nil || *got.MarkerID != 103 {
		t.Errorf("markerID = %v, want last marker 103", got.MarkerID)
	}
	if got.Comments != "最后一位" {
		t.Errorf("comments = %q, want last marker's comments", got.Comments)
	}
}

func TestSubmitScore_HighVarianceDisputes(t *testing.T) {
	f := newGradingFixture(t, pendingAnswer(1))

	for _, sub := range []struct {
		marker uint
		score  float64
	}{{101, 2}, {102, 8}} {
		if _, err := f.svc.SubmitScore(1, sub.marker, sub.score, ""); err != nil {
			t.Fatalf("submit marker %d: %v", sub.marker, err)
		}
	}
	got, err := f.svc.SubmitScore(1, 103, 9, "")
	if err != nil {
		t.Fatalf("final submit: %v", err)
	}

	if got.Status != model.AnswerDisputed {
		t.Fatalf("status = %s, want disputed", got.Status)
	}
	if !got.NeedArbitration {
		t.Error("needArbitration = false, want true")
	}
	if got.FinalScore != nil {
		t.Errorf("finalScore = %v, want nil in disputed state", *got.FinalScore)
	}

	// 自动升级出仲裁单，快照当时的均分
	stored := f.answers.get(t, 1)
	if stored.ArbitrationID == nil {
		t.Fatal("answer not linked to an arbitration case")
	}
	arb, err := f.cases.FindByID(*stored.ArbitrationID)
	if err != nil {
		t.Fatalf("find case: %v", err)
	}
	if arb.Status != model.ArbitrationPending {
		t.Errorf("case status = %s, want pending", arb.Status)
	}
	if diff := cmp.Diff(19.0/3, arb.OriginalScore, approxFloat); diff != "" {
		t.Errorf("originalScore mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitScore_OutOfRange(t *testing.T) {
	f := newGradingFixture(t, pendingAnswer(1))

	for _, score := range []float64{-1, 10.5} {
		if _, err := f.svc.SubmitScore(1, 101, score, ""); !errors.Is(err, util.ErrScoreOutOfRange) {
			t.Errorf("SubmitScore(%v) err = %v, want ErrScoreOutOfRange", score, err)
		}
	}

	// 校验失败时记录不发生任何变更
	stored := f.answers.get(t, 1)
	if stored.Status != model.AnswerPending || stored.MarkerCount != 0 || stored.LockVersion != 0 {
		t.Errorf("answer mutated by rejected score: %+v", stored)
	}
}

func TestSubmitScore_AnswerNotFound(t *testing.T) {
	f := newGradingFixture(t)

	if _, err := f.svc.SubmitScore(42, 101, 8, ""); !errors.Is(err, util.ErrAnswerNotFound) {
		t.Errorf("err = %v, want ErrAnswerNotFound", err)
	}
}

func TestSubmitScore_ArbitratedIsImmutable(t *testing.T) {
	final := 7.0
	answer := pendingAnswer(1)
	answer.Status = model.AnswerArbitrated
	answer.FinalScore = &final
	answer.MarkerCount = 3
	answer.MarkerScores = []model.MarkerScore{
		{AnswerID: 1, MarkerID: 101, Score: 2},
		{AnswerID: 1, MarkerID: 102, Score: 8},
		{AnswerID: 1, MarkerID: 103, Score: 9},
	}
	f := newGradingFixture(t, answer)

	got, err := f.svc.SubmitScore(1, 104, 8, "")
	if err != nil {
		t.Fatalf("SubmitScore: %v", err)
	}

	// 统计可以刷新，状态与最终分不会被普通评分拉回
	if got.Status != model.AnswerArbitrated {
		t.Errorf("status = %s, want arbitrated retained", got.Status)
	}
	if got.FinalScore == nil || *got.FinalScore != 7.0 {
		t.Errorf("finalScore = %v, want 7 retained", got.FinalScore)
	}
}

func TestSubmitScore_PerQuestionMarkerCount(t *testing.T) {
	f := newGradingFixture(t, pendingAnswer(1))
	f.questions.questions[1].RequiredMarkerCount = 2

	if _, err := f.svc.SubmitScore(1, 101, 8, ""); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	got, err := f.svc.SubmitScore(1, 102, 9, "")
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}

	if got.Status != model.AnswerMarked {
		t.Errorf("status = %s, want marked with per-question count 2", got.Status)
	}
}

func TestSubmitScore_ConflictPropagates(t *testing.T) {
	f := newGradingFixture(t, pendingAnswer(1))
	f.answers.applyErr = util.ErrConflict

	if _, err := f.svc.SubmitScore(1, 101, 8, ""); !errors.Is(err, util.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestSubmitScore_ConcurrentSameAnswer(t *testing.T) {
	f := newGradingFixture(t, pendingAnswer(1))

	markers := []uint{101, 102, 103}
	var wg sync.WaitGroup
	errs := make([]error, len(markers))
	for i, marker := range markers {
		wg.Add(1)
		go func(i int, marker uint) {
			defer wg.Done()
			_, errs[i] = f.svc.SubmitScore(1, marker, 8, "")
		}(i, marker)
	}
	wg.Wait()

	// 键锁串行化同一答案的提交，三个都应成功
	for i, err := range errs {
		if err != nil {
			t.Errorf("marker %d: %v", markers[i], err)
		}
	}

	stored := f.answers.get(t, 1)
	if stored.MarkerCount != 3 {
		t.Errorf("markerCount = %d, want 3", stored.MarkerCount)
	}
	if stored.Status != model.AnswerMarked {
		t.Errorf("status = %s, want marked", stored.Status)
	}
}

func TestFileDispute(t *testing.T) {
	final := 8.5
	answer := pendingAnswer(1)
	answer.Status = model.AnswerMarked
	answer.FinalScore = &final
	f := newGradingFixture(t, answer)

	got, err := f.svc.FileDispute(1, 201, "评分与自评差距过大")
	if err != nil {
		t.Fatalf("FileDispute: %v", err)
	}

	if got.Status != model.AnswerDisputed {
		t.Errorf("status = %s, want disputed", got.Status)
	}
	if got.FinalScore != nil {
		t.Errorf("finalScore = %v, want cleared", *got.FinalScore)
	}
	if got.DisputeReason != "评分与自评差距过大" || got.DisputedAt == nil {
		t.Errorf("dispute fields not recorded: reason=%q disputedAt=%v", got.DisputeReason, got.DisputedAt)
	}
}

func TestFileDispute_InvalidState(t *testing.T) {
	f := newGradingFixture(t, pendingAnswer(1))

	if _, err := f.svc.FileDispute(1, 201, "还没评分就不服"); !errors.Is(err, util.ErrInvalidStateTransition) {
		t.Errorf("err = %v, want ErrInvalidStateTransition", err)
	}
}

func TestFileDispute_EmptyReason(t *testing.T) {
	f := newGradingFixture(t, pendingAnswer(1))

	if _, err := f.svc.FileDispute(1, 201, "   "); !errors.Is(err, util.ErrEmptyDisputeReason) {
		t.Errorf("err = %v, want ErrEmptyDisputeReason", err)
	}
}
