package service

import (
	"math"
	"testing"

	"grading_center_backend/internal/config"
	"grading_center_backend/internal/model"

	"github.com/google/go-cmp/cmp"
)

var approxFloat = cmp.Comparer(func(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
})

func TestAggregate(t *testing.T) {
	tests := []struct {
		name      string
		scores    []float64
		threshold float64
		want      AggregateResult
	}{
		{
			name:      "close scores below threshold",
			scores:    []float64{8, 8, 9},
			threshold: 2.5,
			want:      AggregateResult{Mean: 25.0 / 3, Variance: 0.222222, NeedArbitration: false},
		},
		{
			name:      "divergent scores trigger arbitration",
			scores:    []float64{2, 8, 9},
			threshold: 2.5,
			want:      AggregateResult{Mean: 19.0 / 3, Variance: 9.555556, NeedArbitration: true},
		},
		{
			name:      "empty input",
			scores:    nil,
			threshold: 2.5,
			want:      AggregateResult{},
		},
		{
			name:      "single score has zero variance",
			scores:    []float64{7.5},
			threshold: 0,
			want:      AggregateResult{Mean: 7.5, Variance: 0, NeedArbitration: false},
		},
		{
			name:      "variance equal to threshold does not arbitrate",
			scores:    []float64{4, 8},
			threshold: 4,
			want:      AggregateResult{Mean: 6, Variance: 4, NeedArbitration: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.scores, tt.threshold)
			if diff := cmp.Diff(tt.want, got, approxFloat); diff != "" {
				t.Errorf("Aggregate() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAggregate_MeanWithinBounds(t *testing.T) {
	scores := []float64{3.5, 9, 0, 10, 6.25}
	got := Aggregate(scores, 2.5)

	lo, hi := scores[0], scores[0]
	for _, s := range scores {
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}
	if got.Mean < lo || got.Mean > hi {
		t.Errorf("mean %.4f outside [%.2f, %.2f]", got.Mean, lo, hi)
	}
	if got.Variance < 0 {
		t.Errorf("variance %.4f is negative", got.Variance)
	}
}

func TestGradingPolicy(t *testing.T) {
	p := NewGradingPolicy(&config.GradingConfig{VarianceThreshold: 2.5, RequiredMarkerCount: 3})

	if got := p.VarianceThreshold(); got != 2.5 {
		t.Errorf("VarianceThreshold() = %v, want 2.5", got)
	}
	if got := p.RequiredMarkerCount(&model.ExamQuestion{}); got != 3 {
		t.Errorf("RequiredMarkerCount() = %d, want global 3", got)
	}

	// 题目级覆盖
	q := &model.ExamQuestion{RequiredMarkerCount: 5}
	if got := p.RequiredMarkerCount(q); got != 5 {
		t.Errorf("RequiredMarkerCount(override 5) = %d, want 5", got)
	}

	// 下限 2，单人评分不可能触发方差仲裁
	p.Update(&config.GradingConfig{VarianceThreshold: 2.5, RequiredMarkerCount: 1})
	if got := p.RequiredMarkerCount(&model.ExamQuestion{}); got != 2 {
		t.Errorf("RequiredMarkerCount(global 1) = %d, want floor 2", got)
	}
	if got := p.RequiredMarkerCount(&model.ExamQuestion{RequiredMarkerCount: 1}); got != 2 {
		t.Errorf("RequiredMarkerCount(override 1) = %d, want floor 2", got)
	}

	// 热更新对后续读取立刻生效
	p.Update(&config.GradingConfig{VarianceThreshold: 6.0, RequiredMarkerCount: 4})
	if got := p.VarianceThreshold(); got != 6.0 {
		t.Errorf("VarianceThreshold() after update = %v, want 6.0", got)
	}
	if got := p.RequiredMarkerCount(nil); got != 4 {
		t.Errorf("RequiredMarkerCount(nil) after update = %d, want 4", got)
	}
}
