package service

import (
	"math"
	"sync/atomic"

	"grading_center_backend/internal/config"
	"grading_center_backend/internal/model"
)

// GradingPolicy 阅卷策略参数。配置热更新走 Update，
// 评分提交路径通过原子读取，重载不会撕裂正在进行的计算
type GradingPolicy struct {
	thresholdBits atomic.Uint64
	required      atomic.Int64
}

func NewGradingPolicy(cfg *config.GradingConfig) *GradingPolicy {
	p := &GradingPolicy{}
	p.Update(cfg)
	return p
}

func (p *GradingPolicy) Update(cfg *config.GradingConfig) {
	p.thresholdBits.Store(math.Float64bits(cfg.VarianceThreshold))
	p.required.Store(int64(cfg.RequiredMarkerCount))
}

func (p *GradingPolicy) VarianceThreshold() float64 {
	return math.Float64frombits(p.thresholdBits.Load())
}

// RequiredMarkerCount 题目级覆盖优先于全局配置，任何情况下不低于 2
func (p *GradingPolicy) RequiredMarkerCount(q *model.ExamQuestion) int {
	n := int(p.required.Load())
	if q != nil && q.RequiredMarkerCount > 0 {
		n = q.RequiredMarkerCount
	}
	if n < 2 {
		n = 2
	}
	return n
}
