package service

// AggregateResult 一组评阅人评分的汇总统计
type AggregateResult struct {
	Mean            float64 `json:"mean"`
	Variance        float64 `json:"variance"`
	NeedArbitration bool    `json:"needArbitration"`
}

// Aggregate 计算当前全部评分的算术均值与总体方差（除以 N 而非 N-1：
// 评阅人只有 2~5 个，样本方差噪声太大，总体方差配固定阈值更稳）。
// 方差超过阈值时置 NeedArbitration。纯函数，可重复调用。
func Aggregate(scores []float64, varianceThreshold float64) AggregateResult {
	n := len(scores)
	if n == 0 {
		return AggregateResult{}
	}

	var sum float64
	for _, s := range scores {
		sum += s
	}
	mean := sum / float64(n)

	var variance float64
	if n > 1 {
		var sq float64
		for _, s := range scores {
			d := s - mean
			sq += d * d
		}
		variance = sq / float64(n)
	}

	return AggregateResult{
		Mean:            mean,
		Variance:        variance,
		NeedArbitration: variance > varianceThreshold,
	}
}
