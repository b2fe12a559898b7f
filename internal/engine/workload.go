package engine

import "math"

// TargetAverage 目标平均负载 = 总需求 / 助教数，无助教时为 0
func TargetAverage(totalRequired, workerCount int) float64 {
	if workerCount <= 0 {
		return 0
	}
	return float64(totalRequired) / float64(workerCount)
}

// WorkloadScore 当前负载与目标平均值的接近程度：max(0, 1 - |load - target| / unit)。
// unit 为引擎统一的单位上限而非个人容量，unit <= 0 时返回 0。
func WorkloadScore(load int, target float64, unit int) float64 {
	if unit <= 0 {
		return 0
	}
	return math.Max(0, 1-math.Abs(float64(load)-target)/float64(unit))
}
