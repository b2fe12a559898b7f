package engine

// Run 校验输入、构建分数表与候选集并执行两轮调度，返回以 ID 为键的计划。
// 需求超过总容量时返回部分填充的计划，缺口保留在 Plan.Remaining 中，不视为错误。
func Run(in Input, opts Options) (*Plan, error) {
	idx, err := buildIndex(&in, opts)
	if err != nil {
		return nil, err
	}
	table, err := buildScoreTable(idx)
	if err != nil {
		return nil, err
	}
	cands := reduceCandidates(idx, table)
	return newScheduler(idx, table, cands).schedule(), nil
}

// Assign Run + Format
func Assign(in Input, opts Options) (*Result, *Plan, error) {
	plan, err := Run(in, opts)
	if err != nil {
		return nil, nil, err
	}
	return Format(in, plan), plan, nil
}
