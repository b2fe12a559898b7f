package engine

import (
	"fmt"
	"math"
	"strings"
)

// ════════════════════════════════════════════════════════════
// 静态打分模型
// ════════════════════════════════════════════════════════════

// Valid 是否为四个合法等级之一
func (l Interest) Valid() bool {
	switch l {
	case InterestNone, InterestLow, InterestMedium, InterestHigh:
		return true
	}
	return false
}

// ParseInterest 解析兴趣等级（忽略大小写与首尾空白），空串视为 None
func ParseInterest(s string) (Interest, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return InterestNone, nil
	case "low":
		return InterestLow, nil
	case "medium":
		return InterestMedium, nil
	case "high":
		return InterestHigh, nil
	}
	return "", fmt.Errorf("%w: 兴趣等级 %q 不在 None/Low/Medium/High 之中", ErrInvalidInput, s)
}

// RankToScore 排名转分数：(L - clamp(rank, 0, L)) / L，L <= 0 时为 0
func RankToScore(rank, listLength int) float64 {
	if listLength <= 0 {
		return 0
	}
	if rank < 0 {
		rank = 0
	}
	if rank > listLength {
		rank = listLength
	}
	return float64(listLength-rank) / float64(listLength)
}

// InterestToScore 兴趣等级转分数
func InterestToScore(level Interest) float64 {
	switch level {
	case InterestHigh:
		return 1.0
	case InterestMedium:
		return 0.6
	case InterestLow:
		return 0.2
	}
	return 0
}

// SkillMatchScore 课程所需技能中助教具备的比例；课程无技能要求时为 1
func SkillMatchScore(have map[string]struct{}, required []string) float64 {
	need := make(map[string]struct{}, len(required))
	for _, sk := range required {
		need[sk] = struct{}{}
	}
	if len(need) == 0 {
		return 1.0
	}
	hit := 0
	for sk := range need {
		if _, ok := have[sk]; ok {
			hit++
		}
	}
	return float64(hit) / float64(len(need))
}

// CoursePrefScore 课程偏好分 = 0.6·兴趣 + 0.4·技能匹配
func CoursePrefScore(level Interest, skillMatch float64) float64 {
	return 0.6*InterestToScore(level) + 0.4*skillMatch
}

// baseScore 计算 (助教 i, 课程 j) 的静态基础分，不含工作量项
func (idx *index) baseScore(i, j int) float64 {
	w := &idx.in.Workers[i]
	t := &idx.in.Tasks[j]
	weights := idx.opts.Weights

	level, ok := w.Interests[t.ID]
	if !ok {
		level = InterestNone
	}
	coursePref := CoursePrefScore(level, SkillMatchScore(idx.workerSkills[i], t.RequiredSkills))

	var taAvg, profAvg float64
	if sups := idx.taskSups[j]; len(sups) > 0 {
		var taSum, profSum float64
		for _, p := range sups {
			sup := &idx.in.Supervisors[p]

			rank, found := idx.workerRank[i][sup.ID]
			if !found {
				rank = len(w.PreferredSupervisors)
			}
			taSum += RankToScore(rank, len(w.PreferredSupervisors))

			rank, found = idx.supRank[p][w.ID]
			if !found {
				rank = len(sup.PreferredWorkers)
			}
			profSum += RankToScore(rank, len(sup.PreferredWorkers))
		}
		taAvg = taSum / float64(len(sups))
		profAvg = profSum / float64(len(sups))
	}

	return weights.CoursePref*coursePref + weights.TAPref*taAvg + weights.ProfPref*profAvg
}

// ScoreTable 单次运行的静态分数矩阵，构建后只读
type ScoreTable struct {
	scores [][]float64 // [课程][助教]
}

// Base 返回下标 (课程 j, 助教 i) 的基础分
func (t *ScoreTable) Base(j, i int) float64 {
	return t.scores[j][i]
}

// buildScoreTable 对所有课程 × 助教计算一次基础分
func buildScoreTable(idx *index) (*ScoreTable, error) {
	table := &ScoreTable{scores: make([][]float64, len(idx.in.Tasks))}
	for j := range idx.in.Tasks {
		row := make([]float64, len(idx.in.Workers))
		for i := range idx.in.Workers {
			s := idx.baseScore(i, j)
			if math.IsNaN(s) || math.IsInf(s, 0) {
				return nil, invalidf("助教 %q 与课程 %q 的基础分不是有限数",
					idx.in.Workers[i].ID, idx.in.Tasks[j].ID)
			}
			row[i] = s
		}
		table.scores[j] = row
	}
	return table, nil
}

// BaseScores 计算整张基础分表，按 课程 ID → 助教 ID 返回，供诊断与展示
func BaseScores(in Input, opts Options) (map[string]map[string]float64, error) {
	idx, err := buildIndex(&in, opts)
	if err != nil {
		return nil, err
	}
	table, err := buildScoreTable(idx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]map[string]float64, len(in.Tasks))
	for j, t := range in.Tasks {
		row := make(map[string]float64, len(in.Workers))
		for i, w := range in.Workers {
			row[w.ID] = table.Base(j, i)
		}
		out[t.ID] = row
	}
	return out, nil
}
