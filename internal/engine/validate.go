package engine

import (
	"math"
	"sort"
)

// index 单次运行内的只读索引，内部一律按下标访问，显示名只在格式化阶段使用
type index struct {
	in   *Input
	opts Options

	workerPos map[string]int
	taskPos   map[string]int
	supPos    map[string]int

	workerSkills []map[string]struct{}
	workerRank   []map[string]int // 助教对教授的排名
	supRank      []map[string]int // 教授对助教的排名
	capacity     []int            // 截断后的有效容量
	taskSups     [][]int

	// 平局裁决用的字典序位次
	workerOrder []int
	taskOrder   []int
}

func checkWeight(name string, w float64) error {
	if math.IsNaN(w) || math.IsInf(w, 0) {
		return invalidf("权重 %s 不是有限数", name)
	}
	if w < 0 {
		return invalidf("权重 %s 不能为负: %v", name, w)
	}
	return nil
}

func validateOptions(opts Options) error {
	w := opts.Weights
	for _, c := range []struct {
		name string
		v    float64
	}{
		{"course_pref", w.CoursePref},
		{"ta_pref", w.TAPref},
		{"prof_pref", w.ProfPref},
		{"workload_balance", w.WorkloadBalance},
	} {
		if err := checkWeight(c.name, c.v); err != nil {
			return err
		}
	}
	if opts.MaxSameSupervisor < 0 {
		return invalidf("max_same_supervisor 不能为负: %d", opts.MaxSameSupervisor)
	}
	return nil
}

// rankMap 把有序偏好列表转为 ID → 排名，重复项视为非法
func rankMap(owner string, list []string) (map[string]int, error) {
	m := make(map[string]int, len(list))
	for i, id := range list {
		if _, dup := m[id]; dup {
			return nil, invalidf("%s 的偏好列表中重复出现 %q", owner, id)
		}
		m[id] = i
	}
	return m, nil
}

// buildIndex 校验输入并建立索引，任何前置条件不满足都立即返回 ErrInvalidInput
func buildIndex(in *Input, opts Options) (*index, error) {
	if err := validateOptions(opts); err != nil {
		return nil, err
	}

	idx := &index{
		in:           in,
		opts:         opts,
		workerPos:    make(map[string]int, len(in.Workers)),
		taskPos:      make(map[string]int, len(in.Tasks)),
		supPos:       make(map[string]int, len(in.Supervisors)),
		workerSkills: make([]map[string]struct{}, len(in.Workers)),
		workerRank:   make([]map[string]int, len(in.Workers)),
		supRank:      make([]map[string]int, len(in.Supervisors)),
		capacity:     make([]int, len(in.Workers)),
		taskSups:     make([][]int, len(in.Tasks)),
	}

	for i, s := range in.Supervisors {
		if s.ID == "" {
			return nil, invalidf("第 %d 位教授缺少 ID", i+1)
		}
		if _, dup := idx.supPos[s.ID]; dup {
			return nil, invalidf("教授 ID 重复: %q", s.ID)
		}
		idx.supPos[s.ID] = i
		ranks, err := rankMap("教授 "+s.ID, s.PreferredWorkers)
		if err != nil {
			return nil, err
		}
		idx.supRank[i] = ranks
	}

	for i, w := range in.Workers {
		if w.ID == "" {
			return nil, invalidf("第 %d 位助教缺少 ID", i+1)
		}
		if _, dup := idx.workerPos[w.ID]; dup {
			return nil, invalidf("助教 ID 重复: %q", w.ID)
		}
		idx.workerPos[w.ID] = i
		if w.Capacity <= 0 {
			return nil, invalidf("助教 %q 的容量必须为正: %d", w.ID, w.Capacity)
		}
		idx.capacity[i] = w.Capacity
		if opts.CapacityUnit > 0 && w.Capacity > opts.CapacityUnit {
			idx.capacity[i] = opts.CapacityUnit
		}
		ranks, err := rankMap("助教 "+w.ID, w.PreferredSupervisors)
		if err != nil {
			return nil, err
		}
		idx.workerRank[i] = ranks
		skills := make(map[string]struct{}, len(w.Skills))
		for _, sk := range w.Skills {
			skills[sk] = struct{}{}
		}
		idx.workerSkills[i] = skills
		for taskID, level := range w.Interests {
			if !level.Valid() {
				return nil, invalidf("助教 %q 对课程 %q 的兴趣等级非法: %q", w.ID, taskID, level)
			}
		}
	}

	for j, t := range in.Tasks {
		if t.ID == "" {
			return nil, invalidf("第 %d 门课程缺少 ID", j+1)
		}
		if _, dup := idx.taskPos[t.ID]; dup {
			return nil, invalidf("课程 ID 重复: %q", t.ID)
		}
		idx.taskPos[t.ID] = j
		if t.RequiredUnits < 0 {
			return nil, invalidf("课程 %q 的需求人数不能为负: %d", t.ID, t.RequiredUnits)
		}
		seen := make(map[string]struct{}, len(t.Supervisors))
		sups := make([]int, 0, len(t.Supervisors))
		for _, sid := range t.Supervisors {
			if _, dup := seen[sid]; dup {
				return nil, invalidf("课程 %q 重复关联教授 %q", t.ID, sid)
			}
			seen[sid] = struct{}{}
			p, ok := idx.supPos[sid]
			if !ok {
				return nil, invalidf("课程 %q 关联了不存在的教授 %q", t.ID, sid)
			}
			sups = append(sups, p)
		}
		idx.taskSups[j] = sups
	}

	idx.workerOrder = lexOrder(len(in.Workers), func(i int) string { return in.Workers[i].ID })
	idx.taskOrder = lexOrder(len(in.Tasks), func(i int) string { return in.Tasks[i].ID })
	return idx, nil
}

// lexOrder 返回每个下标在按 ID 字典序排序后的位次
func lexOrder(n int, id func(int) string) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	sort.Slice(perm, func(a, b int) bool { return id(perm[a]) < id(perm[b]) })
	order := make([]int, n)
	for pos, i := range perm {
		order[i] = pos
	}
	return order
}
