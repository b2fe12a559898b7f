package engine

import "fmt"

// CourseAssignment 单门课程的分配结果
type CourseAssignment struct {
	Professor      string   `json:"professor"`
	TAs            []string `json:"tas"`
	RequiredSkills []string `json:"required_skills"`
}

// Stats 运行统计
type Stats struct {
	TotalRequired int `json:"total_required"`
	TotalAssigned int `json:"total_assigned"`
	TotalUnfilled int `json:"total_unfilled"`
	Pass1Commits  int `json:"pass1_commits"`
	Pass2Commits  int `json:"pass2_commits"`
}

// Result 对外输出：课程代码 → 分配，助教姓名 → 负载
type Result struct {
	Assignments map[string]CourseAssignment `json:"assignments"`
	Workloads   map[string]int              `json:"workloads"`
	// Unfilled 仅包含仍有缺口的课程
	Unfilled map[string]int `json:"unfilled,omitempty"`
	Stats    Stats          `json:"stats"`
}

// displayNames 为每个实体生成唯一显示键：首次出现用原名，之后重名的追加 " (#ID)"
func displayNames(n int, id, name func(int) string) []string {
	out := make([]string, n)
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		key := name(i)
		if _, dup := seen[key]; dup {
			key = fmt.Sprintf("%s (#%s)", name(i), id(i))
		}
		seen[key] = struct{}{}
		out[i] = key
	}
	return out
}

// Format 把以 ID 为键的调度结果转换为以显示名为键的输出
func Format(in Input, plan *Plan) *Result {
	res := &Result{
		Assignments: make(map[string]CourseAssignment),
		Workloads:   make(map[string]int),
	}
	if len(in.Workers) == 0 {
		return res
	}

	workerNames := displayNames(len(in.Workers),
		func(i int) string { return in.Workers[i].ID },
		func(i int) string { return in.Workers[i].Name })
	nameByID := make(map[string]string, len(in.Workers))
	for i, w := range in.Workers {
		nameByID[w.ID] = workerNames[i]
		load := 0
		if plan != nil {
			load = plan.Loads[w.ID]
		}
		res.Workloads[workerNames[i]] = load
	}

	supName := make(map[string]string, len(in.Supervisors))
	for _, s := range in.Supervisors {
		supName[s.ID] = s.Name
	}

	codes := displayNames(len(in.Tasks),
		func(j int) string { return in.Tasks[j].ID },
		func(j int) string { return in.Tasks[j].Code })
	for j, t := range in.Tasks {
		prof := Placeholder
		if len(t.Supervisors) > 0 {
			if n, ok := supName[t.Supervisors[0]]; ok && n != "" {
				prof = n
			}
		}
		tas := make([]string, 0)
		remaining := t.RequiredUnits
		if plan != nil {
			for _, wid := range plan.Rosters[t.ID] {
				tas = append(tas, nameByID[wid])
			}
			remaining = plan.Remaining[t.ID]
		}
		skills := make([]string, len(t.RequiredSkills))
		copy(skills, t.RequiredSkills)
		res.Assignments[codes[j]] = CourseAssignment{
			Professor:      prof,
			TAs:            tas,
			RequiredSkills: skills,
		}

		res.Stats.TotalRequired += t.RequiredUnits
		res.Stats.TotalAssigned += len(tas)
		if remaining > 0 {
			if res.Unfilled == nil {
				res.Unfilled = make(map[string]int)
			}
			res.Unfilled[codes[j]] = remaining
			res.Stats.TotalUnfilled += remaining
		}
	}
	if plan != nil {
		res.Stats.Pass1Commits = plan.Pass1Commits
		res.Stats.Pass2Commits = plan.Pass2Commits
	}
	return res
}
