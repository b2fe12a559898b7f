package engine

import "container/heap"

// ════════════════════════════════════════════════════════════
// 两轮贪心调度
// ════════════════════════════════════════════════════════════

// Pair 助教与教授的共同分配计数键
type Pair struct {
	WorkerID     string
	SupervisorID string
}

// Commit 一次分配提交记录
type Commit struct {
	Pass     int     `json:"pass"`
	TaskID   string  `json:"task_id"`
	WorkerID string  `json:"worker_id"`
	Score    float64 `json:"score"`
}

// Plan 以 ID 为键的调度结果
type Plan struct {
	Rosters       map[string][]string // 课程 ID → 助教 ID（提交顺序）
	Loads         map[string]int      // 助教 ID → 已分配单位数
	Remaining     map[string]int      // 课程 ID → 未满足需求
	CoAssignments map[Pair]int
	Commits       []Commit
	Pass1Commits  int
	Pass2Commits  int
	TargetAverage float64
}

// candidate 堆中的 (课程, 助教) 候选项
type candidate struct {
	task   int
	worker int
	score  float64
	pos    int // 在堆中的位置，-1 表示已出堆
}

// candidateHeap 按动态分降序、课程 ID 升序、助教 ID 升序排列的索引堆
type candidateHeap struct {
	items []*candidate
	idx   *index
}

func (h *candidateHeap) Len() int { return len(h.items) }

func (h *candidateHeap) Less(a, b int) bool {
	x, y := h.items[a], h.items[b]
	if x.score != y.score {
		return x.score > y.score
	}
	if x.task != y.task {
		return h.idx.taskOrder[x.task] < h.idx.taskOrder[y.task]
	}
	return h.idx.workerOrder[x.worker] < h.idx.workerOrder[y.worker]
}

func (h *candidateHeap) Swap(a, b int) {
	h.items[a], h.items[b] = h.items[b], h.items[a]
	h.items[a].pos = a
	h.items[b].pos = b
}

func (h *candidateHeap) Push(x any) {
	c := x.(*candidate)
	c.pos = len(h.items)
	h.items = append(h.items, c)
}

func (h *candidateHeap) Pop() any {
	old := h.items
	n := len(old)
	c := old[n-1]
	old[n-1] = nil
	c.pos = -1
	h.items = old[:n-1]
	return c
}

// scheduler 单次运行的可变状态，仅由当前调用持有
type scheduler struct {
	idx        *index
	table      *ScoreTable
	candidates [][]int

	remaining []int
	load      []int
	onRoster  []map[int]struct{}
	rosters   [][]int
	co        map[coKey]int
	target    float64
	commits   []Commit
}

type coKey struct {
	worker int
	sup    int
}

func newScheduler(idx *index, table *ScoreTable, candidates [][]int) *scheduler {
	s := &scheduler{
		idx:        idx,
		table:      table,
		candidates: candidates,
		remaining:  make([]int, len(idx.in.Tasks)),
		load:       make([]int, len(idx.in.Workers)),
		onRoster:   make([]map[int]struct{}, len(idx.in.Tasks)),
		rosters:    make([][]int, len(idx.in.Tasks)),
		co:         make(map[coKey]int),
	}
	total := 0
	for j, t := range idx.in.Tasks {
		s.remaining[j] = t.RequiredUnits
		s.onRoster[j] = make(map[int]struct{})
		total += t.RequiredUnits
	}
	s.target = TargetAverage(total, len(idx.in.Workers))
	return s
}

func (s *scheduler) dynamicScore(j, i int) float64 {
	w := s.idx.opts.Weights.WorkloadBalance
	return s.table.Base(j, i) + w*WorkloadScore(s.load[i], s.target, s.idx.opts.CapacityUnit)
}

// feasible 容量、重复、需求与（第一轮）同教授上限检查
func (s *scheduler) feasible(j, i int, enforceCap bool) bool {
	if s.remaining[j] <= 0 || s.load[i] >= s.idx.capacity[i] {
		return false
	}
	if _, dup := s.onRoster[j][i]; dup {
		return false
	}
	if enforceCap {
		limit := s.idx.opts.MaxSameSupervisor
		for _, p := range s.idx.taskSups[j] {
			if s.co[coKey{worker: i, sup: p}] >= limit {
				return false
			}
		}
	}
	return true
}

func (s *scheduler) commit(j, i, pass int, score float64) {
	s.onRoster[j][i] = struct{}{}
	s.rosters[j] = append(s.rosters[j], i)
	s.remaining[j]--
	s.load[i]++
	for _, p := range s.idx.taskSups[j] {
		s.co[coKey{worker: i, sup: p}]++
	}
	s.commits = append(s.commits, Commit{
		Pass:     pass,
		TaskID:   s.idx.in.Tasks[j].ID,
		WorkerID: s.idx.in.Workers[i].ID,
		Score:    score,
	})
}

func (s *scheduler) hasDemand() bool {
	for _, r := range s.remaining {
		if r > 0 {
			return true
		}
	}
	return false
}

// runPass 反复取全局最优的可行候选并提交，直到没有可行候选。
//
// 提交只改变被提交助教的负载，因此只需重排该助教的候选项；
// 不可行的候选项在出堆时丢弃，同一轮内可行性只会单调变差。
func (s *scheduler) runPass(pass int, enforceCap bool) int {
	h := &candidateHeap{idx: s.idx}
	byWorker := make([][]*candidate, len(s.idx.in.Workers))
	for j, list := range s.candidates {
		if s.remaining[j] <= 0 {
			continue
		}
		for _, i := range list {
			if !s.feasible(j, i, enforceCap) {
				continue
			}
			c := &candidate{task: j, worker: i, score: s.dynamicScore(j, i)}
			h.items = append(h.items, c)
			c.pos = len(h.items) - 1
			byWorker[i] = append(byWorker[i], c)
		}
	}
	heap.Init(h)

	committed := 0
	for h.Len() > 0 {
		top := heap.Pop(h).(*candidate)
		if !s.feasible(top.task, top.worker, enforceCap) {
			continue
		}
		s.commit(top.task, top.worker, pass, top.score)
		committed++

		for _, c := range byWorker[top.worker] {
			if c.pos < 0 {
				continue
			}
			c.score = s.dynamicScore(c.task, c.worker)
			heap.Fix(h, c.pos)
		}
	}
	return committed
}

// schedule 第一轮严格执行同教授上限，仍有缺口时第二轮放开上限
func (s *scheduler) schedule() *Plan {
	pass1 := s.runPass(1, true)
	pass2 := 0
	if s.hasDemand() {
		pass2 = s.runPass(2, false)
	}
	return s.plan(pass1, pass2)
}

func (s *scheduler) plan(pass1, pass2 int) *Plan {
	in := s.idx.in
	p := &Plan{
		Rosters:       make(map[string][]string, len(in.Tasks)),
		Loads:         make(map[string]int, len(in.Workers)),
		Remaining:     make(map[string]int, len(in.Tasks)),
		CoAssignments: make(map[Pair]int, len(s.co)),
		Commits:       s.commits,
		Pass1Commits:  pass1,
		Pass2Commits:  pass2,
		TargetAverage: s.target,
	}
	for j, t := range in.Tasks {
		ids := make([]string, 0, len(s.rosters[j]))
		for _, i := range s.rosters[j] {
			ids = append(ids, in.Workers[i].ID)
		}
		p.Rosters[t.ID] = ids
		p.Remaining[t.ID] = s.remaining[j]
	}
	for i, w := range in.Workers {
		p.Loads[w.ID] = s.load[i]
	}
	for k, n := range s.co {
		p.CoAssignments[Pair{WorkerID: in.Workers[k.worker].ID, SupervisorID: in.Supervisors[k.sup].ID}] = n
	}
	return p
}
