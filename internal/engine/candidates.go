package engine

import "sort"

// reduceCandidates 对每门有需求的课程按基础分降序（同分按助教 ID 升序）保留前 K 名。
// 排在 K 之后的助教在本次运行中不会再被该课程考虑，即使工作量项后来对其有利。
func reduceCandidates(idx *index, table *ScoreTable) [][]int {
	topK := idx.opts.TopK
	cands := make([][]int, len(idx.in.Tasks))
	for j, t := range idx.in.Tasks {
		if t.RequiredUnits <= 0 || len(idx.in.Workers) == 0 {
			continue
		}
		list := make([]int, len(idx.in.Workers))
		for i := range list {
			list[i] = i
		}
		sort.Slice(list, func(a, b int) bool {
			sa, sb := table.Base(j, list[a]), table.Base(j, list[b])
			if sa != sb {
				return sa > sb
			}
			return idx.workerOrder[list[a]] < idx.workerOrder[list[b]]
		})
		if topK > 0 && len(list) > topK {
			list = list[:topK]
		}
		cands[j] = list
	}
	return cands
}
