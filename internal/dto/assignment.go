package dto

import "ta-assign/backend/internal/engine"

// ── 分配模块 DTO ──

// RunAssignmentRequest 运行分配请求；未提供的参数使用已保存的权重与配置默认值
type RunAssignmentRequest struct {
	Weights           *engine.Weights `json:"weights"`
	MaxSameSupervisor *int            `json:"max_same_supervisor" binding:"omitempty,min=0"`
	TopK              *int            `json:"top_k"`
	// Persist 为 true 时整体替换当前分配
	Persist bool `json:"persist"`
}

// RunAssignmentResponse 运行分配响应
type RunAssignmentResponse struct {
	RunID     string         `json:"run_id"`
	Persisted bool           `json:"persisted"`
	Result    *engine.Result `json:"result"`
}

// OverrideAssignmentRequest 手动调整一门课程的助教（按 ID）
type OverrideAssignmentRequest struct {
	CourseID    string   `json:"course_id"     binding:"required"`
	RemoveTAIDs []string `json:"remove_ta_ids"`
	AddTAIDs    []string `json:"add_ta_ids"`
	// Force 为 true 时允许超过课程需求人数
	Force bool `json:"force"`
}

// RunSummaryResponse 运行历史列表项
type RunSummaryResponse struct {
	RunID         string         `json:"run_id"`
	CreatedAt     string         `json:"created_at"`
	CreatedBy     *string        `json:"created_by,omitempty"`
	Weights       engine.Weights `json:"weights"`
	TotalRequired int            `json:"total_required"`
	TotalAssigned int            `json:"total_assigned"`
	TotalUnfilled int            `json:"total_unfilled"`
	Persisted     bool           `json:"persisted"`
}

// RunCourseResponse 运行快照中的一门课程
type RunCourseResponse struct {
	CourseID      string          `json:"course_id"`
	CourseCode    string          `json:"course_code"`
	Professor     string          `json:"professor"`
	RequiredUnits int             `json:"required_units"`
	TAs           []RunTAResponse `json:"tas"`
}

// RunTAResponse 运行快照中的一条分配
type RunTAResponse struct {
	TAID  string  `json:"ta_id"`
	Name  string  `json:"name"`
	Pass  int     `json:"pass"`
	Score float64 `json:"score"`
}

// RunDetailResponse 运行详情
type RunDetailResponse struct {
	RunSummaryResponse
	MaxSameSupervisor int                 `json:"max_same_supervisor"`
	TopK              int                 `json:"top_k"`
	CapacityUnit      int                 `json:"capacity_unit"`
	Pass1Commits      int                 `json:"pass1_commits"`
	Pass2Commits      int                 `json:"pass2_commits"`
	Courses           []RunCourseResponse `json:"courses"`
}

// ── 权重 ──

// UpdateWeightsRequest 更新权重请求（乐观锁）
type UpdateWeightsRequest struct {
	CoursePref      *float64 `json:"course_pref"      binding:"omitempty,min=0"`
	TAPref          *float64 `json:"ta_pref"          binding:"omitempty,min=0"`
	ProfPref        *float64 `json:"prof_pref"        binding:"omitempty,min=0"`
	WorkloadBalance *float64 `json:"workload_balance" binding:"omitempty,min=0"`
	Version         int      `json:"version"          binding:"required,min=1"`
}

// WeightsResponse 权重响应
type WeightsResponse struct {
	engine.Weights
	Version   int    `json:"version"`
	UpdatedAt string `json:"updated_at"`
}
