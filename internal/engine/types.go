// Package engine 实现助教分配核心：偏好打分、候选裁剪、工作量均衡与两轮贪心调度。
//
// 引擎是纯内存同步计算，不访问数据库，也不持有跨调用状态；
// 持久化、加锁与输入清洗由 service 层负责。
package engine

// Interest 助教对课程的兴趣等级
type Interest string

const (
	InterestNone   Interest = "None"
	InterestLow    Interest = "Low"
	InterestMedium Interest = "Medium"
	InterestHigh   Interest = "High"
)

// Placeholder 课程没有关联教授时 Professor 字段的占位
const Placeholder = "—"

// Worker 助教（可分配资源）
type Worker struct {
	ID       string
	Name     string
	Capacity int // 可同时承担的课程单位数，必须为正

	// PreferredSupervisors 按偏好从高到低排列的教授 ID
	PreferredSupervisors []string
	Skills               []string
	// Interests 课程 ID → 兴趣等级，缺省视为 None
	Interests map[string]Interest
}

// Supervisor 教授
type Supervisor struct {
	ID   string
	Name string
	// PreferredWorkers 按偏好从高到低排列的助教 ID
	PreferredWorkers []string
}

// Task 课程（需求单元）
type Task struct {
	ID             string
	Code           string
	RequiredUnits  int
	RequiredSkills []string
	// Supervisors 关联教授 ID，第一个视为主讲
	Supervisors []string
}

// Weights 打分权重，非负，不要求和为 1
type Weights struct {
	CoursePref      float64 `json:"course_pref"`
	TAPref          float64 `json:"ta_pref"`
	ProfPref        float64 `json:"prof_pref"`
	WorkloadBalance float64 `json:"workload_balance"`
}

// Input 单次运行的全部只读输入
type Input struct {
	Workers     []Worker
	Supervisors []Supervisor
	Tasks       []Task
}

// Options 运行参数
type Options struct {
	Weights Weights
	// MaxSameSupervisor 第一轮中同一助教在同一教授名下的最多课程数
	MaxSameSupervisor int
	// TopK 每门课保留的候选人数，<= 0 表示不限
	TopK int
	// CapacityUnit 单个助教的硬性单位上限，同时作为工作量评分的归一化常数；
	// <= 0 时不截断容量，工作量评分恒为 0
	CapacityUnit int
}

// 默认参数
const (
	DefaultMaxSameSupervisor = 2
	DefaultTopK              = 15
	DefaultCapacityUnit      = 4
)

// DefaultWeights 默认权重
func DefaultWeights() Weights {
	return Weights{
		CoursePref:      0.2,
		TAPref:          0.4,
		ProfPref:        0.3,
		WorkloadBalance: 0.1,
	}
}

// DefaultOptions 返回默认运行参数
func DefaultOptions() Options {
	return Options{
		Weights:           DefaultWeights(),
		MaxSameSupervisor: DefaultMaxSameSupervisor,
		TopK:              DefaultTopK,
		CapacityUnit:      DefaultCapacityUnit,
	}
}
