package dto

// ── 课程 ──

// CourseResponse 课程信息
type CourseResponse struct {
	ID              string           `json:"id"`
	Code            string           `json:"code"`
	Title           string           `json:"title"`
	NumTAsRequested int              `json:"num_tas_requested"`
	NumTAsAssigned  int              `json:"num_tas_assigned"`
	RequiredSkills  []string         `json:"required_skills"`
	Professors      []ProfessorBrief `json:"professors"`
	AssignedTAs     []TABrief        `json:"assigned_tas"`
	Version         int              `json:"version"`
}

// UpdateCourseRequest 更新课程请求（乐观锁）
type UpdateCourseRequest struct {
	Title           *string  `json:"title"             binding:"omitempty,max=200"`
	NumTAsRequested *int     `json:"num_tas_requested" binding:"omitempty,min=0,max=50"`
	RequiredSkills  []string `json:"required_skills"`
	// ProfessorIDs 非 nil 时按顺序整体替换，第一位为主讲
	ProfessorIDs []string `json:"professor_ids"`
	Version      int      `json:"version" binding:"required,min=1"`
}

// ── 助教 ──

// TAResponse 助教信息
type TAResponse struct {
	ID                  string           `json:"id"`
	Name                string           `json:"name"`
	Email               string           `json:"email"`
	Program             string           `json:"program"`
	Degree              string           `json:"degree"`
	MaxUnits            int              `json:"max_units"`
	Skills              []string         `json:"skills"`
	PreferredProfessors []ProfessorBrief `json:"preferred_professors"`
	CourseInterests     []CourseInterest `json:"course_interests"`
	AssignedCourses     []string         `json:"assigned_courses"`
	Version             int              `json:"version"`
}

// CourseInterest 助教对课程的兴趣
type CourseInterest struct {
	CourseID   string `json:"course_id"             binding:"required"`
	CourseCode string `json:"course_code,omitempty"`
	Level      string `json:"level"                 binding:"required"`
}

// UpdateTARequest 更新助教请求（乐观锁）
type UpdateTARequest struct {
	MaxUnits *int     `json:"max_units" binding:"omitempty,min=1,max=20"`
	Skills   []string `json:"skills"`
	// PreferredProfessorIDs 非 nil 时按顺序整体替换
	PreferredProfessorIDs []string `json:"preferred_professor_ids"`
	// CourseInterests 非 nil 时整体替换
	CourseInterests []CourseInterest `json:"course_interests"`
	Version         int              `json:"version" binding:"required,min=1"`
}

// TABrief 助教简要信息
type TABrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ── 教授 ──

// ProfessorResponse 教授信息
type ProfessorResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PreferredTAs []TABrief `json:"preferred_tas"`
	Courses      []string  `json:"courses"`
}

// ProfessorBrief 教授简要信息
type ProfessorBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UpdateProfessorPreferencesRequest 按顺序整体替换教授的助教偏好
type UpdateProfessorPreferencesRequest struct {
	TAIDs []string `json:"ta_ids"`
}

// ── 仪表盘与活动日志 ──

// DashboardResponse 仪表盘汇总
type DashboardResponse struct {
	Courses         int `json:"courses"`
	TAs             int `json:"tas"`
	Professors      int `json:"professors"`
	Requested       int `json:"requested"`
	Assigned        int `json:"assigned"`
	Unassigned      int `json:"unassigned"`
	UnfilledCourses int `json:"unfilled_courses"`
}

// ActivityLogResponse 活动日志
type ActivityLogResponse struct {
	ID        string  `json:"id"`
	ActorID   *string `json:"actor_id,omitempty"`
	Action    string  `json:"action"`
	Level     string  `json:"level"`
	Message   string  `json:"message"`
	CreatedAt string  `json:"created_at"`
}

// ── 导入 ──

// ImportCourseRow 从 "TA Needs Planning" 表解析出的课程行
type ImportCourseRow struct {
	Row          int      `json:"row"`
	CourseCode   string   `json:"course_code"`
	Professors   []string `json:"professors"`
	NumRequested int      `json:"num_requested"`
	PreferredTAs []string `json:"preferred_tas"`
}

// ImportTARow 从 "COMP TA List" 表解析出的助教行
type ImportTARow struct {
	Row      int      `json:"row"`
	Name     string   `json:"name"`
	Program  string   `json:"program"`
	Degree   string   `json:"degree"`
	Advisors []string `json:"advisors"`
}

// ImportError 导入行错误
type ImportError struct {
	Sheet  string `json:"sheet"`
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportWorkbook 解析后的工作簿
type ImportWorkbook struct {
	Courses []ImportCourseRow `json:"courses"`
	TAs     []ImportTARow     `json:"tas"`
	Errors  []ImportError     `json:"errors"`
}

// ImportResponse 导入结果
type ImportResponse struct {
	CoursesCreated    int           `json:"courses_created"`
	CoursesUpdated    int           `json:"courses_updated"`
	TAsCreated        int           `json:"tas_created"`
	TAsUpdated        int           `json:"tas_updated"`
	ProfessorsCreated int           `json:"professors_created"`
	Preferences       int           `json:"preferences"`
	Errors            []ImportError `json:"errors"`
}
