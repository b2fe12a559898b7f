package dto

// ── 建档模块 DTO ──

// OnboardingRequest 首次登录建档：学生创建助教档案，教师创建教授档案
// 与当前角色无关的字段会被忽略
type OnboardingRequest struct {
	// Name 为空时使用账号姓名
	Name string `json:"name" binding:"omitempty,max=200"`

	// 助教档案
	Program               string           `json:"program"   binding:"omitempty,max=100"`
	Degree                string           `json:"degree"    binding:"omitempty,max=20"`
	MaxUnits              *int             `json:"max_units" binding:"omitempty,min=1,max=20"`
	Skills                []string         `json:"skills"`
	PreferredProfessorIDs []string         `json:"preferred_professor_ids"`
	CourseInterests       []CourseInterest `json:"course_interests"`

	// 教授档案
	PreferredTAIDs []string `json:"preferred_ta_ids"`
}

// LinkProfileRequest 管理员将已导入的档案按 ID 关联到账号，二者必填其一
type LinkProfileRequest struct {
	TAID        *string `json:"ta_id"`
	ProfessorID *string `json:"professor_id"`
}
