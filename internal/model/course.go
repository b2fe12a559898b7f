package model

// Course 课程表，对应 courses
type Course struct {
	CourseID        string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_id"`
	CourseCode      string      `gorm:"type:varchar(30);not null;uniqueIndex"          json:"course_code"`
	Title           string      `gorm:"type:varchar(200);not null;default:''"          json:"title"`
	NumTAsRequested int         `gorm:"column:num_tas_requested;not null;default:0"    json:"num_tas_requested"`
	RequiredSkills  StringArray `gorm:"type:text[];not null;default:'{}'"              json:"required_skills"`
	VersionedModel

	// 关联（按 position 升序，第一位视为主讲）
	Professors []CourseProfessor `gorm:"foreignKey:CourseID;references:CourseID" json:"professors,omitempty"`
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }

// CourseProfessor 课程与教授的有序关联，对应 course_professors
type CourseProfessor struct {
	CourseID    string `gorm:"type:uuid;primaryKey" json:"course_id"`
	ProfessorID string `gorm:"type:uuid;primaryKey" json:"professor_id"`
	Position    int    `gorm:"not null"             json:"position"`

	Professor *Professor `gorm:"foreignKey:ProfessorID;references:ProfessorID" json:"professor,omitempty"`
}

// TableName 指定表名
func (CourseProfessor) TableName() string { return "course_professors" }
