package model

// TA 助教表，对应 tas
type TA struct {
	TAID     string      `gorm:"column:ta_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"ta_id"`
	Name     string      `gorm:"type:varchar(200);not null;uniqueIndex"                     json:"name"`
	Email    string      `gorm:"type:varchar(255);not null;default:''"                      json:"email"`
	Program  string      `gorm:"type:varchar(100);not null;default:''"                      json:"program"`
	Degree   string      `gorm:"type:varchar(20);not null;default:''"                       json:"degree"` // MS / PhD
	MaxUnits int         `gorm:"not null;default:1"                                         json:"max_units"`
	Skills   StringArray `gorm:"type:text[];not null;default:'{}'"                          json:"skills"`
	VersionedModel

	// 关联
	PreferredProfessors []TAPreferredProfessor `gorm:"foreignKey:TAID;references:TAID" json:"preferred_professors,omitempty"`
	CourseInterests     []TACourseInterest     `gorm:"foreignKey:TAID;references:TAID" json:"course_interests,omitempty"`
}

// TableName 指定表名
func (TA) TableName() string { return "tas" }

// TAPreferredProfessor 助教对教授的有序偏好，对应 ta_preferred_professors
type TAPreferredProfessor struct {
	TAID        string `gorm:"column:ta_id;type:uuid;primaryKey" json:"ta_id"`
	ProfessorID string `gorm:"type:uuid;primaryKey"              json:"professor_id"`
	Rank        int    `gorm:"not null"                          json:"rank"`
}

// TableName 指定表名
func (TAPreferredProfessor) TableName() string { return "ta_preferred_professors" }

// TACourseInterest 助教对课程的兴趣等级，对应 ta_course_interests
type TACourseInterest struct {
	TAID          string `gorm:"column:ta_id;type:uuid;primaryKey"          json:"ta_id"`
	CourseID      string `gorm:"type:uuid;primaryKey"                       json:"course_id"`
	InterestLevel string `gorm:"type:varchar(10);not null;default:'None'" json:"interest_level"`
}

// TableName 指定表名
func (TACourseInterest) TableName() string { return "ta_course_interests" }
