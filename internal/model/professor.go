package model

// Professor 教授表，对应 professors
type Professor struct {
	ProfessorID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"professor_id"`
	Name        string `gorm:"type:varchar(200);not null;uniqueIndex"         json:"name"`
	Email       string `gorm:"type:varchar(255);not null;default:''"          json:"email"`
	BaseModel

	// 关联（按 rank 升序加载）
	PreferredTAs []ProfessorPreferredTA `gorm:"foreignKey:ProfessorID;references:ProfessorID" json:"preferred_tas,omitempty"`
}

// TableName 指定表名
func (Professor) TableName() string { return "professors" }

// ProfessorPreferredTA 教授对助教的有序偏好，对应 professor_preferred_tas
type ProfessorPreferredTA struct {
	ProfessorID string `gorm:"type:uuid;primaryKey"              json:"professor_id"`
	TAID        string `gorm:"column:ta_id;type:uuid;primaryKey" json:"ta_id"`
	Rank        int    `gorm:"not null"                          json:"rank"`
}

// TableName 指定表名
func (ProfessorPreferredTA) TableName() string { return "professor_preferred_tas" }
