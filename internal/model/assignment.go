package model

import "time"

// TAAssignment 当前生效的助教分配，对应 ta_assignments
type TAAssignment struct {
	CourseID   string    `gorm:"type:uuid;primaryKey"                       json:"course_id"`
	TAID       string    `gorm:"column:ta_id;type:uuid;primaryKey"          json:"ta_id"`
	Position   int       `gorm:"not null"                                   json:"position"`
	AssignedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"         json:"assigned_at"`
	AssignedBy *string   `gorm:"type:uuid"                                  json:"assigned_by,omitempty"`
	Source     string    `gorm:"type:varchar(20);not null;default:'engine'" json:"source"` // engine | manual
}

// TableName 指定表名
func (TAAssignment) TableName() string { return "ta_assignments" }

// AssignmentWeights 打分权重，对应 assignment_weights（单行强类型）
type AssignmentWeights struct {
	Singleton       bool      `gorm:"primaryKey;default:true"            json:"-"`
	CoursePref      float64   `gorm:"not null;default:0.2"               json:"course_pref"`
	TAPref          float64   `gorm:"column:ta_pref;not null;default:0.4" json:"ta_pref"`
	ProfPref        float64   `gorm:"not null;default:0.3"               json:"prof_pref"`
	WorkloadBalance float64   `gorm:"not null;default:0.1"               json:"workload_balance"`
	Version         int       `gorm:"not null;default:1"                 json:"version"`
	UpdatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy       *string   `gorm:"type:uuid"                          json:"updated_by,omitempty"`
}

// TableName 指定表名
func (AssignmentWeights) TableName() string { return "assignment_weights" }

// AssignmentRun 一次分配运行的快照，对应 assignment_runs
type AssignmentRun struct {
	RunID             string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"run_id"`
	CreatedAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	CreatedBy         *string   `gorm:"type:uuid"                                      json:"created_by,omitempty"`
	CoursePref        float64   `gorm:"not null"                                       json:"course_pref"`
	TAPref            float64   `gorm:"column:ta_pref;not null"                        json:"ta_pref"`
	ProfPref          float64   `gorm:"not null"                                       json:"prof_pref"`
	WorkloadBalance   float64   `gorm:"not null"                                       json:"workload_balance"`
	MaxSameSupervisor int       `gorm:"not null"                                       json:"max_same_supervisor"`
	TopK              int       `gorm:"not null"                                       json:"top_k"`
	CapacityUnit      int       `gorm:"not null"                                       json:"capacity_unit"`
	TotalRequired     int       `gorm:"not null"                                       json:"total_required"`
	TotalAssigned     int       `gorm:"not null"                                       json:"total_assigned"`
	TotalUnfilled     int       `gorm:"not null"                                       json:"total_unfilled"`
	Pass1Commits      int       `gorm:"column:pass1_commits;not null"                  json:"pass1_commits"`
	Pass2Commits      int       `gorm:"column:pass2_commits;not null"                  json:"pass2_commits"`
	Persisted         bool      `gorm:"not null;default:false"                         json:"persisted"`
}

// TableName 指定表名
func (AssignmentRun) TableName() string { return "assignment_runs" }

// AssignmentRunCourse 运行快照中的课程行，对应 assignment_run_courses
type AssignmentRunCourse struct {
	RunID         string `gorm:"type:uuid;primaryKey"  json:"run_id"`
	CourseID      string `gorm:"type:uuid;primaryKey"  json:"course_id"`
	CourseCode    string `gorm:"type:varchar(30)"      json:"course_code"`
	ProfessorName string `gorm:"type:varchar(200)"     json:"professor_name"`
	RequiredUnits int    `gorm:"not null"              json:"required_units"`
	AssignedCount int    `gorm:"not null"              json:"assigned_count"`
}

// TableName 指定表名
func (AssignmentRunCourse) TableName() string { return "assignment_run_courses" }

// AssignmentRunTA 运行快照中的分配行，对应 assignment_run_tas
type AssignmentRunTA struct {
	RunID    string  `gorm:"type:uuid;primaryKey"              json:"run_id"`
	CourseID string  `gorm:"type:uuid;primaryKey"              json:"course_id"`
	TAID     string  `gorm:"column:ta_id;type:uuid;primaryKey" json:"ta_id"`
	TAName   string  `gorm:"column:ta_name;type:varchar(200)"  json:"ta_name"`
	Position int     `gorm:"not null"                          json:"position"`
	Pass     int     `gorm:"not null"                          json:"pass"`
	Score    float64 `gorm:"not null"                          json:"score"`
}

// TableName 指定表名
func (AssignmentRunTA) TableName() string { return "assignment_run_tas" }
