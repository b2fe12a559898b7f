package model

import "time"

// 活动日志级别
const (
	LogLevelInfo    = "info"
	LogLevelWarning = "warning"
)

// ActivityLog 活动日志，对应 activity_logs
type ActivityLog struct {
	LogID     string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"log_id"`
	ActorID   *string   `gorm:"type:uuid"                                      json:"actor_id,omitempty"`
	Action    string    `gorm:"type:varchar(50);not null"                      json:"action"`
	Level     string    `gorm:"type:varchar(10);not null;default:'info'"       json:"level"`
	Message   string    `gorm:"type:text;not null"                             json:"message"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (ActivityLog) TableName() string { return "activity_logs" }
