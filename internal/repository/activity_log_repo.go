package repository

import (
	"context"

	"gorm.io/gorm"

	"ta-assign/backend/internal/model"
)

// ActivityLogRepository 活动日志数据访问接口
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *model.ActivityLog) error
	ListRecent(ctx context.Context, limit int) ([]model.ActivityLog, error)
}

type activityLogRepo struct {
	db *gorm.DB
}

// NewActivityLogRepo 创建 ActivityLogRepository 实例
func NewActivityLogRepo(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepo{db: db}
}

func (r *activityLogRepo) Create(ctx context.Context, entry *model.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *activityLogRepo) ListRecent(ctx context.Context, limit int) ([]model.ActivityLog, error) {
	var rows []model.ActivityLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
