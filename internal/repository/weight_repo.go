package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"ta-assign/backend/internal/model"
	pkgerrors "ta-assign/backend/pkg/errors"
)

// WeightRepository 打分权重数据访问接口
type WeightRepository interface {
	Get(ctx context.Context) (*model.AssignmentWeights, error)
	// Update 乐观锁更新（按 version 比对）
	Update(ctx context.Context, w *model.AssignmentWeights) error
}

type weightRepo struct {
	db *gorm.DB
}

// NewWeightRepo 创建 WeightRepository 实例
func NewWeightRepo(db *gorm.DB) WeightRepository {
	return &weightRepo{db: db}
}

func (r *weightRepo) Get(ctx context.Context) (*model.AssignmentWeights, error) {
	var w model.AssignmentWeights
	err := r.db.WithContext(ctx).First(&w).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *weightRepo) Update(ctx context.Context, w *model.AssignmentWeights) error {
	oldVersion := w.Version
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&model.AssignmentWeights{}).
		Where("singleton = TRUE AND version = ?", oldVersion).
		Updates(map[string]interface{}{
			"course_pref":      w.CoursePref,
			"ta_pref":          w.TAPref,
			"prof_pref":        w.ProfPref,
			"workload_balance": w.WorkloadBalance,
			"updated_by":       w.UpdatedBy,
			"updated_at":       now,
			"version":          oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	w.Version = oldVersion + 1
	w.UpdatedAt = now
	return nil
}
