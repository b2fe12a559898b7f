package repository

import (
	"context"

	"gorm.io/gorm"

	"ta-assign/backend/internal/model"
)

// RunRepository 分配运行历史数据访问接口
type RunRepository interface {
	// Create 写入运行头及其课程、分配明细
	Create(ctx context.Context, run *model.AssignmentRun, courses []model.AssignmentRunCourse, tas []model.AssignmentRunTA) error
	GetByID(ctx context.Context, id string) (*model.AssignmentRun, error)
	List(ctx context.Context, offset, limit int) ([]model.AssignmentRun, int64, error)
	ListCourses(ctx context.Context, runID string) ([]model.AssignmentRunCourse, error)
	ListTAs(ctx context.Context, runID string) ([]model.AssignmentRunTA, error)
}

type runRepo struct {
	db *gorm.DB
}

// NewRunRepo 创建 RunRepository 实例
func NewRunRepo(db *gorm.DB) RunRepository {
	return &runRepo{db: db}
}

func (r *runRepo) Create(ctx context.Context, run *model.AssignmentRun, courses []model.AssignmentRunCourse, tas []model.AssignmentRunTA) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(run).Error; err != nil {
			return err
		}
		for i := range courses {
			courses[i].RunID = run.RunID
		}
		for i := range tas {
			tas[i].RunID = run.RunID
		}
		if len(courses) > 0 {
			if err := tx.CreateInBatches(courses, 200).Error; err != nil {
				return err
			}
		}
		if len(tas) > 0 {
			if err := tx.CreateInBatches(tas, 200).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *runRepo) GetByID(ctx context.Context, id string) (*model.AssignmentRun, error) {
	var run model.AssignmentRun
	err := r.db.WithContext(ctx).
		Where("run_id = ?", id).
		First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *runRepo) List(ctx context.Context, offset, limit int) ([]model.AssignmentRun, int64, error) {
	var runs []model.AssignmentRun
	var total int64

	db := r.db.WithContext(ctx).Model(&model.AssignmentRun{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&runs).Error; err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}

func (r *runRepo) ListCourses(ctx context.Context, runID string) ([]model.AssignmentRunCourse, error) {
	var rows []model.AssignmentRunCourse
	err := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("course_code ASC").
		Find(&rows).Error
	return rows, err
}

func (r *runRepo) ListTAs(ctx context.Context, runID string) ([]model.AssignmentRunTA, error) {
	var rows []model.AssignmentRunTA
	err := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("course_id ASC, position ASC").
		Find(&rows).Error
	return rows, err
}
