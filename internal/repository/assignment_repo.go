package repository

import (
	"context"

	"gorm.io/gorm"

	"ta-assign/backend/internal/model"
)

// AssignmentRepository 当前分配数据访问接口
type AssignmentRepository interface {
	// List 按课程、position 排序返回全部分配
	List(ctx context.Context) ([]model.TAAssignment, error)
	ListByCourse(ctx context.Context, courseID string) ([]model.TAAssignment, error)
	// DeleteAll 清空全部分配（整体替换的第一步，应在事务中调用）
	DeleteAll(ctx context.Context) error
	CreateBatch(ctx context.Context, rows []model.TAAssignment) error
	Create(ctx context.Context, row *model.TAAssignment) error
	Delete(ctx context.Context, courseID, taID string) error
}

type assignmentRepo struct {
	db *gorm.DB
}

// NewAssignmentRepo 创建 AssignmentRepository 实例
func NewAssignmentRepo(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db: db}
}

func (r *assignmentRepo) List(ctx context.Context) ([]model.TAAssignment, error) {
	var rows []model.TAAssignment
	err := r.db.WithContext(ctx).
		Order("course_id ASC, position ASC").
		Find(&rows).Error
	return rows, err
}

func (r *assignmentRepo) ListByCourse(ctx context.Context, courseID string) ([]model.TAAssignment, error) {
	var rows []model.TAAssignment
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("position ASC").
		Find(&rows).Error
	return rows, err
}

func (r *assignmentRepo) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&model.TAAssignment{}).Error
}

func (r *assignmentRepo) CreateBatch(ctx context.Context, rows []model.TAAssignment) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, 200).Error
}

func (r *assignmentRepo) Create(ctx context.Context, row *model.TAAssignment) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *assignmentRepo) Delete(ctx context.Context, courseID, taID string) error {
	result := r.db.WithContext(ctx).
		Where("course_id = ? AND ta_id = ?", courseID, taID).
		Delete(&model.TAAssignment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
