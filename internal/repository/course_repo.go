package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"ta-assign/backend/internal/model"
	pkgerrors "ta-assign/backend/pkg/errors"
)

// CourseRepository 课程数据访问接口
type CourseRepository interface {
	Create(ctx context.Context, course *model.Course) error
	GetByID(ctx context.Context, id string) (*model.Course, error)
	GetByCode(ctx context.Context, code string) (*model.Course, error)
	// List 返回全部课程，含按 position 排序的教授
	List(ctx context.Context) ([]model.Course, error)
	// Update 乐观锁更新需求人数、标题与技能
	Update(ctx context.Context, course *model.Course) error
	ReplaceProfessors(ctx context.Context, courseID string, professorIDs []string) error
}

type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo 创建 CourseRepository 实例
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

func withCourseProfessors(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Professors", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Professors.Professor")
}

func (r *courseRepo) Create(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepo) GetByID(ctx context.Context, id string) (*model.Course, error) {
	var c model.Course
	err := withCourseProfessors(r.db.WithContext(ctx)).
		Where("course_id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *courseRepo) GetByCode(ctx context.Context, code string) (*model.Course, error) {
	var c model.Course
	err := r.db.WithContext(ctx).
		Where("course_code = ?", code).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *courseRepo) List(ctx context.Context) ([]model.Course, error) {
	var list []model.Course
	err := withCourseProfessors(r.db.WithContext(ctx)).
		Order("course_code ASC").
		Find(&list).Error
	return list, err
}

func (r *courseRepo) Update(ctx context.Context, course *model.Course) error {
	oldVersion := course.Version
	result := r.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("course_id = ? AND version = ?", course.CourseID, oldVersion).
		Updates(map[string]interface{}{
			"title":             course.Title,
			"num_tas_requested": course.NumTAsRequested,
			"required_skills":   course.RequiredSkills,
			"updated_by":        course.UpdatedBy,
			"updated_at":        time.Now(),
			"version":           oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	course.Version = oldVersion + 1
	return nil
}

func (r *courseRepo) ReplaceProfessors(ctx context.Context, courseID string, professorIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("course_id = ?", courseID).Delete(&model.CourseProfessor{}).Error; err != nil {
			return err
		}
		if len(professorIDs) == 0 {
			return nil
		}
		rows := make([]model.CourseProfessor, len(professorIDs))
		for i, pid := range professorIDs {
			rows[i] = model.CourseProfessor{CourseID: courseID, ProfessorID: pid, Position: i}
		}
		return tx.Create(&rows).Error
	})
}
