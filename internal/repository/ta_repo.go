package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"ta-assign/backend/internal/model"
	pkgerrors "ta-assign/backend/pkg/errors"
)

// TARepository 助教数据访问接口
type TARepository interface {
	Create(ctx context.Context, ta *model.TA) error
	GetByID(ctx context.Context, id string) (*model.TA, error)
	GetByName(ctx context.Context, name string) (*model.TA, error)
	// List 返回全部助教，含按 rank 排序的教授偏好与课程兴趣
	List(ctx context.Context) ([]model.TA, error)
	// Update 乐观锁更新基础字段
	Update(ctx context.Context, ta *model.TA) error
	// ReplacePreferredProfessors 用有序列表整体替换教授偏好
	ReplacePreferredProfessors(ctx context.Context, taID string, professorIDs []string) error
	// ReplaceInterests 整体替换课程兴趣
	ReplaceInterests(ctx context.Context, taID string, interests []model.TACourseInterest) error
}

type taRepo struct {
	db *gorm.DB
}

// NewTARepo 创建 TARepository 实例
func NewTARepo(db *gorm.DB) TARepository {
	return &taRepo{db: db}
}

func withTAPrefs(db *gorm.DB) *gorm.DB {
	return db.
		Preload("PreferredProfessors", func(db *gorm.DB) *gorm.DB {
			return db.Order("rank ASC")
		}).
		Preload("CourseInterests")
}

func (r *taRepo) Create(ctx context.Context, ta *model.TA) error {
	return r.db.WithContext(ctx).Create(ta).Error
}

func (r *taRepo) GetByID(ctx context.Context, id string) (*model.TA, error) {
	var ta model.TA
	err := withTAPrefs(r.db.WithContext(ctx)).
		Where("ta_id = ?", id).
		First(&ta).Error
	if err != nil {
		return nil, err
	}
	return &ta, nil
}

func (r *taRepo) GetByName(ctx context.Context, name string) (*model.TA, error) {
	var ta model.TA
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&ta).Error
	if err != nil {
		return nil, err
	}
	return &ta, nil
}

func (r *taRepo) List(ctx context.Context) ([]model.TA, error) {
	var tas []model.TA
	err := withTAPrefs(r.db.WithContext(ctx)).
		Order("name ASC, ta_id ASC").
		Find(&tas).Error
	return tas, err
}

func (r *taRepo) Update(ctx context.Context, ta *model.TA) error {
	oldVersion := ta.Version
	result := r.db.WithContext(ctx).
		Model(&model.TA{}).
		Where("ta_id = ? AND version = ?", ta.TAID, oldVersion).
		Updates(map[string]interface{}{
			"name":       ta.Name,
			"email":      ta.Email,
			"program":    ta.Program,
			"degree":     ta.Degree,
			"max_units":  ta.MaxUnits,
			"skills":     ta.Skills,
			"updated_by": ta.UpdatedBy,
			"updated_at": time.Now(),
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	ta.Version = oldVersion + 1
	return nil
}

func (r *taRepo) ReplacePreferredProfessors(ctx context.Context, taID string, professorIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ta_id = ?", taID).Delete(&model.TAPreferredProfessor{}).Error; err != nil {
			return err
		}
		if len(professorIDs) == 0 {
			return nil
		}
		rows := make([]model.TAPreferredProfessor, len(professorIDs))
		for i, pid := range professorIDs {
			rows[i] = model.TAPreferredProfessor{TAID: taID, ProfessorID: pid, Rank: i}
		}
		return tx.Create(&rows).Error
	})
}

func (r *taRepo) ReplaceInterests(ctx context.Context, taID string, interests []model.TACourseInterest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ta_id = ?", taID).Delete(&model.TACourseInterest{}).Error; err != nil {
			return err
		}
		if len(interests) == 0 {
			return nil
		}
		for i := range interests {
			interests[i].TAID = taID
		}
		return tx.Create(&interests).Error
	})
}
