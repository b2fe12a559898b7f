package repository

import (
	"context"

	"gorm.io/gorm"

	"ta-assign/backend/internal/model"
)

// ProfessorRepository 教授数据访问接口
type ProfessorRepository interface {
	Create(ctx context.Context, p *model.Professor) error
	GetByID(ctx context.Context, id string) (*model.Professor, error)
	GetByName(ctx context.Context, name string) (*model.Professor, error)
	// List 返回全部教授，含按 rank 排序的助教偏好
	List(ctx context.Context) ([]model.Professor, error)
	ReplacePreferredTAs(ctx context.Context, professorID string, taIDs []string) error
}

type professorRepo struct {
	db *gorm.DB
}

// NewProfessorRepo 创建 ProfessorRepository 实例
func NewProfessorRepo(db *gorm.DB) ProfessorRepository {
	return &professorRepo{db: db}
}

func withProfessorPrefs(db *gorm.DB) *gorm.DB {
	return db.Preload("PreferredTAs", func(db *gorm.DB) *gorm.DB {
		return db.Order("rank ASC")
	})
}

func (r *professorRepo) Create(ctx context.Context, p *model.Professor) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *professorRepo) GetByID(ctx context.Context, id string) (*model.Professor, error) {
	var p model.Professor
	err := withProfessorPrefs(r.db.WithContext(ctx)).
		Where("professor_id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *professorRepo) GetByName(ctx context.Context, name string) (*model.Professor, error) {
	var p model.Professor
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *professorRepo) List(ctx context.Context) ([]model.Professor, error) {
	var list []model.Professor
	err := withProfessorPrefs(r.db.WithContext(ctx)).
		Order("name ASC, professor_id ASC").
		Find(&list).Error
	return list, err
}

func (r *professorRepo) ReplacePreferredTAs(ctx context.Context, professorID string, taIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("professor_id = ?", professorID).Delete(&model.ProfessorPreferredTA{}).Error; err != nil {
			return err
		}
		if len(taIDs) == 0 {
			return nil
		}
		rows := make([]model.ProfessorPreferredTA, len(taIDs))
		for i, id := range taIDs {
			rows[i] = model.ProfessorPreferredTA{ProfessorID: professorID, TAID: id, Rank: i}
		}
		return tx.Create(&rows).Error
	})
}
