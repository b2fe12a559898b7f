package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User        UserRepository
	TA          TARepository
	Professor   ProfessorRepository
	Course      CourseRepository
	Assignment  AssignmentRepository
	Weight      WeightRepository
	Run         RunRepository
	ActivityLog ActivityLogRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:          db,
		User:        NewUserRepo(db),
		TA:          NewTARepo(db),
		Professor:   NewProfessorRepo(db),
		Course:      NewCourseRepo(db),
		Assignment:  NewAssignmentRepo(db),
		Weight:      NewWeightRepo(db),
		Run:         NewRunRepo(db),
		ActivityLog: NewActivityLogRepo(db),
	}
}

// BeginTx 开启事务。单元测试中聚合由 mock 直接组装、没有底层连接，此时返回 nil 事务，
// 调用方据此在同一组 mock 上继续执行。
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

// WithTx 返回绑定到事务连接的 Repository 副本；tx 为 nil 时返回自身
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}
