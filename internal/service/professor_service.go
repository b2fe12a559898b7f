package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"ta-assign/backend/internal/dto"
	"ta-assign/backend/internal/model"
	"ta-assign/backend/internal/repository"
	"ta-assign/backend/pkg/redis"
)

// ProfessorService 教授业务接口
type ProfessorService interface {
	List(ctx context.Context) ([]dto.ProfessorResponse, error)
	// UpdatePreferences 按顺序整体替换教授的助教偏好
	UpdatePreferences(ctx context.Context, id string, req *dto.UpdateProfessorPreferencesRequest, callerID, callerRole string) (*dto.ProfessorResponse, error)
}

type professorService struct {
	repo   *repository.Repository
	rdb    *redis.Client
	logger *zap.Logger
}

// NewProfessorService 创建 ProfessorService 实例
func NewProfessorService(repo *repository.Repository, rdb *redis.Client, logger *zap.Logger) ProfessorService {
	return &professorService{repo: repo, rdb: rdb, logger: logger}
}

func (s *professorService) List(ctx context.Context) ([]dto.ProfessorResponse, error) {
	professors, err := s.repo.Professor.List(ctx)
	if err != nil {
		s.logger.Error("查询教授列表失败", zap.Error(err))
		return nil, err
	}
	teaching, err := s.teaching(ctx)
	if err != nil {
		return nil, err
	}
	nb, err := loadNameBook(ctx, s.repo, s.logger)
	if err != nil {
		return nil, err
	}

	list := make([]dto.ProfessorResponse, 0, len(professors))
	for i := range professors {
		list = append(list, toProfessorResponse(&professors[i], teaching[professors[i].ProfessorID], nb))
	}
	return list, nil
}

// teaching 教授 ID → 任教课程代码
func (s *professorService) teaching(ctx context.Context) (map[string][]string, error) {
	courses, err := s.repo.Course.List(ctx)
	if err != nil {
		s.logger.Error("查询课程列表失败", zap.Error(err))
		return nil, err
	}
	out := make(map[string][]string)
	for _, c := range courses {
		for _, cp := range c.Professors {
			out[cp.ProfessorID] = append(out[cp.ProfessorID], c.CourseCode)
		}
	}
	return out, nil
}

func toProfessorResponse(p *model.Professor, courses []string, nb *nameBook) dto.ProfessorResponse {
	prefs := make([]dto.TABrief, 0, len(p.PreferredTAs))
	for _, pt := range p.PreferredTAs {
		prefs = append(prefs, dto.TABrief{ID: pt.TAID, Name: nb.tas[pt.TAID]})
	}
	return dto.ProfessorResponse{
		ID:           p.ProfessorID,
		Name:         p.Name,
		Email:        p.Email,
		PreferredTAs: prefs,
		Courses:      sortedStrings(courses),
	}
}

func (s *professorService) UpdatePreferences(ctx context.Context, id string, req *dto.UpdateProfessorPreferencesRequest, callerID, callerRole string) (*dto.ProfessorResponse, error) {
	prof, err := s.repo.Professor.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfessorNotFound
		}
		s.logger.Error("查询教授失败", zap.Error(err))
		return nil, err
	}
	if err := authorizeProfessor(ctx, s.repo, callerID, callerRole, prof.ProfessorID); err != nil {
		return nil, err
	}
	if err := ensureUnique(req.TAIDs); err != nil {
		return nil, err
	}
	if err := ensureTAsExist(ctx, s.repo, req.TAIDs); err != nil {
		return nil, err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()
	txRepo := s.repo.WithTx(tx)

	if err := txRepo.Professor.ReplacePreferredTAs(ctx, prof.ProfessorID, req.TAIDs); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("更新教授助教偏好失败", zap.Error(err))
		return nil, err
	}
	msg := fmt.Sprintf("更新教授 %s 的助教偏好：%d 人", prof.Name, len(req.TAIDs))
	if err := recordActivity(ctx, txRepo, callerID, ActionProfessorUpdate, model.LogLevelInfo, msg); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("写入活动日志失败", zap.Error(err))
		return nil, err
	}
	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}
	invalidateResultCache(ctx, s.rdb, s.logger)

	updated, err := s.repo.Professor.GetByID(ctx, prof.ProfessorID)
	if err != nil {
		s.logger.Error("查询教授失败", zap.Error(err))
		return nil, err
	}
	teaching, err := s.teaching(ctx)
	if err != nil {
		return nil, err
	}
	nb, err := loadNameBook(ctx, s.repo, s.logger)
	if err != nil {
		return nil, err
	}
	resp := toProfessorResponse(updated, teaching[updated.ProfessorID], nb)
	return &resp, nil
}
