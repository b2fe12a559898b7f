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
	pkgerrors "ta-assign/backend/pkg/errors"
	"ta-assign/backend/pkg/redis"
)

// TAService 助教业务接口
type TAService interface {
	List(ctx context.Context) ([]dto.TAResponse, error)
	Get(ctx context.Context, id string) (*dto.TAResponse, error)
	// Update 管理员可修改任意助教，学生仅能修改本人档案
	Update(ctx context.Context, id string, req *dto.UpdateTARequest, callerID, callerRole string) (*dto.TAResponse, error)
}

type taService struct {
	repo   *repository.Repository
	rdb    *redis.Client
	logger *zap.Logger
}

// NewTAService 创建 TAService 实例
func NewTAService(repo *repository.Repository, rdb *redis.Client, logger *zap.Logger) TAService {
	return &taService{repo: repo, rdb: rdb, logger: logger}
}

// ────────────────────── List / Get ──────────────────────

func (s *taService) List(ctx context.Context) ([]dto.TAResponse, error) {
	tas, err := s.repo.TA.List(ctx)
	if err != nil {
		s.logger.Error("查询助教列表失败", zap.Error(err))
		return nil, err
	}
	codes, nb, err := s.lookups(ctx)
	if err != nil {
		return nil, err
	}
	_, byTA, err := assignedIndex(ctx, s.repo)
	if err != nil {
		s.logger.Error("查询当前分配失败", zap.Error(err))
		return nil, err
	}

	list := make([]dto.TAResponse, 0, len(tas))
	for i := range tas {
		list = append(list, toTAResponse(&tas[i], byTA[tas[i].TAID], codes, nb))
	}
	return list, nil
}

func (s *taService) Get(ctx context.Context, id string) (*dto.TAResponse, error) {
	ta, err := s.repo.TA.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTANotFound
		}
		s.logger.Error("查询助教失败", zap.Error(err))
		return nil, err
	}
	codes, nb, err := s.lookups(ctx)
	if err != nil {
		return nil, err
	}
	_, byTA, err := assignedIndex(ctx, s.repo)
	if err != nil {
		s.logger.Error("查询当前分配失败", zap.Error(err))
		return nil, err
	}
	resp := toTAResponse(ta, byTA[ta.TAID], codes, nb)
	return &resp, nil
}

// lookups 课程 ID → 课程代码，以及姓名表
func (s *taService) lookups(ctx context.Context) (map[string]string, *nameBook, error) {
	courses, err := s.repo.Course.List(ctx)
	if err != nil {
		s.logger.Error("查询课程列表失败", zap.Error(err))
		return nil, nil, err
	}
	codes := make(map[string]string, len(courses))
	for _, c := range courses {
		codes[c.CourseID] = c.CourseCode
	}
	nb, err := loadNameBook(ctx, s.repo, s.logger)
	if err != nil {
		return nil, nil, err
	}
	return codes, nb, nil
}

func toTAResponse(ta *model.TA, courseIDs []string, codes map[string]string, nb *nameBook) dto.TAResponse {
	prefs := make([]dto.ProfessorBrief, 0, len(ta.PreferredProfessors))
	for _, p := range ta.PreferredProfessors {
		prefs = append(prefs, dto.ProfessorBrief{ID: p.ProfessorID, Name: nb.professors[p.ProfessorID]})
	}
	interests := make([]dto.CourseInterest, 0, len(ta.CourseInterests))
	for _, ci := range ta.CourseInterests {
		interests = append(interests, dto.CourseInterest{
			CourseID:   ci.CourseID,
			CourseCode: codes[ci.CourseID],
			Level:      ci.InterestLevel,
		})
	}
	assigned := make([]string, 0, len(courseIDs))
	for _, id := range courseIDs {
		assigned = append(assigned, codes[id])
	}
	skills := []string(ta.Skills)
	if skills == nil {
		skills = []string{}
	}
	return dto.TAResponse{
		ID:                  ta.TAID,
		Name:                ta.Name,
		Email:               ta.Email,
		Program:             ta.Program,
		Degree:              ta.Degree,
		MaxUnits:            ta.MaxUnits,
		Skills:              skills,
		PreferredProfessors: prefs,
		CourseInterests:     interests,
		AssignedCourses:     sortedStrings(assigned),
		Version:             ta.Version,
	}
}

// ────────────────────── Update ──────────────────────

func (s *taService) Update(ctx context.Context, id string, req *dto.UpdateTARequest, callerID, callerRole string) (*dto.TAResponse, error) {
	ta, err := s.repo.TA.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTANotFound
		}
		s.logger.Error("查询助教失败", zap.Error(err))
		return nil, err
	}
	if err := authorizeTA(ctx, s.repo, callerID, callerRole, ta.TAID); err != nil {
		return nil, err
	}
	if ta.Version != req.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}

	if req.MaxUnits != nil {
		ta.MaxUnits = *req.MaxUnits
	}
	if req.Skills != nil {
		ta.Skills = model.StringArray(normalizeSkills(req.Skills))
	}
	if req.PreferredProfessorIDs != nil {
		if err := ensureUnique(req.PreferredProfessorIDs); err != nil {
			return nil, err
		}
		if err := ensureProfessorsExist(ctx, s.repo, req.PreferredProfessorIDs); err != nil {
			return nil, err
		}
	}
	var interests []model.TACourseInterest
	if req.CourseInterests != nil {
		interests, err = validateInterests(ctx, s.repo, ta.TAID, req.CourseInterests)
		if err != nil {
			if !isCatalogError(err) {
				s.logger.Error("校验课程兴趣失败", zap.Error(err))
			}
			return nil, err
		}
	}
	ta.UpdatedBy = optionalID(callerID)

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

	if err := txRepo.TA.Update(ctx, ta); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新助教失败", zap.Error(err))
		}
		return nil, err
	}
	if req.PreferredProfessorIDs != nil {
		if err := txRepo.TA.ReplacePreferredProfessors(ctx, ta.TAID, req.PreferredProfessorIDs); err != nil {
			if tx != nil {
				tx.Rollback()
			}
			s.logger.Error("更新助教教授偏好失败", zap.Error(err))
			return nil, err
		}
	}
	if req.CourseInterests != nil {
		if err := txRepo.TA.ReplaceInterests(ctx, ta.TAID, interests); err != nil {
			if tx != nil {
				tx.Rollback()
			}
			s.logger.Error("更新助教课程兴趣失败", zap.Error(err))
			return nil, err
		}
	}
	msg := fmt.Sprintf("更新助教 %s：上限 %d 门", ta.Name, ta.MaxUnits)
	if err := recordActivity(ctx, txRepo, callerID, ActionTAUpdate, model.LogLevelInfo, msg); err != nil {
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
	s.logger.Info("助教已更新",
		zap.String("ta_id", ta.TAID),
		zap.Int("max_units", ta.MaxUnits),
		zap.String("operator", callerID),
	)
	return s.Get(ctx, ta.TAID)
}
