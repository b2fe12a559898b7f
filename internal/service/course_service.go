package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"ta-assign/backend/internal/dto"
	"ta-assign/backend/internal/model"
	"ta-assign/backend/internal/repository"
	pkgerrors "ta-assign/backend/pkg/errors"
	"ta-assign/backend/pkg/redis"
)

// CourseService 课程业务接口
type CourseService interface {
	List(ctx context.Context) ([]dto.CourseResponse, error)
	Get(ctx context.Context, id string) (*dto.CourseResponse, error)
	// Update 管理员可修改任意课程，教师仅能修改本人任教的课程
	Update(ctx context.Context, id string, req *dto.UpdateCourseRequest, callerID, callerRole string) (*dto.CourseResponse, error)
}

type courseService struct {
	repo   *repository.Repository
	rdb    *redis.Client
	logger *zap.Logger
}

// NewCourseService 创建 CourseService 实例
func NewCourseService(repo *repository.Repository, rdb *redis.Client, logger *zap.Logger) CourseService {
	return &courseService{repo: repo, rdb: rdb, logger: logger}
}

// ────────────────────── List / Get ──────────────────────

func (s *courseService) List(ctx context.Context) ([]dto.CourseResponse, error) {
	courses, err := s.repo.Course.List(ctx)
	if err != nil {
		s.logger.Error("查询课程列表失败", zap.Error(err))
		return nil, err
	}
	names, err := s.names(ctx)
	if err != nil {
		return nil, err
	}
	byCourse, _, err := assignedIndex(ctx, s.repo)
	if err != nil {
		s.logger.Error("查询当前分配失败", zap.Error(err))
		return nil, err
	}

	list := make([]dto.CourseResponse, 0, len(courses))
	for i := range courses {
		list = append(list, toCourseResponse(&courses[i], byCourse[courses[i].CourseID], names))
	}
	return list, nil
}

func (s *courseService) Get(ctx context.Context, id string) (*dto.CourseResponse, error) {
	course, err := s.repo.Course.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.Error(err))
		return nil, err
	}
	names, err := s.names(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.Assignment.ListByCourse(ctx, id)
	if err != nil {
		s.logger.Error("查询课程分配失败", zap.Error(err))
		return nil, err
	}
	taIDs := make([]string, 0, len(rows))
	for _, r := range rows {
		taIDs = append(taIDs, r.TAID)
	}
	resp := toCourseResponse(course, taIDs, names)
	return &resp, nil
}

// nameBook 助教与教授的 ID → 姓名
type nameBook struct {
	tas        map[string]string
	professors map[string]string
}

func (s *courseService) names(ctx context.Context) (*nameBook, error) {
	return loadNameBook(ctx, s.repo, s.logger)
}

func loadNameBook(ctx context.Context, repo *repository.Repository, logger *zap.Logger) (*nameBook, error) {
	tas, err := repo.TA.List(ctx)
	if err != nil {
		logger.Error("查询助教列表失败", zap.Error(err))
		return nil, err
	}
	professors, err := repo.Professor.List(ctx)
	if err != nil {
		logger.Error("查询教授列表失败", zap.Error(err))
		return nil, err
	}
	nb := &nameBook{
		tas:        make(map[string]string, len(tas)),
		professors: make(map[string]string, len(professors)),
	}
	for _, t := range tas {
		nb.tas[t.TAID] = t.Name
	}
	for _, p := range professors {
		nb.professors[p.ProfessorID] = p.Name
	}
	return nb, nil
}

func toCourseResponse(c *model.Course, taIDs []string, nb *nameBook) dto.CourseResponse {
	profs := make([]dto.ProfessorBrief, 0, len(c.Professors))
	for _, cp := range c.Professors {
		name := nb.professors[cp.ProfessorID]
		if cp.Professor != nil {
			name = cp.Professor.Name
		}
		profs = append(profs, dto.ProfessorBrief{ID: cp.ProfessorID, Name: name})
	}
	assigned := make([]dto.TABrief, 0, len(taIDs))
	for _, id := range taIDs {
		assigned = append(assigned, dto.TABrief{ID: id, Name: nb.tas[id]})
	}
	skills := []string(c.RequiredSkills)
	if skills == nil {
		skills = []string{}
	}
	return dto.CourseResponse{
		ID:              c.CourseID,
		Code:            c.CourseCode,
		Title:           c.Title,
		NumTAsRequested: c.NumTAsRequested,
		NumTAsAssigned:  len(taIDs),
		RequiredSkills:  skills,
		Professors:      profs,
		AssignedTAs:     assigned,
		Version:         c.Version,
	}
}

// ────────────────────── Update ──────────────────────

func (s *courseService) Update(ctx context.Context, id string, req *dto.UpdateCourseRequest, callerID, callerRole string) (*dto.CourseResponse, error) {
	course, err := s.repo.Course.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.Error(err))
		return nil, err
	}

	teaching := make([]string, 0, len(course.Professors))
	for _, cp := range course.Professors {
		teaching = append(teaching, cp.ProfessorID)
	}
	if err := authorizeProfessor(ctx, s.repo, callerID, callerRole, teaching...); err != nil {
		return nil, err
	}
	if course.Version != req.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}

	if req.Title != nil {
		course.Title = strings.TrimSpace(*req.Title)
	}
	if req.NumTAsRequested != nil {
		course.NumTAsRequested = *req.NumTAsRequested
	}
	if req.RequiredSkills != nil {
		course.RequiredSkills = model.StringArray(normalizeSkills(req.RequiredSkills))
	}
	if req.ProfessorIDs != nil {
		if err := ensureUnique(req.ProfessorIDs); err != nil {
			return nil, err
		}
		if err := ensureProfessorsExist(ctx, s.repo, req.ProfessorIDs); err != nil {
			return nil, err
		}
	}
	course.UpdatedBy = optionalID(callerID)

	// 事务：基础字段 + 教授列表 + 活动日志
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

	if err := txRepo.Course.Update(ctx, course); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新课程失败", zap.Error(err))
		}
		return nil, err
	}
	if req.ProfessorIDs != nil {
		if err := txRepo.Course.ReplaceProfessors(ctx, course.CourseID, req.ProfessorIDs); err != nil {
			if tx != nil {
				tx.Rollback()
			}
			s.logger.Error("更新课程教授失败", zap.Error(err))
			return nil, err
		}
	}
	msg := fmt.Sprintf("更新课程 %s：需求 %d 人", course.CourseCode, course.NumTAsRequested)
	if err := recordActivity(ctx, txRepo, callerID, ActionCourseUpdate, model.LogLevelInfo, msg); err != nil {
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
	s.logger.Info("课程已更新",
		zap.String("course", course.CourseCode),
		zap.Int("num_tas_requested", course.NumTAsRequested),
		zap.String("operator", callerID),
	)
	return s.Get(ctx, course.CourseID)
}
