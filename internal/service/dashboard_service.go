package service

import (
	"context"

	"go.uber.org/zap"

	"ta-assign/backend/internal/dto"
	"ta-assign/backend/internal/repository"
)

// DashboardService 仪表盘业务接口
type DashboardService interface {
	Summary(ctx context.Context) (*dto.DashboardResponse, error)
}

type dashboardService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewDashboardService 创建 DashboardService 实例
func NewDashboardService(repo *repository.Repository, logger *zap.Logger) DashboardService {
	return &dashboardService{repo: repo, logger: logger}
}

// Summary 统计课程、助教、教授数量与当前分配缺口。
// 缺口按课程计算 max(需求 − 已分配, 0)，超额分配不抵消其他课程的缺口。
func (s *dashboardService) Summary(ctx context.Context) (*dto.DashboardResponse, error) {
	courses, err := s.repo.Course.List(ctx)
	if err != nil {
		s.logger.Error("查询课程列表失败", zap.Error(err))
		return nil, err
	}
	tas, err := s.repo.TA.List(ctx)
	if err != nil {
		s.logger.Error("查询助教列表失败", zap.Error(err))
		return nil, err
	}
	professors, err := s.repo.Professor.List(ctx)
	if err != nil {
		s.logger.Error("查询教授列表失败", zap.Error(err))
		return nil, err
	}
	rows, err := s.repo.Assignment.List(ctx)
	if err != nil {
		s.logger.Error("查询当前分配失败", zap.Error(err))
		return nil, err
	}

	assigned := make(map[string]int, len(courses))
	for _, r := range rows {
		assigned[r.CourseID]++
	}

	resp := &dto.DashboardResponse{
		Courses:    len(courses),
		TAs:        len(tas),
		Professors: len(professors),
		Assigned:   len(rows),
	}
	for _, c := range courses {
		resp.Requested += c.NumTAsRequested
		if gap := c.NumTAsRequested - assigned[c.CourseID]; gap > 0 {
			resp.Unassigned += gap
			resp.UnfilledCourses++
		}
	}
	return resp, nil
}
