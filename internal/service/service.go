package service

import (
	"go.uber.org/zap"

	"ta-assign/backend/config"
	"ta-assign/backend/internal/repository"
	"ta-assign/backend/pkg/jwt"
	"ta-assign/backend/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth        AuthService
	Assignment  AssignmentService
	Weight      WeightService
	Course      CourseService
	TA          TAService
	Professor   ProfessorService
	Dashboard   DashboardService
	ActivityLog ActivityLogService
	Import      ImportService
	Export      ExportService
	Onboarding  OnboardingService
}

// NewService 创建 Service 聚合；rdb 为 nil 时各模块降级运行
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:        NewAuthService(cfg, repo, jwtMgr, rdb, logger),
		Assignment:  NewAssignmentService(cfg.Assignment, repo, rdb, logger),
		Weight:      NewWeightService(repo, logger),
		Course:      NewCourseService(repo, rdb, logger),
		TA:          NewTAService(repo, rdb, logger),
		Professor:   NewProfessorService(repo, rdb, logger),
		Dashboard:   NewDashboardService(repo, logger),
		ActivityLog: NewActivityLogService(repo, logger),
		Import:      NewImportService(repo, rdb, logger),
		Export:      NewExportService(repo, logger),
		Onboarding:  NewOnboardingService(repo, rdb, logger),
	}
}
