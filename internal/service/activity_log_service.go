package service

import (
	"context"

	"go.uber.org/zap"

	"ta-assign/backend/internal/dto"
	"ta-assign/backend/internal/model"
	"ta-assign/backend/internal/repository"
)

// 活动类型
const (
	ActionAssignmentRun      = "assignment.run"
	ActionAssignmentOverride = "assignment.override"
	ActionWeightsUpdate      = "weights.update"
	ActionCourseUpdate       = "course.update"
	ActionTAUpdate           = "ta.update"
	ActionProfessorUpdate    = "professor.update"
	ActionWorkbookImport     = "import.workbook"
	ActionOnboarding         = "user.onboard"
	ActionProfileLink        = "user.link_profile"
)

const (
	defaultActivityLimit = 20
	maxActivityLimit     = 200
)

// ActivityLogService 活动日志业务接口
type ActivityLogService interface {
	Recent(ctx context.Context, limit int) ([]dto.ActivityLogResponse, error)
}

type activityLogService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewActivityLogService 创建 ActivityLogService 实例
func NewActivityLogService(repo *repository.Repository, logger *zap.Logger) ActivityLogService {
	return &activityLogService{repo: repo, logger: logger}
}

func (s *activityLogService) Recent(ctx context.Context, limit int) ([]dto.ActivityLogResponse, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}

	rows, err := s.repo.ActivityLog.ListRecent(ctx, limit)
	if err != nil {
		s.logger.Error("查询活动日志失败", zap.Error(err))
		return nil, err
	}

	list := make([]dto.ActivityLogResponse, 0, len(rows))
	for _, r := range rows {
		list = append(list, dto.ActivityLogResponse{
			ID:        r.LogID,
			ActorID:   r.ActorID,
			Action:    r.Action,
			Level:     r.Level,
			Message:   r.Message,
			CreatedAt: formatTime(r.CreatedAt),
		})
	}
	return list, nil
}

// recordActivity 写入一条活动日志；repo 可以是事务副本
func recordActivity(ctx context.Context, repo *repository.Repository, actorID, action, level, message string) error {
	return repo.ActivityLog.Create(ctx, &model.ActivityLog{
		ActorID: optionalID(actorID),
		Action:  action,
		Level:   level,
		Message: message,
	})
}
