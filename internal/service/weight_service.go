package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"ta-assign/backend/internal/dto"
	"ta-assign/backend/internal/engine"
	"ta-assign/backend/internal/model"
	"ta-assign/backend/internal/repository"
	pkgerrors "ta-assign/backend/pkg/errors"
)

// ── 权重模块业务错误 ──

var (
	ErrWeightsNotFound = errors.New("打分权重未初始化")
	ErrWeightsInvalid  = errors.New("权重必须为非负有限数")
)

// WeightService 打分权重业务接口
type WeightService interface {
	Get(ctx context.Context) (*dto.WeightsResponse, error)
	Update(ctx context.Context, req *dto.UpdateWeightsRequest, callerID string) (*dto.WeightsResponse, error)
}

type weightService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewWeightService 创建 WeightService 实例
func NewWeightService(repo *repository.Repository, logger *zap.Logger) WeightService {
	return &weightService{repo: repo, logger: logger}
}

// ────────────────────── Get ──────────────────────

func (s *weightService) Get(ctx context.Context) (*dto.WeightsResponse, error) {
	w, err := s.repo.Weight.Get(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWeightsNotFound
		}
		s.logger.Error("查询权重失败", zap.Error(err))
		return nil, err
	}
	return toWeightsResponse(w), nil
}

// ────────────────────── Update ──────────────────────

func (s *weightService) Update(ctx context.Context, req *dto.UpdateWeightsRequest, callerID string) (*dto.WeightsResponse, error) {
	w, err := s.repo.Weight.Get(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWeightsNotFound
		}
		s.logger.Error("查询权重失败", zap.Error(err))
		return nil, err
	}
	if w.Version != req.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}

	for _, f := range []struct {
		src *float64
		dst *float64
	}{
		{req.CoursePref, &w.CoursePref},
		{req.TAPref, &w.TAPref},
		{req.ProfPref, &w.ProfPref},
		{req.WorkloadBalance, &w.WorkloadBalance},
	} {
		if f.src == nil {
			continue
		}
		if *f.src < 0 || math.IsNaN(*f.src) || math.IsInf(*f.src, 0) {
			return nil, ErrWeightsInvalid
		}
		*f.dst = *f.src
	}
	w.UpdatedBy = optionalID(callerID)

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

	if err := txRepo.Weight.Update(ctx, w); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新权重失败", zap.Error(err))
		}
		return nil, err
	}
	msg := fmt.Sprintf("更新权重：course=%.2f ta=%.2f prof=%.2f workload=%.2f",
		w.CoursePref, w.TAPref, w.ProfPref, w.WorkloadBalance)
	if err := recordActivity(ctx, txRepo, callerID, ActionWeightsUpdate, model.LogLevelInfo, msg); err != nil {
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

	s.logger.Info("权重已更新",
		zap.Float64("course_pref", w.CoursePref),
		zap.Float64("ta_pref", w.TAPref),
		zap.Float64("prof_pref", w.ProfPref),
		zap.Float64("workload_balance", w.WorkloadBalance),
		zap.String("operator", callerID),
	)
	return toWeightsResponse(w), nil
}

func toWeightsResponse(w *model.AssignmentWeights) *dto.WeightsResponse {
	return &dto.WeightsResponse{
		Weights: engine.Weights{
			CoursePref:      w.CoursePref,
			TAPref:          w.TAPref,
			ProfPref:        w.ProfPref,
			WorkloadBalance: w.WorkloadBalance,
		},
		Version:   w.Version,
		UpdatedAt: formatTime(w.UpdatedAt),
	}
}
