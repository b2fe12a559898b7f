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
	"ta-assign/backend/pkg/jwt"
	"ta-assign/backend/pkg/redis"
)

var (
	ErrAlreadyOnboarded  = errors.New("账号已完成建档")
	ErrOnboardingRole    = errors.New("仅学生或教师账号需要建档")
	ErrProfileNameTaken  = errors.New("同名档案已存在，请联系管理员认领")
	ErrProfileClaimed    = errors.New("该档案已被其他账号认领")
	ErrLinkTargetInvalid = errors.New("ta_id 与 professor_id 必须且只能填写一个")
	ErrLinkRoleMismatch  = errors.New("档案类型与账号角色不匹配")
)

const defaultOnboardingMaxUnits = 1

// OnboardingService 账号与助教 / 教授档案的关联
type OnboardingService interface {
	// Onboard 为当前账号创建本人档案并关联，每个账号只能执行一次
	Onboard(ctx context.Context, userID string, req *dto.OnboardingRequest) (*dto.UserResponse, error)
	// LinkProfile 管理员按 ID 将已有档案关联到账号
	LinkProfile(ctx context.Context, userID string, req *dto.LinkProfileRequest, callerID string) (*dto.UserResponse, error)
}

type onboardingService struct {
	repo   *repository.Repository
	rdb    *redis.Client
	logger *zap.Logger
}

// NewOnboardingService 创建 OnboardingService 实例
func NewOnboardingService(repo *repository.Repository, rdb *redis.Client, logger *zap.Logger) OnboardingService {
	return &onboardingService{repo: repo, rdb: rdb, logger: logger}
}

func (s *onboardingService) getUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}
	return user, nil
}

// ────────────────────── Onboard ──────────────────────

func (s *onboardingService) Onboard(ctx context.Context, userID string, req *dto.OnboardingRequest) (*dto.UserResponse, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.TAID != nil || user.ProfessorID != nil {
		return nil, ErrAlreadyOnboarded
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = user.Name
	}

	switch user.Role {
	case jwt.RoleStudent:
		err = s.onboardTA(ctx, user, name, req)
	case jwt.RoleFaculty:
		err = s.onboardProfessor(ctx, user, name, req)
	default:
		return nil, ErrOnboardingRole
	}
	if err != nil {
		return nil, err
	}

	invalidateResultCache(ctx, s.rdb, s.logger)
	s.logger.Info("账号建档完成",
		zap.String("user_id", user.UserID),
		zap.String("role", user.Role),
	)
	resp := toUserResponse(user)
	return &resp, nil
}

// ensureNameFree 档案姓名唯一；同名档案只能由管理员认领
func ensureNameFree(err error) error {
	if err == nil {
		return ErrProfileNameTaken
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

func (s *onboardingService) onboardTA(ctx context.Context, user *model.User, name string, req *dto.OnboardingRequest) (err error) {
	_, lookupErr := s.repo.TA.GetByName(ctx, name)
	if err = ensureNameFree(lookupErr); err != nil {
		return err
	}
	if err = ensureUnique(req.PreferredProfessorIDs); err != nil {
		return err
	}
	if err = ensureProfessorsExist(ctx, s.repo, req.PreferredProfessorIDs); err != nil {
		return err
	}
	interests, err := validateInterests(ctx, s.repo, "", req.CourseInterests)
	if err != nil {
		return err
	}

	ta := &model.TA{
		Name:     name,
		Email:    user.Email,
		Program:  strings.TrimSpace(req.Program),
		MaxUnits: defaultOnboardingMaxUnits,
		Skills:   model.StringArray(normalizeSkills(req.Skills)),
	}
	if req.Degree != "" {
		ta.Degree = normalizeDegree(req.Degree)
	}
	if req.MaxUnits != nil {
		ta.MaxUnits = *req.MaxUnits
	}
	ta.CreatedBy = optionalID(user.UserID)

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
		if err != nil && tx != nil {
			tx.Rollback()
		}
	}()
	txRepo := s.repo.WithTx(tx)

	if err = txRepo.TA.Create(ctx, ta); err != nil {
		s.logger.Error("创建助教档案失败", zap.Error(err))
		return err
	}
	if len(req.PreferredProfessorIDs) > 0 {
		if err = txRepo.TA.ReplacePreferredProfessors(ctx, ta.TAID, req.PreferredProfessorIDs); err != nil {
			s.logger.Error("写入助教教授偏好失败", zap.Error(err))
			return err
		}
	}
	if len(interests) > 0 {
		if err = txRepo.TA.ReplaceInterests(ctx, ta.TAID, interests); err != nil {
			s.logger.Error("写入助教课程兴趣失败", zap.Error(err))
			return err
		}
	}

	user.TAID = &ta.TAID
	msg := fmt.Sprintf("%s 完成助教建档", ta.Name)
	return s.finishLink(ctx, tx, txRepo, user, user.UserID, ActionOnboarding, msg)
}

func (s *onboardingService) onboardProfessor(ctx context.Context, user *model.User, name string, req *dto.OnboardingRequest) (err error) {
	_, lookupErr := s.repo.Professor.GetByName(ctx, name)
	if err = ensureNameFree(lookupErr); err != nil {
		return err
	}
	if err = ensureUnique(req.PreferredTAIDs); err != nil {
		return err
	}
	if err = ensureTAsExist(ctx, s.repo, req.PreferredTAIDs); err != nil {
		return err
	}

	prof := &model.Professor{Name: name, Email: user.Email}
	prof.CreatedBy = optionalID(user.UserID)

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
		if err != nil && tx != nil {
			tx.Rollback()
		}
	}()
	txRepo := s.repo.WithTx(tx)

	if err = txRepo.Professor.Create(ctx, prof); err != nil {
		s.logger.Error("创建教授档案失败", zap.Error(err))
		return err
	}
	if len(req.PreferredTAIDs) > 0 {
		if err = txRepo.Professor.ReplacePreferredTAs(ctx, prof.ProfessorID, req.PreferredTAIDs); err != nil {
			s.logger.Error("写入教授助教偏好失败", zap.Error(err))
			return err
		}
	}

	user.ProfessorID = &prof.ProfessorID
	msg := fmt.Sprintf("%s 完成教授建档", prof.Name)
	return s.finishLink(ctx, tx, txRepo, user, user.UserID, ActionOnboarding, msg)
}

// finishLink 在事务内保存账号关联、写入活动日志并提交；失败时由调用方回滚
func (s *onboardingService) finishLink(
	ctx context.Context,
	tx *gorm.DB,
	txRepo *repository.Repository,
	user *model.User,
	actorID, action, msg string,
) error {
	user.UpdatedBy = optionalID(actorID)
	if err := txRepo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新账号档案关联失败", zap.Error(err))
		return err
	}
	if err := recordActivity(ctx, txRepo, actorID, action, model.LogLevelInfo, msg); err != nil {
		s.logger.Error("写入活动日志失败", zap.Error(err))
		return err
	}
	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return err
		}
	}
	return nil
}

// ────────────────────── LinkProfile ──────────────────────

func (s *onboardingService) LinkProfile(ctx context.Context, userID string, req *dto.LinkProfileRequest, callerID string) (resp *dto.UserResponse, err error) {
	hasTA := req.TAID != nil && *req.TAID != ""
	hasProf := req.ProfessorID != nil && *req.ProfessorID != ""
	if hasTA == hasProf {
		return nil, ErrLinkTargetInvalid
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var label string
	if hasTA {
		if user.Role != jwt.RoleStudent {
			return nil, ErrLinkRoleMismatch
		}
		ta, err := s.repo.TA.GetByID(ctx, *req.TAID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrTANotFound
			}
			s.logger.Error("查询助教失败", zap.Error(err))
			return nil, err
		}
		owner, lookupErr := s.repo.User.GetByTAID(ctx, ta.TAID)
		if err := s.ensureUnclaimed(user, owner, lookupErr); err != nil {
			return nil, err
		}
		user.TAID = &ta.TAID
		label = "助教 " + ta.Name
	} else {
		if user.Role != jwt.RoleFaculty {
			return nil, ErrLinkRoleMismatch
		}
		prof, err := s.repo.Professor.GetByID(ctx, *req.ProfessorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrProfessorNotFound
			}
			s.logger.Error("查询教授失败", zap.Error(err))
			return nil, err
		}
		owner, lookupErr := s.repo.User.GetByProfessorID(ctx, prof.ProfessorID)
		if err := s.ensureUnclaimed(user, owner, lookupErr); err != nil {
			return nil, err
		}
		user.ProfessorID = &prof.ProfessorID
		label = "教授 " + prof.Name
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
		if err != nil && tx != nil {
			tx.Rollback()
		}
	}()

	msg := fmt.Sprintf("将%s关联到账号 %s", label, user.Email)
	if err = s.finishLink(ctx, tx, s.repo.WithTx(tx), user, callerID, ActionProfileLink, msg); err != nil {
		return nil, err
	}

	invalidateResultCache(ctx, s.rdb, s.logger)
	s.logger.Info("档案已关联",
		zap.String("user_id", user.UserID),
		zap.String("operator", callerID),
	)
	out := toUserResponse(user)
	return &out, nil
}

// ensureUnclaimed 档案未被认领或已属于该账号时放行
func (s *onboardingService) ensureUnclaimed(user, owner *model.User, lookupErr error) error {
	if lookupErr != nil {
		if errors.Is(lookupErr, gorm.ErrRecordNotFound) {
			return nil
		}
		s.logger.Error("查询档案归属失败", zap.Error(lookupErr))
		return lookupErr
	}
	if owner.UserID != user.UserID {
		return ErrProfileClaimed
	}
	return nil
}
