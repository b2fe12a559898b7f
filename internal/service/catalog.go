package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"ta-assign/backend/internal/dto"
	"ta-assign/backend/internal/engine"
	"ta-assign/backend/internal/model"
	"ta-assign/backend/internal/repository"
	pkgerrors "ta-assign/backend/pkg/errors"
	"ta-assign/backend/pkg/jwt"
	"ta-assign/backend/pkg/redis"
)

// ── 目录模块（课程 / 助教 / 教授）公共错误 ──

var (
	ErrCourseNotFound       = errors.New("课程不存在")
	ErrTANotFound           = errors.New("助教不存在")
	ErrProfessorNotFound    = errors.New("教授不存在")
	ErrDuplicatePreference  = errors.New("偏好列表中存在重复项")
	ErrInvalidInterestLevel = errors.New("兴趣等级必须为 None/Low/Medium/High")
)

// normalizeSkills 去除首尾空白、空项与重复项，保持原有顺序
func normalizeSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

// ensureUnique 有序 ID 列表不得包含重复项
func ensureUnique(ids []string) error {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return ErrDuplicatePreference
		}
		seen[id] = struct{}{}
	}
	return nil
}

// ensureProfessorsExist 校验每个教授 ID 均存在
func ensureProfessorsExist(ctx context.Context, repo *repository.Repository, ids []string) error {
	for _, id := range ids {
		if _, err := repo.Professor.GetByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProfessorNotFound
			}
			return err
		}
	}
	return nil
}

// ensureTAsExist 校验每个助教 ID 均存在
func ensureTAsExist(ctx context.Context, repo *repository.Repository, ids []string) error {
	for _, id := range ids {
		if _, err := repo.TA.GetByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTANotFound
			}
			return err
		}
	}
	return nil
}

// validateInterests 兴趣等级统一为规范写法；课程必须存在且不得重复
func validateInterests(ctx context.Context, repo *repository.Repository, taID string, in []dto.CourseInterest) ([]model.TACourseInterest, error) {
	out := make([]model.TACourseInterest, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, ci := range in {
		if _, dup := seen[ci.CourseID]; dup {
			return nil, ErrDuplicatePreference
		}
		seen[ci.CourseID] = struct{}{}

		level, err := engine.ParseInterest(ci.Level)
		if err != nil {
			return nil, ErrInvalidInterestLevel
		}
		if _, err := repo.Course.GetByID(ctx, ci.CourseID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCourseNotFound
			}
			return nil, err
		}
		out = append(out, model.TACourseInterest{
			TAID:          taID,
			CourseID:      ci.CourseID,
			InterestLevel: string(level),
		})
	}
	return out, nil
}

// isCatalogError 目录模块的业务错误，无需记录错误日志
func isCatalogError(err error) bool {
	for _, target := range []error{
		ErrCourseNotFound, ErrTANotFound, ErrProfessorNotFound,
		ErrDuplicatePreference, ErrInvalidInterestLevel,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// callerProfile 查询操作者关联的助教 / 教授档案 ID
func callerProfile(ctx context.Context, repo *repository.Repository, callerID string) (taID, professorID string, err error) {
	user, err := repo.User.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", pkgerrors.ErrForbidden
		}
		return "", "", err
	}
	if user.TAID != nil {
		taID = *user.TAID
	}
	if user.ProfessorID != nil {
		professorID = *user.ProfessorID
	}
	return taID, professorID, nil
}

// authorizeProfessor 管理员可操作任意教授；教师只能操作本人档案
func authorizeProfessor(ctx context.Context, repo *repository.Repository, callerID, callerRole string, professorIDs ...string) error {
	if callerRole == jwt.RoleAdmin {
		return nil
	}
	if callerRole != jwt.RoleFaculty {
		return pkgerrors.ErrForbidden
	}
	_, own, err := callerProfile(ctx, repo, callerID)
	if err != nil {
		return err
	}
	for _, id := range professorIDs {
		if id == own && own != "" {
			return nil
		}
	}
	return pkgerrors.ErrForbidden
}

// authorizeTA 管理员可操作任意助教；学生只能操作本人档案
func authorizeTA(ctx context.Context, repo *repository.Repository, callerID, callerRole, taID string) error {
	if callerRole == jwt.RoleAdmin {
		return nil
	}
	if callerRole != jwt.RoleStudent {
		return pkgerrors.ErrForbidden
	}
	own, _, err := callerProfile(ctx, repo, callerID)
	if err != nil {
		return err
	}
	if own == "" || own != taID {
		return pkgerrors.ErrForbidden
	}
	return nil
}

// assignedIndex 当前分配的双向索引：课程 → 助教（按 position），助教 → 课程
func assignedIndex(ctx context.Context, repo *repository.Repository) (byCourse, byTA map[string][]string, err error) {
	rows, err := repo.Assignment.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	byCourse = make(map[string][]string)
	byTA = make(map[string][]string)
	for _, r := range rows {
		byCourse[r.CourseID] = append(byCourse[r.CourseID], r.TAID)
		byTA[r.TAID] = append(byTA[r.TAID], r.CourseID)
	}
	return byCourse, byTA, nil
}

// invalidateResultCache 目录变更后清除已保存结果的缓存
func invalidateResultCache(ctx context.Context, rdb *redis.Client, logger *zap.Logger) {
	if rdb == nil {
		return
	}
	if err := rdb.InvalidateResult(ctx); err != nil {
		logger.Warn("清除分配结果缓存失败", zap.Error(err))
	}
}

func sortedStrings(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
