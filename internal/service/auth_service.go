package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"ta-assign/backend/config"
	"ta-assign/backend/internal/dto"
	"ta-assign/backend/internal/model"
	"ta-assign/backend/internal/repository"
	"ta-assign/backend/pkg/jwt"
	"ta-assign/backend/pkg/redis"
)

var (
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrUserNotFound       = errors.New("用户不存在")
	ErrEmailExists        = errors.New("邮箱已被注册")
	ErrRoleNotAllowed     = errors.New("仅管理员可创建该角色账号")
	ErrInvalidRefresh     = errors.New("Refresh Token 无效")
)

// AuthService 认证业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	// Register 注册账号；callerRole 为空表示匿名自助注册，只能创建 student
	Register(ctx context.Context, req *dto.RegisterRequest, callerRole string) (*dto.UserResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	// Logout 将当前 Access Token 的 jti 加入黑名单
	Logout(ctx context.Context, claims *jwt.Claims) error
	Me(ctx context.Context, userID string) (*dto.UserResponse, error)
	// EnsureAdmin 邮箱不存在时创建管理员账号，已存在则不做修改
	EnsureAdmin(ctx context.Context, name, email, password string) (bool, error)
}

type authService struct {
	cfg    *config.Config
	repo   *repository.Repository
	jwtMgr *jwt.Manager
	rdb    *redis.Client // 可为 nil：Redis 不可用时登出仅依赖 Token 自然过期
	logger *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:    cfg,
		repo:   repo,
		jwtMgr: jwtMgr,
		rdb:    rdb,
		logger: logger,
	}
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	// 1. 查询用户
	user, err := s.repo.User.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 2. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. 生成 Token 对
	return s.issueTokens(user, req.RememberMe)
}

func (s *authService) issueTokens(user *model.User, rememberMe bool) (*dto.TokenResponse, error) {
	accessToken, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Role)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.UserID, user.Role, rememberMe)
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.cfg.Auth.AccessTokenTTL.Seconds()),
		User:         toUserResponse(user),
	}, nil
}

// ────────────────────── Register ──────────────────────

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest, callerRole string) (*dto.UserResponse, error) {
	role := req.Role
	if role == "" {
		role = jwt.RoleStudent
	}
	if role != jwt.RoleStudent && callerRole != jwt.RoleAdmin {
		return nil, ErrRoleNotAllowed
	}

	email := normalizeEmail(req.Email)
	if _, err := s.repo.User.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}

	// 注册不关联任何档案：学生 / 教师通过建档创建本人档案，已导入的档案由管理员按 ID 认领
	if err := s.repo.User.Create(ctx, user); err != nil {
		s.logger.Error("创建用户失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("用户注册成功",
		zap.String("user_id", user.UserID),
		zap.String("role", user.Role),
	)

	resp := toUserResponse(user)
	return &resp, nil
}

// ────────────────────── Refresh ──────────────────────

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil || claims.TokenType != jwt.TokenTypeRefresh {
		return nil, ErrInvalidRefresh
	}
	if s.rdb != nil {
		if revoked, err := s.rdb.IsBlacklisted(ctx, claims.ID); err == nil && revoked {
			return nil, ErrInvalidRefresh
		}
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefresh
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 旧 Refresh Token 轮换后作废
	if s.rdb != nil {
		if err := s.rdb.BlacklistToken(ctx, claims.ID, claims.RemainingTTL()); err != nil {
			s.logger.Warn("Refresh Token 加入黑名单失败", zap.Error(err))
		}
	}

	return s.issueTokens(user, claims.RememberMe)
}

// ────────────────────── Logout ──────────────────────

func (s *authService) Logout(ctx context.Context, claims *jwt.Claims) error {
	if claims == nil || claims.ID == "" {
		return nil
	}
	if s.rdb == nil {
		s.logger.Warn("Redis 不可用，登出仅依赖 Token 过期", zap.String("user_id", claims.UserID))
		return nil
	}
	if err := s.rdb.BlacklistToken(ctx, claims.ID, claims.RemainingTTL()); err != nil {
		s.logger.Error("Token 加入黑名单失败", zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Me ──────────────────────

func (s *authService) Me(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// ────────────────────── EnsureAdmin ──────────────────────

func (s *authService) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	email = normalizeEmail(email)
	if _, err := s.repo.User.GetByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	user := &model.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         jwt.RoleAdmin,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		return false, err
	}

	s.logger.Info("已创建初始管理员", zap.String("email", email))
	return true, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:          u.UserID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		TAID:        u.TAID,
		ProfessorID: u.ProfessorID,
		CreatedAt:   formatTime(u.CreatedAt),
	}
}
