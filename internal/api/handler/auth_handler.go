package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ta-assign/backend/config"
	"ta-assign/backend/internal/dto"
	"ta-assign/backend/internal/service"
	"ta-assign/backend/pkg/response"
)

const (
	refreshCookieName = "refresh_token"
	refreshCookiePath = "/api/v1/auth"
)

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
	cookie  *config.CookieConfig // 可为 nil：使用默认 Cookie 属性
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService, cookie *config.CookieConfig) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, cookie: cookie}
}

// Login 用户登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)
	response.OK(c, result)
}

// Register 注册账号；已登录的管理员可以创建 faculty / admin
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	user, err := h.authSvc.Register(c.Request.Context(), &req, OptionalRole(c))
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.Created(c, user)
}

// RefreshToken 刷新 Token
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	token := strings.TrimSpace(req.RefreshToken)
	if token == "" {
		token, _ = c.Cookie(refreshCookieName)
	}
	if token == "" {
		response.BadRequest(c, 10001, "缺少 Refresh Token")
		return
	}

	result, err := h.authSvc.Refresh(c.Request.Context(), token)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)
	response.OK(c, result)
}

// Logout 用户登出
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := MustGetClaims(c)
	if !ok {
		return
	}

	if err := h.authSvc.Logout(c.Request.Context(), claims); err != nil {
		response.InternalError(c)
		return
	}

	h.clearRefreshCookie(c)
	response.OK(c, nil)
}

// GetCurrentUser 当前登录用户
// GET /api/v1/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.authSvc.Me(c.Request.Context(), userID)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, user)
}

// ── Cookie ──

func (h *AuthHandler) sameSite() http.SameSite {
	if h.cookie == nil {
		return http.SameSiteLaxMode
	}
	switch strings.ToLower(h.cookie.SameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func (h *AuthHandler) writeCookie(c *gin.Context, value string, maxAge int) {
	secure, domain := false, ""
	if h.cookie != nil {
		secure, domain = h.cookie.Secure, h.cookie.Domain
	}
	c.SetSameSite(h.sameSite())
	c.SetCookie(refreshCookieName, value, maxAge, refreshCookiePath, domain, secure, true)
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	if token == "" {
		return
	}
	// 有效期由 Token 自身的 exp 控制，Cookie 作为会话 Cookie 保存
	h.writeCookie(c, token, 0)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	h.writeCookie(c, "", -1)
}

func (h *AuthHandler) handleAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, 11001, "邮箱或密码错误")
	case errors.Is(err, service.ErrInvalidRefresh):
		response.Error(c, http.StatusUnauthorized, 11002, "Refresh Token 无效或已过期")
	case errors.Is(err, service.ErrEmailExists):
		response.Conflict(c, 11003, "该邮箱已注册")
	case errors.Is(err, service.ErrRoleNotAllowed):
		response.Forbidden(c, 11004, "无权创建该角色的账号")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 11005, "用户不存在")
	default:
		response.InternalError(c)
	}
}
