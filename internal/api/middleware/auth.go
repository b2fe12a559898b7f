package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ta-assign/backend/pkg/jwt"
	"ta-assign/backend/pkg/redis"
	"ta-assign/backend/pkg/response"
)

const blacklistCheckTimeout = 500 * time.Millisecond

// 与 handler 包约定的上下文键
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
	CtxClaims = "claims"
)

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证 Access Token，并检查 jti 黑名单。
// rdb 为 nil 或 Redis 出错时跳过黑名单检查（降级放行）
func JWTAuth(jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			response.Unauthorized(c, 10002, "缺少或无效的认证头")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(token)
		if err != nil {
			response.Unauthorized(c, 10002, "Token 无效或已过期")
			c.Abort()
			return
		}
		if claims.TokenType != jwt.TokenTypeAccess {
			response.Unauthorized(c, 10002, "Token 类型无效")
			c.Abort()
			return
		}

		if revoked(c.Request.Context(), rdb, claims, logger) {
			response.Unauthorized(c, 10002, "Token 已注销")
			c.Abort()
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuth 可选认证：携带合法 Access Token 时注入身份，否则以匿名身份继续
func OptionalAuth(jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}
		claims, err := jwtMgr.ParseToken(token)
		if err != nil || claims.TokenType != jwt.TokenTypeAccess || revoked(c.Request.Context(), rdb, claims, logger) {
			c.Next()
			return
		}
		setIdentity(c, claims)
		c.Next()
	}
}

// RoleAuth 角色权限中间件
// 检查当前用户是否具有指定角色之一
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := c.GetString(CtxRole)
		if userRole == "" {
			response.Unauthorized(c, 10002, "未认证")
			c.Abort()
			return
		}

		for _, r := range allowedRoles {
			if userRole == r {
				c.Next()
				return
			}
		}

		response.Forbidden(c, 10003, "无权限访问")
		c.Abort()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func revoked(ctx context.Context, rdb *redis.Client, claims *jwt.Claims, logger *zap.Logger) bool {
	if rdb == nil || claims.ID == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, blacklistCheckTimeout)
	defer cancel()

	hit, err := rdb.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		if logger != nil {
			logger.Warn("黑名单检查失败，降级放行", zap.String("jti", claims.ID), zap.Error(err))
		}
		return false
	}
	return hit
}

func setIdentity(c *gin.Context, claims *jwt.Claims) {
	c.Set(CtxUserID, claims.UserID)
	c.Set(CtxRole, claims.Role)
	c.Set(CtxClaims, claims)
}
