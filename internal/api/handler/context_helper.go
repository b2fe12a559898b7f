package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"ta-assign/backend/pkg/jwt"
	"ta-assign/backend/pkg/response"
)

// 由 JWTAuth 中间件注入的上下文键
const (
	ctxUserID = "user_id"
	ctxRole   = "role"
	ctxClaims = "claims"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	return mustGetString(c, ctxUserID)
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	return mustGetString(c, ctxRole)
}

// MustGetCaller 同时提取 user_id 与 role
func MustGetCaller(c *gin.Context) (userID, role string, ok bool) {
	if userID, ok = MustGetUserID(c); !ok {
		return "", "", false
	}
	if role, ok = MustGetRole(c); !ok {
		return "", "", false
	}
	return userID, role, true
}

// MustGetClaims 提取当前 Access Token 的完整声明，登出时用于拉黑 jti
func MustGetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get(ctxClaims)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	if !ok || claims == nil {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	return claims, true
}

// OptionalRole 可选认证路由上的角色，未登录时为空
func OptionalRole(c *gin.Context) string {
	return c.GetString(ctxRole)
}

func mustGetString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// bindOptionalJSON 解析可省略的 JSON 请求体，空请求体保留零值。
// 分块传输时 ContentLength 为 -1，只能以 io.EOF 判断是否为空。
// 返回 false 时已写入 400 响应。
func bindOptionalJSON(c *gin.Context, obj any) bool {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return true
	}
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, 10001, "参数校验失败")
		return false
	}
	return true
}
