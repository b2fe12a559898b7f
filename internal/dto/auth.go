package dto

// ── 认证模块 DTO ──

// LoginRequest 登录请求
type LoginRequest struct {
	Email      string `json:"email"    binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

// RegisterRequest 注册请求；role 为空时默认为 student，创建 admin 需管理员身份
type RegisterRequest struct {
	Name     string `json:"name"     binding:"required,min=2,max=100"`
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=64"`
	Role     string `json:"role"     binding:"omitempty,oneof=admin faculty student"`
}

// RefreshTokenRequest 刷新请求；请求体为空时从 refresh_token Cookie 读取
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}
