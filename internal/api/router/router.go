package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ta-assign/backend/config"
	"ta-assign/backend/internal/api/handler"
	"ta-assign/backend/internal/api/middleware"
	"ta-assign/backend/pkg/jwt"
	"ta-assign/backend/pkg/redis"
)

const (
	jsonBodyLimit   = 1 << 20  // 1MB
	uploadBodyLimit = 10 << 20 // 工作簿上传 10MB

	loginRateLimit  = 10 // 每 IP 每分钟登录 / 注册次数
	runRateLimit    = 6  // 每用户每分钟运行分配次数
	rateLimitWindow = time.Minute

	healthTimeout = 2 * time.Second
)

// Deps 路由所需的外部依赖；DB、Redis、Registry 均可为 nil
type Deps struct {
	Config   *config.Config
	Handler  *handler.Handler
	JWT      *jwt.Manager
	Redis    *redis.Client
	DB       *gorm.DB
	Registry *prometheus.Registry
	Logger   *zap.Logger
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(d Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	cfg, h, logger := d.Config, d.Handler, d.Logger
	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	if d.Registry != nil {
		r.Use(middleware.Metrics())
	}

	// ── 健康检查 / 指标 ──
	r.GET("/health", healthHandler(d.DB, d.Redis))
	if d.Registry != nil && cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))
	}

	jwtAuth := middleware.JWTAuth(d.JWT, d.Redis, logger)
	adminOnly := middleware.RoleAuth(jwt.RoleAdmin)
	staff := middleware.RoleAuth(jwt.RoleAdmin, jwt.RoleFaculty)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		api := v1.Group("", middleware.BodyLimit(jsonBodyLimit))

		// 认证模块（无需认证）
		auth := api.Group("/auth")
		{
			loginLimit := middleware.RateLimit(d.Redis, loginRateLimit, rateLimitWindow)
			auth.POST("/login", loginLimit, h.Auth.Login)
			auth.POST("/register", loginLimit, middleware.OptionalAuth(d.JWT, d.Redis, logger), h.Auth.Register)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := api.Group("", jwtAuth)
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)

			// 建档：学生 / 教师创建本人档案；已有档案由管理员按 ID 关联
			authorized.POST("/onboarding", h.Onboarding.Onboard)
			authorized.PUT("/users/:id/profile", adminOnly, h.Onboarding.LinkProfile)

			// 分配模块
			assignments := authorized.Group("/assignments")
			{
				assignments.GET("", h.Assignment.GetSaved)
				assignments.POST("/run", adminOnly,
					middleware.RateLimit(d.Redis, runRateLimit, rateLimitWindow), h.Assignment.RunAssignment)
				assignments.POST("/override", adminOnly, h.Assignment.Override)
				assignments.GET("/runs", staff, h.Assignment.ListRuns)
				assignments.GET("/runs/:id", staff, h.Assignment.GetRun)
			}

			// 打分权重
			authorized.GET("/weights", h.Weight.GetWeights)
			authorized.PUT("/weights", adminOnly, h.Weight.UpdateWeights)

			// 课程：教师仅能修改本人课程（Service 层鉴权）
			courses := authorized.Group("/courses")
			{
				courses.GET("", h.Catalog.ListCourses)
				courses.GET("/:id", h.Catalog.GetCourse)
				courses.PUT("/:id", staff, h.Catalog.UpdateCourse)
			}

			// 助教：学生仅能修改本人档案（Service 层鉴权）
			tas := authorized.Group("/tas")
			{
				tas.GET("", h.Catalog.ListTAs)
				tas.GET("/:id", h.Catalog.GetTA)
				tas.PUT("/:id", h.Catalog.UpdateTA)
			}

			// 教授偏好：教师仅能修改本人（Service 层鉴权）
			professors := authorized.Group("/professors")
			{
				professors.GET("", h.Catalog.ListProfessors)
				professors.PUT("/:id/preferences", staff, h.Catalog.UpdateProfessorPreferences)
			}

			authorized.GET("/dashboard", h.Dashboard.Summary)
			authorized.GET("/activity-logs", staff, h.Dashboard.ActivityLogs)

			// 导出模块
			authorized.GET("/export/assignments", staff, h.Export.ExportAssignments)
		}

		// 导入模块：上传体积上限单独放宽
		imports := v1.Group("/import", middleware.BodyLimit(uploadBodyLimit), jwtAuth, adminOnly)
		{
			imports.POST("/workbook", h.Import.ImportWorkbook)
		}
	}

	return r
}

// healthHandler 数据库不可用时返回 503；Redis 为可选依赖，仅报告状态
func healthHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		status, code := "ok", http.StatusOK
		dbState := "disabled"
		if db != nil {
			dbState = "up"
			if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
				dbState, status, code = "down", "degraded", http.StatusServiceUnavailable
			}
		}

		redisState := "disabled"
		if rdb != nil {
			redisState = "up"
			if err := rdb.Ping(ctx); err != nil {
				redisState = "down"
			}
		}

		c.JSON(code, gin.H{"status": status, "database": dbState, "redis": redisState})
	}
}
