package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"ta-assign/backend/internal/service"
	"ta-assign/backend/pkg/response"
)

// DashboardHandler 仪表盘与操作日志 HTTP 处理器
type DashboardHandler struct {
	dashboardSvc   service.DashboardService
	activityLogSvc service.ActivityLogService
}

// NewDashboardHandler 创建 DashboardHandler
func NewDashboardHandler(dashboardSvc service.DashboardService, activityLogSvc service.ActivityLogService) *DashboardHandler {
	return &DashboardHandler{dashboardSvc: dashboardSvc, activityLogSvc: activityLogSvc}
}

// Summary 汇总统计
// GET /api/v1/dashboard
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.dashboardSvc.Summary(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, summary)
}

// ActivityLogs 最近的操作日志
// GET /api/v1/activity-logs?limit=20
func (h *DashboardHandler) ActivityLogs(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.BadRequest(c, 10001, "limit 必须为非负整数")
			return
		}
		limit = n
	}

	logs, err := h.activityLogSvc.Recent(c.Request.Context(), limit)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": logs})
}
