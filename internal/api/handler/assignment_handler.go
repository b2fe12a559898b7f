package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ta-assign/backend/internal/dto"
	"ta-assign/backend/internal/service"
	"ta-assign/backend/pkg/response"
)

// AssignmentHandler 分配模块 HTTP 处理器
type AssignmentHandler struct {
	assignmentSvc service.AssignmentService
}

// NewAssignmentHandler 创建 AssignmentHandler
func NewAssignmentHandler(assignmentSvc service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentSvc: assignmentSvc}
}

// RunAssignment 运行分配引擎
// POST /api/v1/assignments/run
func (h *AssignmentHandler) RunAssignment(c *gin.Context) {
	var req dto.RunAssignmentRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.assignmentSvc.Run(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.OK(c, result)
}

// GetSaved 当前已保存的分配
// GET /api/v1/assignments
func (h *AssignmentHandler) GetSaved(c *gin.Context) {
	result, err := h.assignmentSvc.GetSaved(c.Request.Context())
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.OK(c, result)
}

// Override 手动调整单门课程的助教名单
// POST /api/v1/assignments/override
func (h *AssignmentHandler) Override(c *gin.Context) {
	var req dto.OverrideAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.assignmentSvc.Override(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.OK(c, result)
}

// ListRuns 运行历史
// GET /api/v1/assignments/runs?page=1&page_size=20
func (h *AssignmentHandler) ListRuns(c *gin.Context) {
	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.assignmentSvc.ListRuns(c.Request.Context(), &page)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.OKPage(c, list, total, page.GetPage(), page.GetPageSize())
}

// GetRun 运行快照详情
// GET /api/v1/assignments/runs/:id
func (h *AssignmentHandler) GetRun(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "运行ID不能为空")
		return
	}

	detail, err := h.assignmentSvc.GetRun(c.Request.Context(), id)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.OK(c, detail)
}

func (h *AssignmentHandler) handleAssignmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAssignmentInputInvalid):
		// 输入被引擎拒绝，与部分填充的正常结果区分开
		details := strings.TrimPrefix(err.Error(), service.ErrAssignmentInputInvalid.Error()+": ")
		response.Unprocessable(c, 12001, "分配输入数据不合法", details)
	case errors.Is(err, service.ErrAssignmentBusy):
		response.Error(c, http.StatusConflict, 12002, "已有分配任务正在运行，请稍后重试")
	case errors.Is(err, service.ErrRunNotFound):
		response.NotFound(c, 12003, "分配记录不存在")
	case errors.Is(err, service.ErrOverrideEmpty):
		response.BadRequest(c, 12004, "未指定任何调整")
	case errors.Is(err, service.ErrOverrideNotAssigned):
		response.BadRequest(c, 12005, "助教不在该课程名单中")
	case errors.Is(err, service.ErrOverrideDuplicate):
		response.Conflict(c, 12006, "助教已在该课程名单中")
	case errors.Is(err, service.ErrOverrideExceedsDemand):
		response.Conflict(c, 12007, "超出课程需求人数")
	case errors.Is(err, service.ErrOverrideOverCapacity):
		response.Conflict(c, 12008, "助教已达到可承担课程上限")
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 14001, "课程不存在")
	case errors.Is(err, service.ErrTANotFound):
		response.NotFound(c, 14002, "助教不存在")
	default:
		response.InternalError(c)
	}
}
