package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"ta-assign/backend/internal/dto"
	"ta-assign/backend/internal/service"
	"ta-assign/backend/pkg/response"
)

// OnboardingHandler 建档与档案关联
type OnboardingHandler struct {
	onboardingSvc service.OnboardingService
}

// NewOnboardingHandler 创建 OnboardingHandler
func NewOnboardingHandler(onboardingSvc service.OnboardingService) *OnboardingHandler {
	return &OnboardingHandler{onboardingSvc: onboardingSvc}
}

// Onboard 当前账号建档
// POST /api/v1/onboarding
func (h *OnboardingHandler) Onboard(c *gin.Context) {
	var req dto.OnboardingRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.onboardingSvc.Onboard(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleOnboardingError(c, err)
		return
	}

	response.Created(c, user)
}

// LinkProfile 管理员将已有档案关联到账号
// PUT /api/v1/users/:id/profile
func (h *OnboardingHandler) LinkProfile(c *gin.Context) {
	var req dto.LinkProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.onboardingSvc.LinkProfile(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleOnboardingError(c, err)
		return
	}

	response.OK(c, user)
}

func (h *OnboardingHandler) handleOnboardingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAlreadyOnboarded):
		response.Conflict(c, 17001, "账号已完成建档")
	case errors.Is(err, service.ErrOnboardingRole):
		response.Forbidden(c, 17002, "仅学生或教师账号需要建档")
	case errors.Is(err, service.ErrProfileNameTaken):
		response.Conflict(c, 17003, "同名档案已存在，请联系管理员认领")
	case errors.Is(err, service.ErrProfileClaimed):
		response.Conflict(c, 17004, "该档案已被其他账号认领")
	case errors.Is(err, service.ErrLinkTargetInvalid):
		response.BadRequest(c, 17005, "ta_id 与 professor_id 必须且只能填写一个")
	case errors.Is(err, service.ErrLinkRoleMismatch):
		response.BadRequest(c, 17006, "档案类型与账号角色不匹配")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 11005, "用户不存在")
	case errors.Is(err, service.ErrTANotFound):
		response.NotFound(c, 14002, "助教不存在")
	case errors.Is(err, service.ErrProfessorNotFound):
		response.NotFound(c, 14003, "教授不存在")
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 14001, "课程不存在")
	case errors.Is(err, service.ErrDuplicatePreference):
		response.BadRequest(c, 14004, "偏好列表中存在重复项")
	case errors.Is(err, service.ErrInvalidInterestLevel):
		response.BadRequest(c, 14005, "兴趣等级必须为 None/Low/Medium/High")
	default:
		response.InternalError(c)
	}
}
