package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"ta-assign/backend/internal/dto"
	"ta-assign/backend/internal/service"
	pkgerrors "ta-assign/backend/pkg/errors"
	"ta-assign/backend/pkg/response"
)

// WeightHandler 打分权重 HTTP 处理器
type WeightHandler struct {
	weightSvc service.WeightService
}

// NewWeightHandler 创建 WeightHandler
func NewWeightHandler(weightSvc service.WeightService) *WeightHandler {
	return &WeightHandler{weightSvc: weightSvc}
}

// GetWeights 获取当前权重
// GET /api/v1/weights
func (h *WeightHandler) GetWeights(c *gin.Context) {
	w, err := h.weightSvc.Get(c.Request.Context())
	if err != nil {
		h.handleWeightError(c, err)
		return
	}

	response.OK(c, w)
}

// UpdateWeights 更新权重（乐观锁）
// PUT /api/v1/weights
func (h *WeightHandler) UpdateWeights(c *gin.Context) {
	var req dto.UpdateWeightsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	w, err := h.weightSvc.Update(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleWeightError(c, err)
		return
	}

	response.OK(c, w)
}

func (h *WeightHandler) handleWeightError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrWeightsNotFound):
		response.NotFound(c, 13001, "权重未初始化")
	case errors.Is(err, service.ErrWeightsInvalid):
		response.BadRequest(c, 13002, "权重必须为非负有限数")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10009, pkgerrors.ErrOptimisticLock.Error())
	default:
		response.InternalError(c)
	}
}
