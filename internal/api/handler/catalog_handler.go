package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"ta-assign/backend/internal/dto"
	"ta-assign/backend/internal/service"
	pkgerrors "ta-assign/backend/pkg/errors"
	"ta-assign/backend/pkg/response"
)

// CatalogHandler 课程 / 助教 / 教授目录 HTTP 处理器
type CatalogHandler struct {
	courseSvc    service.CourseService
	taSvc        service.TAService
	professorSvc service.ProfessorService
}

// NewCatalogHandler 创建 CatalogHandler
func NewCatalogHandler(courseSvc service.CourseService, taSvc service.TAService, professorSvc service.ProfessorService) *CatalogHandler {
	return &CatalogHandler{courseSvc: courseSvc, taSvc: taSvc, professorSvc: professorSvc}
}

// ────────────────────── 课程 ──────────────────────

// ListCourses 课程列表
// GET /api/v1/courses
func (h *CatalogHandler) ListCourses(c *gin.Context) {
	list, err := h.courseSvc.List(c.Request.Context())
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetCourse 课程详情
// GET /api/v1/courses/:id
func (h *CatalogHandler) GetCourse(c *gin.Context) {
	course, err := h.courseSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.OK(c, course)
}

// UpdateCourse 更新课程需求人数、技能与教授
// PUT /api/v1/courses/:id
func (h *CatalogHandler) UpdateCourse(c *gin.Context) {
	var req dto.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	course, err := h.courseSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID, role)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.OK(c, course)
}

// ────────────────────── 助教 ──────────────────────

// ListTAs 助教列表
// GET /api/v1/tas
func (h *CatalogHandler) ListTAs(c *gin.Context) {
	list, err := h.taSvc.List(c.Request.Context())
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetTA 助教详情
// GET /api/v1/tas/:id
func (h *CatalogHandler) GetTA(c *gin.Context) {
	ta, err := h.taSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.OK(c, ta)
}

// UpdateTA 更新助教上限、技能、偏好与兴趣
// PUT /api/v1/tas/:id
func (h *CatalogHandler) UpdateTA(c *gin.Context) {
	var req dto.UpdateTARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	ta, err := h.taSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID, role)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.OK(c, ta)
}

// ────────────────────── 教授 ──────────────────────

// ListProfessors 教授列表
// GET /api/v1/professors
func (h *CatalogHandler) ListProfessors(c *gin.Context) {
	list, err := h.professorSvc.List(c.Request.Context())
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// UpdateProfessorPreferences 整体替换教授的助教偏好
// PUT /api/v1/professors/:id/preferences
func (h *CatalogHandler) UpdateProfessorPreferences(c *gin.Context) {
	var req dto.UpdateProfessorPreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	prof, err := h.professorSvc.UpdatePreferences(c.Request.Context(), c.Param("id"), &req, callerID, role)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.OK(c, prof)
}

func (h *CatalogHandler) handleCatalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 14001, "课程不存在")
	case errors.Is(err, service.ErrTANotFound):
		response.NotFound(c, 14002, "助教不存在")
	case errors.Is(err, service.ErrProfessorNotFound):
		response.NotFound(c, 14003, "教授不存在")
	case errors.Is(err, service.ErrDuplicatePreference):
		response.BadRequest(c, 14004, "偏好列表中存在重复项")
	case errors.Is(err, service.ErrInvalidInterestLevel):
		response.BadRequest(c, 14005, "兴趣等级必须为 None/Low/Medium/High")
	case errors.Is(err, pkgerrors.ErrForbidden):
		response.Forbidden(c, 10003, "无权操作该资源")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10009, pkgerrors.ErrOptimisticLock.Error())
	default:
		response.InternalError(c)
	}
}
