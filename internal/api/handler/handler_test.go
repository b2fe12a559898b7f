package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	jwtv5 "github.com/golang-jwt/jwt/v5"

	"ta-assign/backend/internal/dto"
	"ta-assign/backend/internal/engine"
	"ta-assign/backend/internal/service"
	pkgerrors "ta-assign/backend/pkg/errors"
	"ta-assign/backend/pkg/jwt"
	"ta-assign/backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	loginResult    *dto.TokenResponse
	loginErr       error
	registerResult *dto.UserResponse
	registerErr    error
	refreshResult  *dto.TokenResponse
	refreshErr     error
	logoutErr      error
	meResult       *dto.UserResponse
	meErr          error

	gotRefreshToken string
	gotCallerRole   string
	gotLogoutJTI    string
}

func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) Register(_ context.Context, _ *dto.RegisterRequest, callerRole string) (*dto.UserResponse, error) {
	m.gotCallerRole = callerRole
	return m.registerResult, m.registerErr
}
func (m *mockAuthService) Refresh(_ context.Context, token string) (*dto.TokenResponse, error) {
	m.gotRefreshToken = token
	return m.refreshResult, m.refreshErr
}
func (m *mockAuthService) Logout(_ context.Context, claims *jwt.Claims) error {
	m.gotLogoutJTI = claims.ID
	return m.logoutErr
}
func (m *mockAuthService) Me(_ context.Context, _ string) (*dto.UserResponse, error) {
	return m.meResult, m.meErr
}
func (m *mockAuthService) EnsureAdmin(_ context.Context, _, _, _ string) (bool, error) {
	return false, nil
}

// ── Mock AssignmentService ──

type mockAssignmentService struct {
	runResult      *dto.RunAssignmentResponse
	runErr         error
	savedResult    *engine.Result
	savedErr       error
	overrideResult *engine.Result
	overrideErr    error
	runsResult     []dto.RunSummaryResponse
	runsTotal      int64
	runsErr        error
	runResultByID  *dto.RunDetailResponse
	runByIDErr     error

	gotRunReq *dto.RunAssignmentRequest
}

func (m *mockAssignmentService) Run(_ context.Context, req *dto.RunAssignmentRequest, _ string) (*dto.RunAssignmentResponse, error) {
	m.gotRunReq = req
	return m.runResult, m.runErr
}
func (m *mockAssignmentService) GetSaved(_ context.Context) (*engine.Result, error) {
	return m.savedResult, m.savedErr
}
func (m *mockAssignmentService) Override(_ context.Context, _ *dto.OverrideAssignmentRequest, _ string) (*engine.Result, error) {
	return m.overrideResult, m.overrideErr
}
func (m *mockAssignmentService) ListRuns(_ context.Context, _ *dto.PaginationRequest) ([]dto.RunSummaryResponse, int64, error) {
	return m.runsResult, m.runsTotal, m.runsErr
}
func (m *mockAssignmentService) GetRun(_ context.Context, _ string) (*dto.RunDetailResponse, error) {
	return m.runResultByID, m.runByIDErr
}

// ── Mock WeightService ──

type mockWeightService struct {
	result    *dto.WeightsResponse
	getErr    error
	updateErr error
}

func (m *mockWeightService) Get(_ context.Context) (*dto.WeightsResponse, error) {
	return m.result, m.getErr
}
func (m *mockWeightService) Update(_ context.Context, _ *dto.UpdateWeightsRequest, _ string) (*dto.WeightsResponse, error) {
	return m.result, m.updateErr
}

// ── Mock 目录服务 ──

type mockCourseService struct {
	list      []dto.CourseResponse
	course    *dto.CourseResponse
	err       error
	gotRole   string
	gotCaller string
}

func (m *mockCourseService) List(_ context.Context) ([]dto.CourseResponse, error) {
	return m.list, m.err
}
func (m *mockCourseService) Get(_ context.Context, _ string) (*dto.CourseResponse, error) {
	return m.course, m.err
}
func (m *mockCourseService) Update(_ context.Context, _ string, _ *dto.UpdateCourseRequest, callerID, callerRole string) (*dto.CourseResponse, error) {
	m.gotCaller, m.gotRole = callerID, callerRole
	return m.course, m.err
}

type mockTAService struct {
	list []dto.TAResponse
	ta   *dto.TAResponse
	err  error
}

func (m *mockTAService) List(_ context.Context) ([]dto.TAResponse, error) {
	return m.list, m.err
}
func (m *mockTAService) Get(_ context.Context, _ string) (*dto.TAResponse, error) {
	return m.ta, m.err
}
func (m *mockTAService) Update(_ context.Context, _ string, _ *dto.UpdateTARequest, _, _ string) (*dto.TAResponse, error) {
	return m.ta, m.err
}

type mockProfessorService struct {
	list []dto.ProfessorResponse
	prof *dto.ProfessorResponse
	err  error
}

func (m *mockProfessorService) List(_ context.Context) ([]dto.ProfessorResponse, error) {
	return m.list, m.err
}
func (m *mockProfessorService) UpdatePreferences(_ context.Context, _ string, _ *dto.UpdateProfessorPreferencesRequest, _, _ string) (*dto.ProfessorResponse, error) {
	return m.prof, m.err
}

// ── Mock 仪表盘 / 日志 ──

type mockDashboardService struct {
	result *dto.DashboardResponse
	err    error
}

func (m *mockDashboardService) Summary(_ context.Context) (*dto.DashboardResponse, error) {
	return m.result, m.err
}

type mockActivityLogService struct {
	result   []dto.ActivityLogResponse
	err      error
	gotLimit int
}

func (m *mockActivityLogService) Recent(_ context.Context, limit int) ([]dto.ActivityLogResponse, error) {
	m.gotLimit = limit
	return m.result, m.err
}

// ── Mock 导入 / 导出 ──

type mockImportService struct {
	workbook    *dto.ImportWorkbook
	parseErr    error
	result      *dto.ImportResponse
	importErr   error
	importCalls int
}

func (m *mockImportService) ParseWorkbook(r io.Reader) (*dto.ImportWorkbook, error) {
	_, _ = io.Copy(io.Discard, r)
	return m.workbook, m.parseErr
}
func (m *mockImportService) Import(_ context.Context, _ *dto.ImportWorkbook, _ string) (*dto.ImportResponse, error) {
	m.importCalls++
	return m.result, m.importErr
}

type mockOnboardingService struct {
	user *dto.UserResponse
	err  error

	gotUserID   string
	gotOnboard  *dto.OnboardingRequest
	gotLink     *dto.LinkProfileRequest
	gotCallerID string
}

func (m *mockOnboardingService) Onboard(_ context.Context, userID string, req *dto.OnboardingRequest) (*dto.UserResponse, error) {
	m.gotUserID, m.gotOnboard = userID, req
	return m.user, m.err
}
func (m *mockOnboardingService) LinkProfile(_ context.Context, userID string, req *dto.LinkProfileRequest, callerID string) (*dto.UserResponse, error) {
	m.gotUserID, m.gotLink, m.gotCallerID = userID, req, callerID
	return m.user, m.err
}

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportAssignments(_ context.Context) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ═══════════════════════════════════════════════════════════
// Helpers
// ═══════════════════════════════════════════════════════════

func setupGin() (*gin.Engine, *gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, r := gin.CreateTestContext(w)
	return r, c, w
}

func setAuthAs(c *gin.Context, role string) {
	c.Set(ctxUserID, "test-user-id")
	c.Set(ctxRole, role)
	c.Set(ctxClaims, &jwt.Claims{
		UserID:           "test-user-id",
		Role:             role,
		TokenType:        jwt.TokenTypeAccess,
		RegisteredClaims: jwtv5.RegisteredClaims{ID: "test-jti"},
	})
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func withAuth(role string, h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		setAuthAs(c, role)
		h(c)
	}
}

func sampleResult() *engine.Result {
	return &engine.Result{
		Assignments: map[string]engine.CourseAssignment{
			"COMP 140": {Professor: "Alice", TAs: []string{"Bob"}, RequiredSkills: []string{}},
		},
		Workloads: map[string]int{"Bob": 1},
		Stats:     engine.Stats{TotalRequired: 1, TotalAssigned: 1},
	}
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Login_Success(t *testing.T) {
	mock := &mockAuthService{
		loginResult: &dto.TokenResponse{
			AccessToken:  "test-access-token",
			RefreshToken: "test-refresh-token",
			ExpiresIn:    900,
		},
	}
	h := NewAuthHandler(mock, nil)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/auth/login", jsonBody(dto.LoginRequest{
		Email:    "admin@example.edu",
		Password: "Test1234",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际 %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 0 {
		t.Errorf("期望 code 0，实际 %d", resp.Code)
	}
	found := false
	for _, c := range w.Result().Cookies() {
		if c.Name == "refresh_token" {
			found = true
			if c.Value != "test-refresh-token" {
				t.Errorf("Cookie 值错误: %s", c.Value)
			}
			if !c.HttpOnly {
				t.Error("refresh_token Cookie 应为 HttpOnly")
			}
		}
	}
	if !found {
		t.Error("应写入 refresh_token Cookie")
	}
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewReader([]byte("invalid json")))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际 %d", w.Code)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{loginErr: service.ErrInvalidCredentials}, nil)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/auth/login", jsonBody(dto.LoginRequest{
		Email:    "admin@example.edu",
		Password: "wrong",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("期望 401，实际 %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 11001 {
		t.Errorf("期望错误码 11001，实际 %d", resp.Code)
	}
}

func TestAuthHandler_Register_PassesCallerRole(t *testing.T) {
	mock := &mockAuthService{registerResult: &dto.UserResponse{ID: "u2", Role: jwt.RoleFaculty}}
	h := NewAuthHandler(mock, nil)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/auth/register", jsonBody(dto.RegisterRequest{
		Name:     "Prof X",
		Email:    "x@example.edu",
		Password: "Passw0rd!",
		Role:     jwt.RoleFaculty,
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/register", withAuth(jwt.RoleAdmin, h.Register))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("期望 201，实际 %d", w.Code)
	}
	if mock.gotCallerRole != jwt.RoleAdmin {
		t.Errorf("调用方角色应透传为 admin，实际 %q", mock.gotCallerRole)
	}
}

func TestAuthHandler_Register_Anonymous(t *testing.T) {
	mock := &mockAuthService{registerErr: service.ErrRoleNotAllowed}
	h := NewAuthHandler(mock, nil)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/auth/register", jsonBody(dto.RegisterRequest{
		Name:     "Mallory",
		Email:    "m@example.edu",
		Password: "Passw0rd!",
		Role:     jwt.RoleAdmin,
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("期望 403，实际 %d", w.Code)
	}
	if mock.gotCallerRole != "" {
		t.Errorf("匿名注册的调用方角色应为空，实际 %q", mock.gotCallerRole)
	}
}

func TestAuthHandler_Register_EmailExists(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{registerErr: service.ErrEmailExists}, nil)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/auth/register", jsonBody(dto.RegisterRequest{
		Name:     "Bob",
		Email:    "bob@example.edu",
		Password: "Passw0rd!",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("期望 409，实际 %d", w.Code)
	}
}

func TestAuthHandler_RefreshToken_FromBody(t *testing.T) {
	mock := &mockAuthService{
		refreshResult: &dto.TokenResponse{AccessToken: "new-access", RefreshToken: "new-refresh", ExpiresIn: 900},
	}
	h := NewAuthHandler(mock, nil)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/auth/refresh", jsonBody(dto.RefreshTokenRequest{RefreshToken: "old-refresh"}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/refresh", h.RefreshToken)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际 %d", w.Code)
	}
	if mock.gotRefreshToken != "old-refresh" {
		t.Errorf("应使用请求体中的 Token，实际 %q", mock.gotRefreshToken)
	}
}

func TestAuthHandler_RefreshToken_FromCookie(t *testing.T) {
	mock := &mockAuthService{
		refreshResult: &dto.TokenResponse{AccessToken: "new-access", RefreshToken: "new-refresh", ExpiresIn: 900},
	}
	h := NewAuthHandler(mock, nil)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "cookie-refresh"})

	r := gin.New()
	r.POST("/auth/refresh", h.RefreshToken)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际 %d", w.Code)
	}
	if mock.gotRefreshToken != "cookie-refresh" {
		t.Errorf("应使用 Cookie 中的 Token，实际 %q", mock.gotRefreshToken)
	}
}

func TestAuthHandler_RefreshToken_Missing(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/auth/refresh", jsonBody(map[string]string{}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/refresh", h.RefreshToken)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际 %d", w.Code)
	}
}

func TestAuthHandler_RefreshToken_Invalid(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{refreshErr: service.ErrInvalidRefresh}, nil)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/auth/refresh", jsonBody(dto.RefreshTokenRequest{RefreshToken: "revoked"}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/refresh", h.RefreshToken)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("期望 401，实际 %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 11002 {
		t.Errorf("期望错误码 11002，实际 %d", resp.Code)
	}
}

func TestAuthHandler_GetCurrentUser(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{meResult: &dto.UserResponse{ID: "test-user-id", Name: "Test"}}, nil)

	_, _, w := setupGin()
	req := httptest.NewRequest("GET", "/auth/me", nil)

	r := gin.New()
	r.GET("/auth/me", withAuth(jwt.RoleStudent, h.GetCurrentUser))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际 %d", w.Code)
	}
}

func TestAuthHandler_GetCurrentUser_Unauthenticated(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil)

	_, _, w := setupGin()
	req := httptest.NewRequest("GET", "/auth/me", nil)

	r := gin.New()
	r.GET("/auth/me", h.GetCurrentUser)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("期望 401，实际 %d", w.Code)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	mock := &mockAuthService{}
	h := NewAuthHandler(mock, nil)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/auth/logout", nil)

	r := gin.New()
	r.POST("/auth/logout", withAuth(jwt.RoleStudent, h.Logout))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际 %d", w.Code)
	}
	if mock.gotLogoutJTI != "test-jti" {
		t.Errorf("应拉黑当前 Token 的 jti，实际 %q", mock.gotLogoutJTI)
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == "refresh_token" && c.MaxAge >= 0 {
			t.Error("refresh_token Cookie 应被清除")
		}
	}
}

// ═══════════════════════════════════════════════════════════
// AssignmentHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAssignmentHandler_Run_EmptyBody(t *testing.T) {
	mock := &mockAssignmentService{runResult: &dto.RunAssignmentResponse{RunID: "run-1", Result: sampleResult()}}
	h := NewAssignmentHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/assignments/run", nil)

	r := gin.New()
	r.POST("/assignments/run", withAuth(jwt.RoleAdmin, h.RunAssignment))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	if mock.gotRunReq == nil || mock.gotRunReq.Persist {
		t.Error("空请求体应以默认参数运行且不持久化")
	}
}

func TestAssignmentHandler_Run_WithParams(t *testing.T) {
	mock := &mockAssignmentService{runResult: &dto.RunAssignmentResponse{RunID: "run-2", Persisted: true, Result: sampleResult()}}
	h := NewAssignmentHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/assignments/run", jsonBody(map[string]interface{}{
		"weights": map[string]float64{"course_pref": 2, "ta_pref": 1, "prof_pref": 1, "workload_balance": 0.5},
		"top_k":   5,
		"persist": true,
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/assignments/run", withAuth(jwt.RoleAdmin, h.RunAssignment))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	got := mock.gotRunReq
	if !got.Persist || got.TopK == nil || *got.TopK != 5 {
		t.Errorf("请求参数解析错误: %+v", got)
	}
	if got.Weights == nil || got.Weights.CoursePref != 2 || got.Weights.WorkloadBalance != 0.5 {
		t.Errorf("权重解析错误: %+v", got.Weights)
	}
}

func TestAssignmentHandler_Run_ChunkedBody(t *testing.T) {
	mock := &mockAssignmentService{runResult: &dto.RunAssignmentResponse{RunID: "run-3", Result: sampleResult()}}
	h := NewAssignmentHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/assignments/run", jsonBody(map[string]interface{}{
		"persist": true,
		"top_k":   3,
	}))
	req.Header.Set("Content-Type", "application/json")
	req.ContentLength = -1 // 分块传输

	r := gin.New()
	r.POST("/assignments/run", withAuth(jwt.RoleAdmin, h.RunAssignment))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	got := mock.gotRunReq
	if got == nil || !got.Persist || got.TopK == nil || *got.TopK != 3 {
		t.Errorf("未声明长度的请求体也应被解析: %+v", got)
	}
}

func TestAssignmentHandler_Run_EmptyChunkedBody(t *testing.T) {
	mock := &mockAssignmentService{runResult: &dto.RunAssignmentResponse{RunID: "run-4", Result: sampleResult()}}
	h := NewAssignmentHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/assignments/run", bytes.NewReader(nil))
	req.ContentLength = -1

	r := gin.New()
	r.POST("/assignments/run", withAuth(jwt.RoleAdmin, h.RunAssignment))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("空请求体期望 200，实际 %d", w.Code)
	}
	if mock.gotRunReq == nil || mock.gotRunReq.Persist || mock.gotRunReq.TopK != nil {
		t.Errorf("空请求体应使用默认参数: %+v", mock.gotRunReq)
	}
}

func TestAssignmentHandler_Run_MalformedBody(t *testing.T) {
	mock := &mockAssignmentService{runResult: &dto.RunAssignmentResponse{RunID: "run-5", Result: sampleResult()}}
	h := NewAssignmentHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/assignments/run", bytes.NewReader([]byte(`{"persist":`)))
	req.ContentLength = -1

	r := gin.New()
	r.POST("/assignments/run", withAuth(jwt.RoleAdmin, h.RunAssignment))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("残缺 JSON 期望 400，实际 %d", w.Code)
	}
	if mock.gotRunReq != nil {
		t.Error("请求体无法解析时不应运行分配")
	}
}

func TestAssignmentHandler_Run_InputInvalid(t *testing.T) {
	cause := fmt.Errorf("%w: 课程 c1 需求人数为负", service.ErrAssignmentInputInvalid)
	h := NewAssignmentHandler(&mockAssignmentService{runErr: cause})

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/assignments/run", nil)

	r := gin.New()
	r.POST("/assignments/run", withAuth(jwt.RoleAdmin, h.RunAssignment))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("期望 422，实际 %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 12001 {
		t.Errorf("期望错误码 12001，实际 %d", resp.Code)
	}
	if resp.Details != "课程 c1 需求人数为负" {
		t.Errorf("details 应为引擎拒绝原因，实际 %q", resp.Details)
	}
}

func TestAssignmentHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantHTTP int
		wantCode int
	}{
		{"任务占用", service.ErrAssignmentBusy, http.StatusConflict, 12002},
		{"记录不存在", service.ErrRunNotFound, http.StatusNotFound, 12003},
		{"空调整", service.ErrOverrideEmpty, http.StatusBadRequest, 12004},
		{"不在名单", service.ErrOverrideNotAssigned, http.StatusBadRequest, 12005},
		{"重复添加", service.ErrOverrideDuplicate, http.StatusConflict, 12006},
		{"超出需求", service.ErrOverrideExceedsDemand, http.StatusConflict, 12007},
		{"超出上限", service.ErrOverrideOverCapacity, http.StatusConflict, 12008},
		{"课程不存在", service.ErrCourseNotFound, http.StatusNotFound, 14001},
		{"助教不存在", service.ErrTANotFound, http.StatusNotFound, 14002},
		{"未知错误", errors.New("db down"), http.StatusInternalServerError, 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAssignmentHandler(&mockAssignmentService{overrideErr: tt.err})

			_, _, w := setupGin()
			req := httptest.NewRequest("POST", "/assignments/override", jsonBody(dto.OverrideAssignmentRequest{
				CourseID: "c1",
				AddTAIDs: []string{"t1"},
			}))
			req.Header.Set("Content-Type", "application/json")

			r := gin.New()
			r.POST("/assignments/override", withAuth(jwt.RoleAdmin, h.Override))
			r.ServeHTTP(w, req)

			if w.Code != tt.wantHTTP {
				t.Errorf("期望 %d，实际 %d", tt.wantHTTP, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("期望错误码 %d，实际 %d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestAssignmentHandler_Override_MissingCourse(t *testing.T) {
	h := NewAssignmentHandler(&mockAssignmentService{})

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/assignments/override", jsonBody(map[string]interface{}{
		"add_ta_ids": []string{"t1"},
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/assignments/override", withAuth(jwt.RoleAdmin, h.Override))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际 %d", w.Code)
	}
}

func TestAssignmentHandler_GetSaved(t *testing.T) {
	h := NewAssignmentHandler(&mockAssignmentService{savedResult: sampleResult()})

	_, _, w := setupGin()
	req := httptest.NewRequest("GET", "/assignments", nil)

	r := gin.New()
	r.GET("/assignments", withAuth(jwt.RoleStudent, h.GetSaved))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	var body struct {
		Data engine.Result `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if got := body.Data.Assignments["COMP 140"].TAs; len(got) != 1 || got[0] != "Bob" {
		t.Errorf("分配结果错误: %v", got)
	}
}

func TestAssignmentHandler_ListRuns(t *testing.T) {
	mock := &mockAssignmentService{
		runsResult: []dto.RunSummaryResponse{{RunID: "run-1"}},
		runsTotal:  21,
	}
	h := NewAssignmentHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("GET", "/assignments/runs?page=2&page_size=10", nil)

	r := gin.New()
	r.GET("/assignments/runs", withAuth(jwt.RoleAdmin, h.ListRuns))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	var body struct {
		Data response.PageData `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	p := body.Data.Pagination
	if p.Page != 2 || p.PageSize != 10 || p.Total != 21 || p.TotalPages != 3 {
		t.Errorf("分页信息错误: %+v", p)
	}
}

func TestAssignmentHandler_ListRuns_BadPageSize(t *testing.T) {
	h := NewAssignmentHandler(&mockAssignmentService{})

	_, _, w := setupGin()
	req := httptest.NewRequest("GET", "/assignments/runs?page_size=1000", nil)

	r := gin.New()
	r.GET("/assignments/runs", withAuth(jwt.RoleAdmin, h.ListRuns))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际 %d", w.Code)
	}
}

func TestAssignmentHandler_GetRun_NotFound(t *testing.T) {
	h := NewAssignmentHandler(&mockAssignmentService{runByIDErr: service.ErrRunNotFound})

	_, _, w := setupGin()
	req := httptest.NewRequest("GET", "/assignments/runs/missing", nil)

	r := gin.New()
	r.GET("/assignments/runs/:id", withAuth(jwt.RoleAdmin, h.GetRun))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("期望 404，实际 %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// WeightHandler Tests
// ═══════════════════════════════════════════════════════════

func TestWeightHandler_Get(t *testing.T) {
	h := NewWeightHandler(&mockWeightService{result: &dto.WeightsResponse{
		Weights: engine.Weights{CoursePref: 1, TAPref: 1, ProfPref: 1, WorkloadBalance: 1},
		Version: 1,
	}})

	_, _, w := setupGin()
	req := httptest.NewRequest("GET", "/weights", nil)

	r := gin.New()
	r.GET("/weights", withAuth(jwt.RoleStudent, h.GetWeights))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际 %d", w.Code)
	}
}

func TestWeightHandler_Update_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantHTTP int
	}{
		{"乐观锁冲突", pkgerrors.ErrOptimisticLock, http.StatusConflict},
		{"非法权重", service.ErrWeightsInvalid, http.StatusBadRequest},
		{"未初始化", service.ErrWeightsNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewWeightHandler(&mockWeightService{updateErr: tt.err})

			_, _, w := setupGin()
			req := httptest.NewRequest("PUT", "/weights", jsonBody(map[string]interface{}{
				"course_pref": 2.0,
				"version":     1,
			}))
			req.Header.Set("Content-Type", "application/json")

			r := gin.New()
			r.PUT("/weights", withAuth(jwt.RoleAdmin, h.UpdateWeights))
			r.ServeHTTP(w, req)

			if w.Code != tt.wantHTTP {
				t.Errorf("期望 %d，实际 %d", tt.wantHTTP, w.Code)
			}
		})
	}
}

func TestWeightHandler_Update_NegativeRejectedByBinding(t *testing.T) {
	h := NewWeightHandler(&mockWeightService{})

	_, _, w := setupGin()
	req := httptest.NewRequest("PUT", "/weights", jsonBody(map[string]interface{}{
		"ta_pref": -1.0,
		"version": 1,
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.PUT("/weights", withAuth(jwt.RoleAdmin, h.UpdateWeights))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际 %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// CatalogHandler Tests
// ═══════════════════════════════════════════════════════════

func newCatalogHandler(course *mockCourseService, ta *mockTAService, prof *mockProfessorService) *CatalogHandler {
	if course == nil {
		course = &mockCourseService{}
	}
	if ta == nil {
		ta = &mockTAService{}
	}
	if prof == nil {
		prof = &mockProfessorService{}
	}
	return NewCatalogHandler(course, ta, prof)
}

func TestCatalogHandler_ListCourses(t *testing.T) {
	h := newCatalogHandler(&mockCourseService{list: []dto.CourseResponse{{ID: "c1", Code: "COMP 140"}}}, nil, nil)

	_, _, w := setupGin()
	req := httptest.NewRequest("GET", "/courses", nil)

	r := gin.New()
	r.GET("/courses", withAuth(jwt.RoleStudent, h.ListCourses))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际 %d", w.Code)
	}
}

func TestCatalogHandler_UpdateCourse_PassesCaller(t *testing.T) {
	mock := &mockCourseService{course: &dto.CourseResponse{ID: "c1"}}
	h := newCatalogHandler(mock, nil, nil)

	_, _, w := setupGin()
	req := httptest.NewRequest("PUT", "/courses/c1", jsonBody(map[string]interface{}{
		"num_tas_requested": 3,
		"version":           1,
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.PUT("/courses/:id", withAuth(jwt.RoleFaculty, h.UpdateCourse))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	if mock.gotCaller != "test-user-id" || mock.gotRole != jwt.RoleFaculty {
		t.Errorf("调用方信息未透传: %q %q", mock.gotCaller, mock.gotRole)
	}
}

func TestCatalogHandler_UpdateCourse_MissingVersion(t *testing.T) {
	h := newCatalogHandler(nil, nil, nil)

	_, _, w := setupGin()
	req := httptest.NewRequest("PUT", "/courses/c1", jsonBody(map[string]interface{}{"num_tas_requested": 3}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.PUT("/courses/:id", withAuth(jwt.RoleAdmin, h.UpdateCourse))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际 %d", w.Code)
	}
}

func TestCatalogHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantHTTP int
		wantCode int
	}{
		{"助教不存在", service.ErrTANotFound, http.StatusNotFound, 14002},
		{"教授不存在", service.ErrProfessorNotFound, http.StatusNotFound, 14003},
		{"重复偏好", service.ErrDuplicatePreference, http.StatusBadRequest, 14004},
		{"兴趣等级非法", service.ErrInvalidInterestLevel, http.StatusBadRequest, 14005},
		{"越权", pkgerrors.ErrForbidden, http.StatusForbidden, 10003},
		{"版本冲突", pkgerrors.ErrOptimisticLock, http.StatusConflict, 10009},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newCatalogHandler(nil, &mockTAService{err: tt.err}, nil)

			_, _, w := setupGin()
			req := httptest.NewRequest("PUT", "/tas/t1", jsonBody(map[string]interface{}{
				"max_units": 2,
				"version":   1,
			}))
			req.Header.Set("Content-Type", "application/json")

			r := gin.New()
			r.PUT("/tas/:id", withAuth(jwt.RoleStudent, h.UpdateTA))
			r.ServeHTTP(w, req)

			if w.Code != tt.wantHTTP {
				t.Errorf("期望 %d，实际 %d", tt.wantHTTP, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("期望错误码 %d，实际 %d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestCatalogHandler_UpdateProfessorPreferences(t *testing.T) {
	h := newCatalogHandler(nil, nil, &mockProfessorService{prof: &dto.ProfessorResponse{ID: "p1"}})

	_, _, w := setupGin()
	req := httptest.NewRequest("PUT", "/professors/p1/preferences", jsonBody(dto.UpdateProfessorPreferencesRequest{
		TAIDs: []string{"t1", "t2"},
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.PUT("/professors/:id/preferences", withAuth(jwt.RoleFaculty, h.UpdateProfessorPreferences))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际 %d", w.Code)
	}
}

func TestCatalogHandler_GetCourse_NotFound(t *testing.T) {
	h := newCatalogHandler(&mockCourseService{err: service.ErrCourseNotFound}, nil, nil)

	_, _, w := setupGin()
	req := httptest.NewRequest("GET", "/courses/nope", nil)

	r := gin.New()
	r.GET("/courses/:id", withAuth(jwt.RoleStudent, h.GetCourse))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("期望 404，实际 %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// DashboardHandler Tests
// ═══════════════════════════════════════════════════════════

func TestDashboardHandler_Summary(t *testing.T) {
	h := NewDashboardHandler(&mockDashboardService{result: &dto.DashboardResponse{Courses: 2}}, &mockActivityLogService{})

	_, _, w := setupGin()
	req := httptest.NewRequest("GET", "/dashboard", nil)

	r := gin.New()
	r.GET("/dashboard", withAuth(jwt.RoleAdmin, h.Summary))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际 %d", w.Code)
	}
}

func TestDashboardHandler_ActivityLogs_Limit(t *testing.T) {
	logs := &mockActivityLogService{result: []dto.ActivityLogResponse{}}
	h := NewDashboardHandler(&mockDashboardService{}, logs)

	r := gin.New()
	r.GET("/activity-logs", withAuth(jwt.RoleAdmin, h.ActivityLogs))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/activity-logs?limit=50", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	if logs.gotLimit != 50 {
		t.Errorf("limit 应透传为 50，实际 %d", logs.gotLimit)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/activity-logs?limit=abc", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("非法 limit 期望 400，实际 %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ImportHandler Tests
// ═══════════════════════════════════════════════════════════

func multipartUpload(t *testing.T, filename string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("创建表单文件失败: %v", err)
	}
	fw.Write([]byte("fake workbook bytes"))
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()
	return body, mw.FormDataContentType()
}

func TestImportHandler_Import(t *testing.T) {
	mock := &mockImportService{
		workbook: &dto.ImportWorkbook{Courses: []dto.ImportCourseRow{{Row: 2, CourseCode: "COMP 140"}}},
		result:   &dto.ImportResponse{CoursesCreated: 1},
	}
	h := NewImportHandler(mock)

	body, ct := multipartUpload(t, "plan.xlsx", nil)
	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/import/workbook", body)
	req.Header.Set("Content-Type", ct)

	r := gin.New()
	r.POST("/import/workbook", withAuth(jwt.RoleAdmin, h.ImportWorkbook))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("期望 201，实际 %d", w.Code)
	}
	if mock.importCalls != 1 {
		t.Errorf("应写入一次，实际 %d", mock.importCalls)
	}
}

func TestImportHandler_DryRun(t *testing.T) {
	mock := &mockImportService{workbook: &dto.ImportWorkbook{}}
	h := NewImportHandler(mock)

	body, ct := multipartUpload(t, "plan.xlsx", map[string]string{"dry_run": "true"})
	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/import/workbook", body)
	req.Header.Set("Content-Type", ct)

	r := gin.New()
	r.POST("/import/workbook", withAuth(jwt.RoleAdmin, h.ImportWorkbook))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	if mock.importCalls != 0 {
		t.Error("dry_run 不应写入数据库")
	}
}

func TestImportHandler_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		parseErr error
		wantCode int
	}{
		{"扩展名错误", "plan.csv", nil, 15001},
		{"缺少工作表", "plan.xlsx", service.ErrImportMissingSheet, 15002},
		{"表头错误", "plan.xlsx", fmt.Errorf("%w: COMP TA List", service.ErrImportBadHeader), 15003},
		{"无数据", "plan.xlsx", service.ErrImportNoData, 15004},
		{"文件损坏", "plan.xlsx", fmt.Errorf("%w: zip: not a valid zip file", service.ErrImportUnreadable), 15006},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewImportHandler(&mockImportService{parseErr: tt.parseErr})

			body, ct := multipartUpload(t, tt.filename, nil)
			_, _, w := setupGin()
			req := httptest.NewRequest("POST", "/import/workbook", body)
			req.Header.Set("Content-Type", ct)

			r := gin.New()
			r.POST("/import/workbook", withAuth(jwt.RoleAdmin, h.ImportWorkbook))
			r.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("期望 400，实际 %d", w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("期望错误码 %d，实际 %d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestImportHandler_MissingFile(t *testing.T) {
	h := NewImportHandler(&mockImportService{})

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/import/workbook", nil)

	r := gin.New()
	r.POST("/import/workbook", withAuth(jwt.RoleAdmin, h.ImportWorkbook))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际 %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_Success(t *testing.T) {
	h := NewExportHandler(&mockExportService{
		buf:      bytes.NewBufferString("excel content"),
		filename: "助教分配.xlsx",
	})

	_, _, w := setupGin()
	req := httptest.NewRequest("GET", "/export/assignments", nil)

	r := gin.New()
	r.GET("/export/assignments", withAuth(jwt.RoleFaculty, h.ExportAssignments))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际 %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("Content-Type 错误: %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd == "" {
		t.Error("缺少 Content-Disposition")
	}
	if w.Body.String() != "excel content" {
		t.Errorf("响应体错误: %q", w.Body.String())
	}
}

func TestExportHandler_GenerateFail(t *testing.T) {
	h := NewExportHandler(&mockExportService{err: service.ErrExportGenerateFail})

	_, _, w := setupGin()
	req := httptest.NewRequest("GET", "/export/assignments", nil)

	r := gin.New()
	r.GET("/export/assignments", withAuth(jwt.RoleAdmin, h.ExportAssignments))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("期望 500，实际 %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// 建档
// ═══════════════════════════════════════════════════════════

func TestOnboardingHandler_Onboard_Created(t *testing.T) {
	taID := "t9"
	mock := &mockOnboardingService{user: &dto.UserResponse{ID: "test-user-id", Role: jwt.RoleStudent, TAID: &taID}}
	h := NewOnboardingHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/onboarding", jsonBody(map[string]interface{}{
		"program":   "MSc CS",
		"max_units": 2,
		"course_interests": []map[string]string{
			{"course_id": "c1", "level": "High"},
		},
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/onboarding", withAuth(jwt.RoleStudent, h.Onboard))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("期望 201，实际 %d", w.Code)
	}
	if mock.gotUserID != "test-user-id" {
		t.Errorf("应以当前登录用户建档，实际 %q", mock.gotUserID)
	}
	if mock.gotOnboard == nil || mock.gotOnboard.MaxUnits == nil || *mock.gotOnboard.MaxUnits != 2 {
		t.Errorf("请求体未正确传递: %+v", mock.gotOnboard)
	}
}

func TestOnboardingHandler_Onboard_EmptyBody(t *testing.T) {
	mock := &mockOnboardingService{user: &dto.UserResponse{ID: "test-user-id"}}
	h := NewOnboardingHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/onboarding", nil)

	r := gin.New()
	r.POST("/onboarding", withAuth(jwt.RoleFaculty, h.Onboard))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("空请求体应按默认值建档，实际 %d", w.Code)
	}
}

func TestOnboardingHandler_Onboard_MaxUnitsOutOfRange(t *testing.T) {
	mock := &mockOnboardingService{user: &dto.UserResponse{ID: "test-user-id"}}
	h := NewOnboardingHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/onboarding", jsonBody(map[string]interface{}{"max_units": 0}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/onboarding", withAuth(jwt.RoleStudent, h.Onboard))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("max_units=0 应被拒绝，实际 %d", w.Code)
	}
	if mock.gotOnboard != nil {
		t.Error("参数非法时不应调用 Service")
	}
}

func TestOnboardingHandler_LinkProfile_PassesCaller(t *testing.T) {
	taID := "t1"
	mock := &mockOnboardingService{user: &dto.UserResponse{ID: "u-student", TAID: &taID}}
	h := NewOnboardingHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("PUT", "/users/u-student/profile", jsonBody(map[string]string{"ta_id": "t1"}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.PUT("/users/:id/profile", withAuth(jwt.RoleAdmin, h.LinkProfile))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	if mock.gotUserID != "u-student" || mock.gotCallerID != "test-user-id" {
		t.Errorf("目标用户或操作人错误: user=%s caller=%s", mock.gotUserID, mock.gotCallerID)
	}
	if mock.gotLink == nil || mock.gotLink.TAID == nil || *mock.gotLink.TAID != "t1" {
		t.Errorf("ta_id 未正确传递: %+v", mock.gotLink)
	}
}

func TestOnboardingHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantHTTP int
		wantCode int
	}{
		{"重复建档", service.ErrAlreadyOnboarded, http.StatusConflict, 17001},
		{"角色无需建档", service.ErrOnboardingRole, http.StatusForbidden, 17002},
		{"同名档案", service.ErrProfileNameTaken, http.StatusConflict, 17003},
		{"档案已被认领", service.ErrProfileClaimed, http.StatusConflict, 17004},
		{"关联目标非法", service.ErrLinkTargetInvalid, http.StatusBadRequest, 17005},
		{"角色不匹配", service.ErrLinkRoleMismatch, http.StatusBadRequest, 17006},
		{"用户不存在", service.ErrUserNotFound, http.StatusNotFound, 11005},
		{"助教不存在", service.ErrTANotFound, http.StatusNotFound, 14002},
		{"课程不存在", service.ErrCourseNotFound, http.StatusNotFound, 14001},
		{"未知错误", errors.New("db down"), http.StatusInternalServerError, 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewOnboardingHandler(&mockOnboardingService{err: tt.err})

			_, _, w := setupGin()
			req := httptest.NewRequest("POST", "/onboarding", jsonBody(map[string]string{"name": "Deniz"}))
			req.Header.Set("Content-Type", "application/json")

			r := gin.New()
			r.POST("/onboarding", withAuth(jwt.RoleStudent, h.Onboard))
			r.ServeHTTP(w, req)

			if w.Code != tt.wantHTTP {
				t.Errorf("期望 %d，实际 %d", tt.wantHTTP, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("期望错误码 %d，实际 %d", tt.wantCode, resp.Code)
			}
		})
	}
}
