package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/scholardist/internal/config"
	"github.com/stemsi/scholardist/internal/engine"
	"github.com/stemsi/scholardist/internal/handler"
	"github.com/stemsi/scholardist/internal/middleware"
	"github.com/stemsi/scholardist/internal/model"
	"github.com/stemsi/scholardist/internal/service"
	"github.com/stemsi/scholardist/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	validator.Setup()
	os.Exit(m.Run())
}

func addr(n int) string {
	return fmt.Sprintf("0x%040x", n)
}

var admin = addr(1)

type noRuns struct{}

func (noRuns) ListByProgram(context.Context, int64, int, int) ([]model.Report, int, error) {
	return nil, 0, nil
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Fields  map[string]string `json:"fields"`
		Reasons []string          `json:"reasons"`
	} `json:"error"`
}

type apiClient struct {
	t      *testing.T
	router *gin.Engine
	auth   *service.AuthService
}

func newAPI(t *testing.T, applyRate int) *apiClient {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	log := zerolog.Nop()
	eng, err := engine.New(engine.NewMemoryStore(), admin, log)
	require.NoError(t, err)
	auth, err := service.NewAuthService("router-test-secret", time.Hour)
	require.NoError(t, err)

	svc := service.NewScholarshipService(eng, noRuns{}, rdb, time.Minute, log)
	cfg := &config.Config{GinMode: gin.TestMode}
	handlers := &Handlers{
		Auth:        handler.NewAuthHandler(svc),
		Program:     handler.NewProgramHandler(svc, log),
		Application: handler.NewApplicationHandler(svc, log),
		Selection:   handler.NewSelectionHandler(svc, log),
		Feed:        handler.NewFeedHandler(rdb, svc, log, nil),
	}
	limiter := middleware.NewRateLimiter(rdb, "apply", applyRate, time.Minute, log)

	return &apiClient{t: t, router: SetupRouter(auth, svc, limiter, handlers, cfg), auth: auth}
}

func (a *apiClient) do(method, path, caller string, body any) (int, envelope) {
	a.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		token, _, err := a.auth.IssueToken(caller)
		require.NoError(a.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func errCode(env envelope) string {
	if env.Error == nil {
		return ""
	}
	return env.Error.Code
}

func programBody() gin.H {
	return gin.H{
		"name":                "Merit",
		"award":               100,
		"min_score":           50,
		"total_seats":         2,
		"required_attendance": 80,
		"required_academic":   80,
		"deposit":             1000,
	}
}

func applicationBody(attendance, academic int) gin.H {
	return gin.H{
		"student_name":       "Ada",
		"reg_number":         "REG-1",
		"college":            "North",
		"course":             "Physics",
		"attendance_percent": attendance,
		"academic_mark":      academic,
	}
}

func TestHealth(t *testing.T) {
	api := newAPI(t, 10)
	code, _ := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestMe(t *testing.T) {
	api := newAPI(t, 10)

	code, env := api.do(http.MethodGet, "/api/v1/auth/me", admin, nil)
	require.Equal(t, http.StatusOK, code)
	var me struct {
		Identity string `json:"identity"`
		IsAdmin  bool   `json:"is_admin"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, admin, me.Identity)
	assert.True(t, me.IsAdmin)

	code, env = api.do(http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "TOKEN_REQUIRED", errCode(env))
}

func TestCreateProgram_AdminOnly(t *testing.T) {
	api := newAPI(t, 10)

	code, env := api.do(http.MethodPost, "/api/v1/programs", addr(2), programBody())
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "NOT_ADMINISTRATOR", errCode(env))

	// Non-admins are refused before their body is validated.
	code, env = api.do(http.MethodPost, "/api/v1/programs", addr(2), gin.H{})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "NOT_ADMINISTRATOR", errCode(env))

	code, env = api.do(http.MethodPost, "/api/v1/programs", admin, gin.H{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", errCode(env))
	assert.Contains(t, env.Error.Fields, "name")

	code, env = api.do(http.MethodPost, "/api/v1/programs", admin, programBody())
	require.Equal(t, http.StatusCreated, code)
	var out struct {
		Program model.Program `json:"program"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, int64(1), out.Program.ID)
	assert.Equal(t, int64(1000), out.Program.Balance)
}

func TestApplicationAndSelectionFlow(t *testing.T) {
	api := newAPI(t, 10)

	code, _ := api.do(http.MethodPost, "/api/v1/programs", admin, programBody())
	require.Equal(t, http.StatusCreated, code)

	code, _ = api.do(http.MethodPost, "/api/v1/programs/1/applications", addr(10), applicationBody(90, 90))
	require.Equal(t, http.StatusCreated, code)

	code, env := api.do(http.MethodPost, "/api/v1/programs/1/applications", addr(10), applicationBody(90, 90))
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "DUPLICATE_APPLICATION", errCode(env))

	code, env = api.do(http.MethodPost, "/api/v1/programs/1/applications", addr(11), applicationBody(79, 90))
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "INELIGIBLE", errCode(env))
	assert.Len(t, env.Error.Reasons, 1)

	code, env = api.do(http.MethodPost, "/api/v1/programs/1/applications", addr(12), applicationBody(101, 90))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error.Fields, "attendance_percent")

	code, env = api.do(http.MethodPost, "/api/v1/programs/1/selection", addr(10), nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "NOT_ADMINISTRATOR", errCode(env))

	code, env = api.do(http.MethodPost, "/api/v1/programs/1/selection", admin, nil)
	require.Equal(t, http.StatusOK, code)
	var run struct {
		Report model.Report `json:"report"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &run))
	assert.Equal(t, model.RunOutcomeCompleted, run.Report.Outcome)
	assert.Equal(t, []string{addr(10)}, run.Report.Paid)

	code, env = api.do(http.MethodGet, "/api/v1/programs/1/winners", "", nil)
	require.Equal(t, http.StatusOK, code)
	var winners struct {
		Winners []model.Application `json:"winners"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &winners))
	require.Len(t, winners.Winners, 1)
	assert.True(t, winners.Winners[0].Received)

	code, env = api.do(http.MethodGet, "/api/v1/programs/1/applications?identity="+addr(10), "", nil)
	require.Equal(t, http.StatusOK, code)
	var apps struct {
		Applications []model.Application `json:"applications"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &apps))
	assert.Len(t, apps.Applications, 1)

	code, env = api.do(http.MethodGet, "/api/v1/programs/1/runs", "", nil)
	assert.Equal(t, http.StatusOK, code)

	code, env = api.do(http.MethodPost, "/api/v1/programs/1/deactivate", admin, nil)
	require.Equal(t, http.StatusOK, code)

	code, env = api.do(http.MethodPost, "/api/v1/programs/1/applications", addr(13), applicationBody(90, 90))
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "PROGRAM_INACTIVE", errCode(env))
}

func TestFundProgram(t *testing.T) {
	api := newAPI(t, 10)

	code, _ := api.do(http.MethodPost, "/api/v1/programs", admin, programBody())
	require.Equal(t, http.StatusCreated, code)

	code, env := api.do(http.MethodPost, "/api/v1/programs/1/fund", admin, gin.H{"amount": 0})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", errCode(env))

	code, env = api.do(http.MethodPost, "/api/v1/programs/1/fund", admin, gin.H{"amount": 250})
	require.Equal(t, http.StatusOK, code)
	var out struct {
		Program model.Program `json:"program"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, int64(1250), out.Program.Balance)

	code, env = api.do(http.MethodPost, "/api/v1/programs/9/fund", admin, gin.H{"amount": 250})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "PROGRAM_NOT_FOUND", errCode(env))
}

func TestBadRequests(t *testing.T) {
	api := newAPI(t, 10)

	code, env := api.do(http.MethodGet, "/api/v1/programs/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_ID", errCode(env))

	code, env = api.do(http.MethodGet, "/api/v1/programs/4", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "PROGRAM_NOT_FOUND", errCode(env))

	code, _ = api.do(http.MethodPost, "/api/v1/programs", admin, programBody())
	require.Equal(t, http.StatusCreated, code)

	code, env = api.do(http.MethodGet, "/api/v1/programs/1/applications?identity=alice", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error.Fields, "identity")

	code, env = api.do(http.MethodGet, "/api/v1/programs/1/runs?per_page=500", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error.Fields, "per_page")
}

func TestApplyRateLimitedPerIdentity(t *testing.T) {
	api := newAPI(t, 2)

	code, _ := api.do(http.MethodPost, "/api/v1/programs", admin, programBody())
	require.Equal(t, http.StatusCreated, code)

	for i := 0; i < 2; i++ {
		code, _ = api.do(http.MethodPost, "/api/v1/programs/1/applications", addr(20), applicationBody(10, 10))
		assert.Equal(t, http.StatusUnprocessableEntity, code)
	}
	code, env := api.do(http.MethodPost, "/api/v1/programs/1/applications", addr(20), applicationBody(10, 10))
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", errCode(env))

	code, _ = api.do(http.MethodPost, "/api/v1/programs/1/applications", addr(21), applicationBody(90, 90))
	assert.Equal(t, http.StatusCreated, code)
}
