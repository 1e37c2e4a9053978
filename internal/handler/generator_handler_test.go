package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-ga/internal/dto"
	internalmiddleware "github.com/noah-isme/sma-timetable-ga/internal/middleware"
	"github.com/noah-isme/sma-timetable-ga/internal/models"
	"github.com/noah-isme/sma-timetable-ga/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-ga/pkg/errors"
)

type generatorServiceMock struct {
	userID   string
	started  dto.StartRunRequest
	startErr error
	query    dto.SlotQuery
	listQ    dto.RunListQuery
	deleted  string
	delErr   error
}

func (m *generatorServiceMock) Preflight(_ context.Context, userID string) (*dto.PreflightResponse, error) {
	m.userID = userID
	return &dto.PreflightResponse{CanGenerate: true, Teachers: 2}, nil
}

func (m *generatorServiceMock) Start(_ context.Context, userID string, req dto.StartRunRequest) (*models.GARun, error) {
	m.userID = userID
	m.started = req
	if m.startErr != nil {
		return nil, m.startErr
	}
	return &models.GARun{ID: "run-1", UserID: userID, Status: models.GARunStatusRunning}, nil
}

func (m *generatorServiceMock) Progress(_ context.Context, _, runID string) (*dto.RunProgress, error) {
	return &dto.RunProgress{RunID: runID, Generation: 3, MaxGenerations: 10, Status: "running"}, nil
}

func (m *generatorServiceMock) List(_ context.Context, _ string, query dto.RunListQuery) ([]models.GARunSummary, *models.Pagination, error) {
	m.listQ = query
	return []models.GARunSummary{}, &models.Pagination{Page: query.Page, PageSize: query.PageSize}, nil
}

func (m *generatorServiceMock) Get(_ context.Context, _, runID string) (*models.GARun, error) {
	if runID != "run-1" {
		return nil, appErrors.ErrNotFound
	}
	return &models.GARun{ID: runID}, nil
}

func (m *generatorServiceMock) Latest(context.Context, string) (*dto.LatestRunResponse, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "no completed generator run")
}

func (m *generatorServiceMock) Slots(_ context.Context, _, _ string, query dto.SlotQuery) ([]models.ScheduleSlotDetail, error) {
	m.query = query
	return []models.ScheduleSlotDetail{}, nil
}

func (m *generatorServiceMock) Delete(_ context.Context, _, runID string) error {
	m.deleted = runID
	return m.delErr
}

func (m *generatorServiceMock) Validate(_ context.Context, _, runID string) (*dto.RunValidationResponse, error) {
	return &dto.RunValidationResponse{RunID: runID, Valid: true}, nil
}

type exporterMock struct {
	query dto.ExportQuery
}

func (m *exporterMock) Export(_ context.Context, _, _ string, query dto.ExportQuery) (*dto.ExportFile, error) {
	m.query = query
	return &dto.ExportFile{Filename: "timetable.csv", ContentType: "text/csv", Body: []byte("Day,Period\n")}, nil
}

func newGeneratorRouter(svc *generatorServiceMock, exporter *exporterMock, authenticated bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(internalmiddleware.WithResponseMeta())
	if authenticated {
		router.Use(func(c *gin.Context) {
			c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{UserID: "user-1", Role: models.RoleAdmin})
			c.Next()
		})
	}
	NewGeneratorHandler(svc, exporter).Register(router.Group("/api/v1"))
	return router
}

func decodeEnvelope(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &envelope))
	return envelope
}

func TestGeneratorHandlerStartAccepted(t *testing.T) {
	svc := &generatorServiceMock{}
	router := newGeneratorRouter(svc, &exporterMock{}, true)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/generator/runs", bytes.NewReader([]byte(`{"maxGenerations":20,"populationSize":30,"seed":9}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "user-1", svc.userID)
	assert.Equal(t, 20, svc.started.MaxGenerations)
	assert.Equal(t, 30, svc.started.PopulationSize)
	require.NotNil(t, svc.started.Seed)
	assert.Equal(t, int64(9), *svc.started.Seed)

	envelope := decodeEnvelope(t, w.Body.Bytes())
	meta := envelope["meta"].(map[string]interface{})
	assert.Equal(t, "/api/v1/generator/runs/run-1/progress", meta["progressUrl"])
}

func TestGeneratorHandlerStartWithoutBody(t *testing.T) {
	svc := &generatorServiceMock{}
	router := newGeneratorRouter(svc, &exporterMock{}, true)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/generator/runs", nil))

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, dto.StartRunRequest{}, svc.started)
}

func TestGeneratorHandlerStartInvalidJSON(t *testing.T) {
	router := newGeneratorRouter(&generatorServiceMock{}, &exporterMock{}, true)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/generator/runs", bytes.NewReader([]byte(`{"maxGenerations":`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGeneratorHandlerStartPrecondition(t *testing.T) {
	svc := &generatorServiceMock{startErr: appErrors.Clone(appErrors.ErrPreconditionFailed, "cannot start run without rooms")}
	router := newGeneratorRouter(svc, &exporterMock{}, true)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/generator/runs", nil))

	require.Equal(t, http.StatusPreconditionFailed, w.Code)
	envelope := decodeEnvelope(t, w.Body.Bytes())
	errBody := envelope["error"].(map[string]interface{})
	assert.Equal(t, "PRECONDITION_FAILED", errBody["code"])
}

func TestGeneratorHandlerRequiresUser(t *testing.T) {
	router := newGeneratorRouter(&generatorServiceMock{}, &exporterMock{}, false)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/generator/preflight", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGeneratorHandlerLatestBeforeGetByID(t *testing.T) {
	router := newGeneratorRouter(&generatorServiceMock{}, &exporterMock{}, true)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/generator/runs/latest", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "no completed generator run")
}

func TestGeneratorHandlerListAndSlotsBindQuery(t *testing.T) {
	svc := &generatorServiceMock{}
	router := newGeneratorRouter(svc, &exporterMock{}, true)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/generator/runs?page=2&pageSize=5", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.RunListQuery{Page: 2, PageSize: 5}, svc.listQ)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/generator/runs/run-1/slots?teacherId=t-1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "t-1", svc.query.TeacherID)
	meta := decodeEnvelope(t, w.Body.Bytes())["meta"].(map[string]interface{})
	assert.EqualValues(t, 0, meta["count"])
	assert.Contains(t, meta, "processing_time_ms")
}

func TestGeneratorHandlerProgress(t *testing.T) {
	router := newGeneratorRouter(&generatorServiceMock{}, &exporterMock{}, true)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/generator/runs/run-1/progress", nil))
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w.Body.Bytes())["data"].(map[string]interface{})
	assert.Equal(t, float64(3), data["generation"])
	assert.Equal(t, "running", data["status"])
}

func TestGeneratorHandlerExportAttachment(t *testing.T) {
	exporter := &exporterMock{}
	router := newGeneratorRouter(&generatorServiceMock{}, exporter, true)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/generator/runs/run-1/export?format=csv&classId=x-1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "timetable.csv")
	assert.Equal(t, dto.ExportQuery{Format: "csv", ClassID: "x-1"}, exporter.query)
}

func TestGeneratorHandlerDelete(t *testing.T) {
	svc := &generatorServiceMock{}
	router := newGeneratorRouter(svc, &exporterMock{}, true)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/generator/runs/run-1", nil))
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "run-1", svc.deleted)

	svc.delErr = appErrors.ErrRunInProgress
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/generator/runs/run-1", nil))
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestMetricsHandlerReady(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewMetricsHandler(service.NewMetricsService(), map[string]ReadinessCheck{
		"database": func(context.Context) error { return nil },
		"cache":    func(context.Context) error { return errors.New("connection refused") },
	})
	router.GET("/ready", h.Ready)
	router.GET("/metrics", h.Prometheus)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ga_runs_started_total")
}
