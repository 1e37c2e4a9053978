package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-ga/internal/dto"
	"github.com/noah-isme/sma-timetable-ga/internal/middleware"
	"github.com/noah-isme/sma-timetable-ga/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-ga/pkg/errors"
	"github.com/noah-isme/sma-timetable-ga/pkg/response"
)

type generatorService interface {
	Preflight(ctx context.Context, userID string) (*dto.PreflightResponse, error)
	Start(ctx context.Context, userID string, req dto.StartRunRequest) (*models.GARun, error)
	Progress(ctx context.Context, userID, runID string) (*dto.RunProgress, error)
	List(ctx context.Context, userID string, query dto.RunListQuery) ([]models.GARunSummary, *models.Pagination, error)
	Get(ctx context.Context, userID, runID string) (*models.GARun, error)
	Latest(ctx context.Context, userID string) (*dto.LatestRunResponse, error)
	Slots(ctx context.Context, userID, runID string, query dto.SlotQuery) ([]models.ScheduleSlotDetail, error)
	Delete(ctx context.Context, userID, runID string) error
	Validate(ctx context.Context, userID, runID string) (*dto.RunValidationResponse, error)
}

type timetableExporter interface {
	Export(ctx context.Context, userID, runID string, query dto.ExportQuery) (*dto.ExportFile, error)
}

// GeneratorHandler exposes genetic timetable generation endpoints.
type GeneratorHandler struct {
	service  generatorService
	exporter timetableExporter
}

// NewGeneratorHandler constructs the handler.
func NewGeneratorHandler(svc generatorService, exporter timetableExporter) *GeneratorHandler {
	return &GeneratorHandler{service: svc, exporter: exporter}
}

// Register mounts the generator routes on an authenticated group.
func (h *GeneratorHandler) Register(group *gin.RouterGroup) {
	gen := group.Group("/generator")
	gen.GET("/preflight", h.Preflight)
	gen.POST("/runs", h.Start)
	gen.GET("/runs", h.List)
	gen.GET("/runs/latest", h.Latest)
	gen.GET("/runs/:id", h.Get)
	gen.GET("/runs/:id/progress", h.Progress)
	gen.GET("/runs/:id/slots", h.Slots)
	gen.POST("/runs/:id/validate", h.Validate)
	gen.GET("/runs/:id/export", h.Export)
	gen.DELETE("/runs/:id", h.Delete)
}

// Preflight godoc
// @Summary Check whether a timetable run can start
// @Tags Generator
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /generator/preflight [get]
func (h *GeneratorHandler) Preflight(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	result, err := h.service.Preflight(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Start godoc
// @Summary Start a genetic timetable run
// @Description The run executes in the background. Poll the progress endpoint until status is completed or failed.
// @Tags Generator
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.StartRunRequest false "Run parameters"
// @Success 202 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /generator/runs [post]
func (h *GeneratorHandler) Start(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req dto.StartRunRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid run payload"))
			return
		}
	}
	run, err := h.service.Start(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, run, map[string]interface{}{
		"progressUrl": c.FullPath() + "/" + run.ID + "/progress",
	})
}

// List godoc
// @Summary List generator runs
// @Tags Generator
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /generator/runs [get]
func (h *GeneratorHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var query dto.RunListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	runs, pagination, err := h.service.List(c.Request.Context(), userID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, runs, pagination, middleware.ExtractMeta(c))
}

// Latest godoc
// @Summary Latest completed run with its timetable
// @Tags Generator
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /generator/runs/latest [get]
func (h *GeneratorHandler) Latest(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	result, err := h.service.Latest(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get a generator run
// @Tags Generator
// @Produce json
// @Security BearerAuth
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Router /generator/runs/{id} [get]
func (h *GeneratorHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	run, err := h.service.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, run, nil)
}

// Progress godoc
// @Summary Latest progress of a run
// @Tags Generator
// @Produce json
// @Security BearerAuth
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Router /generator/runs/{id}/progress [get]
func (h *GeneratorHandler) Progress(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	progress, err := h.service.Progress(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}

// Slots godoc
// @Summary Timetable slots of a run
// @Tags Generator
// @Produce json
// @Security BearerAuth
// @Param id path string true "Run ID"
// @Param classId query string false "Class filter"
// @Param teacherId query string false "Teacher filter"
// @Success 200 {object} response.Envelope
// @Router /generator/runs/{id}/slots [get]
func (h *GeneratorHandler) Slots(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var query dto.SlotQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	slots, err := h.service.Slots(c.Request.Context(), userID, c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "count", len(slots))
	response.JSON(c, http.StatusOK, slots, nil, middleware.ExtractMeta(c))
}

// Validate godoc
// @Summary Re-check a run against current teachers, classes, subjects and rooms
// @Tags Generator
// @Produce json
// @Security BearerAuth
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Router /generator/runs/{id}/validate [post]
func (h *GeneratorHandler) Validate(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	result, err := h.service.Validate(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil, middleware.ExtractMeta(c))
}

// Export godoc
// @Summary Download a run's timetable
// @Tags Generator
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Run ID"
// @Param format query string false "csv or pdf"
// @Param classId query string false "Render one class as a weekly grid"
// @Success 200 {file} file
// @Router /generator/runs/{id}/export [get]
func (h *GeneratorHandler) Export(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	file, err := h.exporter.Export(c.Request.Context(), userID, c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// Delete godoc
// @Summary Delete a finished run and its slots
// @Tags Generator
// @Security BearerAuth
// @Param id path string true "Run ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /generator/runs/{id} [delete]
func (h *GeneratorHandler) Delete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func requireUser(c *gin.Context) (string, bool) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return "", false
	}
	return userID, true
}
