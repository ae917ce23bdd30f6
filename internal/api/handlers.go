package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emirozbir/clinic-insights/internal/agent"
	"github.com/emirozbir/clinic-insights/internal/database"
	"github.com/emirozbir/clinic-insights/internal/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ReportGenerator produces a health report for one organization window.
type ReportGenerator interface {
	GenerateReport(ctx context.Context, req agent.InsightRequest) (*models.HealthReport, error)
}

// ReportStore is the subset of database.Store the handlers need.
type ReportStore interface {
	InsertError(ctx context.Context, rec models.ErrorRecord) (int64, error)
	InsertPerformance(ctx context.Context, sample models.PerformanceSample) (int64, error)
	SaveReport(ctx context.Context, report *models.HealthReport) error
	GetReport(ctx context.Context, id string) (*database.StoredReport, error)
	ListReports(ctx context.Context, organizationID int64, limit, offset int) ([]database.StoredReport, error)
	CountReports(ctx context.Context, organizationID int64) (int, error)
	DeleteReport(ctx context.Context, id string) error
}

type Handler struct {
	generator ReportGenerator
	store     ReportStore
	logger    *zap.Logger
	now       func() time.Time
}

func NewHandler(generator ReportGenerator, store ReportStore, logger *zap.Logger) *Handler {
	return &Handler{
		generator: generator,
		store:     store,
		logger:    logger,
		now:       time.Now,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   h.now(),
	})
}

// GetInsights generates a report for the organization and records it in history.
func (h *Handler) GetInsights(c *gin.Context) {
	orgID, ok := h.organizationID(c)
	if !ok {
		return
	}

	report, err := h.generator.GenerateReport(c.Request.Context(), agent.InsightRequest{
		OrganizationID: orgID,
		Timeframe:      c.Query("timeframe"),
	})
	if err != nil {
		h.respondError(c, "insight generation failed", err)
		return
	}

	if err := h.store.SaveReport(c.Request.Context(), report); err != nil {
		// History is best effort.
		h.logger.Error("failed to save report",
			zap.String("report_id", report.ID),
			zap.Int64("organization_id", orgID),
			zap.Error(err))
	}

	c.JSON(http.StatusOK, report)
}

type IngestErrorRequest struct {
	Type       string          `json:"type" binding:"required"`
	Severity   models.Severity `json:"severity" binding:"required"`
	Message    string          `json:"message" binding:"required"`
	Component  string          `json:"component"`
	OccurredAt *time.Time      `json:"occurred_at"`
}

func (h *Handler) IngestError(c *gin.Context) {
	orgID, ok := h.organizationID(c)
	if !ok {
		return
	}

	var req IngestErrorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Severity.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "severity must be one of LOW, MEDIUM, HIGH, CRITICAL"})
		return
	}

	rec := models.ErrorRecord{
		OrganizationID: orgID,
		Type:           req.Type,
		Severity:       req.Severity,
		Message:        req.Message,
		Component:      req.Component,
		OccurredAt:     h.occurredAt(req.OccurredAt),
	}

	id, err := h.store.InsertError(c.Request.Context(), rec)
	if err != nil {
		h.logger.Error("failed to store error record", zap.Int64("organization_id", orgID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store error record"})
		return
	}
	rec.ID = id

	c.JSON(http.StatusCreated, rec)
}

type IngestPerformanceRequest struct {
	Metric     string     `json:"metric" binding:"required"`
	Value      *float64   `json:"value" binding:"required"`
	OccurredAt *time.Time `json:"occurred_at"`
}

func (h *Handler) IngestPerformance(c *gin.Context) {
	orgID, ok := h.organizationID(c)
	if !ok {
		return
	}

	var req IngestPerformanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sample := models.PerformanceSample{
		OrganizationID: orgID,
		Metric:         req.Metric,
		Value:          *req.Value,
		OccurredAt:     h.occurredAt(req.OccurredAt),
	}

	id, err := h.store.InsertPerformance(c.Request.Context(), sample)
	if err != nil {
		h.logger.Error("failed to store performance sample", zap.Int64("organization_id", orgID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store performance sample"})
		return
	}
	sample.ID = id

	c.JSON(http.StatusCreated, sample)
}

type reportSummary struct {
	ID          string           `json:"id"`
	Timeframe   models.Timeframe `json:"timeframe"`
	GeneratedAt time.Time        `json:"generated_at"`
	HealthScore int              `json:"health_score"`
	Fallback    bool             `json:"fallback"`
}

func (h *Handler) ListReports(c *gin.Context) {
	orgID, ok := h.organizationID(c)
	if !ok {
		return
	}

	limit, err := queryInt(c, "limit", defaultPageSize)
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset"})
		return
	}

	stored, err := h.store.ListReports(c.Request.Context(), orgID, limit, offset)
	if err != nil {
		h.logger.Error("failed to list reports", zap.Int64("organization_id", orgID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list reports"})
		return
	}
	total, err := h.store.CountReports(c.Request.Context(), orgID)
	if err != nil {
		h.logger.Error("failed to count reports", zap.Int64("organization_id", orgID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list reports"})
		return
	}

	reports := make([]reportSummary, 0, len(stored))
	for _, r := range stored {
		reports = append(reports, reportSummary{
			ID:          r.ID,
			Timeframe:   r.Timeframe,
			GeneratedAt: r.GeneratedAt,
			HealthScore: r.HealthScore,
			Fallback:    r.Fallback,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"organization_id": orgID,
		"total":           total,
		"limit":           limit,
		"offset":          offset,
		"reports":         reports,
	})
}

func (h *Handler) GetReport(c *gin.Context) {
	id := c.Param("reportId")
	stored, err := h.store.GetReport(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("failed to load report", zap.String("report_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load report"})
		return
	}
	if stored == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}
	c.JSON(http.StatusOK, stored.Report)
}

func (h *Handler) DeleteReport(c *gin.Context) {
	id := c.Param("reportId")
	stored, err := h.store.GetReport(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("failed to load report", zap.String("report_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load report"})
		return
	}
	if stored == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}

	if err := h.store.DeleteReport(c.Request.Context(), id); err != nil {
		h.logger.Error("failed to delete report", zap.String("report_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete report"})
		return
	}

	h.logger.Info("report deleted", zap.String("report_id", id))
	c.Status(http.StatusNoContent)
}

func (h *Handler) organizationID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "organization id must be a positive integer"})
		return 0, false
	}
	return id, true
}

func (h *Handler) occurredAt(t *time.Time) time.Time {
	if t == nil || t.IsZero() {
		return h.now().UTC()
	}
	return t.UTC()
}

func (h *Handler) respondError(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrDataAccess):
		h.logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "telemetry storage unavailable"})
	default:
		h.logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
