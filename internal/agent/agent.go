package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emirozbir/clinic-insights/internal/analysis"
	"github.com/emirozbir/clinic-insights/internal/collectors"
	"github.com/emirozbir/clinic-insights/internal/config"
	"github.com/emirozbir/clinic-insights/internal/llm"
	"github.com/emirozbir/clinic-insights/internal/metrics"
	"github.com/emirozbir/clinic-insights/internal/models"
	"github.com/emirozbir/clinic-insights/internal/ui"
)

type Agent struct {
	aggregator       *collectors.Aggregator
	llmClient        llm.Client
	logger           *zap.Logger
	timeout          time.Duration
	defaultTimeframe models.Timeframe
	now              func() time.Time
}

// NewAgent builds an agent whose generation client is selected by cfg.
func NewAgent(cfg *config.Config, store collectors.Store, logger *zap.Logger) (*Agent, error) {
	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	defaultTimeframe, err := models.ParseTimeframe(cfg.Insights.DefaultTimeframe)
	if err != nil {
		return nil, fmt.Errorf("invalid default timeframe: %w", err)
	}

	a := New(store, llmClient, logger, cfg.Insights.GenerationTimeout)
	a.defaultTimeframe = defaultTimeframe
	return a, nil
}

// New wires an agent from explicit collaborators. A zero timeout leaves the
// generation call bounded only by the caller's context.
func New(store collectors.Store, llmClient llm.Client, logger *zap.Logger, timeout time.Duration) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{
		aggregator:       collectors.NewAggregator(store),
		llmClient:        llmClient,
		logger:           logger,
		timeout:          timeout,
		defaultTimeframe: models.DefaultTimeframe,
		now:              time.Now,
	}
}

// WithClock replaces the time source for window computation and report timestamps.
func (a *Agent) WithClock(now func() time.Time) *Agent {
	a.now = now
	a.aggregator.WithClock(now)
	return a
}

type InsightRequest struct {
	OrganizationID int64
	// Timeframe is one of 1h, 24h, 7d, 30d; empty selects the configured default.
	Timeframe string
	Progress  ui.ProgressReporter
}

// GenerateReport runs aggregation, pattern analysis, prediction and insight
// assembly for one organization window. Only argument and storage errors are
// returned; generation failures degrade to the fallback insights.
func (a *Agent) GenerateReport(ctx context.Context, req InsightRequest) (*models.HealthReport, error) {
	progress := req.Progress
	if progress == nil {
		progress = ui.Discard
	}

	timeframe := a.defaultTimeframe
	if req.Timeframe != "" {
		tf, err := models.ParseTimeframe(req.Timeframe)
		if err != nil {
			return nil, err
		}
		timeframe = tf
	}

	a.logger.Info("starting insight generation",
		zap.Int64("organization_id", req.OrganizationID),
		zap.String("timeframe", string(timeframe)),
	)

	progress.Update("Fetching error and performance data...")
	records, samples, err := a.aggregator.Fetch(ctx, req.OrganizationID, timeframe)
	if err != nil {
		return nil, err
	}

	progress.Update("Analyzing error patterns...")
	patterns := analysis.AnalyzePatterns(records)

	progress.Update("Generating predictions and insights...")
	var (
		predictions []models.PredictiveInsight
		insights    models.AIInsightReport
		fallback    bool
		wg          sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		predictions = analysis.Predict(records)
	}()
	go func() {
		defer wg.Done()
		insights, fallback = a.Assemble(ctx, req.OrganizationID, records, samples, patterns)
	}()
	wg.Wait()

	report := &models.HealthReport{
		ID:             uuid.NewString(),
		OrganizationID: req.OrganizationID,
		Timeframe:      timeframe,
		GeneratedAt:    a.now().UTC(),
		ErrorCount:     len(records),
		SampleCount:    len(samples),
		Patterns:       patterns,
		Predictions:    predictions,
		Insights:       insights,
		Fallback:       fallback,
	}

	a.logger.Info("insight generation completed",
		zap.String("report_id", report.ID),
		zap.Int("errors", report.ErrorCount),
		zap.Int("patterns", len(patterns)),
		zap.Int("health_score", insights.SystemHealth.Score),
		zap.Bool("fallback", fallback),
	)

	return report, nil
}

// Assemble asks the generation service for an insight report and validates
// the answer. It never fails: on any error, timeout or cancellation it
// returns FallbackReport and true.
func (a *Agent) Assemble(ctx context.Context, organizationID int64, records []models.ErrorRecord, samples []models.PerformanceSample, patterns []models.ErrorPattern) (models.AIInsightReport, bool) {
	if err := ctx.Err(); err != nil {
		return a.fallback(organizationID, metrics.ReasonCancelled, err), true
	}

	prompt, err := buildInsightPrompt(buildPayload(records, samples), patterns)
	if err != nil {
		return a.fallback(organizationID, metrics.ReasonMalformedResponse, err), true
	}

	a.logger.Debug("sending telemetry to LLM for insight generation", zap.Int64("organization_id", organizationID))
	start := time.Now()
	text, err := a.complete(ctx, prompt)
	metrics.ObserveGeneration(time.Since(start))
	if err != nil {
		reason := metrics.ReasonExternalService
		if ctx.Err() != nil {
			reason = metrics.ReasonCancelled
		}
		return a.fallback(organizationID, reason, err), true
	}

	report, err := parseInsightResponse(text)
	if err != nil {
		return a.fallback(organizationID, metrics.ReasonMalformedResponse, err), true
	}

	report.Patterns = append([]models.ErrorPattern{}, patterns...)
	metrics.ObserveReport(metrics.OutcomeGenerated, "")
	return report, false
}

type completion struct {
	text string
	err  error
}

// complete bounds the generation call by a.timeout and returns as soon as
// ctx is done, even if the client does not honour cancellation.
func (a *Agent) complete(ctx context.Context, prompt string) (string, error) {
	if a.llmClient == nil {
		return "", fmt.Errorf("%w: no LLM client configured", models.ErrExternalService)
	}

	callCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	done := make(chan completion, 1)
	go func() {
		text, err := a.llmClient.Complete(callCtx, prompt)
		done <- completion{text: text, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			if errors.Is(res.err, models.ErrExternalService) {
				return "", res.err
			}
			return "", fmt.Errorf("%w: %v", models.ErrExternalService, res.err)
		}
		return res.text, nil
	case <-callCtx.Done():
		return "", fmt.Errorf("%w: %v", models.ErrExternalService, callCtx.Err())
	}
}

func (a *Agent) fallback(organizationID int64, reason string, err error) models.AIInsightReport {
	a.logger.Warn("using fallback insight report",
		zap.Int64("organization_id", organizationID),
		zap.String("reason", reason),
		zap.Error(err),
	)
	metrics.ObserveReport(metrics.OutcomeFallback, reason)
	return FallbackReport()
}
