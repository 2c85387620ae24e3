package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"sheetkpi/internal/dataprocessing"
	apperrors "sheetkpi/internal/errors"
	"sheetkpi/internal/infrastructure"
	"sheetkpi/internal/sheets"
)

// Sync outcomes reported to metrics and health
const (
	OutcomeSuccess = "success"
	OutcomeNoData  = "no_data"
	OutcomeFailure = "failure"
)

// DocumentWriter persists a finished dashboard document
type DocumentWriter interface {
	Write(ctx context.Context, v interface{}) error
	Path() string
}

// DashboardServiceConfig configures a DashboardService
type DashboardServiceConfig struct {
	Range        string
	RawTailLimit int
	Normalizer   dataprocessing.NormalizerConfig
	Schema       dataprocessing.Schema
	Metrics      *infrastructure.PipelineMetrics
	Tracer       trace.Tracer
	Clock        func() time.Time
}

// DefaultDashboardServiceConfig reads the deals sheet range with the
// standard schema
func DefaultDashboardServiceConfig() DashboardServiceConfig {
	return DashboardServiceConfig{
		Range:        "Raw_Data!A:F",
		RawTailLimit: dataprocessing.DefaultRawTailLimit,
		Normalizer:   dataprocessing.DefaultNormalizerConfig(),
		Schema:       dataprocessing.DefaultSchema(),
	}
}

// RunStatus describes the most recent pipeline run
type RunStatus struct {
	RunID      string        `json:"run_id"`
	Outcome    string        `json:"outcome"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration_ns"`
	Records    int           `json:"records"`
	Error      string        `json:"error,omitempty"`
}

// SyncResult is returned by a successful Sync
type SyncResult struct {
	RunID     string
	Path      string
	Dashboard *dataprocessing.Dashboard
}

// DashboardService runs the fetch, normalize and aggregate pipeline over
// one grid source. Each call is an independent run.
type DashboardService struct {
	source     sheets.GridSource
	a1Range    string
	normalizer *dataprocessing.Normalizer
	builder    *dataprocessing.DashboardBuilder
	metrics    *infrastructure.PipelineMetrics
	tracer     trace.Tracer
	clock      func() time.Time
	logger     *slog.Logger

	mu      sync.RWMutex
	lastRun *RunStatus
}

// NewDashboardService creates a service reading cfg.Range from source
func NewDashboardService(source sheets.GridSource, cfg DashboardServiceConfig, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer(infrastructure.ServiceName)
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Schema == (dataprocessing.Schema{}) {
		cfg.Schema = dataprocessing.DefaultSchema()
	}
	if cfg.Normalizer.FieldTypes == nil {
		cfg.Normalizer = dataprocessing.DefaultNormalizerConfig()
	}

	return &DashboardService{
		source:     source,
		a1Range:    cfg.Range,
		normalizer: dataprocessing.NewNormalizer(logger, cfg.Normalizer),
		builder: dataprocessing.NewDashboardBuilder(logger, dataprocessing.DashboardConfig{
			Schema:       cfg.Schema,
			RawTailLimit: cfg.RawTailLimit,
		}),
		metrics: cfg.Metrics,
		tracer:  cfg.Tracer,
		clock:   cfg.Clock,
		logger: logger.With(
			slog.String("component", "dashboard_service"),
			slog.String("source", source.Name())),
	}
}

// Records fetches the range and normalizes it. An empty or header-only
// range returns dataprocessing.ErrNoData.
func (s *DashboardService) Records(ctx context.Context) ([]dataprocessing.Record, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.fetch",
		trace.WithAttributes(
			attribute.String("sheet.source", s.source.Name()),
			attribute.String("sheet.range", s.a1Range)))
	defer span.End()

	grid, err := s.source.FetchGrid(ctx, s.a1Range)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	records := s.normalizer.Normalize(ctx, grid)
	span.SetAttributes(attribute.Int("sheet.records", len(records)))
	if len(records) == 0 {
		return nil, dataprocessing.ErrNoData
	}
	return records, nil
}

// Generate runs the pipeline and returns a fresh dashboard document
func (s *DashboardService) Generate(ctx context.Context) (*dataprocessing.Dashboard, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.generate")
	defer span.End()
	ctx = infrastructure.ContextWithTraceID(ctx)

	start := time.Now()
	logger := s.logger.With(slog.String("run_id", infrastructure.GetTraceID(ctx)))
	logger.InfoContext(ctx, "fetching sheet range", slog.String("range", s.a1Range))

	records, err := s.Records(ctx)
	if err != nil {
		s.finish(ctx, start, 0, err)
		if errors.Is(err, dataprocessing.ErrNoData) {
			logger.WarnContext(ctx, "no data found in sheet range", slog.String("range", s.a1Range))
		} else {
			logger.ErrorContext(ctx, "sheet fetch failed", slog.Any("error", err))
		}
		return nil, err
	}

	dashboard, err := s.builder.Build(ctx, records, s.clock())
	if err != nil {
		if errors.Is(err, dataprocessing.ErrAmountOverflow) {
			err = apperrors.NewParsingError("amounts exceed the representable range", err)
		}
		logger.ErrorContext(ctx, "dashboard build failed", slog.Any("error", err))
		s.finish(ctx, start, len(records), err)
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	s.logSummary(ctx, logger, dashboard)
	s.finish(ctx, start, len(records), nil)
	return dashboard, nil
}

// Sync generates a dashboard and persists it through w. Nothing is written
// when the run fails or finds no data.
func (s *DashboardService) Sync(ctx context.Context, w DocumentWriter) (*SyncResult, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.sync",
		trace.WithAttributes(attribute.String("output.path", w.Path())))
	defer span.End()
	ctx = infrastructure.ContextWithTraceID(ctx)

	dashboard, err := s.Generate(ctx)
	if err != nil {
		return nil, err
	}

	if err := w.Write(ctx, dashboard); err != nil {
		infrastructure.RecordError(ctx, err)
		s.logger.ErrorContext(ctx, "failed to write dashboard",
			slog.String("path", w.Path()),
			slog.Any("error", err))
		s.setStatus(ctx, OutcomeFailure, err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "dashboard data saved", slog.String("path", w.Path()))
	return &SyncResult{
		RunID:     infrastructure.GetTraceID(ctx),
		Path:      w.Path(),
		Dashboard: dashboard,
	}, nil
}

// UniqueValues returns the distinct values of field in the current range
func (s *DashboardService) UniqueValues(ctx context.Context, field string) ([]string, error) {
	records, err := s.Records(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := records[0].Get(field); !ok {
		return nil, apperrors.NewAppError(apperrors.ErrTypeNotFound,
			fmt.Sprintf("field %q not found", field), ErrUnknownField)
	}
	return dataprocessing.UniqueValues(records, field), nil
}

// LastRun returns the status of the most recent Generate call, or nil
// before the first one
func (s *DashboardService) LastRun() *RunStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastRun == nil {
		return nil
	}
	status := *s.lastRun
	return &status
}

func (s *DashboardService) logSummary(ctx context.Context, logger *slog.Logger, d *dataprocessing.Dashboard) {
	logger.InfoContext(ctx, "dashboard KPIs computed",
		slog.String("total_revenue", formatAmount(d.KPIs.TotalRevenue)),
		slog.Int("total_deals", d.KPIs.TotalDeals),
		slog.Int("deals_won", d.KPIs.DealsWon),
		slog.Float64("conversion_rate", d.KPIs.ConversionRate))
}

func (s *DashboardService) finish(ctx context.Context, start time.Time, records int, err error) {
	outcome := OutcomeSuccess
	switch {
	case errors.Is(err, dataprocessing.ErrNoData):
		outcome = OutcomeNoData
	case err != nil:
		outcome = OutcomeFailure
	}

	duration := time.Since(start)
	infrastructure.RecordSyncRun(ctx, s.metrics, s.source.Name(), outcome, records, duration)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRun = &RunStatus{
		RunID:      infrastructure.GetTraceID(ctx),
		Outcome:    outcome,
		FinishedAt: s.clock(),
		Duration:   duration,
		Records:    records,
	}
	if err != nil {
		s.lastRun.Error = err.Error()
	}
}

// setStatus overrides the outcome of the last run after a failed write
func (s *DashboardService) setStatus(ctx context.Context, outcome string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastRun == nil || s.lastRun.RunID != infrastructure.GetTraceID(ctx) {
		return
	}
	s.lastRun.Outcome = outcome
	if err != nil {
		s.lastRun.Error = err.Error()
	}
}
