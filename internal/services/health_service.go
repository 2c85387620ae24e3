package services

import (
	"context"
	"log/slog"
	"time"

	"sheetkpi/pkg/contracts"
)

// Health states reported by HealthService
const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"
)

// RunReporter exposes the status of the latest pipeline run
type RunReporter interface {
	LastRun() *RunStatus
}

// HealthReport is the body of GET /api/health
type HealthReport struct {
	Status        string     `json:"status"`
	CheckedAt     time.Time  `json:"checked_at"`
	Version       string     `json:"version"`
	Source        string     `json:"source"`
	UptimeSeconds float64    `json:"uptime_seconds"`
	LastSync      *RunStatus `json:"last_sync,omitempty"`
}

// BuildReport is the body of GET /api/version
type BuildReport struct {
	contracts.VersionInfo
	StartedAt time.Time `json:"started_at"`
}

// HealthService reports process and pipeline health
type HealthService struct {
	build     contracts.VersionInfo
	source    string
	runs      RunReporter
	clock     func() time.Time
	startedAt time.Time
	logger    *slog.Logger
}

// NewHealthService creates a health service for the named grid source.
// runs may be nil when no pipeline is attached.
func NewHealthService(build contracts.VersionInfo, source string, runs RunReporter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		build:     build,
		source:    source,
		runs:      runs,
		clock:     time.Now,
		startedAt: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck reports "degraded" when the latest run failed. A run that
// found no data is healthy.
func (hs *HealthService) HealthCheck(ctx context.Context) HealthReport {
	now := hs.clock()
	report := HealthReport{
		Status:        HealthOK,
		CheckedAt:     now,
		Version:       hs.build.Version,
		Source:        hs.source,
		UptimeSeconds: now.Sub(hs.startedAt).Seconds(),
	}

	if hs.runs != nil {
		report.LastSync = hs.runs.LastRun()
	}
	if report.LastSync != nil && report.LastSync.Outcome == OutcomeFailure {
		report.Status = HealthDegraded
		hs.logger.WarnContext(ctx, "last sync failed",
			slog.String("run_id", report.LastSync.RunID),
			slog.String("error", report.LastSync.Error))
	}

	return report
}

// Build returns the build metadata and process start time
func (hs *HealthService) Build() BuildReport {
	return BuildReport{VersionInfo: hs.build, StartedAt: hs.startedAt}
}
