package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"sheetkpi/internal/config"
	"sheetkpi/internal/dataprocessing"
	apperrors "sheetkpi/internal/errors"
	"sheetkpi/internal/exporter"
	"sheetkpi/internal/infrastructure"
	customMiddleware "sheetkpi/internal/middleware"
	"sheetkpi/internal/services"
	"sheetkpi/internal/sheets"
	handlers "sheetkpi/internal/transport/http"
	"sheetkpi/pkg/contracts"
)

// AppName is reported in logs and the version command
const AppName = "sheetkpi"

// Application wires configuration, telemetry, the dashboard pipeline and
// the HTTP surface
type Application struct {
	Config           *config.Config
	Logger           *slog.Logger
	OTelProviders    *infrastructure.OTelProviders
	Metrics          *infrastructure.PipelineMetrics
	Source           sheets.GridSource
	DashboardService *services.DashboardService
	HealthService    *services.HealthService
	Writer           *exporter.JSONWriter
	Router           *chi.Mux
	Server           *http.Server
	ErrorHandler     *apperrors.ErrorHandler
}

// Options customizes NewApplication
type Options struct {
	// Source replaces the grid source built from configuration
	Source sheets.GridSource
	// Clock stamps generated documents; time.Now when nil
	Clock func() time.Time
}

// NewApplication builds the application from cfg. The caller owns logger
// initialization and must call Close when done.
func NewApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}

	otelConfig := infrastructure.OTelConfigFrom(cfg.Telemetry)
	otelProviders, err := infrastructure.InitializeOTel(otelConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreatePipelineMetrics(otelProviders.Meter)
	if err != nil {
		_ = otelProviders.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	source := opts.Source
	if source == nil {
		source, err = NewSource(ctx, cfg.Sheets, logger)
		if err != nil {
			_ = otelProviders.Shutdown(ctx)
			return nil, err
		}
	}

	a := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		Source:        source,
		Writer:        exporter.NewJSONWriter(cfg.Output.Path, logger),
		ErrorHandler:  apperrors.NewErrorHandler(logger, false),
	}

	serviceConfig := services.DefaultDashboardServiceConfig()
	serviceConfig.Range = cfg.Sheets.Range
	serviceConfig.RawTailLimit = cfg.Output.RawTailLimit
	serviceConfig.Metrics = metrics
	serviceConfig.Tracer = otelProviders.Tracer
	serviceConfig.Clock = opts.Clock
	a.DashboardService = services.NewDashboardService(source, serviceConfig, logger)
	a.HealthService = services.NewHealthService(contracts.GetVersionInfo(), source.Name(), a.DashboardService, logger)

	a.setupRouter()
	a.createServer()

	return a, nil
}

// NewSource picks the workbook source when a workbook is configured and
// the Google Sheets client otherwise
func NewSource(ctx context.Context, cfg config.SheetsConfig, logger *slog.Logger) (sheets.GridSource, error) {
	if cfg.Workbook != "" {
		return sheets.NewWorkbookSource(cfg.Workbook, logger), nil
	}
	return sheets.NewClient(ctx, sheets.ClientConfig{
		SheetID:         cfg.SheetID,
		CredentialsPath: cfg.CredentialsPath,
		Timeout:         cfg.Timeout,
	}, logger)
}

// setupRouter registers middleware and routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// RequestID → RealIP → OTel → Logger → Recoverer → Timeout
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics).Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(a.ErrorHandler.Recoverer)
	r.Use(customMiddleware.Timeout(a.Config.Server.WriteTimeout))
	r.Use(customMiddleware.SecurityHeaders)
	r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{}))

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	dashboardHandler := handlers.NewDashboardHandler(a.DashboardService, a.Logger, a.ErrorHandler)
	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		healthHandler.Register(r)

		r.Group(func(r chi.Router) {
			if a.Config.Server.RateLimit.Enabled {
				r.Use(customMiddleware.NewRateLimiter(
					a.Config.Server.RateLimit.RPS,
					a.Config.Server.RateLimit.Burst,
					a.Logger,
				).Handler)
			}
			r.Mount("/dashboard", dashboardHandler.Routes())
		})
	})

	r.Method(http.MethodGet, "/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.ErrorHandler))

	a.Router = r
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Sync runs the pipeline once and writes the artifact
func (a *Application) Sync(ctx context.Context) (*services.SyncResult, error) {
	return a.DashboardService.Sync(ctx, a.Writer)
}

// Serve runs the HTTP server, and the refresh loop when a refresh interval
// is configured, until ctx is cancelled or the server fails
func (a *Application) Serve(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(gctx, "HTTP server listening",
			slog.String("addr", a.Server.Addr),
			slog.String("source", a.Source.Name()))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
		defer cancel()

		a.Logger.Info("shutting down HTTP server")
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil
	})

	if interval := a.Config.Server.RefreshInterval; interval > 0 {
		g.Go(func() error {
			a.refreshLoop(gctx, interval)
			return nil
		})
	}

	return g.Wait()
}

// refreshLoop regenerates the artifact immediately and then on every tick.
// Failed runs are logged and retried on the next tick.
func (a *Application) refreshLoop(ctx context.Context, interval time.Duration) {
	a.Logger.InfoContext(ctx, "artifact refresh enabled",
		slog.Duration("interval", interval),
		slog.String("path", a.Writer.Path()))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		a.refreshOnce(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (a *Application) refreshOnce(ctx context.Context) {
	if _, err := a.Sync(ctx); err != nil && ctx.Err() == nil {
		if errors.Is(err, dataprocessing.ErrNoData) {
			return
		}
		a.Logger.WarnContext(ctx, "scheduled refresh failed", slog.String("error", err.Error()))
	}
}

// Run serves until SIGINT or SIGTERM
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.Serve(ctx)
}

// Close flushes telemetry
func (a *Application) Close(ctx context.Context) error {
	if a.OTelProviders == nil {
		return nil
	}
	if err := a.OTelProviders.Shutdown(ctx); err != nil {
		a.Logger.ErrorContext(ctx, "error shutting down OpenTelemetry", slog.String("error", err.Error()))
		return err
	}
	return nil
}
