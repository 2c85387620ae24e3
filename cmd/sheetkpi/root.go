package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"sheetkpi/internal/app"
	"sheetkpi/internal/config"
	apperrors "sheetkpi/internal/errors"
	"sheetkpi/internal/infrastructure"
)

// globalFlags are shared by every subcommand
type globalFlags struct {
	configFile string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "sheetkpi",
		Short: "Compute sales KPIs from a Google Sheets deals range",
		Long: `sheetkpi reads a deals sheet (date, amount, status, channel, sales rep),
computes revenue, conversion and per-channel, per-rep and per-day aggregates,
and writes them as a JSON document for the dashboard front end.

Configuration comes from defaults, then KPI_* environment variables (plus
GOOGLE_SHEET_ID and GOOGLE_CREDENTIALS_PATH), then config.yaml, then flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.configFile, "config", "",
		"path to the config file (default: config.yaml, config.yml or config.json in the working directory)")

	root.AddCommand(
		newSyncCmd(flags),
		newServeCmd(flags),
		newVersionCmd(),
	)
	return root
}

// setup loads configuration, installs the logger and builds the application
func setup(ctx context.Context, flags *globalFlags, opts ...config.Option) (*app.Application, error) {
	cfg, err := config.Load(flags.configFile, opts...)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to load configuration", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to initialize logger", err)
	}

	logger.InfoContext(ctx, "starting",
		slog.String("range", cfg.Sheets.Range),
		slog.String("output", cfg.Output.Path))

	a, err := app.NewApplication(ctx, cfg, logger, app.Options{})
	if err != nil {
		logger.ErrorContext(ctx, "failed to initialize application", slog.String("error", err.Error()))
		return nil, err
	}
	return a, nil
}

// closeApp flushes telemetry and the log file
func closeApp(a *app.Application) {
	ctx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()
	if err := a.Close(ctx); err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Warn("telemetry shutdown incomplete", slog.String("error", err.Error()))
	}
	_ = infrastructure.CloseLogFile()
}
