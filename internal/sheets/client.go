package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	apperrors "sheetkpi/internal/errors"
)

// ClientConfig locates the spreadsheet and its service-account credentials
type ClientConfig struct {
	SheetID         string
	CredentialsPath string
	Timeout         time.Duration
}

// Client reads value ranges from one Google spreadsheet
type Client struct {
	service *gsheets.Service
	sheetID string
	timeout time.Duration
	logger  *slog.Logger
}

// NewClient loads the service-account key at cfg.CredentialsPath and
// builds a read-only Sheets client. Extra options are appended after the
// credentials.
func NewClient(ctx context.Context, cfg ClientConfig, logger *slog.Logger, opts ...option.ClientOption) (*Client, error) {
	if cfg.SheetID == "" {
		return nil, apperrors.NewConfigError("sheet id is required", nil)
	}

	credentialsJSON, err := os.ReadFile(cfg.CredentialsPath)
	if err != nil {
		return nil, apperrors.NewAuthError("failed to read credentials file", err).
			With("path", cfg.CredentialsPath)
	}
	if len(credentialsJSON) == 0 {
		return nil, apperrors.NewAuthError("credentials file is empty", nil).
			With("path", cfg.CredentialsPath)
	}

	clientOpts := append([]option.ClientOption{
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(gsheets.SpreadsheetsReadonlyScope),
	}, opts...)

	service, err := gsheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, apperrors.NewAuthError("failed to create sheets service", err)
	}

	return NewClientWithService(service, cfg.SheetID, cfg.Timeout, logger), nil
}

// NewClientWithService wraps an already configured Sheets service
func NewClientWithService(service *gsheets.Service, sheetID string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		service: service,
		sheetID: sheetID,
		timeout: timeout,
		logger:  logger.With(slog.String("component", "sheets_client")),
	}
}

// Name identifies the source in logs and metrics
func (c *Client) Name() string {
	return "google_sheets"
}

// FetchGrid reads the formatted values of a1Range. A range with no values
// yields an empty grid.
func (c *Client) FetchGrid(ctx context.Context, a1Range string) ([][]string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.service.Spreadsheets.Values.Get(c.sheetID, a1Range).Context(ctx).Do()
	if err != nil {
		c.logger.ErrorContext(ctx, "sheet fetch failed",
			slog.String("range", a1Range),
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)))
		return nil, classifyFetchError(err, a1Range)
	}

	grid := toGrid(resp.Values)
	c.logger.DebugContext(ctx, "sheet fetched",
		slog.String("range", resp.Range),
		slog.Int("rows", len(grid)),
		slog.Duration("duration", time.Since(start)))

	return grid, nil
}

// classifyFetchError separates rejected credentials from other failures
func classifyFetchError(err error, a1Range string) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return apperrors.NewAuthError("spreadsheet access denied", err).
				With("range", a1Range)
		case http.StatusBadRequest:
			return apperrors.NewParsingError(fmt.Sprintf("invalid range %q", a1Range), err)
		}
	}
	return apperrors.NewNetworkError("failed to fetch sheet values", err).
		With("range", a1Range)
}
