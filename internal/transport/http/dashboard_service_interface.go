package http

import (
	"context"

	"sheetkpi/internal/dataprocessing"
)

// DashboardServiceInterface defines the dashboard operations the handlers need
type DashboardServiceInterface interface {
	Generate(ctx context.Context) (*dataprocessing.Dashboard, error)
	UniqueValues(ctx context.Context, field string) ([]string, error)
}
