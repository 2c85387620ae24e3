package dataprocessing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// DefaultRawTailLimit is the number of trailing records kept in raw_data
const DefaultRawTailLimit = 100

// ErrNoData is returned when a sheet yields no data rows. It marks a normal
// early stop, not a failure.
var ErrNoData = errors.New("no data found in sheet range")

// ErrAmountOverflow is returned when finite amounts sum past the float64
// range. JSON cannot encode the result.
var ErrAmountOverflow = errors.New("amount total overflows float64")

// KPIs holds the scalar dashboard indicators
type KPIs struct {
	TotalRevenue   float64 `json:"total_revenue"`
	TotalDeals     int     `json:"total_deals"`
	DealsWon       int     `json:"deals_won"`
	ConversionRate float64 `json:"conversion_rate"`
}

// Charts holds the grouped aggregates plotted by the dashboard
type Charts struct {
	RevenueByChannel   map[string]float64 `json:"revenue_by_channel"`
	StatusDistribution map[string]int     `json:"status_distribution"`
	RevenueByRep       map[string]float64 `json:"revenue_by_rep"`
	RevenueTrend       Trend              `json:"revenue_trend"`
}

// Dashboard is the KPI document consumed by the dashboard front end.
// Its JSON shape is a compatibility contract.
type Dashboard struct {
	LastUpdated string   `json:"last_updated"`
	KPIs        KPIs     `json:"kpis"`
	Charts      Charts   `json:"charts"`
	RawData     []Record `json:"raw_data"`
}

// DashboardConfig holds configuration options for the DashboardBuilder
type DashboardConfig struct {
	Schema       Schema
	RawTailLimit int // Maximum number of trailing records copied to raw_data
}

// DefaultDashboardConfig returns the standard deals-sheet configuration
func DefaultDashboardConfig() DashboardConfig {
	return DashboardConfig{
		Schema:       DefaultSchema(),
		RawTailLimit: DefaultRawTailLimit,
	}
}

// DashboardBuilder assembles a Dashboard from normalized records
type DashboardBuilder struct {
	logger     *slog.Logger
	aggregator *Aggregator
	tailLimit  int
}

// NewDashboardBuilder creates a builder with the given configuration
func NewDashboardBuilder(logger *slog.Logger, config DashboardConfig) *DashboardBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	if config.RawTailLimit <= 0 {
		config.RawTailLimit = DefaultRawTailLimit
	}
	return &DashboardBuilder{
		logger:     logger.With(slog.String("component", "dashboard_builder")),
		aggregator: NewAggregator(config.Schema),
		tailLimit:  config.RawTailLimit,
	}
}

// Build computes every KPI over records and stamps the document with
// generatedAt. Empty input returns ErrNoData.
func (b *DashboardBuilder) Build(ctx context.Context, records []Record, generatedAt time.Time) (*Dashboard, error) {
	if len(records) == 0 {
		return nil, ErrNoData
	}

	agg := b.aggregator
	totalRevenue := agg.TotalRevenue(records)
	totalDeals := agg.TotalDeals(records)
	dealsWon := agg.DealsWon(records)

	dashboard := &Dashboard{
		LastUpdated: generatedAt.Format(time.RFC3339),
		KPIs: KPIs{
			TotalRevenue:   round(totalRevenue, 2),
			TotalDeals:     totalDeals,
			DealsWon:       dealsWon,
			ConversionRate: ConversionRate(dealsWon, totalDeals),
		},
		Charts: Charts{
			RevenueByChannel:   agg.RevenueByChannel(records),
			StatusDistribution: agg.StatusDistribution(records),
			RevenueByRep:       agg.RevenueByRep(records),
			RevenueTrend:       agg.RevenueTrend(records),
		},
		RawData: tail(records, b.tailLimit),
	}

	if err := checkFinite(dashboard); err != nil {
		return nil, err
	}

	b.logger.DebugContext(ctx, "dashboard built",
		slog.Int("record_count", totalDeals),
		slog.Int("raw_data_count", len(dashboard.RawData)),
		slog.Int("trend_points", len(dashboard.Charts.RevenueTrend)))

	return dashboard, nil
}

// checkFinite rejects documents holding an infinite sum
func checkFinite(d *Dashboard) error {
	bad := func(f float64) bool { return math.IsInf(f, 0) || math.IsNaN(f) }

	if bad(d.KPIs.TotalRevenue) {
		return fmt.Errorf("%w: total_revenue", ErrAmountOverflow)
	}
	for name, groups := range map[string]map[string]float64{
		"revenue_by_channel": d.Charts.RevenueByChannel,
		"revenue_by_rep":     d.Charts.RevenueByRep,
	} {
		for key, v := range groups {
			if bad(v) {
				return fmt.Errorf("%w: %s[%q]", ErrAmountOverflow, name, key)
			}
		}
	}
	for _, p := range d.Charts.RevenueTrend {
		if bad(p.Amount) {
			return fmt.Errorf("%w: revenue_trend[%q]", ErrAmountOverflow, p.Date)
		}
	}
	return nil
}

// tail returns a copy of the last n records in original order
func tail(records []Record, n int) []Record {
	start := len(records) - n
	if start < 0 {
		start = 0
	}
	out := make([]Record, len(records)-start)
	copy(out, records[start:])
	return out
}
