// Package dataprocessing turns a raw spreadsheet grid into the KPI dashboard
// document. It is the pure core of the sync pipeline: no I/O, no globals.
//
// # Architecture
//
// The package is organized into two components:
//
// 1. Normalizer: converts a [][]string grid (first row = header) into typed Records
// 2. Aggregator/DashboardBuilder: computes KPIs and assembles the Dashboard
//
// # Usage
//
//	normalizer := dataprocessing.NewNormalizer(logger, dataprocessing.DefaultNormalizerConfig())
//	records := normalizer.Normalize(ctx, grid)
//
//	builder := dataprocessing.NewDashboardBuilder(logger, dataprocessing.DefaultDashboardConfig())
//	dashboard, err := builder.Build(ctx, records, time.Now())
//	if errors.Is(err, dataprocessing.ErrNoData) {
//	    // nothing to publish
//	}
//
// # Data Flow
//
//	Sheet grid → Normalizer → []Record → DashboardBuilder → Dashboard → JSON
//
// # Missing fields
//
// Records tolerate absent columns. Record.Text and Record.Number return a
// defined default instead of failing, and every aggregate goes through them.
package dataprocessing
