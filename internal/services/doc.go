// Package services wires grid sources, the normalizer and the dashboard
// builder into runnable pipelines.
//
// DashboardService performs one run per call: fetch the configured range,
// normalize it into records, aggregate the KPIs and, for Sync, persist the
// document. A range without data rows ends the run early with
// dataprocessing.ErrNoData and writes nothing. Runs are traced with
// OpenTelemetry and counted in the pipeline metrics.
//
// HealthService reports process health together with the outcome of the
// most recent run.
package services
