// Package http implements the HTTP handlers of the dashboard service.
//
// Handlers stay thin: they parse the request, call a service and render the
// result as JSON. Failures are converted to RFC 7807 problem responses by
// the shared errors.ErrorHandler.
//
//	GET /api/dashboard                  fresh dashboard document
//	GET /api/dashboard/values/{field}   distinct values of one column
//	GET /api/health                     health and last sync status
//	GET /api/version                    build information
//	GET /metrics                        Prometheus metrics
package http
