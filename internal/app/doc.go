// Package app assembles the sheetkpi application.
//
// NewApplication builds telemetry, the grid source, the dashboard service
// and the HTTP router from a loaded configuration. Sync performs a single
// pipeline run and writes the artifact. Serve exposes the HTTP API and,
// when server.refresh_interval is set, regenerates the artifact on a
// ticker. Serve returns after the context is cancelled and the server has
// shut down within server.shutdown_timeout.
//
// The package does not call os.Exit; the command decides exit codes.
package app
