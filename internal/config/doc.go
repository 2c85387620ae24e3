// Package config provides centralized configuration management for sheetkpi.
// It handles loading configuration from multiple sources, validation, and provides
// a type-safe API for accessing configuration values throughout the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources, later ones winning:
//
//	1. Default values
//	2. Environment variables (a .env file is loaded into the environment first)
//	3. Configuration file (config.yaml, config.yml or config.json, or --config)
//	4. Options passed to Load, which the CLI builds from its flags
//
// # Environment Variables
//
// Variables follow the pattern KPI_<SECTION>_<KEY>:
//
//	KPI_SHEETS_RANGE=Raw_Data!A:F
//	KPI_OUTPUT_FILE=dashboard_data.json
//	KPI_LOGGING_LEVEL=debug
//	KPI_SERVER_PORT=8080
//	KPI_SERVER_REFRESH_INTERVAL=5m
//
// The sheet id and credentials path are also read from the unprefixed
// GOOGLE_SHEET_ID and GOOGLE_CREDENTIALS_PATH variables.
//
// # Validation
//
// Load validates the merged configuration with go-playground/validator.
// A missing sheet id is a configuration error unless a local workbook
// (KPI_SHEETS_WORKBOOK or --workbook) replaces Google Sheets as the source.
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
