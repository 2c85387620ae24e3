package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load
const EnvPrefix = "KPI"

// Config represents the complete application configuration
type Config struct {
	Sheets    SheetsConfig    `yaml:"sheets" envconfig:"SHEETS"`
	Output    OutputConfig    `yaml:"output" envconfig:"OUTPUT"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// SheetsConfig locates the source spreadsheet.
// The GOOGLE_* tags double as unprefixed environment names.
type SheetsConfig struct {
	SheetID         string        `yaml:"sheet_id" envconfig:"GOOGLE_SHEET_ID" validate:"required_without=Workbook"`
	Workbook        string        `yaml:"workbook" envconfig:"WORKBOOK"`
	Range           string        `yaml:"range" envconfig:"RANGE" validate:"required"`
	CredentialsPath string        `yaml:"credentials_path" envconfig:"GOOGLE_CREDENTIALS_PATH" validate:"required"`
	Timeout         time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gte=0"`
}

// OutputConfig controls the dashboard artifact
type OutputConfig struct {
	Path         string `yaml:"path" envconfig:"FILE" validate:"required"`
	RawTailLimit int    `yaml:"raw_tail_limit" envconfig:"RAW_TAIL_LIMIT" validate:"gte=1"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// ServerConfig contains HTTP server configuration for serve mode
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	RefreshInterval time.Duration   `yaml:"refresh_interval" envconfig:"REFRESH_INTERVAL" validate:"gte=0"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// TelemetryConfig controls OpenTelemetry tracing and metrics
type TelemetryConfig struct {
	Enabled       bool    `yaml:"enabled" envconfig:"ENABLED"`
	TraceExporter string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	SampleRatio   float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
	Environment   string  `yaml:"environment" envconfig:"ENVIRONMENT"`
}

// Option adjusts a loaded configuration before validation
type Option func(*Config)

// WithWorkbook reads the range from a local xlsx file instead of Google Sheets
func WithWorkbook(path string) Option {
	return func(c *Config) {
		if path != "" {
			c.Sheets.Workbook = path
		}
	}
}

// WithRange overrides the A1 range
func WithRange(a1Range string) Option {
	return func(c *Config) {
		if a1Range != "" {
			c.Sheets.Range = a1Range
		}
	}
}

// WithOutputPath overrides the artifact path
func WithOutputPath(path string) Option {
	return func(c *Config) {
		if path != "" {
			c.Output.Path = path
		}
	}
}

// Load builds the configuration from defaults, then environment variables,
// then the config file, then opts. A .env file in the working directory is
// loaded into the environment first without overriding variables already
// set. An empty path searches the standard locations.
func Load(path string, opts ...Option) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := Default()

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if path == "" {
		path = getConfigFilePath()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file %s: %w", path, err)
		}
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// flatSheets is the flat layout of older config.json files, where the sheet
// settings sit at the top level instead of under "sheets"
type flatSheets struct {
	SheetID         *string `yaml:"sheet_id"`
	Range           *string `yaml:"range"`
	CredentialsPath *string `yaml:"credentials_path"`
}

// loadFromFile overlays the keys present in a YAML (or JSON) file onto cfg.
// Top-level sheet_id, range and credentials_path win over the nested keys.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}

	var flat flatSheets
	if err := yaml.Unmarshal(data, &flat); err != nil {
		return err
	}
	if flat.SheetID != nil {
		cfg.Sheets.SheetID = *flat.SheetID
	}
	if flat.Range != nil {
		cfg.Sheets.Range = *flat.Range
	}
	if flat.CredentialsPath != nil {
		cfg.Sheets.CredentialsPath = *flat.CredentialsPath
	}
	return nil
}

// Validate checks required settings and value ranges
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// getConfigFilePath returns the first config file found in the working directory
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"config.yml",
		"config.json",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Sheets: SheetsConfig{
			Range:           "Raw_Data!A:F",
			CredentialsPath: "./google-credentials.json",
			Timeout:         30 * time.Second,
		},
		Output: OutputConfig{
			Path:         "dashboard_data.json",
			RawTailLimit: 100,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/sheetkpi.log",
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     10,
				Burst:   20,
			},
		},
		Telemetry: TelemetryConfig{
			Enabled:       true,
			TraceExporter: "none",
			SampleRatio:   1.0,
			Environment:   "development",
		},
	}
}
