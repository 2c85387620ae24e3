package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestLoad tests the Load function with various scenarios
func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		fileName    string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with required sheet id from unprefixed env",
			env:  map[string]string{"GOOGLE_SHEET_ID": "sheet-123"},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "sheet-123", cfg.Sheets.SheetID)
				assert.Equal(t, "Raw_Data!A:F", cfg.Sheets.Range)
				assert.Equal(t, "./google-credentials.json", cfg.Sheets.CredentialsPath)
				assert.Equal(t, 30*time.Second, cfg.Sheets.Timeout)

				assert.Equal(t, "dashboard_data.json", cfg.Output.Path)
				assert.Equal(t, 100, cfg.Output.RawTailLimit)

				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "console", cfg.Logging.Output)

				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, time.Duration(0), cfg.Server.RefreshInterval)
				assert.True(t, cfg.Server.RateLimit.Enabled)
				assert.Equal(t, 10.0, cfg.Server.RateLimit.RPS)

				assert.True(t, cfg.Telemetry.Enabled)
				assert.Equal(t, "none", cfg.Telemetry.TraceExporter)
			},
		},
		{
			name: "prefixed environment variables",
			env: map[string]string{
				"KPI_SHEETS_GOOGLE_SHEET_ID":         "prefixed-id",
				"KPI_SHEETS_RANGE":                   "Deals!A1:G500",
				"KPI_SHEETS_GOOGLE_CREDENTIALS_PATH": "/etc/kpi/creds.json",
				"KPI_OUTPUT_FILE":                    "/tmp/out.json",
				"KPI_OUTPUT_RAW_TAIL_LIMIT":          "25",
				"KPI_LOGGING_LEVEL":                  "debug",
				"KPI_SERVER_PORT":                    "9090",
				"KPI_SERVER_REFRESH_INTERVAL":        "5m",
				"KPI_SERVER_RATE_LIMIT_ENABLED":      "false",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "prefixed-id", cfg.Sheets.SheetID)
				assert.Equal(t, "Deals!A1:G500", cfg.Sheets.Range)
				assert.Equal(t, "/etc/kpi/creds.json", cfg.Sheets.CredentialsPath)
				assert.Equal(t, "/tmp/out.json", cfg.Output.Path)
				assert.Equal(t, 25, cfg.Output.RawTailLimit)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 5*time.Minute, cfg.Server.RefreshInterval)
				assert.False(t, cfg.Server.RateLimit.Enabled)
			},
		},
		{
			name: "unprefixed credentials alias",
			env: map[string]string{
				"GOOGLE_SHEET_ID":         "alias-id",
				"GOOGLE_CREDENTIALS_PATH": "/secrets/sa.json",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "/secrets/sa.json", cfg.Sheets.CredentialsPath)
			},
		},
		{
			name:    "missing sheet id",
			wantErr: true,
		},
		{
			name: "yaml file overrides environment",
			env: map[string]string{
				"GOOGLE_SHEET_ID":   "env-id",
				"KPI_SERVER_PORT":   "9090",
				"KPI_LOGGING_LEVEL": "warn",
			},
			fileName: "config.yaml",
			file: `
sheets:
  sheet_id: file-id
  range: "Pipeline!A:F"
server:
  port: 7070
  refresh_interval: 30s
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "file-id", cfg.Sheets.SheetID)
				assert.Equal(t, "Pipeline!A:F", cfg.Sheets.Range)
				assert.Equal(t, 7070, cfg.Server.Port)
				assert.Equal(t, 30*time.Second, cfg.Server.RefreshInterval)
				assert.Equal(t, "warn", cfg.Logging.Level, "keys absent from the file keep env values")
				assert.Equal(t, "./google-credentials.json", cfg.Sheets.CredentialsPath)
			},
		},
		{
			name:     "json file",
			fileName: "config.json",
			file:     `{"sheets": {"sheet_id": "json-id"}, "output": {"path": "out/kpi.json", "raw_tail_limit": 10}}`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "json-id", cfg.Sheets.SheetID)
				assert.Equal(t, "out/kpi.json", cfg.Output.Path)
				assert.Equal(t, 10, cfg.Output.RawTailLimit)
			},
		},
		{
			name:     "flat json file",
			fileName: "config.json",
			file:     `{"sheet_id": "abc", "range": "Deals!A:E", "credentials_path": "/x.json"}`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "abc", cfg.Sheets.SheetID)
				assert.Equal(t, "Deals!A:E", cfg.Sheets.Range)
				assert.Equal(t, "/x.json", cfg.Sheets.CredentialsPath)
			},
		},
		{
			name:     "flat sheet id over environment",
			env:      map[string]string{"GOOGLE_SHEET_ID": "env-id"},
			fileName: "config.json",
			file:     `{"sheet_id": "file-id", "output": {"path": "out.json"}}`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "file-id", cfg.Sheets.SheetID)
				assert.Equal(t, "Raw_Data!A:F", cfg.Sheets.Range)
				assert.Equal(t, "out.json", cfg.Output.Path)
			},
		},
		{
			name:     "malformed file",
			env:      map[string]string{"GOOGLE_SHEET_ID": "id"},
			fileName: "config.yaml",
			file:     "sheets: [unterminated",
			wantErr:  true,
		},
		{
			name:    "invalid port",
			env:     map[string]string{"GOOGLE_SHEET_ID": "id", "KPI_SERVER_PORT": "99999"},
			wantErr: true,
		},
		{
			name:    "invalid log level",
			env:     map[string]string{"GOOGLE_SHEET_ID": "id", "KPI_LOGGING_LEVEL": "verbose"},
			wantErr: true,
		},
		{
			name:    "zero tail limit",
			env:     map[string]string{"GOOGLE_SHEET_ID": "id", "KPI_OUTPUT_RAW_TAIL_LIMIT": "0"},
			wantErr: true,
		},
		{
			name:    "unparseable duration",
			env:     map[string]string{"GOOGLE_SHEET_ID": "id", "KPI_SERVER_REFRESH_INTERVAL": "soon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := ""
			if tt.file != "" {
				path = writeConfigFile(t, tt.fileName, tt.file)
			}

			cfg, err := Load(path)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, cfg)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			if tt.validateCfg != nil {
				tt.validateCfg(t, cfg)
			}
		})
	}
}

func TestLoad_Options(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		opts        []Option
		wantErr     bool
		validateCfg func(t *testing.T, cfg *Config)
	}{
		{
			name: "workbook replaces sheet id",
			opts: []Option{WithWorkbook("deals.xlsx")},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "deals.xlsx", cfg.Sheets.Workbook)
				assert.Empty(t, cfg.Sheets.SheetID)
			},
		},
		{
			name: "range and output overrides win over environment",
			env: map[string]string{
				"GOOGLE_SHEET_ID":  "id",
				"KPI_SHEETS_RANGE": "Env!A:F",
				"KPI_OUTPUT_FILE":  "env.json",
			},
			opts: []Option{WithRange("Flag!A:C"), WithOutputPath("public/data.json")},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "Flag!A:C", cfg.Sheets.Range)
				assert.Equal(t, "public/data.json", cfg.Output.Path)
			},
		},
		{
			name: "empty overrides are ignored",
			env:  map[string]string{"GOOGLE_SHEET_ID": "id"},
			opts: []Option{WithRange(""), WithOutputPath(""), WithWorkbook("")},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "Raw_Data!A:F", cfg.Sheets.Range)
				assert.Equal(t, "dashboard_data.json", cfg.Output.Path)
				assert.Empty(t, cfg.Sheets.Workbook)
			},
		},
		{
			name:    "neither sheet id nor workbook",
			opts:    []Option{WithRange("Raw_Data!A:F")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load("", tt.opts...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("GOOGLE_SHEET_ID", "id")

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Empty(t, cfg.Sheets.SheetID)
	assert.Error(t, cfg.Validate(), "defaults alone lack a sheet id")

	cfg.Sheets.SheetID = "id"
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "empty range", mutate: func(c *Config) { c.Sheets.Range = "" }, wantErr: true},
		{name: "empty output path", mutate: func(c *Config) { c.Output.Path = "" }, wantErr: true},
		{name: "bad log output", mutate: func(c *Config) { c.Logging.Output = "syslog" }, wantErr: true},
		{name: "negative refresh", mutate: func(c *Config) { c.Server.RefreshInterval = -time.Second }, wantErr: true},
		{name: "sample ratio above one", mutate: func(c *Config) { c.Telemetry.SampleRatio = 1.5 }, wantErr: true},
		{name: "unknown trace exporter", mutate: func(c *Config) { c.Telemetry.TraceExporter = "otlp" }, wantErr: true},
		{name: "warning alias", mutate: func(c *Config) { c.Logging.Level = "warning" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Sheets.SheetID = "id"
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// clearEnv unsets every variable Load reads so host settings cannot leak in
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GOOGLE_SHEET_ID", "GOOGLE_CREDENTIALS_PATH",
		"KPI_SHEETS_GOOGLE_SHEET_ID", "KPI_SHEETS_RANGE", "KPI_SHEETS_GOOGLE_CREDENTIALS_PATH",
		"KPI_OUTPUT_FILE", "KPI_OUTPUT_RAW_TAIL_LIMIT",
		"KPI_LOGGING_LEVEL", "KPI_SERVER_PORT", "KPI_SERVER_REFRESH_INTERVAL",
		"KPI_SERVER_RATE_LIMIT_ENABLED", "KPI_SHEETS_WORKBOOK",
		"WORKBOOK", "RANGE", "FILE", "LEVEL", "OUTPUT", "PORT", "TIMEOUT", "ENABLED", "ENVIRONMENT",
	} {
		if value, ok := os.LookupEnv(key); ok {
			t.Setenv(key, value)
			os.Unsetenv(key)
		}
	}
}
