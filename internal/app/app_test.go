package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetkpi/internal/config"
	"sheetkpi/internal/dataprocessing"
	"sheetkpi/internal/shared/testutil"
	"sheetkpi/pkg/contracts"
)

var fixedNow = time.Date(2024, 1, 3, 9, 30, 0, 0, time.UTC)

func newTestApp(t *testing.T, grid [][]string, mutate func(*config.Config)) *Application {
	t.Helper()

	cfg := config.Default()
	cfg.Sheets.Workbook = testutil.WriteWorkbook(t, "Raw_Data", grid)
	cfg.Output.Path = filepath.Join(t.TempDir(), "out", "dashboard_data.json")
	cfg.Server.RateLimit.Enabled = false
	if mutate != nil {
		mutate(cfg)
	}

	logger, _ := testutil.NewTestLogger(t)
	a, err := NewApplication(context.Background(), cfg, logger, Options{
		Clock: func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func TestNewSource(t *testing.T) {
	t.Run("workbook", func(t *testing.T) {
		src, err := NewSource(context.Background(), config.SheetsConfig{Workbook: "deals.xlsx"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "workbook", src.Name())
	})

	t.Run("google sheets without credentials", func(t *testing.T) {
		_, err := NewSource(context.Background(), config.SheetsConfig{
			SheetID:         "abc",
			CredentialsPath: filepath.Join(t.TempDir(), "missing.json"),
		}, nil)
		assert.Error(t, err)
	})
}

func TestApplicationSync(t *testing.T) {
	a := newTestApp(t, testutil.DealsGrid(), nil)

	result, err := a.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, a.Config.Output.Path, result.Path)

	data, err := os.ReadFile(a.Config.Output.Path)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "2024-01-03T09:30:00Z", doc["last_updated"])
	assert.Equal(t, map[string]interface{}{
		"total_revenue":   150.0,
		"total_deals":     2.0,
		"deals_won":       1.0,
		"conversion_rate": 50.0,
	}, doc["kpis"])
	assert.Equal(t, map[string]interface{}{
		"revenue_by_channel":  map[string]interface{}{"Web": 100.0, "Phone": 50.0},
		"status_distribution": map[string]interface{}{"Gagné": 1.0, "Perdu": 1.0},
		"revenue_by_rep":      map[string]interface{}{"Alice": 100.0, "Bob": 50.0},
		"revenue_trend":       map[string]interface{}{"2024-01-01": 100.0},
	}, doc["charts"])
	assert.Len(t, doc["raw_data"], 2)
}

func TestApplicationSyncNoData(t *testing.T) {
	a := newTestApp(t, [][]string{testutil.DealsHeader}, nil)

	_, err := a.Sync(context.Background())
	assert.ErrorIs(t, err, dataprocessing.ErrNoData)

	_, statErr := os.Stat(a.Config.Output.Path)
	assert.True(t, os.IsNotExist(statErr), "no artifact may be written without data")
}

func TestApplicationRoutes(t *testing.T) {
	a := newTestApp(t, testutil.DealsGrid(), nil)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		check      func(t *testing.T, rec *httptest.ResponseRecorder)
	}{
		{
			name:       "dashboard",
			method:     http.MethodGet,
			path:       "/api/dashboard",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var doc map[string]interface{}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
				assert.Equal(t, 150.0, doc["kpis"].(map[string]interface{})["total_revenue"])
				assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
			},
		},
		{
			name:       "filter values",
			method:     http.MethodGet,
			path:       "/api/dashboard/values/Commercial",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.JSONEq(t, `{"field":"Commercial","values":["Alice","Bob"],"count":2}`, rec.Body.String())
			},
		},
		{
			name:       "unknown filter field",
			method:     http.MethodGet,
			path:       "/api/dashboard/values/Region",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "health",
			method:     http.MethodGet,
			path:       "/api/health",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Contains(t, rec.Body.String(), `"status":"ok"`)
			},
		},
		{
			name:       "version",
			method:     http.MethodGet,
			path:       "/api/version",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Contains(t, rec.Body.String(), `"data_format":"`+contracts.DataFormatVersion+`"`)
			},
		},
		{
			name:       "metrics",
			method:     http.MethodGet,
			path:       "/metrics",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Contains(t, rec.Body.String(), "sync_runs_total")
			},
		},
		{
			name:       "unknown route",
			method:     http.MethodGet,
			path:       "/nope",
			wantStatus: http.StatusNotFound,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Contains(t, rec.Body.String(), "/errors/not-found")
			},
		},
		{
			name:       "wrong method",
			method:     http.MethodPost,
			path:       "/api/health",
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			a.Router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.check != nil {
				tt.check(t, rec)
			}
		})
	}
}

func TestApplicationMetricsDisabled(t *testing.T) {
	a := newTestApp(t, testutil.DealsGrid(), func(c *config.Config) {
		c.Telemetry.Enabled = false
	})

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApplicationServeRefreshesArtifact(t *testing.T) {
	a := newTestApp(t, testutil.DealsGrid(), func(c *config.Config) {
		c.Server.Port = 0
		c.Server.RefreshInterval = 20 * time.Millisecond
		c.Server.ShutdownTimeout = time.Second
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx) }()

	require.Eventually(t, func() bool {
		_, err := os.Stat(a.Config.Output.Path)
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}

	last := a.DashboardService.LastRun()
	require.NotNil(t, last)
	assert.Equal(t, 2, last.Records)
}
