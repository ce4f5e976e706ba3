package app

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventkpi/internal/config"
	"eventkpi/internal/shared/testutil"
)

// newTestConfig returns defaults rooted in a temp dir with metrics off
func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.BaseDir = t.TempDir()
	cfg.Server.Port = 0
	cfg.Telemetry.Environment = "test"
	cfg.Telemetry.PrometheusEnabled = false
	cfg.Security.RateLimit.Enabled = false
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	app, err := New(context.Background(), cfg, logger)
	require.NoError(t, err)
	return app
}

func serve(app *Application, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, slot string, year int) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "export.csv")
	require.NoError(t, err)
	_, err = io.WriteString(part, testutil.RegistrationCSV(testutil.SampleRegistrations(year)))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("year", strconv.Itoa(year)))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/datasets/"+slot, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestNew(t *testing.T) {
	cfg := newTestConfig(t)
	app := newTestApp(t, cfg)

	assert.NotNil(t, app.Router)
	assert.NotNil(t, app.Server)
	assert.NotNil(t, app.OTelProviders)
	assert.NotNil(t, app.Metrics)
	assert.NotNil(t, app.ComparisonService)
	assert.NotNil(t, app.HealthService)
	assert.Nil(t, app.Store)
	assert.Equal(t, "none", app.ComparisonService.StorageBackend())

	for _, dir := range []string{app.Paths.DataDir, app.Paths.ExportsDir, app.Paths.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestNew_StorageBackends(t *testing.T) {
	tests := []struct {
		name        string
		backend     string
		wantErr     bool
		wantBackend string
	}{
		{name: "none", backend: config.StorageNone, wantBackend: "none"},
		{name: "file", backend: config.StorageFile, wantBackend: "file"},
		{name: "unknown", backend: "ftp", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newTestConfig(t)
			cfg.Storage.Backend = tt.backend

			logger, _ := testutil.NewTestLogger(t)
			app, err := New(context.Background(), cfg, logger)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "ftp")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBackend, app.ComparisonService.StorageBackend())
		})
	}
}

func TestApplication_createServer(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Server.Port = 9191
	app := newTestApp(t, cfg)

	assert.Equal(t, ":9191", app.Server.Addr)
	assert.Equal(t, cfg.Server.ReadTimeout, app.Server.ReadTimeout)
	assert.Equal(t, cfg.Server.WriteTimeout, app.Server.WriteTimeout)
	assert.Equal(t, cfg.Server.IdleTimeout, app.Server.IdleTimeout)
	assert.Equal(t, cfg.Server.MaxHeaderBytes, app.Server.MaxHeaderBytes)
	assert.Equal(t, app.Router, app.Server.Handler)
}

func TestApplication_setupRouter(t *testing.T) {
	app := newTestApp(t, newTestConfig(t))

	tests := []struct {
		name        string
		method      string
		path        string
		contentType string
		body        string
		wantStatus  int
		wantBody    string
	}{
		{name: "healthz", method: http.MethodGet, path: "/healthz", wantStatus: http.StatusOK, wantBody: `"ok"`},
		{name: "readyz", method: http.MethodGet, path: "/readyz", wantStatus: http.StatusOK, wantBody: `"ready"`},
		{name: "livez", method: http.MethodGet, path: "/livez", wantStatus: http.StatusOK, wantBody: `"alive"`},
		{name: "version", method: http.MethodGet, path: "/version", wantStatus: http.StatusOK, wantBody: `"version"`},
		{name: "list datasets", method: http.MethodGet, path: "/api/v1/datasets", wantStatus: http.StatusOK},
		{name: "job classifications", method: http.MethodGet, path: "/api/v1/job-classifications", wantStatus: http.StatusOK, wantBody: `"job_classifications"`},
		{name: "compare without data", method: http.MethodPost, path: "/api/v1/comparison", wantStatus: http.StatusConflict},
		{name: "unsupported media type", method: http.MethodPost, path: "/api/v1/comparison", contentType: "text/plain", body: "hello", wantStatus: http.StatusUnsupportedMediaType},
		{name: "invalid json", method: http.MethodPost, path: "/api/v1/comparison", contentType: "application/json", body: "{", wantStatus: http.StatusBadRequest, wantBody: "INVALID_JSON"},
		{name: "metrics disabled", method: http.MethodGet, path: "/metrics", wantStatus: http.StatusNotFound},
		{name: "unknown route", method: http.MethodGet, path: "/nope", wantStatus: http.StatusNotFound},
		{name: "method not allowed", method: http.MethodPost, path: "/healthz", wantStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			req := httptest.NewRequest(tt.method, tt.path, body)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}

			rec := serve(app, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestApplication_metricsEndpoint(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Telemetry.PrometheusEnabled = true
	app := newTestApp(t, cfg)

	require.Equal(t, http.StatusOK, serve(app, httptest.NewRequest(http.MethodGet, "/api/v1/datasets", nil)).Code)

	rec := serve(app, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "eventkpi_http_requests_total")
}

func TestApplication_apiCompression(t *testing.T) {
	app := newTestApp(t, newTestConfig(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/job-classifications", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := serve(app, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Contains(t, string(body), "job_classifications")

	// health probes are not compressed
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	assert.Empty(t, serve(app, req).Header().Get("Content-Encoding"))
}

func TestApplication_trailingSlash(t *testing.T) {
	app := newTestApp(t, newTestConfig(t))

	for _, path := range []string{"/healthz/", "/api/v1/datasets/", "/api/v1/job-classifications/"} {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, http.StatusOK, serve(app, httptest.NewRequest(http.MethodGet, path, nil)).Code)
		})
	}
}

func TestApplication_rateLimit(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Security.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1}
	app := newTestApp(t, cfg)

	assert.Equal(t, http.StatusOK, serve(app, httptest.NewRequest(http.MethodGet, "/api/v1/datasets", nil)).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(app, httptest.NewRequest(http.MethodGet, "/api/v1/datasets", nil)).Code)
	// health probes sit outside the limiter
	assert.Equal(t, http.StatusOK, serve(app, httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
}

func TestApplication_uploadLimit(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Upload.MaxBytes = 128
	app := newTestApp(t, cfg)

	rec := serve(app, uploadRequest(t, "a", 2023))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestApplication_comparisonFlow(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Storage.Backend = config.StorageFile
	app := newTestApp(t, cfg)

	require.Equal(t, http.StatusCreated, serve(app, uploadRequest(t, "a", 2023)).Code)
	require.Equal(t, http.StatusCreated, serve(app, uploadRequest(t, "b", 2024)).Code)

	rec := serve(app, httptest.NewRequest(http.MethodPost, "/api/v1/comparison", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Attendees"`)

	rec = serve(app, httptest.NewRequest(http.MethodGet, "/api/v1/comparison/export?format=csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "kpi_comparison_2023_vs_2024.csv")

	require.Equal(t, http.StatusOK, serve(app, httptest.NewRequest(http.MethodPost, "/api/v1/session/save", nil)).Code)
	_, err := os.Stat(app.Paths.StateFile)
	require.NoError(t, err)

	require.Equal(t, http.StatusNoContent, serve(app, httptest.NewRequest(http.MethodDelete, "/api/v1/datasets/b", nil)).Code)
	require.Equal(t, http.StatusOK, serve(app, httptest.NewRequest(http.MethodPost, "/api/v1/session/load", nil)).Code)

	rec = serve(app, httptest.NewRequest(http.MethodGet, "/api/v1/datasets", nil))
	assert.Contains(t, rec.Body.String(), "2024")
}

func TestApplication_getCORSConfig(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		origin      string
		wantAllowed bool
	}{
		{name: "configured origin", environment: "production", origin: "http://localhost:8080", wantAllowed: true},
		{name: "dev server in production", environment: "production", origin: "http://localhost:3000", wantAllowed: false},
		{name: "dev server in development", environment: "development", origin: "http://localhost:3000", wantAllowed: true},
		{name: "foreign origin", environment: "development", origin: "https://evil.example", wantAllowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GO_ENV", "")
			cfg := newTestConfig(t)
			cfg.Telemetry.Environment = tt.environment
			app := newTestApp(t, cfg)

			req := httptest.NewRequest(http.MethodOptions, "/api/v1/datasets", nil)
			req.Header.Set("Origin", tt.origin)
			rec := serve(app, req)

			assert.Equal(t, http.StatusNoContent, rec.Code)
			if tt.wantAllowed {
				assert.Equal(t, tt.origin, rec.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestApplication_isDevelopmentMode(t *testing.T) {
	tests := []struct {
		name        string
		goEnv       string
		environment string
		want        bool
	}{
		{name: "telemetry development", environment: "development", want: true},
		{name: "telemetry mixed case", environment: "Development", want: true},
		{name: "GO_ENV wins", goEnv: "development", environment: "production", want: true},
		{name: "production", environment: "production", want: false},
		{name: "empty", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GO_ENV", tt.goEnv)
			app := &Application{Config: &config.Config{Telemetry: config.TelemetryConfig{Environment: tt.environment}}}
			assert.Equal(t, tt.want, app.isDevelopmentMode())
		})
	}
}

func TestApplication_performStartupHealthCheck(t *testing.T) {
	t.Run("writable directories", func(t *testing.T) {
		app := newTestApp(t, newTestConfig(t))
		assert.NoError(t, app.performStartupHealthCheck(context.Background()))
	})

	t.Run("missing exports directory", func(t *testing.T) {
		app := newTestApp(t, newTestConfig(t))
		require.NoError(t, os.RemoveAll(app.Paths.ExportsDir))

		err := app.performStartupHealthCheck(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Exports directory not writable")
		assert.Contains(t, err.Error(), filepath.Base(app.Paths.ExportsDir))
	})
}

func TestApplication_StartStop(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Server.ShutdownTimeout = 5 * time.Second
	app := newTestApp(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, app.Start(ctx, cancel))
	require.NoError(t, app.Stop(context.Background()))
	assert.NoError(t, ctx.Err())
}

func TestOTelConfig(t *testing.T) {
	got := otelConfig(config.TelemetryConfig{
		ServiceName:       "kpi",
		Environment:       "staging",
		PrometheusEnabled: false,
		TracingEnabled:    true,
	})

	assert.Equal(t, "kpi", got.ServiceName)
	assert.Equal(t, "staging", got.Environment)
	assert.False(t, got.EnableMetrics)
	assert.Equal(t, "none", got.MetricExporter)
	assert.True(t, got.EnableTracing)
}
