package infrastructure

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"eventkpi/internal/shared/testutil"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					sums[m.Name] += dp.Value
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					sums[m.Name] += int64(dp.Count)
				}
			case metricdata.Histogram[int64]:
				for _, dp := range data.DataPoints {
					sums[m.Name] += int64(dp.Count)
				}
			}
		}
	}
	return sums
}

func TestInitializeOTel(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)

	tests := []struct {
		name        string
		cfg         *OTelConfig
		wantErr     bool
		wantMetrics bool
	}{
		{name: "defaults", cfg: nil, wantMetrics: true},
		{name: "everything off", cfg: &OTelConfig{ServiceName: "x"}},
		{name: "bad trace exporter", cfg: &OTelConfig{EnableTracing: true, TraceExporter: "jaeger"}, wantErr: true},
		{name: "bad metric exporter", cfg: &OTelConfig{EnableMetrics: true, MetricExporter: "statsd"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			providers, err := InitializeOTel(tt.cfg, logger)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer providers.Shutdown(context.Background())

			assert.NotNil(t, providers.Tracer)
			assert.NotNil(t, providers.Meter)
			assert.Equal(t, tt.wantMetrics, providers.PrometheusHTTP != nil)

			_, err = CreateBusinessMetrics(providers.Meter)
			assert.NoError(t, err)
		})
	}

	assert.True(t, logs.ContainsMessage("initializing OpenTelemetry"))
}

func TestPrometheusEndpoint(t *testing.T) {
	providers, err := InitializeOTel(DefaultOTelConfig(), nil)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	m, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)
	RecordComparison(context.Background(), m, "absolute", 10*time.Millisecond, nil)

	srv := httptest.NewServer(providers.PrometheusHTTP)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "eventkpi_comparisons_total")
}

func TestRecordHelpers(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	m, err := CreateBusinessMetrics(mp.Meter(MeterName))
	require.NoError(t, err)

	ctx := context.Background()
	RecordDatasetLoad(ctx, m, "a", 120, false, nil)
	RecordDatasetLoad(ctx, m, "b", 0, true, errors.New("bad date"))
	RecordComparison(ctx, m, "days_before", time.Second, nil)
	RecordPersistence(ctx, m, "file", "save", nil)
	RecordPersistence(ctx, m, "file", "load", errors.New("boom"))
	RecordExport(ctx, m, "csv")
	RecordHTTPRequest(ctx, m, http.MethodGet, "/healthz", http.StatusOK, time.Millisecond)

	sums := collect(t, reader)
	assert.Equal(t, int64(2), sums["eventkpi_datasets_loaded_total"])
	assert.Equal(t, int64(1), sums["eventkpi_dataset_rows"])
	assert.Equal(t, int64(1), sums["eventkpi_date_parse_failures_total"])
	assert.Equal(t, int64(1), sums["eventkpi_comparisons_total"])
	assert.Equal(t, int64(1), sums["eventkpi_comparison_duration_seconds"])
	assert.Equal(t, int64(2), sums["eventkpi_persistence_operations_total"])
	assert.Equal(t, int64(1), sums["eventkpi_exports_total"])
	assert.Equal(t, int64(1), sums["eventkpi_http_requests_total"])
}

func TestRecordHelpers_NilMetrics(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordDatasetLoad(ctx, nil, "a", 1, false, nil)
		RecordComparison(ctx, nil, "absolute", time.Second, nil)
		RecordPersistence(ctx, nil, "file", "save", nil)
		RecordExport(ctx, nil, "xlsx")
		RecordHTTPRequest(ctx, nil, "GET", "/", 200, time.Second)
	})
	assert.NotNil(t, NoopBusinessMetrics())
}

func TestTraceIDFromContext(t *testing.T) {
	assert.Empty(t, TraceIDFromContext(context.Background()))

	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:   "test",
		EnableTracing: true,
		TraceExporter: "stdout",
		SampleRatio:   1.0,
	}, nil)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	ctx, span := providers.Tracer.Start(context.Background(), "compare")
	defer span.End()

	assert.Len(t, TraceIDFromContext(ctx), 32)
	assert.NotPanics(t, func() { RecordError(ctx, errors.New("failed")) })
}

func TestRuntimeGauges(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	start := time.Now().Add(-time.Minute)
	require.NoError(t, RegisterRuntimeGauges(mp.Meter(MeterName), start))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	names := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	assert.True(t, names["eventkpi_goroutines"])
	assert.True(t, names["eventkpi_heap_alloc_bytes"])
	assert.True(t, names["eventkpi_uptime_seconds"])

	stats := CollectRuntimeStats(start)
	assert.Positive(t, stats.Goroutines)
	assert.GreaterOrEqual(t, stats.UptimeSeconds, 60.0)
}
