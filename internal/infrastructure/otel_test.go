package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chadallison/running-st/internal/config"
)

func testTelemetry() config.TelemetryConfig {
	return config.Default().Telemetry
}

func TestInitializeOTel_MetricsOnly(t *testing.T) {
	providers, err := InitializeOTel(testTelemetry(), NewLogger(&bytes.Buffer{}, "error"))
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	assert.Nil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.PrometheusHTTP)
}

func TestInitializeOTel_Disabled(t *testing.T) {
	cfg := testTelemetry()
	cfg.MetricsEnabled = false

	providers, err := InitializeOTel(cfg, NewLogger(&bytes.Buffer{}, "error"))
	require.NoError(t, err)

	assert.Nil(t, providers.PrometheusHTTP)
	metrics, err := CreateReportMetrics(providers.Meter)
	require.NoError(t, err)
	metrics.RecordFetch(context.Background(), "csv", time.Second, 3, nil)
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitializeOTel_UnknownExporter(t *testing.T) {
	cfg := testTelemetry()
	cfg.TracesExporter = "zipkin"

	_, err := InitializeOTel(cfg, NewLogger(&bytes.Buffer{}, "error"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zipkin")
}

func TestReportMetrics_ExposedOnPrometheusHandler(t *testing.T) {
	providers, err := InitializeOTel(testTelemetry(), NewLogger(&bytes.Buffer{}, "error"))
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := CreateReportMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordFetch(ctx, "csv", 150*time.Millisecond, 42, nil)
	metrics.RecordFetch(ctx, "csv", 10*time.Millisecond, 0, errors.New("boom"))
	metrics.RecordBuild(ctx, 200*time.Millisecond, 3, nil)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "source_rows_fetched_total")
	assert.Contains(t, body, "source_fetch_failures_total")
	assert.Contains(t, body, "cleaning_rows_dropped_total")
	assert.Contains(t, body, "report_builds_total")
	assert.Contains(t, body, "go_goroutines")
}

func TestReportMetrics_NilSafe(t *testing.T) {
	var m *ReportMetrics
	assert.NotPanics(t, func() {
		m.RecordFetch(context.Background(), "csv", time.Second, 1, nil)
		m.RecordBuild(context.Background(), time.Second, 1, nil)
	})
}
