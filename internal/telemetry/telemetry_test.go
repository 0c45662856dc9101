package telemetry

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitNone(t *testing.T) {
	tel, err := Init(context.Background(), Config{ServiceName: "test"})
	require.NoError(t, err)
	assert.Nil(t, tel.MetricsHandler())
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestInitUnknownExporter(t *testing.T) {
	_, err := Init(context.Background(), Config{TraceExporter: "jaeger"})
	assert.True(t, errors.Is(err, ErrUnknownExporter))

	_, err = Init(context.Background(), Config{MetricExporter: "statsd"})
	assert.True(t, errors.Is(err, ErrUnknownExporter))
}

func TestPrometheusHandlerServesMetrics(t *testing.T) {
	ctx := context.Background()
	tel, err := Init(ctx, Config{ServiceName: "test", MetricExporter: ExporterPrometheus})
	require.NoError(t, err)
	defer tel.Shutdown(ctx)

	counter, err := otel.Meter("telemetry_test").Int64Counter("telemetry_test_events_total")
	require.NoError(t, err)
	counter.Add(ctx, 3)

	h := tel.MetricsHandler()
	require.NotNil(t, h)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, _ := io.ReadAll(rec.Body)
	assert.True(t, strings.Contains(string(body), "telemetry_test_events"), "metrics body: %s", body)
}

func TestStdoutTraceExporter(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	tel, err := Init(ctx, Config{ServiceName: "test", TraceExporter: ExporterStdout, Output: &out})
	require.NoError(t, err)

	_, span := otel.Tracer("telemetry_test").Start(ctx, "unit-span")
	span.End()
	require.NoError(t, tel.Shutdown(ctx))

	assert.Contains(t, out.String(), "unit-span")
}
