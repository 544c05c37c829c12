package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/designorch/internal/logging"
)

type memoryMetricExporter struct {
	exported int
}

func (e *memoryMetricExporter) Temporality(k sdkmetric.InstrumentKind) metricdata.Temporality {
	return cumulative(k)
}

func (e *memoryMetricExporter) Aggregation(k sdkmetric.InstrumentKind) sdkmetric.Aggregation {
	return sdkmetric.DefaultAggregationSelector(k)
}

func (e *memoryMetricExporter) Export(context.Context, *metricdata.ResourceMetrics) error {
	e.exported++
	return nil
}

func (e *memoryMetricExporter) ForceFlush(context.Context) error { return nil }
func (e *memoryMetricExporter) Shutdown(context.Context) error   { return nil }

func TestNew_Disabled(t *testing.T) {
	tel, err := New(context.Background(), nil)
	require.NoError(t, err)

	assert.False(t, tel.IsEnabled())
	assert.Equal(t, HealthStatus{Healthy: true}, tel.Health())
	assert.NotNil(t, tel.Tracer("test"))
	assert.NotNil(t, tel.Meter("test"))
	assert.NotNil(t, tel.LoggerProvider())
	assert.NoError(t, tel.ForceFlush(context.Background()))
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enabled = true
	cfg.Endpoint = ""

	_, err := New(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid telemetry config")
}

func TestNew_EnabledWithExporters(t *testing.T) {
	ctx := context.Background()
	cfg := NewDefaultConfig()
	cfg.Enabled = true

	spans := tracetest.NewInMemoryExporter()
	metrics := &memoryMetricExporter{}

	tel, err := New(ctx, cfg, WithTraceExporter(spans), WithMetricExporter(metrics))
	require.NoError(t, err)
	t.Cleanup(func() { _ = tel.Shutdown(context.Background()) })

	assert.True(t, tel.IsEnabled())
	assert.False(t, tel.Health().Degraded)

	_, span := tel.Tracer("designorch/test").Start(ctx, "unit")
	span.End()
	counter, err := tel.Meter("designorch/test").Int64Counter("designorch.test")
	require.NoError(t, err)
	counter.Add(ctx, 1)

	require.NoError(t, tel.ForceFlush(ctx))
	require.Len(t, spans.GetSpans(), 1)
	assert.Equal(t, "unit", spans.GetSpans()[0].Name)
	assert.Positive(t, metrics.exported)

	require.NoError(t, tel.Shutdown(ctx))
	assert.False(t, tel.IsEnabled())
}

func TestNew_MetricsDisabledSkipsMeterProvider(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enabled = true
	cfg.Metrics.Enabled = false

	tel, err := New(context.Background(), cfg, WithTraceExporter(tracetest.NewInMemoryExporter()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = tel.Shutdown(context.Background()) })

	assert.Nil(t, tel.meterProvider)
	assert.NotNil(t, tel.tracerProvider)
}

func TestTelemetry_SetDegradedLogs(t *testing.T) {
	logger := logging.NewTestLogger()
	tel := &Telemetry{logger: logger.Logger}

	tel.setDegraded(context.Background(), "tracer provider", assert.AnError)

	assert.True(t, tel.Health().Degraded)
	logger.AssertLogged(t, zapcore.WarnLevel, "Telemetry degraded")
	logger.AssertField(t, "Telemetry degraded", "component", "tracer provider")
}

func TestTelemetry_NilSafe(t *testing.T) {
	var tel *Telemetry

	assert.NotNil(t, tel.Tracer("x"))
	assert.NotNil(t, tel.Meter("x"))
	assert.NotNil(t, tel.LoggerProvider())
	assert.False(t, tel.IsEnabled())
	assert.Equal(t, HealthStatus{Healthy: false, Degraded: true}, tel.Health())
	assert.NoError(t, tel.Shutdown(context.Background()))
	assert.NoError(t, tel.ForceFlush(context.Background()))
	tel.SetLoggerProvider(nil)
}

func TestTelemetry_ShutdownUsesConfiguredTimeout(t *testing.T) {
	tel, err := New(context.Background(), NewDefaultConfig())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- tel.Shutdown(context.Background()) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("shutdown did not return")
	}
}

func TestSampler(t *testing.T) {
	assert.Contains(t, sampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, sampler(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, sampler(0.5).Description(), "TraceIDRatioBased")
}

func TestTestTelemetry(t *testing.T) {
	ctx := context.Background()
	tt := NewTestTelemetry()

	_, span := tt.Tracer("test").Start(ctx, "orchestrator.execute_task")
	span.SetAttributes(attribute.String("task.category", "documentation"), attribute.Int("attempt", 1))
	span.End()

	tt.AssertSpanExists(t, "orchestrator.execute_task")
	tt.AssertSpanAttribute(t, "orchestrator.execute_task", "task.category", "documentation")
	tt.AssertSpanAttribute(t, "orchestrator.execute_task", "attempt", int64(1))
	assert.Nil(t, tt.SpanByName("missing"))

	hist, err := tt.Meter("test").Float64Histogram("designorch.test.duration")
	require.NoError(t, err)
	hist.Record(ctx, 0.2)
	assert.Contains(t, tt.MetricNames(ctx), "designorch.test.duration")
}
