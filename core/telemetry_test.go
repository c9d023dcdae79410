package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func envOf(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestSetupTelemetryWithoutEndpointKeepsDefaults(t *testing.T) {
	t.Parallel()

	exporters, err := setupTelemetry(context.Background(), BootstrapConfig{getenv: envOf(nil)})
	require.NoError(t, err)
	assert.Nil(t, exporters.tracerProvider)
	assert.Nil(t, exporters.meterProvider)
	assert.Empty(t, exporters.closers)
}

func TestSetupTelemetryBuildsTraceExporterFromEnvironment(t *testing.T) {
	t.Parallel()

	exporters, err := setupTelemetry(context.Background(), BootstrapConfig{
		getenv: envOf(map[string]string{otlpTracesEndpointEnvVar: "http://127.0.0.1:4317"}),
	})
	require.NoError(t, err)
	assert.IsType(t, &sdktrace.TracerProvider{}, exporters.tracerProvider)
	assert.Nil(t, exporters.meterProvider)
	require.Len(t, exporters.closers, 1)
	assert.NoError(t, exporters.close())
}

func TestSetupTelemetryBuildsMetricExporterFromEnvironment(t *testing.T) {
	t.Parallel()

	exporters, err := setupTelemetry(context.Background(), BootstrapConfig{
		getenv: envOf(map[string]string{otlpMetricsEndpointEnvVar: "http://127.0.0.1:4317"}),
	})
	require.NoError(t, err)
	assert.Nil(t, exporters.tracerProvider)
	provider, ok := exporters.meterProvider.(*sdkmetric.MeterProvider)
	require.True(t, ok, "expected an sdk meter provider, got %T", exporters.meterProvider)
	require.Len(t, exporters.closers, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = provider.Shutdown(ctx)
}

func TestSetupTelemetryPrefersConfiguredProviders(t *testing.T) {
	t.Parallel()

	tracerProvider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(tracetest.NewSpanRecorder()))
	meterProvider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))

	exporters, err := setupTelemetry(context.Background(), BootstrapConfig{
		TracerProvider: tracerProvider,
		MeterProvider:  meterProvider,
		getenv:         envOf(map[string]string{otlpEndpointEnvVar: "http://127.0.0.1:4317"}),
	})
	require.NoError(t, err)
	assert.Same(t, tracerProvider, exporters.tracerProvider)
	assert.Same(t, meterProvider, exporters.meterProvider)
	assert.Empty(t, exporters.closers)
}
