package core

import (
	"context"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/planetfederal/gsconfig/debugctx"
	"github.com/planetfederal/gsconfig/faults"
)

const (
	otlpEndpointEnvVar        = "OTEL_EXPORTER_OTLP_ENDPOINT"
	otlpTracesEndpointEnvVar  = "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"
	otlpMetricsEndpointEnvVar = "OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"

	telemetryShutdownTimeout = 5 * time.Second
)

type telemetry struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	closers        []func() error
}

// setupTelemetry uses the providers given in opts. Otherwise it builds OTLP
// gRPC exporters when an OTEL_EXPORTER_OTLP_* endpoint is set; the exporters
// read the rest of their settings from the standard environment.
func setupTelemetry(ctx context.Context, opts BootstrapConfig) (telemetry, error) {
	getenv := opts.getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	result := telemetry{tracerProvider: opts.TracerProvider, meterProvider: opts.MeterProvider}

	if result.tracerProvider == nil && endpointConfigured(getenv, otlpTracesEndpointEnvVar) {
		exporter, err := otlptracegrpc.New(ctx)
		if err != nil {
			return telemetry{}, faults.NewTypedError(faults.InternalError, "failed to create OTLP trace exporter", err)
		}
		provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
		result.tracerProvider = provider
		result.closers = append(result.closers, shutdownWithTimeout(provider.Shutdown))
		debugctx.Printf(ctx, "core exporting spans over OTLP")
	}

	if result.meterProvider == nil && endpointConfigured(getenv, otlpMetricsEndpointEnvVar) {
		exporter, err := otlpmetricgrpc.New(ctx)
		if err != nil {
			_ = result.close()
			return telemetry{}, faults.NewTypedError(faults.InternalError, "failed to create OTLP metric exporter", err)
		}
		provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)))
		result.meterProvider = provider
		result.closers = append(result.closers, shutdownWithTimeout(provider.Shutdown))
		debugctx.Printf(ctx, "core exporting metrics over OTLP")
	}

	return result, nil
}

func (t telemetry) close() error {
	var firstErr error
	for _, closer := range t.closers {
		if err := closer(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func endpointConfigured(getenv func(string) string, signalVar string) bool {
	return strings.TrimSpace(getenv(signalVar)) != "" || strings.TrimSpace(getenv(otlpEndpointEnvVar)) != ""
}

// shutdownWithTimeout flushes pending telemetry when the session closes.
func shutdownWithTimeout(shutdown func(context.Context) error) func() error {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer cancel()
		return shutdown(ctx)
	}
}
