package core

import (
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/planetfederal/gsconfig/catalog"
	"github.com/planetfederal/gsconfig/config"
)

// Session is one resolved profile bound to a ready catalog.
type Session struct {
	Profile config.Profile
	Catalog *catalog.Catalog

	closers []func() error
}

type BootstrapConfig struct {
	ProfilesPath string

	// Registerer receives the catalog collectors. A private registry is used
	// when nil.
	Registerer prometheus.Registerer
	// TracerProvider and MeterProvider default to OTLP exporters when an
	// OTEL_EXPORTER_OTLP_* endpoint is set. Without one, spans go to the
	// global otel provider and metrics stay in the prometheus registry.
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	// Logger receives catalog diagnostics. Without a sink the catalog logs
	// through debugctx.
	Logger logr.Logger

	getenv func(string) string
}
