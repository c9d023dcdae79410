// Package metrics exposes prometheus collectors for catalog traffic. The same
// counts can be mirrored to an OpenTelemetry meter for OTLP export.
package metrics

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const namespace = "gsconfig"

// Recorder is safe to use as a nil pointer; every method is then a no-op.
type Recorder struct {
	cacheLookups  *prometheus.CounterVec
	invalidations prometheus.Counter
	requests      *prometheus.CounterVec
	retries       *prometheus.CounterVec

	mirror *otelCounters
}

type otelCounters struct {
	cacheLookups  metric.Int64Counter
	invalidations metric.Int64Counter
	requests      metric.Int64Counter
	retries       metric.Int64Counter
}

type Option func(*options)

type options struct {
	meterProvider metric.MeterProvider
}

// WithMeterProvider mirrors every count to instruments of provider.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = provider
	}
}

func NewRecorder(registerer prometheus.Registerer, opts ...Option) (*Recorder, error) {
	settings := options{}
	for _, opt := range opts {
		opt(&settings)
	}

	recorder := &Recorder{
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Response cache lookups by result.",
		}, []string{"result"}),
		invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "invalidations_total",
			Help:      "Whole-cache invalidations after mutations.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "requests_total",
			Help:      "Requests sent to the REST service by method and final status.",
		}, []string{"method", "status"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "retries_total",
			Help:      "Retried attempts after transient statuses.",
		}, []string{"method"}),
	}

	if settings.meterProvider != nil {
		mirror, err := newOtelCounters(settings.meterProvider.Meter("github.com/planetfederal/gsconfig/metrics"))
		if err != nil {
			return nil, err
		}
		recorder.mirror = mirror
	}

	if registerer == nil {
		return recorder, nil
	}
	for _, collector := range []prometheus.Collector{
		recorder.cacheLookups,
		recorder.invalidations,
		recorder.requests,
		recorder.retries,
	} {
		if err := registerer.Register(collector); err != nil {
			return nil, err
		}
	}
	return recorder, nil
}

func (r *Recorder) CacheLookup(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
	if r.mirror != nil {
		r.mirror.cacheLookups.Add(context.Background(), 1, metric.WithAttributes(attribute.String("result", result)))
	}
}

func (r *Recorder) CacheInvalidated() {
	if r == nil {
		return
	}
	r.invalidations.Inc()
	if r.mirror != nil {
		r.mirror.invalidations.Add(context.Background(), 1)
	}
}

func (r *Recorder) Request(method string, statusCode int) {
	if r == nil {
		return
	}
	status := "error"
	if statusCode > 0 {
		status = strconv.Itoa(statusCode)
	}
	r.requests.WithLabelValues(method, status).Inc()
	if r.mirror != nil {
		r.mirror.requests.Add(context.Background(), 1, metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("status", status),
		))
	}
}

func (r *Recorder) Retry(method string) {
	if r == nil {
		return
	}
	r.retries.WithLabelValues(method).Inc()
	if r.mirror != nil {
		r.mirror.retries.Add(context.Background(), 1, metric.WithAttributes(attribute.String("method", method)))
	}
}

func newOtelCounters(meter metric.Meter) (*otelCounters, error) {
	var (
		counters otelCounters
		err      error
	)
	if counters.cacheLookups, err = meter.Int64Counter("gsconfig.cache.lookups",
		metric.WithDescription("Response cache lookups by result.")); err != nil {
		return nil, err
	}
	if counters.invalidations, err = meter.Int64Counter("gsconfig.cache.invalidations",
		metric.WithDescription("Whole-cache invalidations after mutations.")); err != nil {
		return nil, err
	}
	if counters.requests, err = meter.Int64Counter("gsconfig.transport.requests",
		metric.WithDescription("Requests sent to the REST service by method and final status.")); err != nil {
		return nil, err
	}
	if counters.retries, err = meter.Int64Counter("gsconfig.transport.retries",
		metric.WithDescription("Retried attempts after transient statuses.")); err != nil {
		return nil, err
	}
	return &counters, nil
}
