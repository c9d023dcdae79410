package core

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/planetfederal/gsconfig/cache"
	"github.com/planetfederal/gsconfig/catalog"
	"github.com/planetfederal/gsconfig/config"
	"github.com/planetfederal/gsconfig/debugctx"
	"github.com/planetfederal/gsconfig/faults"
	rediscache "github.com/planetfederal/gsconfig/internal/providers/cache/redis"
	configfile "github.com/planetfederal/gsconfig/internal/providers/config/file"
	httptransport "github.com/planetfederal/gsconfig/internal/providers/transport/http"
	"github.com/planetfederal/gsconfig/metrics"
)

func NewProfileService(opts BootstrapConfig) config.ProfileService {
	return configfile.NewFileProfileService(opts.ProfilesPath)
}

func NewSession(ctx context.Context, opts BootstrapConfig, selection config.ProfileSelection) (Session, error) {
	return newSession(ctx, NewProfileService(opts), opts, selection)
}

func newSession(
	ctx context.Context,
	profiles config.ProfileResolver,
	opts BootstrapConfig,
	selection config.ProfileSelection,
) (Session, error) {
	if profiles == nil {
		return Session{}, faults.NewTypedError(faults.InternalError, "profile service is not configured", nil)
	}

	profile, err := profiles.ResolveProfile(ctx, selection)
	if err != nil {
		return Session{}, err
	}
	debugctx.Printf(ctx, "core resolved profile=%q url=%q", profile.Name, profile.Service.URL)

	session := Session{Profile: profile}
	exporters, err := setupTelemetry(ctx, opts)
	if err != nil {
		return Session{}, err
	}
	session.closers = append(session.closers, exporters.closers...)

	registerer := opts.Registerer
	if registerer == nil {
		registerer = prometheus.NewRegistry()
	}
	var recorderOptions []metrics.Option
	if exporters.meterProvider != nil {
		recorderOptions = append(recorderOptions, metrics.WithMeterProvider(exporters.meterProvider))
	}
	recorder, err := metrics.NewRecorder(registerer, recorderOptions...)
	if err != nil {
		_ = session.Close()
		return Session{}, faults.NewTypedError(faults.InternalError, "failed to register catalog metrics", err)
	}

	channelOptions := []httptransport.ChannelOption{httptransport.WithMetrics(recorder)}
	if exporters.tracerProvider != nil {
		channelOptions = append(channelOptions, httptransport.WithTracerProvider(exporters.tracerProvider))
	}
	channel, err := httptransport.NewChannel(profile, channelOptions...)
	if err != nil {
		_ = session.Close()
		return Session{}, err
	}

	responseCache, err := buildCache(profile)
	if err != nil {
		_ = session.Close()
		return Session{}, err
	}
	if closer, ok := responseCache.(interface{ Close() error }); ok {
		session.closers = append(session.closers, closer.Close)
	}

	catalogOptions := []catalog.Option{catalog.WithCache(responseCache), catalog.WithMetrics(recorder)}
	if opts.Logger.GetSink() != nil {
		catalogOptions = append(catalogOptions, catalog.WithLogger(opts.Logger))
	}
	session.Catalog, err = catalog.New(channel, catalogOptions...)
	if err != nil {
		_ = session.Close()
		return Session{}, err
	}
	return session, nil
}

func buildCache(profile config.Profile) (cache.ResponseCache, error) {
	if profile.Cache != nil && profile.Cache.Redis != nil {
		return rediscache.NewResponseCache(*profile.Cache.Redis, profile.CacheTTL())
	}
	return cache.NewMemoryCache(profile.CacheTTL()), nil
}

// Close releases connections held by the session's cache backend.
func (s Session) Close() error {
	var errs []error
	for _, closer := range s.closers {
		if err := closer(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
