// Package catalog is the registry of GeoServer configuration objects.
//
// A Catalog turns listing documents into lazily fetched entity proxies, runs
// name collision checks before creates, and applies the save and delete
// protocol. Every read goes through GetXML, which consults the response
// cache; every successful mutation clears the whole cache before returning.
package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/beevik/etree"
	"github.com/go-logr/logr"
	"golang.org/x/sync/singleflight"

	"github.com/planetfederal/gsconfig/cache"
	"github.com/planetfederal/gsconfig/config"
	"github.com/planetfederal/gsconfig/debugctx"
	"github.com/planetfederal/gsconfig/metrics"
	"github.com/planetfederal/gsconfig/transport"
)

type Catalog struct {
	mu      sync.RWMutex
	channel transport.Channel
	cache   cache.ResponseCache

	fetches singleflight.Group
	logger  logr.Logger
	metrics *metrics.Recorder
}

type Option func(*Catalog)

// WithCache replaces the default in-memory response cache.
func WithCache(responseCache cache.ResponseCache) Option {
	return func(c *Catalog) {
		if responseCache != nil {
			c.cache = responseCache
		}
	}
}

// WithTTL sizes the default in-memory cache. It has no effect when WithCache
// is also given.
func WithTTL(ttl time.Duration) Option {
	return func(c *Catalog) {
		if _, isMemory := c.cache.(*cache.MemoryCache); isMemory {
			c.cache = cache.NewMemoryCache(ttl)
		}
	}
}

func WithLogger(logger logr.Logger) Option {
	return func(c *Catalog) {
		c.logger = logger
	}
}

func WithMetrics(recorder *metrics.Recorder) Option {
	return func(c *Catalog) {
		c.metrics = recorder
	}
}

func New(channel transport.Channel, opts ...Option) (*Catalog, error) {
	if channel == nil {
		return nil, validationError("catalog transport channel is required", nil)
	}

	c := &Catalog{
		channel: channel,
		cache:   cache.NewMemoryCache(config.DefaultCacheTTL),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c, nil
}

// ServiceURL is the REST root the catalog talks to.
func (c *Catalog) ServiceURL() string {
	return c.currentChannel().ServiceURL()
}

// Reconfigure swaps the transport (new service URL or credentials) and drops
// every cached response.
func (c *Catalog) Reconfigure(ctx context.Context, channel transport.Channel) error {
	if channel == nil {
		return validationError("catalog transport channel is required", nil)
	}

	c.mu.Lock()
	c.channel = channel
	c.mu.Unlock()

	c.invalidate(ctx)
	return nil
}

func (c *Catalog) currentChannel() transport.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channel
}

func (c *Catalog) log(ctx context.Context) logr.Logger {
	if c.logger.GetSink() != nil {
		return c.logger
	}
	return debugctx.Logger(ctx)
}

// GetXML is the shared read primitive. A cached body younger than the TTL is
// parsed without a request; otherwise the document is fetched, cached on
// 200 and parsed. Any other status is a FailedRequest, and a 200 body that
// is not an XML document is a ParsingError.
func (c *Catalog) GetXML(ctx context.Context, key string) (*etree.Document, error) {
	body, err := c.getRaw(ctx, key, transport.MediaTypeXML)
	if err != nil {
		return nil, err
	}

	document := etree.NewDocument()
	if err := document.ReadFromBytes(body); err != nil {
		return nil, parsingError(fmt.Sprintf("response for %s is not an XML document", key), err)
	}
	if document.Root() == nil {
		return nil, parsingError(fmt.Sprintf("response for %s has no root element", key), nil)
	}
	return document, nil
}

func (c *Catalog) getRaw(ctx context.Context, key string, accept string) ([]byte, error) {
	key = c.relativeKey(key)

	if body, found := c.cache.Get(ctx, key); found {
		c.metrics.CacheLookup(true)
		debugctx.Printf(ctx, "catalog cache hit key=%q", key)
		return body, nil
	}
	c.metrics.CacheLookup(false)

	value, err, _ := c.fetches.Do(key, func() (any, error) {
		response, err := c.currentChannel().Do(ctx, transport.Request{
			Method: "GET",
			Path:   key,
			Accept: accept,
		})
		if err != nil {
			return nil, err
		}
		if response.StatusCode != 200 {
			return nil, failedRequest("GET", key, response.StatusCode, response.Body)
		}
		c.cache.Put(ctx, key, response.Body)
		return response.Body, nil
	})
	if err != nil {
		return nil, err
	}
	return value.([]byte), nil
}

// relativeKey maps absolute hrefs found in documents onto service-relative
// cache keys so the same object never occupies two entries.
func (c *Catalog) relativeKey(key string) string {
	trimmed := strings.TrimSpace(key)
	serviceURL := c.ServiceURL()
	if serviceURL != "" && strings.HasPrefix(trimmed, serviceURL) {
		trimmed = strings.TrimPrefix(trimmed, serviceURL)
	}
	if trimmed != "" && !strings.HasPrefix(trimmed, "/") && !strings.Contains(trimmed, "://") {
		trimmed = "/" + trimmed
	}
	return trimmed
}

func (c *Catalog) invalidate(ctx context.Context) {
	c.cache.InvalidateAll(ctx)
	c.metrics.CacheInvalidated()
	debugctx.Printf(ctx, "catalog cache invalidated")
}

// send performs a mutating request; success invalidates the cache.
func (c *Catalog) send(ctx context.Context, request transport.Request) (*transport.Response, error) {
	response, err := c.currentChannel().Do(ctx, request)
	if err != nil {
		return nil, err
	}
	if !response.Success() {
		return nil, failedRequest(request.Method, request.Path, response.StatusCode, response.Body)
	}
	c.invalidate(ctx)
	return response, nil
}

// Reload asks the server to reload its configuration from disk.
func (c *Catalog) Reload(ctx context.Context) error {
	_, err := c.send(ctx, transport.Request{Method: "POST", Path: "/reload"})
	return err
}

// Reset asks the server to drop its resource caches and store connections.
func (c *Catalog) Reset(ctx context.Context) error {
	_, err := c.send(ctx, transport.Request{Method: "POST", Path: "/reset"})
	return err
}

func segment(value string) string {
	return url.PathEscape(value)
}
