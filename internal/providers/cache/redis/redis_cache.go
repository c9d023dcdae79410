package redis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/planetfederal/gsconfig/cache"
	"github.com/planetfederal/gsconfig/config"
	"github.com/planetfederal/gsconfig/debugctx"
	"github.com/planetfederal/gsconfig/faults"
)

const (
	defaultPrefix = "gsconfig"
	scanBatchSize = 256
)

var _ cache.ResponseCache = (*ResponseCache)(nil)

// commander is the subset of redis.Cmdable the cache needs.
type commander interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// ResponseCache shares response bodies between processes talking to the same
// service. Redis expires entries itself, so TTL semantics match the memory cache.
// When an invalidation fails, reads miss until every entry written before it
// has expired.
type ResponseCache struct {
	client commander
	prefix string
	ttl    time.Duration
	now    func() time.Time

	mu          sync.Mutex
	bypassUntil time.Time
}

func NewResponseCache(cfg config.RedisCache, ttl time.Duration) (*ResponseCache, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, faults.NewTypedError(faults.ValidationError, "cache.redis.addr is required", nil)
	}
	if cfg.DB < 0 || cfg.DB > 15 {
		return nil, faults.NewTypedError(faults.ValidationError, "cache.redis.db must be between 0 and 15", nil)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	return newResponseCache(client, cfg.Prefix, ttl), nil
}

func newResponseCache(client commander, prefix string, ttl time.Duration) *ResponseCache {
	if strings.TrimSpace(prefix) == "" {
		prefix = defaultPrefix
	}
	if ttl <= 0 {
		ttl = config.DefaultCacheTTL
	}
	return &ResponseCache{client: client, prefix: prefix, ttl: ttl, now: time.Now}
}

func (c *ResponseCache) key(key string) string {
	return c.prefix + ":" + key
}

func (c *ResponseCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c.bypassing() {
		return nil, false
	}
	body, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			debugctx.Logger(ctx).V(1).Info("redis cache read failed", "key", key, "error", err.Error())
		}
		return nil, false
	}
	return body, true
}

func (c *ResponseCache) Put(ctx context.Context, key string, body []byte) {
	if err := c.client.Set(ctx, c.key(key), body, c.ttl).Err(); err != nil {
		debugctx.Logger(ctx).V(1).Info("redis cache write failed", "key", key, "error", err.Error())
	}
}

func (c *ResponseCache) InvalidateAll(ctx context.Context) {
	if err := c.deleteAll(ctx); err != nil {
		debugctx.Logger(ctx).Error(err, "redis cache invalidation failed; bypassing cache until entries expire",
			"prefix", c.prefix, "ttl", c.ttl.String())
		c.mu.Lock()
		c.bypassUntil = c.now().Add(c.ttl)
		c.mu.Unlock()
	}
}

func (c *ResponseCache) deleteAll(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+":*", scanBatchSize).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (c *ResponseCache) bypassing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now().Before(c.bypassUntil)
}

func (c *ResponseCache) Close() error {
	if closer, ok := c.client.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
