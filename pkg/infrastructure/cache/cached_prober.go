// Package cache wraps probers with a Redis-backed result cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/entity"
	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/service"
	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces cache keys
const DefaultPrefix = "domain-prioritizer"

// CachedProber serves repeated probes of the same domain from Redis.
// Only successful results are cached; failures always reach the inner prober.
type CachedProber struct {
	client   redis.Cmdable
	platform service.PlatformProber
	business service.BusinessScorer
	ttl      time.Duration
	prefix   string
	logger   *log.Logger
}

// Config holds cache configuration
type Config struct {
	TTL    time.Duration
	Prefix string
}

// NewRedisClient connects to a Redis server at addr
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// NewCachedProber wraps platform and business probers; either may be nil
func NewCachedProber(client redis.Cmdable, platform service.PlatformProber, business service.BusinessScorer, config Config, logger *log.Logger) *CachedProber {
	if config.Prefix == "" {
		config.Prefix = DefaultPrefix
	}
	if config.TTL <= 0 {
		config.TTL = 24 * time.Hour
	}
	if logger == nil {
		logger = log.Default()
	}
	return &CachedProber{
		client:   client,
		platform: platform,
		business: business,
		ttl:      config.TTL,
		prefix:   config.Prefix,
		logger:   logger,
	}
}

var (
	_ service.PlatformProber = (*CachedProber)(nil)
	_ service.BusinessScorer = (*CachedProber)(nil)
)

// PlatformKey is the cache key of a platform probe
func (c *CachedProber) PlatformKey(domain string) string {
	return fmt.Sprintf("%s:platform:%s", c.prefix, domain)
}

// BusinessKey is the cache key of a business score for a given platform
func (c *CachedProber) BusinessKey(domain string, platform entity.PlatformType) string {
	return fmt.Sprintf("%s:business:%s:%s", c.prefix, platform, domain)
}

// ProbePlatform implements service.PlatformProber
func (c *CachedProber) ProbePlatform(ctx context.Context, domain string, opts service.ProbeOptions) (*service.PlatformResult, error) {
	if c.platform == nil {
		return nil, entity.ErrProberUnavailable
	}

	key := c.PlatformKey(domain)
	var cached service.PlatformResult
	if c.lookup(ctx, key, &cached) {
		// no request was made, so there is no fresh response to report
		cached.ResponseTimeMs, cached.StatusCode, cached.ContentLength = nil, nil, nil
		return &cached, nil
	}

	result, err := c.platform.ProbePlatform(ctx, domain, opts)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, result)
	return result, nil
}

// ScoreBusiness implements service.BusinessScorer
func (c *CachedProber) ScoreBusiness(ctx context.Context, domain string, platform entity.PlatformType, opts service.ProbeOptions) (*service.BusinessResult, error) {
	if c.business == nil {
		return nil, entity.ErrProberUnavailable
	}

	key := c.BusinessKey(domain, platform)
	var cached service.BusinessResult
	if c.lookup(ctx, key, &cached) {
		// no request was made, so there is no fresh response to report
		cached.ResponseTimeMs, cached.StatusCode, cached.ContentLength = nil, nil, nil
		return &cached, nil
	}

	result, err := c.business.ScoreBusiness(ctx, domain, platform, opts)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, result)
	return result, nil
}

func (c *CachedProber) lookup(ctx context.Context, key string, out any) bool {
	data, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache lookup failed", "key", key, "err", err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		c.logger.Warn("cache entry corrupt", "key", key, "err", err)
		return false
	}
	return true
}

func (c *CachedProber) store(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, string(data), c.ttl).Err(); err != nil {
		c.logger.Warn("cache store failed", "key", key, "err", err)
	}
}
