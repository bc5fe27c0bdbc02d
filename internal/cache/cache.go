// Package cache is a small byte cache with Redis and Upstash REST backends,
// plus a read-through campaign decorator.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrMiss = errors.New("cache miss")

const (
	DriverNone    = "none"
	DriverRedis   = "redis"
	DriverUpstash = "upstash"
)

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

type Config struct {
	Driver        string        `envconfig:"DRIVER" split_words:"true" default:"none"`
	TTL           time.Duration `envconfig:"TTL" split_words:"true" default:"1h"`
	KeyPrefix     string        `envconfig:"KEY_PREFIX" split_words:"true" default:"outreach:"`
	RedisAddr     string        `envconfig:"REDIS_ADDR" split_words:"true" default:"localhost:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD" split_words:"true"`
	RedisDB       int           `envconfig:"REDIS_DB" split_words:"true" default:"0"`
	UpstashURL    string        `envconfig:"UPSTASH_URL" split_words:"true"`
	UpstashToken  string        `envconfig:"UPSTASH_TOKEN" split_words:"true"`
	Timeout       time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"5s"`
}

// New returns the configured backend, or nil when caching is disabled.
func New(ctx context.Context, cfg Config) (Cache, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverNone:
		return nil, nil
	case DriverRedis:
		c, err := NewRedisCache(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	case DriverUpstash:
		c, err := NewUpstashCache(UpstashConfig{URL: cfg.UpstashURL, Token: cfg.UpstashToken, Timeout: cfg.Timeout})
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("cache: unknown driver %q", cfg.Driver)
	}
}

func ttlSeconds(ttl time.Duration) int64 {
	seconds := ttl / time.Second
	if seconds <= 0 {
		return 1
	}
	if ttl%time.Second != 0 {
		seconds++
	}
	return int64(seconds)
}
