// Package cache provides the advisory key/value stores used to memoize
// categorization results. Every backend treats failures as misses.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Backend names accepted by New.
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
	BackendNone   = "none"
)

// DefaultMemorySize bounds the in-process backend.
const DefaultMemorySize = 10000

// redisDialTimeout keeps a missing Redis from stalling startup.
const redisDialTimeout = 200 * time.Millisecond

// Store is a byte-oriented cache. Get reports a miss on any backend error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
	Close() error
}

// Options configures New.
type Options struct {
	Backend  string
	RedisURL string
	TTL      time.Duration
}

// New builds the configured backend. A Redis that cannot be reached at
// startup disables caching instead of failing.
func New(ctx context.Context, opts Options, log zerolog.Logger) (Store, error) {
	switch opts.Backend {
	case BackendNone:
		return Noop{}, nil
	case BackendMemory:
		return NewMemory(DefaultMemorySize, opts.TTL), nil
	case BackendRedis, "":
		r, err := NewRedis(ctx, opts.RedisURL, opts.TTL, log)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, categorization cache disabled")
			return Noop{}, nil
		}
		return r, nil
	default:
		return nil, fmt.Errorf("New: unknown cache backend %q", opts.Backend)
	}
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (Noop) Set(context.Context, string, []byte)        {}
func (Noop) Close() error                               { return nil }

// Memory is an in-process LRU store with a per-entry TTL.
type Memory struct {
	lru *expirable.LRU[string, []byte]
}

// NewMemory creates an in-process store holding at most maxSize entries.
func NewMemory(maxSize int, ttl time.Duration) *Memory {
	return &Memory{lru: expirable.NewLRU[string, []byte](maxSize, nil, ttl)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	return m.lru.Get(key)
}

func (m *Memory) Set(_ context.Context, key string, value []byte) {
	m.lru.Add(key, value)
}

func (m *Memory) Close() error {
	m.lru.Purge()
	return nil
}

// Redis stores entries in Redis with a fixed TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewRedis connects and pings Redis at url.
func NewRedis(ctx context.Context, url string, ttl time.Duration, log zerolog.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("NewRedis: parse url: %w", err)
	}
	opts.DialTimeout = redisDialTimeout

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("NewRedis: ping: %w", err)
	}
	return &Redis{client: client, ttl: ttl, log: log}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Debug().Err(err).Str("key", key).Msg("Redis get failed")
		}
		return nil, false
	}
	return val, true
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) {
	if err := r.client.Set(ctx, key, value, r.ttl).Err(); err != nil {
		r.log.Debug().Err(err).Str("key", key).Msg("Redis set failed")
	}
}

func (r *Redis) Close() error {
	return r.client.Close()
}
