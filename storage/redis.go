package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Redis-backed store. It lets several processes share one
// translation cache. The quota is Redis' own maxmemory: an OOM reply maps
// to ErrQuotaExceeded.
type Redis struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
	timeout   time.Duration
	scanCount int64
}

// RedisConfig holds configuration for the Redis store.
type RedisConfig struct {
	URL       string        // Redis connection URL (e.g., "redis://localhost:6379/0")
	TTL       time.Duration // Server-side expiry for every key (0 = none)
	KeyPrefix string        // Prefix for all keys (default: "gotlui:")
	Timeout   time.Duration // Per-operation timeout (default: 2s)
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	r := NewRedisFromClient(redis.NewClient(opts), cfg)

	if err := r.Ping(); err != nil {
		r.client.Close()
		return nil, err
	}
	return r, nil
}

// NewRedisFromClient creates a store from an existing Redis client. The URL
// field of cfg is ignored.
func NewRedisFromClient(client *redis.Client, cfg RedisConfig) *Redis {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "gotlui:"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ttl := cfg.TTL
	if ttl < 0 {
		ttl = 0
	}

	return &Redis{
		client:    client,
		ttl:       ttl,
		keyPrefix: prefix,
		timeout:   timeout,
		scanCount: 100,
	}
}

// Get retrieves a value from Redis.
func (r *Redis) Get(key string) (string, bool, error) {
	ctx, cancel := r.opContext()
	defer cancel()

	val, err := r.client.Get(ctx, r.keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set stores a value in Redis.
func (r *Redis) Set(key, value string) error {
	ctx, cancel := r.opContext()
	defer cancel()

	err := r.client.Set(ctx, r.keyPrefix+key, value, r.ttl).Err()
	if isOOM(err) {
		return ErrQuotaExceeded
	}
	return err
}

// Remove deletes a key from Redis.
func (r *Redis) Remove(key string) error {
	ctx, cancel := r.opContext()
	defer cancel()

	return r.client.Del(ctx, r.keyPrefix+key).Err()
}

// Keys lists keys with the given prefix using SCAN, so large keyspaces do
// not block the server. Order is whatever SCAN yields.
func (r *Redis) Keys(prefix string) ([]string, error) {
	ctx, cancel := r.opContext()
	defer cancel()

	pattern := escapeGlob(r.keyPrefix+prefix) + "*"
	var (
		keys   []string
		cursor uint64
	)
	for {
		page, next, err := r.client.Scan(ctx, cursor, pattern, r.scanCount).Result()
		if err != nil {
			return nil, err
		}
		for _, k := range page {
			keys = append(keys, strings.TrimPrefix(k, r.keyPrefix))
		}
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Ping tests the Redis connection.
func (r *Redis) Ping() error {
	ctx, cancel := r.opContext()
	defer cancel()
	return r.client.Ping(ctx).Err()
}

func (r *Redis) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.timeout)
}

func isOOM(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "OOM")
}

func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Verify Redis implements KV
var _ KV = (*Redis)(nil)
