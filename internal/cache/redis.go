// Package cache provides a small namespaced key-value cache on top of Redis.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cache stores string values under namespaced keys.
type Cache interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Key(operation, key string) string
}

var _ Cache = (*Redis)(nil)

// Redis implements Cache with a single go-redis client.
type Redis struct {
	client    *redis.Client
	namespace string
}

// NewRedis connects to addr lazily; the first command dials. Keys are
// prefixed with namespace.
func NewRedis(addr, namespace string) *Redis {
	return &Redis{
		client:    redis.NewClient(&redis.Options{Addr: addr}),
		namespace: namespace,
	}
}

// Set stores value under key for ttl. A zero ttl keeps the key forever.
func (r *Redis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return errors.Wrapf(err, "set %q", key)
	}
	return nil
}

// Get returns the value stored under key, or ErrMiss.
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	if err != nil {
		return "", errors.Wrapf(err, "get %q", key)
	}
	return v, nil
}

// Key builds "<namespace>:<operation>:<key>".
func (r *Redis) Key(operation, key string) string {
	return fmt.Sprintf("%s:%s:%s", r.namespace, operation, key)
}

// Ping checks connectivity; used as an advisory readiness check.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying connections.
func (r *Redis) Close() error {
	return r.client.Close()
}
