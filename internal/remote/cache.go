package remote

import (
	"context"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/food-orders/internal/cache"
	"github.com/xenking/food-orders/internal/domain/identity"
)

var _ identity.Resolver = (*CachedResolver)(nil)

// CachedResolver memoizes username to user id lookups. A username never
// changes owner, so entries only expire to bound memory. Failures are never
// cached and cache errors fall through to the wrapped resolver.
type CachedResolver struct {
	next  identity.Resolver
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedResolver wraps next with c.
func NewCachedResolver(next identity.Resolver, c cache.Cache, ttl time.Duration) *CachedResolver {
	return &CachedResolver{next: next, cache: c, ttl: ttl}
}

// ResolveUserID implements identity.Resolver.
func (r *CachedResolver) ResolveUserID(ctx context.Context, username string) (int64, error) {
	lg := zctx.From(ctx)
	key := r.cache.Key("user-id", username)

	v, err := r.cache.Get(ctx, key)
	switch {
	case err == nil:
		id, perr := strconv.ParseInt(v, 10, 64)
		if perr == nil {
			return id, nil
		}
		lg.Warn("Ignoring malformed cached user id", zap.String("key", key), zap.Error(perr))
	case !errors.Is(err, cache.ErrMiss):
		lg.Warn("Identity cache read failed", zap.Error(err))
	}

	id, err := r.next.ResolveUserID(ctx, username)
	if err != nil {
		return 0, err
	}
	if err := r.cache.Set(ctx, key, strconv.FormatInt(id, 10), r.ttl); err != nil {
		lg.Warn("Identity cache write failed", zap.Error(err))
	}
	return id, nil
}
