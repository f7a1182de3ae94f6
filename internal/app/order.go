package app

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	"github.com/xenking/food-orders/internal/cache"
	"github.com/xenking/food-orders/internal/domain/identity"
	"github.com/xenking/food-orders/internal/domain/order"
	"github.com/xenking/food-orders/internal/handler"
	"github.com/xenking/food-orders/internal/remote"
	"github.com/xenking/food-orders/internal/storage/postgres"
	"github.com/xenking/food-orders/pkg/health"
)

// cacheNamespace prefixes every Redis key written by this module.
const cacheNamespace = "food-orders"

// RunOrder creates the order server dependencies, serves HTTP and handles
// graceful shutdown.
func RunOrder(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *OrderConfig) error {
	lg.Info("Initializing order server",
		zap.String("addr", cfg.Addr),
		zap.Bool("compensate_orphans", cfg.CompensateOrphans),
	)
	healthSvc := newHealth()

	// PostgreSQL primary + migrations.
	primary, err := postgres.NewPool(ctx, cfg.PrimaryURL, cfg.Pool)
	if err != nil {
		return errors.Wrap(err, "create primary pool")
	}
	defer primary.Close()

	if err := postgres.RunMigrations(ctx, primary); err != nil {
		return errors.Wrap(err, "run migrations")
	}
	healthSvc.AddReadinessCheck("primary", 5*time.Second, health.Critical, primary.Ping)

	cluster := postgres.NewCluster(primary, nil)
	if cfg.ReplicaURL != "" {
		replica, err := postgres.NewPool(ctx, cfg.ReplicaURL, cfg.Pool)
		if err != nil {
			return errors.Wrap(err, "create replica pool")
		}
		defer replica.Close()

		cluster = postgres.NewCluster(primary, replica)
		healthSvc.AddReadinessCheck("replica", 5*time.Second, health.Advisory, replica.Ping)
	}
	lg.Info("Order store ready", zap.Bool("replica", cluster.HasReplica()))

	// Upstreams.
	opts := remote.Options{TracerProvider: m.TracerProvider(), MeterProvider: m.MeterProvider()}
	catalogClient := remote.NewCatalogClient(cfg.Catalog, opts)
	users, closeCache := identityResolver(remote.NewIdentityClient(cfg.Identity, opts), cfg.Redis, healthSvc)
	defer closeCache()
	addUpstreamCheck(healthSvc, "catalog", cfg.Catalog.BaseURL)
	addUpstreamCheck(healthSvc, "identity", cfg.Identity.BaseURL)

	orderService, err := order.NewService(users, catalogClient, postgres.NewOrderRepository(cluster), order.Config{
		CompensateOrphans: cfg.CompensateOrphans,
		Enrich:            cfg.Enrich.domain(),
		MeterProvider:     m.MeterProvider(),
		TracerProvider:    m.TracerProvider(),
	})
	if err != nil {
		return errors.Wrap(err, "create order service")
	}

	api := handler.NewOrderRouter(orderService, handler.Config{SubjectHeader: cfg.SubjectHeader})
	return serve(ctx, lg, cfg.Addr, newRouter(ctx, "order-server", m, healthSvc, api), healthSvc, cfg.Graceful)
}

// identityResolver wraps next with the Redis cache when one is configured.
// The returned func releases the cache connections.
func identityResolver(next identity.Resolver, cfg RedisConfig, healthSvc *health.Health) (identity.Resolver, func()) {
	if cfg.Addr == "" {
		return next, func() {}
	}
	rc := cache.NewRedis(cfg.Addr, cacheNamespace)
	healthSvc.AddReadinessCheck("redis", 2*time.Second, health.Advisory, rc.Ping)
	return remote.NewCachedResolver(next, rc, cfg.IdentityTTL), func() { _ = rc.Close() }
}
