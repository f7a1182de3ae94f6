package app

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	"github.com/xenking/food-orders/internal/domain/account"
	"github.com/xenking/food-orders/internal/handler"
	"github.com/xenking/food-orders/internal/remote"
)

// RunAccount creates the account server dependencies, serves HTTP and handles
// graceful shutdown. The account server keeps no local state: orders come
// from the order server, display data from the catalog.
func RunAccount(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *AccountConfig) error {
	lg.Info("Initializing account server", zap.String("addr", cfg.Addr))
	healthSvc := newHealth()

	opts := remote.Options{TracerProvider: m.TracerProvider(), MeterProvider: m.MeterProvider()}
	users, closeCache := identityResolver(remote.NewIdentityClient(cfg.Identity, opts), cfg.Redis, healthSvc)
	defer closeCache()
	addUpstreamCheck(healthSvc, "orders", cfg.Orders.BaseURL)
	addUpstreamCheck(healthSvc, "catalog", cfg.Catalog.BaseURL)
	addUpstreamCheck(healthSvc, "identity", cfg.Identity.BaseURL)

	accountService, err := account.NewService(
		users,
		remote.NewOrdersClient(cfg.Orders, opts),
		remote.NewCatalogClient(cfg.Catalog, opts),
		account.Config{
			Enrich:         cfg.Enrich.domain(),
			MeterProvider:  m.MeterProvider(),
			TracerProvider: m.TracerProvider(),
		},
	)
	if err != nil {
		return errors.Wrap(err, "create account service")
	}

	api := handler.NewAccountRouter(accountService, handler.Config{SubjectHeader: cfg.SubjectHeader})
	return serve(ctx, lg, cfg.Addr, newRouter(ctx, "account-server", m, healthSvc, api), healthSvc, cfg.Graceful)
}
