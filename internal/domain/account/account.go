// Package account serves the user-facing order history: it resolves the
// caller, pulls the caller's orders from the order service and decorates them
// with catalog data.
package account

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/food-orders/internal/domain/catalog"
	"github.com/xenking/food-orders/internal/domain/identity"
	"github.com/xenking/food-orders/internal/domain/order"
)

var (
	// ErrUserNotFound is returned when the caller's subject has no user.
	ErrUserNotFound = errors.New("user not found")
	// ErrOrdersUnavailable is returned when the order service could not be
	// reached after all retries.
	ErrOrdersUnavailable = errors.New("order service unavailable")
)

// OrderSource reads orders owned by the order service.
type OrderSource interface {
	ListOrders(ctx context.Context, userID int64, paid bool) ([]order.Header, error)
	ListLineItems(ctx context.Context, orderID int64) ([]order.LineItem, error)
}

// Config holds the settings of the account Service.
type Config struct {
	Enrich order.EnrichConfig

	MeterProvider  metric.MeterProvider
	TracerProvider trace.TracerProvider
}

// Service aggregates a user's orders across the identity, order and catalog
// services.
type Service struct {
	users    identity.Resolver
	orders   OrderSource
	enricher *order.Enricher
	tracer   trace.Tracer
}

// NewService creates an account Service.
func NewService(users identity.Resolver, orders OrderSource, catalogReader catalog.Reader, cfg Config) (*Service, error) {
	meter := cfg.MeterProvider.Meter("github.com/xenking/food-orders/internal/domain/account")
	enricher, err := order.NewEnricher(catalogReader, cfg.Enrich, meter)
	if err != nil {
		return nil, err
	}
	return &Service{
		users:    users,
		orders:   orders,
		enricher: enricher,
		tracer:   cfg.TracerProvider.Tracer("github.com/xenking/food-orders/internal/domain/account"),
	}, nil
}

// ListOrders returns the paid or unpaid orders of subject. Line items are
// always re-read from the order service and every order and item is
// decorated with live catalog data; unresolvable catalog records leave their
// display fields empty.
func (s *Service) ListOrders(ctx context.Context, subject string, paid bool) (_ []order.EnrichedOrder, rerr error) {
	ctx, span := s.tracer.Start(ctx, "account.ListOrders", trace.WithAttributes(
		attribute.Bool("order.paid", paid),
	))
	defer func() {
		if rerr != nil {
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
		}
		span.End()
	}()

	if subject == "" {
		return nil, ErrUserNotFound
	}
	userID, err := s.users.ResolveUserID(ctx, subject)
	switch {
	case errors.Is(err, identity.ErrNotFound):
		return nil, errors.Wrapf(ErrUserNotFound, "resolve %q", subject)
	case err != nil:
		return nil, errors.Wrapf(err, "resolve %q", subject)
	}
	span.SetAttributes(attribute.Int64("order.user_id", userID))

	headers, err := s.orders.ListOrders(ctx, userID, paid)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return s.enricher.Enrich(ctx, headers, s.orders.ListLineItems)
}
