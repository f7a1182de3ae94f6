package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/food-orders/internal/domain/catalog"
	"github.com/xenking/food-orders/internal/domain/identity"
	"github.com/xenking/food-orders/internal/routing"
)

// Config holds the non-dependency settings of the order Service.
type Config struct {
	// CompensateOrphans deletes the freshly written header when its line
	// items cannot be persisted. Off by default: the orphan header is left
	// behind and reported through StorageError.OrphanHeaderID.
	CompensateOrphans bool
	Enrich            EnrichConfig

	MeterProvider  metric.MeterProvider
	TracerProvider trace.TracerProvider
}

// CreateOrderResult holds the output of a successfully created order.
type CreateOrderResult struct {
	OrderID   int64
	PayAmount decimal.Decimal
}

// Service orchestrates order creation and enriched listings across the
// identity and catalog services and the local order store.
//
// There is no distributed transaction: remote lookups are plain reads and the
// header and line items are two separate writes.
type Service struct {
	users    identity.Resolver
	catalog  catalog.Reader
	store    Store
	enricher *Enricher

	compensate bool
	tracer     trace.Tracer
	created    metric.Int64Counter
	failed     metric.Int64Counter
}

// NewService creates an order Service with the required domain dependencies.
func NewService(
	users identity.Resolver,
	catalogReader catalog.Reader,
	store Store,
	cfg Config,
) (*Service, error) {
	meter := cfg.MeterProvider.Meter("github.com/xenking/food-orders/internal/domain/order")

	created, err := meter.Int64Counter("orders.created",
		metric.WithDescription("Orders persisted with all their line items"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create orders.created counter")
	}
	failed, err := meter.Int64Counter("orders.create_failed",
		metric.WithDescription("Order creations rejected or aborted, by reason"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create orders.create_failed counter")
	}
	enricher, err := NewEnricher(catalogReader, cfg.Enrich, meter)
	if err != nil {
		return nil, err
	}

	return &Service{
		users:      users,
		catalog:    catalogReader,
		store:      store,
		enricher:   enricher,
		compensate: cfg.CompensateOrphans,
		tracer:     cfg.TracerProvider.Tracer("github.com/xenking/food-orders/internal/domain/order"),
		created:    created,
		failed:     failed,
	}, nil
}

// CreateOrder validates the cart, resolves the subject, the merchant and every
// commodity (in cart order, aborting at the first failure), sums
// unit price × quantity rounded to AmountPlaces, then writes the header
// followed by its line items.
func (s *Service) CreateOrder(ctx context.Context, subject string, cart Cart) (_ *CreateOrderResult, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.CreateOrder", trace.WithAttributes(
		attribute.Int64("order.business_id", cart.BusinessID),
		attribute.Int("order.lines", len(cart.Lines)),
	))
	defer func() {
		if rerr != nil {
			s.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", failureReason(rerr))))
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
		}
		span.End()
	}()

	// Validation happens before any remote call.
	if len(cart.Lines) == 0 {
		return nil, ErrEmptyCart
	}
	for _, line := range cart.Lines {
		if line.Quantity <= 0 || line.Quantity > MaxQuantity {
			return nil, &InvalidQuantityError{CommodityID: line.CommodityID, Quantity: line.Quantity}
		}
	}
	if subject == "" {
		return nil, &IdentityUnresolvedError{Subject: subject, Err: identity.ErrNotFound}
	}

	var result *CreateOrderResult
	err := routing.Within(ctx, false, func(ctx context.Context) error {
		var err error
		result, err = s.createOrder(ctx, subject, cart)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.created.Add(ctx, 1)
	span.SetAttributes(attribute.Int64("order.id", result.OrderID))
	zctx.From(ctx).Info("Order created",
		zap.Int64("order_id", result.OrderID),
		zap.Stringer("pay_amount", result.PayAmount),
		zap.Int("lines", len(cart.Lines)),
	)
	return result, nil
}

func (s *Service) createOrder(ctx context.Context, subject string, cart Cart) (*CreateOrderResult, error) {
	userID, err := s.users.ResolveUserID(ctx, subject)
	if err != nil {
		return nil, &IdentityUnresolvedError{Subject: subject, Err: err}
	}

	if _, err := s.catalog.GetBusiness(ctx, cart.BusinessID); err != nil {
		return nil, &MerchantNotFoundError{BusinessID: cart.BusinessID, Err: err}
	}

	payAmount := decimal.Zero
	items := make([]LineItem, len(cart.Lines))
	for i, line := range cart.Lines {
		c, err := s.catalog.GetCommodity(ctx, line.CommodityID)
		if err != nil {
			return nil, &CommodityNotFoundError{CommodityID: line.CommodityID, Err: err}
		}
		payAmount = payAmount.Add(c.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
		items[i] = LineItem{
			CommodityID: line.CommodityID,
			Quantity:    line.Quantity,
		}
	}
	payAmount = payAmount.Round(AmountPlaces)

	h := &Header{
		BusinessID: cart.BusinessID,
		UserID:     userID,
		Paid:       false,
		PayAmount:  payAmount,
	}
	id, err := s.store.CreateHeader(ctx, h)
	if err != nil {
		return nil, &StorageError{Op: "create order header", Err: err}
	}

	for i := range items {
		items[i].HeaderID = id
	}
	if err := s.store.CreateLineItems(ctx, items); err != nil {
		return nil, s.orphaned(ctx, id, err)
	}

	return &CreateOrderResult{OrderID: id, PayAmount: payAmount}, nil
}

// orphaned reports a line item write failure for header id, deleting the
// header first when compensation is enabled.
func (s *Service) orphaned(ctx context.Context, id int64, cause error) error {
	lg := zctx.From(ctx).With(zap.Int64("order_id", id))
	serr := &StorageError{Op: "create order line items", OrphanHeaderID: id, Err: cause}
	if !s.compensate {
		lg.Error("Order header left without line items", zap.Error(cause))
		return serr
	}

	if err := s.store.DeleteHeader(ctx, id); err != nil {
		lg.Error("Compensating delete of orphan header failed",
			zap.Error(cause),
			zap.NamedError("delete_error", err),
		)
		return serr
	}
	lg.Warn("Orphan header deleted after line item failure", zap.Error(cause))
	serr.OrphanHeaderID = 0
	serr.Compensated = true
	return serr
}

// ListOrders returns the orders of userID whose paid flag equals paid, each
// enriched with catalog data, in store order. Unresolvable businesses or
// commodities leave their display fields empty instead of failing the call.
func (s *Service) ListOrders(ctx context.Context, userID int64, paid bool) ([]EnrichedOrder, error) {
	ctx, span := s.tracer.Start(ctx, "order.ListOrders", trace.WithAttributes(
		attribute.Int64("order.user_id", userID),
		attribute.Bool("order.paid", paid),
	))
	defer span.End()

	var out []EnrichedOrder
	err := routing.Within(ctx, true, func(ctx context.Context) error {
		var err error
		out, err = s.listOrders(ctx, userID, paid)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return out, nil
}

// ListOrdersForSubject resolves subject and returns its unpaid orders
// followed by its paid ones.
func (s *Service) ListOrdersForSubject(ctx context.Context, subject string) ([]EnrichedOrder, error) {
	ctx, span := s.tracer.Start(ctx, "order.ListOrdersForSubject")
	defer span.End()

	if subject == "" {
		return nil, &IdentityUnresolvedError{Subject: subject, Err: identity.ErrNotFound}
	}
	userID, err := s.users.ResolveUserID(ctx, subject)
	if err != nil {
		return nil, &IdentityUnresolvedError{Subject: subject, Err: err}
	}

	var out []EnrichedOrder
	err = routing.Within(ctx, true, func(ctx context.Context) error {
		unpaid, err := s.listOrders(ctx, userID, false)
		if err != nil {
			return err
		}
		paid, err := s.listOrders(ctx, userID, true)
		if err != nil {
			return err
		}
		out = append(unpaid, paid...)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return out, nil
}

func (s *Service) listOrders(ctx context.Context, userID int64, paid bool) ([]EnrichedOrder, error) {
	headers, err := s.store.FindHeadersByUserAndPaidFlag(ctx, userID, paid)
	if err != nil {
		return nil, &StorageError{Op: "find order headers", Err: err}
	}
	return s.enricher.Enrich(ctx, headers, s.lineItems)
}

// GetLineItems returns the raw line items of one order in store order. An
// unknown order yields an empty list.
func (s *Service) GetLineItems(ctx context.Context, orderID int64) ([]LineItem, error) {
	var items []LineItem
	err := routing.Within(ctx, true, func(ctx context.Context) error {
		var err error
		items, err = s.lineItems(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Service) lineItems(ctx context.Context, headerID int64) ([]LineItem, error) {
	items, err := s.store.FindLineItemsByHeaderID(ctx, headerID)
	if err != nil {
		return nil, &StorageError{Op: "find order line items", Err: err}
	}
	return items, nil
}
