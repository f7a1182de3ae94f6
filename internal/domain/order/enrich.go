package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/food-orders/internal/domain/catalog"
)

// EnrichConfig bounds the remote fan-out of a listing.
type EnrichConfig struct {
	// Concurrency is the maximum number of in-flight catalog lookups.
	// Values below 1 mean sequential lookups.
	Concurrency int
	// LookupTimeout caps every single catalog lookup. Zero disables it.
	LookupTimeout time.Duration
}

// ItemSource loads the line items of one order header.
type ItemSource func(ctx context.Context, headerID int64) ([]LineItem, error)

// Enricher decorates order headers with merchant and commodity data fetched
// from the catalog service. A record that cannot be resolved leaves its
// display fields empty; only ItemSource failures abort the listing.
type Enricher struct {
	catalog catalog.Reader
	limit   int
	timeout time.Duration
	gaps    metric.Int64Counter
}

// NewEnricher creates an Enricher reporting unresolved lookups to meter.
func NewEnricher(c catalog.Reader, cfg EnrichConfig, meter metric.Meter) (*Enricher, error) {
	gaps, err := meter.Int64Counter("orders.enrichment_gaps",
		metric.WithDescription("Catalog lookups that left order display fields empty"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create enrichment gap counter")
	}

	limit := cfg.Concurrency
	if limit < 1 {
		limit = 1
	}
	return &Enricher{
		catalog: c,
		limit:   limit,
		timeout: cfg.LookupTimeout,
		gaps:    gaps,
	}, nil
}

// Enrich returns one EnrichedOrder per header, in header order, each with its
// line items in the order items returned them.
//
// Lookups run in two joined phases: business lookups together with line item
// loading, then one commodity lookup per line item. Results are written into
// pre-sized slots, so the output never depends on completion order.
func (e *Enricher) Enrich(ctx context.Context, headers []Header, items ItemSource) ([]EnrichedOrder, error) {
	out := make([]EnrichedOrder, len(headers))
	for i, h := range headers {
		out[i] = EnrichedOrder{Header: h, Items: []EnrichedItem{}}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit)
	for i := range out {
		o := &out[i]
		g.Go(func() error {
			e.decorateBusiness(gctx, o)
			return nil
		})
		g.Go(func() error {
			lines, err := items(gctx, o.ID)
			if err != nil {
				return errors.Wrapf(err, "load items of order %d", o.ID)
			}
			o.Items = make([]EnrichedItem, len(lines))
			for j, li := range lines {
				o.Items[j] = EnrichedItem{LineItem: li}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(e.limit)
	for i := range out {
		for j := range out[i].Items {
			it := &out[i].Items[j]
			g.Go(func() error {
				e.decorateCommodity(gctx, it)
				return nil
			})
		}
	}
	_ = g.Wait()

	// Lookups swallow their own errors; a cancelled caller must still see one.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Enricher) lookupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout > 0 {
		return context.WithTimeout(ctx, e.timeout)
	}
	return context.WithCancel(ctx)
}

func (e *Enricher) decorateBusiness(ctx context.Context, o *EnrichedOrder) {
	lctx, cancel := e.lookupContext(ctx)
	defer cancel()

	b, err := e.catalog.GetBusiness(lctx, o.BusinessID)
	if err != nil {
		e.gap(ctx, "business", o.BusinessID, err)
		return
	}
	o.BusinessName = b.Name
	o.DeliveryFee = b.DeliveryFee
}

func (e *Enricher) decorateCommodity(ctx context.Context, it *EnrichedItem) {
	lctx, cancel := e.lookupContext(ctx)
	defer cancel()

	c, err := e.catalog.GetCommodity(lctx, it.CommodityID)
	if err != nil {
		e.gap(ctx, "commodity", it.CommodityID, err)
		return
	}
	it.Name = c.Name
	it.Price = decimal.NewNullDecimal(c.UnitPrice)
	it.ImageRef = c.ImageRef
}

func (e *Enricher) gap(ctx context.Context, kind string, id int64, err error) {
	e.gaps.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	zctx.From(ctx).Warn("Enrichment lookup failed",
		zap.String("kind", kind),
		zap.Int64("id", id),
		zap.Error(err),
	)
}
