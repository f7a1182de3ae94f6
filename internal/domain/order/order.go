package order

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// MaxQuantity is the largest quantity a line item column can hold.
	MaxQuantity = math.MaxInt32
	// AmountPlaces is the number of decimal places money is stored with.
	AmountPlaces = 2
)

// Header is the summary row of an order. BusinessID and UserID reference
// records owned by other services and are not checked locally after creation.
type Header struct {
	ID         int64
	BusinessID int64
	UserID     int64
	Paid       bool
	// PayAmount is computed once at creation from the catalog prices in
	// effect at that moment and is never recomputed.
	PayAmount decimal.Decimal
	CreatedAt time.Time
}

// LineItem is one itemized row of an order.
type LineItem struct {
	ID          int64
	HeaderID    int64
	CommodityID int64
	Quantity    int
}

// CartLine is a requested commodity and its quantity.
type CartLine struct {
	CommodityID int64
	Quantity    int
}

// Cart is the input of order creation.
type Cart struct {
	BusinessID int64
	Lines      []CartLine
}

// EnrichedItem is a line item decorated with live catalog data. Name, Price
// and ImageRef stay empty when the commodity no longer resolves.
type EnrichedItem struct {
	LineItem
	Name     string
	Price    decimal.NullDecimal
	ImageRef string
}

// EnrichedOrder is a header decorated with merchant data and its enriched
// line items. BusinessName and DeliveryFee stay empty when the business no
// longer resolves.
type EnrichedOrder struct {
	Header
	BusinessName string
	DeliveryFee  decimal.NullDecimal
	Items        []EnrichedItem
}

// Store persists order headers and line items. Reads honour the routing
// scope of ctx; writes always target the primary store.
type Store interface {
	CreateHeader(ctx context.Context, h *Header) (int64, error)
	CreateLineItems(ctx context.Context, items []LineItem) error
	FindHeadersByUserAndPaidFlag(ctx context.Context, userID int64, paid bool) ([]Header, error)
	FindLineItemsByHeaderID(ctx context.Context, headerID int64) ([]LineItem, error)
	DeleteHeader(ctx context.Context, id int64) error
}
