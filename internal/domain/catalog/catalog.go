package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when the catalog service reports no such
	// business or commodity.
	ErrNotFound = errors.New("catalog record not found")
	// ErrUnavailable is returned when the catalog service could not be reached
	// (timeout, network failure, 5xx) after all retries.
	ErrUnavailable = errors.New("catalog service unavailable")
)

// Business is the merchant record owned by the catalog service. DeliveryFee
// is invalid when the business publishes none.
type Business struct {
	ID          int64
	Name        string
	DeliveryFee decimal.NullDecimal
}

// Commodity is a menu item owned by the catalog service.
type Commodity struct {
	ID        int64
	Name      string
	UnitPrice decimal.Decimal
	ImageRef  string
}

// Reader resolves catalog records by id.
type Reader interface {
	GetBusiness(ctx context.Context, id int64) (*Business, error)
	GetCommodity(ctx context.Context, id int64) (*Commodity, error)
}
