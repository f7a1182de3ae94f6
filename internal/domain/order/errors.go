package order

import (
	"fmt"

	"github.com/go-faster/errors"

	"github.com/xenking/food-orders/internal/domain/catalog"
	"github.com/xenking/food-orders/internal/domain/identity"
)

// ErrEmptyCart is returned when an order is requested without any lines.
var ErrEmptyCart = errors.New("order items required")

// InvalidQuantityError indicates a cart line has a quantity outside
// [1, MaxQuantity].
type InvalidQuantityError struct {
	CommodityID int64
	Quantity    int
}

func (e *InvalidQuantityError) Error() string {
	if e.Quantity > MaxQuantity {
		return fmt.Sprintf("quantity must not exceed %d for commodity %d", MaxQuantity, e.CommodityID)
	}
	return fmt.Sprintf("quantity must be greater than 0 for commodity %d", e.CommodityID)
}

// IdentityUnresolvedError indicates the caller's subject could not be mapped
// to a user id.
type IdentityUnresolvedError struct {
	Subject string
	Err     error
}

func (e *IdentityUnresolvedError) Error() string {
	return fmt.Sprintf("resolve user %q: %v", e.Subject, e.Err)
}

func (e *IdentityUnresolvedError) Unwrap() error { return e.Err }

// MerchantNotFoundError indicates the cart's business could not be resolved.
type MerchantNotFoundError struct {
	BusinessID int64
	Err        error
}

func (e *MerchantNotFoundError) Error() string {
	return fmt.Sprintf("business %d: %v", e.BusinessID, e.Err)
}

func (e *MerchantNotFoundError) Unwrap() error { return e.Err }

// CommodityNotFoundError indicates a cart line's commodity could not be
// resolved.
type CommodityNotFoundError struct {
	CommodityID int64
	Err         error
}

func (e *CommodityNotFoundError) Error() string {
	return fmt.Sprintf("commodity %d: %v", e.CommodityID, e.Err)
}

func (e *CommodityNotFoundError) Unwrap() error { return e.Err }

// StorageError wraps a persistence failure. OrphanHeaderID is set when the
// header was written but its line items were not; it is cleared again if the
// orphan was deleted by compensation.
type StorageError struct {
	Op             string
	OrphanHeaderID int64
	Compensated    bool
	Err            error
}

func (e *StorageError) Error() string {
	if e.OrphanHeaderID != 0 {
		return fmt.Sprintf("%s (orphan header %d): %v", e.Op, e.OrphanHeaderID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsTransient reports whether err was caused by an upstream service that
// could not be reached, so the caller may retry the whole operation later.
func IsTransient(err error) bool {
	return errors.Is(err, catalog.ErrUnavailable) || errors.Is(err, identity.ErrUnavailable)
}

// failureReason classifies a CreateOrder error for metrics.
func failureReason(err error) string {
	var (
		iqErr  *InvalidQuantityError
		idErr  *IdentityUnresolvedError
		mErr   *MerchantNotFoundError
		cErr   *CommodityNotFoundError
		stoErr *StorageError
	)
	switch {
	case errors.Is(err, ErrEmptyCart), errors.As(err, &iqErr):
		return "validation"
	case errors.As(err, &idErr):
		return "identity"
	case errors.As(err, &mErr):
		return "merchant"
	case errors.As(err, &cErr):
		return "commodity"
	case errors.As(err, &stoErr):
		return "storage"
	default:
		return "other"
	}
}
