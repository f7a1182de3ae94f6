package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/xenking/food-orders/internal/domain/order"
)

const (
	createHeaderSQL = `INSERT INTO order_table (business_id, user_id, is_pay, pay_amount)
	VALUES ($1, $2, $3, $4)
	RETURNING id`

	createLineItemSQL = `INSERT INTO order_item (order_table_id, commodity_id, quantity)
	VALUES ($1, $2, $3)`

	findHeadersSQL = `SELECT id, business_id, user_id, is_pay, pay_amount, created_at
	FROM order_table
	WHERE user_id = $1 AND is_pay = $2
	ORDER BY id`

	findLineItemsSQL = `SELECT id, order_table_id, commodity_id, quantity
	FROM order_item
	WHERE order_table_id = $1
	ORDER BY id`

	deleteHeaderSQL = `DELETE FROM order_table WHERE id = $1`
)

var _ order.Store = (*OrderRepository)(nil)

// OrderRepository implements order.Store backed by a PostgreSQL Cluster.
type OrderRepository struct {
	db *Cluster
}

// NewOrderRepository returns an OrderRepository that uses the given cluster.
func NewOrderRepository(db *Cluster) *OrderRepository {
	return &OrderRepository{db: db}
}

// CreateHeader inserts h on the primary and returns the generated id.
// h.ID is left untouched.
func (r *OrderRepository) CreateHeader(ctx context.Context, h *order.Header) (int64, error) {
	var id int64
	err := r.db.Writer().QueryRow(ctx, createHeaderSQL,
		h.BusinessID, h.UserID, h.Paid, h.PayAmount,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("creating order header for user %d: %w", h.UserID, err)
	}
	return id, nil
}

// CreateLineItems inserts all items on the primary in a single batch
// round-trip. The batch is implicitly transactional, so either every item is
// written or none is.
func (r *OrderRepository) CreateLineItems(ctx context.Context, items []order.LineItem) error {
	if len(items) == 0 {
		return nil
	}

	b := &pgx.Batch{}
	for _, it := range items {
		b.Queue(createLineItemSQL, it.HeaderID, it.CommodityID, it.Quantity)
	}
	if err := r.db.Writer().SendBatch(ctx, b).Close(); err != nil {
		return fmt.Errorf("creating %d line items for order %d: %w", len(items), items[0].HeaderID, err)
	}
	return nil
}

// FindHeadersByUserAndPaidFlag returns the orders of userID with the given
// paid flag, ordered by id.
func (r *OrderRepository) FindHeadersByUserAndPaidFlag(ctx context.Context, userID int64, paid bool) ([]order.Header, error) {
	rows, err := r.db.Reader(ctx).Query(ctx, findHeadersSQL, userID, paid)
	if err != nil {
		return nil, fmt.Errorf("listing orders of user %d: %w", userID, err)
	}

	headers, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Header, error) {
		var h order.Header
		err := row.Scan(&h.ID, &h.BusinessID, &h.UserID, &h.Paid, &h.PayAmount, &h.CreatedAt)
		return h, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning orders of user %d: %w", userID, err)
	}
	return headers, nil
}

// FindLineItemsByHeaderID returns the items of one order ordered by id. An
// unknown header yields an empty slice.
func (r *OrderRepository) FindLineItemsByHeaderID(ctx context.Context, headerID int64) ([]order.LineItem, error) {
	rows, err := r.db.Reader(ctx).Query(ctx, findLineItemsSQL, headerID)
	if err != nil {
		return nil, fmt.Errorf("listing items of order %d: %w", headerID, err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.LineItem, error) {
		var it order.LineItem
		err := row.Scan(&it.ID, &it.HeaderID, &it.CommodityID, &it.Quantity)
		return it, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning items of order %d: %w", headerID, err)
	}
	if items == nil {
		items = []order.LineItem{}
	}
	return items, nil
}

// DeleteHeader removes a header on the primary. Deleting a missing header is
// not an error.
func (r *OrderRepository) DeleteHeader(ctx context.Context, id int64) error {
	if _, err := r.db.Writer().Exec(ctx, deleteHeaderSQL, id); err != nil {
		return fmt.Errorf("deleting order %d: %w", id, err)
	}
	return nil
}
