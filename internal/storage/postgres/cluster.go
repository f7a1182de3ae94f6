package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/xenking/food-orders/internal/routing"
)

// Querier is the subset of *pgxpool.Pool the repositories use.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Cluster pairs the read-write primary with an optional read-only replica and
// picks one per query from the routing scope of the calling operation.
type Cluster struct {
	primary Querier
	replica Querier
}

// NewCluster returns a Cluster. A nil replica sends every read to primary.
func NewCluster(primary, replica Querier) *Cluster {
	return &Cluster{primary: primary, replica: replica}
}

// Reader returns the replica when the operation of ctx declared itself
// read-only and a replica is configured. Any other route, including Unset,
// yields the primary.
func (c *Cluster) Reader(ctx context.Context) Querier {
	if c.replica != nil && routing.CurrentRoute(ctx) == routing.Replica {
		return c.replica
	}
	return c.primary
}

// Writer always returns the primary.
func (c *Cluster) Writer() Querier {
	return c.primary
}

// HasReplica reports whether reads can be offloaded at all.
func (c *Cluster) HasReplica() bool {
	return c.replica != nil
}
