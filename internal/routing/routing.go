// Package routing selects the primary or replica data store for one logical
// operation.
//
// The route lives in a scope attached to the operation's context. Read-only
// operations run inside Within(ctx, true, ...) and see Replica; writes see
// Primary. Stores call CurrentRoute on every query and must treat Unset as
// Primary. Scopes are never shared between requests: each request (or each
// Within call without an attached scope) gets its own.
package routing

import (
	"context"
	"sync/atomic"
)

// Route designates the physical store a query should target.
type Route uint32

const (
	// Unset means no operation declared its intent. Stores fall back to Primary.
	Unset Route = iota
	// Primary is the read-write store.
	Primary
	// Replica is the read-only store that may lag behind Primary.
	Replica
)

// String implements fmt.Stringer.
func (r Route) String() string {
	switch r {
	case Primary:
		return "primary"
	case Replica:
		return "replica"
	default:
		return "unset"
	}
}

// ForIntent maps a read-only declaration to its route.
func ForIntent(readOnly bool) Route {
	if readOnly {
		return Replica
	}
	return Primary
}

// scope holds the route of one logical operation. Enrichment fan-out reads
// it from several goroutines, hence the atomic.
type scope struct {
	route atomic.Uint32
}

type scopeKey struct{}

func from(ctx context.Context) *scope {
	s, _ := ctx.Value(scopeKey{}).(*scope)
	return s
}

// Attach returns a context carrying a fresh, unset routing scope. Any scope
// inherited from a parent context is shadowed.
func Attach(ctx context.Context) context.Context {
	return context.WithValue(ctx, scopeKey{}, &scope{})
}

// SetRoute installs Primary (readOnly=false) or Replica (readOnly=true) into
// the scope attached to ctx. It is a no-op when ctx carries no scope.
func SetRoute(ctx context.Context, readOnly bool) {
	if s := from(ctx); s != nil {
		s.route.Store(uint32(ForIntent(readOnly)))
	}
}

// CurrentRoute reports the route of the operation ctx belongs to.
func CurrentRoute(ctx context.Context) Route {
	if s := from(ctx); s != nil {
		return Route(s.route.Load())
	}
	return Unset
}

// ClearRoute resets the scope attached to ctx to Unset.
func ClearRoute(ctx context.Context) {
	if s := from(ctx); s != nil {
		s.route.Store(uint32(Unset))
	}
}

// Within runs fn with the route derived from readOnly and restores the
// previous route afterwards, whether fn returns an error or panics. When ctx
// has no scope, a new one is attached for the duration of fn so the caller's
// context never observes the route.
func Within(ctx context.Context, readOnly bool, fn func(ctx context.Context) error) error {
	s := from(ctx)
	if s == nil {
		ctx = Attach(ctx)
		s = from(ctx)
	}

	prev := s.route.Swap(uint32(ForIntent(readOnly)))
	defer s.route.Store(prev)

	return fn(ctx)
}
