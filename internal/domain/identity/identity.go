package identity

import (
	"context"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when the identity service has no user with the
	// given username.
	ErrNotFound = errors.New("user not found")
	// ErrUnavailable is returned when the identity service could not be
	// reached after all retries.
	ErrUnavailable = errors.New("identity service unavailable")
)

// Resolver maps an authenticated subject (username) to its user id.
type Resolver interface {
	ResolveUserID(ctx context.Context, username string) (int64, error)
}
