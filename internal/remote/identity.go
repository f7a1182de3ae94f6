package remote

import (
	"context"
	"net/url"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/food-orders/internal/domain/identity"
)

var _ identity.Resolver = (*IdentityClient)(nil)

// IdentityClient resolves usernames through the user service.
type IdentityClient struct {
	c *client
}

// NewIdentityClient returns an IdentityClient for the upstream described by cfg.
func NewIdentityClient(cfg Config, opts Options) *IdentityClient {
	return &IdentityClient{c: newClient("identity", cfg, opts, identity.ErrNotFound, identity.ErrUnavailable)}
}

// ResolveUserID calls GET /user/getByUsername?username= and returns the id
// member of the user record.
func (ic *IdentityClient) ResolveUserID(ctx context.Context, username string) (int64, error) {
	data, err := ic.c.getData(ctx, "/user/getByUsername", url.Values{"username": {username}})
	if err != nil {
		return 0, err
	}

	var id int64
	if err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		if key != "id" {
			return d.Skip()
		}
		v, err := decodeID(d)
		id = v
		return err
	}); err != nil {
		return 0, ic.c.translate(errors.Wrapf(err, "decode user %q", username))
	}
	if id == 0 {
		return 0, ic.c.translate(errors.Wrapf(errNotFound, "user %q has no id", username))
	}
	return id, nil
}
