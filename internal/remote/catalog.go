package remote

import (
	"context"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/food-orders/internal/domain/catalog"
)

var _ catalog.Reader = (*CatalogClient)(nil)

// CatalogClient reads merchants and commodities from the business service.
type CatalogClient struct {
	c *client
}

// NewCatalogClient returns a CatalogClient for the upstream described by cfg.
func NewCatalogClient(cfg Config, opts Options) *CatalogClient {
	return &CatalogClient{c: newClient("catalog", cfg, opts, catalog.ErrNotFound, catalog.ErrUnavailable)}
}

// GetBusiness calls GET /business/{id}.
func (cc *CatalogClient) GetBusiness(ctx context.Context, id int64) (*catalog.Business, error) {
	data, err := cc.c.getData(ctx, "/business/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return nil, err
	}

	b := &catalog.Business{ID: id}
	if err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "name":
			v, err := decodeOptString(d)
			b.Name = v
			return err
		case "deliveryFees":
			v, err := decodeDecimal(d)
			b.DeliveryFee = v
			return err
		default:
			return d.Skip()
		}
	}); err != nil {
		return nil, cc.c.translate(errors.Wrapf(err, "decode business %d", id))
	}
	return b, nil
}

// GetCommodity calls GET /commodity/{id}. A commodity without a price cannot
// be ordered and is reported as not found.
func (cc *CatalogClient) GetCommodity(ctx context.Context, id int64) (*catalog.Commodity, error) {
	data, err := cc.c.getData(ctx, "/commodity/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return nil, err
	}

	c := &catalog.Commodity{ID: id}
	var priced bool
	if err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "commodityName":
			v, err := decodeOptString(d)
			c.Name = v
			return err
		case "price":
			v, err := decodeDecimal(d)
			c.UnitPrice, priced = v.Decimal, v.Valid
			return err
		case "image":
			v, err := decodeOptString(d)
			c.ImageRef = v
			return err
		default:
			return d.Skip()
		}
	}); err != nil {
		return nil, cc.c.translate(errors.Wrapf(err, "decode commodity %d", id))
	}
	if !priced {
		return nil, cc.c.translate(errors.Wrapf(errNotFound, "commodity %d has no price", id))
	}
	return c, nil
}
