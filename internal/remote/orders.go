package remote

import (
	"context"
	"net/url"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/food-orders/internal/domain/account"
	"github.com/xenking/food-orders/internal/domain/order"
)

var _ account.OrderSource = (*OrdersClient)(nil)

// OrdersClient reads orders from the order service.
type OrdersClient struct {
	c *client
}

// NewOrdersClient returns an OrdersClient for the upstream described by cfg.
// The order service never answers "not found" for a listing, so both failure
// kinds surface as account.ErrOrdersUnavailable.
func NewOrdersClient(cfg Config, opts Options) *OrdersClient {
	return &OrdersClient{c: newClient("orders", cfg, opts, account.ErrOrdersUnavailable, account.ErrOrdersUnavailable)}
}

// ListOrders calls GET /order/payedorder or /order/unpayorder. The returned
// headers carry the queried user id and paid flag.
func (oc *OrdersClient) ListOrders(ctx context.Context, userID int64, paid bool) ([]order.Header, error) {
	path := "/order/unpayorder"
	if paid {
		path = "/order/payedorder"
	}
	data, err := oc.c.getData(ctx, path, url.Values{"userId": {strconv.FormatInt(userID, 10)}})
	if errors.Is(err, errNoData) {
		return []order.Header{}, nil
	}
	if err != nil {
		return nil, err
	}

	headers := []order.Header{}
	if err := jx.DecodeBytes(data).Arr(func(d *jx.Decoder) error {
		h := order.Header{UserID: userID, Paid: paid}
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "orderId":
				v, err := decodeID(d)
				h.ID = v
				return err
			case "businessId":
				v, err := decodeID(d)
				h.BusinessID = v
				return err
			case "payAmount":
				v, err := decodeDecimal(d)
				h.PayAmount = v.Decimal
				return err
			default:
				return d.Skip()
			}
		}); err != nil {
			return err
		}
		headers = append(headers, h)
		return nil
	}); err != nil {
		return nil, oc.c.translate(errors.Wrapf(err, "decode orders of user %d", userID))
	}
	return headers, nil
}

// ListLineItems calls GET /order/items. The endpoint answers with a bare JSON
// array instead of an envelope; the quantity member keeps its historical
// "quanity" spelling.
func (oc *OrdersClient) ListLineItems(ctx context.Context, orderID int64) ([]order.LineItem, error) {
	body, err := oc.c.get(ctx, "/order/items", url.Values{"orderId": {strconv.FormatInt(orderID, 10)}})
	if err != nil {
		return nil, err
	}

	items := []order.LineItem{}
	if err := jx.DecodeBytes(body).Arr(func(d *jx.Decoder) error {
		it := order.LineItem{HeaderID: orderID}
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "id":
				v, err := decodeID(d)
				it.ID = v
				return err
			case "commodityId":
				v, err := decodeID(d)
				it.CommodityID = v
				return err
			case "quanity", "quantity":
				v, err := d.Int()
				it.Quantity = v
				return err
			default:
				return d.Skip()
			}
		}); err != nil {
			return err
		}
		items = append(items, it)
		return nil
	}); err != nil {
		return nil, oc.c.translate(errors.Wrapf(err, "decode items of order %d", orderID))
	}
	return items, nil
}
