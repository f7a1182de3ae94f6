package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/food-orders/internal/domain/order"
)

// decodeCart parses a create-order body:
//
//	{"businessId":1,"orderItems":[{"commodityId":10,"quanity":2}]}
//
// Lines accept both "quantity" and the legacy "quanity" spelling.
func decodeCart(body []byte) (order.Cart, error) {
	var cart order.Cart
	d := jx.DecodeBytes(body)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "businessId":
			v, err := d.Int64()
			cart.BusinessID = v
			return err
		case "orderItems":
			// A repeated key replaces earlier lines.
			cart.Lines = nil
			if d.Next() == jx.Null {
				return d.Null()
			}
			return d.Arr(func(d *jx.Decoder) error {
				line, err := decodeCartLine(d)
				if err != nil {
					return err
				}
				cart.Lines = append(cart.Lines, line)
				return nil
			})
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return order.Cart{}, errors.Wrap(err, "decode order request")
	}
	return cart, nil
}

func decodeCartLine(d *jx.Decoder) (order.CartLine, error) {
	var line order.CartLine
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "commodityId":
			v, err := d.Int64()
			line.CommodityID = v
			return err
		case "quantity", "quanity":
			v, err := d.Int()
			line.Quantity = v
			return err
		default:
			return d.Skip()
		}
	})
	return line, err
}

// queryID reads a required integer query parameter.
func queryID(r *http.Request, name string) (int64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, errors.Errorf("%s is required", name)
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, errors.Errorf("invalid %s %q", name, v)
	}
	return id, nil
}

func encodeDecimal(e *jx.Encoder, v decimal.Decimal) {
	e.Num(jx.Num(v.String()))
}

func encodeNullDecimal(e *jx.Encoder, v decimal.NullDecimal) {
	if !v.Valid {
		e.Null()
		return
	}
	encodeDecimal(e, v.Decimal)
}

func encodeOptString(e *jx.Encoder, s string) {
	if s == "" {
		e.Null()
		return
	}
	e.Str(s)
}

func encodeOrders(e *jx.Encoder, orders []order.EnrichedOrder) {
	e.ArrStart()
	for i := range orders {
		encodeOrder(e, &orders[i])
	}
	e.ArrEnd()
}

// encodeOrder writes the order view. Catalog fields are null when the
// business or commodity no longer resolves.
func encodeOrder(e *jx.Encoder, o *order.EnrichedOrder) {
	e.ObjStart()
	e.FieldStart("orderId")
	e.Int64(o.ID)
	e.FieldStart("businessId")
	e.Int64(o.BusinessID)
	e.FieldStart("isPay")
	e.Bool(o.Paid)
	e.FieldStart("payAmount")
	encodeDecimal(e, o.PayAmount)
	e.FieldStart("businessName")
	encodeOptString(e, o.BusinessName)
	e.FieldStart("businessDeliveryFees")
	encodeNullDecimal(e, o.DeliveryFee)

	e.FieldStart("orderItemDTOs")
	e.ArrStart()
	for _, it := range o.Items {
		e.ObjStart()
		e.FieldStart("id")
		e.Int64(it.ID)
		e.FieldStart("quanity")
		e.Int(it.Quantity)
		e.FieldStart("commodityId")
		e.Int64(it.CommodityID)
		e.FieldStart("productName")
		encodeOptString(e, it.Name)
		e.FieldStart("commodityPrice")
		encodeNullDecimal(e, it.Price)
		e.FieldStart("image")
		encodeOptString(e, it.ImageRef)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
}

// encodeLineItems writes the bare line item array served by /order/items.
func encodeLineItems(e *jx.Encoder, items []order.LineItem) {
	e.ArrStart()
	for _, it := range items {
		e.ObjStart()
		e.FieldStart("id")
		e.Int64(it.ID)
		e.FieldStart("quanity")
		e.Int(it.Quantity)
		e.FieldStart("commodityId")
		e.Int64(it.CommodityID)
		e.ObjEnd()
	}
	e.ArrEnd()
}
