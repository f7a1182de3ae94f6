package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/food-orders/internal/domain/order"
)

// OrderService is the order core served by the order router.
type OrderService interface {
	CreateOrder(ctx context.Context, subject string, cart order.Cart) (*order.CreateOrderResult, error)
	ListOrders(ctx context.Context, userID int64, paid bool) ([]order.EnrichedOrder, error)
	ListOrdersForSubject(ctx context.Context, subject string) ([]order.EnrichedOrder, error)
	GetLineItems(ctx context.Context, orderID int64) ([]order.LineItem, error)
}

var _ OrderService = (*order.Service)(nil)

type orderHandler struct {
	orders OrderService
}

// NewOrderRouter returns the order service routes:
//
//	POST /order/create           subject required
//	GET  /order/list             subject required
//	GET  /order/payedorder?userId=
//	GET  /order/unpayorder?userId=
//	GET  /order/items?orderId=   bare array, no envelope
func NewOrderRouter(svc OrderService, cfg Config) chi.Router {
	h := &orderHandler{orders: svc}

	r := chi.NewRouter()
	r.Use(RouteScope())
	r.Route("/order", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(requireSubject(cfg.subjectHeader()))
			r.Post("/create", h.createOrder)
			r.Get("/list", h.listForSubject)
		})
		r.Get("/payedorder", h.listByUser(true))
		r.Get("/unpayorder", h.listByUser(false))
		r.Get("/items", h.lineItems)
	})
	return r
}

func (h *orderHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read request body")
		return
	}
	cart, err := decodeCart(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.orders.CreateOrder(r.Context(), subjectFrom(r.Context()), cart)
	if err != nil {
		status, msg := orderFailure(err)
		writeFailure(r.Context(), w, status, msg, err)
		return
	}
	writeData(w, func(e *jx.Encoder) {
		e.Int64(result.OrderID)
	})
}

func (h *orderHandler) listForSubject(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrdersForSubject(r.Context(), subjectFrom(r.Context()))
	if err != nil {
		status, msg := orderFailure(err)
		writeFailure(r.Context(), w, status, msg, err)
		return
	}
	writeData(w, func(e *jx.Encoder) {
		encodeOrders(e, orders)
	})
}

func (h *orderHandler) listByUser(paid bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := queryID(r, "userId")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		orders, err := h.orders.ListOrders(r.Context(), userID, paid)
		if err != nil {
			status, msg := orderFailure(err)
			writeFailure(r.Context(), w, status, msg, err)
			return
		}
		writeData(w, func(e *jx.Encoder) {
			encodeOrders(e, orders)
		})
	}
}

func (h *orderHandler) lineItems(w http.ResponseWriter, r *http.Request) {
	orderID, err := queryID(r, "orderId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := h.orders.GetLineItems(r.Context(), orderID)
	if err != nil {
		status, msg := orderFailure(err)
		writeFailure(r.Context(), w, status, msg, err)
		return
	}
	var e jx.Encoder
	encodeLineItems(&e, items)
	writeJSON(w, http.StatusOK, e.Bytes())
}

// orderFailure maps order domain errors to a status code and message.
func orderFailure(err error) (int, string) {
	var (
		iqErr  *order.InvalidQuantityError
		idErr  *order.IdentityUnresolvedError
		mErr   *order.MerchantNotFoundError
		cErr   *order.CommodityNotFoundError
		stoErr *order.StorageError
	)
	switch {
	case errors.Is(err, order.ErrEmptyCart):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &iqErr):
		return http.StatusBadRequest, iqErr.Error()
	case order.IsTransient(err):
		return http.StatusServiceUnavailable, "upstream service unavailable, retry later"
	case errors.As(err, &idErr):
		return http.StatusUnprocessableEntity, "user not found"
	case errors.As(err, &mErr):
		return http.StatusUnprocessableEntity, fmt.Sprintf("business %d not found", mErr.BusinessID)
	case errors.As(err, &cErr):
		return http.StatusUnprocessableEntity, fmt.Sprintf("commodity %d not found", cErr.CommodityID)
	case errors.As(err, &stoErr):
		return http.StatusInternalServerError, "order storage failure"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
