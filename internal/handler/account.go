package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/food-orders/internal/domain/account"
	"github.com/xenking/food-orders/internal/domain/order"
)

// AccountService lists the orders of an authenticated user.
type AccountService interface {
	ListOrders(ctx context.Context, subject string, paid bool) ([]order.EnrichedOrder, error)
}

var _ AccountService = (*account.Service)(nil)

// NewAccountRouter returns the account service routes:
//
//	GET /user/payedorder   subject required
//	GET /user/unpayorder   subject required
func NewAccountRouter(svc AccountService, cfg Config) chi.Router {
	r := chi.NewRouter()
	r.Route("/user", func(r chi.Router) {
		r.Use(requireSubject(cfg.subjectHeader()))
		r.Get("/payedorder", listAccountOrders(svc, true))
		r.Get("/unpayorder", listAccountOrders(svc, false))
	})
	return r
}

func listAccountOrders(svc AccountService, paid bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orders, err := svc.ListOrders(r.Context(), subjectFrom(r.Context()), paid)
		switch {
		case errors.Is(err, account.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "user not found")
			return
		case errors.Is(err, account.ErrOrdersUnavailable), order.IsTransient(err):
			writeFailure(r.Context(), w, http.StatusServiceUnavailable, "upstream service unavailable, retry later", err)
			return
		case err != nil:
			writeFailure(r.Context(), w, http.StatusInternalServerError, "internal error", err)
			return
		}
		writeData(w, func(e *jx.Encoder) {
			encodeOrders(e, orders)
		})
	}
}
