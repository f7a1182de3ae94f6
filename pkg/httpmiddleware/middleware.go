// Package httpmiddleware contains the net/http middleware shared by the
// order and account servers.
package httpmiddleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Middleware decorates an http.Handler.
type Middleware func(http.Handler) http.Handler

// Wrap applies middlewares to h so that the first one is the outermost.
func Wrap(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// unmatchedRoute labels requests no route pattern matched.
const unmatchedRoute = "unmatched"

// RoutePattern returns the chi route pattern that served r, such as
// "/order/items". It is only complete once the router has dispatched r, so
// middleware must call it after next.ServeHTTP returns.
func RoutePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedRoute
	}
	if p := rctx.RoutePattern(); p != "" {
		return p
	}
	return unmatchedRoute
}

// statusWriter records the status code and body size written by a handler.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *statusWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}
