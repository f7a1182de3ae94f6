// Package handler exposes the order and account services over HTTP.
//
// Every JSON body except the /order/items listing is wrapped in the Result
// envelope {"success":bool,"message":string,"data":...}.
package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/food-orders/internal/routing"
	"github.com/xenking/food-orders/pkg/httpmiddleware"
)

// DefaultSubjectHeader is the header the gateway fills with the
// authenticated username.
const DefaultSubjectHeader = "X-Auth-Subject"

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Config holds non-dependency configuration shared by both routers.
type Config struct {
	// SubjectHeader names the trusted header carrying the caller's username.
	// Defaults to DefaultSubjectHeader.
	SubjectHeader string
}

func (c Config) subjectHeader() string {
	if c.SubjectHeader == "" {
		return DefaultSubjectHeader
	}
	return c.SubjectHeader
}

type subjectKey struct{}

// requireSubject rejects requests without a subject with 401 and stores the
// subject in the request context otherwise.
func requireSubject(header string) httpmiddleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := r.Header.Get(header)
			if subject == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			ctx := context.WithValue(r.Context(), subjectKey{}, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func subjectFrom(ctx context.Context) string {
	s, _ := ctx.Value(subjectKey{}).(string)
	return s
}

// RouteScope attaches a fresh data source routing scope to every request so
// that concurrent requests never observe each other's route.
func RouteScope() httpmiddleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(routing.Attach(r.Context())))
		})
	}
}

// InternalError writes the envelope for an unexpected failure. It is used
// as the panic recovery response.
func InternalError(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusInternalServerError, "internal error")
}

// writeData writes a successful envelope whose data member is produced by
// data.
func writeData(w http.ResponseWriter, data func(e *jx.Encoder)) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("success")
	e.Bool(true)
	e.FieldStart("message")
	e.Null()
	e.FieldStart("data")
	data(&e)
	e.ObjEnd()
	writeJSON(w, http.StatusOK, e.Bytes())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("success")
	e.Bool(false)
	e.FieldStart("message")
	e.Str(msg)
	e.FieldStart("data")
	e.Null()
	e.ObjEnd()
	writeJSON(w, status, e.Bytes())
}

// writeFailure logs server-side failures and writes the error envelope.
func writeFailure(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
	if status >= http.StatusInternalServerError {
		zctx.From(ctx).Error("Handler error", zap.Int("status", status), zap.Error(err))
	}
	writeError(w, status, msg)
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
