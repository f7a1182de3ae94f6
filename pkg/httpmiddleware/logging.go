package httpmiddleware

import (
	"net/http"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// InjectLogger returns a middleware that stores lg in the request context,
// annotated with the request id when RequestID ran before it.
func InjectLogger(lg *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := zctx.Base(r.Context(), lg)
			if id := RequestIDFromContext(ctx); id != "" {
				ctx = zctx.With(ctx, zap.String("request_id", id))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LogRequests returns a middleware that logs one line per request with its
// route, status and duration. Server errors log at Error level.
func LogRequests() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("route", RoutePattern(r)),
				zap.String("path", r.URL.Path),
				zap.Int("status", sw.Status()),
				zap.Int("bytes", sw.bytes),
				zap.Duration("duration", time.Since(start)),
			}
			lg := zctx.From(r.Context())
			if sw.Status() >= http.StatusInternalServerError {
				lg.Error("Request failed", fields...)
				return
			}
			lg.Info("Request served", fields...)
		})
	}
}
