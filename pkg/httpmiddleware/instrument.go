package httpmiddleware

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry provides the OpenTelemetry providers for instrumentation.
// *app.Telemetry from go-faster/sdk satisfies it.
type Telemetry interface {
	TracerProvider() trace.TracerProvider
	MeterProvider() metric.MeterProvider
}

// Instrument returns a middleware that traces and measures every request
// with otelhttp under the given operation name.
func Instrument(operation string, t Telemetry) Middleware {
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, operation,
			otelhttp.WithTracerProvider(t.TracerProvider()),
			otelhttp.WithMeterProvider(t.MeterProvider()),
		)
	}
}

// Labeler returns a middleware that, once the router has matched a route,
// renames the server span after it and adds the route to the otelhttp
// metric attributes. It must run inside Instrument.
func Labeler() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)

			route := RoutePattern(r)
			if route == unmatchedRoute {
				return
			}
			attr := attribute.String("http.route", route)
			span := trace.SpanFromContext(r.Context())
			span.SetName(r.Method + " " + route)
			span.SetAttributes(attr)
			if l, ok := otelhttp.LabelerFromContext(r.Context()); ok {
				l.Add(attr)
			}
		})
	}
}
