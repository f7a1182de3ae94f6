// Package app wires the order and account servers.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/food-orders/internal/handler"
	"github.com/xenking/food-orders/pkg/health"
	"github.com/xenking/food-orders/pkg/httpmiddleware"
)

// probeClient is used by the advisory upstream readiness checks.
var probeClient = &http.Client{Timeout: 2 * time.Second}

// newHealth registers the process liveness checks shared by both servers.
func newHealth() *health.Health {
	h := health.New()
	h.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	h.AddLivenessCheck("gc_pause", time.Second, health.GCMaxPauseCheck(time.Second))
	return h
}

// addUpstreamCheck registers an advisory readiness check for an upstream
// service. An unreachable upstream degrades requests but never removes the
// server from rotation.
func addUpstreamCheck(h *health.Health, name, baseURL string) {
	h.AddReadinessCheck(name, 3*time.Second, health.Advisory, health.ReachableCheck(probeClient, baseURL))
}

// newRouter mounts api under the shared middleware stack next to the probe
// endpoints.
func newRouter(ctx context.Context, operation string, m httpmiddleware.Telemetry, h *health.Health, api http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(zctx.From(ctx)),
		httpmiddleware.Instrument(operation, m),
		httpmiddleware.LogRequests(),
		httpmiddleware.Labeler(),
		httpmiddleware.Recovery(handler.InternalError),
	)
	r.Get("/livez", h.LiveEndpoint)
	r.Get("/readyz", h.ReadyEndpoint)
	r.Mount("/", api)
	return r
}

// serve runs the HTTP server until ctx is cancelled, then drains: readiness
// flips to false, the server waits ReadinessDelay for load balancers to
// notice, and in-flight requests get ShutdownTimeout to finish.
func serve(ctx context.Context, lg *zap.Logger, addr string, h http.Handler, healthSvc *health.Health, g GracefulConfig) error {
	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              addr,
		Handler:           h,
	}

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", g.ReadinessDelay))
		time.Sleep(g.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), g.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", g.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
