// Package health provides Kubernetes-style liveness and readiness probe support.
//
// Each registered check runs in its own background goroutine at a configurable
// interval. A check must fail failureThreshold times in a row before it is
// marked unhealthy, and succeed successThreshold times before it is healthy
// again.
//
// Readiness checks are either critical or advisory. A failing critical check
// takes the service out of rotation; a failing advisory check is only reported
// and the service keeps serving.
package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// CheckFunc is a health check function. It should return nil if the checked
// component is healthy, or an error describing the problem.
type CheckFunc func(ctx context.Context) error

// Severity tells whether a failing readiness check blocks traffic.
type Severity int

const (
	// Critical checks flip readiness when unhealthy.
	Critical Severity = iota
	// Advisory checks are reported under "degraded" but never flip readiness.
	Advisory
)

// checkConfig holds the configuration and runtime state for a single check.
//
// run() is called from exactly one goroutine, so the counters need no
// synchronization. healthy and lastErr are read by HTTP handlers.
type checkConfig struct {
	name             string
	timeout          time.Duration
	check            CheckFunc
	severity         Severity
	failureThreshold int
	successThreshold int

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	consecutiveFails int
	consecutiveOK    int
}

func newCheck(name string, timeout time.Duration, check CheckFunc, severity Severity) *checkConfig {
	c := &checkConfig{
		name:             name,
		timeout:          timeout,
		check:            check,
		severity:         severity,
		failureThreshold: 3,
		successThreshold: 1,
	}
	c.healthy.Store(true) // assume healthy until proven otherwise
	return c
}

func (c *checkConfig) isHealthy() bool {
	return c.healthy.Load()
}

func (c *checkConfig) getLastError() error {
	if p := c.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}

// run executes the check once, applies the thresholds and logs transitions.
func (c *checkConfig) run(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.check(checkCtx)
	c.lastErr.Store(&err)

	was := c.isHealthy()
	if err != nil {
		c.consecutiveOK = 0
		c.consecutiveFails++
		if c.consecutiveFails >= c.failureThreshold {
			c.healthy.Store(false)
		}
	} else {
		c.consecutiveFails = 0
		c.consecutiveOK++
		if c.consecutiveOK >= c.successThreshold {
			c.healthy.Store(true)
		}
	}

	switch now := c.isHealthy(); {
	case was && !now:
		zctx.From(ctx).Warn("Health check failing",
			zap.String("check", c.name),
			zap.Bool("advisory", c.severity == Advisory),
			zap.Error(err),
		)
	case !was && now:
		zctx.From(ctx).Info("Health check recovered", zap.String("check", c.name))
	}
}

// Health manages liveness and readiness checks for a service.
type Health struct {
	ready atomic.Bool

	// mu protects the check slices and cancel.
	mu              sync.RWMutex
	livenessChecks  []*checkConfig
	readinessChecks []*checkConfig
	cancel          context.CancelFunc
}

// New creates a new Health instance. The service starts in a not-ready state;
// call SetReady(true) once the service has finished initialization.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a liveness check: whether the process itself is
// functioning (goroutine count, GC pauses).
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.livenessChecks = append(h.livenessChecks, newCheck(name, timeout, check, Critical))
}

// AddReadinessCheck registers a readiness check: whether a dependency needed
// to serve traffic is reachable.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, severity Severity, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readinessChecks = append(h.readinessChecks, newCheck(name, timeout, check, severity))
}

// Start begins running all registered checks in background goroutines at the
// given interval. Start should be called once after all checks are registered.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	checks := make([]*checkConfig, 0, len(h.livenessChecks)+len(h.readinessChecks))
	checks = append(checks, h.livenessChecks...)
	checks = append(checks, h.readinessChecks...)
	h.mu.Unlock()

	for _, c := range checks {
		go runCheck(ctx, c, interval)
	}
}

func runCheck(ctx context.Context, c *checkConfig, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.run(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.run(ctx)
		}
	}
}

// SetReady manually sets the readiness state: true after initialization,
// false during graceful shutdown.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the service has been marked ready and every
// critical readiness check is passing.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}
	for _, c := range h.snapshot(&h.readinessChecks) {
		if c.severity == Critical && !c.isHealthy() {
			return false
		}
	}
	return true
}

// Stop cancels all background check goroutines. It is safe to call Stop
// multiple times.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

func (h *Health) snapshot(src *[]*checkConfig) []*checkConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*checkConfig, len(*src))
	copy(out, *src)
	return out
}

// LiveEndpoint is an http.HandlerFunc for the /livez endpoint.
// It returns 200 with {"status":"ok"} if all liveness checks are passing,
// or 503 with {"status":"unhealthy","checks":{...}} listing failures.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	failures, _ := collectFailures(h.snapshot(&h.livenessChecks))
	writeResponse(w, failures, nil)
}

// ReadyEndpoint is an http.HandlerFunc for the /readyz endpoint.
// It returns 503 when the service is not marked ready or a critical check is
// failing. Failing advisory checks are listed under "degraded" with 200.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	failures, degraded := collectFailures(h.snapshot(&h.readinessChecks))
	if !h.ready.Load() {
		failures["_readiness"] = "service is not ready"
	}
	writeResponse(w, failures, degraded)
}

// collectFailures splits unhealthy checks by severity, keyed by check name.
func collectFailures(checks []*checkConfig) (failures, degraded map[string]string) {
	failures = make(map[string]string)
	degraded = make(map[string]string)
	for _, c := range checks {
		if c.isHealthy() {
			continue
		}
		msg := "check is unhealthy"
		if err := c.getLastError(); err != nil {
			msg = err.Error()
		}
		if c.severity == Advisory {
			degraded[c.name] = msg
		} else {
			failures[c.name] = msg
		}
	}
	return failures, degraded
}

func writeResponse(w http.ResponseWriter, failures, degraded map[string]string) {
	status, code := "ok", http.StatusOK
	switch {
	case len(failures) > 0:
		status, code = "unhealthy", http.StatusServiceUnavailable
	case len(degraded) > 0:
		status = "degraded"
	}

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("status")
	e.Str(status)
	writeChecks(&e, "checks", failures)
	writeChecks(&e, "degraded", degraded)
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	// Best effort: the status code is already written.
	_, _ = w.Write(e.Bytes())
}

func writeChecks(e *jx.Encoder, field string, checks map[string]string) {
	if len(checks) == 0 {
		return
	}
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	e.FieldStart(field)
	e.ObjStart()
	for _, name := range names {
		e.FieldStart(name)
		e.Str(checks[name])
	}
	e.ObjEnd()
}
