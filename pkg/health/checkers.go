package health

import (
	"context"
	"io"
	"net/http"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/go-faster/errors"
)

// GoroutineCountCheck fails when the number of goroutines exceeds threshold.
// Used as a liveness check against goroutine leaks, e.g. enrichment lookups
// that never return.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(_ context.Context) error {
		if n := runtime.NumGoroutine(); n > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", n, threshold)
		}
		return nil
	}
}

// GCMaxPauseCheck fails when any recent stop-the-world GC pause exceeds
// threshold.
func GCMaxPauseCheck(threshold time.Duration) CheckFunc {
	return func(_ context.Context) error {
		var stats debug.GCStats
		debug.ReadGCStats(&stats)

		for _, pause := range stats.Pause {
			if pause > threshold {
				return errors.Errorf("GC pause %s exceeds threshold %s", pause, threshold)
			}
		}
		return nil
	}
}

// ReachableCheck fails when a GET of url cannot complete or is answered with
// a 5xx status. Any other status, including 404, proves the upstream is up.
func ReachableCheck(client *http.Client, url string) CheckFunc {
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if err != nil {
			return errors.Wrap(err, "build request")
		}
		resp, err := client.Do(req)
		if err != nil {
			return errors.Wrap(err, "get")
		}
		defer func() { _ = resp.Body.Close() }()
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

		if resp.StatusCode >= http.StatusInternalServerError {
			return errors.Errorf("status %d", resp.StatusCode)
		}
		return nil
	}
}
