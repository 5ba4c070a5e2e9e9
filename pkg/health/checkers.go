package health

import (
	"context"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/go-faster/errors"
)

// GoroutineCountCheck flags a goroutine leak. The storefront's steady state
// is a few hundred goroutines (server, pool, probe tickers), so the
// threshold can be generous.
func GoroutineCountCheck(limit int) CheckFunc {
	return func(_ context.Context) error {
		if n := runtime.NumGoroutine(); n > limit {
			return errors.Errorf("%d goroutines, limit %d", n, limit)
		}
		return nil
	}
}

// GCPauseCheck flags stop-the-world pauses above limit. Long pauses here
// usually mean the catalog or basket caches grew far beyond expectation.
func GCPauseCheck(limit time.Duration) CheckFunc {
	return func(_ context.Context) error {
		var stats debug.GCStats
		debug.ReadGCStats(&stats)
		// Pause is ordered most recent first.
		if len(stats.Pause) > 0 && stats.Pause[0] > limit {
			return errors.Errorf("GC pause %s, limit %s", stats.Pause[0], limit)
		}
		return nil
	}
}
