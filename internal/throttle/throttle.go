// Package throttle paces how fast the orchestrator drives writes
// against the store and downstream queue during a run. Grounded on
// internal/services/throttle.go's per-environment token-bucket
// limiter, adapted from its multi-environment map (keyed by M3
// environment) to a single run-scoped limiter, since one orchestrator
// run targets one warehouse's store connection pool at a time.
package throttle

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter paces SKU/vendor processing to a configured rate, protecting
// the storage layer's connection pool from a burst of concurrent
// writes when MaxWorkers is raised (spec.md §5 "Shared resources").
type Limiter struct {
	rl *rate.Limiter
}

// New builds a Limiter allowing ratePerSecond operations per second
// with a burst of the same size. A non-positive rate disables
// throttling entirely (Wait becomes a no-op).
func New(ratePerSecond float64) *Limiter {
	if ratePerSecond <= 0 {
		return &Limiter{}
	}
	burst := int(ratePerSecond)
	if burst < 1 {
		burst = 1
	}
	return &Limiter{rl: rate.NewLimiter(rate.Limit(ratePerSecond), burst)}
}

// Wait blocks until the next operation is permitted or ctx is
// cancelled. A disabled Limiter always returns nil immediately.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.rl == nil {
		return nil
	}
	return l.rl.Wait(ctx)
}
