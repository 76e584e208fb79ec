// Package ratelimit enforces a minimum spacing between calls to a named
// upstream service.
package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"crate/internal/logging"
)

// Limiter serializes callers and guarantees at least one interval between
// consecutive grants. Unlike a token bucket it never allows bursts: the
// upstream contract is a hard minimum gap, not an average rate.
type Limiter struct {
	name     string
	interval time.Duration
	logger   *slog.Logger

	mu        sync.Mutex
	lastGrant time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New constructs a limiter for the named upstream.
func New(name string, interval time.Duration, logger *slog.Logger) *Limiter {
	return &Limiter{
		name:     name,
		interval: interval,
		logger:   logging.NewComponentLogger(logger, "ratelimit"),
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Wait blocks until at least the configured interval has elapsed since the
// previous grant, then records the new grant time. Callers are serialized:
// the grant timestamp only advances while the lock is held, so two waiters
// can never be released inside the same window. Cancellation of ctx aborts
// the wait without consuming a grant.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if !l.lastGrant.IsZero() {
		if remaining := l.interval - now.Sub(l.lastGrant); remaining > 0 {
			l.logger.Debug("throttling upstream call",
				logging.String("upstream", l.name),
				logging.Duration("wait", remaining))
			if err := l.sleep(ctx, remaining); err != nil {
				return err
			}
		}
	}
	l.lastGrant = l.now()
	return nil
}

// Interval returns the configured minimum spacing.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
