package logging

import "time"

// ProgressThrottle suppresses repetitive progress logs while preserving the
// first and final updates of a run. Prefetch batches can cover thousands of
// albums; one line per minute is plenty.
type ProgressThrottle struct {
	window time.Duration
	now    func() time.Time
	last   time.Time
}

// NewProgressThrottle constructs a throttle that emits at most once per
// window (default one minute).
func NewProgressThrottle(window time.Duration) *ProgressThrottle {
	if window <= 0 {
		window = time.Minute
	}
	return &ProgressThrottle{window: window, now: time.Now}
}

// ShouldLog reports whether a progress event should be logged. Completion
// (done >= total with a positive total) always emits so the final line is
// never dropped.
func (t *ProgressThrottle) ShouldLog(done, total int) bool {
	if t == nil {
		return true
	}
	if total > 0 && done >= total {
		t.last = t.now()
		return true
	}
	if t.last.IsZero() || t.now().Sub(t.last) >= t.window {
		t.last = t.now()
		return true
	}
	return false
}

// Reset clears the throttle state (e.g. when a new batch starts).
func (t *ProgressThrottle) Reset() {
	if t == nil {
		return
	}
	t.last = time.Time{}
}
