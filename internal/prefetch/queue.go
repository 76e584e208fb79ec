package prefetch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"crate/internal/logging"
)

// Priority selects which FIFO an id is appended to.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityHigh
)

// QueueStats is a read-only snapshot of queue state.
type QueueStats struct {
	QueuedHigh int
	QueuedLow  int
	Processing int
	Completed  int
	CurrentID  string
}

// Queue is a two-priority work queue with global deduplication: an id lives
// in at most one of {queued-high, queued-low, processing, completed} at any
// time. A single cooperative consumer drains it.
type Queue struct {
	logger       *slog.Logger
	pollInterval time.Duration

	mu         sync.Mutex
	high       []string
	low        []string
	queued     map[string]struct{}
	processing map[string]struct{}
	completed  map[string]struct{}
	current    string
	running    bool
	stop       chan struct{}

	// wake lets Add nudge an idle consumer without waiting out the poll
	// interval. Buffered so a signal is never lost and never blocks.
	wake chan struct{}

	wg sync.WaitGroup
}

// NewQueue creates an idle queue. pollInterval bounds how long the consumer
// sleeps when the wake signal is missed (e.g. sent while it was processing).
func NewQueue(pollInterval time.Duration, logger *slog.Logger) *Queue {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &Queue{
		logger:       logging.NewComponentLogger(logger, "prefetch-queue"),
		pollInterval: pollInterval,
		queued:       make(map[string]struct{}),
		processing:   make(map[string]struct{}),
		completed:    make(map[string]struct{}),
		wake:         make(chan struct{}, 1),
	}
}

// Add enqueues id at the given priority. It returns false without modifying
// anything if the id is already queued, processing, or completed.
func (q *Queue) Add(id string, priority Priority) bool {
	if id == "" {
		return false
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, dup := q.queued[id]; dup {
		return false
	}
	if _, dup := q.processing[id]; dup {
		return false
	}
	if _, dup := q.completed[id]; dup {
		return false
	}

	q.queued[id] = struct{}{}
	if priority == PriorityHigh {
		q.high = append(q.high, id)
	} else {
		q.low = append(q.low, id)
	}

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

// Next pops the oldest high-priority id, falling back to low priority, and
// moves it into the processing set. The second return is false when both
// FIFOs are empty.
func (q *Queue) Next() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var id string
	switch {
	case len(q.high) > 0:
		id, q.high = q.high[0], q.high[1:]
	case len(q.low) > 0:
		id, q.low = q.low[0], q.low[1:]
	default:
		return "", false
	}
	delete(q.queued, id)
	q.processing[id] = struct{}{}
	q.current = id
	return id, true
}

// Start launches the consumer loop bound to work. Calling Start while the
// loop is already running is a no-op. The loop survives individual item
// failures; it exits only on Stop or context cancellation.
func (q *Queue) Start(ctx context.Context, work func(context.Context, string) error) {
	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		q.logger.Debug("consumer already running")
		return
	}
	q.running = true
	q.stop = make(chan struct{})
	stop := q.stop
	q.mu.Unlock()

	q.wg.Add(1)
	go q.consume(ctx, stop, work)
}

// Stop clears the running flag and waits for the loop to observe it. An
// in-flight work call is not interrupted; Stop returns after it finishes.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	close(q.stop)
	q.stop = nil
	q.mu.Unlock()

	q.wg.Wait()
}

// Stats returns a snapshot of the four sets and the id being processed.
func (q *Queue) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueueStats{
		QueuedHigh: len(q.high),
		QueuedLow:  len(q.low),
		Processing: len(q.processing),
		Completed:  len(q.completed),
		CurrentID:  q.current,
	}
}

// Clear empties both FIFOs. The completed set and the processing set are
// untouched; processing is owned by the consumer loop.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, id := range q.high {
		delete(q.queued, id)
	}
	for _, id := range q.low {
		delete(q.queued, id)
	}
	q.high = nil
	q.low = nil
}

// Idle reports whether nothing is queued or in flight.
func (q *Queue) Idle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.high) == 0 && len(q.low) == 0 && len(q.processing) == 0
}

func (q *Queue) consume(ctx context.Context, stop <-chan struct{}, work func(context.Context, string) error) {
	defer q.wg.Done()
	ticker := time.NewTicker(q.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		id, ok := q.Next()
		if !ok {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-q.wake:
			case <-ticker.C:
			}
			continue
		}

		if err := work(ctx, id); err != nil {
			logging.WarnWithContext(q.logger, "prefetch item failed", "prefetch_item_failed",
				logging.String(logging.FieldAlbumID, id),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "item is eligible for re-enqueue"),
				logging.String(logging.FieldImpact, "album stays partially cached"))
			q.release(id)
			continue
		}
		q.complete(id)
	}
}

// complete moves id from processing to completed.
func (q *Queue) complete(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.processing, id)
	q.completed[id] = struct{}{}
	if q.current == id {
		q.current = ""
	}
}

// release drops id from processing without marking it done, so a later Add
// can retry it.
func (q *Queue) release(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.processing, id)
	if q.current == id {
		q.current = ""
	}
}
