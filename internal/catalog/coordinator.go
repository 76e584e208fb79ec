package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"crate/internal/logging"
	"crate/internal/ttlstore"
)

type coordinatorState int

const (
	stateUninitialized coordinatorState = iota
	stateInitializing
	stateReady
)

// snapshotter is the slice of store behavior the coordinator drives.
type snapshotter interface {
	Persist() error
	Restore() error
	Stats() ttlstore.Stats
}

// AggregateStats sums counters across every owned store.
type AggregateStats struct {
	Stores      []ttlstore.Stats
	Entries     int
	Hits        uint64
	Misses      uint64
	HitRate     float64
	ApproxBytes int64
}

// Coordinator owns all cache stores. It restores them at startup, snapshots
// them on a fixed cadence, and flushes once more on shutdown.
type Coordinator struct {
	cacheDir        string
	persistInterval time.Duration
	logger          *slog.Logger

	releases *ReleaseStore
	albums   *AlbumCache
	links    *LinkCache

	mu     sync.Mutex
	state  coordinatorState
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCoordinator wires the three stores under one lifecycle. The stores are
// constructed by the caller so tests and commands can reach them directly.
func NewCoordinator(cacheDir string, persistInterval time.Duration, releases *ReleaseStore, albums *AlbumCache, links *LinkCache, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		cacheDir:        cacheDir,
		persistInterval: persistInterval,
		logger:          logging.NewComponentLogger(logger, "coordinator"),
		releases:        releases,
		albums:          albums,
		links:           links,
	}
}

// Releases returns the shared release store.
func (c *Coordinator) Releases() *ReleaseStore { return c.releases }

// Albums returns the album cache.
func (c *Coordinator) Albums() *AlbumCache { return c.albums }

// Links returns the link cache.
func (c *Coordinator) Links() *LinkCache { return c.links }

// Ready reports whether Initialize has completed.
func (c *Coordinator) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == stateReady
}

// Initialize ensures the snapshot directory exists, restores every store in
// parallel, and starts the periodic snapshot loop. Calling it again once
// ready is a warned no-op.
func (c *Coordinator) Initialize(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case stateReady:
		c.mu.Unlock()
		c.logger.Warn("coordinator already initialized",
			logging.String(logging.FieldEventType, "coordinator_reinitialize"))
		return nil
	case stateInitializing:
		c.mu.Unlock()
		return errors.New("coordinator initialization already in progress")
	}
	c.state = stateInitializing
	c.mu.Unlock()

	if err := os.MkdirAll(c.cacheDir, 0o755); err != nil {
		c.setState(stateUninitialized)
		return fmt.Errorf("create cache directory: %w", err)
	}

	var wg sync.WaitGroup
	for name, store := range c.stores() {
		wg.Add(1)
		go func(name string, store snapshotter) {
			defer wg.Done()
			if err := store.Restore(); err != nil {
				logging.WarnWithContext(c.logger, "failed to restore snapshot", "snapshot_restore_failed",
					logging.String(logging.FieldStore, name),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "store starts empty"),
					logging.String(logging.FieldImpact, "previously cached metadata will be re-fetched"))
			}
		}(name, store)
	}
	wg.Wait()

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.mu.Lock()
	c.state = stateReady
	c.cancel = cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go c.persistLoop(loopCtx)

	stats := c.AggregateStats()
	c.logger.Info("cache restored",
		logging.Int("entries", stats.Entries),
		logging.Int64("approx_bytes", stats.ApproxBytes),
		logging.String("cache_dir", c.cacheDir))
	return nil
}

// PersistAll snapshots every store in parallel. A failure in one store never
// prevents the others from completing; the combined error is returned for
// callers that want to log it.
func (c *Coordinator) PersistAll() error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for name, store := range c.stores() {
		wg.Add(1)
		go func(name string, store snapshotter) {
			defer wg.Done()
			if err := store.Persist(); err != nil {
				c.logger.Error("snapshot write failed",
					logging.String(logging.FieldEventType, "snapshot_persist_failed"),
					logging.String(logging.FieldStore, name),
					logging.Error(err))
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				mu.Unlock()
			}
		}(name, store)
	}
	wg.Wait()
	return errors.Join(errs...)
}

// Close stops the periodic snapshot loop and performs one final flush.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	ready := c.state == stateReady
	c.state = stateUninitialized
	c.mu.Unlock()

	if !ready {
		return nil
	}
	if cancel != nil {
		cancel()
	}
	c.wg.Wait()

	err := c.PersistAll()
	c.logger.Info("cache flushed on shutdown")
	return err
}

// AggregateStats sums entry counts, hit/miss counts, and memory across all
// owned stores and computes a combined hit rate.
func (c *Coordinator) AggregateStats() AggregateStats {
	agg := AggregateStats{}
	for _, store := range []snapshotter{c.releases, c.albums, c.links} {
		stats := store.Stats()
		agg.Stores = append(agg.Stores, stats)
		agg.Entries += stats.Entries
		agg.Hits += stats.Hits
		agg.Misses += stats.Misses
		agg.ApproxBytes += stats.ApproxBytes
	}
	if total := agg.Hits + agg.Misses; total > 0 {
		agg.HitRate = float64(agg.Hits) / float64(total)
	}
	return agg
}

func (c *Coordinator) persistLoop(ctx context.Context) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.persistInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.PersistAll(); err != nil {
				// Already logged per store; nothing further to do.
				continue
			}
			c.logger.Debug("periodic snapshot complete")
		}
	}
}

func (c *Coordinator) stores() map[string]snapshotter {
	return map[string]snapshotter{
		"releases": c.releases,
		"albums":   c.albums,
		"links":    c.links,
	}
}

func (c *Coordinator) setState(state coordinatorState) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}
