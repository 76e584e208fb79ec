package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"crate/internal/catalog"
	"crate/internal/config"
	"crate/internal/logging"
	"crate/internal/musicbrainz"
	"crate/internal/prefetch"
	"crate/internal/ratelimit"
)

// Daemon owns the long-running cache service and enforces single-instance
// execution via a lock file in the cache directory.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger

	coordinator *catalog.Coordinator
	queue       *prefetch.Queue
	worker      *prefetch.Worker
	watcher     *collectionWatcher

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status reports daemon runtime information.
type Status struct {
	Running      bool
	LockFilePath string
	Queue        prefetch.QueueStats
	Caches       catalog.AggregateStats
}

// Option overrides a collaborator, mainly for tests.
type Option func(*options)

type options struct {
	upstream musicbrainz.Catalog
}

// WithUpstream substitutes the metadata client.
func WithUpstream(upstream musicbrainz.Catalog) Option {
	return func(o *options) { o.upstream = upstream }
}

// New builds the full service graph from configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || logger == nil {
		return nil, errors.New("daemon requires config and logger")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	releases := catalog.NewReleaseStore(cfg.Paths.CacheDir, cfg.CatalogTTL(), logger)
	albums := catalog.NewAlbumCache(cfg.Paths.CacheDir, cfg.CatalogTTL(), releases, logger)
	links := catalog.NewLinkCache(cfg.Paths.CacheDir, cfg.LinkTTL(), logger)
	coordinator := catalog.NewCoordinator(cfg.Paths.CacheDir, cfg.PersistInterval(), releases, albums, links, logger)

	upstream := o.upstream
	if upstream == nil {
		client, err := musicbrainz.New(cfg.Metadata.BaseURL, cfg.Metadata.LinkResolverURL, cfg.Metadata.UserAgent,
			musicbrainz.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout()}))
		if err != nil {
			return nil, fmt.Errorf("build metadata client: %w", err)
		}
		upstream = client
	}

	limiter := ratelimit.New("metadata", cfg.RateLimit(), logger)
	queue := prefetch.NewQueue(cfg.PollInterval(), logger)
	worker := prefetch.NewWorker(upstream, limiter, releases, albums, links, queue, prefetch.WorkerConfig{
		BrowseLimit:      cfg.Metadata.BrowseLimit,
		RetryAttempts:    cfg.Prefetch.RetryAttempts,
		RetryBaseDelay:   cfg.RetryBaseDelay(),
		RetryMaxDelay:    cfg.RetryMaxDelay(),
		ProgressInterval: cfg.ProgressInterval(),
	}, logger)

	lockPath := filepath.Join(cfg.Paths.CacheDir, "crated.lock")
	d := &Daemon{
		cfg:         cfg,
		logger:      logging.NewComponentLogger(logger, "daemon"),
		coordinator: coordinator,
		queue:       queue,
		worker:      worker,
		lockPath:    lockPath,
		lock:        flock.New(lockPath),
	}
	if cfg.Paths.CollectionFile != "" {
		d.watcher = newCollectionWatcher(cfg.Paths.CollectionFile, cfg.CollectionScanInterval(), worker, logger)
	}
	return d, nil
}

// Start acquires the instance lock, restores the caches, and launches the
// prefetch consumer and the collection watcher.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another crated instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.coordinator.Initialize(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("initialize caches: %w", err)
	}
	d.cancel = cancel

	d.worker.Start(runCtx)
	if d.watcher != nil {
		d.watcher.Start(runCtx)
	}

	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.String("lock", d.lockPath),
		logging.String("cache_dir", d.cfg.Paths.CacheDir))
	return nil
}

// Stop shuts the service down in dependency order: watcher first so no new
// work arrives, then the queue, then a final cache persist.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.watcher != nil {
		d.watcher.Stop()
	}
	d.queue.Stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.coordinator.Close(); err != nil {
		logging.WarnWithContext(d.logger, "final cache persist incomplete", "persist_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "some entries may be re-fetched on next start"))
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Run starts the daemon and blocks until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	d.Stop()
	return nil
}

// Prefetch submits album ids directly, bypassing the collection file.
func (d *Daemon) Prefetch(ctx context.Context, ids []string) (int, int) {
	return d.worker.PrefetchCollection(ctx, ids)
}

// Status returns a snapshot of daemon state.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		LockFilePath: d.lockPath,
		Queue:        d.queue.Stats(),
		Caches:       d.coordinator.AggregateStats(),
	}
}
