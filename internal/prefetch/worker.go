package prefetch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"crate/internal/catalog"
	"crate/internal/logging"
	"crate/internal/musicbrainz"
	"crate/internal/ratelimit"
)

// WorkerConfig tunes the fetch pipeline.
type WorkerConfig struct {
	BrowseLimit      int
	RetryAttempts    int
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration
	ProgressInterval time.Duration
}

func (cfg WorkerConfig) withDefaults() WorkerConfig {
	if cfg.BrowseLimit <= 0 {
		cfg.BrowseLimit = 100
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = time.Second
	}
	if cfg.RetryMaxDelay < cfg.RetryBaseDelay {
		cfg.RetryMaxDelay = 4 * time.Second
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = time.Minute
	}
	return cfg
}

// Worker runs the fetch-parse-store pipeline for album ids pulled off the
// queue. All upstream traffic funnels through one rate limiter.
type Worker struct {
	upstream musicbrainz.Catalog
	limiter  *ratelimit.Limiter
	releases *catalog.ReleaseStore
	albums   *catalog.AlbumCache
	links    *catalog.LinkCache
	queue    *Queue
	cfg      WorkerConfig
	logger   *slog.Logger

	sleep    func(ctx context.Context, d time.Duration) error
	progress *logging.ProgressThrottle

	mu        sync.Mutex
	submitted int
	done      int
}

// NewWorker wires the pipeline to its collaborators.
func NewWorker(upstream musicbrainz.Catalog, limiter *ratelimit.Limiter, releases *catalog.ReleaseStore, albums *catalog.AlbumCache, links *catalog.LinkCache, queue *Queue, cfg WorkerConfig, logger *slog.Logger) *Worker {
	cfg = cfg.withDefaults()
	return &Worker{
		upstream: upstream,
		limiter:  limiter,
		releases: releases,
		albums:   albums,
		links:    links,
		queue:    queue,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "prefetch-worker"),
		sleep:    sleepContext,
		progress: logging.NewProgressThrottle(cfg.ProgressInterval),
	}
}

// Start binds the queue consumer loop to the fetch pipeline. Calling it
// again while the loop runs is a no-op.
func (w *Worker) Start(ctx context.Context) {
	w.queue.Start(ctx, w.work)
}

// FetchAndStore populates the caches for one album: summary, releases,
// preferred-release detail, then a single consistent write-back.
func (w *Worker) FetchAndStore(ctx context.Context, albumID string) error {
	if err := w.limiter.Wait(ctx); err != nil {
		return err
	}
	album, err := w.upstream.ReleaseGroup(ctx, albumID)
	if err != nil {
		return fmt.Errorf("fetch album %s: %w", albumID, err)
	}

	if err := w.limiter.Wait(ctx); err != nil {
		return err
	}
	releases, err := w.upstream.BrowseReleases(ctx, albumID, w.cfg.BrowseLimit)
	if err != nil {
		return fmt.Errorf("browse releases for %s: %w", albumID, err)
	}

	preferred, ok := SelectPreferredRelease(releases)
	if !ok {
		// Nothing to hydrate; remember the summary so the album is not
		// re-fetched on every pass.
		album.ReleaseIDs = []string{}
		w.albums.Set(album)
		w.logger.Debug("album has no releases", logging.String(logging.FieldAlbumID, albumID))
		return nil
	}

	detailed, err := w.fetchReleaseDetail(ctx, preferred.ID)
	if err != nil {
		return fmt.Errorf("fetch preferred release %s: %w", preferred.ID, err)
	}

	ids := make([]string, 0, len(releases))
	for _, release := range releases {
		release.AlbumID = albumID
		w.releases.Set(release)
		ids = append(ids, release.ID)
	}
	detailed.AlbumID = albumID
	w.releases.Set(detailed)

	album.ReleaseIDs = ids
	album.PreferredReleaseID = preferred.ID
	w.albums.Set(album)

	w.logger.Debug("album cached",
		logging.String(logging.FieldAlbumID, albumID),
		logging.Int("release_count", len(ids)),
		logging.String(logging.FieldReleaseID, preferred.ID))
	return nil
}

// fetchReleaseDetail retries transient failures with exponential backoff:
// base delay doubling per attempt, capped. Terminal errors propagate
// immediately.
func (w *Worker) fetchReleaseDetail(ctx context.Context, releaseID string) (catalog.Release, error) {
	var lastErr error
	delay := w.cfg.RetryBaseDelay
	for attempt := 1; attempt <= w.cfg.RetryAttempts; attempt++ {
		if err := w.limiter.Wait(ctx); err != nil {
			return catalog.Release{}, err
		}
		release, err := w.upstream.Release(ctx, releaseID)
		if err == nil {
			return release, nil
		}
		if !musicbrainz.IsTransient(err) {
			return catalog.Release{}, err
		}
		lastErr = err
		if attempt == w.cfg.RetryAttempts {
			break
		}
		w.logger.Debug("transient fetch failure, backing off",
			logging.String(logging.FieldReleaseID, releaseID),
			logging.Int("attempt", attempt),
			logging.Duration("delay", delay),
			logging.Error(err))
		if err := w.sleep(ctx, delay); err != nil {
			return catalog.Release{}, err
		}
		delay *= 2
		if delay > w.cfg.RetryMaxDelay {
			delay = w.cfg.RetryMaxDelay
		}
	}
	return catalog.Release{}, fmt.Errorf("failed after %d attempts: %w", w.cfg.RetryAttempts, lastErr)
}

// PrefetchCollection partitions ids into already-fully-cached and pending,
// enqueues the pending ones at low priority, and ensures the consumer loop
// is running. It returns (queued, skipped).
func (w *Worker) PrefetchCollection(ctx context.Context, ids []string) (int, int) {
	sessionID := uuid.NewString()
	logger := w.logger.With(logging.String(logging.FieldSessionID, sessionID))

	queued, skipped := 0, 0
	for _, id := range ids {
		if w.albums.Status(id).Cached {
			skipped++
			continue
		}
		if w.queue.Add(id, PriorityLow) {
			queued++
		}
	}

	w.mu.Lock()
	w.submitted += queued
	w.mu.Unlock()

	logger.Info("prefetch batch submitted",
		logging.Int("total", len(ids)),
		logging.Int("queued", queued),
		logging.Int("already_cached", skipped))

	if queued > 0 {
		w.Start(ctx)
	}
	return queued, skipped
}

// ResolveLink returns the cached link for (source, region) or asks the
// resolver service and caches the answer.
func (w *Worker) ResolveLink(ctx context.Context, source, region string) (catalog.LinkResult, error) {
	if result, ok := w.links.Lookup(source, region); ok {
		return result, nil
	}
	if err := w.limiter.Wait(ctx); err != nil {
		return catalog.LinkResult{}, err
	}
	result, err := w.upstream.ResolveLink(ctx, source, region)
	if err != nil {
		return catalog.LinkResult{}, fmt.Errorf("resolve link %s/%s: %w", source, region, err)
	}
	w.links.Store(result)
	return result, nil
}

// work adapts FetchAndStore for the queue and reports batch progress.
func (w *Worker) work(ctx context.Context, albumID string) error {
	if err := w.FetchAndStore(ctx, albumID); err != nil {
		return err
	}

	w.mu.Lock()
	w.done++
	done, total := w.done, w.submitted
	w.mu.Unlock()

	if w.progress.ShouldLog(done, total) {
		stats := w.queue.Stats()
		pct := 0
		if total > 0 {
			pct = done * 100 / total
		}
		w.logger.Info("prefetch progress",
			logging.String("progress", fmt.Sprintf("%d/%d (%d%%)", done, total, pct)),
			logging.Int("pending", stats.QueuedHigh+stats.QueuedLow+stats.Processing))
	}
	return nil
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
