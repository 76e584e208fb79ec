package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"crate/internal/logging"
	"crate/internal/prefetch"
)

// collectionWatcher re-reads the collection file on an interval and submits
// its album ids for prefetch. Submitting the whole list every pass is cheap:
// fully cached albums are skipped and the queue deduplicates the rest, and it
// doubles as the retry path for albums whose earlier fetch failed.
type collectionWatcher struct {
	path     string
	interval time.Duration
	worker   *prefetch.Worker
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

func newCollectionWatcher(path string, interval time.Duration, worker *prefetch.Worker, logger *slog.Logger) *collectionWatcher {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &collectionWatcher{
		path:     path,
		interval: interval,
		worker:   worker,
		logger:   logging.NewComponentLogger(logger, "collection-watcher"),
	}
}

func (cw *collectionWatcher) Start(ctx context.Context) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	if cw.running {
		return
	}
	cw.running = true
	cw.stop = make(chan struct{})
	cw.wg.Add(1)
	go cw.run(ctx, cw.stop)
}

func (cw *collectionWatcher) Stop() {
	cw.mu.Lock()
	if !cw.running {
		cw.mu.Unlock()
		return
	}
	cw.running = false
	close(cw.stop)
	cw.mu.Unlock()
	cw.wg.Wait()
}

func (cw *collectionWatcher) run(ctx context.Context, stop <-chan struct{}) {
	defer cw.wg.Done()

	cw.scan(ctx)
	ticker := time.NewTicker(cw.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			cw.scan(ctx)
		}
	}
}

func (cw *collectionWatcher) scan(ctx context.Context) {
	ids, err := readCollection(cw.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cw.logger.Debug("collection file absent", logging.String("path", cw.path))
			return
		}
		logging.WarnWithContext(cw.logger, "failed to read collection file", "collection_read_failed",
			logging.String("path", cw.path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix the file; it is re-read on the next scan"))
		return
	}
	if len(ids) == 0 {
		return
	}
	queued, skipped := cw.worker.PrefetchCollection(ctx, ids)
	if queued > 0 {
		cw.logger.Info("collection scan queued albums",
			logging.Int("queued", queued),
			logging.Int("already_cached", skipped))
	}
}

// readCollection parses the collection file: a JSON array of album id
// strings. Blank entries are dropped and duplicates collapse to one.
func readCollection(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(raw))
	ids := make([]string, 0, len(raw))
	for _, id := range raw {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}
