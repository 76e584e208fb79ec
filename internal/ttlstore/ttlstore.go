// Package ttlstore provides a generic in-memory key/value store with
// time-based expiry, hit/miss accounting, and JSON snapshot persistence.
//
// Values carry their own cache and expiry timestamps so a snapshot restored
// after a restart keeps the original horizons. Expiry is lazy: entries are
// evicted when a read observes them stale, never by a background sweeper.
package ttlstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"crate/internal/fileutil"
	"crate/internal/logging"
)

// Value is the contract stored types satisfy: each entry embeds its own
// cache timestamp and expiry horizon.
type Value interface {
	CacheTime() time.Time
	ExpiryTime() time.Time
}

// Stats is a read-only snapshot of store counters.
type Stats struct {
	Name        string
	Entries     int
	Hits        uint64
	Misses      uint64
	HitRate     float64
	ApproxBytes int64
	OldestEntry time.Time
}

// Store is a TTL-expiring map of string keys to values of type T, persisted
// as one flat JSON document at <dir>/<name>.json.
type Store[T Value] struct {
	name   string
	path   string
	ttl    time.Duration
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]T
	hits    uint64
	misses  uint64

	now func() time.Time
}

// New creates a store named name with snapshots under dir.
func New[T Value](name, dir string, ttl time.Duration, logger *slog.Logger) *Store[T] {
	return &Store[T]{
		name:    name,
		path:    filepath.Join(dir, name+".json"),
		ttl:     ttl,
		logger:  logging.NewComponentLogger(logger, "ttlstore").With(logging.String(logging.FieldStore, name)),
		entries: make(map[string]T),
		now:     time.Now,
	}
}

// Name returns the store name used for snapshots and stats.
func (s *Store[T]) Name() string { return s.name }

// Path returns the snapshot file location.
func (s *Store[T]) Path() string { return s.path }

// TTL returns the expiry horizon applied to new entries by callers.
func (s *Store[T]) TTL() time.Duration { return s.ttl }

// Get returns the live entry for key. A stale entry is evicted and counted
// as a miss.
func (s *Store[T]) Get(key string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	entry, found := s.entries[key]
	if !found {
		s.misses++
		return zero, false
	}
	if s.expired(entry) {
		delete(s.entries, key)
		s.misses++
		return zero, false
	}
	s.hits++
	return entry, true
}

// Set stores or overwrites the entry for key.
func (s *Store[T]) Set(key string, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
}

// Peek returns the live entry for key without touching the hit/miss
// counters or evicting. Intended for internal bookkeeping, not read paths.
func (s *Store[T]) Peek(key string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var zero T
	entry, found := s.entries[key]
	if !found || s.expired(entry) {
		return zero, false
	}
	return entry, true
}

// Has reports whether a live entry exists for key without touching the
// hit/miss counters.
func (s *Store[T]) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, found := s.entries[key]
	return found && !s.expired(entry)
}

// Delete removes the entry for key if present.
func (s *Store[T]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Keys returns all keys, including ones whose entries are stale but not yet
// evicted, in sorted order.
func (s *Store[T]) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of entries currently held.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear removes every entry. Counters are preserved.
func (s *Store[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]T)
}

// Entries returns a shallow copy of the live map. Used by wrappers that
// maintain derived indexes.
func (s *Store[T]) Entries() map[string]T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make(map[string]T, len(s.entries))
	for key, value := range s.entries {
		cp[key] = value
	}
	return cp
}

// Stats computes a point-in-time snapshot of the store counters. The memory
// figure is an approximation: the serialized size of all values.
func (s *Store[T]) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		Name:    s.name,
		Entries: len(s.entries),
		Hits:    s.hits,
		Misses:  s.misses,
	}
	if total := s.hits + s.misses; total > 0 {
		stats.HitRate = float64(s.hits) / float64(total)
	}
	if data, err := json.Marshal(s.entries); err == nil {
		stats.ApproxBytes = int64(len(data))
	}
	for _, entry := range s.entries {
		ts := entry.CacheTime()
		if ts.IsZero() {
			continue
		}
		if stats.OldestEntry.IsZero() || ts.Before(stats.OldestEntry) {
			stats.OldestEntry = ts
		}
	}
	return stats
}

// Persist writes the entire live map to the snapshot path atomically.
func (s *Store[T]) Persist() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.entries, "", "  ")
	count := len(s.entries)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal %s snapshot: %w", s.name, err)
	}

	if err := fileutil.WriteAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s snapshot: %w", s.name, err)
	}

	s.logger.Debug("persisted snapshot",
		logging.Int("entry_count", count),
		logging.String("path", s.path))
	return nil
}

// Restore loads the snapshot file if present. A missing file is a clean
// empty start. A corrupt file leaves the store empty and returns an error
// for the caller to log; it never panics. Stale entries load as-is and are
// evicted lazily on read.
func (s *Store[T]) Restore() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read snapshot: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	entries := make(map[string]T)
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse snapshot: %w", err)
	}

	s.mu.Lock()
	s.entries = entries
	count := len(entries)
	s.mu.Unlock()

	s.logger.Debug("restored snapshot",
		logging.Int("entry_count", count),
		logging.String("path", s.path))
	return nil
}

func (s *Store[T]) expired(entry T) bool {
	expiry := entry.ExpiryTime()
	return !expiry.IsZero() && !s.now().Before(expiry)
}
