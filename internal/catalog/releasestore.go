package catalog

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"crate/internal/logging"
	"crate/internal/ttlstore"
)

// ReleaseStore owns all cached releases and maintains a reverse index from
// album id to member release ids. It wraps the generic TTL store by
// composition; index maintenance happens under the store's own lock so a
// Set/Delete and its index update are observed together.
type ReleaseStore struct {
	store  *ttlstore.Store[Release]
	logger *slog.Logger

	mu      sync.RWMutex
	byAlbum map[string]map[string]struct{}
}

// NewReleaseStore creates a release store snapshotting under dir.
func NewReleaseStore(dir string, ttl time.Duration, logger *slog.Logger) *ReleaseStore {
	return &ReleaseStore{
		store:   ttlstore.New[Release]("releases", dir, ttl, logger),
		logger:  logging.NewComponentLogger(logger, "releasestore"),
		byAlbum: make(map[string]map[string]struct{}),
	}
}

// Set stamps the release with cache/expiry times and stores it, updating the
// album index in the same call.
func (rs *ReleaseStore) Set(release Release) {
	now := time.Now()
	release.CachedAt = now
	release.ExpiresAt = now.Add(rs.store.TTL())

	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.store.Set(release.ID, release)
	rs.indexLocked(release)
}

// Get returns the live release for id.
func (rs *ReleaseStore) Get(id string) (Release, bool) {
	return rs.store.Get(id)
}

// Has reports whether a live release exists for id.
func (rs *ReleaseStore) Has(id string) bool {
	return rs.store.Has(id)
}

// Delete removes the release and its index entry.
func (rs *ReleaseStore) Delete(id string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if release, ok := rs.store.Peek(id); ok {
		rs.unindexLocked(release)
	}
	rs.store.Delete(id)
}

// ByAlbum returns all live releases indexed under albumID, sorted by id for
// deterministic output.
func (rs *ReleaseStore) ByAlbum(albumID string) []Release {
	rs.mu.RLock()
	ids := make([]string, 0, len(rs.byAlbum[albumID]))
	for id := range rs.byAlbum[albumID] {
		ids = append(ids, id)
	}
	rs.mu.RUnlock()

	sort.Strings(ids)
	return rs.GetBulk(ids)
}

// GetBulk resolves ids into release objects, silently dropping ids that are
// absent or expired.
func (rs *ReleaseStore) GetBulk(ids []string) []Release {
	releases := make([]Release, 0, len(ids))
	for _, id := range ids {
		if release, ok := rs.store.Get(id); ok {
			releases = append(releases, release)
		}
	}
	return releases
}

// HasAll reports whether every id resolves to a live release.
func (rs *ReleaseStore) HasAll(ids []string) bool {
	for _, id := range ids {
		if !rs.store.Has(id) {
			return false
		}
	}
	return true
}

// Missing returns the subset of ids with no live release, preserving order.
func (rs *ReleaseStore) Missing(ids []string) []string {
	var missing []string
	for _, id := range ids {
		if !rs.store.Has(id) {
			missing = append(missing, id)
		}
	}
	return missing
}

// Clear empties the store and the index.
func (rs *ReleaseStore) Clear() {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.store.Clear()
	rs.byAlbum = make(map[string]map[string]struct{})
}

// Stats exposes the underlying store counters.
func (rs *ReleaseStore) Stats() ttlstore.Stats {
	return rs.store.Stats()
}

// Persist snapshots the underlying store. The index is derived state and is
// deliberately not persisted.
func (rs *ReleaseStore) Persist() error {
	return rs.store.Persist()
}

// Restore loads the snapshot and rebuilds the album index from the loaded
// entries.
func (rs *ReleaseStore) Restore() error {
	if err := rs.store.Restore(); err != nil {
		return err
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.byAlbum = make(map[string]map[string]struct{})
	for _, release := range rs.store.Entries() {
		rs.indexLocked(release)
	}
	rs.logger.Debug("rebuilt album index",
		logging.Int("album_count", len(rs.byAlbum)))
	return nil
}

func (rs *ReleaseStore) indexLocked(release Release) {
	if release.AlbumID == "" {
		return
	}
	members := rs.byAlbum[release.AlbumID]
	if members == nil {
		members = make(map[string]struct{})
		rs.byAlbum[release.AlbumID] = members
	}
	members[release.ID] = struct{}{}
}

func (rs *ReleaseStore) unindexLocked(release Release) {
	members := rs.byAlbum[release.AlbumID]
	if members == nil {
		return
	}
	delete(members, release.ID)
	if len(members) == 0 {
		delete(rs.byAlbum, release.AlbumID)
	}
}
