package catalog

import (
	"log/slog"
	"strings"
	"time"

	"crate/internal/ttlstore"
)

// LinkCache stores link-resolution results keyed by (source, region) so a
// repeated lookup for the same pair is free.
type LinkCache struct {
	store *ttlstore.Store[LinkResult]
}

// NewLinkCache creates a link cache snapshotting under dir.
func NewLinkCache(dir string, ttl time.Duration, logger *slog.Logger) *LinkCache {
	return &LinkCache{
		store: ttlstore.New[LinkResult]("links", dir, ttl, logger),
	}
}

// LinkKey builds the composite cache key for a (source, region) pair.
// Region comparison is case-insensitive; sources are opaque identifiers.
func LinkKey(source, region string) string {
	return source + "|" + strings.ToUpper(strings.TrimSpace(region))
}

// Store stamps and saves a resolution result under its composite key.
func (lc *LinkCache) Store(result LinkResult) {
	now := time.Now()
	result.CachedAt = now
	result.ExpiresAt = now.Add(lc.store.TTL())
	lc.store.Set(LinkKey(result.Source, result.Region), result)
}

// Lookup returns the cached result for the pair if still live.
func (lc *LinkCache) Lookup(source, region string) (LinkResult, bool) {
	return lc.store.Get(LinkKey(source, region))
}

// Has reports whether a live result exists for the pair.
func (lc *LinkCache) Has(source, region string) bool {
	return lc.store.Has(LinkKey(source, region))
}

// Delete removes the cached result for the pair.
func (lc *LinkCache) Delete(source, region string) {
	lc.store.Delete(LinkKey(source, region))
}

// Clear empties the link cache.
func (lc *LinkCache) Clear() {
	lc.store.Clear()
}

// Stats exposes the underlying store counters.
func (lc *LinkCache) Stats() ttlstore.Stats {
	return lc.store.Stats()
}

// Persist snapshots the underlying store.
func (lc *LinkCache) Persist() error {
	return lc.store.Persist()
}

// Restore loads the snapshot.
func (lc *LinkCache) Restore() error {
	return lc.store.Restore()
}
