package catalog

import (
	"log/slog"
	"time"

	"crate/internal/logging"
	"crate/internal/ttlstore"
)

// AlbumCache stores albums by reference (release ids only) and hydrates full
// release objects on read through the shared ReleaseStore.
type AlbumCache struct {
	store    *ttlstore.Store[Album]
	releases *ReleaseStore
	logger   *slog.Logger
}

// NewAlbumCache creates an album cache backed by releases for hydration.
func NewAlbumCache(dir string, ttl time.Duration, releases *ReleaseStore, logger *slog.Logger) *AlbumCache {
	return &AlbumCache{
		store:    ttlstore.New[Album]("albums", dir, ttl, logger),
		releases: releases,
		logger:   logging.NewComponentLogger(logger, "albumcache"),
	}
}

// Set stamps the album with cache/expiry times and stores it.
func (ac *AlbumCache) Set(album Album) {
	now := time.Now()
	album.CachedAt = now
	album.ExpiresAt = now.Add(ac.store.TTL())
	ac.store.Set(album.ID, album)
}

// Get returns the live album for id without hydrating.
func (ac *AlbumCache) Get(id string) (Album, bool) {
	return ac.store.Get(id)
}

// Has reports whether a live album exists for id.
func (ac *AlbumCache) Has(id string) bool {
	return ac.store.Has(id)
}

// Delete removes the album. Its releases stay in the release store; other
// albums never reference them, but a later re-fetch reuses them untouched.
func (ac *AlbumCache) Delete(id string) {
	ac.store.Delete(id)
}

// Keys returns all album ids currently held.
func (ac *AlbumCache) Keys() []string {
	return ac.store.Keys()
}

// Clear empties the album cache.
func (ac *AlbumCache) Clear() {
	ac.store.Clear()
}

// Hydrate expands the album's release id references into full objects.
// Releases missing from the release store (mid-fetch, or independently
// expired) are simply absent from the result; nothing is written back.
func (ac *AlbumCache) Hydrate(id string) (HydratedAlbum, bool) {
	album, ok := ac.store.Get(id)
	if !ok {
		return HydratedAlbum{}, false
	}

	hydrated := HydratedAlbum{
		Album:    album,
		Releases: ac.releases.GetBulk(album.ReleaseIDs),
	}
	if album.PreferredReleaseID != "" {
		if preferred, ok := ac.releases.Get(album.PreferredReleaseID); ok {
			hydrated.PreferredRelease = &preferred
		}
	}
	return hydrated, true
}

// IsFullyCached reports whether the album exists and every referenced
// release is live in the release store.
func (ac *AlbumCache) IsFullyCached(id string) bool {
	album, ok := ac.store.Peek(id)
	if !ok {
		return false
	}
	return ac.releases.HasAll(album.ReleaseIDs)
}

// Status is the diagnostic variant of IsFullyCached: it also reports which
// release ids are missing, for the prefetch filter to decide on re-fetch.
func (ac *AlbumCache) Status(id string) CacheStatus {
	album, ok := ac.store.Peek(id)
	if !ok {
		return CacheStatus{}
	}
	missing := ac.releases.Missing(album.ReleaseIDs)
	return CacheStatus{
		Cached:     len(missing) == 0,
		MissingIDs: missing,
	}
}

// Stats exposes the underlying store counters.
func (ac *AlbumCache) Stats() ttlstore.Stats {
	return ac.store.Stats()
}

// Persist snapshots the underlying store.
func (ac *AlbumCache) Persist() error {
	return ac.store.Persist()
}

// Restore loads the snapshot.
func (ac *AlbumCache) Restore() error {
	return ac.store.Restore()
}
