package catalog

import (
	"encoding/json"
	"fmt"
	"time"
)

// Release statuses as reported by the upstream catalog.
const (
	StatusOfficial = "Official"
)

// Tag is a normalized genre/tag entry. The upstream API emits tags either as
// bare strings or as objects with a vote count; UnmarshalJSON folds both
// shapes into this one representation at the decode boundary so readers
// never sniff the shape again.
type Tag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func (t *Tag) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return fmt.Errorf("parse tag string: %w", err)
		}
		t.Name = name
		t.Count = 0
		return nil
	}
	var obj struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("parse tag object: %w", err)
	}
	t.Name = obj.Name
	t.Count = obj.Count
	return nil
}

// Track is a single recording on a release.
type Track struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	LengthMS int    `json:"length_ms"`
}

// Release is a concrete pressing/edition of an album. Owned exclusively by
// the ReleaseStore; many releases reference one album.
type Release struct {
	ID         string    `json:"id"`
	AlbumID    string    `json:"album_id"`
	Title      string    `json:"title"`
	Status     string    `json:"status"`
	Date       string    `json:"date"` // YYYY, YYYY-MM, or YYYY-MM-DD; empty when unknown
	Country    string    `json:"country"`
	Label      string    `json:"label"`
	TrackCount int       `json:"track_count"`
	Tracks     []Track   `json:"tracks,omitempty"` // populated only for the detailed fetch
	Tags       []Tag     `json:"tags,omitempty"`
	CachedAt   time.Time `json:"cached_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func (r Release) CacheTime() time.Time  { return r.CachedAt }
func (r Release) ExpiryTime() time.Time { return r.ExpiresAt }

// Album is a release-group-level catalog entity stored by reference: it
// carries release ids, never the release objects themselves.
type Album struct {
	ID                 string      `json:"id"`
	Title              string      `json:"title"`
	Artist             string      `json:"artist"`
	Type               string      `json:"type"` // album, ep, single, ...
	FirstReleaseDate   string      `json:"first_release_date"`
	Tags               []Tag       `json:"tags,omitempty"`
	ReleaseIDs         []string    `json:"release_ids"`
	PreferredReleaseID string      `json:"preferred_release_id,omitempty"`
	Link               *LinkResult `json:"link,omitempty"`
	CachedAt           time.Time   `json:"cached_at"`
	ExpiresAt          time.Time   `json:"expires_at"`
}

func (a Album) CacheTime() time.Time  { return a.CachedAt }
func (a Album) ExpiryTime() time.Time { return a.ExpiresAt }

// HydratedAlbum is the read-only derived view of an album with its release
// id references expanded into full objects. Never persisted.
type HydratedAlbum struct {
	Album
	Releases         []Release `json:"releases"`
	PreferredRelease *Release  `json:"preferred_release,omitempty"`
}

// LinkResult captures a resolved external listen/purchase link for a
// (source, region) pair.
type LinkResult struct {
	Source    string    `json:"source"`
	Region    string    `json:"region"`
	URL       string    `json:"url"`
	Verified  bool      `json:"verified"`
	CachedAt  time.Time `json:"cached_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (l LinkResult) CacheTime() time.Time  { return l.CachedAt }
func (l LinkResult) ExpiryTime() time.Time { return l.ExpiresAt }

// CacheStatus reports whether an album is fully cached and which release ids
// are still missing from the release store.
type CacheStatus struct {
	Cached     bool
	MissingIDs []string
}
