package musicbrainz

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := New(srv.URL+"/ws/2", srv.URL+"/resolve", "crate-test/1.0")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return client
}

func TestReleaseGroupParsesSummary(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws/2/release-group/rg-1" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("User-Agent"); got != "crate-test/1.0" {
			t.Errorf("User-Agent = %q", got)
		}
		if got := r.URL.Query().Get("fmt"); got != "json" {
			t.Errorf("fmt = %q", got)
		}
		w.Write([]byte(`{
			"id": "rg-1",
			"title": "Loveless",
			"primary-type": "Album",
			"first-release-date": "1991-11-04",
			"artist-credit": [{"name": "My Bloody Valentine", "joinphrase": ""}],
			"tags": ["shoegaze", {"name": "dream pop", "count": 5}]
		}`))
	}))

	album, err := client.ReleaseGroup(context.Background(), "rg-1")
	if err != nil {
		t.Fatalf("ReleaseGroup failed: %v", err)
	}
	if album.ID != "rg-1" || album.Title != "Loveless" {
		t.Errorf("album = %+v", album)
	}
	if album.Artist != "My Bloody Valentine" {
		t.Errorf("Artist = %q", album.Artist)
	}
	if album.Type != "album" {
		t.Errorf("Type = %q, want lowercased", album.Type)
	}
	if len(album.Tags) != 2 || album.Tags[0].Name != "shoegaze" || album.Tags[1].Count != 5 {
		t.Errorf("Tags = %+v, want normalized mixed forms", album.Tags)
	}
}

func TestBrowseReleasesSetsAlbumBackReference(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("release-group"); got != "rg-1" {
			t.Errorf("release-group = %q", got)
		}
		if got := r.URL.Query().Get("limit"); got != "100" {
			t.Errorf("limit = %q", got)
		}
		w.Write([]byte(`{"releases": [
			{"id": "r1", "title": "Loveless", "status": "Official", "date": "1991-11-04", "country": "GB",
			 "label-info": [{"label": {"name": "Creation"}}], "media": [{"track-count": 11}]},
			{"id": "r2", "title": "Loveless", "status": "Bootleg", "date": "1992"}
		]}`))
	}))

	releases, err := client.BrowseReleases(context.Background(), "rg-1", 0)
	if err != nil {
		t.Fatalf("BrowseReleases failed: %v", err)
	}
	if len(releases) != 2 {
		t.Fatalf("got %d releases, want 2", len(releases))
	}
	for _, release := range releases {
		if release.AlbumID != "rg-1" {
			t.Errorf("release %q AlbumID = %q, want rg-1", release.ID, release.AlbumID)
		}
	}
	if releases[0].Label != "Creation" || releases[0].TrackCount != 11 {
		t.Errorf("first release = %+v", releases[0])
	}
}

func TestReleaseParsesTracks(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"id": "r1", "title": "Loveless", "status": "Official",
			"release-group": {"id": "rg-1"},
			"media": [{"track-count": 2, "tracks": [
				{"position": 1, "title": "Only Shallow", "length": 257000},
				{"position": 2, "title": "Loomer", "length": 158000}
			]}]
		}`))
	}))

	release, err := client.Release(context.Background(), "r1")
	if err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if release.AlbumID != "rg-1" {
		t.Errorf("AlbumID = %q, want rg-1 from group reference", release.AlbumID)
	}
	if len(release.Tracks) != 2 || release.Tracks[0].Title != "Only Shallow" {
		t.Errorf("Tracks = %+v", release.Tracks)
	}
	if release.TrackCount != 2 {
		t.Errorf("TrackCount = %d, want 2", release.TrackCount)
	}
}

func TestResolveLink(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("region"); got != "US" {
			t.Errorf("region = %q, want upper-cased US", got)
		}
		w.Write([]byte(`{"url": "https://listen.example/abc", "verified": true}`))
	}))

	result, err := client.ResolveLink(context.Background(), "spotify:album:abc", "us")
	if err != nil {
		t.Fatalf("ResolveLink failed: %v", err)
	}
	if result.URL != "https://listen.example/abc" || !result.Verified {
		t.Errorf("result = %+v", result)
	}
	if result.Region != "US" {
		t.Errorf("Region = %q, want US", result.Region)
	}
}

func TestNotFoundWrapsSentinel(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))

	_, err := client.ReleaseGroup(context.Background(), "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	if IsTransient(err) {
		t.Error("404 must not be transient")
	}
}

func TestServerErrorIsStatusError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusServiceUnavailable)
	}))

	_, err := client.Release(context.Background(), "r1")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("error = %v, want StatusError 503", err)
	}
	if !IsTransient(err) {
		t.Error("503 should be transient")
	}
}

func TestMalformedPayloadIsTerminal(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": `))
	}))

	_, err := client.ReleaseGroup(context.Background(), "rg-1")
	if err == nil {
		t.Fatal("expected decode error")
	}
	if IsTransient(err) {
		t.Error("malformed payload must not be transient")
	}
}

func TestNewRequiresUserAgent(t *testing.T) {
	if _, err := New("https://example.org", "", "  "); err == nil {
		t.Error("New should reject an empty user agent")
	}
	if _, err := New("", "", "ua"); err == nil {
		t.Error("New should reject an empty base url")
	}
}
