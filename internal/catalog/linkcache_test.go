package catalog

import (
	"testing"
	"time"
)

func TestLinkCacheCompositeKey(t *testing.T) {
	lc := NewLinkCache(t.TempDir(), time.Hour, nil)
	lc.Store(LinkResult{Source: "spotify:album:123", Region: "us", URL: "https://listen.example/123"})

	got, ok := lc.Lookup("spotify:album:123", "US")
	if !ok {
		t.Fatal("region match should be case-insensitive")
	}
	if got.URL != "https://listen.example/123" {
		t.Errorf("URL = %q", got.URL)
	}
	if _, ok := lc.Lookup("spotify:album:123", "DE"); ok {
		t.Error("different region should miss")
	}
	if _, ok := lc.Lookup("spotify:album:999", "US"); ok {
		t.Error("different source should miss")
	}
}

func TestLinkCachePersistRoundTrip(t *testing.T) {
	dir := t.TempDir()
	lc := NewLinkCache(dir, time.Hour, nil)
	lc.Store(LinkResult{Source: "bandcamp:42", Region: "DE", URL: "https://listen.example/42", Verified: true})

	if err := lc.Persist(); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}

	restored := NewLinkCache(dir, time.Hour, nil)
	if err := restored.Restore(); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	got, ok := restored.Lookup("bandcamp:42", "de")
	if !ok {
		t.Fatal("restored cache missing entry")
	}
	if !got.Verified || got.URL != "https://listen.example/42" {
		t.Errorf("restored entry = %+v", got)
	}
}
