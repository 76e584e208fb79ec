package daemon

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"crate/internal/catalog"
	"crate/internal/logging"
	"crate/internal/testsupport"
)

type stubUpstream struct {
	mu      sync.Mutex
	fetched []string
}

func (s *stubUpstream) ReleaseGroup(ctx context.Context, id string) (catalog.Album, error) {
	s.mu.Lock()
	s.fetched = append(s.fetched, id)
	s.mu.Unlock()
	return catalog.Album{ID: id, Title: "Album " + id}, nil
}

func (s *stubUpstream) BrowseReleases(ctx context.Context, albumID string, limit int) ([]catalog.Release, error) {
	return []catalog.Release{{ID: "rel-" + albumID, Status: catalog.StatusOfficial, Date: "2001"}}, nil
}

func (s *stubUpstream) Release(ctx context.Context, id string) (catalog.Release, error) {
	return catalog.Release{ID: id, Status: catalog.StatusOfficial, Date: "2001", TrackCount: 1}, nil
}

func (s *stubUpstream) ResolveLink(ctx context.Context, source, region string) (catalog.LinkResult, error) {
	return catalog.LinkResult{Source: source, Region: region, URL: "https://example.test"}, nil
}

func (s *stubUpstream) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fetched)
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, err := New(cfg, logging.NewNop(), WithUpstream(&stubUpstream{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !d.Status().Running {
		t.Error("status should report running")
	}
	if err := d.Start(context.Background()); err == nil {
		t.Error("second Start should fail")
	}

	d.Stop()
	if d.Status().Running {
		t.Error("status should report stopped")
	}
	// Stop twice is harmless.
	d.Stop()
}

func TestDaemonSingleInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, err := New(cfg, logging.NewNop(), WithUpstream(&stubUpstream{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer first.Stop()

	second, err := New(cfg, logging.NewNop(), WithUpstream(&stubUpstream{}))
	if err != nil {
		t.Fatalf("New second: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("second instance must not acquire the lock")
	}
}

func TestDaemonPrefetchAndPersistOnStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	upstream := &stubUpstream{}
	d, err := New(cfg, logging.NewNop(), WithUpstream(upstream))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	queued, _ := d.Prefetch(context.Background(), []string{"alb-1", "alb-2"})
	if queued != 2 {
		t.Fatalf("queued = %d, want 2", queued)
	}
	testsupport.WaitFor(t, func() bool { return d.Status().Queue.Completed == 2 }, "queue to drain")

	d.Stop()

	for _, name := range []string{"albums.json", "releases.json"} {
		if _, err := os.Stat(filepath.Join(cfg.Paths.CacheDir, name)); err != nil {
			t.Errorf("snapshot %s not written: %v", name, err)
		}
	}
}

func TestDaemonRestoresAcrossRestart(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	upstream := &stubUpstream{}

	d, err := New(cfg, logging.NewNop(), WithUpstream(upstream))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	d.Prefetch(context.Background(), []string{"alb-1"})
	testsupport.WaitFor(t, func() bool { return d.Status().Queue.Completed == 1 }, "queue to drain")
	d.Stop()
	firstFetches := upstream.fetchCount()

	restarted, err := New(cfg, logging.NewNop(), WithUpstream(upstream))
	if err != nil {
		t.Fatalf("New restarted: %v", err)
	}
	if err := restarted.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	defer restarted.Stop()

	queued, skipped := restarted.Prefetch(context.Background(), []string{"alb-1"})
	if queued != 0 || skipped != 1 {
		t.Errorf("queued=%d skipped=%d, want 0 and 1 after restore", queued, skipped)
	}
	if upstream.fetchCount() != firstFetches {
		t.Errorf("restored album was re-fetched")
	}
}

func TestDaemonCollectionWatcher(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	collection := filepath.Join(t.TempDir(), "collection.json")
	testsupport.WriteCollection(t, collection, []string{"alb-1", "alb-1", " ", "alb-2"})
	cfg.Paths.CollectionFile = collection

	upstream := &stubUpstream{}
	d, err := New(cfg, logging.NewNop(), WithUpstream(upstream))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	// Duplicates and blanks in the file collapse to two albums.
	testsupport.WaitFor(t, func() bool { return d.Status().Queue.Completed == 2 }, "queue to drain")
	if got := upstream.fetchCount(); got != 2 {
		t.Errorf("fetched %d albums, want 2", got)
	}
}

func TestReadCollection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collection.json")

	if _, err := readCollection(path); !os.IsNotExist(err) {
		t.Errorf("missing file: err = %v, want not-exist", err)
	}

	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := readCollection(path); err == nil {
		t.Error("corrupt file should error")
	}

	testsupport.WriteCollection(t, path, []string{"b", "a", "b", ""})
	ids, err := readCollection(path)
	if err != nil {
		t.Fatalf("readCollection: %v", err)
	}
	if len(ids) != 2 || ids[0] != "b" || ids[1] != "a" {
		t.Errorf("ids = %v, want [b a]", ids)
	}
}
