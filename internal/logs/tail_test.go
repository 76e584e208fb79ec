package logs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeLines(t *testing.T, path string, lines ...string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	for _, line := range lines {
		if _, err := f.WriteString(line + "\n"); err != nil {
			t.Fatal(err)
		}
	}
}

func TestTailLastLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crated.log")
	writeLines(t, path, "one", "two", "three", "four")

	var got []string
	err := Tail(context.Background(), path, TailOptions{Limit: 2}, func(line string) {
		got = append(got, line)
	})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(got) != 2 || got[0] != "three" || got[1] != "four" {
		t.Errorf("lines = %v, want [three four]", got)
	}
}

func TestTailFewerLinesThanLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crated.log")
	writeLines(t, path, "only")

	var got []string
	if err := Tail(context.Background(), path, TailOptions{Limit: 10}, func(line string) {
		got = append(got, line)
	}); err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(got) != 1 || got[0] != "only" {
		t.Errorf("lines = %v, want [only]", got)
	}
}

func TestTailMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.log")
	if err := Tail(context.Background(), path, TailOptions{Limit: 5}, func(string) {
		t.Error("unexpected line from missing file")
	}); err != nil {
		t.Fatalf("Tail on missing file: %v", err)
	}
}

func TestTailFollowPicksUpAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crated.log")
	writeLines(t, path, "start")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lines := make(chan string, 10)
	done := make(chan error, 1)
	go func() {
		done <- Tail(ctx, path, TailOptions{Limit: 1, Follow: true, Poll: 10 * time.Millisecond}, func(line string) {
			lines <- line
		})
	}()

	expect := func(want string) {
		t.Helper()
		select {
		case got := <-lines:
			if got != want {
				t.Fatalf("line = %q, want %q", got, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %q", want)
		}
	}
	expect("start")

	writeLines(t, path, "appended")
	expect("appended")

	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("follow exit err = %v, want context.Canceled", err)
	}
}

func TestReadForwardHandlesTruncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crated.log")
	writeLines(t, path, strings.Repeat("x", 100))

	if err := os.WriteFile(path, []byte("fresh\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	lines, offset, err := readForward(path, 101)
	if err != nil {
		t.Fatalf("readForward: %v", err)
	}
	if len(lines) != 1 || lines[0] != "fresh" {
		t.Errorf("lines = %v, want [fresh]", lines)
	}
	if offset != int64(len("fresh\n")) {
		t.Errorf("offset = %d, want %d", offset, len("fresh\n"))
	}
}
