package prefetch

import (
	"context"
	"sync"
	"testing"
	"time"

	"crate/internal/logging"
	"crate/internal/testsupport"
)

func waitForIdle(t *testing.T, q *Queue) {
	t.Helper()
	testsupport.WaitFor(t, q.Idle, "queue to drain")
}

func TestQueueAddDeduplicates(t *testing.T) {
	q := NewQueue(time.Second, logging.NewNop())

	if !q.Add("a", PriorityLow) {
		t.Fatal("first add should be accepted")
	}
	if q.Add("a", PriorityLow) {
		t.Error("duplicate add should be rejected")
	}
	if q.Add("a", PriorityHigh) {
		t.Error("duplicate add at different priority should be rejected")
	}

	stats := q.Stats()
	if stats.QueuedLow != 1 || stats.QueuedHigh != 0 {
		t.Errorf("stats = %+v, want one low entry", stats)
	}
}

func TestQueueHighPriorityFirst(t *testing.T) {
	q := NewQueue(time.Second, logging.NewNop())
	q.Add("low-1", PriorityLow)
	q.Add("low-2", PriorityLow)
	q.Add("high-1", PriorityHigh)

	var order []string
	for {
		id, ok := q.Next()
		if !ok {
			break
		}
		order = append(order, id)
		q.complete(id)
	}
	want := []string{"high-1", "low-1", "low-2"}
	if len(order) != len(want) {
		t.Fatalf("drained %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("position %d: got %s, want %s", i, order[i], want[i])
		}
	}
}

func TestQueueProcessesLowPriorityItem(t *testing.T) {
	q := NewQueue(time.Minute, logging.NewNop())
	defer q.Stop()

	var mu sync.Mutex
	var seen []string
	q.Start(context.Background(), func(ctx context.Context, id string) error {
		mu.Lock()
		seen = append(seen, id)
		mu.Unlock()
		return nil
	})

	if !q.Add("a", PriorityLow) {
		t.Fatal("add rejected")
	}
	waitForIdle(t, q)

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 || seen[0] != "a" {
		t.Fatalf("processed %v, want [a]", seen)
	}
	stats := q.Stats()
	if stats.QueuedLow != 0 || stats.Completed != 1 {
		t.Errorf("stats = %+v, want queuedLow=0 completed=1", stats)
	}
}

func TestQueueWakesWithoutPollTick(t *testing.T) {
	// Long poll interval: items must still be picked up promptly via the
	// wake channel.
	q := NewQueue(time.Hour, logging.NewNop())
	defer q.Stop()

	done := make(chan string, 1)
	q.Start(context.Background(), func(ctx context.Context, id string) error {
		done <- id
		return nil
	})
	q.Add("a", PriorityHigh)

	select {
	case id := <-done:
		if id != "a" {
			t.Fatalf("processed %s, want a", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("enqueue did not wake the consumer")
	}
}

func TestQueueFailedWorkReleasesID(t *testing.T) {
	q := NewQueue(time.Minute, logging.NewNop())
	defer q.Stop()

	q.Start(context.Background(), func(ctx context.Context, id string) error {
		return context.DeadlineExceeded
	})
	q.Add("a", PriorityLow)
	waitForIdle(t, q)

	stats := q.Stats()
	if stats.Completed != 0 {
		t.Errorf("failed work counted as completed: %+v", stats)
	}
	// The id left the dedup set, so it can be queued again.
	if !q.Add("a", PriorityLow) {
		t.Error("re-add after failure should be accepted")
	}
}

func TestQueueStopWaitsForInFlight(t *testing.T) {
	q := NewQueue(time.Minute, logging.NewNop())

	started := make(chan struct{})
	finished := make(chan struct{})
	q.Start(context.Background(), func(ctx context.Context, id string) error {
		close(started)
		time.Sleep(50 * time.Millisecond)
		close(finished)
		return nil
	})
	q.Add("a", PriorityHigh)
	<-started
	q.Stop()

	select {
	case <-finished:
	default:
		t.Fatal("Stop returned before in-flight work finished")
	}
}

func TestQueueClearKeepsCompletedCount(t *testing.T) {
	q := NewQueue(time.Minute, logging.NewNop())
	q.Add("a", PriorityHigh)
	id, _ := q.Next()
	q.complete(id)
	q.Add("b", PriorityLow)
	q.Add("c", PriorityLow)

	q.Clear()

	stats := q.Stats()
	if stats.QueuedHigh != 0 || stats.QueuedLow != 0 {
		t.Errorf("queues not cleared: %+v", stats)
	}
	if stats.Completed != 1 {
		t.Errorf("completed = %d, want 1", stats.Completed)
	}
}
