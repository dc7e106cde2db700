package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/thushan/obfswatch/internal/core/domain"
)

type testChannel struct {
	mu      sync.Mutex
	closing bool
}

func (c *testChannel) IsClosing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closing
}

func (c *testChannel) setClosing(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closing = v
}

func (c *testChannel) Close() error { return nil }

func TestLivenessWatcher_PartitionsClosedChannels(t *testing.T) {
	stayOpen := &testChannel{}
	goesDown := &testChannel{closing: true}

	initial := map[domain.BridgeLine]domain.Channel{
		"a": stayOpen,
		"b": goesDown,
	}

	closedOut := make(chan []domain.BridgeLine, queueCapacity)
	reopenIn := make(chan map[domain.BridgeLine]domain.Channel, queueCapacity)

	watcher := newLivenessWatcher(initial, closedOut, reopenIn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go watcher.run(ctx)

	select {
	case closed := <-closedOut:
		if len(closed) != 1 || closed[0] != "b" {
			t.Fatalf("expected [b] as closed batch, got %v", closed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for closed batch")
	}
}

func TestLivenessWatcher_ReopenedBridgeLaterReportsClosed(t *testing.T) {
	closedOut := make(chan []domain.BridgeLine, queueCapacity)
	reopenIn := make(chan map[domain.BridgeLine]domain.Channel, queueCapacity)

	watcher := newLivenessWatcher(map[domain.BridgeLine]domain.Channel{}, closedOut, reopenIn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go watcher.run(ctx)

	// First iteration's closed batch over the empty initial set is empty.
	select {
	case closed := <-closedOut:
		if len(closed) != 0 {
			t.Fatalf("expected empty first batch, got %v", closed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first closed batch")
	}

	reopened := &testChannel{}
	reopenIn <- map[domain.BridgeLine]domain.Channel{"c": reopened}

	// Second iteration partitions {c: open}; still nothing closed.
	select {
	case closed := <-closedOut:
		if len(closed) != 0 {
			t.Fatalf("expected empty second batch, got %v", closed)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for second closed batch")
	}

	reopened.setClosing(true)

	select {
	case closed := <-closedOut:
		if len(closed) != 1 || closed[0] != "c" {
			t.Fatalf("expected [c] as closed batch, got %v", closed)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reopened bridge to be reported closed")
	}
}
