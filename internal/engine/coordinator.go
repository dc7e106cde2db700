package engine

import (
	"context"
	"sync"

	"github.com/thushan/obfswatch/internal/core/domain"
	"github.com/thushan/obfswatch/internal/core/ports"
	"github.com/thushan/obfswatch/internal/logger"
	"github.com/thushan/obfswatch/pkg/eventbus"
)

// queueCapacity bounds the two task-local MPSC edges between C3 and C4.
// Both loops drain faster than they can fill a 100-entry backlog under
// normal operation; a full queue only means one side stalled.
const queueCapacity = 100

// Coordinator is C5: it owns the two channels that wire C3 (liveness
// watcher) to C4 (recovery prober) and starts both as long-lived
// goroutines from one initial snapshot. It does not touch either side's
// state once started; all further state lives inside the two tasks.
type Coordinator struct {
	broadcaster *eventbus.EventBus[map[domain.BridgeLine]domain.BridgeResult]
	intake      *eventbus.EventBus[[]domain.BridgeLine]
	logger      *logger.StyledLogger

	startOnce sync.Once
	running   bool
	mu        sync.Mutex
}

func NewCoordinator(log *logger.StyledLogger) *Coordinator {
	return &Coordinator{
		broadcaster: eventbus.New[map[domain.BridgeLine]domain.BridgeResult](),
		intake:      eventbus.New[[]domain.BridgeLine](),
		logger:      log,
	}
}

// Start spawns C3 and C4 from one initial probe snapshot. It is a no-op
// past the first call: the engine only ever runs one liveness/recovery
// pair for its process lifetime.
func (c *Coordinator) Start(ctx context.Context, prober ports.Prober, online map[domain.BridgeLine]domain.Channel, failed []domain.BridgeLine) {
	c.startOnce.Do(func() {
		closedCh := make(chan []domain.BridgeLine, queueCapacity)
		reopenCh := make(chan map[domain.BridgeLine]domain.Channel, queueCapacity)
		intakeCh, _ := c.intake.Subscribe(ctx)

		watcher := newLivenessWatcher(online, closedCh, reopenCh)
		recover_ := newRecoveryProber(failed, prober, closedCh, reopenCh, intakeCh, c.broadcaster, c.logger)

		go watcher.run(ctx)
		go recover_.run(ctx)

		c.mu.Lock()
		c.running = true
		c.mu.Unlock()
	})
}

// Running reports whether C3/C4 have been started.
func (c *Coordinator) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// EnqueueNewBridges is C7: it hands a freshly admitted batch to the
// intake bus. It returns false only when there is no active recovery
// prober to receive it (engine not running) or the queue is saturated.
func (c *Coordinator) EnqueueNewBridges(lines []domain.BridgeLine) bool {
	if len(lines) == 0 {
		return true
	}
	return c.intake.Publish(lines) > 0
}

// Subscribe is C6's read side: every caller gets its own buffered view
// of published result batches, with no replay of history before the
// call.
func (c *Coordinator) Subscribe(ctx context.Context) (<-chan map[domain.BridgeLine]domain.BridgeResult, func()) {
	return c.broadcaster.Subscribe(ctx)
}

// Shutdown tears down the broadcaster and intake buses. C3/C4 exit on
// ctx cancellation; this only needs to release the eventbus resources.
func (c *Coordinator) Shutdown() {
	c.broadcaster.Shutdown()
	c.intake.Shutdown()
}

// DrainUpdates accumulates delta batches from a C6 subscription until a
// second passes with no new batch, merging later keys over earlier ones.
// It is the long-poll primitive behind GET /updates: an empty result
// after the full wait means no change happened in the polling window.
func DrainUpdates(ctx context.Context, ch <-chan map[domain.BridgeLine]domain.BridgeResult) map[domain.BridgeLine]domain.BridgeResult {
	merged := make(map[domain.BridgeLine]domain.BridgeResult)
	timer := newTimer()
	defer timer.Stop()

	for {
		select {
		case batch, ok := <-ch:
			if !ok {
				return merged
			}
			for line, res := range batch {
				merged[line] = res
			}
			resetTimer(timer)
		case <-timer.C:
			return merged
		case <-ctx.Done():
			return merged
		}
	}
}
