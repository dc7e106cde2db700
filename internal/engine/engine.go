// Package engine assembles C1-C7: the transport facade, the probe
// executor, and the coordinator that wires the liveness watcher and
// recovery prober together behind a broadcaster and an admission queue.
// Everything outside this package only ever calls Engine.
package engine

import (
	"context"
	"sync"

	"github.com/thushan/obfswatch/internal/core/domain"
	"github.com/thushan/obfswatch/internal/core/ports"
	"github.com/thushan/obfswatch/internal/logger"
)

// Engine is the one object the HTTP layer holds. It owns the transport
// facade's bootstrap, the initial probe, and starting the background
// coordinator exactly once.
type Engine struct {
	facade      ports.TransportFacade
	prober      ports.Prober
	coordinator *Coordinator
	logger      *logger.StyledLogger

	// runCtx is the process-lifetime context C3/C4 and the transport
	// bootstrap run under. It must outlive any single HTTP request: the
	// recovery prober and liveness watcher are designed to loop forever
	// and terminate only at process shutdown, never when the request
	// that happened to trigger the first Probe call returns. Set once by
	// Start before the first Probe call; defaults to Background so the
	// engine is still usable (without an external shutdown signal) if a
	// caller forgets to call Start.
	runCtx context.Context

	bootstrapOnce sync.Once
	bootstrapErr  error
}

func New(facade ports.TransportFacade, prober ports.Prober, log *logger.StyledLogger) *Engine {
	return &Engine{
		facade:      facade,
		prober:      prober,
		coordinator: NewCoordinator(log),
		logger:      log,
		runCtx:      context.Background(),
	}
}

// Start records the process-lifetime context that the transport
// bootstrap and the background coordinator (C3/C4) run under. Callers
// (the HTTP application) must call this once, at process startup, with
// a context that is cancelled only on shutdown - never with a
// request-scoped context, which net/http cancels as soon as the handler
// that created it returns.
func (e *Engine) Start(ctx context.Context) {
	e.runCtx = ctx
}

// Probe runs the initial or a subsequent call to C2 across lines. The
// first call bootstraps the transport client and starts C5 from the
// resulting online/failed split; later calls run a fresh probe pass for
// an immediate report and additionally forward lines into the intake
// queue so anything not already tracked by the running recovery prober
// gets picked up without spawning a second background pair.
//
// ctx here only bounds this call's own probe pass; bootstrap and C5 run
// under the long-lived context recorded by Start, not under ctx, so
// they keep running after this call (and the request that made it)
// returns.
func (e *Engine) Probe(ctx context.Context, lines []domain.BridgeLine) (map[domain.BridgeLine]domain.BridgeResult, error) {
	e.bootstrapOnce.Do(func() {
		e.bootstrapErr = e.facade.BuildCommon(e.runCtx)
	})
	if e.bootstrapErr != nil {
		return nil, e.bootstrapErr
	}

	results, channels := e.prober.Probe(ctx, lines)

	if !e.coordinator.Running() {
		failed := make([]domain.BridgeLine, 0, len(lines))
		for _, line := range lines {
			if _, ok := channels[line]; !ok {
				failed = append(failed, line)
			}
		}
		e.coordinator.Start(e.runCtx, e.prober, channels, failed)
	} else {
		e.coordinator.EnqueueNewBridges(lines)
	}

	return results, nil
}

// EnqueueNewBridges is the admission-intake entry point (C7). It returns
// false when the engine has not yet been started by a first Probe call.
func (e *Engine) EnqueueNewBridges(lines []domain.BridgeLine) bool {
	if !e.coordinator.Running() {
		return false
	}
	return e.coordinator.EnqueueNewBridges(lines)
}

// Subscribe is the update-broadcaster read side (C6).
func (e *Engine) Subscribe(ctx context.Context) (<-chan map[domain.BridgeLine]domain.BridgeResult, func()) {
	return e.coordinator.Subscribe(ctx)
}

// Shutdown releases background resources. It does not stop C3/C4
// directly; callers cancel the context passed to Start for that.
func (e *Engine) Shutdown() {
	e.coordinator.Shutdown()
}
