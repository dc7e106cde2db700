package engine

import (
	"context"

	"github.com/thushan/obfswatch/internal/core/domain"
	"github.com/thushan/obfswatch/internal/core/ports"
	"github.com/thushan/obfswatch/internal/logger"
	"github.com/thushan/obfswatch/pkg/eventbus"
)

// recoveryProber is C4: it owns the failed set and, once a second, retries
// every bridge in it through the prober. Bridges that come back online are
// handed to C3; bridges C3 just watched close are folded back in, ahead of
// the retry queue so a bridge that flapped gets retried before one that has
// been down for a while.
type recoveryProber struct {
	failed      []domain.BridgeLine
	prober      ports.Prober
	closedIn    <-chan []domain.BridgeLine
	reopenOut   chan<- map[domain.BridgeLine]domain.Channel
	intakeIn    <-chan []domain.BridgeLine
	broadcaster *eventbus.EventBus[map[domain.BridgeLine]domain.BridgeResult]
	logger      *logger.StyledLogger
}

func newRecoveryProber(
	initial []domain.BridgeLine,
	prober ports.Prober,
	closedIn <-chan []domain.BridgeLine,
	reopenOut chan<- map[domain.BridgeLine]domain.Channel,
	intakeIn <-chan []domain.BridgeLine,
	broadcaster *eventbus.EventBus[map[domain.BridgeLine]domain.BridgeResult],
	log *logger.StyledLogger,
) *recoveryProber {
	failed := make([]domain.BridgeLine, len(initial))
	copy(failed, initial)
	return &recoveryProber{
		failed:      failed,
		prober:      prober,
		closedIn:    closedIn,
		reopenOut:   reopenOut,
		intakeIn:    intakeIn,
		broadcaster: broadcaster,
		logger:      log,
	}
}

func (p *recoveryProber) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		newResults, newChannels := p.prober.Probe(ctx, p.failed)

		stillFailed := make([]domain.BridgeLine, 0, len(p.failed))
		for _, line := range p.failed {
			if _, recovered := newChannels[line]; !recovered {
				stillFailed = append(stillFailed, line)
			}
		}

		select {
		case p.reopenOut <- newChannels:
		case <-ctx.Done():
			return
		}

		stillFailed = p.drainClosed(ctx, stillFailed)
		stillFailed = p.drainIntake(ctx, stillFailed)
		p.failed = stillFailed

		if len(newResults) > 0 {
			p.broadcaster.Publish(newResults)
		}
	}
}

// drainClosed prepends every batch C3 publishes ahead of the existing
// retry queue, stopping at the first empty batch (C3's sentinel) or once
// a second passes with no new message.
func (p *recoveryProber) drainClosed(ctx context.Context, failed []domain.BridgeLine) []domain.BridgeLine {
	timer := newTimer()
	defer timer.Stop()

	for {
		select {
		case closed, ok := <-p.closedIn:
			if !ok || len(closed) == 0 {
				return failed
			}
			failed = append(append([]domain.BridgeLine{}, closed...), failed...)
			resetTimer(timer)
		case <-timer.C:
			return failed
		case <-ctx.Done():
			return failed
		}
	}
}

// drainIntake folds operator-submitted bridges into the retry queue,
// deduplicating against what is already tracked. Intake has no sentinel
// value (any caller may publish a non-empty batch at any time), so this
// only stops on the timeout.
func (p *recoveryProber) drainIntake(ctx context.Context, failed []domain.BridgeLine) []domain.BridgeLine {
	seen := make(map[domain.BridgeLine]struct{}, len(failed))
	for _, line := range failed {
		seen[line] = struct{}{}
	}

	timer := newTimer()
	defer timer.Stop()

	for {
		select {
		case batch, ok := <-p.intakeIn:
			if !ok {
				return failed
			}
			for _, line := range batch {
				if _, dup := seen[line]; dup {
					continue
				}
				seen[line] = struct{}{}
				failed = append(failed, line)
			}
			resetTimer(timer)
		case <-timer.C:
			return failed
		case <-ctx.Done():
			return failed
		}
	}
}
