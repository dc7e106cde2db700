package engine

import (
	"context"
	"time"

	"github.com/thushan/obfswatch/internal/core/domain"
)

// receiveTimeout bounds how long either loop waits for one more message
// while draining its inbound queue. It is also the natural floor on each
// loop's iteration cadence: there is no added sleep anywhere in C3 or C4.
const receiveTimeout = 1 * time.Second

// livenessWatcher is C3: it holds the live set of open channels and, once
// a second, partitions it into what is still open and what just closed.
// It owns no lock; the online set is task-local and only ever touched by
// this goroutine.
type livenessWatcher struct {
	online    map[domain.BridgeLine]domain.Channel
	closedOut chan<- []domain.BridgeLine
	reopenIn  <-chan map[domain.BridgeLine]domain.Channel
}

func newLivenessWatcher(initial map[domain.BridgeLine]domain.Channel, closedOut chan<- []domain.BridgeLine, reopenIn <-chan map[domain.BridgeLine]domain.Channel) *livenessWatcher {
	online := make(map[domain.BridgeLine]domain.Channel, len(initial))
	for line, ch := range initial {
		online[line] = ch
	}
	return &livenessWatcher{online: online, closedOut: closedOut, reopenIn: reopenIn}
}

func (w *livenessWatcher) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		stillOpen := make(map[domain.BridgeLine]domain.Channel, len(w.online))
		var closed []domain.BridgeLine
		for line, ch := range w.online {
			if ch.IsClosing() {
				closed = append(closed, line)
			} else {
				stillOpen[line] = ch
			}
		}

		select {
		case w.closedOut <- closed:
		case <-ctx.Done():
			return
		}

		w.online = w.drainReopened(ctx, stillOpen)
	}
}

// drainReopened folds newly-online channels from C4 into stillOpen,
// stopping on the first empty batch (C4's sentinel for "nothing more
// right now") or once a second passes with no new message.
func (w *livenessWatcher) drainReopened(ctx context.Context, stillOpen map[domain.BridgeLine]domain.Channel) map[domain.BridgeLine]domain.Channel {
	timer := newTimer()
	defer timer.Stop()

	for {
		select {
		case reopened, ok := <-w.reopenIn:
			if !ok || len(reopened) == 0 {
				return stillOpen
			}
			for line, ch := range reopened {
				stillOpen[line] = ch
			}
			resetTimer(timer)
		case <-timer.C:
			return stillOpen
		case <-ctx.Done():
			return stillOpen
		}
	}
}
