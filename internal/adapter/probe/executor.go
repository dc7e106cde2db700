// Package probe implements C2, the probe executor: given a list of
// bridge descriptors, it runs handshake attempts with bounded fan-out
// and returns a result per bridge plus a channel for every bridge that
// came online.
package probe

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/thushan/obfswatch/internal/core/domain"
	"github.com/thushan/obfswatch/internal/core/ports"
	"github.com/thushan/obfswatch/internal/logger"
)

// MaxConcurrent is the bandwidth-politeness ceiling on in-flight
// handshakes toward the circumvention network.
const MaxConcurrent = 10

type Executor struct {
	facade ports.TransportFacade
	logger *logger.StyledLogger
}

func New(facade ports.TransportFacade, log *logger.StyledLogger) *Executor {
	return &Executor{facade: facade, logger: log}
}

var _ ports.Prober = (*Executor)(nil)

// Probe runs a probe per line with at most MaxConcurrent in flight at
// any instant. Lines are taken in windows of MaxConcurrent, and every
// probe of a window completes before the next window starts. Duplicate
// lines resolve last-write-wins. A panicking probe is downgraded to a
// probe error rather than propagated.
func (e *Executor) Probe(ctx context.Context, lines []domain.BridgeLine) (map[domain.BridgeLine]domain.BridgeResult, map[domain.BridgeLine]domain.Channel) {
	results := make(map[domain.BridgeLine]domain.BridgeResult, len(lines))
	channels := make(map[domain.BridgeLine]domain.Channel, len(lines))
	var mu sync.Mutex

	for start := 0; start < len(lines); start += MaxConcurrent {
		window := lines[start:min(start+MaxConcurrent, len(lines))]

		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(MaxConcurrent)

		for _, line := range window {
			eg.Go(func() error {
				res, channel := e.runOne(egCtx, line)
				mu.Lock()
				results[line] = res
				if channel != nil {
					channels[line] = channel
				}
				mu.Unlock()
				return nil
			})
		}
		_ = eg.Wait()
	}

	return results, channels
}

func (e *Executor) runOne(ctx context.Context, line domain.BridgeLine) (res domain.BridgeResult, channel domain.Channel) {
	defer func() {
		if r := recover(); r != nil {
			if e.logger != nil {
				e.logger.Error("probe task panicked", "bridge", string(line), "recovered", r)
			}
			res = domain.BridgeResult{
				Functional: false,
				LastTested: time.Now().UTC(),
				Error:      "internal probe failure",
				ErrorType:  domain.ErrorTypeInternal,
			}
			channel = nil
		}
	}()

	cfg, err := e.facade.Parse(line)
	if err != nil {
		return domain.BridgeResult{
			Functional: false,
			LastTested: time.Now().UTC(),
			Error:      err.Error(),
			ErrorType:  domain.ErrorTypeParse,
		}, nil
	}

	handle := e.facade.Isolate()
	chan_, err := handle.TryChannel(ctx, cfg)
	tested := time.Now().UTC()
	if err != nil {
		return domain.BridgeResult{
			Functional: false,
			LastTested: tested,
			Error:      err.Error(),
			ErrorType:  classifyProbeError(err),
		}, nil
	}

	return domain.BridgeResult{Functional: true, LastTested: tested}, chan_
}

func classifyProbeError(err error) domain.HealthCheckErrorType {
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return domain.ErrorTypeTimeout
		}
		return domain.ErrorTypeNetwork
	}
	return domain.ErrorTypeProtocol
}
