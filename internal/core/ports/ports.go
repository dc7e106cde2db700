// Package ports declares the seams between the health engine and its
// collaborators, so adapters (transport, HTTP) can be swapped or faked
// in tests without the engine knowing about it.
package ports

import (
	"context"

	"github.com/thushan/obfswatch/internal/core/domain"
)

// ClientHandle is an isolated, per-probe view over the common transport
// client: it shares no circuits, guard selection or descriptor caches
// with any other handle.
type ClientHandle interface {
	TryChannel(ctx context.Context, cfg domain.BridgeConfig) (domain.Channel, error)
}

// TransportFacade hides circumvention-client bootstrap and isolation
// behind the trivial "make me an isolated attempt" contract the engine
// needs (C1 in the design).
type TransportFacade interface {
	// BuildCommon bootstraps the single shared client the engine holds
	// for its lifetime. Returns BootstrapError on failure.
	BuildCommon(ctx context.Context) error
	// Isolate returns a lightweight per-probe handle.
	Isolate() ClientHandle
	// Parse turns a raw BridgeLine into a BridgeConfig. Parse failure is
	// a terminal, per-bridge outcome.
	Parse(line domain.BridgeLine) (domain.BridgeConfig, error)
}

// Prober runs C2: bounded-fan-out probing of a bridge list, returning a
// result per bridge and a channel for every bridge that came online.
type Prober interface {
	Probe(ctx context.Context, lines []domain.BridgeLine) (map[domain.BridgeLine]domain.BridgeResult, map[domain.BridgeLine]domain.Channel)
}
