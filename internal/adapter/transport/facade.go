// Package transport hides the cost and detail of circumvention-client
// bootstrap behind a trivial "make me an isolated attempt" call (C1 in
// the design: the transport-client facade).
package transport

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/net/proxy"

	"github.com/thushan/obfswatch/internal/core/domain"
	"github.com/thushan/obfswatch/internal/core/ports"
)

// Config configures the single common client the facade bootstraps for
// the engine's lifetime.
type Config struct {
	// BinPath is the filesystem path to the pluggable-transport helper
	// binary (e.g. lyrebird/obfs4proxy), set by --obfs4-bin.
	BinPath string
	// Protocol is the transport protocol name advertised to the helper.
	Protocol string
}

// Facade is the engine's only door into the circumvention network. One
// instance is built per process and shared read-only; every probe asks
// it for an Isolate()d handle instead of touching it directly.
type Facade struct {
	cfg      Config
	launcher *ptLauncher
	seq      atomic.Uint64
	mu       sync.Mutex
}

func New(cfg Config) *Facade {
	return &Facade{cfg: cfg}
}

var _ ports.TransportFacade = (*Facade)(nil)

// BuildCommon bootstraps the shared pluggable-transport helper. It is
// called exactly once, at engine start.
func (f *Facade) BuildCommon(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.launcher != nil {
		return nil
	}

	launcher, err := newPTLauncher(ctx, f.cfg.BinPath, f.cfg.Protocol)
	if err != nil {
		return domain.NewBootstrapError("launch pluggable transport helper", f.cfg.BinPath, err)
	}

	f.launcher = launcher
	return nil
}

// Stop tears down the shared helper process. Not part of the engine's
// steady-state contract; used only at process shutdown.
func (f *Facade) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.launcher != nil {
		f.launcher.stop()
	}
}

// Isolate returns a lightweight per-probe handle. It shares the
// launcher's single SOCKS proxy but authenticates with unique
// credentials, which most pluggable-transport helpers use as a stream
// isolation signal so no two probes end up sharing a circuit.
func (f *Facade) Isolate() ports.ClientHandle {
	seq := f.seq.Add(1)
	user, pass := formatIsolationAuth(seq)
	return &isolatedHandle{
		proxyAddr: f.launcher.proxyAddr,
		user:      user,
		pass:      pass,
	}
}

// Parse turns a raw BridgeLine into a BridgeConfig.
func (f *Facade) Parse(line domain.BridgeLine) (domain.BridgeConfig, error) {
	return ParseBridgeLine(line)
}

// isolatedHandle is a per-probe view over the common client: distinct
// SOCKS credentials, no shared state with any sibling handle.
type isolatedHandle struct {
	proxyAddr string
	user      string
	pass      string
}

// TryChannel attempts the handshake to one bridge through the shared
// pluggable-transport proxy and yields a Channel on success. Errors are
// flattened to a single-line, human-readable string.
func (h *isolatedHandle) TryChannel(ctx context.Context, cfg domain.BridgeConfig) (domain.Channel, error) {
	dialer, err := proxy.SOCKS5("tcp", h.proxyAddr, &proxy.Auth{User: h.user, Password: h.pass}, proxy.Direct)
	if err != nil {
		return nil, flattenError(fmt.Errorf("build socks dialer: %w", err))
	}

	var conn net.Conn
	if ctxDialer, ok := dialer.(proxy.ContextDialer); ok {
		conn, err = ctxDialer.DialContext(ctx, "tcp", cfg.Address)
	} else {
		conn, err = dialer.Dial("tcp", cfg.Address)
	}
	if err != nil {
		return nil, flattenError(fmt.Errorf("handshake to %s via %s: %w", cfg.Address, cfg.Protocol, err))
	}

	return newSessionChannel(conn), nil
}

// flattenError renders err as a single trimmed line, stripping any
// library-specific "error:" prefix so callers can surface it verbatim.
func flattenError(err error) error {
	msg := err.Error()
	msg = strings.ReplaceAll(msg, "\n", " ")
	msg = strings.TrimSpace(msg)
	msg = strings.TrimPrefix(msg, "error: ")
	return flatError(msg)
}

type flatError string

func (e flatError) Error() string { return string(e) }
