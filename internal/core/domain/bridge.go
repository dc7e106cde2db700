// Package domain holds the types shared across the bridge health engine.
package domain

import (
	"time"
)

// BridgeLine is the opaque textual descriptor supplied by an operator:
// protocol token, address, fingerprint and transport parameters
// whitespace-joined. Equality is byte-equality of the raw string.
type BridgeLine string

// HealthCheckErrorType classifies why a probe failed, mirroring the
// taxonomy a caller needs to decide whether a retry is worthwhile.
type HealthCheckErrorType int

const (
	ErrorTypeNone HealthCheckErrorType = iota
	ErrorTypeParse
	ErrorTypeBootstrap
	ErrorTypeNetwork
	ErrorTypeTimeout
	ErrorTypeProtocol
	ErrorTypeInternal
)

func (t HealthCheckErrorType) String() string {
	switch t {
	case ErrorTypeParse:
		return "parse"
	case ErrorTypeBootstrap:
		return "bootstrap"
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeTimeout:
		return "timeout"
	case ErrorTypeProtocol:
		return "protocol"
	case ErrorTypeInternal:
		return "internal"
	default:
		return "none"
	}
}

// BridgeResult is the observable status of one bridge at a point in time.
type BridgeResult struct {
	LastTested time.Time
	Error      string
	ErrorType  HealthCheckErrorType
	Functional bool
}

// Clone returns a value copy; BridgeResult has no reference fields but the
// method documents that callers may freely share the result across
// goroutines without synchronisation.
func (r BridgeResult) Clone() BridgeResult {
	return r
}

// BridgeConfig is the parsed form of a BridgeLine, ready to hand to the
// transport facade. Parsing happens exactly once, in the transport
// facade's Parse method.
type BridgeConfig struct {
	Raw         BridgeLine
	Protocol    string
	Address     string
	Fingerprint string
	Params      map[string]string
}

// Channel is an opened session to a bridge. It is a pure liveness token:
// the engine never reads or writes through it, only inspects IsClosing.
// Close tears the underlying session down and must be safe to call once
// the channel has already reported closing.
type Channel interface {
	IsClosing() bool
	Close() error
}
