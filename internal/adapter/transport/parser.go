package transport

import (
	"fmt"
	"strings"

	"github.com/thushan/obfswatch/internal/core/domain"
)

// ParseBridgeLine parses the whitespace-joined bridge descriptor into a
// BridgeConfig. The expected shape, mirroring the bridges.torproject.org
// format, is:
//
//	<protocol> <address> <fingerprint> [key=value ...]
//
// Parse failure is reported with a flat, single-line message suitable
// for direct use as a BridgeResult.Error.
func ParseBridgeLine(line domain.BridgeLine) (domain.BridgeConfig, error) {
	fields := strings.Fields(string(line))
	if len(fields) < 3 {
		return domain.BridgeConfig{}, fmt.Errorf("bridge line has %d fields, need at least protocol, address and fingerprint", len(fields))
	}

	protocol, address, fingerprint := fields[0], fields[1], fields[2]

	if protocol == "" {
		return domain.BridgeConfig{}, fmt.Errorf("empty transport protocol")
	}
	if !strings.Contains(address, ":") {
		return domain.BridgeConfig{}, fmt.Errorf("address %q is missing a port", address)
	}
	if len(fingerprint) < 20 {
		return domain.BridgeConfig{}, fmt.Errorf("fingerprint %q looks truncated", fingerprint)
	}

	params := make(map[string]string, len(fields)-3)
	for _, field := range fields[3:] {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			return domain.BridgeConfig{}, fmt.Errorf("transport parameter %q is not key=value", field)
		}
		params[key] = value
	}

	return domain.BridgeConfig{
		Raw:         line,
		Protocol:    protocol,
		Address:     address,
		Fingerprint: fingerprint,
		Params:      params,
	}, nil
}
