package app

import (
	"time"

	"github.com/thushan/obfswatch/internal/core/domain"
)

// bridgeResultDTO is the wire shape of domain.BridgeResult: last_tested
// uses RFC-3339 with nanosecond precision and error is omitted entirely
// when the bridge is healthy, rather than serialised as an empty string.
type bridgeResultDTO struct {
	Functional bool   `json:"functional"`
	LastTested string `json:"last_tested"`
	Error      string `json:"error,omitempty"`
}

func toBridgeResultDTO(r domain.BridgeResult) bridgeResultDTO {
	return bridgeResultDTO{
		Functional: r.Functional,
		LastTested: r.LastTested.Format(time.RFC3339Nano),
		Error:      r.Error,
	}
}

func toResultsDTO(results map[domain.BridgeLine]domain.BridgeResult) map[string]bridgeResultDTO {
	out := make(map[string]bridgeResultDTO, len(results))
	for line, res := range results {
		out[string(line)] = toBridgeResultDTO(res)
	}
	return out
}

type bridgeLinesRequest struct {
	BridgeLines []string `json:"bridge_lines"`
}

func (r bridgeLinesRequest) toDomain() []domain.BridgeLine {
	lines := make([]domain.BridgeLine, len(r.BridgeLines))
	for i, l := range r.BridgeLines {
		lines[i] = domain.BridgeLine(l)
	}
	return lines
}

type bridgeStateResponse struct {
	BridgeResults map[string]bridgeResultDTO `json:"bridge_results"`
	Error         string                     `json:"error,omitempty"`
	Time          float64                    `json:"time"`
}

type updatesResponse struct {
	BridgeResults map[string]bridgeResultDTO `json:"bridge_results"`
}
