// Package proctor ingests client-reported integrity events and derives
// scores and reports from them. It shares nothing with the live
// signaling core beyond the session id used to resolve interviews.
package proctor

import (
	"strings"

	"github.com/greenroom-live/greenroom/internal/domain"
)

// Severity resolution is an ordered chain of total functions; the
// first hit wins: explicit number, then named level, then the
// per-type table. The table values are part of the observable
// contract, as are the score deductions in scoring.go.

var namedSeverities = map[string]int{
	"low":    1,
	"medium": 2,
	"high":   3,
}

var typeSeverities = map[string]int{
	domain.EventNoFace:           3,
	domain.EventMultipleFaces:    3,
	domain.EventSuspiciousObject: 2,
	domain.EventLookingAway:      2,
	domain.EventModelsLoaded:     0,
	domain.EventDetectionStarted: 0,
	domain.EventDetectionStopped: 0,
}

func numericSeverity(raw any) (int, bool) {
	switch v := raw.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

func namedSeverity(raw any) (int, bool) {
	s, ok := raw.(string)
	if !ok {
		return 0, false
	}
	n, ok := namedSeverities[strings.ToLower(s)]
	return n, ok
}

func typeSeverity(eventType string) int {
	if n, ok := typeSeverities[eventType]; ok {
		return n
	}
	return 1
}

// ResolveSeverity coerces whatever the client sent into the integer
// severity scale (0 = informational).
func ResolveSeverity(raw any, eventType string) int {
	if n, ok := numericSeverity(raw); ok {
		return n
	}
	if n, ok := namedSeverity(raw); ok {
		return n
	}
	return typeSeverity(eventType)
}
