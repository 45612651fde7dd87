package proctor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/greenroom-live/greenroom/internal/domain"
)

func TestResolveSeverity(t *testing.T) {
	// Explicit numbers win, including zero.
	assert.Equal(t, 7, ResolveSeverity(float64(7), domain.EventLookingAway))
	assert.Equal(t, 0, ResolveSeverity(float64(0), domain.EventNoFace))
	assert.Equal(t, 4, ResolveSeverity(4, "anything"))

	// Named levels, case-insensitive.
	assert.Equal(t, 1, ResolveSeverity("low", domain.EventNoFace))
	assert.Equal(t, 2, ResolveSeverity("Medium", "anything"))
	assert.Equal(t, 3, ResolveSeverity("HIGH", "anything"))

	// Unknown name falls through to the type table.
	assert.Equal(t, 3, ResolveSeverity("critical", domain.EventNoFace))

	// No hint at all: type table, then the unknown-type default.
	assert.Equal(t, 3, ResolveSeverity(nil, domain.EventMultipleFaces))
	assert.Equal(t, 2, ResolveSeverity(nil, domain.EventSuspiciousObject))
	assert.Equal(t, 2, ResolveSeverity(nil, domain.EventLookingAway))
	assert.Equal(t, 0, ResolveSeverity(nil, domain.EventModelsLoaded))
	assert.Equal(t, 0, ResolveSeverity(nil, domain.EventDetectionStarted))
	assert.Equal(t, 1, ResolveSeverity(nil, "phone_detected"))
}
