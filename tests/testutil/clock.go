package testutil

import (
	"time"

	"github.com/light-bringer/dynprice-service/internal/pkg/clock"
)

// OpeningTime is the fixed instant most fixtures start from.
var OpeningTime = time.Date(2026, 1, 1, 20, 0, 0, 0, time.UTC)

// NewFixedClock creates a mock clock fixed at the given time.
func NewFixedClock(t time.Time) *clock.MockClock {
	return clock.NewMockClock(t)
}

// NewSteppingClock starts at OpeningTime and moves one second per reading, so
// every ledger entry gets a distinct timestamp.
func NewSteppingClock() *clock.MockClock {
	return clock.NewTickingMockClock(OpeningTime, time.Second)
}
