package engagement

import (
	"github.com/recoverykit/journey-engine/pkg/clock"
	"github.com/recoverykit/journey-engine/pkg/service"
)

// Factory hands out trackers that share one store and clock.
type Factory struct {
	store service.StateStore
	clock clock.Clock
}

func NewFactory(store service.StateStore, clk clock.Clock) *Factory {
	return &Factory{store: store, clock: clk}
}

// For returns the tracker for userID.
func (f *Factory) For(userID string) *Tracker {
	return NewTracker(userID, f.store, f.clock)
}
