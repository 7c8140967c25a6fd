package signal

import (
	"context"
	"errors"
	"fmt"

	"github.com/recoverykit/journey-engine/pkg/engagement"
	"github.com/sirupsen/logrus"
)

// ErrMissingUser is returned for events without a user ID.
var ErrMissingUser = errors.New("user ID is empty")

// ActivityEvent is an activity reported by a client.
type ActivityEvent struct {
	UserID string
	engagement.ActivityInput
}

// Processor converts activity events into domain signals with enriched context.
// Logging the activity is part of processing: the signal describes what the log changed.
type Processor struct {
	trackers       *engagement.Factory
	mapperRegistry *MapperRegistry
}

// NewProcessor creates a new signal processor.
func NewProcessor(trackers *engagement.Factory) *Processor {
	return &Processor{
		trackers:       trackers,
		mapperRegistry: NewMapperRegistry(),
	}
}

// GetMapperRegistry returns the mapper registry for this processor.
// This allows registering custom signal mappers.
func (p *Processor) GetMapperRegistry() *MapperRegistry {
	return p.mapperRegistry
}

// ProcessActivity logs the activity through the user's tracker and converts the
// outcome into a signal. It returns a nil signal when the user has no record.
func (p *Processor) ProcessActivity(ctx context.Context, event ActivityEvent) (Signal, *engagement.ActivityOutcome, error) {
	if event.UserID == "" {
		return nil, nil, ErrMissingUser
	}

	tracker := p.trackers.For(event.UserID)
	outcome, err := tracker.LogActivity(ctx, event.ActivityInput)
	if err != nil {
		return nil, nil, err
	}
	if outcome == nil {
		logrus.Debugf("activity for unknown user %s produced no signal", event.UserID)
		return nil, nil, nil
	}

	progress, err := tracker.GetJourneyProgress(ctx)
	if err != nil {
		return nil, outcome, fmt.Errorf("failed to load user context for user %s: %w", event.UserID, err)
	}
	userCtx := BuildUserContext(event.UserID, progress, outcome)

	base := NewActivitySignal(event.UserID, outcome.Entry.Timestamp, event.ActivityInput, outcome, userCtx)

	// Try to find a registered mapper for this activity type
	if mapper := p.mapperRegistry.Get(event.Type); mapper != nil {
		sig := mapper.MapToSignal(base)
		logrus.Debugf("processed activity for user %s into %s (type=%s)", event.UserID, sig.Type(), event.Type)
		return sig, outcome, nil
	}

	logrus.Debugf("processed activity for user %s into %s (type=%s)", event.UserID, base.Type(), event.Type)
	return base, outcome, nil
}
