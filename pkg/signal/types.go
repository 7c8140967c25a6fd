package signal

import (
	"time"

	"github.com/recoverykit/journey-engine/pkg/engagement"
)

// TypeActivity is the signal type for a logged activity with no more specific mapper.
const TypeActivity = "activity"

// ActivitySignal represents one logged activity together with what it changed.
type ActivitySignal struct {
	BaseSignal
	Input   engagement.ActivityInput
	Outcome *engagement.ActivityOutcome
}

// NewActivitySignal creates a new activity signal.
func NewActivitySignal(userID string, timestamp time.Time, in engagement.ActivityInput, outcome *engagement.ActivityOutcome, context *UserContext) *ActivitySignal {
	metadata := map[string]interface{}{
		"action":        in.Action,
		"activity_type": string(in.Type),
	}
	if in.DayNumber > 0 {
		metadata["day_number"] = in.DayNumber
	}
	if outcome != nil {
		metadata["streak"] = outcome.Streak.CurrentStreak
		metadata["strength"] = outcome.Stats.RecoveryStrength
	}
	return &ActivitySignal{
		BaseSignal: NewBaseSignal(TypeActivity, userID, timestamp, metadata, context),
		Input:      in,
		Outcome:    outcome,
	}
}

// Activity returns the signal itself. Signals that embed an ActivitySignal
// inherit it, which lets rules reach the outcome without knowing the concrete type.
func (s *ActivitySignal) Activity() *ActivitySignal {
	return s
}

// WithType returns a copy of the signal under a different type.
func (s *ActivitySignal) WithType(signalType string) *ActivitySignal {
	out := *s
	out.signalType = signalType
	out.metadata = make(map[string]interface{}, len(s.metadata))
	for k, v := range s.metadata {
		out.metadata[k] = v
	}
	return &out
}

// ActivityCarrier is implemented by every signal built from a logged activity.
type ActivityCarrier interface {
	Activity() *ActivitySignal
}

// AsActivity returns the activity behind sig, or nil if sig was not built from one.
func AsActivity(sig Signal) *ActivitySignal {
	if carrier, ok := sig.(ActivityCarrier); ok {
		return carrier.Activity()
	}
	return nil
}
