package signal

import (
	"time"

	"github.com/recoverykit/journey-engine/pkg/state"
)

// Signal represents a normalized domain event with user context.
// Signals are produced by the Processor from logged activities and
// are consumed by the Rule Engine for evaluation.
type Signal interface {
	// Type returns the signal type identifier (e.g., "activity", "journey_activity").
	Type() string

	// UserID returns the user identifier.
	UserID() string

	// Timestamp returns when the signal occurred.
	Timestamp() time.Time

	// Metadata returns additional signal-specific data.
	// This allows rules to access signal-specific information without type assertions.
	Metadata() map[string]interface{}

	// Context returns the user's state right after the activity was logged.
	Context() *UserContext
}

// UserContext is a snapshot of a user's engagement state.
// Rules and actions read it; they never write through it.
type UserContext struct {
	UserID   string
	Progress state.JourneyProgress
	Today    state.DailyStats
	Streak   state.StreakData
	Info     map[string]interface{}
}

// BaseSignal carries the fields every signal shares.
type BaseSignal struct {
	signalType string
	userID     string
	timestamp  time.Time
	metadata   map[string]interface{}
	context    *UserContext
}

// NewBaseSignal creates a base signal. A nil metadata map is replaced by an empty one.
func NewBaseSignal(signalType, userID string, timestamp time.Time, metadata map[string]interface{}, context *UserContext) BaseSignal {
	if metadata == nil {
		metadata = make(map[string]interface{})
	}
	return BaseSignal{
		signalType: signalType,
		userID:     userID,
		timestamp:  timestamp,
		metadata:   metadata,
		context:    context,
	}
}

// Type implements Signal interface.
func (s *BaseSignal) Type() string {
	return s.signalType
}

// UserID implements Signal interface.
func (s *BaseSignal) UserID() string {
	return s.userID
}

// Timestamp implements Signal interface.
func (s *BaseSignal) Timestamp() time.Time {
	return s.timestamp
}

// Metadata implements Signal interface.
func (s *BaseSignal) Metadata() map[string]interface{} {
	return s.metadata
}

// Context implements Signal interface.
func (s *BaseSignal) Context() *UserContext {
	return s.context
}
