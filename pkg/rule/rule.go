package rule

import (
	"context"
	"time"

	"github.com/recoverykit/journey-engine/pkg/signal"
)

// Rule decides whether a logged activity should run actions.
type Rule interface {
	ID() string
	Name() string

	// SignalTypes lists the signal types the rule listens to. Empty means
	// every activity signal.
	SignalTypes() []string

	// Evaluate returns a trigger when sig matches, nil when it does not.
	// Errors are for signals the rule cannot read, never for a mismatch.
	Evaluate(ctx context.Context, sig signal.Signal) (*Trigger, error)

	Config() RuleConfig
}

// Trigger is a rule match. Day is the journey day the activity was logged
// for, zero for activities outside the program.
type Trigger struct {
	RuleID   string
	RuleType string
	UserID   string
	Day      int
	At       time.Time
	Reason   string
	Priority int
	// Metadata feeds notification templates.
	Metadata map[string]interface{}
}

// NewTrigger builds the trigger r emits for sig, stamped with the signal's
// time rather than the wall clock.
func NewTrigger(r Rule, sig signal.Signal, reason string) *Trigger {
	cfg := r.Config()
	t := &Trigger{
		RuleID:   r.ID(),
		RuleType: cfg.Type,
		UserID:   sig.UserID(),
		At:       sig.Timestamp(),
		Reason:   reason,
		Priority: cfg.Priority,
		Metadata: make(map[string]interface{}),
	}
	if activity := signal.AsActivity(sig); activity != nil {
		t.Day = activity.Input.DayNumber
	}
	return t
}

// With sets a metadata value and returns the trigger for chaining.
func (t *Trigger) With(key string, value interface{}) *Trigger {
	t.Metadata[key] = value
	return t
}
