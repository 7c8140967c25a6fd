package action

import (
	"context"

	"github.com/recoverykit/journey-engine/pkg/rule"
	"github.com/recoverykit/journey-engine/pkg/signal"
)

// Action is a side effect a rule runs for a user. None of the journey
// effects can be taken back: a completed day stays completed and a shown
// notification stays shown. The executor orders and gates actions instead of
// rolling them back.
type Action interface {
	ID() string
	Name() string

	// Execute performs the action and reports what it changed.
	Execute(ctx context.Context, trigger *rule.Trigger, userCtx *signal.UserContext) (Effect, error)

	Config() ActionConfig
}

// Effect is what an action changed for the user.
type Effect struct {
	// CompletedDay is the journey day newly marked complete.
	CompletedDay int `json:"completedDay,omitempty"`
	// ClearedDay is the journey day whose pending reminders were dropped.
	ClearedDay int  `json:"clearedDay,omitempty"`
	Notified   bool `json:"notified,omitempty"`
	// DryRun is set when the action had no collaborator and only logged.
	DryRun bool `json:"dryRun,omitempty"`
}

// Status is how an action ended for one trigger.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// ActionResult is one action's outcome for one trigger.
type ActionResult struct {
	ActionID string
	RuleID   string
	Day      int
	Status   Status
	Effect   Effect
	Err      error
	// Reason explains a skip.
	Reason string
}

func succeeded(actionID string, trigger *rule.Trigger, effect Effect) *ActionResult {
	return &ActionResult{ActionID: actionID, RuleID: trigger.RuleID, Day: trigger.Day, Status: StatusSucceeded, Effect: effect}
}

func failed(actionID string, trigger *rule.Trigger, err error) *ActionResult {
	return &ActionResult{ActionID: actionID, RuleID: trigger.RuleID, Day: trigger.Day, Status: StatusFailed, Err: err}
}

func skipped(actionID string, trigger *rule.Trigger, reason string) *ActionResult {
	return &ActionResult{ActionID: actionID, RuleID: trigger.RuleID, Day: trigger.Day, Status: StatusSkipped, Reason: reason}
}
