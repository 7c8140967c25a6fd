package builtin

import (
	"context"
	"fmt"

	"github.com/recoverykit/journey-engine/pkg/rule"
	"github.com/recoverykit/journey-engine/pkg/signal"
	signalBuiltin "github.com/recoverykit/journey-engine/pkg/signal/builtin"
	"github.com/sirupsen/logrus"
)

const (
	// JourneyDayCompletedRuleID is the identifier for the journey day completion rule
	JourneyDayCompletedRuleID = "journey_day_completed"
)

// JourneyDayCompletedRule fires when a journey activity is logged for a day
// that is not complete yet. With require_unlocked (the default) the day must
// also be open according to the unlock schedule.
type JourneyDayCompletedRule struct {
	config          rule.RuleConfig
	unlocker        rule.DayUnlocker
	requireUnlocked bool
}

// NewJourneyDayCompletedRule creates a new journey day completion rule.
func NewJourneyDayCompletedRule(config rule.RuleConfig, deps *rule.RuleDependencies) *JourneyDayCompletedRule {
	r := &JourneyDayCompletedRule{
		config:          config,
		requireUnlocked: config.GetBool("require_unlocked", true),
	}
	if deps != nil {
		r.unlocker = deps.Unlocker
	}
	if r.requireUnlocked && r.unlocker == nil {
		logrus.Warnf("rule %s requires unlocked days but has no unlocker; unlock check skipped", config.ID)
	}
	return r
}

// ID returns the rule identifier.
func (r *JourneyDayCompletedRule) ID() string {
	return r.config.ID
}

// Name returns the rule name.
func (r *JourneyDayCompletedRule) Name() string {
	return "Journey Day Completed"
}

// SignalTypes returns the signal types this rule handles.
func (r *JourneyDayCompletedRule) SignalTypes() []string {
	return []string{signalBuiltin.TypeJourneyActivity}
}

// Config returns the rule configuration.
func (r *JourneyDayCompletedRule) Config() rule.RuleConfig {
	return r.config
}

// Evaluate checks whether the activity completes a new journey day.
func (r *JourneyDayCompletedRule) Evaluate(ctx context.Context, sig signal.Signal) (*rule.Trigger, error) {
	journeySig, ok := sig.(*signalBuiltin.JourneyActivitySignal)
	if !ok {
		return nil, fmt.Errorf("expected JourneyActivitySignal, got %T", sig)
	}

	if journeySig.Outcome == nil || journeySig.Outcome.DayAlreadyCompleted {
		return nil, nil
	}

	day := journeySig.DayNumber
	if r.requireUnlocked && r.unlocker != nil {
		progress := sig.Context().Progress
		if !r.unlocker.IsDayUnlocked(progress.CompletedDays, day, sig.Timestamp(), progress.CompletionDates) {
			logrus.Infof("journey activity for locked day %d from user %s; not completing", day, sig.UserID())
			return nil, nil
		}
	}

	trigger := rule.NewTrigger(r, sig, fmt.Sprintf("Journey day %d completed", day)).
		With("day_number", day).
		With("action", journeySig.Input.Action)
	trigger.Day = day
	return trigger, nil
}
