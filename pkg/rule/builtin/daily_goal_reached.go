package builtin

import (
	"context"
	"fmt"

	"github.com/recoverykit/journey-engine/pkg/rule"
	"github.com/recoverykit/journey-engine/pkg/signal"
)

const (
	// DailyGoalReachedRuleID is the identifier for the daily goal rule
	DailyGoalReachedRuleID = "daily_goal_reached"

	// DefaultDailyGoalStrength is the recovery strength that counts as reaching the goal
	DefaultDailyGoalStrength = 100
)

// DailyGoalReachedRule fires on the activity that lifts recovery strength to the goal.
// Later activities on the same day do not fire it again.
type DailyGoalReachedRule struct {
	config rule.RuleConfig
	goal   int
}

// NewDailyGoalReachedRule creates a new daily goal rule.
func NewDailyGoalReachedRule(config rule.RuleConfig) *DailyGoalReachedRule {
	return &DailyGoalReachedRule{
		config: config,
		goal:   config.GetInt("strength", DefaultDailyGoalStrength),
	}
}

// ID returns the rule identifier.
func (r *DailyGoalReachedRule) ID() string {
	return r.config.ID
}

// Name returns the rule name.
func (r *DailyGoalReachedRule) Name() string {
	return "Daily Goal Reached"
}

// SignalTypes returns the signal types this rule handles.
func (r *DailyGoalReachedRule) SignalTypes() []string {
	return []string{}
}

// Config returns the rule configuration.
func (r *DailyGoalReachedRule) Config() rule.RuleConfig {
	return r.config
}

// Evaluate checks whether strength crossed the goal on this activity.
func (r *DailyGoalReachedRule) Evaluate(ctx context.Context, sig signal.Signal) (*rule.Trigger, error) {
	activity := signal.AsActivity(sig)
	if activity == nil {
		return nil, fmt.Errorf("expected an activity signal, got %T", sig)
	}

	outcome := activity.Outcome
	if outcome == nil {
		return nil, nil
	}
	if outcome.StrengthBefore >= r.goal || outcome.Stats.RecoveryStrength < r.goal {
		return nil, nil
	}

	return rule.NewTrigger(r, sig, "Daily recovery goal reached").
		With("strength", outcome.Stats.RecoveryStrength).
		With("actions_today", outcome.Stats.ActionsToday), nil
}
