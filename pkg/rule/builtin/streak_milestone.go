package builtin

import (
	"context"
	"fmt"

	"github.com/recoverykit/journey-engine/pkg/rule"
	"github.com/recoverykit/journey-engine/pkg/signal"
)

const (
	// StreakMilestoneRuleID is the identifier for the streak milestone rule
	StreakMilestoneRuleID = "streak_milestone"
)

// DefaultStreakMilestones are the streak lengths celebrated when none are configured.
var DefaultStreakMilestones = []int{3, 7, 14, 30, 60, 90}

// StreakMilestoneRule fires on the first activity of a day whose streak lands on a milestone.
type StreakMilestoneRule struct {
	config     rule.RuleConfig
	milestones map[int]bool
}

// NewStreakMilestoneRule creates a new streak milestone rule.
func NewStreakMilestoneRule(config rule.RuleConfig) *StreakMilestoneRule {
	milestones := config.GetIntSlice("milestones", DefaultStreakMilestones)

	set := make(map[int]bool, len(milestones))
	for _, m := range milestones {
		if m > 0 {
			set[m] = true
		}
	}
	return &StreakMilestoneRule{
		config:     config,
		milestones: set,
	}
}

// ID returns the rule identifier.
func (r *StreakMilestoneRule) ID() string {
	return r.config.ID
}

// Name returns the rule name.
func (r *StreakMilestoneRule) Name() string {
	return "Streak Milestone"
}

// SignalTypes returns the signal types this rule handles. Any activity can extend a streak.
func (r *StreakMilestoneRule) SignalTypes() []string {
	return []string{}
}

// Config returns the rule configuration.
func (r *StreakMilestoneRule) Config() rule.RuleConfig {
	return r.config
}

// Evaluate checks whether this activity moved the streak onto a milestone.
func (r *StreakMilestoneRule) Evaluate(ctx context.Context, sig signal.Signal) (*rule.Trigger, error) {
	activity := signal.AsActivity(sig)
	if activity == nil {
		return nil, fmt.Errorf("expected an activity signal, got %T", sig)
	}

	outcome := activity.Outcome
	if outcome == nil || !outcome.StreakAdvanced() {
		return nil, nil
	}

	streak := outcome.Streak.CurrentStreak
	if !r.milestones[streak] {
		return nil, nil
	}

	return rule.NewTrigger(r, sig, fmt.Sprintf("%d-day streak reached", streak)).
		With("streak", streak).
		With("longest_streak", outcome.Streak.LongestStreak), nil
}
