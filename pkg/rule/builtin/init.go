package builtin

import (
	"github.com/recoverykit/journey-engine/pkg/rule"
)

// RegisterBuiltinRules registers all built-in rule types for rule.Build.
// deps may be nil; rules that need a missing dependency degrade as documented on each rule.
func RegisterBuiltinRules(deps *rule.RuleDependencies) {
	rule.RegisterRuleType(JourneyDayCompletedRuleID, func(config rule.RuleConfig) (rule.Rule, error) {
		return NewJourneyDayCompletedRule(config, deps), nil
	})

	rule.RegisterRuleType(StreakMilestoneRuleID, func(config rule.RuleConfig) (rule.Rule, error) {
		return NewStreakMilestoneRule(config), nil
	})

	rule.RegisterRuleType(DailyGoalReachedRuleID, func(config rule.RuleConfig) (rule.Rule, error) {
		return NewDailyGoalReachedRule(config), nil
	})
}
