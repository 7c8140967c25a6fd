package bootstrap

import (
	"fmt"

	"github.com/recoverykit/journey-engine/pkg/pipeline"
	"github.com/recoverykit/journey-engine/pkg/rule"
	ruleBuiltin "github.com/recoverykit/journey-engine/pkg/rule/builtin"
	"github.com/sirupsen/logrus"
)

// InitRuleEngine creates and initializes a rule engine with rules from pipeline config.
//
// ============================================================
// DEVELOPER: Register custom rule types here.
// ============================================================
// Rules decide whether a logged activity should trigger actions.
// The builtin rules detect:
// - journey_day_completed → an unlocked journey day was done
// - streak_milestone      → the streak reached a milestone
// - daily_goal_reached    → recovery strength hit the goal
//
// Steps to add a new rule:
// 1. Implement the Rule interface in pkg/rule/builtin/
// 2. Register the rule type in pkg/rule/builtin/init.go
// 3. Add rule configuration to config/pipeline.yaml
// ============================================================
func InitRuleEngine(pipelineConfig *pipeline.Config, deps *rule.RuleDependencies) (*rule.Engine, *rule.Registry, error) {
	ruleBuiltin.RegisterBuiltinRules(deps)

	registry, err := rule.Build(pipelineConfig.RuleConfigs())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build rules: %w", err)
	}

	logrus.Infof("registered %d rules", registry.Len())

	engine := rule.NewEngine(registry)
	logrus.Infof("initialized rule engine")

	return engine, registry, nil
}
