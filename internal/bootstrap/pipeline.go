package bootstrap

import (
	"github.com/recoverykit/journey-engine/pkg/action"
	"github.com/recoverykit/journey-engine/pkg/pipeline"
	"github.com/recoverykit/journey-engine/pkg/rule"
	"github.com/recoverykit/journey-engine/pkg/signal"
	"github.com/sirupsen/logrus"
)

// InitPipeline creates and initializes the pipeline manager with rule-to-action mappings.
//
// ============================================================
// DEVELOPER: Configure rule-to-action mappings
// ============================================================
// The pipeline orchestrates the flow:
// Activity → Signal → Rules → Actions
//
// Rule-to-action mappings are configured in config/pipeline.yaml:
//
// rules:
//   - id: my-rule
//     type: my_rule_type
//     actions: [action1, action2]  # ← Actions to execute
//
// When a rule triggers its actions run in order. Journey effects
// cannot be undone, so nothing is rolled back: a failed required
// action skips the rest of that rule's list instead, and an action
// shared by two rules runs once per journey day.
// ============================================================
func InitPipeline(
	processor *signal.Processor,
	ruleEngine *rule.Engine,
	actionExecutor *action.Executor,
	pipelineConfig *pipeline.Config,
) *pipeline.Manager {
	plan := pipelineConfig.RuleActions()

	logrus.Infof("configured %d rule-to-action mappings", len(plan))

	manager := pipeline.NewManager(processor, ruleEngine, actionExecutor, plan)
	logrus.Infof("initialized pipeline manager")

	return manager
}
