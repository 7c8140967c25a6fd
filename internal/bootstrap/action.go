package bootstrap

import (
	"fmt"

	"github.com/recoverykit/journey-engine/pkg/action"
	actionBuiltin "github.com/recoverykit/journey-engine/pkg/action/builtin"
	"github.com/recoverykit/journey-engine/pkg/pipeline"
	"github.com/sirupsen/logrus"
)

// InitActionExecutor creates and initializes an action executor with actions from pipeline config.
//
// ============================================================
// DEVELOPER: Register custom action types here.
// ============================================================
// Actions run when rules trigger. The builtin actions:
// - complete_journey_day → marks the trigger's journey day complete
// - clear_day_reminders  → drops that day's pending reminders
// - send_notification    → templated in-app/OS notification
//
// Steps to add a new action:
// 1. Implement the Action interface in pkg/action/builtin/
// 2. Register the action type in pkg/action/builtin/init.go
// 3. Add the action to config/pipeline.yaml and map it to rules
//
// Actions receive their collaborators (trackers, reminder
// scheduler, notifier) through the Dependencies struct. Mark an
// action `required: true` when the actions after it must not run
// if it fails.
// ============================================================
func InitActionExecutor(
	pipelineConfig *pipeline.Config,
	deps *actionBuiltin.Dependencies,
) (*action.Executor, *action.Registry, error) {
	actionBuiltin.RegisterActions(deps)

	registry, err := action.Build(pipelineConfig.ActionConfigs())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build actions: %w", err)
	}

	logrus.Infof("registered %d actions", registry.Len())

	executor := action.NewExecutor(registry)
	logrus.Infof("initialized action executor")

	return executor, registry, nil
}
