package action

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/recoverykit/journey-engine/pkg/metrics"
	"github.com/recoverykit/journey-engine/pkg/rule"
	"github.com/recoverykit/journey-engine/pkg/signal"
	"github.com/sirupsen/logrus"
)

// Plan maps a rule ID to the action IDs it runs, in order.
type Plan map[string][]string

// Executor runs the planned actions for the triggers of one activity.
type Executor struct {
	registry *Registry
}

func NewExecutor(registry *Registry) *Executor {
	return &Executor{registry: registry}
}

// Run executes the actions of each trigger in trigger order and returns one
// result per planned action.
//
// Within a trigger, a failed required action skips the actions after it. An
// action already run for the same journey day during this call is skipped, so
// rules that share an action (two rules clearing one day's reminders) do not
// repeat it. A disabled action is skipped; an unknown one fails.
func (e *Executor) Run(ctx context.Context, triggers []*rule.Trigger, plan Plan, userCtx *signal.UserContext) []*ActionResult {
	var results []*ActionResult
	done := make(map[string]bool)

	for _, trigger := range triggers {
		log := logrus.WithFields(logrus.Fields{
			"userId": trigger.UserID,
			"ruleId": trigger.RuleID,
			"day":    trigger.Day,
		})

		actionIDs := plan[trigger.RuleID]
		if len(actionIDs) == 0 {
			log.Debug("trigger has no actions configured")
			continue
		}

		blocked := ""
		for _, actionID := range actionIDs {
			if blocked != "" {
				results = append(results, skipped(actionID, trigger, "required action "+blocked+" failed"))
				continue
			}
			if err := ctx.Err(); err != nil {
				results = append(results, skipped(actionID, trigger, err.Error()))
				continue
			}

			key := actionID + "/" + strconv.Itoa(trigger.Day)
			if done[key] {
				results = append(results, skipped(actionID, trigger, fmt.Sprintf("already ran for day %d", trigger.Day)))
				continue
			}

			result, required := e.execute(ctx, actionID, trigger, userCtx, log)
			results = append(results, result)
			switch result.Status {
			case StatusSucceeded:
				done[key] = true
			case StatusFailed:
				if required {
					blocked = actionID
				}
			}
		}
	}
	return results
}

func (e *Executor) execute(ctx context.Context, actionID string, trigger *rule.Trigger, userCtx *signal.UserContext, log *logrus.Entry) (*ActionResult, bool) {
	log = log.WithField("actionId", actionID)

	a, err := e.registry.Lookup(actionID)
	if errors.Is(err, ErrActionDisabled) {
		log.Debug("action disabled")
		return skipped(actionID, trigger, "disabled"), false
	}
	if err != nil {
		log.Errorf("cannot run action: %v", err)
		metrics.ActionExecutionsTotal.WithLabelValues(actionID, "failure").Inc()
		return failed(actionID, trigger, err), true
	}
	required := a.Config().Required

	effect, err := a.Execute(ctx, trigger, userCtx)
	if err != nil {
		log.WithField("required", required).Errorf("action failed: %v", err)
		metrics.ActionExecutionsTotal.WithLabelValues(actionID, "failure").Inc()
		return failed(actionID, trigger, err), required
	}

	metrics.ActionExecutionsTotal.WithLabelValues(actionID, "success").Inc()
	log.Debugf("action completed: %+v", effect)
	return succeeded(actionID, trigger, effect), required
}

// Registry returns the actions this executor runs.
func (e *Executor) Registry() *Registry {
	return e.registry
}
