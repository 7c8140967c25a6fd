package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/recoverykit/journey-engine/pkg/action"
	"github.com/recoverykit/journey-engine/pkg/engagement"
	"github.com/recoverykit/journey-engine/pkg/rule"
	"github.com/recoverykit/journey-engine/pkg/signal"
	"github.com/sirupsen/logrus"
)

// Manager orchestrates the complete activity pipeline:
// Activity → Signal → Rules → Actions
type Manager struct {
	processor *signal.Processor
	engine    *rule.Engine
	executor  *action.Executor
	plan      action.Plan

	eventsProcessed  atomic.Int64
	signalsGenerated atomic.Int64
	evaluations      atomic.Int64
	triggers         atomic.Int64
	actionsExecuted  atomic.Int64
	actionsSucceeded atomic.Int64
	actionsFailed    atomic.Int64
	actionsSkipped   atomic.Int64
}

// Result describes what one processed activity did.
type Result struct {
	Outcome  *engagement.ActivityOutcome
	Signal   signal.Signal
	Triggers []*rule.Trigger
	Actions  []*action.ActionResult
}

// CompletedDay returns the journey day an action of this run newly
// completed, or 0.
func (r *Result) CompletedDay() int {
	if r == nil {
		return 0
	}
	for _, res := range r.Actions {
		if res.Status == action.StatusSucceeded && res.Effect.CompletedDay > 0 {
			return res.Effect.CompletedDay
		}
	}
	return 0
}

// DayCompleted reports whether an action of this run completed a journey day.
func (r *Result) DayCompleted() bool {
	return r.CompletedDay() > 0
}

// Failed returns the results of the actions that failed.
func (r *Result) Failed() []*action.ActionResult {
	if r == nil {
		return nil
	}
	var out []*action.ActionResult
	for _, res := range r.Actions {
		if res.Status == action.StatusFailed {
			out = append(out, res)
		}
	}
	return out
}

// NewManager creates a new pipeline manager with all required components.
// plan maps rule IDs to the action IDs they run.
func NewManager(processor *signal.Processor, engine *rule.Engine, executor *action.Executor, plan action.Plan) *Manager {
	if plan == nil {
		plan = make(action.Plan)
	}

	return &Manager{
		processor: processor,
		engine:    engine,
		executor:  executor,
		plan:      plan,
	}
}

// ProcessActivity logs an activity and runs the resulting signal through the rules
// and their actions. Action failures are logged and reported in the result, they
// do not fail the call: the activity itself has already been recorded.
func (m *Manager) ProcessActivity(ctx context.Context, event signal.ActivityEvent) (*Result, error) {
	log := logrus.WithFields(logrus.Fields{
		"userId": event.UserID,
		"type":   event.Type,
		"action": event.Action,
	})
	log.Debug("processing activity through pipeline")
	m.eventsProcessed.Add(1)

	sig, outcome, err := m.processor.ProcessActivity(ctx, event)
	if err != nil {
		log.WithError(err).Warn("failed to process activity to signal")
		return nil, fmt.Errorf("signal processing failed: %w", err)
	}

	result := &Result{Outcome: outcome, Signal: sig}
	if sig == nil {
		log.Debug("activity did not generate a signal, skipping pipeline")
		return result, nil
	}
	m.signalsGenerated.Add(1)

	triggers, actions, err := m.evaluateAndExecute(ctx, sig)
	result.Triggers = triggers
	result.Actions = actions
	return result, err
}

// evaluateAndExecute evaluates rules for a signal and executes triggered actions.
func (m *Manager) evaluateAndExecute(ctx context.Context, sig signal.Signal) ([]*rule.Trigger, []*action.ActionResult, error) {
	log := logrus.WithFields(logrus.Fields{
		"userId":     sig.UserID(),
		"signalType": sig.Type(),
	})

	m.evaluations.Add(1)
	triggers, err := m.engine.Evaluate(ctx, sig)
	if err != nil {
		log.WithError(err).Error("rule evaluation failed")
		return nil, nil, fmt.Errorf("rule evaluation failed: %w", err)
	}

	if len(triggers) == 0 {
		log.Debug("no rules triggered for signal")
		return nil, nil, nil
	}
	m.triggers.Add(int64(len(triggers)))
	log.WithField("triggerCount", len(triggers)).Info("rules triggered")

	results := m.executor.Run(ctx, triggers, m.plan, sig.Context())

	var succeeded, failed, skipped int64
	for _, res := range results {
		switch res.Status {
		case action.StatusSucceeded:
			succeeded++
		case action.StatusFailed:
			failed++
			log.WithFields(logrus.Fields{
				"ruleId":   res.RuleID,
				"actionId": res.ActionID,
			}).WithError(res.Err).Error("action execution failed")
		case action.StatusSkipped:
			skipped++
		}
	}
	m.actionsExecuted.Add(succeeded + failed)
	m.actionsSucceeded.Add(succeeded)
	m.actionsFailed.Add(failed)
	m.actionsSkipped.Add(skipped)

	log.WithFields(logrus.Fields{
		"success": succeeded,
		"failed":  failed,
		"skipped": skipped,
	}).Info("action execution completed")

	return triggers, results, nil
}

// Stats returns pipeline statistics (for observability).
type Stats struct {
	ProcessorStats ProcessorStats `json:"processor"`
	EngineStats    EngineStats    `json:"engine"`
	ExecutorStats  ExecutorStats  `json:"executor"`
}

// ProcessorStats contains signal processor statistics.
type ProcessorStats struct {
	TotalEventsProcessed int64 `json:"total_events_processed"`
	SignalsGenerated     int64 `json:"signals_generated"`
}

// EngineStats contains rule engine statistics.
type EngineStats struct {
	TotalEvaluations  int64 `json:"total_evaluations"`
	TriggersGenerated int64 `json:"triggers_generated"`
}

// ExecutorStats contains action executor statistics.
type ExecutorStats struct {
	TotalActionsExecuted int64 `json:"total_actions_executed"`
	SuccessfulActions    int64 `json:"successful_actions"`
	FailedActions        int64 `json:"failed_actions"`
	SkippedActions       int64 `json:"skipped_actions"`
}

// GetStats returns the counters accumulated since the manager was created.
func (m *Manager) GetStats() Stats {
	return Stats{
		ProcessorStats: ProcessorStats{
			TotalEventsProcessed: m.eventsProcessed.Load(),
			SignalsGenerated:     m.signalsGenerated.Load(),
		},
		EngineStats: EngineStats{
			TotalEvaluations:  m.evaluations.Load(),
			TriggersGenerated: m.triggers.Load(),
		},
		ExecutorStats: ExecutorStats{
			TotalActionsExecuted: m.actionsExecuted.Load(),
			SuccessfulActions:    m.actionsSucceeded.Load(),
			FailedActions:        m.actionsFailed.Load(),
			SkippedActions:       m.actionsSkipped.Load(),
		},
	}
}
