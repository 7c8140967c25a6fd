package builtin

import (
	"context"
	"fmt"

	"github.com/recoverykit/journey-engine/pkg/action"
	"github.com/recoverykit/journey-engine/pkg/engagement"
	"github.com/recoverykit/journey-engine/pkg/rule"
	"github.com/recoverykit/journey-engine/pkg/signal"
	"github.com/sirupsen/logrus"
)

const (
	// CompleteJourneyDayActionID is the identifier for the journey day completion action
	CompleteJourneyDayActionID = "complete_journey_day"

	// ClearDayRemindersActionID is the identifier for the reminder clearing action
	ClearDayRemindersActionID = "clear_day_reminders"
)

func dayFromTrigger(trigger *rule.Trigger) (int, error) {
	if trigger.Day <= 0 {
		return 0, fmt.Errorf("%w: rule %s", action.ErrNoJourneyDay, trigger.RuleID)
	}
	return trigger.Day, nil
}

// CompleteJourneyDayAction marks the trigger's journey day complete for the user.
type CompleteJourneyDayAction struct {
	config   action.ActionConfig
	trackers *engagement.Factory
}

// NewCompleteJourneyDayAction creates a new journey day completion action.
func NewCompleteJourneyDayAction(config action.ActionConfig, trackers *engagement.Factory) *CompleteJourneyDayAction {
	return &CompleteJourneyDayAction{
		config:   config,
		trackers: trackers,
	}
}

// ID returns the action identifier.
func (a *CompleteJourneyDayAction) ID() string {
	return a.config.ID
}

// Name returns the action name.
func (a *CompleteJourneyDayAction) Name() string {
	return "Complete Journey Day"
}

// Config returns the action configuration.
func (a *CompleteJourneyDayAction) Config() action.ActionConfig {
	return a.config
}

// Execute marks the day complete. Completing an already completed day is not
// an error; the effect then carries no CompletedDay.
func (a *CompleteJourneyDayAction) Execute(ctx context.Context, trigger *rule.Trigger, userCtx *signal.UserContext) (action.Effect, error) {
	day, err := dayFromTrigger(trigger)
	if err != nil {
		return action.Effect{}, err
	}

	if a.trackers == nil {
		logrus.Warnf("[DRY RUN] would complete journey day %d for user %s", day, trigger.UserID)
		return action.Effect{DryRun: true}, nil
	}

	completed, err := a.trackers.For(trigger.UserID).CompleteJourneyDay(ctx, day)
	if err != nil {
		return action.Effect{}, fmt.Errorf("failed to complete journey day: %w", err)
	}
	if !completed {
		return action.Effect{}, nil
	}
	return action.Effect{CompletedDay: day}, nil
}

// ClearDayRemindersAction removes the pending reminders of the trigger's journey day.
type ClearDayRemindersAction struct {
	config    action.ActionConfig
	reminders ReminderClearer
}

// NewClearDayRemindersAction creates a new reminder clearing action.
func NewClearDayRemindersAction(config action.ActionConfig, reminders ReminderClearer) *ClearDayRemindersAction {
	return &ClearDayRemindersAction{
		config:    config,
		reminders: reminders,
	}
}

// ID returns the action identifier.
func (a *ClearDayRemindersAction) ID() string {
	return a.config.ID
}

// Name returns the action name.
func (a *ClearDayRemindersAction) Name() string {
	return "Clear Day Reminders"
}

// Config returns the action configuration.
func (a *ClearDayRemindersAction) Config() action.ActionConfig {
	return a.config
}

// Execute clears the day's reminders.
func (a *ClearDayRemindersAction) Execute(ctx context.Context, trigger *rule.Trigger, userCtx *signal.UserContext) (action.Effect, error) {
	day, err := dayFromTrigger(trigger)
	if err != nil {
		return action.Effect{}, err
	}

	if a.reminders == nil {
		logrus.Warnf("[DRY RUN] would clear reminders of day %d for user %s", day, trigger.UserID)
		return action.Effect{DryRun: true}, nil
	}

	if err := a.reminders.ClearDayReminders(ctx, trigger.UserID, day); err != nil {
		return action.Effect{}, fmt.Errorf("failed to clear day reminders: %w", err)
	}
	return action.Effect{ClearedDay: day}, nil
}
