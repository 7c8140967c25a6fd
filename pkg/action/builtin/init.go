package builtin

import (
	"context"

	"github.com/recoverykit/journey-engine/pkg/action"
	"github.com/recoverykit/journey-engine/pkg/engagement"
	"github.com/recoverykit/journey-engine/pkg/notifier"
)

// ReminderClearer removes the pending reminders of one journey day.
type ReminderClearer interface {
	ClearDayReminders(ctx context.Context, userID string, day int) error
}

// Dependencies holds dependencies needed by built-in actions.
// A nil dependency puts the action that needs it in dry-run mode.
type Dependencies struct {
	Trackers  *engagement.Factory
	Reminders ReminderClearer
	Notifier  notifier.Notifier
}

// RegisterActions registers built-in action factories with dependencies.
func RegisterActions(deps *Dependencies) {
	if deps == nil {
		deps = &Dependencies{}
	}

	action.RegisterActionType(CompleteJourneyDayActionID, func(config action.ActionConfig) (action.Action, error) {
		return NewCompleteJourneyDayAction(config, deps.Trackers), nil
	})

	action.RegisterActionType(ClearDayRemindersActionID, func(config action.ActionConfig) (action.Action, error) {
		return NewClearDayRemindersAction(config, deps.Reminders), nil
	})

	action.RegisterActionType(SendNotificationActionID, func(config action.ActionConfig) (action.Action, error) {
		return NewSendNotificationAction(config, deps.Notifier)
	})
}
