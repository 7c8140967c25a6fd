package engine

import (
	"context"
	"fmt"

	"github.com/recoverykit/journey-engine/pkg/engagement"
	"github.com/recoverykit/journey-engine/pkg/journey"
	"github.com/recoverykit/journey-engine/pkg/notifier"
	"github.com/recoverykit/journey-engine/pkg/pipeline"
	"github.com/recoverykit/journey-engine/pkg/signal"
	"github.com/recoverykit/journey-engine/pkg/state"
)

// Session exposes the engine's operations for a single user.
type Session struct {
	engine  *Engine
	userID  string
	tracker *engagement.Tracker
}

// UserID returns the user the session is bound to.
func (s *Session) UserID() string {
	return s.userID
}

// Initialize creates the user's record. Calling it again leaves the record as is.
func (s *Session) Initialize(ctx context.Context, profile engagement.Profile) (state.JourneyProgress, bool, error) {
	progress, created, err := s.tracker.Initialize(ctx, profile)
	if err != nil || progress == nil {
		return state.JourneyProgress{}, created, err
	}
	return *progress, created, nil
}

// UpdateProfile edits the user's focus areas and recovery stage.
func (s *Session) UpdateProfile(ctx context.Context, focusAreas []string, stage string) error {
	return s.tracker.UpdateProfile(ctx, focusAreas, stage)
}

// GetJourneyProgress returns the user's completed days and current day.
func (s *Session) GetJourneyProgress(ctx context.Context) (state.JourneyProgress, error) {
	return s.tracker.GetJourneyProgress(ctx)
}

// IsDayUnlocked reports whether the user may start day now.
func (s *Session) IsDayUnlocked(ctx context.Context, day int) (bool, error) {
	progress, err := s.tracker.GetJourneyProgress(ctx)
	if err != nil {
		return false, err
	}
	return s.engine.opts.Machine.IsDayUnlocked(progress.CompletedDays, day, s.engine.opts.Clock.Now(), progress.CompletionDates), nil
}

// DayStatus places day in the user's locked, unlocked, completed progression.
func (s *Session) DayStatus(ctx context.Context, day int) (journey.DayStatus, error) {
	progress, err := s.tracker.GetJourneyProgress(ctx)
	if err != nil {
		return journey.DayLocked, err
	}
	return s.engine.opts.Machine.DayStatusOf(progress.CompletedDays, day, s.engine.opts.Clock.Now(), progress.CompletionDates), nil
}

// GetJourneyDay returns a day of a journey recoloured for the user's stage.
func (s *Session) GetJourneyDay(ctx context.Context, focusArea string, day int) (*journey.JourneyDay, error) {
	progress, err := s.tracker.GetJourneyProgress(ctx)
	if err != nil {
		return nil, err
	}
	return s.engine.GetJourneyDay(focusArea, day, progress.JourneyStage), nil
}

// GetJourneyWeek returns a week of a journey.
func (s *Session) GetJourneyWeek(focusArea string, week int) *journey.JourneyWeek {
	return s.engine.GetJourneyWeek(focusArea, week)
}

// GetPhaseModifier returns the overlay for the user's current stage.
func (s *Session) GetPhaseModifier(ctx context.Context) (journey.PhaseModifier, error) {
	progress, err := s.tracker.GetJourneyProgress(ctx)
	if err != nil {
		return journey.PhaseModifier{}, err
	}
	return s.engine.GetPhaseModifier(progress.JourneyStage), nil
}

// GetAvailableJourneys lists the journeys ordered by focus area.
func (s *Session) GetAvailableJourneys() []journey.JourneySummary {
	return s.engine.GetAvailableJourneys()
}

// GetAvailablePhases lists the recovery stages in progression order.
func (s *Session) GetAvailablePhases() []journey.PhaseModifier {
	return s.engine.GetAvailablePhases()
}

// LogActivity records an activity and runs it through the activity pipeline,
// which may complete a journey day, clear its reminders or celebrate a milestone.
// A user without a record gets an empty result.
func (s *Session) LogActivity(ctx context.Context, in engagement.ActivityInput) (*pipeline.Result, error) {
	return s.engine.opts.Pipeline.ProcessActivity(ctx, signal.ActivityEvent{
		UserID:        s.userID,
		ActivityInput: in,
	})
}

// GetActivityLog returns up to limit of the most recent activities, oldest first.
func (s *Session) GetActivityLog(ctx context.Context, limit int) ([]state.ActivityLogEntry, error) {
	return s.tracker.GetActivityLog(ctx, limit)
}

// GetTodaysStats returns today's counters and recovery strength.
func (s *Session) GetTodaysStats(ctx context.Context) (state.DailyStats, error) {
	return s.tracker.GetTodaysStats(ctx)
}

// GetStreakData returns the stored streak.
func (s *Session) GetStreakData(ctx context.Context) (state.StreakData, error) {
	return s.tracker.GetStreakData(ctx)
}

// GetCalendarData returns completed or missed per past date, see engagement.Tracker.GetCalendarData.
func (s *Session) GetCalendarData(ctx context.Context, monthsBack int) (map[string]state.CalendarStatus, error) {
	return s.tracker.GetCalendarData(ctx, monthsBack)
}

// CheckAndResetDaily makes sure today's stats exist.
func (s *Session) CheckAndResetDaily(ctx context.Context) (bool, error) {
	return s.tracker.CheckAndResetDaily(ctx)
}

// ScheduleReminders sets up today's deadline reminders for day, or clears them
// when completedToday is set.
func (s *Session) ScheduleReminders(ctx context.Context, day int, completedToday bool) ([]state.ReminderSchedule, error) {
	return s.engine.opts.Reminders.ScheduleReminders(ctx, s.userID, day, completedToday)
}

// ClearDayReminders drops the user's reminders for day.
func (s *Session) ClearDayReminders(ctx context.Context, day int) error {
	if err := journey.ValidateDay(day); err != nil {
		return err
	}
	return s.engine.opts.Reminders.ClearDayReminders(ctx, s.userID, day)
}

// GetScheduledNotifications lists the user's pending and sent reminders.
func (s *Session) GetScheduledNotifications(ctx context.Context) ([]state.ReminderSchedule, error) {
	return s.engine.opts.Reminders.GetScheduledNotifications(ctx, s.userID)
}

// RequestNotificationPermission asks for OS notification consent.
func (s *Session) RequestNotificationPermission(ctx context.Context) (state.NotificationPermission, error) {
	if s.engine.opts.Permissions == nil {
		return state.PermissionUnsupported, nil
	}
	permission, err := s.engine.opts.Permissions.RequestPermission(ctx, s.userID)
	if err != nil {
		return permission, fmt.Errorf("failed to request notification permission: %w", err)
	}
	return permission, nil
}

// SetNotificationPermission records the user's explicit decision.
func (s *Session) SetNotificationPermission(ctx context.Context, permission state.NotificationPermission) error {
	if s.engine.opts.Permissions == nil {
		return notifier.ErrUnsupported
	}
	return s.engine.opts.Permissions.SetPermission(ctx, s.userID, permission)
}

// GetNotifications returns up to limit of the user's recent in-app notifications.
func (s *Session) GetNotifications(ctx context.Context, limit int) ([]state.Toast, error) {
	if s.engine.opts.Toasts == nil {
		return []state.Toast{}, nil
	}
	return s.engine.opts.Toasts.Recent(ctx, s.userID, limit)
}
