package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/recoverykit/journey-engine/pkg/engagement"
	"github.com/recoverykit/journey-engine/pkg/engine"
	"github.com/recoverykit/journey-engine/pkg/engine/enginetest"
	"github.com/recoverykit/journey-engine/pkg/journey"
	"github.com/recoverykit/journey-engine/pkg/state"
)

var start = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newSession(t *testing.T, opts enginetest.Options) (*enginetest.Env, *engine.Session) {
	t.Helper()
	env := enginetest.New(t, start, opts)
	session := env.Engine.Session("user-1")
	if _, created, err := session.Initialize(context.Background(), engagement.Profile{
		FocusAreas:   []string{"anxiety"},
		JourneyStage: "early_recovery",
	}); err != nil || !created {
		t.Fatalf("Initialize() = %v, %v", created, err)
	}
	return env, session
}

func journeyActivity(day int) engagement.ActivityInput {
	return engagement.ActivityInput{Action: "completed day", Type: state.ActivityJourney, DayNumber: day}
}

func toolActivity() engagement.ActivityInput {
	return engagement.ActivityInput{Action: "box breathing", Type: state.ActivityTool}
}

func TestNew_MissingDependency(t *testing.T) {
	_, err := engine.New(engine.Options{})
	if !errors.Is(err, engine.ErrMissingDependency) {
		t.Errorf("expected ErrMissingDependency, got %v", err)
	}
}

func TestSession_Initialize_Idempotent(t *testing.T) {
	env, session := newSession(t, enginetest.Options{})
	ctx := context.Background()

	env.Clock.Advance(48 * time.Hour)
	progress, created, err := session.Initialize(ctx, engagement.Profile{JourneyStage: "thriving"})
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if created {
		t.Error("expected second Initialize not to create a record")
	}
	if progress.JourneyStage != "early_recovery" {
		t.Errorf("expected original stage kept, got %q", progress.JourneyStage)
	}
}

func TestSession_DayProgression(t *testing.T) {
	env, session := newSession(t, enginetest.Options{})
	ctx := context.Background()

	tests := []struct {
		name string
		day  int
		want bool
	}{
		{"day one always open", 1, true},
		{"day two needs day one", 2, false},
		{"day zero", 0, false},
		{"past the program", 91, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := session.IsDayUnlocked(ctx, tt.day)
			if err != nil {
				t.Fatalf("IsDayUnlocked() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("IsDayUnlocked(%d) = %v, want %v", tt.day, got, tt.want)
			}
		})
	}

	result, err := session.LogActivity(ctx, journeyActivity(1))
	if err != nil {
		t.Fatalf("LogActivity() error = %v", err)
	}
	if !result.DayCompleted() {
		t.Fatal("expected day 1 to be completed by the pipeline")
	}

	// Completed at 09:00, day 2 opens at 00:01 tomorrow
	if unlocked, _ := session.IsDayUnlocked(ctx, 2); unlocked {
		t.Error("expected day 2 locked on the completion date")
	}

	env.Clock.Set(time.Date(2026, 3, 11, 0, 0, 59, 0, time.UTC))
	if unlocked, _ := session.IsDayUnlocked(ctx, 2); unlocked {
		t.Error("expected day 2 locked before 00:01")
	}

	env.Clock.Set(time.Date(2026, 3, 11, 0, 1, 0, 0, time.UTC))
	if unlocked, _ := session.IsDayUnlocked(ctx, 2); !unlocked {
		t.Error("expected day 2 unlocked at 00:01")
	}

	status, err := session.DayStatus(ctx, 1)
	if err != nil || status != journey.DayCompleted {
		t.Errorf("DayStatus(1) = %v, %v", status, err)
	}

	progress, err := session.GetJourneyProgress(ctx)
	if err != nil {
		t.Fatalf("GetJourneyProgress() error = %v", err)
	}
	if progress.CurrentDay != 2 || len(progress.CompletedDays) != 1 {
		t.Errorf("unexpected progress %+v", progress)
	}
}

func TestSession_CompletionClearsReminders(t *testing.T) {
	_, session := newSession(t, enginetest.Options{})
	ctx := context.Background()

	reminders, err := session.ScheduleReminders(ctx, 1, false)
	if err != nil {
		t.Fatalf("ScheduleReminders() error = %v", err)
	}
	if len(reminders) != 3 {
		t.Fatalf("expected 3 reminders at 09:00, got %d", len(reminders))
	}

	// Rescheduling the same day replaces rather than duplicates
	if _, err := session.ScheduleReminders(ctx, 1, false); err != nil {
		t.Fatalf("ScheduleReminders() error = %v", err)
	}
	pending, _ := session.GetScheduledNotifications(ctx)
	if len(pending) != 3 {
		t.Errorf("expected 3 reminders after rescheduling, got %d", len(pending))
	}

	if _, err := session.LogActivity(ctx, journeyActivity(1)); err != nil {
		t.Fatalf("LogActivity() error = %v", err)
	}
	pending, _ = session.GetScheduledNotifications(ctx)
	if len(pending) != 0 {
		t.Errorf("expected reminders cleared on completion, got %d", len(pending))
	}
}

func TestSession_ClearDayReminders_InvalidDay(t *testing.T) {
	_, session := newSession(t, enginetest.Options{})

	if err := session.ClearDayReminders(context.Background(), 0); !errors.Is(err, journey.ErrInvalidDay) {
		t.Errorf("expected ErrInvalidDay, got %v", err)
	}
}

func TestSession_DailyGoalNotification(t *testing.T) {
	_, session := newSession(t, enginetest.Options{})
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		if _, err := session.LogActivity(ctx, toolActivity()); err != nil {
			t.Fatalf("LogActivity() error = %v", err)
		}
	}

	stats, err := session.GetTodaysStats(ctx)
	if err != nil {
		t.Fatalf("GetTodaysStats() error = %v", err)
	}
	if stats.ActionsToday != 6 || stats.ToolsUsedToday != 6 {
		t.Errorf("unexpected counters %+v", stats)
	}
	if stats.RecoveryStrength != 100 || stats.WellnessLevel != state.WellnessGood {
		t.Errorf("expected strength 100 and good wellness, got %d %s", stats.RecoveryStrength, stats.WellnessLevel)
	}

	toasts, err := session.GetNotifications(ctx, 10)
	if err != nil {
		t.Fatalf("GetNotifications() error = %v", err)
	}
	if len(toasts) != 1 {
		t.Fatalf("expected one goal notification, got %d", len(toasts))
	}
	if toasts[0].Title != "Recovery strength at 100%" {
		t.Errorf("unexpected title %q", toasts[0].Title)
	}
}

func TestSession_StreakMilestone(t *testing.T) {
	env, session := newSession(t, enginetest.Options{})
	ctx := context.Background()

	for day := 0; day < 3; day++ {
		if _, err := session.LogActivity(ctx, toolActivity()); err != nil {
			t.Fatalf("LogActivity() error = %v", err)
		}
		env.Clock.Advance(24 * time.Hour)
	}

	streak, err := session.GetStreakData(ctx)
	if err != nil {
		t.Fatalf("GetStreakData() error = %v", err)
	}
	if streak.CurrentStreak != 3 || streak.LongestStreak != 3 {
		t.Errorf("expected a 3-day streak, got %+v", streak)
	}

	toasts, _ := session.GetNotifications(ctx, 10)
	if len(toasts) != 1 || toasts[0].Title != "3-day streak" {
		t.Errorf("expected one 3-day streak notification, got %+v", toasts)
	}
}

func TestSession_CalendarAndDailyReset(t *testing.T) {
	env, session := newSession(t, enginetest.Options{})
	ctx := context.Background()

	if _, err := session.LogActivity(ctx, toolActivity()); err != nil {
		t.Fatalf("LogActivity() error = %v", err)
	}

	env.Clock.Set(time.Date(2026, 3, 12, 8, 0, 0, 0, time.UTC))

	reset, err := session.CheckAndResetDaily(ctx)
	if err != nil || !reset {
		t.Fatalf("CheckAndResetDaily() = %v, %v", reset, err)
	}
	if reset, _ := session.CheckAndResetDaily(ctx); reset {
		t.Error("expected the second reset on the same day to be a no-op")
	}

	calendar, err := session.GetCalendarData(ctx, 0)
	if err != nil {
		t.Fatalf("GetCalendarData() error = %v", err)
	}
	want := map[string]state.CalendarStatus{
		"2026-03-10": state.CalendarCompleted,
		"2026-03-11": state.CalendarMissed,
	}
	if len(calendar) != len(want) {
		t.Fatalf("expected %d dates, got %v", len(want), calendar)
	}
	for date, status := range want {
		if calendar[date] != status {
			t.Errorf("calendar[%s] = %q, want %q", date, calendar[date], status)
		}
	}
}

func TestSession_AbsentUser(t *testing.T) {
	env := enginetest.New(t, start, enginetest.Options{})
	session := env.Engine.Session("ghost")
	ctx := context.Background()

	result, err := session.LogActivity(ctx, toolActivity())
	if err != nil {
		t.Fatalf("LogActivity() error = %v", err)
	}
	if result.Outcome != nil {
		t.Error("expected no outcome for an absent user")
	}

	stats, err := session.GetTodaysStats(ctx)
	if err != nil {
		t.Fatalf("GetTodaysStats() error = %v", err)
	}
	if stats.ActionsToday != 0 || stats.Date != "2026-03-10" {
		t.Errorf("expected zeroed stats for today, got %+v", stats)
	}

	progress, err := session.GetJourneyProgress(ctx)
	if err != nil || progress.CurrentDay != 1 {
		t.Errorf("expected default progress at day 1, got %+v, %v", progress, err)
	}
}

func TestSession_InvalidActivity(t *testing.T) {
	_, session := newSession(t, enginetest.Options{})

	_, err := session.LogActivity(context.Background(), engagement.ActivityInput{Action: "x", Type: "dancing"})
	if !errors.Is(err, engagement.ErrInvalidActivity) {
		t.Errorf("expected ErrInvalidActivity, got %v", err)
	}
}

func TestSession_RequestNotificationPermission(t *testing.T) {
	tests := []struct {
		name       string
		webhookURL string
		want       state.NotificationPermission
	}{
		{"no gateway", "", state.PermissionUnsupported},
		{"with gateway", "http://gateway.invalid/push", state.PermissionGranted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, session := newSession(t, enginetest.Options{WebhookURL: tt.webhookURL})

			got, err := session.RequestNotificationPermission(context.Background())
			if err != nil {
				t.Fatalf("RequestNotificationPermission() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSession_PhaseOverlay(t *testing.T) {
	_, session := newSession(t, enginetest.Options{})
	ctx := context.Background()

	modifier, err := session.GetPhaseModifier(ctx)
	if err != nil {
		t.Fatalf("GetPhaseModifier() error = %v", err)
	}
	if modifier.Stage != "early_recovery" {
		t.Errorf("expected early_recovery overlay, got %q", modifier.Stage)
	}

	day, err := session.GetJourneyDay(ctx, "anxiety", 1)
	if err != nil || day == nil {
		t.Fatalf("GetJourneyDay() = %v, %v", day, err)
	}
	if missing, _ := session.GetJourneyDay(ctx, "unknown", 1); missing != nil {
		t.Error("expected nil for an unknown focus area")
	}
	if week := session.GetJourneyWeek("anxiety", 14); week != nil {
		t.Error("expected nil for a week past the program")
	}
}
