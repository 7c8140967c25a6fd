package engagement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/recoverykit/journey-engine/pkg/clock"
	"github.com/recoverykit/journey-engine/pkg/journey"
	"github.com/recoverykit/journey-engine/pkg/metrics"
	"github.com/recoverykit/journey-engine/pkg/service"
	"github.com/recoverykit/journey-engine/pkg/state"
	"github.com/sirupsen/logrus"
)

// ErrInvalidActivity is returned when an activity has no action or an unknown type.
var ErrInvalidActivity = errors.New("invalid activity")

// ActivityInput describes one activity to log.
type ActivityInput struct {
	Action    string                 `json:"action"`
	Type      state.ActivityType     `json:"type"`
	DayNumber int                    `json:"dayNumber,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// Validate checks the input before any state is touched.
func (in ActivityInput) Validate() error {
	if in.Action == "" {
		return fmt.Errorf("%w: empty action", ErrInvalidActivity)
	}
	if !in.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidActivity, in.Type)
	}
	if in.DayNumber != 0 {
		if err := journey.ValidateDay(in.DayNumber); err != nil {
			return err
		}
	}
	return nil
}

// ActivityOutcome reports what one LogActivity call changed.
type ActivityOutcome struct {
	Entry               state.ActivityLogEntry `json:"entry"`
	Date                string                 `json:"date"`
	Stats               state.DailyStats       `json:"stats"`
	StrengthBefore      int                    `json:"strengthBefore"`
	StreakBefore        state.StreakData       `json:"streakBefore"`
	Streak              state.StreakData       `json:"streak"`
	DayAlreadyCompleted bool                   `json:"dayAlreadyCompleted"`
}

// StreakAdvanced reports whether this was the first activity counted toward
// the streak today, i.e. the streak took a new value.
func (o *ActivityOutcome) StreakAdvanced() bool {
	return o.Streak.LastActivityDate != o.StreakBefore.LastActivityDate
}

// Profile is the self-reported part of a user's journey.
type Profile struct {
	FocusAreas   []string `json:"focusAreas"`
	JourneyStage string   `json:"journeyStage"`
}

// Tracker owns the engagement data of a single user: daily stats, streak,
// activity log and journey progress. Operations are read-modify-write against
// the store; callers serialize concurrent calls for the same user.
//
// A missing or unreadable record degrades reads to defaults and turns writes
// into logged no-ops. Only Initialize creates a record.
type Tracker struct {
	userID string
	store  service.StateStore
	clock  clock.Clock
}

// NewTracker creates a tracker for userID.
func NewTracker(userID string, store service.StateStore, clk clock.Clock) *Tracker {
	return &Tracker{
		userID: userID,
		store:  store,
		clock:  clk,
	}
}

// UserID returns the user this tracker serves.
func (t *Tracker) UserID() string {
	return t.userID
}

func (t *Tracker) now() time.Time {
	return t.clock.Now().In(t.clock.Location())
}

func (t *Tracker) log() *logrus.Entry {
	return logrus.WithField("userId", t.userID)
}

// load returns the user's record, or nil if there is none.
func (t *Tracker) load(ctx context.Context) (*state.UserRecord, error) {
	record, err := t.store.GetUserRecord(ctx, t.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load record for user %s: %w", t.userID, err)
	}
	if record == nil {
		t.log().Warn("no user context; using defaults")
	}
	return record, nil
}

func (t *Tracker) save(ctx context.Context, record *state.UserRecord) error {
	if err := t.store.SaveUserRecord(ctx, t.userID, record); err != nil {
		return fmt.Errorf("failed to save record for user %s: %w", t.userID, err)
	}
	return nil
}

// Initialize creates the user's record if it does not exist yet. An existing
// record is returned untouched. The bool reports whether a record was created.
func (t *Tracker) Initialize(ctx context.Context, profile Profile) (*state.JourneyProgress, bool, error) {
	existing, err := t.store.GetUserRecord(ctx, t.userID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load record for user %s: %w", t.userID, err)
	}
	if existing != nil {
		t.log().Debug("user already initialized")
		return &existing.Journey, false, nil
	}

	now := t.now()
	record := state.NewUserRecord(t.userID, now)
	if profile.FocusAreas != nil {
		record.Journey.FocusAreas = append([]string(nil), profile.FocusAreas...)
	}
	record.Journey.JourneyStage = profile.JourneyStage
	state.CheckDailyReset(record, now)

	if err := t.save(ctx, record); err != nil {
		return nil, false, err
	}
	t.log().WithField("stage", profile.JourneyStage).Info("user initialized")
	return &record.Journey, true, nil
}

// UpdateProfile replaces the user's focus areas and stage. Nil focusAreas keeps the
// current ones; an empty stage keeps the current stage.
func (t *Tracker) UpdateProfile(ctx context.Context, focusAreas []string, stage string) error {
	record, err := t.load(ctx)
	if err != nil || record == nil {
		return err
	}

	if focusAreas != nil {
		record.Journey.FocusAreas = append([]string(nil), focusAreas...)
	}
	if stage != "" {
		record.Journey.JourneyStage = stage
	}
	return t.save(ctx, record)
}

// LogActivity records one activity and recomputes today's derived fields.
// It returns nil without error when the user has no record.
func (t *Tracker) LogActivity(ctx context.Context, in ActivityInput) (*ActivityOutcome, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	record, err := t.load(ctx)
	if err != nil || record == nil {
		return nil, err
	}

	now := t.now()
	today := clock.DateKey(now)
	stats := state.EnsureDailyStats(record, today)

	outcome := &ActivityOutcome{
		Date:           today,
		StrengthBefore: stats.RecoveryStrength,
		StreakBefore:   record.Streak,
	}
	if in.DayNumber > 0 {
		outcome.DayAlreadyCompleted = record.Journey.HasCompleted(in.DayNumber)
	}

	entry := state.ActivityLogEntry{
		ID:        uuid.NewString(),
		Action:    in.Action,
		Timestamp: now,
		Type:      in.Type,
		DayNumber: in.DayNumber,
		Details:   in.Details,
	}
	state.AppendActivity(record, entry)
	state.IncrementCounters(stats, in.Type)
	state.UpdateRecoveryStrength(stats)
	state.UpdateStreak(record, now)
	record.LastReset = today

	if err := t.save(ctx, record); err != nil {
		return nil, err
	}

	metrics.ActivitiesLoggedTotal.WithLabelValues(string(in.Type)).Inc()
	outcome.Entry = entry
	outcome.Stats = *stats
	outcome.Streak = record.Streak

	t.log().WithFields(logrus.Fields{
		"action":   in.Action,
		"type":     in.Type,
		"actions":  stats.ActionsToday,
		"strength": stats.RecoveryStrength,
		"streak":   record.Streak.CurrentStreak,
	}).Info("activity logged")
	return outcome, nil
}

// CompleteJourneyDay marks day complete at the current instant and advances
// the current day. Completing a day twice is a no-op that returns false.
func (t *Tracker) CompleteJourneyDay(ctx context.Context, day int) (bool, error) {
	if err := journey.ValidateDay(day); err != nil {
		return false, err
	}

	record, err := t.load(ctx)
	if err != nil || record == nil {
		return false, err
	}

	if !record.Journey.MarkCompleted(day, t.now()) {
		t.log().WithField("day", day).Debug("journey day already completed")
		return false, nil
	}
	if err := t.save(ctx, record); err != nil {
		return false, err
	}

	metrics.JourneyDaysCompletedTotal.Inc()
	t.log().WithFields(logrus.Fields{
		"day":        day,
		"currentDay": record.Journey.CurrentDay,
	}).Info("journey day completed")
	return true, nil
}

// GetTodaysStats returns today's stats, or zeroed stats if none exist.
func (t *Tracker) GetTodaysStats(ctx context.Context) (state.DailyStats, error) {
	today := clock.DateKey(t.now())
	record, err := t.load(ctx)
	if err != nil {
		return state.DailyStats{}, err
	}
	if record != nil {
		if stats, ok := record.DailyStats[today]; ok && stats != nil {
			return *stats, nil
		}
	}
	return *state.NewDailyStats(today), nil
}

// GetStreakData returns the stored streak. It is not adjusted for days missed since.
func (t *Tracker) GetStreakData(ctx context.Context) (state.StreakData, error) {
	record, err := t.load(ctx)
	if err != nil || record == nil {
		return state.StreakData{}, err
	}
	return record.Streak, nil
}

// GetActivityLog returns up to limit of the most recent entries, oldest first.
// A non-positive limit returns the whole log.
func (t *Tracker) GetActivityLog(ctx context.Context, limit int) ([]state.ActivityLogEntry, error) {
	record, err := t.load(ctx)
	if err != nil || record == nil {
		return []state.ActivityLogEntry{}, err
	}

	entries := record.ActivityLog
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return append([]state.ActivityLogEntry{}, entries...), nil
}

// GetJourneyProgress returns the user's progress, or a fresh progress at day 1.
func (t *Tracker) GetJourneyProgress(ctx context.Context) (state.JourneyProgress, error) {
	record, err := t.load(ctx)
	if err != nil {
		return state.JourneyProgress{}, err
	}
	if record == nil {
		return state.NewUserRecord(t.userID, t.now()).Journey, nil
	}
	return record.Journey, nil
}

// GetCalendarData marks each past date from the first of the month monthsBack
// months ago through yesterday as completed or missed.
func (t *Tracker) GetCalendarData(ctx context.Context, monthsBack int) (map[string]state.CalendarStatus, error) {
	record, err := t.load(ctx)
	if err != nil || record == nil {
		return map[string]state.CalendarStatus{}, err
	}
	return state.CalendarData(record, t.now(), monthsBack), nil
}

// CheckAndResetDaily makes sure today's stats exist. It returns true if it did work.
func (t *Tracker) CheckAndResetDaily(ctx context.Context) (bool, error) {
	record, err := t.load(ctx)
	if err != nil || record == nil {
		return false, err
	}

	if !state.CheckDailyReset(record, t.now()) {
		return false, nil
	}
	if err := t.save(ctx, record); err != nil {
		return false, err
	}
	return true, nil
}
