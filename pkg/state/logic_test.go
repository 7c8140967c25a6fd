package state

import (
	"fmt"
	"testing"
	"time"
)

func day(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestCalculateRecoveryStrength(t *testing.T) {
	tests := []struct {
		actions  int
		expected int
	}{
		{0, 0},
		{1, 20},
		{2, 40},
		{3, 60},
		{4, 80},
		{5, 100},
		{9, 100},
		{-1, 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d actions", tt.actions), func(t *testing.T) {
			if got := CalculateRecoveryStrength(tt.actions); got != tt.expected {
				t.Errorf("CalculateRecoveryStrength(%d) = %d, expected %d", tt.actions, got, tt.expected)
			}
		})
	}
}

func TestClassifyWellness(t *testing.T) {
	tests := []struct {
		strength int
		expected WellnessLevel
	}{
		{100, WellnessGood},
		{99, WellnessFair},
		{50, WellnessFair},
		{49, WellnessNeedsAttention},
		{0, WellnessNeedsAttention},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("strength %d", tt.strength), func(t *testing.T) {
			if got := ClassifyWellness(tt.strength); got != tt.expected {
				t.Errorf("ClassifyWellness(%d) = %s, expected %s", tt.strength, got, tt.expected)
			}
		})
	}
}

func TestUpdateStreak(t *testing.T) {
	now := day(2026, 5, 10, 12, 0)

	tests := []struct {
		name            string
		streak          StreakData
		actionsToday    int
		expectChanged   bool
		expectedCurrent int
		expectedLongest int
		expectedLast    string
	}{
		{
			name:            "no activity today - untouched",
			streak:          StreakData{CurrentStreak: 4, LongestStreak: 6, LastActivityDate: "2026-05-07"},
			actionsToday:    0,
			expectChanged:   false,
			expectedCurrent: 4,
			expectedLongest: 6,
			expectedLast:    "2026-05-07",
		},
		{
			name:            "first ever activity",
			streak:          StreakData{},
			actionsToday:    1,
			expectChanged:   true,
			expectedCurrent: 1,
			expectedLongest: 1,
			expectedLast:    "2026-05-10",
		},
		{
			name:            "active yesterday - increments",
			streak:          StreakData{CurrentStreak: 3, LongestStreak: 3, LastActivityDate: "2026-05-09"},
			actionsToday:    2,
			expectChanged:   true,
			expectedCurrent: 4,
			expectedLongest: 4,
			expectedLast:    "2026-05-10",
		},
		{
			name:            "already counted today - idempotent",
			streak:          StreakData{CurrentStreak: 2, LongestStreak: 5, LastActivityDate: "2026-05-10"},
			actionsToday:    3,
			expectChanged:   false,
			expectedCurrent: 2,
			expectedLongest: 5,
			expectedLast:    "2026-05-10",
		},
		{
			name:            "gap of two days - resets to one",
			streak:          StreakData{CurrentStreak: 8, LongestStreak: 8, LastActivityDate: "2026-05-08"},
			actionsToday:    1,
			expectChanged:   true,
			expectedCurrent: 1,
			expectedLongest: 8,
			expectedLast:    "2026-05-10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := NewUserRecord("user-1", now.Add(-30*24*time.Hour))
			record.Streak = tt.streak
			if tt.actionsToday > 0 {
				stats := EnsureDailyStats(record, "2026-05-10")
				stats.ActionsToday = tt.actionsToday
			}

			changed := UpdateStreak(record, now)
			if changed != tt.expectChanged {
				t.Errorf("UpdateStreak() = %v, expected %v", changed, tt.expectChanged)
			}
			if record.Streak.CurrentStreak != tt.expectedCurrent {
				t.Errorf("CurrentStreak = %d, expected %d", record.Streak.CurrentStreak, tt.expectedCurrent)
			}
			if record.Streak.LongestStreak != tt.expectedLongest {
				t.Errorf("LongestStreak = %d, expected %d", record.Streak.LongestStreak, tt.expectedLongest)
			}
			if record.Streak.LastActivityDate != tt.expectedLast {
				t.Errorf("LastActivityDate = %s, expected %s", record.Streak.LastActivityDate, tt.expectedLast)
			}
		})
	}
}

func TestUpdateStreak_LongestNeverBelowCurrent(t *testing.T) {
	record := NewUserRecord("user-1", day(2026, 1, 1, 8, 0))
	now := day(2026, 1, 1, 9, 0)

	// active, active, skip, active, active, active, skip, skip, active
	pattern := []bool{true, true, false, true, true, true, false, false, true}
	for i, active := range pattern {
		current := now.AddDate(0, 0, i)
		if active {
			stats := EnsureDailyStats(record, current.Format("2006-01-02"))
			stats.ActionsToday++
		}
		UpdateStreak(record, current)

		if record.Streak.LongestStreak < record.Streak.CurrentStreak {
			t.Fatalf("day %d: longest %d < current %d", i, record.Streak.LongestStreak, record.Streak.CurrentStreak)
		}
	}

	if record.Streak.LongestStreak != 3 {
		t.Errorf("LongestStreak = %d, expected 3", record.Streak.LongestStreak)
	}
	if record.Streak.CurrentStreak != 1 {
		t.Errorf("CurrentStreak = %d, expected 1", record.Streak.CurrentStreak)
	}
}

func TestAppendActivity_FIFOCap(t *testing.T) {
	record := NewUserRecord("user-1", time.Now())

	for i := 0; i < MaxActivityLogEntries+15; i++ {
		AppendActivity(record, ActivityLogEntry{ID: fmt.Sprintf("entry-%d", i)})
	}

	if len(record.ActivityLog) != MaxActivityLogEntries {
		t.Fatalf("len(ActivityLog) = %d, expected %d", len(record.ActivityLog), MaxActivityLogEntries)
	}
	if record.ActivityLog[0].ID != "entry-15" {
		t.Errorf("oldest entry = %s, expected entry-15", record.ActivityLog[0].ID)
	}
	if record.ActivityLog[MaxActivityLogEntries-1].ID != "entry-114" {
		t.Errorf("newest entry = %s, expected entry-114", record.ActivityLog[MaxActivityLogEntries-1].ID)
	}
}

func TestIncrementCounters(t *testing.T) {
	stats := NewDailyStats("2026-01-01")

	IncrementCounters(stats, ActivityJourney)
	IncrementCounters(stats, ActivityTool)
	IncrementCounters(stats, ActivityTool)
	IncrementCounters(stats, ActivityPeer)
	IncrementCounters(stats, ActivityGeneral)

	if stats.ActionsToday != 5 {
		t.Errorf("ActionsToday = %d, expected 5", stats.ActionsToday)
	}
	if stats.JourneyActivitiesCompleted != 1 {
		t.Errorf("JourneyActivitiesCompleted = %d, expected 1", stats.JourneyActivitiesCompleted)
	}
	if stats.ToolsUsedToday != 2 {
		t.Errorf("ToolsUsedToday = %d, expected 2", stats.ToolsUsedToday)
	}
}

func TestCheckDailyReset(t *testing.T) {
	now := day(2026, 2, 3, 7, 0)
	record := NewUserRecord("user-1", now.Add(-48*time.Hour))

	if !CheckDailyReset(record, now) {
		t.Fatal("first CheckDailyReset() should do work")
	}
	if record.LastReset != "2026-02-03" {
		t.Errorf("LastReset = %s, expected 2026-02-03", record.LastReset)
	}

	record.DailyStats["2026-02-03"].ActionsToday = 2
	for i := 0; i < 3; i++ {
		if CheckDailyReset(record, now.Add(time.Duration(i)*time.Hour)) {
			t.Errorf("repeat CheckDailyReset() #%d should be a no-op", i)
		}
	}
	if record.DailyStats["2026-02-03"].ActionsToday != 2 {
		t.Error("repeat reset must not clear today's counters")
	}

	if !CheckDailyReset(record, now.Add(24*time.Hour)) {
		t.Error("CheckDailyReset() on a new day should do work")
	}
	if _, ok := record.DailyStats["2026-02-04"]; !ok {
		t.Error("expected stats for the new day")
	}
}

func TestCalendarData(t *testing.T) {
	now := day(2026, 3, 10, 15, 0)

	t.Run("excludes today, future and pre-creation dates", func(t *testing.T) {
		record := NewUserRecord("user-1", day(2026, 3, 5, 18, 0))
		EnsureDailyStats(record, "2026-03-05").ActionsToday = 1
		EnsureDailyStats(record, "2026-03-07").ActionsToday = 3
		EnsureDailyStats(record, "2026-03-08") // zero actions
		EnsureDailyStats(record, "2026-03-10").ActionsToday = 2

		cal := CalendarData(record, now, 1)

		if len(cal) != 5 {
			t.Fatalf("len(calendar) = %d, expected 5: %v", len(cal), cal)
		}
		expected := map[string]CalendarStatus{
			"2026-03-05": CalendarCompleted,
			"2026-03-06": CalendarMissed,
			"2026-03-07": CalendarCompleted,
			"2026-03-08": CalendarMissed,
			"2026-03-09": CalendarMissed,
		}
		for k, v := range expected {
			if cal[k] != v {
				t.Errorf("calendar[%s] = %s, expected %s", k, cal[k], v)
			}
		}
		if _, ok := cal["2026-03-10"]; ok {
			t.Error("calendar must not include today")
		}
		if _, ok := cal["2026-03-04"]; ok {
			t.Error("calendar must not include dates before creation")
		}
	})

	t.Run("months back window", func(t *testing.T) {
		record := NewUserRecord("user-1", day(2025, 12, 1, 0, 0))

		cal := CalendarData(record, now, 1)
		if _, ok := cal["2026-02-01"]; !ok {
			t.Error("expected first day of previous month")
		}
		if _, ok := cal["2026-01-31"]; ok {
			t.Error("window must start at the first day of the month monthsBack ago")
		}

		cal = CalendarData(record, now, 0)
		if len(cal) != 9 {
			t.Errorf("len(calendar) with monthsBack=0 = %d, expected 9", len(cal))
		}
	})
}

func TestMarkCompleted(t *testing.T) {
	record := NewUserRecord("user-1", time.Now())
	at := day(2026, 4, 1, 14, 0)

	if !record.Journey.MarkCompleted(1, at) {
		t.Fatal("MarkCompleted(1) should succeed")
	}
	if record.Journey.MarkCompleted(1, at.Add(time.Hour)) {
		t.Error("MarkCompleted(1) twice should be a no-op")
	}
	if !record.Journey.CompletionDates[1].Equal(at) {
		t.Error("completion date must keep the first completion instant")
	}
	if record.Journey.CurrentDay != 2 {
		t.Errorf("CurrentDay = %d, expected 2", record.Journey.CurrentDay)
	}

	record.Journey.MarkCompleted(TotalDays, at)
	if record.Journey.CurrentDay != TotalDays {
		t.Errorf("CurrentDay = %d, expected capped at %d", record.Journey.CurrentDay, TotalDays)
	}
	if len(record.Journey.CompletedDays) != len(record.Journey.CompletionDates) {
		t.Error("completedDays and completionDates must stay in step")
	}
}
