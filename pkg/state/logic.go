package state

import (
	"math"
	"time"

	"github.com/recoverykit/journey-engine/pkg/clock"
	"github.com/sirupsen/logrus"
)

// CalendarStatus marks a past date in the calendar view.
type CalendarStatus string

const (
	CalendarCompleted CalendarStatus = "completed"
	CalendarMissed    CalendarStatus = "missed"
)

// EnsureDailyStats returns the stats for dateKey, creating them if needed.
func EnsureDailyStats(record *UserRecord, dateKey string) *DailyStats {
	if record.DailyStats == nil {
		record.DailyStats = make(map[string]*DailyStats)
	}
	stats, ok := record.DailyStats[dateKey]
	if !ok || stats == nil {
		stats = NewDailyStats(dateKey)
		record.DailyStats[dateKey] = stats
		logrus.Debugf("created daily stats for %s (user %s)", dateKey, record.UserID)
	}
	return stats
}

// AppendActivity adds entry to the log, evicting the oldest entries beyond the cap.
func AppendActivity(record *UserRecord, entry ActivityLogEntry) {
	record.ActivityLog = append(record.ActivityLog, entry)
	if overflow := len(record.ActivityLog) - MaxActivityLogEntries; overflow > 0 {
		record.ActivityLog = append([]ActivityLogEntry(nil), record.ActivityLog[overflow:]...)
	}
}

// IncrementCounters applies one activity of type t to stats.
func IncrementCounters(stats *DailyStats, t ActivityType) {
	stats.ActionsToday++
	switch t {
	case ActivityJourney:
		stats.JourneyActivitiesCompleted++
	case ActivityTool:
		stats.ToolsUsedToday++
	}
}

// CalculateRecoveryStrength converts a day's action count into a 0-100 score.
func CalculateRecoveryStrength(actions int) int {
	if actions <= 0 {
		return 0
	}
	strength := int(math.Round(100 * float64(actions) / float64(DailyActivityTarget)))
	if strength > 100 {
		strength = 100
	}
	return strength
}

// ClassifyWellness maps a recovery strength onto a wellness level.
func ClassifyWellness(strength int) WellnessLevel {
	switch {
	case strength >= 100:
		return WellnessGood
	case strength >= 50:
		return WellnessFair
	default:
		return WellnessNeedsAttention
	}
}

// UpdateRecoveryStrength recomputes the derived score and classification for stats.
func UpdateRecoveryStrength(stats *DailyStats) {
	stats.RecoveryStrength = CalculateRecoveryStrength(stats.ActionsToday)
	stats.WellnessLevel = ClassifyWellness(stats.RecoveryStrength)
}

// UpdateStreak advances the streak for activity on now's date.
// Returns true if the stored streak changed.
func UpdateStreak(record *UserRecord, now time.Time) bool {
	today := clock.DateKey(now)
	stats, ok := record.DailyStats[today]
	if !ok || stats == nil || stats.ActionsToday == 0 {
		return false
	}

	streak := &record.Streak
	before := *streak

	switch streak.LastActivityDate {
	case today:
		// already counted
	case clock.Yesterday(now):
		streak.CurrentStreak++
	default:
		streak.CurrentStreak = 1
	}

	streak.LastActivityDate = today
	if streak.CurrentStreak > streak.LongestStreak {
		streak.LongestStreak = streak.CurrentStreak
	}

	if *streak != before {
		logrus.Debugf("streak for user %s: %d -> %d (longest %d)",
			record.UserID, before.CurrentStreak, streak.CurrentStreak, streak.LongestStreak)
		return true
	}
	return false
}

// CheckDailyReset ensures today's stats exist. Returns true if work was done.
func CheckDailyReset(record *UserRecord, now time.Time) bool {
	today := clock.DateKey(now)
	if record.LastReset == today {
		if _, ok := record.DailyStats[today]; ok {
			return false
		}
	}

	EnsureDailyStats(record, today)
	record.LastReset = today
	logrus.Debugf("daily reset applied for user %s on %s", record.UserID, today)
	return true
}

// CalendarData reports completed/missed for each past date from the first day of
// the month monthsBack months ago through yesterday, never before account creation.
func CalendarData(record *UserRecord, now time.Time, monthsBack int) map[string]CalendarStatus {
	if monthsBack < 0 {
		monthsBack = 0
	}

	loc := now.Location()
	today := clock.StartOfDay(now)
	y, m, _ := today.Date()
	start := time.Date(y, m-time.Month(monthsBack), 1, 0, 0, 0, 0, loc)

	created := clock.StartOfDay(record.CreatedAt.In(loc))
	if start.Before(created) {
		start = created
	}

	result := make(map[string]CalendarStatus)
	for d := start; d.Before(today); d = clock.AddDays(d, 1) {
		key := clock.DateKey(d)
		if stats, ok := record.DailyStats[key]; ok && stats != nil && stats.ActionsToday > 0 {
			result[key] = CalendarCompleted
		} else {
			result[key] = CalendarMissed
		}
	}
	return result
}
