package state

import "time"

// ReminderType identifies which deadline offset a reminder belongs to.
type ReminderType string

const (
	ReminderTwelveHour ReminderType = "twelve_hour"
	ReminderThreeHour  ReminderType = "three_hour"
	ReminderOneHour    ReminderType = "one_hour"
)

// ReminderSchedule is a pending or delivered deadline reminder for one journey day.
type ReminderSchedule struct {
	ID           string       `json:"id"`
	UserID       string       `json:"userId"`
	DayNumber    int          `json:"dayNumber"`
	ScheduledFor time.Time    `json:"scheduledFor"`
	Type         ReminderType `json:"type"`
	Sent         bool         `json:"sent"`
}

// Due reports whether the reminder should fire at now.
func (r *ReminderSchedule) Due(now time.Time) bool {
	return !r.Sent && !r.ScheduledFor.After(now)
}

// Expired reports whether the reminder is older than retention past its trigger time.
func (r *ReminderSchedule) Expired(now time.Time, retention time.Duration) bool {
	return now.Sub(r.ScheduledFor) > retention
}
