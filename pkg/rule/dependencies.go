package rule

import "time"

// DayUnlocker decides whether a journey day may be worked on.
type DayUnlocker interface {
	IsDayUnlocked(completedDays []int, day int, now time.Time, completionDates map[int]time.Time) bool
}

// RuleDependencies holds all external service dependencies that rules can use
// Rules receive this struct and can access only the services they need
type RuleDependencies struct {
	Unlocker DayUnlocker
}

// NewRuleDependencies creates a new dependencies container
// Services can be nil if not needed - rules should handle nil gracefully
func NewRuleDependencies() *RuleDependencies {
	return &RuleDependencies{}
}

// WithUnlocker sets the day unlocker
func (d *RuleDependencies) WithUnlocker(unlocker DayUnlocker) *RuleDependencies {
	d.Unlocker = unlocker
	return d
}
