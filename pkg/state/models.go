package state

import (
	"sort"
	"time"
)

const (
	// TotalDays is the length of the guided program.
	TotalDays = 90
	// MaxActivityLogEntries bounds the activity log; oldest entries are evicted first.
	MaxActivityLogEntries = 100
	// DailyActivityTarget is one journey activity plus up to four tool uses.
	DailyActivityTarget = 5
)

// ActivityType classifies a logged activity.
type ActivityType string

const (
	ActivityJourney ActivityType = "journey"
	ActivityTool    ActivityType = "tool"
	ActivityPeer    ActivityType = "peer"
	ActivityGeneral ActivityType = "general"
)

// Valid reports whether t is one of the known activity types.
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityJourney, ActivityTool, ActivityPeer, ActivityGeneral:
		return true
	}
	return false
}

// WellnessLevel is the coarse classification derived from recovery strength.
type WellnessLevel string

const (
	WellnessGood           WellnessLevel = "good"
	WellnessFair           WellnessLevel = "fair"
	WellnessNeedsAttention WellnessLevel = "needs_attention"
)

// UserRecord is the complete persisted document for one user.
type UserRecord struct {
	UserID      string                 `json:"userId"`
	CreatedAt   time.Time              `json:"createdAt"`
	Journey     JourneyProgress        `json:"journey"`
	DailyStats  map[string]*DailyStats `json:"dailyStats"` // keyed by YYYY-MM-DD
	Streak      StreakData             `json:"streak"`
	ActivityLog []ActivityLogEntry     `json:"activityLog"`
	LastReset   string                 `json:"lastReset"` // date key of the last daily reset
}

// JourneyProgress tracks completion of the 90-day program.
type JourneyProgress struct {
	CompletedDays   []int             `json:"completedDays"`
	CompletionDates map[int]time.Time `json:"completionDates"`
	CurrentDay      int               `json:"currentDay"`
	FocusAreas      []string          `json:"focusAreas"`
	JourneyStage    string            `json:"journeyStage"`
}

// DailyStats holds counters for a single calendar date.
type DailyStats struct {
	Date                       string        `json:"date"`
	ActionsToday               int           `json:"actionsToday"`
	ToolsUsedToday             int           `json:"toolsUsedToday"`
	JourneyActivitiesCompleted int           `json:"journeyActivitiesCompleted"`
	RecoveryStrength           int           `json:"recoveryStrength"`
	WellnessLevel              WellnessLevel `json:"wellnessLevel"`
}

// StreakData tracks consecutive active days.
type StreakData struct {
	CurrentStreak    int    `json:"currentStreak"`
	LongestStreak    int    `json:"longestStreak"`
	LastActivityDate string `json:"lastActivityDate"` // YYYY-MM-DD, empty if never active
}

// ActivityLogEntry is one append-only log record.
type ActivityLogEntry struct {
	ID        string                 `json:"id"`
	Action    string                 `json:"action"`
	Timestamp time.Time              `json:"timestamp"`
	Type      ActivityType           `json:"type"`
	DayNumber int                    `json:"dayNumber,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// NewUserRecord returns an empty record created at now.
func NewUserRecord(userID string, now time.Time) *UserRecord {
	return &UserRecord{
		UserID:    userID,
		CreatedAt: now,
		Journey: JourneyProgress{
			CompletedDays:   []int{},
			CompletionDates: make(map[int]time.Time),
			CurrentDay:      1,
			FocusAreas:      []string{},
		},
		DailyStats:  make(map[string]*DailyStats),
		ActivityLog: []ActivityLogEntry{},
	}
}

// Normalize fills nil collections left by older or hand-edited documents.
func (r *UserRecord) Normalize() {
	if r.DailyStats == nil {
		r.DailyStats = make(map[string]*DailyStats)
	}
	if r.ActivityLog == nil {
		r.ActivityLog = []ActivityLogEntry{}
	}
	if r.Journey.CompletedDays == nil {
		r.Journey.CompletedDays = []int{}
	}
	if r.Journey.CompletionDates == nil {
		r.Journey.CompletionDates = make(map[int]time.Time)
	}
	if r.Journey.FocusAreas == nil {
		r.Journey.FocusAreas = []string{}
	}
	if r.Journey.CurrentDay < 1 {
		r.Journey.CurrentDay = 1
	}
}

// NewDailyStats returns zeroed stats for the given date key.
func NewDailyStats(date string) *DailyStats {
	return &DailyStats{
		Date:          date,
		WellnessLevel: WellnessNeedsAttention,
	}
}

// HasCompleted reports whether day is in the completed set.
func (p *JourneyProgress) HasCompleted(day int) bool {
	for _, d := range p.CompletedDays {
		if d == day {
			return true
		}
	}
	return false
}

// CompletedSet returns the completed days as a set.
func (p *JourneyProgress) CompletedSet() map[int]bool {
	set := make(map[int]bool, len(p.CompletedDays))
	for _, d := range p.CompletedDays {
		set[d] = true
	}
	return set
}

// MarkCompleted adds day to the completed set and stamps its completion time.
// Returns false if the day was already complete.
func (p *JourneyProgress) MarkCompleted(day int, at time.Time) bool {
	if p.HasCompleted(day) {
		return false
	}
	p.CompletedDays = append(p.CompletedDays, day)
	sort.Ints(p.CompletedDays)
	if p.CompletionDates == nil {
		p.CompletionDates = make(map[int]time.Time)
	}
	p.CompletionDates[day] = at
	if day+1 > p.CurrentDay {
		p.CurrentDay = day + 1
	}
	if p.CurrentDay > TotalDays {
		p.CurrentDay = TotalDays
	}
	return true
}
