// Package journey gates day-by-day progression through the program and serves
// its static content.
package journey

import (
	"errors"
	"fmt"
	"time"

	"github.com/recoverykit/journey-engine/pkg/clock"
	"github.com/recoverykit/journey-engine/pkg/state"
	"github.com/sirupsen/logrus"
)

// ErrInvalidDay is returned for day numbers outside 1..TotalDays.
var ErrInvalidDay = errors.New("invalid journey day")

// unlockOffset is how long after local midnight the next day opens.
const unlockOffset = time.Minute

// DayStatus is the per-day position in the Locked → Unlocked → Completed progression.
type DayStatus string

const (
	DayLocked    DayStatus = "locked"
	DayUnlocked  DayStatus = "unlocked"
	DayCompleted DayStatus = "completed"
)

// Options configures a Machine.
type Options struct {
	// BypassUnlock opens every day. Intended for development only.
	BypassUnlock bool
	// Location is the zone in which day boundaries are computed. Nil means time.Local.
	Location *time.Location
}

// Machine decides day-unlock eligibility and looks up content. It holds no
// per-user state; every call takes explicit snapshots.
type Machine struct {
	opts     Options
	prompts  []string
	journeys map[string]*journeyContent
	phases   map[string]PhaseModifier
	order    []string
	fallback string
}

// New builds a Machine over the embedded content and phase tables.
func New(opts Options) (*Machine, error) {
	ct, pt, err := loadEmbedded()
	if err != nil {
		return nil, err
	}
	return newMachine(opts, ct, pt), nil
}

// NewFromYAML builds a Machine over caller-supplied tables.
func NewFromYAML(opts Options, content, phases []byte) (*Machine, error) {
	ct, pt, err := parseTables(content, phases)
	if err != nil {
		return nil, err
	}
	return newMachine(opts, ct, pt), nil
}

func newMachine(opts Options, ct *contentTable, pt *phaseTable) *Machine {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	m := &Machine{
		opts:     opts,
		prompts:  ct.Prompts,
		journeys: make(map[string]*journeyContent, len(ct.Journeys)),
		phases:   make(map[string]PhaseModifier, len(pt.Phases)),
		fallback: pt.Default,
	}
	for i := range ct.Journeys {
		m.journeys[ct.Journeys[i].FocusArea] = &ct.Journeys[i]
	}
	for _, ph := range pt.Phases {
		m.phases[ph.Stage] = ph
		m.order = append(m.order, ph.Stage)
	}
	if opts.BypassUnlock {
		logrus.Warn("journey unlock bypass is enabled; all days are open")
	}
	return m
}

// ValidateDay returns ErrInvalidDay if day is outside the program.
func ValidateDay(day int) error {
	if day < 1 || day > state.TotalDays {
		return fmt.Errorf("%w: %d", ErrInvalidDay, day)
	}
	return nil
}

// IsDayUnlocked reports whether day may be started at now.
//
// Day 1 is always open. Day N>1 needs day N-1 completed; when the completion
// instant of N-1 is known, N opens at 00:01 on the following local calendar
// date. Without it, N is treated as open from 00:01 of now's date.
func (m *Machine) IsDayUnlocked(completedDays []int, day int, now time.Time, completionDates map[int]time.Time) bool {
	if m.opts.BypassUnlock {
		return true
	}
	if ValidateDay(day) != nil {
		return false
	}
	if day == 1 {
		return true
	}

	prev := day - 1
	if !containsDay(completedDays, prev) {
		return false
	}

	now = now.In(m.opts.Location)
	completedAt, ok := completionDates[prev]
	if !ok || completedAt.IsZero() {
		// fallback: no timestamp for the previous day
		return !now.Before(clock.StartOfDay(now).Add(unlockOffset))
	}

	unlockAt := clock.AddDays(clock.StartOfDay(completedAt.In(m.opts.Location)), 1).Add(unlockOffset)
	unlocked := !now.Before(unlockAt)
	logrus.Debugf("day %d unlock at %s, now %s: %v", day, unlockAt.Format(time.RFC3339), now.Format(time.RFC3339), unlocked)
	return unlocked
}

// DayStatusOf places day in the Locked → Unlocked → Completed progression.
func (m *Machine) DayStatusOf(completedDays []int, day int, now time.Time, completionDates map[int]time.Time) DayStatus {
	if containsDay(completedDays, day) {
		return DayCompleted
	}
	if m.IsDayUnlocked(completedDays, day, now, completionDates) {
		return DayUnlocked
	}
	return DayLocked
}

// GetPhaseModifier returns the overlay for stage. Unknown stages get the default phase.
func (m *Machine) GetPhaseModifier(stage string) PhaseModifier {
	ph, ok := m.phases[stage]
	if !ok {
		ph = m.phases[m.fallback]
	}
	ph.Extras = append([]string(nil), ph.Extras...)
	return ph
}

// ApplyPhase returns a copy of day recoloured for stage.
func (m *Machine) ApplyPhase(day *JourneyDay, stage string) *JourneyDay {
	if day == nil {
		return nil
	}
	ph := m.GetPhaseModifier(stage)
	out := *day
	out.Practices = append([]Practice(nil), day.Practices...)
	out.Tone = ph.Tone
	out.Pacing = ph.Pacing
	out.Extras = ph.Extras
	return &out
}

// GetJourneyDay returns the content for day in focusArea, or nil if not found.
func (m *Machine) GetJourneyDay(focusArea string, day int) *JourneyDay {
	j, ok := m.journeys[focusArea]
	if !ok || ValidateDay(day) != nil {
		return nil
	}
	d := j.day(day, m.prompts)
	return &d
}

// GetJourneyWeek returns all days of week in focusArea, or nil if not found.
func (m *Machine) GetJourneyWeek(focusArea string, week int) *JourneyWeek {
	j, ok := m.journeys[focusArea]
	if !ok || week < 1 || week > TotalWeeks {
		return nil
	}

	first, last := daysOfWeek(week)
	wc := j.Weeks[week-1]
	out := &JourneyWeek{
		FocusArea: focusArea,
		Week:      week,
		Title:     wc.Title,
		Theme:     wc.Theme,
		Days:      make([]JourneyDay, 0, last-first+1),
	}
	for d := first; d <= last; d++ {
		out.Days = append(out.Days, j.day(d, m.prompts))
	}
	return out
}

// GetAvailableJourneys lists the programs ordered by focus area.
func (m *Machine) GetAvailableJourneys() []JourneySummary {
	return summaries(m.journeys)
}

// GetAvailablePhases lists the phases in progression order.
func (m *Machine) GetAvailablePhases() []PhaseModifier {
	out := make([]PhaseModifier, 0, len(m.order))
	for _, stage := range m.order {
		out = append(out, m.GetPhaseModifier(stage))
	}
	return out
}

// HasPhase reports whether stage is a known journey stage.
func (m *Machine) HasPhase(stage string) bool {
	_, ok := m.phases[stage]
	return ok
}

// HasJourney reports whether focusArea is a known program.
func (m *Machine) HasJourney(focusArea string) bool {
	_, ok := m.journeys[focusArea]
	return ok
}

// Location returns the zone day boundaries are computed in.
func (m *Machine) Location() *time.Location {
	return m.opts.Location
}

func containsDay(days []int, day int) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}
