package journey

import (
	"embed"
	"fmt"
	"sort"

	"github.com/recoverykit/journey-engine/pkg/state"
	"gopkg.in/yaml.v3"
)

//go:embed content/*.yaml
var contentFS embed.FS

const (
	// DaysPerWeek groups journey days into weeks.
	DaysPerWeek = 7
	// TotalWeeks covers TotalDays; the last week is shorter.
	TotalWeeks = (state.TotalDays + DaysPerWeek - 1) / DaysPerWeek

	defaultStage = "just_starting"
)

// Practice is one suggested exercise.
type Practice struct {
	Title   string `yaml:"title" json:"title"`
	Minutes int    `yaml:"minutes" json:"minutes"`
}

// JourneyDay is the content for a single day of a focus area's program.
type JourneyDay struct {
	FocusArea string     `json:"focusArea"`
	Day       int        `json:"day"`
	Week      int        `json:"week"`
	Title     string     `json:"title"`
	Theme     string     `json:"theme"`
	Prompt    string     `json:"prompt"`
	Practices []Practice `json:"practices"`
	Tone      string     `json:"tone,omitempty"`
	Pacing    string     `json:"pacing,omitempty"`
	Extras    []string   `json:"extras,omitempty"`
}

// JourneyWeek groups the days of one week.
type JourneyWeek struct {
	FocusArea string       `json:"focusArea"`
	Week      int          `json:"week"`
	Title     string       `json:"title"`
	Theme     string       `json:"theme"`
	Days      []JourneyDay `json:"days"`
}

// JourneySummary describes one available program.
type JourneySummary struct {
	FocusArea   string `json:"focusArea"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Weeks       int    `json:"weeks"`
}

// PhaseModifier is the tone/pacing overlay for a journey stage.
type PhaseModifier struct {
	Stage  string   `yaml:"stage" json:"stage"`
	Name   string   `yaml:"name" json:"name"`
	Tone   string   `yaml:"tone" json:"tone"`
	Pacing string   `yaml:"pacing" json:"pacing"`
	Extras []string `yaml:"extras" json:"extras"`
}

type weekContent struct {
	Title     string     `yaml:"title"`
	Theme     string     `yaml:"theme"`
	Practices []Practice `yaml:"practices"`
}

type journeyContent struct {
	FocusArea   string        `yaml:"focusArea"`
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	Weeks       []weekContent `yaml:"weeks"`
}

type contentTable struct {
	Prompts  []string         `yaml:"prompts"`
	Journeys []journeyContent `yaml:"journeys"`
}

type phaseTable struct {
	Default string          `yaml:"default"`
	Phases  []PhaseModifier `yaml:"phases"`
}

func loadEmbedded() (*contentTable, *phaseTable, error) {
	content, err := contentFS.ReadFile("content/journeys.yaml")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read journey content: %w", err)
	}
	phases, err := contentFS.ReadFile("content/phases.yaml")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read phase table: %w", err)
	}
	return parseTables(content, phases)
}

func parseTables(content, phases []byte) (*contentTable, *phaseTable, error) {
	var ct contentTable
	if err := yaml.Unmarshal(content, &ct); err != nil {
		return nil, nil, fmt.Errorf("failed to parse journey content: %w", err)
	}
	if err := ct.validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid journey content: %w", err)
	}

	var pt phaseTable
	if err := yaml.Unmarshal(phases, &pt); err != nil {
		return nil, nil, fmt.Errorf("failed to parse phase table: %w", err)
	}
	if err := pt.validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid phase table: %w", err)
	}
	return &ct, &pt, nil
}

func (c *contentTable) validate() error {
	if len(c.Prompts) == 0 {
		return fmt.Errorf("no daily prompts")
	}
	if len(c.Journeys) == 0 {
		return fmt.Errorf("no journeys")
	}
	seen := make(map[string]bool)
	for _, j := range c.Journeys {
		if j.FocusArea == "" {
			return fmt.Errorf("journey with empty focus area")
		}
		if seen[j.FocusArea] {
			return fmt.Errorf("duplicate focus area: %s", j.FocusArea)
		}
		seen[j.FocusArea] = true
		if len(j.Weeks) != TotalWeeks {
			return fmt.Errorf("journey %s has %d weeks, expected %d", j.FocusArea, len(j.Weeks), TotalWeeks)
		}
	}
	return nil
}

func (p *phaseTable) validate() error {
	if len(p.Phases) == 0 {
		return fmt.Errorf("no phases")
	}
	seen := make(map[string]bool)
	for _, ph := range p.Phases {
		if ph.Stage == "" {
			return fmt.Errorf("phase with empty stage")
		}
		if seen[ph.Stage] {
			return fmt.Errorf("duplicate stage: %s", ph.Stage)
		}
		seen[ph.Stage] = true
	}
	if p.Default == "" {
		p.Default = defaultStage
	}
	if !seen[p.Default] {
		return fmt.Errorf("default stage %s not defined", p.Default)
	}
	return nil
}

// WeekOf returns the week a day belongs to.
func WeekOf(day int) int {
	return (day-1)/DaysPerWeek + 1
}

// daysOfWeek returns the first and last day number of week.
func daysOfWeek(week int) (int, int) {
	first := (week-1)*DaysPerWeek + 1
	last := first + DaysPerWeek - 1
	if last > state.TotalDays {
		last = state.TotalDays
	}
	return first, last
}

func (j *journeyContent) day(day int, prompts []string) JourneyDay {
	week := WeekOf(day)
	wc := j.Weeks[week-1]
	return JourneyDay{
		FocusArea: j.FocusArea,
		Day:       day,
		Week:      week,
		Title:     fmt.Sprintf("Day %d: %s", day, wc.Title),
		Theme:     wc.Theme,
		Prompt:    prompts[(day-1)%len(prompts)],
		Practices: append([]Practice(nil), wc.Practices...),
	}
}

func summaries(journeys map[string]*journeyContent) []JourneySummary {
	out := make([]JourneySummary, 0, len(journeys))
	for _, j := range journeys {
		out = append(out, JourneySummary{
			FocusArea:   j.FocusArea,
			Title:       j.Title,
			Description: j.Description,
			Weeks:       len(j.Weeks),
		})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].FocusArea < out[b].FocusArea })
	return out
}
