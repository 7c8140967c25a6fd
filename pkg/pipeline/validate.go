package pipeline

import (
	"fmt"
	"strings"

	"github.com/recoverykit/journey-engine/pkg/action"
	actionBuiltin "github.com/recoverykit/journey-engine/pkg/action/builtin"
	"github.com/recoverykit/journey-engine/pkg/rule"
	ruleBuiltin "github.com/recoverykit/journey-engine/pkg/rule/builtin"
)

// ValidateWiring checks that every enabled rule and action in config has a
// registered instance, and that the journey rules can do their job:
//
//   - an enabled journey_day_completed rule must run an enabled
//     complete_journey_day action, or no day is ever completed;
//   - a complete_journey_day action listed before clear_day_reminders must be
//     required, or a failed completion drops the reminders of an open day.
//
// Dangling action references are caught earlier by Config.Validate.
func ValidateWiring(ruleRegistry *rule.Registry, actionRegistry *action.Registry, config *Config) error {
	var problems []string

	for _, rc := range config.Rules {
		if !rc.Enabled {
			continue
		}
		if ruleRegistry.Get(rc.ID) == nil {
			problems = append(problems, fmt.Sprintf("rule '%s' (type=%s) is enabled in config but not registered", rc.ID, rc.Type))
		}
	}

	actions := make(map[string]ActionConfig, len(config.Actions))
	for _, ac := range config.Actions {
		actions[ac.ID] = ac
		if !ac.Enabled {
			continue
		}
		if actionRegistry.Get(ac.ID) == nil {
			problems = append(problems, fmt.Sprintf("action '%s' (type=%s) is enabled in config but not registered", ac.ID, ac.Type))
		}
	}

	for _, rc := range config.Rules {
		if rc.Enabled {
			problems = append(problems, journeyProblems(rc, actions)...)
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("pipeline wiring validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}

	return nil
}

func journeyProblems(rc RuleConfig, actions map[string]ActionConfig) []string {
	var problems []string

	var completion *ActionConfig
	for _, id := range rc.Actions {
		ac, ok := actions[id]
		if !ok || !ac.Enabled {
			continue
		}
		switch ac.Type {
		case actionBuiltin.CompleteJourneyDayActionID:
			if completion == nil {
				completion = &ac
			}
		case actionBuiltin.ClearDayRemindersActionID:
			if completion != nil && !completion.Required {
				problems = append(problems, fmt.Sprintf("rule '%s' clears reminders with '%s' after '%s', which must be required", rc.ID, ac.ID, completion.ID))
			}
		}
	}

	if rc.Type == ruleBuiltin.JourneyDayCompletedRuleID && completion == nil {
		problems = append(problems, fmt.Sprintf("rule '%s' (type=%s) runs no enabled %s action", rc.ID, rc.Type, actionBuiltin.CompleteJourneyDayActionID))
	}
	return problems
}
