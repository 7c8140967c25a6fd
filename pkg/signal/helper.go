package signal

import (
	"github.com/recoverykit/journey-engine/pkg/engagement"
	"github.com/recoverykit/journey-engine/pkg/state"
)

// BuildUserContext creates a UserContext from the post-log outcome and the user's progress.
func BuildUserContext(userID string, progress state.JourneyProgress, outcome *engagement.ActivityOutcome) *UserContext {
	userContext := &UserContext{
		UserID:   userID,
		Progress: progress,
		Info:     make(map[string]interface{}),
	}
	if outcome != nil {
		userContext.Today = outcome.Stats
		userContext.Streak = outcome.Streak
	}

	userContext.Info["current_day"] = progress.CurrentDay
	userContext.Info["completed_days"] = len(progress.CompletedDays)
	userContext.Info["journey_stage"] = progress.JourneyStage
	userContext.Info["wellness_level"] = string(userContext.Today.WellnessLevel)

	return userContext
}
