package builtin

import (
	"github.com/recoverykit/journey-engine/pkg/signal"
	"github.com/recoverykit/journey-engine/pkg/state"
)

// JourneyActivityMapper maps journey activities that name a day to JourneyActivitySignal.
type JourneyActivityMapper struct{}

func (m *JourneyActivityMapper) ActivityType() state.ActivityType {
	return state.ActivityJourney
}

func (m *JourneyActivityMapper) MapToSignal(sig *signal.ActivitySignal) signal.Signal {
	if sig.Input.DayNumber <= 0 {
		return sig
	}
	return NewJourneyActivitySignal(sig, sig.Input.DayNumber)
}

// ToolUseMapper maps tool activities to ToolUseSignal.
type ToolUseMapper struct{}

func (m *ToolUseMapper) ActivityType() state.ActivityType {
	return state.ActivityTool
}

func (m *ToolUseMapper) MapToSignal(sig *signal.ActivitySignal) signal.Signal {
	return NewToolUseSignal(sig)
}

// RegisterBuiltinMappers registers all built-in signal mappers with the registry.
func RegisterBuiltinMappers(registry *signal.MapperRegistry) {
	registry.Register(&JourneyActivityMapper{})
	registry.Register(&ToolUseMapper{})
}
