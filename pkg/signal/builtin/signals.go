package builtin

import (
	"github.com/recoverykit/journey-engine/pkg/signal"
)

// Signal type constants for built-in signals
const (
	TypeJourneyActivity = "journey_activity"
	TypeToolUse         = "tool_use"
)

// JourneyActivitySignal represents work on a specific journey day.
type JourneyActivitySignal struct {
	*signal.ActivitySignal
	DayNumber int
}

// NewJourneyActivitySignal wraps an activity signal for journey day dayNumber.
func NewJourneyActivitySignal(sig *signal.ActivitySignal, dayNumber int) *JourneyActivitySignal {
	return &JourneyActivitySignal{
		ActivitySignal: sig.WithType(TypeJourneyActivity),
		DayNumber:      dayNumber,
	}
}

// ToolUseSignal represents use of a coping tool.
type ToolUseSignal struct {
	*signal.ActivitySignal
	Tool string
}

// NewToolUseSignal wraps an activity signal for a tool use. The tool name is
// taken from the "tool" detail, falling back to the action.
func NewToolUseSignal(sig *signal.ActivitySignal) *ToolUseSignal {
	tool := sig.Input.Action
	if name, ok := sig.Input.Details["tool"].(string); ok && name != "" {
		tool = name
	}
	out := sig.WithType(TypeToolUse)
	out.Metadata()["tool"] = tool
	return &ToolUseSignal{
		ActivitySignal: out,
		Tool:           tool,
	}
}
