package action

import "errors"

var (
	ErrUnknownActionType = errors.New("unknown action type")
	ErrDuplicateAction   = errors.New("action already registered")

	// ErrActionNotFound is returned for an action ID with no built instance.
	ErrActionNotFound = errors.New("action not found")
	// ErrActionDisabled is returned for an action turned off in the pipeline.
	ErrActionDisabled = errors.New("action disabled")

	ErrInvalidConfig = errors.New("invalid action configuration")

	// ErrNoJourneyDay is returned by day-scoped actions run for a trigger
	// that carries no journey day.
	ErrNoJourneyDay = errors.New("trigger has no journey day")
)
