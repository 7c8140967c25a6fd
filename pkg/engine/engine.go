// Package engine is the public face of the journey engine. One Engine is built
// at startup and hands out a Session per active user.
package engine

import (
	"context"
	"errors"

	"github.com/recoverykit/journey-engine/pkg/clock"
	"github.com/recoverykit/journey-engine/pkg/engagement"
	"github.com/recoverykit/journey-engine/pkg/journey"
	"github.com/recoverykit/journey-engine/pkg/pipeline"
	"github.com/recoverykit/journey-engine/pkg/reminder"
	"github.com/recoverykit/journey-engine/pkg/state"
)

// ErrMissingDependency is returned by New when a required component is nil.
var ErrMissingDependency = errors.New("engine: missing dependency")

// PermissionChannel is a notification channel that needs the user's consent.
type PermissionChannel interface {
	RequestPermission(ctx context.Context, userID string) (state.NotificationPermission, error)
	SetPermission(ctx context.Context, userID string, permission state.NotificationPermission) error
}

// ToastReader lists a user's recent in-app notifications.
type ToastReader interface {
	Recent(ctx context.Context, userID string, limit int) ([]state.Toast, error)
}

// Options holds the components an Engine is assembled from. Permissions and
// Toasts are optional.
type Options struct {
	Clock       clock.Clock
	Machine     *journey.Machine
	Trackers    *engagement.Factory
	Pipeline    *pipeline.Manager
	Reminders   *reminder.Scheduler
	Permissions PermissionChannel
	Toasts      ToastReader
}

// Engine bundles the journey state machine, engagement tracking, the activity
// pipeline and reminder scheduling.
type Engine struct {
	opts Options
}

// New validates opts and creates an Engine.
func New(opts Options) (*Engine, error) {
	switch {
	case opts.Clock == nil:
		return nil, errors.Join(ErrMissingDependency, errors.New("clock"))
	case opts.Machine == nil:
		return nil, errors.Join(ErrMissingDependency, errors.New("journey machine"))
	case opts.Trackers == nil:
		return nil, errors.Join(ErrMissingDependency, errors.New("tracker factory"))
	case opts.Pipeline == nil:
		return nil, errors.Join(ErrMissingDependency, errors.New("pipeline manager"))
	case opts.Reminders == nil:
		return nil, errors.Join(ErrMissingDependency, errors.New("reminder scheduler"))
	}
	return &Engine{opts: opts}, nil
}

// Session returns the operations bound to one user. Sessions are cheap and hold
// no state of their own.
func (e *Engine) Session(userID string) *Session {
	return &Session{
		engine:  e,
		userID:  userID,
		tracker: e.opts.Trackers.For(userID),
	}
}

// GetJourneyDay returns a day of a journey recoloured for stage, or nil if the
// journey or day does not exist. An empty stage returns the plain content.
func (e *Engine) GetJourneyDay(focusArea string, day int, stage string) *journey.JourneyDay {
	d := e.opts.Machine.GetJourneyDay(focusArea, day)
	if d == nil || stage == "" {
		return d
	}
	return e.opts.Machine.ApplyPhase(d, stage)
}

// GetJourneyWeek returns a week of a journey, or nil if it does not exist.
func (e *Engine) GetJourneyWeek(focusArea string, week int) *journey.JourneyWeek {
	return e.opts.Machine.GetJourneyWeek(focusArea, week)
}

// GetPhaseModifier returns the overlay for stage. Unknown stages fall back to the first stage.
func (e *Engine) GetPhaseModifier(stage string) journey.PhaseModifier {
	return e.opts.Machine.GetPhaseModifier(stage)
}

// HasPhase reports whether stage is a known recovery stage.
func (e *Engine) HasPhase(stage string) bool {
	return e.opts.Machine.HasPhase(stage)
}

// GetAvailableJourneys lists the journeys ordered by focus area.
func (e *Engine) GetAvailableJourneys() []journey.JourneySummary {
	return e.opts.Machine.GetAvailableJourneys()
}

// GetAvailablePhases lists the recovery stages in progression order.
func (e *Engine) GetAvailablePhases() []journey.PhaseModifier {
	return e.opts.Machine.GetAvailablePhases()
}

// PipelineStats exposes the activity pipeline counters.
func (e *Engine) PipelineStats() pipeline.Stats {
	return e.opts.Pipeline.GetStats()
}
