// Package enginetest assembles a complete Engine over in-memory stores.
package enginetest

import (
	"testing"
	"time"

	"github.com/recoverykit/journey-engine/config"
	"github.com/recoverykit/journey-engine/internal/bootstrap"
	"github.com/recoverykit/journey-engine/pkg/clock"
	"github.com/recoverykit/journey-engine/pkg/journey"
	"github.com/recoverykit/journey-engine/pkg/pipeline"
	"github.com/recoverykit/journey-engine/pkg/service"
)

// Env is an assembled engine together with the stores behind it.
type Env struct {
	*bootstrap.Components
	Clock       *clock.Fixed
	States      *service.MemoryStateStore
	Reminders   *service.MemoryReminderStore
	Toasts      *service.MemoryToastStore
	Permissions *service.MemoryPermissionStore
}

// Options tweak the assembled engine.
type Options struct {
	WebhookURL   string
	BypassUnlock bool
}

// New builds an engine with the default pipeline whose clock is frozen at now.
// Day boundaries follow now's location.
func New(t testing.TB, now time.Time, opts Options) *Env {
	t.Helper()

	pipelineConfig, err := pipeline.ParseConfig(config.Pipeline)
	if err != nil {
		t.Fatalf("failed to parse default pipeline: %v", err)
	}

	env := &Env{
		Clock:       clock.NewFixed(now),
		States:      service.NewMemoryStateStore(),
		Reminders:   service.NewMemoryReminderStore(),
		Toasts:      service.NewMemoryToastStore(),
		Permissions: service.NewMemoryPermissionStore(),
	}

	components, err := bootstrap.InitEngine(bootstrap.EngineDeps{
		Clock:          env.Clock,
		States:         env.States,
		Reminders:      env.Reminders,
		Toasts:         env.Toasts,
		Permissions:    env.Permissions,
		Journey:        journey.Options{Location: now.Location(), BypassUnlock: opts.BypassUnlock},
		WebhookURL:     opts.WebhookURL,
		WebhookTimeout: time.Second,
		PipelineConfig: pipelineConfig,
	})
	if err != nil {
		t.Fatalf("failed to assemble engine: %v", err)
	}
	env.Components = components
	return env
}
