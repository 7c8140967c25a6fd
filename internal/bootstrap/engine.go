package bootstrap

import (
	"fmt"
	"time"

	actionBuiltin "github.com/recoverykit/journey-engine/pkg/action/builtin"
	"github.com/recoverykit/journey-engine/pkg/clock"
	"github.com/recoverykit/journey-engine/pkg/engagement"
	"github.com/recoverykit/journey-engine/pkg/engine"
	"github.com/recoverykit/journey-engine/pkg/journey"
	"github.com/recoverykit/journey-engine/pkg/notifier"
	"github.com/recoverykit/journey-engine/pkg/pipeline"
	"github.com/recoverykit/journey-engine/pkg/reminder"
	"github.com/recoverykit/journey-engine/pkg/rule"
	"github.com/recoverykit/journey-engine/pkg/service"
	"github.com/sirupsen/logrus"
)

// EngineDeps are the stores and settings the engine is assembled from.
type EngineDeps struct {
	Clock       clock.Clock
	States      service.StateStore
	Reminders   service.ReminderStore
	Toasts      service.ToastStore
	Permissions service.PermissionStore

	// Ticker drives the reminder poll loop. Nil leaves CheckDue to the caller.
	Ticker         reminder.Ticker
	ReminderConfig reminder.Config

	Journey        journey.Options
	WebhookURL     string
	WebhookTimeout time.Duration

	PipelineConfig *pipeline.Config
}

// Components is everything InitEngine built that the app needs to manage.
type Components struct {
	Engine    *engine.Engine
	Scheduler *reminder.Scheduler
	Pipeline  *pipeline.Manager
}

// InitEngine wires the journey machine, trackers, notification channels, reminder
// scheduler and activity pipeline into an Engine. The pipeline wiring is
// validated before the engine is returned.
func InitEngine(deps EngineDeps) (*Components, error) {
	if deps.PipelineConfig == nil {
		return nil, fmt.Errorf("pipeline config is required")
	}

	machine, err := journey.New(deps.Journey)
	if err != nil {
		return nil, fmt.Errorf("failed to load journey content: %w", err)
	}
	logrus.Infof("loaded %d journeys and %d phases", len(machine.GetAvailableJourneys()), len(machine.GetAvailablePhases()))

	trackers := engagement.NewFactory(deps.States, deps.Clock)

	inApp := notifier.NewInApp(deps.Toasts, deps.Clock)
	webhook := notifier.NewWebhook(deps.WebhookURL, deps.WebhookTimeout, deps.Permissions)
	opts := []notifier.DispatcherOption{notifier.WithChannel("in_app", inApp)}
	if webhook.Supported() {
		opts = append(opts, notifier.WithChannel("webhook", webhook))
	} else {
		logrus.Info("no push gateway configured, os notifications are unsupported")
	}
	dispatcher := notifier.NewDispatcher(opts...)

	scheduler := reminder.NewScheduler(deps.Reminders, dispatcher, deps.Clock, deps.Ticker, deps.ReminderConfig)

	ruleEngine, ruleRegistry, err := InitRuleEngine(deps.PipelineConfig, rule.NewRuleDependencies().WithUnlocker(machine))
	if err != nil {
		return nil, err
	}

	executor, actionRegistry, err := InitActionExecutor(deps.PipelineConfig, &actionBuiltin.Dependencies{
		Trackers:  trackers,
		Reminders: scheduler,
		Notifier:  dispatcher,
	})
	if err != nil {
		return nil, err
	}

	if err := pipeline.ValidateWiring(ruleRegistry, actionRegistry, deps.PipelineConfig); err != nil {
		return nil, err
	}

	manager := InitPipeline(InitSignalProcessor(trackers), ruleEngine, executor, deps.PipelineConfig)

	eng, err := engine.New(engine.Options{
		Clock:       deps.Clock,
		Machine:     machine,
		Trackers:    trackers,
		Pipeline:    manager,
		Reminders:   scheduler,
		Permissions: webhook,
		Toasts:      inApp,
	})
	if err != nil {
		return nil, err
	}

	return &Components{
		Engine:    eng,
		Scheduler: scheduler,
		Pipeline:  manager,
	}, nil
}
