// Package notifier delivers user-facing notifications over an in-app toast
// channel and an OS-level push channel. Delivery is best-effort: failures are
// logged and counted, never retried.
package notifier

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/recoverykit/journey-engine/pkg/clock"
	"github.com/recoverykit/journey-engine/pkg/metrics"
	"github.com/recoverykit/journey-engine/pkg/service"
	"github.com/recoverykit/journey-engine/pkg/state"
	"github.com/sirupsen/logrus"
)

// Notifier shows a notification to a user.
type Notifier interface {
	Show(ctx context.Context, userID, title, body string) error
}

// InApp stores toasts for the client to pick up.
type InApp struct {
	store service.ToastStore
	clock clock.Clock
}

func NewInApp(store service.ToastStore, clk clock.Clock) *InApp {
	return &InApp{store: store, clock: clk}
}

func (n *InApp) Show(ctx context.Context, userID, title, body string) error {
	return n.store.PushToast(ctx, userID, state.Toast{
		ID:        uuid.NewString(),
		Title:     title,
		Body:      body,
		CreatedAt: n.clock.Now(),
	})
}

// Recent returns the newest toasts for userID.
func (n *InApp) Recent(ctx context.Context, userID string, limit int) ([]state.Toast, error) {
	return n.store.ListToasts(ctx, userID, limit)
}

type channel struct {
	name     string
	notifier Notifier
}

// Dispatcher fans a notification out to every channel. A failing channel does
// not stop the others, and Show itself never fails.
type Dispatcher struct {
	channels []channel
	timeout  time.Duration
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithChannel adds a named delivery channel.
func WithChannel(name string, n Notifier) DispatcherOption {
	return func(d *Dispatcher) {
		if n != nil {
			d.channels = append(d.channels, channel{name: name, notifier: n})
		}
	}
}

// WithTimeout bounds each channel's delivery attempt.
func WithTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.timeout = timeout
	}
}

func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{timeout: 10 * time.Second}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) Show(ctx context.Context, userID, title, body string) error {
	for _, ch := range d.channels {
		chCtx, cancel := context.WithTimeout(ctx, d.timeout)
		err := ch.notifier.Show(chCtx, userID, title, body)
		cancel()

		if err != nil {
			metrics.NotificationsTotal.WithLabelValues(ch.name, "error").Inc()
			logrus.WithFields(logrus.Fields{
				"userId":  userID,
				"channel": ch.name,
			}).Warnf("notification delivery failed: %v", err)
			continue
		}
		metrics.NotificationsTotal.WithLabelValues(ch.name, "ok").Inc()
	}
	return nil
}
