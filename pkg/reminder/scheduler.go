// Package reminder schedules deadline reminders for incomplete journey days
// and delivers them when due.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/recoverykit/journey-engine/pkg/clock"
	"github.com/recoverykit/journey-engine/pkg/journey"
	"github.com/recoverykit/journey-engine/pkg/metrics"
	"github.com/recoverykit/journey-engine/pkg/notifier"
	"github.com/recoverykit/journey-engine/pkg/service"
	"github.com/recoverykit/journey-engine/pkg/state"
	"github.com/sirupsen/logrus"
)

const (
	DefaultPollInterval = 60 * time.Second
	DefaultRetention    = 24 * time.Hour
)

var (
	ErrAlreadyStarted = errors.New("reminder scheduler already started")
	// ErrNoTicker is returned by Start on a scheduler built without a Ticker.
	ErrNoTicker = errors.New("reminder scheduler has no ticker")
)

// offsets are measured back from the end of the local day.
var offsets = []struct {
	kind   state.ReminderType
	before time.Duration
}{
	{state.ReminderTwelveHour, 12 * time.Hour},
	{state.ReminderThreeHour, 3 * time.Hour},
	{state.ReminderOneHour, 1 * time.Hour},
}

type message struct {
	title string
	body  string
}

var messages = map[state.ReminderType]message{
	state.ReminderTwelveHour: {"12 hours left today", "There's still time to complete Day %d of your journey."},
	state.ReminderThreeHour:  {"3 hours left today", "Day %d is waiting for you. A few minutes is enough."},
	state.ReminderOneHour:    {"Final hour for today", "Complete Day %d before midnight to keep your progress moving."},
}

// Config tunes the poll loop.
type Config struct {
	PollInterval time.Duration
	// Retention is how long after its trigger time a reminder is kept.
	Retention time.Duration
}

// Scheduler owns reminder bookkeeping. Storage is injected so several
// replicas can share it; delivery goes through a Notifier.
type Scheduler struct {
	store    service.ReminderStore
	notifier notifier.Notifier
	clock    clock.Clock
	ticker   Ticker
	cfg      Config

	mu         sync.Mutex
	running    bool
	registered bool
}

func NewScheduler(store service.ReminderStore, n notifier.Notifier, clk clock.Clock, ticker Ticker, cfg Config) *Scheduler {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	return &Scheduler{
		store:    store,
		notifier: n,
		clock:    clk,
		ticker:   ticker,
		cfg:      cfg,
	}
}

func (s *Scheduler) now() time.Time {
	return s.clock.Now().In(s.clock.Location())
}

// ScheduleReminders sets up today's deadline reminders for day. When the day is
// already completed its reminders are cleared instead. Only reminders that
// trigger strictly after now are kept, and any earlier schedule for the day is
// replaced.
func (s *Scheduler) ScheduleReminders(ctx context.Context, userID string, day int, completedToday bool) ([]state.ReminderSchedule, error) {
	if err := journey.ValidateDay(day); err != nil {
		return nil, err
	}
	if completedToday {
		return nil, s.ClearDayReminders(ctx, userID, day)
	}

	now := s.now()
	endOfDay := clock.EndOfDay(now)

	reminders := make([]state.ReminderSchedule, 0, len(offsets))
	for _, o := range offsets {
		at := endOfDay.Add(-o.before)
		if !at.After(now) {
			continue
		}
		reminders = append(reminders, state.ReminderSchedule{
			ID:           uuid.NewString(),
			UserID:       userID,
			DayNumber:    day,
			ScheduledFor: at,
			Type:         o.kind,
		})
	}

	if err := s.store.ReplaceDay(ctx, userID, day, reminders); err != nil {
		return nil, fmt.Errorf("failed to schedule reminders: %w", err)
	}

	for _, r := range reminders {
		metrics.RemindersScheduledTotal.WithLabelValues(string(r.Type)).Inc()
	}
	logrus.WithFields(logrus.Fields{
		"userId": userID,
		"day":    day,
	}).Infof("scheduled %d reminders", len(reminders))
	return reminders, nil
}

// ClearDayReminders drops every reminder for (userID, day).
func (s *Scheduler) ClearDayReminders(ctx context.Context, userID string, day int) error {
	if err := s.store.ClearDay(ctx, userID, day); err != nil {
		return fmt.Errorf("failed to clear reminders: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"userId": userID,
		"day":    day,
	}).Debug("cleared day reminders")
	return nil
}

// GetScheduledNotifications lists a user's pending and sent reminders.
func (s *Scheduler) GetScheduledNotifications(ctx context.Context, userID string) ([]state.ReminderSchedule, error) {
	reminders, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if reminders == nil {
		reminders = []state.ReminderSchedule{}
	}
	return reminders, nil
}

// CheckDue delivers every due, unsent reminder exactly once and purges reminders
// older than the retention window. It returns how many reminders were delivered.
func (s *Scheduler) CheckDue(ctx context.Context) (int, error) {
	started := time.Now()
	defer func() {
		metrics.ReminderCheckDuration.Observe(time.Since(started).Seconds())
	}()

	now := s.now()
	users, err := s.store.Users(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list reminder users: %w", err)
	}

	delivered := 0
	for _, userID := range users {
		if ctx.Err() != nil {
			return delivered, ctx.Err()
		}

		// stale reminders are dropped before delivery so a late poll never fires them
		if removed, err := s.store.Purge(ctx, userID, now, s.cfg.Retention); err != nil {
			logrus.WithField("userId", userID).Errorf("failed to purge reminders: %v", err)
		} else if removed > 0 {
			logrus.WithField("userId", userID).Debugf("purged %d expired reminders", removed)
		}

		reminders, err := s.store.List(ctx, userID)
		if err != nil {
			logrus.WithField("userId", userID).Errorf("failed to list reminders: %v", err)
			continue
		}

		for i := range reminders {
			r := reminders[i]
			if !r.Due(now) {
				continue
			}
			if s.deliver(ctx, r) {
				delivered++
			}
		}
	}
	return delivered, nil
}

// deliver claims r and hands it to the notifier. Delivery errors do not undo the claim.
func (s *Scheduler) deliver(ctx context.Context, r state.ReminderSchedule) bool {
	log := logrus.WithFields(logrus.Fields{
		"userId": r.UserID,
		"day":    r.DayNumber,
		"type":   r.Type,
	})

	claimed, err := s.store.MarkSent(ctx, r.UserID, r.DayNumber, r.ID)
	if err != nil {
		log.Errorf("failed to claim reminder: %v", err)
		return false
	}
	if !claimed {
		return false
	}

	msg := messages[r.Type]
	if err := s.notifier.Show(ctx, r.UserID, msg.title, fmt.Sprintf(msg.body, r.DayNumber)); err != nil {
		log.Warnf("reminder delivery failed: %v", err)
	}
	metrics.RemindersDeliveredTotal.WithLabelValues(string(r.Type)).Inc()
	log.Info("reminder delivered")
	return true
}

// Start runs CheckDue every poll interval until Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker == nil {
		return ErrNoTicker
	}
	if s.running {
		return ErrAlreadyStarted
	}

	if !s.registered {
		err := s.ticker.Every(s.cfg.PollInterval, func() {
			if _, err := s.CheckDue(ctx); err != nil {
				logrus.Errorf("reminder check failed: %v", err)
			}
		})
		if err != nil {
			return err
		}
		s.registered = true
	}

	s.ticker.Start()
	s.running = true
	logrus.Infof("reminder scheduler started (every %s)", s.cfg.PollInterval)
	return nil
}

// Stop cancels future checks and waits for an in-flight check to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.ticker == nil {
		return
	}

	<-s.ticker.Stop().Done()
	s.running = false
	logrus.Info("reminder scheduler stopped")
}
