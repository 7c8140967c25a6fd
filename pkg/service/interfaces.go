package service

import (
	"context"
	"time"

	"github.com/recoverykit/journey-engine/pkg/state"
)

// Storage contracts the engine depends on. Redis implementations live in this
// package; in-memory ones back tests and single-process runs.

// StateStore persists one UserRecord per user.
// GetUserRecord returns (nil, nil) when no record exists or the stored document
// cannot be decoded; callers treat both as "no user context".
type StateStore interface {
	GetUserRecord(ctx context.Context, userID string) (*state.UserRecord, error)
	SaveUserRecord(ctx context.Context, userID string, record *state.UserRecord) error
}

// ReminderStore keeps pending reminders grouped by user and journey day.
type ReminderStore interface {
	// ReplaceDay overwrites all reminders for (userID, day).
	ReplaceDay(ctx context.Context, userID string, day int, reminders []state.ReminderSchedule) error
	// ClearDay removes all reminders for (userID, day). No-op if none exist.
	ClearDay(ctx context.Context, userID string, day int) error
	// List returns every reminder tracked for userID, ordered by trigger time.
	List(ctx context.Context, userID string) ([]state.ReminderSchedule, error)
	// Users returns every user with at least one tracked reminder.
	Users(ctx context.Context) ([]string, error)
	// MarkSent flips a reminder to sent. It returns true only for the caller
	// that performed the transition.
	MarkSent(ctx context.Context, userID string, day int, reminderID string) (bool, error)
	// Purge drops reminders that expired more than retention before now and
	// returns how many were removed.
	Purge(ctx context.Context, userID string, now time.Time, retention time.Duration) (int, error)
}

// ToastStore keeps recent in-app notifications per user.
type ToastStore interface {
	PushToast(ctx context.Context, userID string, toast state.Toast) error
	ListToasts(ctx context.Context, userID string, limit int) ([]state.Toast, error)
}

// PermissionStore records users' OS-level notification decisions.
type PermissionStore interface {
	GetPermission(ctx context.Context, userID string) (state.NotificationPermission, error)
	SetPermission(ctx context.Context, userID string, permission state.NotificationPermission) error
}
