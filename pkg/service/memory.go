package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/recoverykit/journey-engine/pkg/state"
)

// In-memory implementations of the storage contracts. Records are stored as
// encoded JSON so callers never share mutable state with the store, matching
// what the Redis implementations do.

// MemoryStateStore implements StateStore with a map.
type MemoryStateStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{records: make(map[string][]byte)}
}

func (m *MemoryStateStore) GetUserRecord(_ context.Context, userID string) (*state.UserRecord, error) {
	m.mu.RLock()
	data, ok := m.records[userID]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	var record state.UserRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, nil
	}
	record.Normalize()
	return &record, nil
}

func (m *MemoryStateStore) SaveUserRecord(_ context.Context, userID string, record *state.UserRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	m.mu.Lock()
	m.records[userID] = data
	m.mu.Unlock()
	return nil
}

// PutRaw stores an arbitrary document for userID. Used to simulate corrupt records.
func (m *MemoryStateStore) PutRaw(userID string, data []byte) {
	m.mu.Lock()
	m.records[userID] = data
	m.mu.Unlock()
}

// MemoryReminderStore implements ReminderStore with nested maps.
type MemoryReminderStore struct {
	mu    sync.Mutex
	users map[string]map[int][]state.ReminderSchedule
}

func NewMemoryReminderStore() *MemoryReminderStore {
	return &MemoryReminderStore{users: make(map[string]map[int][]state.ReminderSchedule)}
}

func (m *MemoryReminderStore) ReplaceDay(ctx context.Context, userID string, day int, reminders []state.ReminderSchedule) error {
	if len(reminders) == 0 {
		return m.ClearDay(ctx, userID, day)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	days, ok := m.users[userID]
	if !ok {
		days = make(map[int][]state.ReminderSchedule)
		m.users[userID] = days
	}
	days[day] = append([]state.ReminderSchedule(nil), reminders...)
	return nil
}

func (m *MemoryReminderStore) ClearDay(_ context.Context, userID string, day int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if days, ok := m.users[userID]; ok {
		delete(days, day)
		if len(days) == 0 {
			delete(m.users, userID)
		}
	}
	return nil
}

func (m *MemoryReminderStore) List(_ context.Context, userID string) ([]state.ReminderSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var all []state.ReminderSchedule
	for _, reminders := range m.users[userID] {
		all = append(all, reminders...)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].ScheduledFor.Before(all[j].ScheduledFor)
	})
	return all, nil
}

func (m *MemoryReminderStore) Users(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	users := make([]string, 0, len(m.users))
	for userID := range m.users {
		users = append(users, userID)
	}
	sort.Strings(users)
	return users, nil
}

func (m *MemoryReminderStore) MarkSent(_ context.Context, userID string, day int, reminderID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reminders := m.users[userID][day]
	for i := range reminders {
		if reminders[i].ID != reminderID {
			continue
		}
		if reminders[i].Sent {
			return false, nil
		}
		reminders[i].Sent = true
		return true, nil
	}
	return false, nil
}

func (m *MemoryReminderStore) Purge(_ context.Context, userID string, now time.Time, retention time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	days, ok := m.users[userID]
	if !ok {
		return 0, nil
	}

	removed := 0
	for day, reminders := range days {
		kept := reminders[:0]
		for _, r := range reminders {
			if r.Expired(now, retention) {
				removed++
				continue
			}
			kept = append(kept, r)
		}
		if len(kept) == 0 {
			delete(days, day)
		} else {
			days[day] = kept
		}
	}
	if len(days) == 0 {
		delete(m.users, userID)
	}
	return removed, nil
}

// MemoryToastStore implements ToastStore, newest first.
type MemoryToastStore struct {
	mu     sync.Mutex
	toasts map[string][]state.Toast
}

func NewMemoryToastStore() *MemoryToastStore {
	return &MemoryToastStore{toasts: make(map[string][]state.Toast)}
}

func (m *MemoryToastStore) PushToast(_ context.Context, userID string, toast state.Toast) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := append([]state.Toast{toast}, m.toasts[userID]...)
	if len(list) > toastStoreMaxEntries {
		list = list[:toastStoreMaxEntries]
	}
	m.toasts[userID] = list
	return nil
}

func (m *MemoryToastStore) ListToasts(_ context.Context, userID string, limit int) ([]state.Toast, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.toasts[userID]
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return append([]state.Toast(nil), list...), nil
}

// MemoryPermissionStore implements PermissionStore.
type MemoryPermissionStore struct {
	mu          sync.RWMutex
	permissions map[string]state.NotificationPermission
}

func NewMemoryPermissionStore() *MemoryPermissionStore {
	return &MemoryPermissionStore{permissions: make(map[string]state.NotificationPermission)}
}

func (m *MemoryPermissionStore) GetPermission(_ context.Context, userID string) (state.NotificationPermission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.permissions[userID]; ok {
		return p, nil
	}
	return state.PermissionDefault, nil
}

func (m *MemoryPermissionStore) SetPermission(_ context.Context, userID string, permission state.NotificationPermission) error {
	m.mu.Lock()
	m.permissions[userID] = permission
	m.mu.Unlock()
	return nil
}
