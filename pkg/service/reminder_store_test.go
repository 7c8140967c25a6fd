package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/recoverykit/journey-engine/pkg/state"
)

func testReminders(userID string, day int, base time.Time) []state.ReminderSchedule {
	return []state.ReminderSchedule{
		{ID: userID + "-r3", UserID: userID, DayNumber: day, ScheduledFor: base.Add(3 * time.Hour), Type: state.ReminderOneHour},
		{ID: userID + "-r1", UserID: userID, DayNumber: day, ScheduledFor: base.Add(1 * time.Hour), Type: state.ReminderTwelveHour},
		{ID: userID + "-r2", UserID: userID, DayNumber: day, ScheduledFor: base.Add(2 * time.Hour), Type: state.ReminderThreeHour},
	}
}

// reminderStores runs each contract test against both implementations.
func reminderStores(t *testing.T) map[string]ReminderStore {
	client, _ := setupTestRedis(t)
	return map[string]ReminderStore{
		"redis":  NewRedisReminderStore(client, RedisReminderStoreConfig{}),
		"memory": NewMemoryReminderStore(),
	}
}

func TestReminderStore_ReplaceAndList(t *testing.T) {
	base := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	for name, store := range reminderStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if err := store.ReplaceDay(ctx, "user-1", 3, testReminders("user-1", 3, base)); err != nil {
				t.Fatalf("ReplaceDay() error = %v", err)
			}
			// replacing the same day must not duplicate
			if err := store.ReplaceDay(ctx, "user-1", 3, testReminders("user-1", 3, base)); err != nil {
				t.Fatalf("ReplaceDay() error = %v", err)
			}

			list, err := store.List(ctx, "user-1")
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(list) != 3 {
				t.Fatalf("len(List()) = %d, expected 3", len(list))
			}
			for i := 1; i < len(list); i++ {
				if list[i].ScheduledFor.Before(list[i-1].ScheduledFor) {
					t.Error("List() must be ordered by trigger time")
				}
			}

			users, err := store.Users(ctx)
			if err != nil {
				t.Fatalf("Users() error = %v", err)
			}
			if len(users) != 1 || users[0] != "user-1" {
				t.Errorf("Users() = %v, expected [user-1]", users)
			}
		})
	}
}

func TestReminderStore_ClearDay(t *testing.T) {
	base := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	for name, store := range reminderStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			store.ReplaceDay(ctx, "user-1", 3, testReminders("user-1", 3, base))
			store.ReplaceDay(ctx, "user-1", 4, testReminders("user-1b", 4, base))

			if err := store.ClearDay(ctx, "user-1", 3); err != nil {
				t.Fatalf("ClearDay() error = %v", err)
			}
			list, _ := store.List(ctx, "user-1")
			if len(list) != 3 {
				t.Fatalf("len(List()) = %d, expected 3 after clearing one day", len(list))
			}
			for _, r := range list {
				if r.DayNumber != 4 {
					t.Errorf("unexpected reminder for day %d", r.DayNumber)
				}
			}

			if err := store.ClearDay(ctx, "user-1", 4); err != nil {
				t.Fatalf("ClearDay() error = %v", err)
			}
			if err := store.ClearDay(ctx, "user-1", 4); err != nil {
				t.Fatalf("ClearDay() on empty day error = %v", err)
			}
			users, _ := store.Users(ctx)
			if len(users) != 0 {
				t.Errorf("Users() = %v, expected none once all days are cleared", users)
			}
		})
	}
}

func TestReminderStore_MarkSentOnce(t *testing.T) {
	base := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	for name, store := range reminderStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store.ReplaceDay(ctx, "user-1", 3, testReminders("user-1", 3, base))

			first, err := store.MarkSent(ctx, "user-1", 3, "user-1-r1")
			if err != nil {
				t.Fatalf("MarkSent() error = %v", err)
			}
			if !first {
				t.Fatal("first MarkSent() should claim the reminder")
			}

			second, err := store.MarkSent(ctx, "user-1", 3, "user-1-r1")
			if err != nil {
				t.Fatalf("MarkSent() error = %v", err)
			}
			if second {
				t.Error("second MarkSent() must not claim the reminder again")
			}

			list, _ := store.List(ctx, "user-1")
			for _, r := range list {
				if r.ID == "user-1-r1" && !r.Sent {
					t.Error("claimed reminder should be flagged sent")
				}
				if r.ID != "user-1-r1" && r.Sent {
					t.Errorf("reminder %s should still be pending", r.ID)
				}
			}
		})
	}
}

func TestReminderStore_Purge(t *testing.T) {
	base := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	for name, store := range reminderStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store.ReplaceDay(ctx, "user-1", 3, testReminders("user-1", 3, base))

			removed, err := store.Purge(ctx, "user-1", base.Add(3*time.Hour+30*time.Minute), time.Hour)
			if err != nil {
				t.Fatalf("Purge() error = %v", err)
			}
			if removed != 2 {
				t.Errorf("Purge() removed %d, expected 2", removed)
			}

			list, _ := store.List(ctx, "user-1")
			if len(list) != 1 || list[0].ID != "user-1-r3" {
				t.Errorf("List() after purge = %+v, expected only user-1-r3", list)
			}

			removed, _ = store.Purge(ctx, "user-1", base.Add(24*time.Hour), time.Hour)
			if removed != 1 {
				t.Errorf("Purge() removed %d, expected 1", removed)
			}
			users, _ := store.Users(ctx)
			if len(users) != 0 {
				t.Errorf("Users() = %v, expected none after full purge", users)
			}
		})
	}
}

// interleaveHook runs fn once, right after the first command named name
// completes on the hooked client.
type interleaveHook struct {
	name  string
	fn    func()
	once  sync.Once
	fired bool
}

func (h *interleaveHook) BeforeProcess(ctx context.Context, _ redis.Cmder) (context.Context, error) {
	return ctx, nil
}

func (h *interleaveHook) AfterProcess(_ context.Context, cmd redis.Cmder) error {
	if cmd.Name() == h.name {
		h.once.Do(func() {
			h.fired = true
			h.fn()
		})
	}
	return nil
}

func (h *interleaveHook) BeforeProcessPipeline(ctx context.Context, _ []redis.Cmder) (context.Context, error) {
	return ctx, nil
}

func (h *interleaveHook) AfterProcessPipeline(_ context.Context, _ []redis.Cmder) error {
	return nil
}

// setupRacingStores returns a store whose client can be hooked and a second
// store on its own connection to the same server.
func setupRacingStores(t *testing.T) (*redis.Client, *RedisReminderStore, *RedisReminderStore) {
	client, mr := setupTestRedis(t)
	otherClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { otherClient.Close() })

	return client,
		NewRedisReminderStore(client, RedisReminderStoreConfig{}),
		NewRedisReminderStore(otherClient, RedisReminderStoreConfig{})
}

func TestRedisReminderStore_ClaimDoesNotRestoreClearedDay(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	client, poller, requests := setupRacingStores(t)

	if err := requests.ReplaceDay(ctx, "user-1", 2, testReminders("user-1", 2, base)); err != nil {
		t.Fatalf("ReplaceDay() error = %v", err)
	}

	// the day is completed while the poll loop is claiming one of its reminders
	hook := &interleaveHook{name: "hget", fn: func() {
		if err := requests.ClearDay(ctx, "user-1", 2); err != nil {
			t.Errorf("ClearDay() error = %v", err)
		}
	}}
	client.AddHook(hook)

	claimed, err := poller.MarkSent(ctx, "user-1", 2, "user-1-r1")
	if err != nil || !claimed {
		t.Fatalf("MarkSent() = %v, %v, expected claim", claimed, err)
	}
	if !hook.fired {
		// the claim never reads the day back; the completion lands right after it
		if err := requests.ClearDay(ctx, "user-1", 2); err != nil {
			t.Fatalf("ClearDay() error = %v", err)
		}
	}

	list, err := requests.List(ctx, "user-1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 0 {
		t.Errorf("List() = %d reminders, expected none for a completed day", len(list))
	}
	users, _ := requests.Users(ctx)
	if len(users) != 0 {
		t.Errorf("Users() = %v, expected none", users)
	}
}

func TestRedisReminderStore_PurgeKeepsConcurrentReschedule(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	client, poller, requests := setupRacingStores(t)

	// r1 is expired at purge time, r2 and r3 are not
	requests.ReplaceDay(ctx, "user-1", 2, testReminders("user-1", 2, base))
	fresh := testReminders("fresh", 2, base.Add(24*time.Hour))

	client.AddHook(&interleaveHook{name: "hgetall", fn: func() {
		if err := requests.ReplaceDay(ctx, "user-1", 2, fresh); err != nil {
			t.Errorf("ReplaceDay() error = %v", err)
		}
	}})

	removed, err := poller.Purge(ctx, "user-1", base.Add(2*time.Hour+30*time.Minute), time.Hour)
	if err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	if removed != 0 {
		t.Errorf("Purge() removed %d, expected 0 from the rescheduled day", removed)
	}

	list, _ := requests.List(ctx, "user-1")
	if len(list) != len(fresh) {
		t.Fatalf("List() = %d reminders, expected the %d rescheduled ones", len(list), len(fresh))
	}
	for _, r := range list {
		if r.UserID != "fresh" {
			t.Errorf("reminder %s survived from the replaced schedule", r.ID)
		}
	}
}

func TestRedisReminderStore_ClearKeepsUserScheduledMeanwhile(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	client, poller, requests := setupRacingStores(t)

	poller.ReplaceDay(ctx, "user-1", 2, testReminders("user-1", 2, base))

	// day 3 is scheduled between the emptiness check and the untrack
	client.AddHook(&interleaveHook{name: "hlen", fn: func() {
		if err := requests.ReplaceDay(ctx, "user-1", 3, testReminders("user-1b", 3, base)); err != nil {
			t.Errorf("ReplaceDay() error = %v", err)
		}
	}})

	if err := poller.ClearDay(ctx, "user-1", 2); err != nil {
		t.Fatalf("ClearDay() error = %v", err)
	}

	users, _ := requests.Users(ctx)
	if len(users) != 1 || users[0] != "user-1" {
		t.Errorf("Users() = %v, expected user-1 to stay tracked", users)
	}
	list, _ := requests.List(ctx, "user-1")
	if len(list) != 3 {
		t.Errorf("List() = %d reminders, expected day 3's 3", len(list))
	}
}

func TestRedisReminderStore_SentFollowsClaimMarker(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	client, _ := setupTestRedis(t)
	store := NewRedisReminderStore(client, RedisReminderStoreConfig{})

	store.ReplaceDay(ctx, "user-1", 2, testReminders("user-1", 2, base))
	store.MarkSent(ctx, "user-1", 2, "user-1-r2")

	raw, err := client.HGet(ctx, makeReminderStoreKey("user-1"), "2").Result()
	if err != nil {
		t.Fatalf("HGet() error = %v", err)
	}
	want, _ := json.Marshal(testReminders("user-1", 2, base))
	if raw != string(want) {
		t.Error("claiming must not rewrite the stored day")
	}

	list, _ := store.List(ctx, "user-1")
	for _, r := range list {
		if (r.ID == "user-1-r2") != r.Sent {
			t.Errorf("reminder %s Sent = %v", r.ID, r.Sent)
		}
	}
}
