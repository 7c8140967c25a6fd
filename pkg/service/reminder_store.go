package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/recoverykit/journey-engine/pkg/state"
	"github.com/sirupsen/logrus"
)

const (
	reminderStoreKeyPrefix  = "journey_engine:reminders:"
	reminderStoreUsersKey   = "journey_engine:reminder_users"
	reminderStoreSentPrefix = "journey_engine:reminder_sent:"
	// reminderStoreDefaultTTL bounds how long an abandoned reminder hash survives.
	reminderStoreDefaultTTL = 72 * time.Hour
	// reminderSentMarkerTTL outlives the purge window so a marker never expires
	// while its reminder can still be claimed.
	reminderSentMarkerTTL = 48 * time.Hour

	reminderStoreWatchRetries = 5
)

// RedisReminderStore keeps reminders in one hash per user, one field per journey day.
// Example: journey_engine:reminders:u1 {"4": "[{...twelve_hour...},{...one_hour...}]"}
type RedisReminderStore struct {
	client redis.UniversalClient
	cfg    RedisReminderStoreConfig
}

type RedisReminderStoreConfig struct{}

func NewRedisReminderStore(client redis.UniversalClient, cfg RedisReminderStoreConfig) *RedisReminderStore {
	return &RedisReminderStore{
		client: client,
		cfg:    cfg,
	}
}

func makeReminderStoreKey(userID string) string {
	return fmt.Sprintf("%s%s", reminderStoreKeyPrefix, userID)
}

func makeReminderSentKey(reminderID string) string {
	return fmt.Sprintf("%s%s", reminderStoreSentPrefix, reminderID)
}

// ReplaceDay overwrites the reminders for one journey day.
func (r *RedisReminderStore) ReplaceDay(ctx context.Context, userID string, day int, reminders []state.ReminderSchedule) error {
	if len(reminders) == 0 {
		return r.ClearDay(ctx, userID, day)
	}

	data, err := json.Marshal(reminders)
	if err != nil {
		return fmt.Errorf("failed to marshal reminders: %w", err)
	}

	key := makeReminderStoreKey(userID)
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, strconv.Itoa(day), data)
	pipe.Expire(ctx, key, reminderStoreDefaultTTL)
	pipe.SAdd(ctx, reminderStoreUsersKey, userID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store reminders: %w", err)
	}
	return nil
}

// ClearDay removes all reminders for one journey day.
func (r *RedisReminderStore) ClearDay(ctx context.Context, userID string, day int) error {
	key := makeReminderStoreKey(userID)
	if err := r.client.HDel(ctx, key, strconv.Itoa(day)).Err(); err != nil {
		return fmt.Errorf("failed to clear reminders: %w", err)
	}
	return r.untrackIfEmpty(ctx, userID)
}

// List returns all reminders for a user ordered by trigger time. Sent is read
// from the claim markers written by MarkSent, never from the hash.
func (r *RedisReminderStore) List(ctx context.Context, userID string) ([]state.ReminderSchedule, error) {
	days, err := r.client.HGetAll(ctx, makeReminderStoreKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get reminders: %w", err)
	}

	var all []state.ReminderSchedule
	for field, raw := range days {
		var reminders []state.ReminderSchedule
		if err := json.Unmarshal([]byte(raw), &reminders); err != nil {
			// Skip invalid entries
			logrus.Warnf("skipping unreadable reminders for user %s day %s: %v", userID, field, err)
			continue
		}
		all = append(all, reminders...)
	}
	if len(all) == 0 {
		return all, nil
	}

	// one EXISTS per marker; MGET would fail across cluster slots
	pipe := r.client.Pipeline()
	claims := make([]*redis.IntCmd, len(all))
	for i := range all {
		claims[i] = pipe.Exists(ctx, makeReminderSentKey(all[i].ID))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to read reminder claims: %w", err)
	}
	for i := range all {
		all[i].Sent = claims[i].Val() > 0
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].ScheduledFor.Before(all[j].ScheduledFor)
	})
	return all, nil
}

// Users returns all users with tracked reminders.
func (r *RedisReminderStore) Users(ctx context.Context) ([]string, error) {
	users, err := r.client.SMembers(ctx, reminderStoreUsersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list reminder users: %w", err)
	}
	sort.Strings(users)
	return users, nil
}

// MarkSent claims a reminder with SETNX so that overlapping checks, in this
// process or another replica, deliver it at most once. The reminder hash is
// left untouched, so a concurrent ClearDay or ReplaceDay is never undone.
func (r *RedisReminderStore) MarkSent(ctx context.Context, userID string, day int, reminderID string) (bool, error) {
	claimed, err := r.client.SetNX(ctx, makeReminderSentKey(reminderID), userID, reminderSentMarkerTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim reminder: %w", err)
	}
	return claimed, nil
}

// Purge drops reminders that expired more than retention before now. The
// rewrite runs under WATCH, so a day replaced or cleared mid-purge is retried
// instead of overwritten.
func (r *RedisReminderStore) Purge(ctx context.Context, userID string, now time.Time, retention time.Duration) (int, error) {
	key := makeReminderStoreKey(userID)

	removed := 0
	purge := func(tx *redis.Tx) error {
		removed = 0
		days, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}

		var drop []string
		rewrite := make(map[string]interface{})
		for field, raw := range days {
			var reminders []state.ReminderSchedule
			if err := json.Unmarshal([]byte(raw), &reminders); err != nil {
				drop = append(drop, field)
				continue
			}

			kept := reminders[:0]
			for i := range reminders {
				if reminders[i].Expired(now, retention) {
					removed++
					continue
				}
				kept = append(kept, reminders[i])
			}

			switch {
			case len(kept) == 0:
				drop = append(drop, field)
			case len(kept) != len(reminders):
				data, err := json.Marshal(kept)
				if err != nil {
					return fmt.Errorf("failed to marshal reminders: %w", err)
				}
				rewrite[field] = data
			}
		}
		if len(drop) == 0 && len(rewrite) == 0 {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if len(drop) > 0 {
				pipe.HDel(ctx, key, drop...)
			}
			if len(rewrite) > 0 {
				pipe.HSet(ctx, key, rewrite)
			}
			return nil
		})
		return err
	}

	if err := r.watch(ctx, key, purge); err != nil {
		return 0, fmt.Errorf("failed to purge reminders: %w", err)
	}
	if err := r.untrackIfEmpty(ctx, userID); err != nil {
		return removed, err
	}
	return removed, nil
}

// untrackIfEmpty removes userID from the users set once its hash is empty.
// A ReplaceDay landing in between aborts the transaction and the check reruns.
func (r *RedisReminderStore) untrackIfEmpty(ctx context.Context, userID string) error {
	key := makeReminderStoreKey(userID)
	err := r.watch(ctx, key, func(tx *redis.Tx) error {
		n, err := tx.HLen(ctx, key).Result()
		if err != nil || n > 0 {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SRem(ctx, reminderStoreUsersKey, userID)
			return nil
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to untrack reminder user: %w", err)
	}
	return nil
}

// watch runs fn in an optimistic transaction on key, retrying when another
// client modifies the key before EXEC.
func (r *RedisReminderStore) watch(ctx context.Context, key string, fn func(*redis.Tx) error) error {
	for attempt := 0; attempt < reminderStoreWatchRetries; attempt++ {
		err := r.client.Watch(ctx, fn, key)
		if err != redis.TxFailedErr {
			return err
		}
	}
	return redis.TxFailedErr
}
