package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/recoverykit/journey-engine/pkg/state"
	"github.com/sirupsen/logrus"
)

const (
	toastStoreKeyPrefix = "journey_engine:toasts:"
	// toastStoreMaxEntries bounds the per-user list; older toasts fall off the tail.
	toastStoreMaxEntries = 50
	toastStoreDefaultTTL = 7 * 24 * time.Hour
)

// RedisToastStore keeps the newest in-app toasts per user in a capped list.
type RedisToastStore struct {
	client redis.UniversalClient
	cfg    RedisToastStoreConfig
}

type RedisToastStoreConfig struct {
	MaxEntries int
	TTL        time.Duration
}

func NewRedisToastStore(client redis.UniversalClient, cfg RedisToastStoreConfig) *RedisToastStore {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = toastStoreMaxEntries
	}
	if cfg.TTL <= 0 {
		cfg.TTL = toastStoreDefaultTTL
	}
	return &RedisToastStore{
		client: client,
		cfg:    cfg,
	}
}

func makeToastStoreKey(userID string) string {
	return fmt.Sprintf("%s%s", toastStoreKeyPrefix, userID)
}

// PushToast prepends a toast and trims the list.
func (r *RedisToastStore) PushToast(ctx context.Context, userID string, toast state.Toast) error {
	data, err := json.Marshal(toast)
	if err != nil {
		return fmt.Errorf("failed to marshal toast: %w", err)
	}

	key := makeToastStoreKey(userID)
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, int64(r.cfg.MaxEntries-1))
	pipe.Expire(ctx, key, r.cfg.TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to push toast: %w", err)
	}
	return nil
}

// ListToasts returns up to limit toasts, newest first. A non-positive limit returns all.
func (r *RedisToastStore) ListToasts(ctx context.Context, userID string, limit int) ([]state.Toast, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}

	raw, err := r.client.LRange(ctx, makeToastStoreKey(userID), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list toasts: %w", err)
	}

	toasts := make([]state.Toast, 0, len(raw))
	for _, item := range raw {
		var toast state.Toast
		if err := json.Unmarshal([]byte(item), &toast); err != nil {
			logrus.Warnf("skipping unreadable toast for user %s: %v", userID, err)
			continue
		}
		toasts = append(toasts, toast)
	}
	return toasts, nil
}
