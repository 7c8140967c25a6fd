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
	// userStateStoreDefaultTTL keeps an idle user's record for a full program plus slack.
	userStateStoreDefaultTTL = 180 * 24 * time.Hour
	// userStateStoreKeyPrefix is the prefix for all user state keys
	userStateStoreKeyPrefix = "journey_engine:user_state:"
)

// RedisUserStateStore implements StateStore using Redis.
type RedisUserStateStore struct {
	client redis.UniversalClient
	cfg    RedisUserStateStoreConfig
}

type RedisUserStateStoreConfig struct {
	// TTL overrides the default retention of an idle record.
	TTL time.Duration
}

// NewRedisUserStateStore creates a new Redis-backed state store.
func NewRedisUserStateStore(
	client redis.UniversalClient,
	cfg RedisUserStateStoreConfig,
) *RedisUserStateStore {
	if cfg.TTL <= 0 {
		cfg.TTL = userStateStoreDefaultTTL
	}
	return &RedisUserStateStore{
		client: client,
		cfg:    cfg,
	}
}

// makeUserStateStoreKey creates a Redis key for a user
func makeUserStateStoreKey(userID string) string {
	return fmt.Sprintf("%s%s", userStateStoreKeyPrefix, userID)
}

// GetUserRecord retrieves the record for a user from Redis.
// A missing key or an undecodable document yields (nil, nil).
func (r *RedisUserStateStore) GetUserRecord(ctx context.Context, userID string) (*state.UserRecord, error) {
	key := makeUserStateStoreKey(userID)

	data, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		logrus.Debugf("no stored record for user %s", userID)
		return nil, nil
	}
	if err != nil {
		logrus.Errorf("failed to get record for user %s: %v", userID, err)
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	var record state.UserRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		logrus.Errorf("discarding unreadable record for user %s: %v", userID, err)
		return nil, nil
	}
	record.Normalize()

	logrus.Debugf("retrieved record for user %s", userID)
	return &record, nil
}

// SaveUserRecord writes the record for a user to Redis, refreshing its TTL.
func (r *RedisUserStateStore) SaveUserRecord(ctx context.Context, userID string, record *state.UserRecord) error {
	key := makeUserStateStoreKey(userID)

	data, err := json.Marshal(record)
	if err != nil {
		logrus.Errorf("failed to marshal record for user %s: %v", userID, err)
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	if err := r.client.Set(ctx, key, data, r.cfg.TTL).Err(); err != nil {
		logrus.Errorf("failed to set record for user %s: %v", userID, err)
		return fmt.Errorf("failed to set record: %w", err)
	}

	logrus.Debugf("updated record for user %s with TTL %v", userID, r.cfg.TTL)
	return nil
}

// DeleteUserRecord deletes the record for a user from Redis
func (r *RedisUserStateStore) DeleteUserRecord(ctx context.Context, userID string) error {
	key := makeUserStateStoreKey(userID)

	if err := r.client.Del(ctx, key).Err(); err != nil {
		logrus.Errorf("failed to delete record for user %s: %v", userID, err)
		return fmt.Errorf("failed to delete record: %w", err)
	}

	logrus.Infof("deleted record for user %s", userID)
	return nil
}
