package service

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/recoverykit/journey-engine/pkg/state"
)

const permissionStoreKey = "journey_engine:notification_permission"

// RedisPermissionStore keeps every user's notification decision in a single hash.
// Example: journey_engine:notification_permission {"u1": "granted", "u2": "denied"}
type RedisPermissionStore struct {
	client redis.UniversalClient
}

func NewRedisPermissionStore(client redis.UniversalClient) *RedisPermissionStore {
	return &RedisPermissionStore{client: client}
}

// GetPermission returns the stored decision, or PermissionDefault if the user never chose.
func (r *RedisPermissionStore) GetPermission(ctx context.Context, userID string) (state.NotificationPermission, error) {
	val, err := r.client.HGet(ctx, permissionStoreKey, userID).Result()
	if err == redis.Nil {
		return state.PermissionDefault, nil
	}
	if err != nil {
		return state.PermissionDefault, fmt.Errorf("failed to get notification permission: %w", err)
	}
	return state.NotificationPermission(val), nil
}

func (r *RedisPermissionStore) SetPermission(ctx context.Context, userID string, permission state.NotificationPermission) error {
	if err := r.client.HSet(ctx, permissionStoreKey, userID, string(permission)).Err(); err != nil {
		return fmt.Errorf("failed to set notification permission: %w", err)
	}
	return nil
}
