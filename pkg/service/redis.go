package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// RedisClientConfig describes how to reach Redis.
type RedisClientConfig struct {
	Host       string
	Port       string
	Password   string
	DB         int
	MaxRetries int
}

// NewRedisClient connects to Redis and pings it with exponential backoff.
// The client is closed if it never becomes reachable.
func NewRedisClient(ctx context.Context, cfg RedisClientConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Host + ":" + cfg.Port,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(retries)), ctx)

	err := backoff.Retry(
		func() error {
			if _, err := client.Ping(ctx).Result(); err != nil {
				logrus.Warnf("Redis connection failed: %v, retrying...", err)
				return err
			}
			return nil
		},
		b,
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("redis unreachable at %s:%s: %w", cfg.Host, cfg.Port, err)
	}

	logrus.Infof("Redis client connected to %s:%s (db %d)", cfg.Host, cfg.Port, cfg.DB)
	return client, nil
}
