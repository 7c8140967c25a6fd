package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-redis/redis/v8"
	"github.com/recoverykit/journey-engine/internal/app"
	"github.com/recoverykit/journey-engine/internal/bootstrap"
	"github.com/recoverykit/journey-engine/internal/config"
	"github.com/recoverykit/journey-engine/pkg/service"
)

// Context is handed to every command.
type Context struct {
	Out io.Writer

	client     *redis.Client
	components *bootstrap.Components
}

// engine connects to Redis with the service's configuration and assembles the
// engine without a reminder poll loop.
func (c *Context) engine(ctx context.Context) (*bootstrap.Components, error) {
	if c.components != nil {
		return c.components, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	client, err := service.NewRedisClient(ctx, service.RedisClientConfig{
		Host:       cfg.RedisHost,
		Port:       cfg.RedisPort,
		Password:   cfg.RedisPassword,
		DB:         cfg.RedisDB,
		MaxRetries: cfg.RedisMaxRetries,
	})
	if err != nil {
		return nil, err
	}

	pipelineConfig, err := app.LoadPipelineConfig(cfg.ConfigPath)
	if err != nil {
		client.Close()
		return nil, err
	}

	components, err := app.NewEngine(cfg, client, pipelineConfig, nil)
	if err != nil {
		client.Close()
		return nil, err
	}

	c.client = client
	c.components = components
	return components, nil
}

func (c *Context) close() {
	if c.client != nil {
		c.client.Close()
	}
}

func (c *Context) printJSON(v interface{}) error {
	enc := json.NewEncoder(c.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
