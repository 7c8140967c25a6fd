package app

import (
	"context"
	"fmt"

	"github.com/recoverykit/journey-engine/config"
	"github.com/recoverykit/journey-engine/internal/bootstrap"
	appConfig "github.com/recoverykit/journey-engine/internal/config"
	"github.com/recoverykit/journey-engine/internal/server"
	"github.com/recoverykit/journey-engine/pkg/clock"
	"github.com/recoverykit/journey-engine/pkg/handler"
	"github.com/recoverykit/journey-engine/pkg/journey"
	"github.com/recoverykit/journey-engine/pkg/pipeline"
	"github.com/recoverykit/journey-engine/pkg/reminder"
	"github.com/recoverykit/journey-engine/pkg/service"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const metricsEndpoint = "/metrics"

// App holds all application dependencies and manages the application lifecycle.
type App struct {
	cfg               *appConfig.Config
	httpServer        *server.HTTPServer
	grpcServer        *server.GRPCServer
	metricsServer     *server.MetricsServer
	redisClient       *redis.Client
	components        *bootstrap.Components
	shutdownTelemetry func(context.Context) error
}

// New creates and initializes a new application instance.
//
// ============================================================
// DEVELOPER: Application initialization order
// ============================================================
// Components are initialized in dependency order:
// 1. Telemetry (so startup spans and trace IDs are real)
// 2. Redis (required for state storage)
// 3. Pipeline config (embedded YAML or CONFIG_PATH)
// 4. Stores over Redis
// 5. Engine (journey machine, trackers, notifiers, reminders, pipeline)
// 6. Servers (HTTP, gRPC health, metrics)
//
// If you add new external dependencies, initialize them in
// step 4 and hand them to bootstrap.InitEngine.
// ============================================================
func New(ctx context.Context, cfg *appConfig.Config) (*App, error) {
	logrus.Info("initializing application...")

	app := &App{cfg: cfg}

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	// ============================================================
	// Step 1: Setup telemetry
	// ============================================================
	if cfg.OtelEnabled {
		shutdownTelemetry, err := server.SetupTelemetry(ctx, server.TelemetryConfig{
			ServiceName:    cfg.ServiceName,
			Environment:    cfg.Environment,
			ZipkinEndpoint: cfg.ZipkinEndpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to setup telemetry: %w", err)
		}
		app.shutdownTelemetry = shutdownTelemetry
	}

	// ============================================================
	// Step 2: Initialize Redis
	// ============================================================
	var err error
	app.redisClient, err = service.NewRedisClient(ctx, service.RedisClientConfig{
		Host:       cfg.RedisHost,
		Port:       cfg.RedisPort,
		Password:   cfg.RedisPassword,
		DB:         cfg.RedisDB,
		MaxRetries: cfg.RedisMaxRetries,
	})
	if err != nil {
		app.cleanup(ctx)
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}

	// ============================================================
	// Step 3: Load pipeline configuration
	// ============================================================
	pipelineConfig, err := LoadPipelineConfig(cfg.ConfigPath)
	if err != nil {
		app.cleanup(ctx)
		return nil, err
	}

	// ============================================================
	// Step 4 + 5: Stores and engine
	// ============================================================
	app.components, err = NewEngine(cfg, app.redisClient, pipelineConfig, reminder.NewCronTicker())
	if err != nil {
		app.cleanup(ctx)
		return nil, fmt.Errorf("failed to init engine: %w", err)
	}
	if cfg.JourneyUnlockBypass {
		logrus.Warn("JOURNEY_UNLOCK_BYPASS is set, every journey day is unlocked")
	}

	// ============================================================
	// Step 6: Setup servers
	// ============================================================
	checker := service.NewHealthChecker(app.redisClient)

	app.httpServer = server.NewHTTPServer(cfg.HTTPPort, handler.New(app.components.Engine), checker)
	if err := app.httpServer.Setup(); err != nil {
		app.cleanup(ctx)
		return nil, fmt.Errorf("failed to setup HTTP server: %w", err)
	}

	app.grpcServer = server.NewGRPCServer(cfg.GRPCPort, checker)
	if err := app.grpcServer.Setup(); err != nil {
		app.cleanup(ctx)
		return nil, fmt.Errorf("failed to setup gRPC server: %w", err)
	}

	app.metricsServer = server.NewMetricsServer(cfg.MetricsPort, metricsEndpoint)
	if err := app.metricsServer.Setup(); err != nil {
		app.cleanup(ctx)
		return nil, fmt.Errorf("failed to setup metrics server: %w", err)
	}

	logrus.Info("application initialized successfully")

	return app, nil
}

// NewEngine assembles the engine over Redis-backed stores. A nil ticker leaves
// reminder checks to the caller.
func NewEngine(cfg *appConfig.Config, client redis.UniversalClient, pipelineConfig *pipeline.Config, ticker reminder.Ticker) (*bootstrap.Components, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	return bootstrap.InitEngine(bootstrap.EngineDeps{
		Clock:       clock.NewSystem(loc),
		States:      service.NewRedisUserStateStore(client, service.RedisUserStateStoreConfig{}),
		Reminders:   service.NewRedisReminderStore(client, service.RedisReminderStoreConfig{}),
		Toasts:      service.NewRedisToastStore(client, service.RedisToastStoreConfig{}),
		Permissions: service.NewRedisPermissionStore(client),
		Ticker:      ticker,
		ReminderConfig: reminder.Config{
			PollInterval: cfg.ReminderPollInterval,
			Retention:    cfg.ReminderRetention,
		},
		Journey: journey.Options{
			Location:     loc,
			BypassUnlock: cfg.JourneyUnlockBypass,
		},
		WebhookURL:     cfg.NotifyWebhookURL,
		WebhookTimeout: cfg.NotifyWebhookTimeout,
		PipelineConfig: pipelineConfig,
	})
}

// LoadPipelineConfig reads path, or the embedded default when path is empty.
func LoadPipelineConfig(path string) (*pipeline.Config, error) {
	if path == "" {
		cfg, err := pipeline.ParseConfig(config.Pipeline)
		if err != nil {
			return nil, fmt.Errorf("failed to parse embedded pipeline config: %w", err)
		}
		logrus.Info("loaded embedded pipeline configuration")
		return cfg, nil
	}

	cfg, err := pipeline.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load pipeline config from %s: %w", path, err)
	}
	logrus.Infof("loaded pipeline configuration from %s", path)
	return cfg, nil
}

// cleanup releases what New acquired before a later step failed.
func (a *App) cleanup(ctx context.Context) {
	if a.redisClient != nil {
		a.redisClient.Close()
	}
	if a.shutdownTelemetry != nil {
		if err := a.shutdownTelemetry(ctx); err != nil {
			logrus.Errorf("telemetry shutdown error: %v", err)
		}
	}
}
