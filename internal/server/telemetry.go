package server

import (
	"context"
	"fmt"

	"github.com/recoverykit/journey-engine/pkg/common"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/propagators/b3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// TelemetryConfig identifies the service on exported spans.
type TelemetryConfig struct {
	ServiceName    string
	Environment    string
	ID             int64
	ZipkinEndpoint string
}

// SetupTelemetry initializes the OpenTelemetry tracer provider and propagators.
// Returns a shutdown function that flushes pending spans.
//
// ============================================================
// DEVELOPER: OpenTelemetry configuration
// ============================================================
// Spans are exported to Zipkin when ZIPKIN_ENDPOINT is set. The
// provider itself lives in pkg/common/telemetry.go; change the
// sampler or resource attributes there.
//
// Incoming trace context is accepted in these formats:
// - B3 (Zipkin) propagation
// - W3C TraceContext propagation
// - W3C Baggage propagation
// ============================================================
func SetupTelemetry(ctx context.Context, cfg TelemetryConfig) (func(context.Context) error, error) {
	tracerProvider, err := common.NewTracerProvider(cfg.ServiceName, cfg.Environment, cfg.ID, cfg.ZipkinEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer provider: %w", err)
	}

	otel.SetTracerProvider(tracerProvider)
	logrus.Infof("set tracer provider: (name: %s environment: %s id: %d)", cfg.ServiceName, cfg.Environment, cfg.ID)
	if cfg.ZipkinEndpoint == "" {
		logrus.Info("no zipkin endpoint configured, spans are not exported")
	}

	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			b3.New(),                   // Zipkin B3 propagation
			propagation.TraceContext{}, // W3C Trace Context
			propagation.Baggage{},      // W3C Baggage
		),
	)
	logrus.Infof("set text map propagator")

	shutdown := func(ctx context.Context) error {
		logrus.Info("shutting down telemetry...")
		if err := tracerProvider.Shutdown(ctx); err != nil {
			return err
		}
		logrus.Info("telemetry stopped")
		return nil
	}

	return shutdown, nil
}
