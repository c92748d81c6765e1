// Package telemetry wires OpenTelemetry traces, metrics and logs, the
// Pyroscope profiler, and the business instruments of the dairy backend.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Config is shared by the trace, metric and log providers. Every provider is
// a no-op when Enabled is false.
type Config struct {
	Enabled           bool
	CollectorEndpoint string
	Insecure          bool
	ServiceName       string
	ServiceVersion    string
	Environment       string
	// SamplingRatio applies to root spans; children follow their parent
	SamplingRatio float64
	// ExportInterval is the metric push period, 60s when zero
	ExportInterval time.Duration
}

func (c Config) resource() (*resource.Resource, error) {
	version := c.ServiceVersion
	if version == "" {
		version = "dev"
	}
	attrs := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(c.ServiceName),
		semconv.ServiceVersion(version),
	)
	if c.Environment != "" {
		env := resource.NewWithAttributes(semconv.SchemaURL, semconv.DeploymentEnvironmentName(c.Environment))
		var err error
		if attrs, err = resource.Merge(attrs, env); err != nil {
			return nil, err
		}
	}
	res, err := resource.Merge(resource.Default(), attrs)
	if err != nil {
		return nil, fmt.Errorf("build otel resource: %w", err)
	}
	return res, nil
}

// shutdown runs fn with a bounded context and logs the outcome under name
func shutdown(ctx context.Context, name string, logger *zap.Logger, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		logger.Error("OpenTelemetry provider shutdown failed", zap.String("provider", name), zap.Error(err))
		return fmt.Errorf("shutdown %s provider: %w", name, err)
	}
	logger.Info("OpenTelemetry provider stopped", zap.String("provider", name))
	return nil
}
