package telemetry

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
)

const (
	// Service information
	ServiceName    = "recovery-engine"
	ServiceVersion = "1.0.0"
)

// TelemetryConfig holds configuration for tracing
type TelemetryConfig struct {
	Enabled     bool
	Environment string
	SampleRate  float64
	// Writer receives exported spans; nil discards them. Spans go to stdout
	// in development and are dropped otherwise until a collector is wired up.
	Writer io.Writer
}

// DefaultConfig returns default telemetry configuration
func DefaultConfig(environment string) *TelemetryConfig {
	return &TelemetryConfig{
		Enabled:     true,
		Environment: environment,
		SampleRate:  0.2,
	}
}

// Provider owns the tracer provider lifecycle.
type Provider struct {
	tp *sdktrace.TracerProvider
}

// InitTelemetry installs a global tracer provider exporting spans through
// the stdout exporter. Returns a Provider whose Shutdown must be called on
// process exit.
func InitTelemetry(config *TelemetryConfig) (*Provider, error) {
	if config == nil || !config.Enabled {
		return &Provider{}, nil
	}

	opts := []stdouttrace.Option{stdouttrace.WithPrettyPrint()}
	if config.Writer != nil {
		opts = append(opts, stdouttrace.WithWriter(config.Writer))
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("stdout trace exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(ServiceVersion),
		semconv.DeploymentEnvironmentName(config.Environment),
	))
	if err != nil {
		return nil, fmt.Errorf("telemetry resource: %w", err)
	}

	sampler := sdktrace.ParentBased(sdktrace.TraceIDRatioBased(config.SampleRate))
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(tp)

	return &Provider{tp: tp}, nil
}

// Shutdown flushes pending spans and stops the provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return p.tp.Shutdown(ctx)
}
