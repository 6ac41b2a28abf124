// Package telemetry wires OpenTelemetry traces, metrics and logs plus
// Pyroscope continuous profiling for the mess service.
package telemetry

import (
	"fmt"
	"time"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// ServiceVersion is reported on every exported resource.
const ServiceVersion = "1.0.0"

// Config holds telemetry configuration shared by all providers.
type Config struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool

	MetricsEnabled  bool
	MetricsInterval time.Duration
	LogsEnabled     bool

	DBTraceEnabled    bool
	DBSlowQueryThresh time.Duration

	ProfilingEnabled  bool
	PyroscopeEndpoint string
}

func newResource(serviceName string) (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}
