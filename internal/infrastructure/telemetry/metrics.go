package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

// MeterProvider wraps the OpenTelemetry MeterProvider with lifecycle management.
type MeterProvider struct {
	provider *sdkmetric.MeterProvider
	logger   *zap.Logger
	config   Config
}

// NewMeterProvider creates and registers the global MeterProvider.
func NewMeterProvider(ctx context.Context, cfg Config, logger *zap.Logger) (*MeterProvider, error) {
	mp := &MeterProvider{logger: logger, config: cfg}

	if !cfg.Enabled || !cfg.MetricsEnabled {
		logger.Info("Metrics disabled, using no-op meter provider")
		return mp, nil
	}

	interval := cfg.MetricsInterval
	if interval == 0 {
		interval = 60 * time.Second
	}

	exporterOpts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint),
	}
	if cfg.Insecure {
		exporterOpts = append(exporterOpts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}

	res, err := newResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	mp.provider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)
	otel.SetMeterProvider(mp.provider)

	logger.Info("OpenTelemetry MeterProvider initialized",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.Duration("export_interval", interval),
	)
	return mp, nil
}

// Meter returns a named meter.
func (mp *MeterProvider) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if mp.provider == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return mp.provider.Meter(name, opts...)
}

// Shutdown flushes pending metrics.
func (mp *MeterProvider) Shutdown(ctx context.Context) error {
	if mp.provider == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := mp.provider.Shutdown(shutdownCtx); err != nil {
		mp.logger.Error("Error shutting down meter provider", zap.Error(err))
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	return nil
}

// Attribute keys used by the settlement instruments.
var (
	AttrOutcome  = attribute.Key("outcome")
	AttrRowKind  = attribute.Key("row_kind")
	AttrTrigger  = attribute.Key("trigger")
	AttrTargetTy = attribute.Key("target_kind")
)

// HTTPDurationBuckets are bucket boundaries for request latency (seconds).
var HTTPDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// RolloverDurationBuckets are bucket boundaries for per-tenant rollover duration (seconds).
var RolloverDurationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// SettlementMetrics records rollover and messaging activity.
type SettlementMetrics struct {
	rollovers   metric.Int64Counter
	duration    metric.Float64Histogram
	rowsCleared metric.Int64Counter
	batches     metric.Int64Counter
	deliveries  metric.Int64Counter
}

// NewSettlementMetrics registers the instruments on meter.
func NewSettlementMetrics(meter metric.Meter) (*SettlementMetrics, error) {
	rollovers, err := meter.Int64Counter("messmate.settlement.rollovers",
		metric.WithDescription("Per-tenant rollover outcomes"),
		metric.WithUnit("{rollover}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create rollover counter: %w", err)
	}
	duration, err := meter.Float64Histogram("messmate.settlement.rollover.duration",
		metric.WithDescription("Time spent rolling over one tenant"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(RolloverDurationBuckets...))
	if err != nil {
		return nil, fmt.Errorf("failed to create rollover histogram: %w", err)
	}
	rowsCleared, err := meter.Int64Counter("messmate.settlement.rows_cleared",
		metric.WithDescription("Working rows deleted after archival"),
		metric.WithUnit("{row}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create rows cleared counter: %w", err)
	}
	batches, err := meter.Int64Counter("messmate.settlement.batches",
		metric.WithDescription("Rollover batches started"),
		metric.WithUnit("{batch}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create batch counter: %w", err)
	}
	deliveries, err := meter.Int64Counter("messmate.messages.deliveries",
		metric.WithDescription("Message deliveries fanned out to inboxes"),
		metric.WithUnit("{delivery}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create delivery counter: %w", err)
	}
	return &SettlementMetrics{
		rollovers:   rollovers,
		duration:    duration,
		rowsCleared: rowsCleared,
		batches:     batches,
		deliveries:  deliveries,
	}, nil
}

// RecordBatch counts a rollover batch by its trigger ("cron" or "manual").
func (m *SettlementMetrics) RecordBatch(ctx context.Context, trigger string) {
	m.batches.Add(ctx, 1, metric.WithAttributes(AttrTrigger.String(trigger)))
}

// RecordRollover records one tenant's outcome and elapsed time.
func (m *SettlementMetrics) RecordRollover(ctx context.Context, outcome string, elapsed time.Duration) {
	attrs := metric.WithAttributes(AttrOutcome.String(outcome))
	m.rollovers.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordRowsCleared adds n deleted rows of the given kind.
func (m *SettlementMetrics) RecordRowsCleared(ctx context.Context, kind string, n int64) {
	if n <= 0 {
		return
	}
	m.rowsCleared.Add(ctx, n, metric.WithAttributes(AttrRowKind.String(kind)))
}

// RecordDeliveries adds n inbox deliveries for a target kind.
func (m *SettlementMetrics) RecordDeliveries(ctx context.Context, targetKind string, n int) {
	if n <= 0 {
		return
	}
	m.deliveries.Add(ctx, int64(n), metric.WithAttributes(AttrTargetTy.String(targetKind)))
}
