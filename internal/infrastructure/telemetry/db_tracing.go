package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type contextKey string

const queryStartTimeKey contextKey = "otel_query_start_time"

// RegisterDBTracing installs the otelgorm plugin and a slow-query marker on db.
// Query variables are never attached to spans since they carry member contact data.
func RegisterDBTracing(db *gorm.DB, cfg Config, logger *zap.Logger) error {
	if !cfg.Enabled || !cfg.DBTraceEnabled {
		return nil
	}

	if err := db.Use(otelgorm.NewPlugin(
		otelgorm.WithDBName("postgresql"),
		otelgorm.WithoutQueryVariables(),
	)); err != nil {
		return err
	}

	thresh := cfg.DBSlowQueryThresh
	if thresh == 0 {
		thresh = 200 * time.Millisecond
	}
	if err := registerSlowQueryCallbacks(db, thresh); err != nil {
		return err
	}

	logger.Info("Database tracing enabled", zap.Duration("slow_query_threshold", thresh))
	return nil
}

func registerSlowQueryCallbacks(db *gorm.DB, thresh time.Duration) error {
	before := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartTimeKey, time.Now())
		}
	}
	after := func(tx *gorm.DB) { markSlowQuery(tx, thresh) }

	cb := db.Callback()
	steps := []struct {
		name   string
		before error
		after  error
	}{
		{"create",
			cb.Create().Before("gorm:create").Register("otel_timing:before_create", before),
			cb.Create().After("gorm:create").Register("otel_timing:after_create", after)},
		{"query",
			cb.Query().Before("gorm:query").Register("otel_timing:before_query", before),
			cb.Query().After("gorm:query").Register("otel_timing:after_query", after)},
		{"update",
			cb.Update().Before("gorm:update").Register("otel_timing:before_update", before),
			cb.Update().After("gorm:update").Register("otel_timing:after_update", after)},
		{"delete",
			cb.Delete().Before("gorm:delete").Register("otel_timing:before_delete", before),
			cb.Delete().After("gorm:delete").Register("otel_timing:after_delete", after)},
	}
	for _, s := range steps {
		if s.before != nil {
			return s.before
		}
		if s.after != nil {
			return s.after
		}
	}
	return nil
}

func markSlowQuery(tx *gorm.DB, thresh time.Duration) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", tx.Statement.RowsAffected))
	if tx.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", tx.Statement.Table))
	}
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, tx.Error.Error())
		span.RecordError(tx.Error)
	}

	if start, ok := ctx.Value(queryStartTimeKey).(time.Time); ok {
		if elapsed := time.Since(start); elapsed > thresh {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
		}
	}
}
