package event

import (
	"context"
	"sync/atomic"

	"github.com/messmate/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// IdempotencyStats counts what a wrapped handler did with its deliveries
type IdempotencyStats struct {
	Processed  int64 `json:"processed"`
	Duplicates int64 `json:"duplicates"`
	Failed     int64 `json:"failed"`
}

// KeyFunc derives the deduplication key of an event
type KeyFunc func(event shared.DomainEvent) string

// ByEventID deduplicates repeated deliveries of the same event
func ByEventID(event shared.DomainEvent) string {
	return event.EventID().String()
}

// IdempotentHandler wraps an EventHandler so that each key is handled once
// within the configured TTL
type IdempotentHandler struct {
	handler shared.EventHandler
	store   shared.IdempotencyStore
	config  shared.IdempotencyConfig
	keyFunc KeyFunc
	scope   string
	logger  *zap.Logger

	processed  atomic.Int64
	duplicates atomic.Int64
	failed     atomic.Int64
}

// IdempotentHandlerOption is a functional option for IdempotentHandler
type IdempotentHandlerOption func(*IdempotentHandler)

// WithIdempotencyConfig sets the idempotency configuration
func WithIdempotencyConfig(config shared.IdempotencyConfig) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		h.config = config
	}
}

// WithIdempotencyKey deduplicates on a business key instead of the event ID.
// scope separates the keys of different handlers sharing one store.
func WithIdempotencyKey(scope string, fn KeyFunc) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		h.scope = scope
		h.keyFunc = fn
	}
}

// NewIdempotentHandler creates a new idempotent handler wrapper
func NewIdempotentHandler(
	handler shared.EventHandler,
	store shared.IdempotencyStore,
	logger *zap.Logger,
	opts ...IdempotentHandlerOption,
) *IdempotentHandler {
	h := &IdempotentHandler{
		handler: handler,
		store:   store,
		config:  shared.DefaultIdempotencyConfig(),
		keyFunc: ByEventID,
		scope:   "event",
		logger:  logger,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// EventTypes returns the event types this handler is interested in
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle processes the event unless its key was already handled
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if !h.config.Enabled {
		return h.handler.Handle(ctx, event)
	}

	key := h.scope + ":" + h.keyFunc(event)
	log := h.logger.With(
		zap.String("idempotency_key", key),
		zap.String("event_type", event.EventType()),
	)

	isNew, err := h.store.MarkProcessed(ctx, key, h.config.TTL)
	if err != nil {
		// a duplicate is preferred over a dropped event
		log.Warn("failed to check idempotency, processing anyway", zap.Error(err))
	} else if !isNew {
		h.duplicates.Add(1)
		log.Debug("duplicate event detected, skipping")
		return nil
	}

	if err := h.handler.Handle(ctx, event); err != nil {
		h.failed.Add(1)
		// the mark stays until its TTL so a failing handler is not hammered
		log.Error("event handler failed", zap.Error(err))
		return err
	}

	h.processed.Add(1)
	log.Debug("event processed successfully")
	return nil
}

// Scope returns the key prefix of this handler
func (h *IdempotentHandler) Scope() string {
	return h.scope
}

// Stats returns a snapshot of the handler's counters
func (h *IdempotentHandler) Stats() IdempotencyStats {
	return IdempotencyStats{
		Processed:  h.processed.Load(),
		Duplicates: h.duplicates.Load(),
		Failed:     h.failed.Load(),
	}
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
