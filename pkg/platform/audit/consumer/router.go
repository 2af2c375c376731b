// Package consumer materializes audit events from Kafka into a queryable store.
package consumer

import (
	"context"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "cardscan/pkg/platform/audit"
)

// RecordHandler handles one consumed record. Returning an error means the
// record must be retried; malformed records are logged and return nil.
type RecordHandler interface {
	Handle(ctx context.Context, rec *kgo.Record) error
}

// Router dispatches records to category-specific handlers using the
// "category" header set by the producer.
type Router struct {
	handlers map[audit.EventCategory]RecordHandler
	fallback RecordHandler
	logger   *slog.Logger
}

// NewRouter creates a category router with an optional fallback handler.
func NewRouter(logger *slog.Logger, fallback RecordHandler) *Router {
	return &Router{
		handlers: make(map[audit.EventCategory]RecordHandler),
		fallback: fallback,
		logger:   logger,
	}
}

// Register adds a handler for a category.
func (r *Router) Register(category audit.EventCategory, handler RecordHandler) {
	r.handlers[category] = handler
}

// Handle routes the record to the handler of its category.
func (r *Router) Handle(ctx context.Context, rec *kgo.Record) error {
	category := audit.EventCategory(header(rec, "category"))
	handler, ok := r.handlers[category]
	if !ok {
		if r.fallback != nil {
			return r.fallback.Handle(ctx, rec)
		}
		r.logger.Warn("no handler for audit category, skipping record",
			"category", string(category),
			"key", string(rec.Key),
		)
		return nil // commit to avoid redelivery
	}
	return handler.Handle(ctx, rec)
}

func header(rec *kgo.Record, key string) string {
	for _, h := range rec.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
