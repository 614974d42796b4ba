package consumer

import (
	"context"
	"log/slog"
	"time"

	"compliance/internal/platform/kafka/consumer"
	audit "compliance/pkg/platform/audit"

	"github.com/google/uuid"
)

// CategoryHeader carries the audit category on every published record.
const CategoryHeader = "category"

// CategoryHandler handles messages for one audit category.
type CategoryHandler interface {
	Handle(ctx context.Context, msg *consumer.Message) error
}

// Router dispatches messages to category-specific handlers. All categories
// share one topic, so routing is by header rather than topic name.
type Router struct {
	handlers map[audit.EventCategory]CategoryHandler
	fallback CategoryHandler
	logger   *slog.Logger
}

// NewRouter creates a category router with an optional fallback handler.
func NewRouter(logger *slog.Logger, fallback CategoryHandler) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		handlers: make(map[audit.EventCategory]CategoryHandler),
		fallback: fallback,
		logger:   logger,
	}
}

// Register adds a handler for a category.
func (r *Router) Register(category audit.EventCategory, handler CategoryHandler) {
	r.handlers[category] = handler
}

// Handle routes the message to the handler for its category header.
func (r *Router) Handle(ctx context.Context, msg *consumer.Message) error {
	category := audit.EventCategory(msg.Headers[CategoryHeader])
	handler, ok := r.handlers[category]
	if !ok {
		if r.fallback != nil {
			return r.fallback.Handle(ctx, msg)
		}
		r.logger.WarnContext(ctx, "no handler for audit category, skipping message",
			"category", string(category),
			"topic", msg.Topic,
			"key", string(msg.Key),
		)
		return nil // commit to avoid redelivery
	}
	return handler.Handle(ctx, msg)
}

// decode parses the event id key and payload. It reports false for malformed
// messages, which are logged and committed rather than retried.
func decode(ctx context.Context, logger *slog.Logger, kind string, msg *consumer.Message) (uuid.UUID, audit.Event, bool) {
	id, err := uuid.ParseBytes(msg.Key)
	if err != nil {
		logger.ErrorContext(ctx, "failed to parse "+kind+" event ID",
			"key", string(msg.Key),
			"error", err,
		)
		return uuid.Nil, audit.Event{}, false
	}
	fallback := msg.Timestamp
	if fallback.IsZero() {
		fallback = time.Now()
	}
	_, event, err := audit.DecodePayload(msg.Value, fallback)
	if err != nil {
		logger.ErrorContext(ctx, "failed to unmarshal "+kind+" payload",
			"event_id", id.String(),
			"error", err,
		)
		return uuid.Nil, audit.Event{}, false
	}
	return id, event, true
}
