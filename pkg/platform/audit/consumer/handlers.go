package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"compliance/internal/platform/kafka/consumer"
	audit "compliance/pkg/platform/audit"
)

type ComplianceStore interface {
	AppendCompliance(ctx context.Context, eventID uuid.UUID, event audit.Event) error
}

type SecurityStore interface {
	AppendSecurity(ctx context.Context, eventID uuid.UUID, event audit.Event) error
}

type OpsStore interface {
	AppendOps(ctx context.Context, eventID uuid.UUID, event audit.Event) error
}

var errNoSubjectHash = errors.New("compliance event has no subject hash")

// TableHandler materialises one audit category into its table. Malformed
// messages and events failing prepare are logged and committed. Store errors
// are returned so the batch is redelivered, unless the category is best effort.
type TableHandler struct {
	category   audit.EventCategory
	write      func(context.Context, uuid.UUID, audit.Event) error
	prepare    func(*audit.Event) error
	bestEffort bool
	logger     *slog.Logger
}

// NewComplianceHandler fills audit_compliance. Events without a subject hash
// cannot be traced to a verification and are dropped.
func NewComplianceHandler(store ComplianceStore, logger *slog.Logger) *TableHandler {
	return newTableHandler(audit.CategoryCompliance, store.AppendCompliance, logger, func(e *audit.Event) error {
		if e.SubjectIDHash == "" {
			return errNoSubjectHash
		}
		return nil
	})
}

// NewSecurityHandler fills audit_security, defaulting severity to info.
func NewSecurityHandler(store SecurityStore, logger *slog.Logger) *TableHandler {
	return newTableHandler(audit.CategorySecurity, store.AppendSecurity, logger, func(e *audit.Event) error {
		if e.Severity == "" {
			e.Severity = audit.SeverityInfo
		}
		return nil
	})
}

// NewOpsHandler fills audit_ops. Store failures are logged and dropped.
func NewOpsHandler(store OpsStore, logger *slog.Logger) *TableHandler {
	h := newTableHandler(audit.CategoryOperations, store.AppendOps, logger, nil)
	h.bestEffort = true
	return h
}

func newTableHandler(
	category audit.EventCategory,
	write func(context.Context, uuid.UUID, audit.Event) error,
	logger *slog.Logger,
	prepare func(*audit.Event) error,
) *TableHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TableHandler{category: category, write: write, prepare: prepare, logger: logger}
}

func (h *TableHandler) Handle(ctx context.Context, msg *consumer.Message) error {
	eventID, event, ok := decode(ctx, h.logger, string(h.category), msg)
	if !ok {
		return nil
	}
	log := h.logger.With(
		"category", string(h.category),
		"event_id", eventID.String(),
		"action", event.Action,
	)

	if h.prepare != nil {
		if err := h.prepare(&event); err != nil {
			log.ErrorContext(ctx, "dropping audit event", "error", err)
			return nil
		}
	}

	if err := h.write(ctx, eventID, event); err != nil {
		if h.bestEffort {
			log.WarnContext(ctx, "audit event not stored", "error", err)
			return nil
		}
		log.ErrorContext(ctx, "failed to store audit event", "error", err)
		return fmt.Errorf("store %s event %s: %w", h.category, eventID, err)
	}

	if event.Severity == audit.SeverityCritical {
		log.WarnContext(ctx, "critical security event stored", "reason", event.Reason, "ip", event.IP)
		return nil
	}
	log.DebugContext(ctx, "stored audit event")
	return nil
}
