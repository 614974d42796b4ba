// Package observability provides audit logging helpers for the ratelimit module.
package observability

import (
	"context"
	"log/slog"

	"compliance/pkg/attrs"
	"compliance/pkg/platform/audit"
	"compliance/pkg/requestcontext"
)

// SecurityEmitter receives rate limiting decisions worth a security record.
type SecurityEmitter interface {
	Emit(ctx context.Context, event audit.SecurityEvent)
}

// LogAudit logs the event and, when a publisher is set, records it as a
// security event. Subject and reason are taken from attrList.
func LogAudit(ctx context.Context, logger *slog.Logger, publisher SecurityEmitter, event string, attrList ...any) {
	requestID := requestcontext.RequestID(ctx)
	if requestID != "" {
		attrList = append(attrList, "request_id", requestID)
	}

	if logger != nil {
		args := append(attrList, "event", event, "log_type", "audit")
		logger.InfoContext(ctx, event, args...)
	}

	if publisher == nil {
		return
	}
	publisher.Emit(ctx, audit.SecurityEvent{
		Timestamp: requestcontext.Now(ctx),
		Action:    event,
		Subject:   attrs.First(attrList, "identifier", "operator_id", "ip"),
		IP:        requestcontext.ClientIP(ctx),
		RequestID: requestID,
		Reason:    attrs.String(attrList, "endpoint_class"),
		Severity:  audit.SeverityWarning,
	})
}
