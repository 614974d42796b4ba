package service

import (
	"context"
	"time"

	"compliance/internal/identity/models"
	"compliance/internal/identity/saidnumber"
	id "compliance/pkg/domain"
	audit "compliance/pkg/platform/audit"
)

// VerificationStore persists verification records. Implementations return
// sentinel.ErrNotFound for missing records.
type VerificationStore interface {
	Save(ctx context.Context, v *models.Verification) error
	FindByID(ctx context.Context, verificationID id.VerificationID) (*models.Verification, error)
	ListRecent(ctx context.Context, limit int) ([]*models.Verification, error)
	ListBySubject(ctx context.Context, subjectHash string, limit int) ([]*models.Verification, error)
	CountByOutcome(ctx context.Context) (map[string]int, error)
}

// ResultCache caches validation results by subject hash.
type ResultCache interface {
	Get(ctx context.Context, subjectHash string) (saidnumber.Result, bool, error)
	Set(ctx context.Context, subjectHash string, result saidnumber.Result, ttl time.Duration) error
}

// AuditPublisher records compliance events. Emit failing must fail the caller.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.ComplianceEvent) error
}

// OpsTracker records best-effort operational events.
type OpsTracker interface {
	Track(ctx context.Context, event audit.OpsEvent)
}

// TxRunner runs fn in a transaction carried by the context so the
// verification record and its audit outbox row commit together.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error
