package service

import (
	"context"

	"compliance/internal/identity/models"
	id "compliance/pkg/domain"
	dErrors "compliance/pkg/domain-errors"
	audit "compliance/pkg/platform/audit"
)

// Get loads one verification.
func (s *Service) Get(ctx context.Context, verificationID id.VerificationID) (*models.Verification, error) {
	v, err := s.store.FindByID(ctx, verificationID)
	if err != nil {
		return nil, translateStoreError(err, "verification not found", "failed to load verification")
	}
	s.logAudit(ctx, string(audit.EventVerificationAccessed),
		"subject", verificationID.String(),
	)
	return v, nil
}

// ListRecent returns the newest verifications. limit is clamped to [1,100].
func (s *Service) ListRecent(ctx context.Context, limit int) ([]*models.Verification, error) {
	vs, err := s.store.ListRecent(ctx, clampLimit(limit))
	if err != nil {
		return nil, translateStoreError(err, "verifications not found", "failed to list verifications")
	}
	return vs, nil
}

// History returns earlier verifications of the same identity number, newest
// first. The number is only used to derive its subject hash.
func (s *Service) History(ctx context.Context, raw string, limit int) ([]*models.Verification, error) {
	if raw == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "id_number is required")
	}
	subjectHash := s.hasher.Hash(raw)
	vs, err := s.store.ListBySubject(ctx, subjectHash, clampLimit(limit))
	if err != nil {
		return nil, translateStoreError(err, "verifications not found", "failed to list verification history")
	}
	s.logAudit(ctx, string(audit.EventVerificationAccessed),
		"subject", models.MaskedNumber(raw),
	)
	return vs, nil
}

// Stats counts stored verifications by outcome.
func (s *Service) Stats(ctx context.Context) (models.Stats, error) {
	counts, err := s.store.CountByOutcome(ctx)
	if err != nil {
		return models.Stats{}, translateStoreError(err, "stats not found", "failed to count verifications")
	}
	stats := models.NewStats()
	for outcome, n := range counts {
		stats.Add(outcome, n)
	}
	return stats, nil
}
