package service

import (
	"context"
	"fmt"
	"time"

	"compliance/internal/identity/models"
	"compliance/internal/identity/saidnumber"
	"compliance/internal/platform/tracing"
	id "compliance/pkg/domain"
	dErrors "compliance/pkg/domain-errors"
	audit "compliance/pkg/platform/audit"
	"compliance/pkg/requestcontext"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// Verify validates one identity number and records the outcome. An invalid
// number is a successful verification with Result.Valid false; errors are
// reserved for persistence and audit failures.
func (s *Service) Verify(ctx context.Context, raw string) (v *models.Verification, err error) {
	ctx, span := tracing.Start(ctx, "identity", "Verify")
	defer func() { tracing.End(span, err) }()

	start := time.Now()
	v, err = s.verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("identity.outcome", v.Outcome()))
	s.metrics.ObserveVerification(v.Outcome(), start)
	return v, nil
}

func (s *Service) verify(ctx context.Context, raw string) (*models.Verification, error) {
	subjectHash := s.hasher.Hash(raw)
	result := s.lookup(ctx, subjectHash, raw)

	v, err := models.NewVerification(
		id.NewVerificationID(),
		subjectHash,
		models.MaskedNumber(raw),
		result,
		requestcontext.Now(ctx),
		requestcontext.RequestID(ctx),
		requestcontext.OperatorID(ctx),
	)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build verification")
	}

	err = s.inTx(ctx, func(ctx context.Context) error {
		if err := s.store.Save(ctx, v); err != nil {
			return translateStoreError(err, "verification not found", "failed to save verification")
		}
		if err := s.auditor.Emit(ctx, audit.ComplianceEvent{
			Timestamp:     v.CheckedAt,
			Subject:       v.MaskedNumber,
			Action:        string(audit.EventIdentityVerified),
			Decision:      v.Outcome(),
			SubjectIDHash: v.SubjectHash,
			RequestID:     v.RequestID,
			ActorID:       operatorString(v),
		}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record verification audit")
		}
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "identity verification not recorded",
			"masked_number", v.MaskedNumber,
			"request_id", v.RequestID,
			"error", err,
		)
		return nil, err
	}

	s.logger.InfoContext(ctx, "identity verified",
		"verification_id", v.ID.String(),
		"masked_number", v.MaskedNumber,
		"outcome", v.Outcome(),
		"request_id", v.RequestID,
	)
	return v, nil
}

func operatorString(v *models.Verification) string {
	if v.OperatorID.IsNil() {
		return ""
	}
	return v.OperatorID.String()
}

// lookup consults the cache before validating. Cache failures degrade to a
// fresh validation. Entries are keyed by validator policy as well as subject,
// so a changed century pivot or calendar mode never reads stale results.
func (s *Service) lookup(ctx context.Context, subjectHash, raw string) saidnumber.Result {
	if s.cache == nil {
		return s.validator.Validate(raw)
	}
	key := resultCacheKey(s.validator, subjectHash)
	cached, ok, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		s.metrics.IncCacheLookup("error")
		s.logger.WarnContext(ctx, "result cache read failed", "error", err)
	case ok:
		s.metrics.IncCacheLookup("hit")
		return cached
	default:
		s.metrics.IncCacheLookup("miss")
	}

	result := s.validator.Validate(raw)
	if err := s.cache.Set(ctx, key, result, s.cacheTTL); err != nil {
		s.logger.WarnContext(ctx, "result cache write failed", "error", err)
	}
	return result
}

func resultCacheKey(v *saidnumber.Validator, subjectHash string) string {
	return v.Policy() + ":" + subjectHash
}

// VerifyBatch verifies every number concurrently. The output order matches
// the input order. The first failure cancels the remaining work.
func (s *Service) VerifyBatch(ctx context.Context, raws []string) (out []*models.Verification, err error) {
	if len(raws) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "id_numbers must not be empty")
	}
	if len(raws) > s.batchLimit {
		return nil, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("id_numbers must contain at most %d entries", s.batchLimit))
	}

	ctx, span := tracing.Start(ctx, "identity", "VerifyBatch", attribute.Int("identity.batch_size", len(raws)))
	defer func() { tracing.End(span, err) }()

	out = make([]*models.Verification, len(raws))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchConcurrency)
	for i, raw := range raws {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return dErrors.Wrap(err, dErrors.CodeTimeout, "batch verification cancelled")
			}
			v, err := s.Verify(gctx, raw)
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.metrics.ObserveBatchSize(len(raws))
	s.logAudit(ctx, string(audit.EventIdentityBatchVerified),
		"subject", fmt.Sprintf("batch:%d", len(raws)),
		"valid", countValid(out),
	)
	return out, nil
}

func countValid(vs []*models.Verification) int {
	n := 0
	for _, v := range vs {
		if v.Result.Valid {
			n++
		}
	}
	return n
}
