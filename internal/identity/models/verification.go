package models

import (
	"time"

	"compliance/internal/identity/saidnumber"
	id "compliance/pkg/domain"
	dErrors "compliance/pkg/domain-errors"
)

// Verification records one check of an identity number.
//
// Invariants:
//   - The raw identity number is never stored; only SubjectHash and MaskedNumber
//   - Result is exactly what the validator returned at CheckedAt
//   - ID and CheckedAt are immutable after construction
type Verification struct {
	ID           id.VerificationID
	SubjectHash  string
	MaskedNumber string
	Result       saidnumber.Result
	CheckedAt    time.Time
	RequestID    string
	OperatorID   id.OperatorID
}

// NewVerification builds a verification record for a completed check.
func NewVerification(
	verificationID id.VerificationID,
	subjectHash, masked string,
	result saidnumber.Result,
	checkedAt time.Time,
	requestID string,
	operatorID id.OperatorID,
) (*Verification, error) {
	if verificationID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "verification id cannot be nil")
	}
	if subjectHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "subject hash cannot be empty")
	}
	if checkedAt.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "checked at cannot be zero")
	}
	return &Verification{
		ID:           verificationID,
		SubjectHash:  subjectHash,
		MaskedNumber: masked,
		Result:       result,
		CheckedAt:    checkedAt.UTC(),
		RequestID:    requestID,
		OperatorID:   operatorID,
	}, nil
}

// Outcome is "valid" or the failure kind.
func (v *Verification) Outcome() string {
	return v.Result.Outcome()
}

// Outcomes lists every outcome label in a stable order.
var Outcomes = []string{
	"valid",
	string(saidnumber.InvalidLength),
	string(saidnumber.InvalidDate),
	string(saidnumber.InvalidChecksum),
}

// Stats summarises stored verifications.
type Stats struct {
	Total     int
	ByOutcome map[string]int
}

// NewStats returns Stats with every known outcome present at zero.
func NewStats() Stats {
	by := make(map[string]int, len(Outcomes))
	for _, o := range Outcomes {
		by[o] = 0
	}
	return Stats{ByOutcome: by}
}

// Add counts one verification outcome.
func (s *Stats) Add(outcome string, n int) {
	s.ByOutcome[outcome] += n
	s.Total += n
}
