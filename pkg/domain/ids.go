package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "compliance/pkg/domain-errors"
)

// Typed identifiers. Each wraps a UUID so that a verification ID can never be
// passed where an operator ID is expected.
type (
	VerificationID uuid.UUID
	OperatorID     uuid.UUID
)

// maxIDLength bounds input before it reaches uuid.Parse.
const maxIDLength = 64

func parseUUID(kind, s string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	if len(s) > maxIDLength {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is too long")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" cannot be nil")
	}
	return parsed, nil
}

// NewVerificationID returns a fresh random verification ID.
func NewVerificationID() VerificationID {
	return VerificationID(uuid.New())
}

// ParseVerificationID parses a non-nil UUID.
func ParseVerificationID(s string) (VerificationID, error) {
	u, err := parseUUID("verification_id", s)
	return VerificationID(u), err
}

func (v VerificationID) String() string { return uuid.UUID(v).String() }
func (v VerificationID) IsNil() bool    { return uuid.UUID(v) == uuid.Nil }

// ParseOperatorID parses a non-nil UUID.
func ParseOperatorID(s string) (OperatorID, error) {
	u, err := parseUUID("operator_id", s)
	return OperatorID(u), err
}

func (o OperatorID) String() string { return uuid.UUID(o).String() }
func (o OperatorID) IsNil() bool    { return uuid.UUID(o) == uuid.Nil }
