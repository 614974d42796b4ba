package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "compliance/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseVerificationID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseVerificationID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseVerificationID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseVerificationID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, VerificationID(validUUID), id)
		assert.Equal(t, validUUID.String(), id.String())
		assert.False(t, id.IsNil())
	})
}

// TestParseID_SecurityInvariants: parsing must reject attack vectors at API
// entry points.
func TestParseID_SecurityInvariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE verifications;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Unicode zero-width space", "550e8400​-e29b-41d4-a716-446655440000", true},

		{"Empty string", "", true},
		{"Nil UUID", uuid.Nil.String(), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},

		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOperatorID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestTypeDistinction(t *testing.T) {
	verificationID := NewVerificationID()
	operatorID := OperatorID(uuid.New())

	// var _ VerificationID = operatorID // compile error

	assert.NotEqual(t, uuid.UUID(verificationID), uuid.UUID(operatorID))
	assert.True(t, OperatorID{}.IsNil())
	assert.True(t, VerificationID{}.IsNil())
}

func TestAPIVersion(t *testing.T) {
	v, err := ParseAPIVersion("v1")
	require.NoError(t, err)
	assert.Equal(t, APIVersionV1, v)
	assert.True(t, v.IsAtLeast(APIVersionV1))
	assert.True(t, v.IsAtLeast(APIVersion("v0")))
	assert.False(t, APIVersion("").IsAtLeast(APIVersionV1))
	assert.True(t, APIVersion("").IsNil())

	_, err = ParseAPIVersion("v9")
	assert.Error(t, err)
	assert.Equal(t, []APIVersion{APIVersionV1}, SupportedVersions())

	listed := SupportedVersions()
	listed[0] = "v7"
	assert.Equal(t, APIVersionV1, SupportedVersions()[0], "callers get a copy")
}
