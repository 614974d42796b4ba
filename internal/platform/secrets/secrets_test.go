package secrets

import (
	"strings"
	"testing"

	dErrors "compliance/pkg/domain-errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	a, err := Generate()
	require.NoError(t, err)
	b, err := Generate()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(a, TokenPrefix))
	assert.Len(t, a, len(TokenPrefix)+43)
	assert.NotEqual(t, a, b)
}

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("admin-secret")
	require.NoError(t, err)

	require.NoError(t, Verify("admin-secret", hash))
	err = Verify("wrong", hash)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestHashRejectsEmptyAndOversized(t *testing.T) {
	_, err := Hash("")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = Hash(strings.Repeat("x", 80))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestMatchesHash(t *testing.T) {
	hash, err := Hash("admin-secret")
	require.NoError(t, err)

	assert.True(t, MatchesHash(hash)("admin-secret"))
	assert.False(t, MatchesHash(hash)("nope"))
	assert.False(t, MatchesHash("")("admin-secret"))
}

func TestMatchesHashRemembersAcceptedSecret(t *testing.T) {
	hash, err := Hash("admin-secret")
	require.NoError(t, err)

	match := MatchesHash(hash)
	assert.True(t, match("admin-secret"))
	assert.True(t, match("admin-secret"), "served from the digest")
	assert.False(t, match("admin-secreT"))
	assert.True(t, match("admin-secret"))
}
