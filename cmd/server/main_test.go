package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compliance/internal/identity/saidnumber"
	"compliance/internal/platform/auth"
	"compliance/internal/platform/config"
	"compliance/internal/platform/secrets"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func decodeResults(t *testing.T, out string) []saidnumber.Result {
	t.Helper()
	var results []saidnumber.Result
	dec := json.NewDecoder(strings.NewReader(out))
	for dec.More() {
		var r saidnumber.Result
		require.NoError(t, dec.Decode(&r))
		results = append(results, r)
	}
	return results
}

func TestCheckCommand(t *testing.T) {
	t.Run("all valid exits cleanly", func(t *testing.T) {
		out, err := execute(t, "check", "8001015009087", "710514 5001 087")
		require.NoError(t, err)

		results := decodeResults(t, out)
		require.Len(t, results, 2)
		assert.True(t, results[0].Valid)
		assert.Equal(t, "1980-01-01", results[0].DateOfBirth.String())
		assert.Equal(t, saidnumber.Male, results[0].Gender)
		assert.True(t, results[1].Valid)
	})

	t.Run("any invalid number fails the command", func(t *testing.T) {
		out, err := execute(t, "check", "8001015009087", "8001015009088", "123")
		require.ErrorIs(t, err, errInvalidNumbers)

		results := decodeResults(t, out)
		require.Len(t, results, 3)
		assert.Equal(t, saidnumber.InvalidChecksum, results[1].Error)
		assert.Equal(t, saidnumber.InvalidLength, results[2].Error)
	})

	t.Run("strict flag rejects impossible dates", func(t *testing.T) {
		_, err := execute(t, "check", "8602290004188")
		require.NoError(t, err)

		out, err := execute(t, "check", "--strict", "8602290004188")
		require.ErrorIs(t, err, errInvalidNumbers)
		assert.Equal(t, saidnumber.InvalidDate, decodeResults(t, out)[0].Error)
	})

	t.Run("pivot out of range", func(t *testing.T) {
		_, err := execute(t, "check", "--pivot", "150", "8001015009087")
		require.Error(t, err)
		assert.NotErrorIs(t, err, errInvalidNumbers)
	})

	t.Run("requires an argument", func(t *testing.T) {
		_, err := execute(t, "check")
		require.Error(t, err)
	})
}

func TestTokenCommand(t *testing.T) {
	const operator = "5f0c7a5e-9a52-4d55-a1d6-0d8f2a0c9b31"
	out, err := execute(t, "token", "--operator", operator)
	require.NoError(t, err)

	cfg, err := config.Load()
	require.NoError(t, err)
	jwt := auth.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
	claims, err := jwt.ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, operator, claims.OperatorID)
}

func TestTokenCommandRejectsBadOperator(t *testing.T) {
	_, err := execute(t, "token", "--operator", "not-a-uuid")
	require.Error(t, err)
}

func TestSecretCommand(t *testing.T) {
	out, err := execute(t, "secret")
	require.NoError(t, err)

	values := map[string]string{}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		k, v, ok := strings.Cut(line, "=")
		require.True(t, ok)
		values[k] = v
	}
	require.NotEmpty(t, values["admin_token"])
	assert.True(t, secrets.MatchesHash(values["admin_token_hash"])(values["admin_token"]))
}

func TestAdminVerifier(t *testing.T) {
	assert.Nil(t, adminVerifier(config.ServerConfig{}))

	plain := adminVerifier(config.ServerConfig{AdminToken: "plain"})
	require.NotNil(t, plain)
	assert.True(t, plain("plain"))
	assert.False(t, plain("other"))

	hash, err := secrets.Hash("hashed")
	require.NoError(t, err)
	verifier := adminVerifier(config.ServerConfig{AdminToken: "plain", AdminTokenHash: hash})
	assert.True(t, verifier("hashed"))
	assert.False(t, verifier("plain"))
}
