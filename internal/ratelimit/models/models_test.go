package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimitKeyString(t *testing.T) {
	key := NewRateLimitKey(KeyPrefixIP, "2001:db8::1", ClassValidate)
	assert.Equal(t, "ratelimit:ip:2001_db8__1:validate", key.String())

	// An identifier shaped like a key suffix stays inside its own segment.
	spoof := NewRateLimitKey(KeyPrefixOperator, "abc:read", ClassBatch)
	assert.Equal(t, "ratelimit:operator:abc_read:batch", spoof.String())
}

func TestEndpointClassIsValid(t *testing.T) {
	assert.True(t, ClassValidate.IsValid())
	assert.True(t, ClassBatch.IsValid())
	assert.True(t, ClassRead.IsValid())
	assert.False(t, EndpointClass("auth").IsValid())
}
