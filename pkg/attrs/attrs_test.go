package attrs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	kv := []any{"subject", "abc", "count", 3, 42, "ignored", "dangling"}

	assert.Equal(t, "abc", String(kv, "subject"))
	assert.Empty(t, String(kv, "count"), "non-string value")
	assert.Empty(t, String(kv, "dangling"), "key without value")
	assert.Empty(t, String(nil, "subject"))
}

func TestFirst(t *testing.T) {
	kv := []any{"ip", "192.0.2.0", "operator_id", "op-1", "identifier", ""}

	assert.Equal(t, "op-1", First(kv, "identifier", "operator_id", "ip"))
	assert.Equal(t, "192.0.2.0", First(kv, "identifier", "ip"))
	assert.Empty(t, First(kv, "missing"))
}
