package audit

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadRoundTrip(t *testing.T) {
	ts := time.Date(2026, 4, 2, 10, 0, 0, 123, time.UTC)
	event := Event{
		Category:      CategoryCompliance,
		Timestamp:     ts,
		Subject:       "800101*******",
		Action:        string(EventIdentityVerified),
		Decision:      "valid",
		RequestID:     "req-1",
		ActorID:       "op-1",
		SubjectIDHash: "abc",
	}

	data, err := EncodePayload("evt-1", event)
	require.NoError(t, err)

	id, decoded, err := DecodePayload(data, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "evt-1", id)
	if diff := cmp.Diff(event, decoded); diff != "" {
		t.Errorf("decoded event mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodePayloadDerivesCategory(t *testing.T) {
	data, err := EncodePayload("e", Event{Category: CategoryOperations, Action: string(EventAuthFailed)})
	require.NoError(t, err)
	_, decoded, err := DecodePayload(data, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, CategorySecurity, decoded.Category)
}

func TestDecodePayloadFallbacks(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, event, err := DecodePayload([]byte(`{"Action":"token_issued","Timestamp":"yesterday"}`), now)
	require.NoError(t, err)
	assert.Equal(t, now, event.Timestamp)

	_, _, err = DecodePayload([]byte(`not json`), now)
	assert.Error(t, err)
}
