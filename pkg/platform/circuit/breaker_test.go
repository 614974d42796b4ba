package circuit

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// replay feeds outcomes to b ('f' failure, 's' success) and returns the
// transitions seen, e.g. "open@3 close@5" for failures then successes.
func replay(b *Breaker, outcomes string) string {
	var seen []string
	for i, o := range outcomes {
		var change StateChange
		switch o {
		case 'f':
			_, change = b.RecordFailure()
		case 's':
			_, change = b.RecordSuccess()
		}
		if change.Opened {
			seen = append(seen, fmt.Sprintf("open@%d", i+1))
		}
		if change.Closed {
			seen = append(seen, fmt.Sprintf("close@%d", i+1))
		}
	}
	return strings.Join(seen, " ")
}

func TestBreakerTransitions(t *testing.T) {
	tests := []struct {
		name        string
		failures    int
		successes   int
		outcomes    string
		transitions string
		open        bool
	}{
		{name: "stays closed below threshold", failures: 3, outcomes: "ff", open: false},
		{name: "opens at threshold", failures: 3, outcomes: "fff", transitions: "open@3", open: true},
		{name: "success clears failure run", failures: 3, outcomes: "ffsff", open: false},
		{name: "extra failures while open report nothing", failures: 1, outcomes: "fff", transitions: "open@1", open: true},
		{name: "closes after success run", failures: 1, successes: 2, outcomes: "fss", transitions: "open@1 close@3", open: false},
		{name: "failure while open restarts success run", failures: 1, successes: 3, outcomes: "fssfss", transitions: "open@1", open: true},
		{name: "recovers after restarted run", failures: 1, successes: 3, outcomes: "fssfsss", transitions: "open@1 close@7", open: false},
		{name: "defaults", outcomes: "fffff", transitions: "open@5", open: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("result-cache", WithFailureThreshold(tt.failures), WithSuccessThreshold(tt.successes))
			assert.Equal(t, tt.transitions, replay(b, tt.outcomes))
			assert.Equal(t, tt.open, b.IsOpen())
		})
	}
}

func TestBreakerFlags(t *testing.T) {
	b := New("result-cache", WithFailureThreshold(2), WithSuccessThreshold(2))

	useFallback, _ := b.RecordFailure()
	assert.False(t, useFallback, "one failure keeps the primary")
	useFallback, _ = b.RecordFailure()
	assert.True(t, useFallback)

	usePrimary, _ := b.RecordSuccess()
	assert.False(t, usePrimary, "still open after one success")
	usePrimary, _ = b.RecordSuccess()
	assert.True(t, usePrimary)
}

func TestBreakerReset(t *testing.T) {
	b := New("result-cache", WithFailureThreshold(1))
	b.RecordFailure()
	assert.Equal(t, "open", b.State().String())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "result-cache", b.Name())
	assert.Equal(t, "open@1", replay(b, "f"), "counters start over")
}

func TestBreakerConcurrentUse(t *testing.T) {
	b := New("ratelimit-store", WithFailureThreshold(1000))
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				b.RecordFailure()
			} else {
				b.RecordSuccess()
			}
		}()
	}
	wg.Wait()
	assert.False(t, b.IsOpen())
}
