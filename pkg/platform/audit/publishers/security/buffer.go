package security

import (
	"slices"
	"sync"

	audit "compliance/pkg/platform/audit"
)

const defaultCapacity = 10000

// pending holds security events waiting to be flushed. It is bounded: when
// full it evicts the oldest info event, or the oldest event of any severity
// when nothing below warning is queued.
type pending struct {
	mu       sync.Mutex
	events   []audit.SecurityEvent
	capacity int
	evicted  int64
}

func newPending(capacity int) *pending {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &pending{capacity: capacity}
}

func (q *pending) push(event audit.SecurityEvent) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) >= q.capacity {
		victim := slices.IndexFunc(q.events, func(e audit.SecurityEvent) bool {
			return e.Severity == audit.SeverityInfo
		})
		if victim < 0 {
			victim = 0
		}
		q.events = slices.Delete(q.events, victim, victim+1)
		q.evicted++
	}
	q.events = append(q.events, event)
}

// take removes up to n events, oldest first.
func (q *pending) take(n int) []audit.SecurityEvent {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return nil
	}
	n = min(n, len(q.events))
	batch := slices.Clone(q.events[:n])
	q.events = slices.Delete(q.events, 0, n)
	return batch
}

func (q *pending) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

func (q *pending) dropped() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.evicted
}
