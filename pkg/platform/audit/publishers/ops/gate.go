package ops

import (
	"sync"
	"time"

	"compliance/pkg/platform/circuit"
)

const defaultProbeInterval = time.Minute

// storeGate stops persistence attempts while the audit store is failing.
// Once the breaker opens, one probe write is let through per interval; the
// first successful probe closes it.
type storeGate struct {
	breaker  *circuit.Breaker
	interval time.Duration
	now      func() time.Time

	mu        sync.Mutex
	nextProbe time.Time
}

func newStoreGate(breaker *circuit.Breaker, interval time.Duration) *storeGate {
	if interval <= 0 {
		interval = defaultProbeInterval
	}
	return &storeGate{breaker: breaker, interval: interval, now: time.Now}
}

func (g *storeGate) allow() bool {
	if !g.breaker.IsOpen() {
		return true
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	if now.Before(g.nextProbe) {
		return false
	}
	g.nextProbe = now.Add(g.interval)
	return true
}

func (g *storeGate) failure() {
	if _, change := g.breaker.RecordFailure(); change.Opened {
		g.mu.Lock()
		g.nextProbe = g.now().Add(g.interval)
		g.mu.Unlock()
	}
}

func (g *storeGate) success() {
	g.breaker.RecordSuccess()
}

func (g *storeGate) open() bool {
	return g.breaker.IsOpen()
}
