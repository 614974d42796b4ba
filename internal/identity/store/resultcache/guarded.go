package resultcache

import (
	"context"
	"log/slog"
	"time"

	"compliance/internal/identity/saidnumber"
	"compliance/pkg/platform/circuit"
)

// Guarded routes cache traffic to a primary backend and falls back to a
// secondary one while the breaker is open. The primary keeps receiving calls
// so that recovery can be observed.
type Guarded struct {
	primary  Cache
	fallback Cache
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

type GuardedOption func(*Guarded)

func WithLogger(logger *slog.Logger) GuardedOption {
	return func(g *Guarded) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func WithBreaker(b *circuit.Breaker) GuardedOption {
	return func(g *Guarded) {
		if b != nil {
			g.breaker = b
		}
	}
}

func NewGuarded(primary, fallback Cache, opts ...GuardedOption) *Guarded {
	g := &Guarded{
		primary:  primary,
		fallback: fallback,
		breaker:  circuit.New("result-cache"),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Guarded) Get(ctx context.Context, subjectHash string) (saidnumber.Result, bool, error) {
	result, ok, err := g.primary.Get(ctx, subjectHash)
	if err != nil {
		if g.onFailure(ctx, "get", err) {
			return g.fallback.Get(ctx, subjectHash)
		}
		return saidnumber.Result{}, false, err
	}
	if !g.onSuccess(ctx) {
		return g.fallback.Get(ctx, subjectHash)
	}
	return result, ok, nil
}

func (g *Guarded) Set(ctx context.Context, subjectHash string, result saidnumber.Result, ttl time.Duration) error {
	err := g.primary.Set(ctx, subjectHash, result, ttl)
	if err != nil {
		if g.onFailure(ctx, "set", err) {
			return g.fallback.Set(ctx, subjectHash, result, ttl)
		}
		return err
	}
	if !g.onSuccess(ctx) {
		return g.fallback.Set(ctx, subjectHash, result, ttl)
	}
	return nil
}

// State reports the breaker state.
func (g *Guarded) State() circuit.State {
	return g.breaker.State()
}

// Reset closes the breaker so traffic returns to the primary immediately.
func (g *Guarded) Reset(ctx context.Context) {
	g.breaker.Reset()
	g.logger.InfoContext(ctx, "result cache breaker reset", "breaker", g.breaker.Name())
}

func (g *Guarded) onFailure(ctx context.Context, op string, err error) bool {
	useFallback, change := g.breaker.RecordFailure()
	if change.Opened {
		g.logger.WarnContext(ctx, "result cache breaker opened, using fallback",
			"breaker", g.breaker.Name(),
			"op", op,
			"error", err,
		)
	}
	return useFallback
}

func (g *Guarded) onSuccess(ctx context.Context) bool {
	usePrimary, change := g.breaker.RecordSuccess()
	if change.Closed {
		g.logger.InfoContext(ctx, "result cache breaker closed, primary restored",
			"breaker", g.breaker.Name(),
		)
	}
	return usePrimary
}
