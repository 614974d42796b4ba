package middleware

import (
	"context"

	"compliance/internal/ratelimit/models"
)

// check asks the primary limiter and, when a fallback is configured, routes
// around it while the breaker is open. degraded reports a fallback answer.
func (m *Middleware) check(ctx context.Context, ip, operatorID string, class models.EndpointClass) (result *models.RateLimitResult, degraded bool, err error) {
	result, err = m.limiter.CheckBoth(ctx, ip, operatorID, class)
	if m.fallback == nil {
		if err != nil {
			m.metrics.IncStoreErrors()
		}
		return result, false, err
	}

	if err != nil {
		m.metrics.IncStoreErrors()
		useFallback, change := m.breaker.RecordFailure()
		if change.Opened {
			m.logger.WarnContext(ctx, "rate limit store failing, switching to in-memory limiter",
				"breaker", m.breaker.Name(), "error", err)
			m.metrics.SetFallbackActive(true)
		}
		if !useFallback {
			return nil, false, err
		}
		return m.checkFallback(ctx, ip, operatorID, class)
	}

	usePrimary, change := m.breaker.RecordSuccess()
	if change.Closed {
		m.logger.InfoContext(ctx, "rate limit store recovered", "breaker", m.breaker.Name())
		m.metrics.SetFallbackActive(false)
	}
	if !usePrimary {
		return m.checkFallback(ctx, ip, operatorID, class)
	}
	return result, false, nil
}

func (m *Middleware) checkFallback(ctx context.Context, ip, operatorID string, class models.EndpointClass) (*models.RateLimitResult, bool, error) {
	result, err := m.fallback.CheckBoth(ctx, ip, operatorID, class)
	if err != nil {
		return nil, true, err
	}
	return result, true, nil
}
