// Package admin exposes operational controls behind the admin token.
package admin

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"compliance/pkg/platform/audit"
	"compliance/pkg/platform/httputil"
	"compliance/pkg/requestcontext"
)

// CacheBreaker is the circuit breaker guarding the shared result cache.
type CacheBreaker interface {
	Name() string
	State() string
	Reset(ctx context.Context)
}

// SecurityEmitter records privileged actions.
type SecurityEmitter interface {
	Emit(ctx context.Context, event audit.SecurityEvent)
}

type Handler struct {
	breaker  CacheBreaker
	security SecurityEmitter
	logger   *slog.Logger
}

func New(breaker CacheBreaker, security SecurityEmitter, logger *slog.Logger) *Handler {
	return &Handler{breaker: breaker, security: security, logger: logger}
}

// Register mounts admin endpoints. Callers must wrap r with the admin token middleware.
func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/cache/breaker", h.HandleBreakerStatus)
	r.Post("/admin/cache/breaker/reset", h.HandleBreakerReset)
}

func (h *Handler) HandleBreakerStatus(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.status(r.Context()))
}

// HandleBreakerReset closes the cache breaker and records who did it.
func (h *Handler) HandleBreakerReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	previous := h.breaker.State()
	h.breaker.Reset(ctx)

	if h.security != nil {
		h.security.Emit(ctx, audit.SecurityEvent{
			Timestamp: requestcontext.Now(ctx),
			Subject:   h.breaker.Name(),
			Action:    string(audit.EventCacheBreakerReset),
			Reason:    "previous_state_" + previous,
			IP:        requestcontext.ClientIP(ctx),
			RequestID: requestcontext.RequestID(ctx),
			Severity:  audit.SeverityWarning,
		})
	}
	h.logger.InfoContext(ctx, "cache breaker reset by admin",
		"request_id", requestcontext.RequestID(ctx),
		"breaker", h.breaker.Name(),
		"previous_state", previous,
	)
	httputil.WriteJSON(w, http.StatusOK, h.status(ctx))
}

func (h *Handler) status(ctx context.Context) *BreakerStatusResponse {
	return &BreakerStatusResponse{
		Name:  h.breaker.Name(),
		State: h.breaker.State(),
		AsOf:  requestcontext.Now(ctx),
	}
}
