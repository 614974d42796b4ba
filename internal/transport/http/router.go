// Package httptransport assembles the service's HTTP surface: global
// middleware, public probes, the authenticated API and the admin routes.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	id "compliance/pkg/domain"
	adminmw "compliance/pkg/platform/middleware/admin"
	authmw "compliance/pkg/platform/middleware/auth"
	"compliance/pkg/platform/middleware/metadata"
	"compliance/pkg/platform/middleware/request"
	"compliance/pkg/platform/middleware/requesttime"
	"compliance/pkg/platform/middleware/version"
)

// Registrar mounts a module's routes.
type Registrar interface {
	Register(r chi.Router)
}

// Deps collects everything the router wires together. Nil optional fields
// disable the corresponding feature.
type Deps struct {
	Logger *slog.Logger

	// API modules mounted under /v1 behind operator authentication.
	API           []Registrar
	AuthValidator authmw.JWTValidator
	AuthFailures  authmw.FailureReporter
	// RateLimit runs after authentication so operator budgets apply.
	RateLimit func(http.Handler) http.Handler

	// Admin routes mounted behind the admin token. Skipped when AdminVerifier is nil.
	Admin         Registrar
	AdminVerifier adminmw.Verifier
	AdminDenials  adminmw.DenialReporter

	Latency        request.LatencyObserver
	MetricsHandler http.Handler
	Probes         []Probe
	RequestTimeout time.Duration
}

// NewRouter wires all endpoints.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	r := chi.NewRouter()

	r.Use(request.RequestID)
	r.Use(request.Recovery(logger))
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(request.Logger(logger))
	r.Use(request.Latency(deps.Latency))
	if deps.RequestTimeout > 0 {
		r.Use(request.Timeout(deps.RequestTimeout))
	}

	r.Get("/healthz", handleHealthz)
	r.Get("/readyz", handleReadyz(logger, deps.Probes))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	var authOpts []authmw.Option
	if deps.AuthFailures != nil {
		authOpts = append(authOpts, authmw.WithFailureReporter(deps.AuthFailures))
	}
	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(version.ExtractVersion(id.APIVersionV1))
		v1.Use(request.ContentTypeJSON)
		v1.Use(authmw.RequireAuth(deps.AuthValidator, logger, authOpts...))
		v1.Use(version.ValidateTokenVersion(logger))
		if deps.RateLimit != nil {
			v1.Use(deps.RateLimit)
		}
		for _, m := range deps.API {
			m.Register(v1)
		}
	})

	if deps.Admin != nil && deps.AdminVerifier != nil {
		var adminOpts []adminmw.Option
		if deps.AdminDenials != nil {
			adminOpts = append(adminOpts, adminmw.WithDenialReporter(deps.AdminDenials))
		}
		r.Group(func(ar chi.Router) {
			ar.Use(adminmw.RequireAdmin(deps.AdminVerifier, logger, adminOpts...))
			deps.Admin.Register(ar)
		})
	}

	return r
}
