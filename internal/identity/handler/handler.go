package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"compliance/internal/identity/models"
	id "compliance/pkg/domain"
	dErrors "compliance/pkg/domain-errors"
	"compliance/pkg/platform/httputil"
	"compliance/pkg/requestcontext"
)

const defaultListLimit = 20

// Service defines the identity operations the HTTP layer needs.
type Service interface {
	Verify(ctx context.Context, raw string) (*models.Verification, error)
	VerifyBatch(ctx context.Context, raws []string) ([]*models.Verification, error)
	Get(ctx context.Context, verificationID id.VerificationID) (*models.Verification, error)
	ListRecent(ctx context.Context, limit int) ([]*models.Verification, error)
	History(ctx context.Context, raw string, limit int) ([]*models.Verification, error)
	Stats(ctx context.Context) (models.Stats, error)
}

// Handler wires identity endpoints to the verification service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an identity handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts identity endpoints on the router. Callers mount it behind
// operator authentication.
func (h *Handler) Register(r chi.Router) {
	r.Post("/identity/validate", h.HandleValidate)
	r.Post("/identity/validate/batch", h.HandleValidateBatch)
	r.Post("/identity/history", h.HandleHistory)
	r.Get("/identity/verifications", h.HandleList)
	r.Get("/identity/verifications/{id}", h.HandleGet)
	r.Get("/identity/stats", h.HandleStats)
}

// HandleValidate handles POST /identity/validate.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[ValidateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	v, err := h.service.Verify(ctx, req.IDNumber)
	if err != nil {
		h.logger.ErrorContext(ctx, "identity verification failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "identity validated",
		"request_id", requestID,
		"verification_id", v.ID.String(),
		"outcome", v.Outcome(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromVerification(v))
}

// HandleValidateBatch handles POST /identity/validate/batch.
func (h *Handler) HandleValidateBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[BatchValidateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	vs, err := h.service.VerifyBatch(ctx, req.IDNumbers)
	if err != nil {
		h.logger.ErrorContext(ctx, "batch identity verification failed",
			"request_id", requestID,
			"batch_size", len(req.IDNumbers),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "identity batch validated",
		"request_id", requestID,
		"batch_size", len(vs),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, fromVerifications(vs))
}

// HandleGet handles GET /identity/verifications/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	verificationID, err := id.ParseVerificationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid verification id"))
		return
	}

	v, err := h.service.Get(ctx, verificationID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromVerification(v))
}

// HandleList handles GET /identity/verifications?limit=N.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be an integer"))
			return
		}
		limit = n
	}

	vs, err := h.service.ListRecent(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list verifications",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromVerifications(vs))
}

// HandleHistory handles POST /identity/history.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[HistoryRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	vs, err := h.service.History(ctx, req.IDNumber, req.Limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromVerifications(vs))
}

// HandleStats handles GET /identity/stats.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromStats(stats))
}
