package version

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	id "compliance/pkg/domain"
	"compliance/pkg/requestcontext"
)

func TestValidateTokenVersion(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	t.Run("route version missing is a server error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ValidateTokenVersion(logger)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("token without version is treated as v1", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h := ExtractVersion(id.APIVersionV1)(ValidateTokenVersion(logger)(ok))
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unknown token version passes a known route", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(requestcontext.WithTokenAPIVersion(req.Context(), id.APIVersion("v2")))
		h := ExtractVersion(id.APIVersionV1)(ValidateTokenVersion(logger)(ok))
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unknown route version rejects known token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(requestcontext.WithTokenAPIVersion(req.Context(), id.APIVersionV1))
		h := ExtractVersion(id.APIVersion("v0"))(ValidateTokenVersion(logger)(ok))
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid_token")
	})
}
