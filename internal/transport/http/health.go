package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"compliance/pkg/platform/httputil"
)

const probeTimeout = 2 * time.Second

// Probe checks one backing dependency for readiness.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// handleReadyz pings every dependency. Failure details go to the log only.
func handleReadyz(logger *slog.Logger, probes []Probe) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		defer cancel()

		status := http.StatusOK
		resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(probes))}
		for _, p := range probes {
			if err := p.Check(ctx); err != nil {
				logger.WarnContext(ctx, "readiness probe failed", "probe", p.Name, "error", err)
				resp.Checks[p.Name] = "unavailable"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[p.Name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
