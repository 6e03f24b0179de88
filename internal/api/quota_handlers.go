package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/onnwee/vidrank/internal/quota"
)

// QuotaReporter exposes today's YouTube Data API consumption.
type QuotaReporter interface {
	Usage(ctx context.Context) (quota.Usage, error)
}

// QuotaHandlers serves quota usage.
type QuotaHandlers struct {
	reporter QuotaReporter
}

// NewQuotaHandlers creates quota handlers.
func NewQuotaHandlers(reporter QuotaReporter) *QuotaHandlers {
	return &QuotaHandlers{reporter: reporter}
}

// Quota handles GET /api/quota. Without Redis the usage is reported as
// untracked with the full limit remaining.
func (h *QuotaHandlers) Quota(w http.ResponseWriter, r *http.Request) {
	if h.reporter == nil {
		writeCodedError(w, r, ErrCodeUnavailable, "Quota tracking is not configured")
		return
	}
	usage, err := h.reporter.Usage(r.Context())
	if err != nil {
		slog.WarnContext(r.Context(), "failed to read quota usage", "error", err)
		writeCodedError(w, r, ErrCodeUnavailable, "Quota usage is temporarily unavailable")
		return
	}
	writeJSON(w, r.Context(), http.StatusOK, usage)
}
