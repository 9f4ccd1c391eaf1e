// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/okian/pulse/internal/domain/report"
)

// ImprovementDependencies defines the interface for improvement queries.
type ImprovementDependencies interface {
	Improvement(ctx context.Context, days int) (report.ImprovementReport, error)
}

// ImprovementHandler handles improvement rate requests.
type ImprovementHandler struct {
	deps ImprovementDependencies
}

// NewImprovementHandler creates a new improvement handler.
func NewImprovementHandler(deps ImprovementDependencies) *ImprovementHandler {
	return &ImprovementHandler{deps: deps}
}

// HandleGetImprovement handles GET /improvement?days=N requests.
func (h *ImprovementHandler) HandleGetImprovement(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_improvement"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	days, err := parseDays(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	imp, err := h.deps.Improvement(r.Context(), days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, imp)
}
