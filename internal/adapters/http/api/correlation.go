// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/okian/pulse/internal/domain/model"
)

// CorrelationDependencies defines the interface for correlation queries.
type CorrelationDependencies interface {
	Correlation(ctx context.Context, win model.Window, entityID string) (float64, error)
}

// CorrelationHandler handles sentiment correlation requests.
type CorrelationHandler struct {
	deps CorrelationDependencies
}

// NewCorrelationHandler creates a new correlation handler.
func NewCorrelationHandler(deps CorrelationDependencies) *CorrelationHandler {
	return &CorrelationHandler{deps: deps}
}

type correlationResponse struct {
	Correlation float64 `json:"correlation"`
}

// HandleGetCorrelation handles GET /correlation requests.
func (h *CorrelationHandler) HandleGetCorrelation(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_correlation"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	win, err := parseWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	corr, err := h.deps.Correlation(r.Context(), win, r.URL.Query().Get("entity_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, correlationResponse{Correlation: corr})
}
