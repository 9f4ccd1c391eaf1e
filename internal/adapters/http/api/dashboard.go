// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/internal/domain/report"
)

// DashboardDependencies defines the interface for dashboard assembly.
type DashboardDependencies interface {
	Dashboard(ctx context.Context, win model.Window, entityID string) (report.Dashboard, error)
}

// DashboardHandler handles full dashboard report requests.
type DashboardHandler struct {
	deps DashboardDependencies
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(deps DashboardDependencies) *DashboardHandler {
	return &DashboardHandler{deps: deps}
}

// HandleGetDashboard handles GET /dashboard requests. The whole report
// is assembled from one snapshot of the event log so its sections
// never disagree with each other.
func (h *DashboardHandler) HandleGetDashboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_dashboard"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	win, err := parseWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	dash, err := h.deps.Dashboard(r.Context(), win, r.URL.Query().Get("entity_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, dash)
}
