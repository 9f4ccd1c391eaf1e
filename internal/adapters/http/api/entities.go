// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/internal/domain/stats"
)

// EntitiesDependencies defines the interface for per-entity queries.
type EntitiesDependencies interface {
	PerEntity(ctx context.Context, win model.Window) ([]stats.EntityStats, error)
}

// EntitiesHandler handles per-entity breakdown requests.
type EntitiesHandler struct {
	deps EntitiesDependencies
}

// NewEntitiesHandler creates a new entities handler.
func NewEntitiesHandler(deps EntitiesDependencies) *EntitiesHandler {
	return &EntitiesHandler{deps: deps}
}

// HandleGetEntities handles GET /entities requests.
func (h *EntitiesHandler) HandleGetEntities(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_entities"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	win, err := parseWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	entities, err := h.deps.PerEntity(r.Context(), win)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	if entities == nil {
		entities = []stats.EntityStats{}
	}
	writeJSON(w, http.StatusOK, entities)
}
