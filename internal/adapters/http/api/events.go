// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/pulse/internal/adapters/repository"
	"github.com/okian/pulse/internal/domain/dedupe"
	"github.com/okian/pulse/internal/domain/model"
)

// EventDependencies defines the interface for event ingest dependencies.
type EventDependencies interface {
	dedupe.Deduper
	AppendEvent(ctx context.Context, e model.Event) error
}

// EventsHandler handles event ingest requests.
type EventsHandler struct {
	deps EventDependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventDependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// eventRequest mirrors the OpenAPI schema for POST /events.
type eventRequest struct {
	EventID        string   `json:"event_id"`
	EntityID       string   `json:"entity_id"`
	ActorID        string   `json:"actor_id"`
	SentimentScore *float64 `json:"sentiment_score,omitempty"`
	CreatedAt      string   `json:"created_at"`
}

func (e eventRequest) validate() error {
	switch {
	case strings.TrimSpace(e.EventID) == "":
		return errors.New("missing event_id")
	case strings.TrimSpace(e.EntityID) == "":
		return errors.New("missing entity_id")
	case strings.TrimSpace(e.ActorID) == "":
		return errors.New("missing actor_id")
	case strings.TrimSpace(e.CreatedAt) == "":
		return errors.New("missing created_at")
	}
	if _, err := time.Parse(time.RFC3339, e.CreatedAt); err != nil {
		return errors.New("invalid created_at; must be RFC3339")
	}
	if e.SentimentScore != nil && !model.ValidSentiment(*e.SentimentScore) {
		return errors.New("sentiment_score out of range")
	}
	return nil
}

// toEvent builds the domain event. validate must have passed.
func (e eventRequest) toEvent() model.Event {
	ts, _ := time.Parse(time.RFC3339, e.CreatedAt)
	return model.Event{
		EventID:   e.EventID,
		EntityID:  e.EntityID,
		ActorID:   e.ActorID,
		Sentiment: e.SentimentScore,
		CreatedAt: ts.UTC(),
	}
}

// HandlePostEvent handles POST /events requests.
func (h *EventsHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_event"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	if h.deps.SeenAndRecord(r.Context(), req.EventID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	if err := h.deps.AppendEvent(r.Context(), req.toEvent()); err != nil {
		// The store may see a duplicate the deduper already evicted.
		if errors.Is(err, repository.ErrDuplicateID) {
			writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
			return
		}
		h.deps.Unrecord(r.Context(), req.EventID)
		if errors.Is(err, repository.ErrInvalidEvent) {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, ackResponse{Status: "created", Duplicate: false})
}
