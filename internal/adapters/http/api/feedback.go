// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/pulse/internal/adapters/repository"
	"github.com/okian/pulse/internal/domain/model"
)

// FeedbackDependencies defines the interface for rating recording.
type FeedbackDependencies interface {
	RecordRating(ctx context.Context, eventID string, rating int, comment string) (model.Event, error)
}

// FeedbackHandler handles rating submissions.
type FeedbackHandler struct {
	deps FeedbackDependencies
}

// NewFeedbackHandler creates a new feedback handler.
func NewFeedbackHandler(deps FeedbackDependencies) *FeedbackHandler {
	return &FeedbackHandler{deps: deps}
}

// feedbackRequest mirrors the OpenAPI schema for POST /feedback.
type feedbackRequest struct {
	EventID string `json:"event_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

func (f feedbackRequest) validate() error {
	if strings.TrimSpace(f.EventID) == "" {
		return errors.New("missing event_id")
	}
	if !model.ValidRating(f.Rating) {
		return errors.New("rating must be between 1 and 5")
	}
	return nil
}

type feedbackResponse struct {
	Status  string `json:"status"`
	EventID string `json:"event_id"`
	Rating  int    `json:"rating"`
}

// HandlePostFeedback handles POST /feedback requests.
func (h *FeedbackHandler) HandlePostFeedback(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_feedback"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	updated, err := h.deps.RecordRating(r.Context(), req.EventID, req.Rating, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
		case errors.Is(err, repository.ErrInvalidRating):
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		}
		return
	}

	writeJSON(w, http.StatusOK, feedbackResponse{
		Status:  "recorded",
		EventID: updated.EventID,
		Rating:  req.Rating,
	})
}
