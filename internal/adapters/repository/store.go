// Package repository defines the event store adapter and its
// implementations. The store owns read access to the append-only
// event log; all statistics are computed in-process from the rows it
// returns, never inside the store.
package repository

import (
	"context"

	"github.com/okian/pulse/internal/domain/model"
)

// Filter narrows a Query. The zero value matches every event.
type Filter struct {
	// Window restricts CreatedAt to [Start, End). Zero sides are unbounded.
	Window model.Window

	// EntityID restricts to one entity when non-empty.
	EntityID string

	// RatedOnly drops events without a rating.
	RatedOnly bool
}

// Store provides access to the event log.
type Store interface {
	// Append adds a new event. Returns ErrDuplicateID when the event id
	// already exists and ErrInvalidEvent for out-of-bounds fields.
	Append(ctx context.Context, e model.Event) error

	// SetRating records a rating (and optional comment) on an existing
	// event and returns the updated event. Returns ErrNotFound for an
	// unknown id and ErrInvalidRating outside [1,5].
	SetRating(ctx context.Context, eventID string, rating int, comment string) (model.Event, error)

	// Query returns matching events ordered by created_at ascending,
	// ties broken by event_id ascending. A query that matches nothing
	// returns an empty slice, never an error.
	Query(ctx context.Context, f Filter) ([]model.Event, error)

	// Count returns the total number of events tracked.
	Count(ctx context.Context) int
}

// validate checks the invariants shared by both store implementations.
func validate(e model.Event) error {
	if e.EventID == "" {
		return ErrInvalidEvent
	}
	if e.Rating != nil && !model.ValidRating(*e.Rating) {
		return ErrInvalidRating
	}
	if e.Sentiment != nil && !model.ValidSentiment(*e.Sentiment) {
		return ErrInvalidEvent
	}
	return nil
}
