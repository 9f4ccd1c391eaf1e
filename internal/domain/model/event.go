// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"sort"
	"time"
)

// Rating bounds enforced on every write path.
const (
	MinRating = 1
	MaxRating = 5
)

// Sentiment score bounds.
const (
	MinSentiment = -1.0
	MaxSentiment = 1.0
)

// ErrInvalidWindow signals an inverted time range.
var ErrInvalidWindow = errors.New("invalid window: end before start")

// Event represents one rated or ratable interaction record.
// Events are append-only: CreatedAt never changes and the engine
// never deletes them.
type Event struct {
	EventID   string    // unique id, also the ingest idempotency key
	EntityID  string    // subject being rated, used for grouping
	ActorID   string    // account that produced the event
	Rating    *int      // optional, [1,5]; nil means unrated
	Sentiment *float64  // optional, [-1.0,1.0]; used only for correlation
	Comment   string    // free text, opaque to the engine
	CreatedAt time.Time // assigned at creation, immutable
}

// Rated reports whether the event carries a rating.
func (e Event) Rated() bool { return e.Rating != nil }

// Scored reports whether the event carries both a rating and a
// sentiment score, i.e. contributes a correlation pair.
func (e Event) Scored() bool { return e.Rating != nil && e.Sentiment != nil }

// ValidRating reports whether r is inside the accepted rating bounds.
func ValidRating(r int) bool { return r >= MinRating && r <= MaxRating }

// ValidSentiment reports whether s is inside the accepted sentiment bounds.
func ValidSentiment(s float64) bool { return s >= MinSentiment && s <= MaxSentiment }

// Window is an inclusive-exclusive [Start, End) time range. A zero
// Start or End leaves that side unbounded.
type Window struct {
	Start time.Time
	End   time.Time
}

// LastDays returns a window covering the trailing n days ending at now.
func LastDays(now time.Time, n int) Window {
	return Window{Start: now.AddDate(0, 0, -n), End: now}
}

// Unbounded reports whether the window places no restriction at all.
func (w Window) Unbounded() bool { return w.Start.IsZero() && w.End.IsZero() }

// Validate rejects inverted ranges. Unbounded sides are always valid.
func (w Window) Validate() error {
	if !w.Start.IsZero() && !w.End.IsZero() && w.End.Before(w.Start) {
		return ErrInvalidWindow
	}
	return nil
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && !t.Before(w.End) {
		return false
	}
	return true
}

// SortEvents orders events by CreatedAt ascending, ties broken by
// EventID ascending. This is the canonical ordering for trend and
// improvement calculations.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].EventID < events[j].EventID
		}
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})
}

// RatedOnly returns the subset of events carrying a rating, preserving order.
func RatedOnly(events []Event) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if e.Rated() {
			out = append(out, e)
		}
	}
	return out
}

// IntPtr and FloatPtr are small helpers for building optional fields.
func IntPtr(v int) *int           { return &v }
func FloatPtr(v float64) *float64 { return &v }
