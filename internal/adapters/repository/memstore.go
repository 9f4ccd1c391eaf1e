package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/pkg/metrics"
)

// MemoryStore keeps the event log in a slice sorted by the canonical
// ordering (created_at asc, event_id asc). Reads copy the matching
// rows so aggregation never observes concurrent mutation.
type MemoryStore struct {
	mu     sync.RWMutex
	events []model.Event
	byID   map[string]int // event id -> index in events
}

// NewMemoryStore creates an empty in-memory event store.
func NewMemoryStore(_ context.Context) *MemoryStore {
	return &MemoryStore{byID: make(map[string]int)}
}

// Append adds a new event, keeping the slice sorted.
func (s *MemoryStore) Append(_ context.Context, e model.Event) error {
	if err := validate(e); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[e.EventID]; exists {
		return ErrDuplicateID
	}

	// Most appends arrive in time order; binary-search the slot for
	// the ones that do not.
	i := sort.Search(len(s.events), func(i int) bool {
		if s.events[i].CreatedAt.Equal(e.CreatedAt) {
			return s.events[i].EventID > e.EventID
		}
		return s.events[i].CreatedAt.After(e.CreatedAt)
	})
	s.events = append(s.events, model.Event{})
	copy(s.events[i+1:], s.events[i:])
	s.events[i] = e
	for j := i; j < len(s.events); j++ {
		s.byID[s.events[j].EventID] = j
	}
	return nil
}

// SetRating records a rating on an existing event.
func (s *MemoryStore) SetRating(_ context.Context, eventID string, rating int, comment string) (model.Event, error) {
	if !model.ValidRating(rating) {
		return model.Event{}, ErrInvalidRating
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.byID[eventID]
	if !ok {
		return model.Event{}, ErrNotFound
	}
	s.events[i].Rating = model.IntPtr(rating)
	if comment != "" {
		s.events[i].Comment = comment
	}
	return s.events[i], nil
}

// Query returns a copy of the matching events in canonical order.
func (s *MemoryStore) Query(_ context.Context, f Filter) ([]model.Event, error) {
	start := time.Now()
	s.mu.RLock()
	out := make([]model.Event, 0, len(s.events))
	for _, e := range s.events {
		if !f.Window.Contains(e.CreatedAt) {
			continue
		}
		if f.EntityID != "" && e.EntityID != f.EntityID {
			continue
		}
		if f.RatedOnly && !e.Rated() {
			continue
		}
		out = append(out, e)
	}
	s.mu.RUnlock()
	metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	return out, nil
}

// Count returns the number of events tracked.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
