// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/pulse/internal/adapters/http/stream"
	"github.com/okian/pulse/internal/adapters/repository"
	"github.com/okian/pulse/internal/domain/dedupe"
	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/internal/domain/report"
	"github.com/okian/pulse/internal/domain/stats"
	"github.com/okian/pulse/pkg/logger"
	"github.com/okian/pulse/pkg/metrics"
)

// Store driver names accepted by WithStoreDriver.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Service wires the event store, deduper, report assembler, and the
// live feedback stream behind the HTTP API's dependency surface.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	deduper   dedupe.Deduper
	assembler *report.Assembler
	hub       *stream.Hub

	// Configuration
	storeDriver      string
	dsn              string
	dedupeSize       int
	trendDays        int
	improvementDays  int
	improvementAreas []string
	streamBuffer     int

	// State
	started bool

	// Clock used for broadcast timestamps; swapped in tests.
	now func() time.Time

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStoreDriver selects the event log backend and its DSN. The DSN
// is ignored for the memory driver.
func WithStoreDriver(driver, dsn string) Option {
	return func(s *Service) {
		if driver != "" {
			s.storeDriver = driver
			s.dsn = dsn
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithTrendDays sets the default daily trend window.
func WithTrendDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.trendDays = days
		}
	}
}

// WithImprovementDays sets the default improvement rate window.
func WithImprovementDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.improvementDays = days
		}
	}
}

// WithImprovementAreas sets the reference labels attached to
// improvement reports.
func WithImprovementAreas(areas []string) Option {
	return func(s *Service) {
		if len(areas) > 0 {
			s.improvementAreas = areas
		}
	}
}

// WithStreamBuffer bounds each feedback-stream listener's send queue.
func WithStreamBuffer(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.streamBuffer = size
		}
	}
}

// WithClock overrides the clock used for broadcast timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		storeDriver:     DriverMemory,
		dedupeSize:      50_000,
		trendDays:       30,
		improvementDays: 90,
		streamBuffer:    16,
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting feedback service...")

	store, err := s.openStore(ctx)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	s.store = store

	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)

	assemblerOpts := []report.Option{
		report.WithTrendDays(s.trendDays),
		report.WithImprovementDays(s.improvementDays),
	}
	if len(s.improvementAreas) > 0 {
		assemblerOpts = append(assemblerOpts, report.WithImprovementAreas(s.improvementAreas))
	}
	s.assembler = report.New(s.store, assemblerOpts...)

	s.hub = stream.NewHub(
		stream.WithSendBuffer(s.streamBuffer),
		stream.WithLogger(s.logger.Named("stream")),
	)

	s.started = true
	s.logger.Info(ctx, "feedback service started",
		logger.String("storeDriver", s.storeDriver),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("trendDays", s.trendDays),
		logger.Int("improvementDays", s.improvementDays),
	)

	return nil
}

// openStore builds the configured event log backend.
func (s *Service) openStore(ctx context.Context) (repository.Store, error) {
	switch s.storeDriver {
	case DriverMemory:
		s.logger.Info(ctx, "using in-memory store")
		return repository.NewMemoryStore(ctx), nil
	case DriverSQLite:
		s.logger.Info(ctx, "using sqlite store", logger.String("dsn", s.dsn))
		return repository.NewGormStore(ctx, repository.DriverSQLite, s.dsn)
	case DriverPostgres:
		s.logger.Info(ctx, "using postgres store")
		return repository.NewGormStore(ctx, repository.DriverPostgres, s.dsn)
	default:
		return nil, fmt.Errorf("%w: %s", repository.ErrUnknownDriver, s.storeDriver)
	}
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping feedback service...")

	if s.hub != nil {
		s.hub.Stop()
	}

	if s.store != nil {
		if closer, ok := s.store.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}

	s.started = false
	s.logger.Info(ctx, "feedback service stopped")
}

// SeenAndRecord atomically checks if an event id was seen and records it if not.
// Returns true if the event was already seen, false if it was newly recorded.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordEventDuplicate()
	}
	return seen
}

// Unrecord removes an event ID from the seen list, allowing it to be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// AppendEvent records a new interaction event in the store.
func (s *Service) AppendEvent(ctx context.Context, e model.Event) error {
	if err := s.store.Append(ctx, e); err != nil {
		return err
	}
	metrics.RecordEventAppended()
	metrics.UpdateTotalEvents(s.store.Count(ctx))
	s.logger.Debug(ctx, "event appended",
		logger.String("eventID", e.EventID),
		logger.String("entityID", e.EntityID),
	)
	return nil
}

// RecordRating attaches a rating to an existing event and broadcasts
// the update to live listeners. The broadcast is best-effort and never
// fails the write.
func (s *Service) RecordRating(ctx context.Context, eventID string, rating int, comment string) (model.Event, error) {
	updated, err := s.store.SetRating(ctx, eventID, rating, comment)
	if err != nil {
		return model.Event{}, err
	}
	metrics.RecordRatingRecorded()

	// Listeners see when the rating landed, not when the event was
	// created.
	s.hub.Broadcast(ctx, stream.Update{
		EventID:   updated.EventID,
		Rating:    rating,
		Timestamp: s.now().UTC(),
	})

	s.logger.Debug(ctx, "rating recorded",
		logger.String("eventID", eventID),
		logger.Int("rating", rating),
	)
	return updated, nil
}

// Subscribe attaches a live listener to the broadcast hub.
func (s *Service) Subscribe(ctx context.Context, conn stream.Conn) (cancel func()) {
	return s.hub.Subscribe(ctx, conn)
}

// Summary delegates to the report assembler.
func (s *Service) Summary(ctx context.Context, win model.Window, entityID string) (stats.Summary, error) {
	return s.assembler.Summary(ctx, win, entityID)
}

// Trend delegates to the report assembler.
func (s *Service) Trend(ctx context.Context, days int) (report.Trend, error) {
	return s.assembler.Trend(ctx, days)
}

// Correlation delegates to the report assembler.
func (s *Service) Correlation(ctx context.Context, win model.Window, entityID string) (float64, error) {
	return s.assembler.Correlation(ctx, win, entityID)
}

// PerEntity delegates to the report assembler.
func (s *Service) PerEntity(ctx context.Context, win model.Window) ([]stats.EntityStats, error) {
	return s.assembler.PerEntity(ctx, win)
}

// Improvement delegates to the report assembler.
func (s *Service) Improvement(ctx context.Context, days int) (report.ImprovementReport, error) {
	return s.assembler.Improvement(ctx, days)
}

// Dashboard delegates to the report assembler.
func (s *Service) Dashboard(ctx context.Context, win model.Window, entityID string) (report.Dashboard, error) {
	return s.assembler.Dashboard(ctx, win, entityID)
}

// Export delegates to the report assembler.
func (s *Service) Export(ctx context.Context, win model.Window, entityID string) (report.Export, error) {
	return s.assembler.Export(ctx, win, entityID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := map[string]interface{}{
		"started":      s.started,
		"store_driver": s.storeDriver,
		"dedupe_size":  s.dedupeSize,
	}

	if s.started {
		ctx := context.Background()
		totalEvents := s.store.Count(ctx)
		streamClients := s.hub.Len()

		result["total_events"] = totalEvents
		result["tracked_ids"] = s.Size()
		result["stream_clients"] = streamClients

		metrics.UpdateTotalEvents(totalEvents)
		metrics.UpdateDedupeSize(s.Size())
		metrics.UpdateStreamClients(streamClients)
	}

	return result
}
