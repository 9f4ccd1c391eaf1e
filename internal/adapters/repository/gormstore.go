package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/pkg/metrics"
)

// Supported GormStore drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrUnknownDriver signals an unsupported driver name.
var ErrUnknownDriver = errors.New("unknown store driver")

// eventRow is the persistence shape of a model.Event.
type eventRow struct {
	EventID   string    `gorm:"column:event_id;primaryKey"`
	EntityID  string    `gorm:"column:entity_id;index"`
	ActorID   string    `gorm:"column:actor_id;index"`
	Rating    *int      `gorm:"column:rating"`
	Sentiment *float64  `gorm:"column:sentiment_score"`
	Comment   string    `gorm:"column:comment"`
	CreatedAt time.Time `gorm:"column:created_at;index"`
}

// TableName pins the table name regardless of gorm's pluralization.
func (eventRow) TableName() string { return "events" }

func toRow(e model.Event) eventRow {
	return eventRow{
		EventID:   e.EventID,
		EntityID:  e.EntityID,
		ActorID:   e.ActorID,
		Rating:    e.Rating,
		Sentiment: e.Sentiment,
		Comment:   e.Comment,
		CreatedAt: e.CreatedAt,
	}
}

func (r eventRow) toModel() model.Event {
	return model.Event{
		EventID:   r.EventID,
		EntityID:  r.EntityID,
		ActorID:   r.ActorID,
		Rating:    r.Rating,
		Sentiment: r.Sentiment,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}

// GormStore persists the event log through gorm, backed by sqlite or
// postgres depending on configuration.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the database for the given driver and dsn and
// migrates the events table.
func NewGormStore(ctx context.Context, driver, dsn string) (*GormStore, error) {
	cfg := &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true, // surface gorm.ErrDuplicatedKey across drivers
	}

	var (
		db  *gorm.DB
		err error
	)
	switch driver {
	case DriverPostgres:
		db, err = gorm.Open(postgres.Open(dsn), cfg)
	case DriverSQLite:
		db, err = gorm.Open(sqlite.Open(dsn), cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("configure pool: %w", err)
	}
	if driver == DriverSQLite {
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetMaxOpenConns(10)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
	}

	if err := db.WithContext(ctx).AutoMigrate(&eventRow{}); err != nil {
		return nil, fmt.Errorf("migrate events table: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Append inserts a new event row.
func (s *GormStore) Append(ctx context.Context, e model.Event) error {
	if err := validate(e); err != nil {
		return err
	}
	row := toRow(e)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateID
		}
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// SetRating records a rating on an existing event row.
func (s *GormStore) SetRating(ctx context.Context, eventID string, rating int, comment string) (model.Event, error) {
	if !model.ValidRating(rating) {
		return model.Event{}, ErrInvalidRating
	}

	updates := map[string]any{"rating": rating}
	if comment != "" {
		updates["comment"] = comment
	}
	res := s.db.WithContext(ctx).Model(&eventRow{}).Where("event_id = ?", eventID).Updates(updates)
	if res.Error != nil {
		return model.Event{}, fmt.Errorf("set rating: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return model.Event{}, ErrNotFound
	}

	var row eventRow
	if err := s.db.WithContext(ctx).First(&row, "event_id = ?", eventID).Error; err != nil {
		return model.Event{}, fmt.Errorf("reload event: %w", err)
	}
	return row.toModel(), nil
}

// Query returns matching events in canonical order. The windowing and
// filtering is pushed to the database; aggregation stays in-process.
func (s *GormStore) Query(ctx context.Context, f Filter) ([]model.Event, error) {
	start := time.Now()

	q := s.db.WithContext(ctx).Model(&eventRow{})
	if !f.Window.Start.IsZero() {
		q = q.Where("created_at >= ?", f.Window.Start)
	}
	if !f.Window.End.IsZero() {
		q = q.Where("created_at < ?", f.Window.End)
	}
	if f.EntityID != "" {
		q = q.Where("entity_id = ?", f.EntityID)
	}
	if f.RatedOnly {
		q = q.Where("rating IS NOT NULL")
	}

	var rows []eventRow
	if err := q.Order("created_at ASC, event_id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}

	out := make([]model.Event, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	return out, nil
}

// Count returns the number of events tracked.
func (s *GormStore) Count(ctx context.Context) int {
	var n int64
	if err := s.db.WithContext(ctx).Model(&eventRow{}).Count(&n).Error; err != nil {
		return 0
	}
	return int(n)
}
