// Package report assembles aggregation outputs into on-demand report
// documents. Reports are derived per request, never persisted, and
// never mutate events. Every aggregation inside one report sees the
// exact same filtered snapshot.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	repository "github.com/okian/pulse/internal/adapters/repository"
	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/internal/domain/stats"
	"github.com/okian/pulse/pkg/metrics"
)

// Default trailing windows applied when the caller omits one.
const (
	DefaultTrendDays       = 30
	DefaultImprovementDays = 90
)

// defaultImprovementAreas are the placeholder labels shipped when no
// configuration overrides them. They are reference data, not derived.
var defaultImprovementAreas = []string{
	"bedtime_routine",
	"emotional_support",
	"behavior_management",
}

// Assembler builds reports from the event store.
type Assembler struct {
	store            repository.Store
	now              func() time.Time
	trendDays        int
	improvementDays  int
	improvementAreas []string
}

// Option applies a configuration option to the Assembler.
type Option func(*Assembler)

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) {
		if now != nil {
			a.now = now
		}
	}
}

// WithTrendDays sets the default trailing window for trend reports.
func WithTrendDays(days int) Option {
	return func(a *Assembler) {
		if days > 0 {
			a.trendDays = days
		}
	}
}

// WithImprovementDays sets the trailing window for improvement reports.
func WithImprovementDays(days int) Option {
	return func(a *Assembler) {
		if days > 0 {
			a.improvementDays = days
		}
	}
}

// WithImprovementAreas replaces the placeholder improvement labels.
func WithImprovementAreas(areas []string) Option {
	return func(a *Assembler) {
		if len(areas) > 0 {
			a.improvementAreas = append([]string(nil), areas...)
		}
	}
}

// New constructs an Assembler over the given store.
func New(store repository.Store, opts ...Option) *Assembler {
	a := &Assembler{
		store:            store,
		now:              time.Now,
		trendDays:        DefaultTrendDays,
		improvementDays:  DefaultImprovementDays,
		improvementAreas: defaultImprovementAreas,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Trend is the wire shape of the daily-trend report: parallel date and
// count slices, matching the dashboard consumer.
type Trend struct {
	Dates  []string `json:"dates"`
	Counts []int    `json:"counts"`
}

// ImprovementReport extends the improvement heuristic with the
// configured reference labels.
type ImprovementReport struct {
	ImprovementRate     string   `json:"improvement_rate"`
	FeedbackVolume      int      `json:"feedback_volume"`
	TopImprovementAreas []string `json:"top_improvement_areas"`
}

// Dashboard is the full reporting payload.
type Dashboard struct {
	GeneratedAt time.Time           `json:"generated_at"`
	Summary     stats.Summary       `json:"summary"`
	Trend       Trend               `json:"trend"`
	Correlation float64             `json:"correlation"`
	Entities    []stats.EntityStats `json:"entities"`
	Improvement ImprovementReport   `json:"improvement"`
}

// Summary computes the feedback summary over the full event log,
// optionally narrowed by window and entity.
func (a *Assembler) Summary(ctx context.Context, win model.Window, entityID string) (stats.Summary, error) {
	events, err := a.query(ctx, win, entityID, false)
	if err != nil {
		return stats.Summary{}, err
	}
	metrics.RecordReportGenerated("summary")
	return stats.ComputeSummary(events), nil
}

// Trend computes daily rated-event counts over the trailing days
// window (the configured default when days <= 0).
func (a *Assembler) Trend(ctx context.Context, days int) (Trend, error) {
	if days <= 0 {
		days = a.trendDays
	}
	events, err := a.query(ctx, model.LastDays(a.now(), days), "", true)
	if err != nil {
		return Trend{}, err
	}
	daily := stats.DailyTrend(events)
	t := Trend{Dates: make([]string, len(daily)), Counts: make([]int, len(daily))}
	for i, d := range daily {
		t.Dates[i] = d.Date
		t.Counts[i] = d.Count
	}
	metrics.RecordReportGenerated("trend")
	return t, nil
}

// Correlation computes the rating/sentiment Pearson coefficient over
// the full log, optionally narrowed.
func (a *Assembler) Correlation(ctx context.Context, win model.Window, entityID string) (float64, error) {
	events, err := a.query(ctx, win, entityID, true)
	if err != nil {
		return 0, err
	}
	metrics.RecordReportGenerated("correlation")
	return stats.Correlation(events), nil
}

// PerEntity computes rated-feedback stats grouped by entity.
func (a *Assembler) PerEntity(ctx context.Context, win model.Window) ([]stats.EntityStats, error) {
	events, err := a.query(ctx, win, "", true)
	if err != nil {
		return nil, err
	}
	metrics.RecordReportGenerated("per_entity")
	return stats.PerEntity(events), nil
}

// Improvement computes the consecutive-pair improvement rate over the
// trailing days window (the configured default when days <= 0) and
// attaches the configured reference labels.
func (a *Assembler) Improvement(ctx context.Context, days int) (ImprovementReport, error) {
	if days <= 0 {
		days = a.improvementDays
	}
	events, err := a.query(ctx, model.LastDays(a.now(), days), "", true)
	if err != nil {
		return ImprovementReport{}, err
	}
	imp := stats.ImprovementRate(events)
	metrics.RecordReportGenerated("improvement")
	return ImprovementReport{
		ImprovementRate:     imp.Rate,
		FeedbackVolume:      imp.Volume,
		TopImprovementAreas: append([]string(nil), a.improvementAreas...),
	}, nil
}

// Dashboard assembles every statistic over one snapshot so that no
// aggregation sees a different filter than its siblings. Trend and
// improvement keep their own trailing windows and are derived from the
// same snapshot in-process.
func (a *Assembler) Dashboard(ctx context.Context, win model.Window, entityID string) (Dashboard, error) {
	start := time.Now()
	events, err := a.query(ctx, win, entityID, false)
	if err != nil {
		return Dashboard{}, err
	}

	now := a.now()
	rated := model.RatedOnly(events)

	trendEvents := eventsInWindow(rated, model.LastDays(now, a.trendDays))
	daily := stats.DailyTrend(trendEvents)
	trend := Trend{Dates: make([]string, len(daily)), Counts: make([]int, len(daily))}
	for i, d := range daily {
		trend.Dates[i] = d.Date
		trend.Counts[i] = d.Count
	}

	imp := stats.ImprovementRate(eventsInWindow(rated, model.LastDays(now, a.improvementDays)))

	d := Dashboard{
		GeneratedAt: now,
		Summary:     stats.ComputeSummary(events),
		Trend:       trend,
		Correlation: stats.Correlation(events),
		Entities:    stats.PerEntity(rated),
		Improvement: ImprovementReport{
			ImprovementRate:     imp.Rate,
			FeedbackVolume:      imp.Volume,
			TopImprovementAreas: append([]string(nil), a.improvementAreas...),
		},
	}
	metrics.RecordReportGenerated("dashboard")
	metrics.RecordReportDuration("dashboard", float64(time.Since(start).Milliseconds()))
	return d, nil
}

// query validates the window once and fetches the snapshot every
// aggregation in the report shares.
func (a *Assembler) query(ctx context.Context, win model.Window, entityID string, ratedOnly bool) ([]model.Event, error) {
	if err := win.Validate(); err != nil {
		return nil, err
	}
	events, err := a.store.Query(ctx, repository.Filter{
		Window:    win,
		EntityID:  entityID,
		RatedOnly: ratedOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return events, nil
}

// eventsInWindow narrows an already-fetched snapshot without another
// store round-trip.
func eventsInWindow(events []model.Event, win model.Window) []model.Event {
	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if win.Contains(e.CreatedAt) {
			out = append(out, e)
		}
	}
	return out
}

// reportID labels one generated export for traceability in headers.
func reportID() string { return uuid.NewString() }
