package report_test

import (
	"context"
	"errors"
	"testing"
	"time"

	repository "github.com/okian/pulse/internal/adapters/repository"
	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/internal/domain/report"
	. "github.com/smartystreets/goconvey/convey"
)

var errStoreDown = errors.New("store unreachable")

// failingStore simulates an upstream data-access failure.
type failingStore struct{}

func (failingStore) Append(context.Context, model.Event) error { return errStoreDown }
func (failingStore) SetRating(context.Context, string, int, string) (model.Event, error) {
	return model.Event{}, errStoreDown
}
func (failingStore) Query(context.Context, repository.Filter) ([]model.Event, error) {
	return nil, errStoreDown
}
func (failingStore) Count(context.Context) int { return 0 }

func seededStore(ctx context.Context, now time.Time) *repository.MemoryStore {
	store := repository.NewMemoryStore(ctx)
	events := []model.Event{
		{EventID: "e1", EntityID: "c1", ActorID: "u1", Rating: model.IntPtr(3), Sentiment: model.FloatPtr(0.1), Comment: "rough night", CreatedAt: now.AddDate(0, 0, -3)},
		{EventID: "e2", EntityID: "c1", ActorID: "u1", Rating: model.IntPtr(5), Sentiment: model.FloatPtr(0.2), CreatedAt: now.AddDate(0, 0, -2)},
		{EventID: "e3", EntityID: "c2", ActorID: "u2", Rating: model.IntPtr(4), Sentiment: model.FloatPtr(0.0), CreatedAt: now.AddDate(0, 0, -1)},
		{EventID: "e4", EntityID: "c2", ActorID: "u2", CreatedAt: now.Add(-time.Hour)}, // unrated
	}
	for _, e := range events {
		if err := store.Append(ctx, e); err != nil {
			panic(err)
		}
	}
	return store
}

func TestAssembler_Dashboard(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	Convey("Given a seeded store", t, func() {
		store := seededStore(ctx, now)
		asm := report.New(store, report.WithClock(func() time.Time { return now }))

		Convey("When assembling the dashboard with no filters", func() {
			d, err := asm.Dashboard(ctx, model.Window{}, "")

			Convey("Then the summary covers all events", func() {
				So(err, ShouldBeNil)
				So(d.Summary.TotalFeedback, ShouldEqual, 3)
				So(d.Summary.AverageRating, ShouldEqual, 4.0)
				So(d.Summary.FeedbackRate, ShouldEqual, 75.0)
			})

			Convey("And the trend counts each rated day once", func() {
				So(len(d.Trend.Dates), ShouldEqual, 3)
				So(len(d.Trend.Counts), ShouldEqual, 3)
				total := 0
				for _, c := range d.Trend.Counts {
					total += c
				}
				So(total, ShouldEqual, 3)
			})

			Convey("And entities are exhaustive over rated events", func() {
				So(len(d.Entities), ShouldEqual, 2)
				So(d.Entities[0].EntityID, ShouldEqual, "c1")
				So(d.Entities[0].TotalFeedback, ShouldEqual, 2)
				So(d.Entities[1].EntityID, ShouldEqual, "c2")
			})

			Convey("And improvement reflects the 3,5,4 ordering", func() {
				So(d.Improvement.ImprovementRate, ShouldEqual, "50.0%")
				So(d.Improvement.FeedbackVolume, ShouldEqual, 3)
			})

			Convey("And the placeholder labels are attached", func() {
				So(d.Improvement.TopImprovementAreas, ShouldResemble, []string{
					"bedtime_routine", "emotional_support", "behavior_management",
				})
			})

			Convey("And the generation time comes from the injected clock", func() {
				So(d.GeneratedAt, ShouldEqual, now)
			})
		})

		Convey("When the entity filter is applied", func() {
			d, err := asm.Dashboard(ctx, model.Window{}, "c1")

			Convey("Then every aggregation sees the same filter", func() {
				So(err, ShouldBeNil)
				So(d.Summary.TotalFeedback, ShouldEqual, 2)
				So(len(d.Entities), ShouldEqual, 1)
				So(d.Entities[0].EntityID, ShouldEqual, "c1")
				So(d.Improvement.FeedbackVolume, ShouldEqual, 2)
				So(d.Improvement.ImprovementRate, ShouldEqual, "100.0%")
			})
		})

		Convey("When the window is inverted", func() {
			_, err := asm.Dashboard(ctx, model.Window{Start: now, End: now.Add(-time.Hour)}, "")

			Convey("Then it is rejected before querying", func() {
				So(err, ShouldEqual, model.ErrInvalidWindow)
			})
		})

		Convey("When the store is empty", func() {
			empty := repository.NewMemoryStore(ctx)
			d, err := report.New(empty, report.WithClock(func() time.Time { return now })).
				Dashboard(ctx, model.Window{}, "")

			Convey("Then the dashboard renders neutral values, not an error", func() {
				So(err, ShouldBeNil)
				So(d.Summary.TotalFeedback, ShouldEqual, 0)
				So(d.Summary.AverageRating, ShouldEqual, 0.0)
				So(d.Trend.Dates, ShouldBeEmpty)
				So(d.Correlation, ShouldEqual, 0.0)
				So(d.Entities, ShouldBeEmpty)
				So(d.Improvement.ImprovementRate, ShouldEqual, "0%")
			})
		})
	})
}

func TestAssembler_SingleStatistics(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	Convey("Given a seeded store", t, func() {
		store := seededStore(ctx, now)
		asm := report.New(store, report.WithClock(func() time.Time { return now }))

		Convey("When requesting the summary", func() {
			s, err := asm.Summary(ctx, model.Window{}, "")
			So(err, ShouldBeNil)
			So(s.TotalFeedback, ShouldEqual, 3)
		})

		Convey("When requesting the trend with a short window", func() {
			tr, err := asm.Trend(ctx, 2)

			Convey("Then only in-window days appear", func() {
				So(err, ShouldBeNil)
				So(len(tr.Dates), ShouldEqual, 2)
			})
		})

		Convey("When requesting the trend with the default window", func() {
			tr, err := asm.Trend(ctx, 0)
			So(err, ShouldBeNil)
			So(len(tr.Dates), ShouldEqual, 3)
		})

		Convey("When the default trend window is configured", func() {
			narrow := report.New(store,
				report.WithClock(func() time.Time { return now }),
				report.WithTrendDays(2))
			tr, err := narrow.Trend(ctx, 0)

			Convey("Then an unspecified request uses the configured window", func() {
				So(err, ShouldBeNil)
				So(len(tr.Dates), ShouldEqual, 2)
			})
		})

		Convey("When requesting the correlation", func() {
			r, err := asm.Correlation(ctx, model.Window{}, "")

			Convey("Then the coefficient is bounded", func() {
				So(err, ShouldBeNil)
				So(r, ShouldBeGreaterThanOrEqualTo, -1.0)
				So(r, ShouldBeLessThanOrEqualTo, 1.0)
			})
		})

		Convey("When requesting improvement with configured labels", func() {
			custom := report.New(store,
				report.WithClock(func() time.Time { return now }),
				report.WithImprovementAreas([]string{"sleep", "sharing"}),
			)
			imp, err := custom.Improvement(ctx, 0)

			Convey("Then the configured labels replace the defaults", func() {
				So(err, ShouldBeNil)
				So(imp.TopImprovementAreas, ShouldResemble, []string{"sleep", "sharing"})
			})
		})
	})

	Convey("Given a failing store", t, func() {
		asm := report.New(failingStore{})

		Convey("Then every report surfaces the upstream failure", func() {
			_, err := asm.Summary(ctx, model.Window{}, "")
			So(errors.Is(err, errStoreDown), ShouldBeTrue)

			_, err = asm.Dashboard(ctx, model.Window{}, "")
			So(errors.Is(err, errStoreDown), ShouldBeTrue)

			_, err = asm.Export(ctx, model.Window{}, "")
			So(errors.Is(err, errStoreDown), ShouldBeTrue)
		})
	})
}

func TestAssembler_Export(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	Convey("Given a seeded store", t, func() {
		store := seededStore(ctx, now)
		asm := report.New(store, report.WithClock(func() time.Time { return now }))

		Convey("When exporting without filters", func() {
			ex, err := asm.Export(ctx, model.Window{}, "")

			Convey("Then there is one row per rated event", func() {
				So(err, ShouldBeNil)
				So(ex.RowCount, ShouldEqual, 3)
				So(len(ex.Rows), ShouldEqual, ex.RowCount)
			})

			Convey("And the row count matches the summary total", func() {
				s, err := asm.Summary(ctx, model.Window{}, "")
				So(err, ShouldBeNil)
				So(ex.RowCount, ShouldEqual, s.TotalFeedback)
			})

			Convey("And rows keep canonical order with full fields", func() {
				So(ex.Rows[0].Rating, ShouldEqual, 3)
				So(ex.Rows[0].Feedback, ShouldEqual, "rough night")
				So(ex.Rows[0].ActorID, ShouldEqual, "u1")
				So(ex.Rows[0].EntityID, ShouldEqual, "c1")
				So(ex.Rows[0].CreatedAt.Before(ex.Rows[1].CreatedAt), ShouldBeTrue)
			})

			Convey("And the header metadata is populated", func() {
				So(ex.ReportID, ShouldNotBeEmpty)
				So(ex.GeneratedAt, ShouldEqual, now)
			})
		})

		Convey("When exporting a bounded window for one entity", func() {
			win := model.Window{Start: now.AddDate(0, 0, -2), End: now}
			ex, err := asm.Export(ctx, win, "c1")

			Convey("Then only matching rated rows are exported", func() {
				So(err, ShouldBeNil)
				So(ex.RowCount, ShouldEqual, 1)
				So(ex.Rows[0].EntityID, ShouldEqual, "c1")
			})

			Convey("And the applied filters appear in the metadata", func() {
				So(ex.Window.Start, ShouldNotBeEmpty)
				So(ex.Window.End, ShouldNotBeEmpty)
				So(ex.EntityID, ShouldEqual, "c1")
			})
		})

		Convey("When the export window is inverted", func() {
			_, err := asm.Export(ctx, model.Window{Start: now, End: now.Add(-time.Hour)}, "")

			Convey("Then it is rejected before querying", func() {
				So(err, ShouldEqual, model.ErrInvalidWindow)
			})
		})
	})
}
