package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/pulse/internal/adapters/http/stream"
	service "github.com/okian/pulse/internal/app"
	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/internal/domain/stats"
)

// captureConn collects broadcast updates for stream assertions.
type captureConn struct {
	mu      sync.Mutex
	updates []any
	closed  bool
}

func (c *captureConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates = append(c.updates, v)
	return nil
}

func (c *captureConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *captureConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.updates)
}

func (c *captureConn) last() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.updates) == 0 {
		return nil
	}
	return c.updates[len(c.updates)-1]
}

func seedEvents(ctx context.Context, svc *service.Service) error {
	base := time.Now().UTC().Add(-48 * time.Hour)
	events := []model.Event{
		{EventID: "evt-1", EntityID: "child-1", ActorID: "parent-1", Sentiment: model.FloatPtr(0.1), CreatedAt: base},
		{EventID: "evt-2", EntityID: "child-1", ActorID: "parent-1", Sentiment: model.FloatPtr(0.3), CreatedAt: base.Add(6 * time.Hour)},
		{EventID: "evt-3", EntityID: "child-2", ActorID: "parent-2", Sentiment: model.FloatPtr(0.2), CreatedAt: base.Add(26 * time.Hour)},
		{EventID: "evt-4", EntityID: "child-2", ActorID: "parent-2", CreatedAt: base.Add(30 * time.Hour)},
	}
	for _, e := range events {
		if err := svc.AppendEvent(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a started service with seeded events", t, func() {
		ratedAt := time.Date(2025, 6, 20, 10, 30, 0, 0, time.UTC)
		svc := service.New(
			service.WithDedupeSize(500),
			service.WithTrendDays(7),
			service.WithImprovementDays(7),
			service.WithClock(func() time.Time { return ratedAt }),
		)
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		So(svc.Start(ctx), ShouldBeNil)
		So(seedEvents(ctx, svc), ShouldBeNil)

		Convey("When ratings are recorded", func() {
			_, err := svc.RecordRating(ctx, "evt-1", 3, "rocky start")
			So(err, ShouldBeNil)
			_, err = svc.RecordRating(ctx, "evt-2", 5, "much better")
			So(err, ShouldBeNil)
			_, err = svc.RecordRating(ctx, "evt-3", 4, "")
			So(err, ShouldBeNil)

			Convey("Then the summary reflects all rated events", func() {
				summary, err := svc.Summary(ctx, model.Window{}, "")
				So(err, ShouldBeNil)
				So(summary, ShouldResemble, stats.Summary{
					TotalFeedback: 3,
					AverageRating: 4.0,
					FeedbackRate:  75.0,
				})
			})

			Convey("And the trend counts the rated days", func() {
				trend, err := svc.Trend(ctx, 7)
				So(err, ShouldBeNil)

				total := 0
				for _, c := range trend.Counts {
					total += c
				}
				So(total, ShouldEqual, 3)
				So(len(trend.Dates), ShouldEqual, len(trend.Counts))
			})

			Convey("And the per-entity breakdown covers both children", func() {
				entities, err := svc.PerEntity(ctx, model.Window{})
				So(err, ShouldBeNil)
				So(len(entities), ShouldEqual, 2)
				So(entities[0].EntityID, ShouldEqual, "child-1")
				So(entities[0].AvgRating, ShouldEqual, 4.0)
				So(entities[1].EntityID, ShouldEqual, "child-2")
			})

			Convey("And the improvement rate counts improving pairs", func() {
				imp, err := svc.Improvement(ctx, 7)
				So(err, ShouldBeNil)
				So(imp.FeedbackVolume, ShouldEqual, 3)
				So(imp.ImprovementRate, ShouldEqual, "50.0%")
			})

			Convey("And the export holds one row per rated event", func() {
				exp, err := svc.Export(ctx, model.Window{}, "")
				So(err, ShouldBeNil)
				So(exp.RowCount, ShouldEqual, 3)
				So(exp.ReportID, ShouldNotBeEmpty)
			})

			Convey("And the dashboard sections agree with the single reports", func() {
				dash, err := svc.Dashboard(ctx, model.Window{}, "")
				So(err, ShouldBeNil)
				So(dash.Summary.TotalFeedback, ShouldEqual, 3)
				So(dash.Entities, ShouldHaveLength, 2)
			})
		})

		Convey("When a listener subscribes before a rating lands", func() {
			conn := &captureConn{}
			cancelSub := svc.Subscribe(ctx, conn)
			defer cancelSub()

			_, err := svc.RecordRating(ctx, "evt-4", 2, "")
			So(err, ShouldBeNil)

			Convey("Then the update is delivered to the listener", func() {
				deadline := time.Now().Add(2 * time.Second)
				for conn.count() == 0 && time.Now().Before(deadline) {
					time.Sleep(5 * time.Millisecond)
				}
				So(conn.count(), ShouldEqual, 1)
			})

			Convey("And the update is stamped with the rating time, not the event time", func() {
				deadline := time.Now().Add(2 * time.Second)
				for conn.count() == 0 && time.Now().Before(deadline) {
					time.Sleep(5 * time.Millisecond)
				}

				update, ok := conn.last().(stream.Update)
				So(ok, ShouldBeTrue)
				So(update.EventID, ShouldEqual, "evt-4")
				So(update.Rating, ShouldEqual, 2)
				So(update.Timestamp.Equal(ratedAt), ShouldBeTrue)
			})
		})

		Convey("When an unknown event is rated", func() {
			_, err := svc.RecordRating(ctx, "evt-missing", 4, "")

			Convey("Then the write fails and reports stay unchanged", func() {
				So(err, ShouldNotBeNil)

				summary, serr := svc.Summary(ctx, model.Window{}, "")
				So(serr, ShouldBeNil)
				So(summary.TotalFeedback, ShouldEqual, 0)
			})
		})

		Convey("When a duplicate event id is appended", func() {
			err := svc.AppendEvent(ctx, model.Event{
				EventID:   "evt-1",
				EntityID:  "child-9",
				ActorID:   "parent-9",
				CreatedAt: time.Now().UTC(),
			})

			Convey("Then the store rejects it and the count is stable", func() {
				So(err, ShouldNotBeNil)
				stats := svc.GetStats()
				So(stats["total_events"], ShouldEqual, 4)
			})
		})
	})
}
