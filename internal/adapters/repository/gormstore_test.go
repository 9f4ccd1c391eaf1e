package repository_test

import (
	"context"
	"testing"
	"time"

	repository "github.com/okian/pulse/internal/adapters/repository"
	"github.com/okian/pulse/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func newSQLiteStore(ctx context.Context) (*repository.GormStore, error) {
	// Private in-memory database per open.
	return repository.NewGormStore(ctx, repository.DriverSQLite, "file::memory:")
}

func TestGormStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	Convey("Given a sqlite-backed store", t, func() {
		store, err := newSQLiteStore(ctx)
		So(err, ShouldBeNil)

		Convey("When appending and querying events", func() {
			events := []model.Event{
				{EventID: "e2", EntityID: "c1", ActorID: "u1", Rating: model.IntPtr(5), Sentiment: model.FloatPtr(0.4), CreatedAt: base.AddDate(0, 0, 1)},
				{EventID: "e1", EntityID: "c1", ActorID: "u1", Rating: model.IntPtr(3), Comment: "ok", CreatedAt: base},
				{EventID: "e3", EntityID: "c2", ActorID: "u2", CreatedAt: base.AddDate(0, 0, 2)},
			}
			for _, e := range events {
				So(store.Append(ctx, e), ShouldBeNil)
			}

			got, err := store.Query(ctx, repository.Filter{})

			Convey("Then rows come back complete and canonically ordered", func() {
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 3)
				So(got[0].EventID, ShouldEqual, "e1")
				So(got[0].Comment, ShouldEqual, "ok")
				So(got[1].EventID, ShouldEqual, "e2")
				So(*got[1].Sentiment, ShouldEqual, 0.4)
				So(got[2].EventID, ShouldEqual, "e3")
				So(got[2].Rated(), ShouldBeFalse)
			})

			Convey("And filters are pushed to the database", func() {
				rated, err := store.Query(ctx, repository.Filter{RatedOnly: true, EntityID: "c1"})
				So(err, ShouldBeNil)
				So(len(rated), ShouldEqual, 2)

				windowed, err := store.Query(ctx, repository.Filter{
					Window: model.Window{Start: base, End: base.AddDate(0, 0, 1)},
				})
				So(err, ShouldBeNil)
				So(len(windowed), ShouldEqual, 1)
				So(windowed[0].EventID, ShouldEqual, "e1")
			})

			Convey("And Count matches", func() {
				So(store.Count(ctx), ShouldEqual, 3)
			})
		})

		Convey("When appending a duplicate id", func() {
			So(store.Append(ctx, model.Event{EventID: "dup", CreatedAt: base}), ShouldBeNil)
			err := store.Append(ctx, model.Event{EventID: "dup", CreatedAt: base})

			Convey("Then ErrDuplicateID is surfaced", func() {
				So(err, ShouldEqual, repository.ErrDuplicateID)
			})
		})

		Convey("When rating an event", func() {
			So(store.Append(ctx, model.Event{EventID: "r1", EntityID: "c1", CreatedAt: base}), ShouldBeNil)
			updated, err := store.SetRating(ctx, "r1", 4, "better now")

			Convey("Then the stored row reflects the rating", func() {
				So(err, ShouldBeNil)
				So(*updated.Rating, ShouldEqual, 4)
				So(updated.Comment, ShouldEqual, "better now")
			})
		})

		Convey("When rating an unknown event", func() {
			_, err := store.SetRating(ctx, "nope", 4, "")

			Convey("Then ErrNotFound is returned", func() {
				So(err, ShouldEqual, repository.ErrNotFound)
			})
		})
	})
}

func TestGormStore_UnknownDriver(t *testing.T) {
	Convey("Given an unsupported driver name", t, func() {
		_, err := repository.NewGormStore(context.Background(), "oracle", "dsn")

		Convey("Then opening fails with ErrUnknownDriver", func() {
			So(err, ShouldNotBeNil)
		})
	})
}
