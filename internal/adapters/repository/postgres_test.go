package repository_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/okian/pitchlog/internal/adapters/repository"
	"github.com/okian/pitchlog/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// Runs only when PITCHLOG_TEST_DATABASE_URL points at a disposable database.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("PITCHLOG_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("PITCHLOG_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	if err := repository.Migrate(dsn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	s, err := repository.NewPostgresStore(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer func() { _ = s.Close() }()

	Convey("Given a migrated postgres store", t, func() {
		Convey("When migrations run again", func() {
			So(repository.Migrate(dsn), ShouldBeNil)
		})

		Convey("When a match with events is created", func() {
			m := newMatch(uuid.NewString(), "2099-12-31", 0)
			m.GoalEvents = append(m.GoalEvents, model.GoalEvent{
				Side: model.SideAgainst, Minute: 80, PlayType: "ABP", ABPSubtype: "Córner", X: 10, Y: 5,
			})
			So(s.CreateMatch(ctx, m), ShouldBeNil)
			defer func() { _ = s.DeleteMatch(ctx, m.ID) }()

			Convey("Then it round-trips with events in order", func() {
				got, err := s.GetMatch(ctx, m.ID)
				So(err, ShouldBeNil)
				So(got.Date, ShouldEqual, "2099-12-31")
				So(got.Opponent, ShouldEqual, m.Opponent)
				So(len(got.GoalEvents), ShouldEqual, 2)
				So(got.GoalEvents[0].PlayType, ShouldEqual, "Transición")
				So(*got.GoalEvents[0].XEnd, ShouldEqual, 70.0)
				So(got.GoalEvents[1].ABPSubtype, ShouldEqual, "Córner")
				So(got.GoalEvents[1].XEnd, ShouldBeNil)
			})

			Convey("Then it is the newest in the list", func() {
				got, err := s.ListMatches(ctx, 1)
				So(err, ShouldBeNil)
				So(got[0].ID, ShouldEqual, m.ID)
			})
		})

		Convey("When reading a malformed id", func() {
			_, err := s.GetMatch(ctx, "not-a-uuid")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When a report is created and finished", func() {
			r := &model.Report{
				ID: uuid.NewString(), NumMatches: 5, Status: model.ReportPending,
				Summary: []byte(`{"matches_count": 5}`), CreatedAt: time.Now().UTC(),
			}
			So(s.CreateReport(ctx, r), ShouldBeNil)
			So(s.FinishReport(ctx, r.ID, model.ReportFailed, "", "boom"), ShouldBeNil)

			Convey("Then the outcome is persisted", func() {
				got, err := s.GetReport(ctx, r.ID)
				So(err, ShouldBeNil)
				So(got.Status, ShouldEqual, model.ReportFailed)
				So(got.Error, ShouldEqual, "boom")
				So(got.CompletedAt, ShouldNotBeNil)
				So(string(got.Summary), ShouldContainSubstring, `"matches_count"`)
			})
		})
	})
}
