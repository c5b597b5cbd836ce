package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/pitchlog/internal/adapters/repository"
	"github.com/okian/pitchlog/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var base = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

func newMatch(id, date string, offset time.Duration) *model.Match {
	xEnd := 70.0
	return &model.Match{
		ID:           id,
		Date:         date,
		Opponent:     "Rival " + id,
		GoalsFor:     1,
		GoalsAgainst: 0,
		GoalEvents: []model.GoalEvent{
			{Side: model.SideFor, Minute: 12, PlayType: "Transición", X: 40, Y: 60, XEnd: &xEnd, YEnd: &xEnd},
		},
		CreatedAt: base.Add(offset),
	}
}

func TestMemoryStoreMatches(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty memory store", t, func() {
		s := repository.NewMemoryStore()

		Convey("When a match is created", func() {
			m := newMatch("a", "2026-03-01", 0)
			So(s.CreateMatch(ctx, m), ShouldBeNil)

			Convey("Then it can be read back", func() {
				got, err := s.GetMatch(ctx, "a")
				So(err, ShouldBeNil)
				So(got, ShouldResemble, *m)
				n, _ := s.CountMatches(ctx)
				So(n, ShouldEqual, 1)
			})

			Convey("Then mutating the caller's copy does not leak into the store", func() {
				m.GoalEvents[0].Minute = 99
				*m.GoalEvents[0].XEnd = 1
				got, _ := s.GetMatch(ctx, "a")
				So(got.GoalEvents[0].Minute, ShouldEqual, 12)
				So(*got.GoalEvents[0].XEnd, ShouldEqual, 70.0)
			})

			Convey("Then creating the same id again fails", func() {
				So(errors.Is(s.CreateMatch(ctx, m), repository.ErrDuplicate), ShouldBeTrue)
			})

			Convey("Then it can be deleted once", func() {
				So(s.DeleteMatch(ctx, "a"), ShouldBeNil)
				So(errors.Is(s.DeleteMatch(ctx, "a"), repository.ErrNotFound), ShouldBeTrue)
				_, err := s.GetMatch(ctx, "a")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When listing an empty store", func() {
			got, err := s.ListMatches(ctx, 5)

			Convey("Then it returns an empty, non-nil slice", func() {
				So(err, ShouldBeNil)
				So(got, ShouldNotBeNil)
				So(got, ShouldBeEmpty)
			})
		})

		Convey("When several matches exist", func() {
			So(s.CreateMatch(ctx, newMatch("old", "2026-01-10", 3*time.Hour)), ShouldBeNil)
			So(s.CreateMatch(ctx, newMatch("new", "2026-03-10", 0)), ShouldBeNil)
			So(s.CreateMatch(ctx, newMatch("same-day-early", "2026-02-10", 0)), ShouldBeNil)
			So(s.CreateMatch(ctx, newMatch("same-day-late", "2026-02-10", time.Hour)), ShouldBeNil)

			Convey("Then they are listed newest first", func() {
				got, err := s.ListMatches(ctx, 0)
				So(err, ShouldBeNil)
				ids := make([]string, len(got))
				for i := range got {
					ids[i] = got[i].ID
				}
				So(ids, ShouldResemble, []string{"new", "same-day-late", "same-day-early", "old"})
			})

			Convey("Then the limit keeps only the most recent", func() {
				got, _ := s.ListMatches(ctx, 2)
				So(len(got), ShouldEqual, 2)
				So(got[0].ID, ShouldEqual, "new")
				So(got[1].ID, ShouldEqual, "same-day-late")
			})
		})
	})

	Convey("Given concurrent writers", t, func() {
		s := repository.NewMemoryStore()
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_ = s.CreateMatch(ctx, newMatch(fmt.Sprintf("m-%d", i), "2026-03-01", time.Duration(i)))
				_, _ = s.ListMatches(ctx, 5)
			}(i)
		}
		wg.Wait()

		Convey("Then every match is stored", func() {
			n, _ := s.CountMatches(ctx)
			So(n, ShouldEqual, 50)
		})
	})
}

func TestMemoryStoreReports(t *testing.T) {
	ctx := context.Background()

	Convey("Given a memory store with a fixed clock", t, func() {
		done := base.Add(time.Minute)
		s := repository.NewMemoryStore(repository.WithClock(func() time.Time { return done }))

		r1 := &model.Report{ID: "r1", NumMatches: 5, Status: model.ReportPending, Summary: []byte(`{"matches_count":5}`), CreatedAt: base}
		r2 := &model.Report{ID: "r2", NumMatches: 3, Status: model.ReportPending, CreatedAt: base.Add(time.Second)}
		So(s.CreateReport(ctx, r1), ShouldBeNil)
		So(s.CreateReport(ctx, r2), ShouldBeNil)

		Convey("When a report is finished", func() {
			So(s.FinishReport(ctx, "r1", model.ReportDone, "text", ""), ShouldBeNil)

			Convey("Then status, content and completion time are stored", func() {
				got, err := s.GetReport(ctx, "r1")
				So(err, ShouldBeNil)
				So(got.Status, ShouldEqual, model.ReportDone)
				So(got.Content, ShouldEqual, "text")
				So(got.CompletedAt, ShouldNotBeNil)
				So(got.CompletedAt.Equal(done), ShouldBeTrue)
				So(string(got.Summary), ShouldEqual, `{"matches_count":5}`)
			})
		})

		Convey("When finishing an unknown report", func() {
			err := s.FinishReport(ctx, "nope", model.ReportFailed, "", "x")

			Convey("Then it is not found", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When listing reports", func() {
			got, err := s.ListReports(ctx, 0)

			Convey("Then the newest comes first", func() {
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 2)
				So(got[0].ID, ShouldEqual, "r2")
				So(got[1].ID, ShouldEqual, "r1")
			})
		})

		Convey("When reading an unknown report", func() {
			_, err := s.GetReport(ctx, "nope")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}
