package model_test

import (
	"testing"
	"time"

	model "github.com/okian/pitchlog/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestSide(t *testing.T) {
	convey.Convey("Given goal sides", t, func() {
		convey.So(model.SideFor.Valid(), convey.ShouldBeTrue)
		convey.So(model.SideAgainst.Valid(), convey.ShouldBeTrue)
		convey.So(model.Side("draw").Valid(), convey.ShouldBeFalse)
		convey.So(model.Side("").Valid(), convey.ShouldBeFalse)
	})
}

func TestSortEvents(t *testing.T) {
	convey.Convey("Given unordered goal events", t, func() {
		events := []model.GoalEvent{
			{Minute: 70, PlayType: "a"},
			{Minute: 5, PlayType: "b"},
			{Minute: 70, PlayType: "c"},
			{Minute: 33, PlayType: "d"},
		}

		convey.Convey("When sorting", func() {
			model.SortEvents(events)

			convey.Convey("Then they are ordered by minute and stable on ties", func() {
				got := []string{events[0].PlayType, events[1].PlayType, events[2].PlayType, events[3].PlayType}
				convey.So(got, convey.ShouldResemble, []string{"b", "d", "a", "c"})
			})
		})
	})
}

func TestMatch(t *testing.T) {
	convey.Convey("Given a match with events of every side", t, func() {
		m := model.Match{
			GoalsFor:     3,
			GoalsAgainst: 1,
			GoalEvents: []model.GoalEvent{
				{Side: model.SideFor},
				{Side: model.SideFor},
				{Side: model.SideAgainst},
				{Side: "unknown"},
			},
		}

		convey.Convey("Then EventCounts ignores unknown sides", func() {
			f, a := m.EventCounts()
			convey.So(f, convey.ShouldEqual, 2)
			convey.So(a, convey.ShouldEqual, 1)
		})
	})

	convey.Convey("Given matches on several dates", t, func() {
		t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
		ms := []model.Match{
			{ID: "a", Date: "2025-02-01", CreatedAt: t0},
			{ID: "b", Date: "2025-03-01", CreatedAt: t0},
			{ID: "c", Date: "2025-03-01", CreatedAt: t0.Add(time.Hour)},
			{ID: "d", Date: "2024-12-20", CreatedAt: t0},
		}

		convey.Convey("When sorting newest first", func() {
			model.SortNewestFirst(ms)

			convey.Convey("Then date wins, then creation time", func() {
				ids := []string{ms[0].ID, ms[1].ID, ms[2].ID, ms[3].ID}
				convey.So(ids, convey.ShouldResemble, []string{"c", "b", "a", "d"})
			})
		})
	})
}
