package report_test

import (
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/okian/pitchlog/internal/domain/analytics"
	"github.com/okian/pitchlog/internal/domain/model"
	"github.com/okian/pitchlog/internal/domain/report"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBuildPrompt(t *testing.T) {
	Convey("Given a summary over two matches", t, func() {
		s := analytics.Build([]model.Match{
			{GoalsFor: 2, GoalsAgainst: 1, GoalEvents: []model.GoalEvent{
				{Side: model.SideFor, Minute: 10, PlayType: "Transición", X: 20, Y: 80},
			}},
			{GoalsFor: 1, GoalsAgainst: 3, GoalEvents: []model.GoalEvent{
				{Side: model.SideAgainst, Minute: 95, PlayType: "ABP", X: 90, Y: 10},
			}},
		})

		system, user, err := report.BuildPrompt(s)

		Convey("Then the system prompt demands the four sections in order", func() {
			So(err, ShouldBeNil)
			neg := strings.Index(system, report.SectionNegative)
			pos := strings.Index(system, report.SectionPositive)
			train := strings.Index(system, report.SectionTraining)
			sum := strings.Index(system, "\n"+report.SectionSummary+"\n")
			So(neg, ShouldBeGreaterThan, -1)
			So(pos, ShouldBeGreaterThan, neg)
			So(train, ShouldBeGreaterThan, pos)
			So(sum, ShouldBeGreaterThan, train)
			So(system, ShouldContainSubstring, "Use ONLY the JSON data")
		})

		Convey("Then the user prompt embeds the summary as indented JSON", func() {
			So(user, ShouldStartWith, "Available data:\n{\n  ")
			So(user, ShouldContainSubstring, `"Transición"`)

			var back analytics.Summary
			So(sonic.UnmarshalString(strings.TrimPrefix(user, "Available data:\n"), &back), ShouldBeNil)
			So(back, ShouldResemble, s)
		})

		Convey("Then building twice yields identical prompts", func() {
			_, again, err := report.BuildPrompt(s)
			So(err, ShouldBeNil)
			So(again, ShouldEqual, user)
		})
	})

	Convey("Given an empty summary", t, func() {
		_, user, err := report.BuildPrompt(analytics.Build(nil))

		Convey("Then empty tables are rendered as objects", func() {
			So(err, ShouldBeNil)
			So(user, ShouldContainSubstring, `"percent_for_by_zone": {}`)
			So(user, ShouldNotContainSubstring, "null")
		})
	})
}
