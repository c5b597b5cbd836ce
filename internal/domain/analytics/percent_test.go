package analytics_test

import (
	"testing"

	"github.com/okian/pitchlog/internal/domain/analytics"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPercentages(t *testing.T) {
	Convey("Given the percentage converter", t, func() {
		Convey("When the total is zero", func() {
			got := analytics.Percentages(map[string]int{"ABP": 0}, 0)

			Convey("Then it returns an empty, non-nil map", func() {
				So(got, ShouldNotBeNil)
				So(got, ShouldBeEmpty)
			})
		})

		Convey("When counts split into thirds", func() {
			got := analytics.Percentages(map[string]int{"a": 1, "b": 1, "c": 1}, 3)

			Convey("Then each share is rounded to one decimal", func() {
				So(got["a"], ShouldEqual, 33.3)
				So(got["b"], ShouldEqual, 33.3)
				So(got["c"], ShouldEqual, 33.3)
			})

			Convey("And the shares sum to 100 within rounding tolerance", func() {
				sum := 0.0
				for _, v := range got {
					sum += v
				}
				So(sum, ShouldAlmostEqual, 100.0, 0.1*float64(len(got)))
			})
		})

		Convey("When a share is already exact at one decimal", func() {
			got := analytics.Percentages(map[string]int{"a": 1, "b": 7}, 8)

			Convey("Then it is kept as is", func() {
				So(got["a"], ShouldEqual, 12.5)
				So(got["b"], ShouldEqual, 87.5)
			})
		})

		Convey("When a share lands exactly between two decimals", func() {
			sixteenths := analytics.Percentages(map[string]int{"a": 1, "b": 15}, 16)
			eightieths := analytics.Percentages(map[string]int{"a": 1, "b": 79}, 80)
			fortieths := analytics.Percentages(map[string]int{"a": 3, "b": 37}, 40)

			Convey("Then the tie goes to the even digit", func() {
				So(sixteenths["a"], ShouldEqual, 6.2)
				So(sixteenths["b"], ShouldEqual, 93.8)
				So(eightieths["a"], ShouldEqual, 1.2)
				So(eightieths["b"], ShouldEqual, 98.8)
				So(fortieths["a"], ShouldEqual, 7.5)
				So(fortieths["b"], ShouldEqual, 92.5)
			})
		})

		Convey("When every count and the total are doubled", func() {
			counts := map[string]int{"Individual": 3, "ABP": 5, "Transición": 4}
			doubled := map[string]int{}
			for k, v := range counts {
				doubled[k] = v * 2
			}

			Convey("Then the percentages are identical", func() {
				So(analytics.Percentages(doubled, 24), ShouldResemble, analytics.Percentages(counts, 12))
			})
		})
	})
}
