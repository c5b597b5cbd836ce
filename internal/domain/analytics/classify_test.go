package analytics_test

import (
	"testing"

	"github.com/okian/pitchlog/internal/domain/analytics"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMinuteBand(t *testing.T) {
	Convey("Given the minute band classifier", t, func() {
		cases := []struct {
			minute int
			want   string
		}{
			{-5, "0-30"},
			{0, "0-30"},
			{30, "0-30"},
			{31, "31-60"},
			{60, "31-60"},
			{61, "61-90"},
			{90, "61-90"},
			{91, "91-120"},
			{120, "91-120"},
			{150, "91-120"},
		}

		for _, c := range cases {
			So(analytics.MinuteBand(c.minute), ShouldEqual, c.want)
		}
	})
}

func TestZone(t *testing.T) {
	Convey("Given the zone classifier", t, func() {
		Convey("When classifying corners and the center", func() {
			So(analytics.Zone(0, 0), ShouldEqual, "defensive-left")
			So(analytics.Zone(50, 50), ShouldEqual, "middle-center")
			So(analytics.Zone(99, 99), ShouldEqual, "offensive-right")
			So(analytics.Zone(20, 80), ShouldEqual, "offensive-left")
			So(analytics.Zone(90, 10), ShouldEqual, "defensive-right")
		})

		Convey("When a coordinate sits exactly on a threshold", func() {
			Convey("Then it falls into the higher band", func() {
				So(analytics.Zone(33.33, 33.33), ShouldEqual, "middle-center")
				So(analytics.Zone(66.66, 66.66), ShouldEqual, "offensive-right")
			})
		})

		Convey("When a coordinate is just below the literal threshold", func() {
			Convey("Then exact thirds are not used", func() {
				// 33.332 is above 33.33 but below 100/3.
				So(analytics.Zone(33.332, 0), ShouldEqual, "defensive-center")
				So(analytics.Zone(66.665, 0), ShouldEqual, "defensive-right")
			})
		})

		Convey("When coordinates are out of range", func() {
			So(analytics.Zone(-10, -1), ShouldEqual, "defensive-left")
			So(analytics.Zone(140, 101), ShouldEqual, "offensive-right")
		})
	})
}
