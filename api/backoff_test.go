package api

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestBackoffDelay(t *testing.T) {
	Convey("Backoff delays double and cap at 5s", t, func() {
		So(backoffDelay(0), ShouldEqual, 1*time.Second)
		So(backoffDelay(1), ShouldEqual, 2*time.Second)
		So(backoffDelay(2), ShouldEqual, 4*time.Second)
		So(backoffDelay(3), ShouldEqual, 5*time.Second)
		So(backoffDelay(4), ShouldEqual, 5*time.Second)
	})
}

func TestCumulativeWait(t *testing.T) {
	Convey("Cumulative wait sums the capped delays", t, func() {
		So(cumulativeWait(0), ShouldEqual, 1*time.Second)
		So(cumulativeWait(1), ShouldEqual, 3*time.Second)
		So(cumulativeWait(2), ShouldEqual, 7*time.Second)
		So(cumulativeWait(3), ShouldEqual, 12*time.Second)

		Convey("And crosses the surfacing threshold by the final retry", func() {
			So(cumulativeWait(maxRetries) >= surfaceThreshold, ShouldBeTrue)
		})
	})
}
