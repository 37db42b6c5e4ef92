package api

import (
	"encoding/json"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestHealthResponse(t *testing.T) {
	Convey("IsHealthy compares the status case-insensitively", t, func() {
		So(HealthResponse{Status: "ok"}.IsHealthy(), ShouldBeTrue)
		So(HealthResponse{Status: "OK"}.IsHealthy(), ShouldBeTrue)
		So(HealthResponse{Status: "degraded"}.IsHealthy(), ShouldBeFalse)
		So(HealthResponse{}.IsHealthy(), ShouldBeFalse)
	})
}

func TestEpisodeDerived(t *testing.T) {
	Convey("Given an episode with a resume position", t, func() {
		pos := 300
		episode := Episode{Duration: 1200, ResumePosition: &pos, DurationMinutes: 95}

		Convey("ProgressFraction divides resume by duration", func() {
			So(episode.ProgressFraction(), ShouldAlmostEqual, 0.25)
		})

		Convey("Resume returns the saved seconds", func() {
			So(episode.Resume(), ShouldEqual, 300)
		})

		Convey("FormattedDuration renders hours and minutes", func() {
			So(episode.FormattedDuration(), ShouldEqual, "1h 35m")
		})
	})

	Convey("Given an episode without a resume position", t, func() {
		episode := Episode{Duration: 1200, Watched: 1, DurationMinutes: 45}

		So(episode.Resume(), ShouldEqual, 0)
		So(episode.ProgressFraction(), ShouldEqual, 0)
		So(episode.IsWatched(), ShouldBeTrue)
		So(episode.FormattedDuration(), ShouldEqual, "45m")
	})
}

func TestFormatAirDate(t *testing.T) {
	Convey("Given a fixed reference day", t, func() {
		now := time.Date(2024, time.March, 15, 18, 30, 0, 0, time.UTC)

		Convey("The same day renders as Today", func() {
			So(formatAirDate("2024-03-15T08:00:00Z", now), ShouldEqual, "Today")
		})

		Convey("The previous day renders as Yesterday", func() {
			So(formatAirDate("2024-03-14T23:00:00Z", now), ShouldEqual, "Yesterday")
		})

		Convey("Days two through six back render as the weekday", func() {
			So(formatAirDate("2024-03-12T08:00:00Z", now), ShouldEqual, "Tuesday")
		})

		Convey("Older dates render as a medium date", func() {
			So(formatAirDate("2024-01-02T08:00:00Z", now), ShouldEqual, "Jan 2, 2024")
		})

		Convey("Date-only values are accepted", func() {
			So(formatAirDate("2024-01-02", now), ShouldEqual, "Jan 2, 2024")
		})

		Convey("Unparseable values pass through verbatim", func() {
			So(formatAirDate("n/a", now), ShouldEqual, "n/a")
		})
	})
}

func TestWireNames(t *testing.T) {
	Convey("Catalog models use the server's snake_case field names", t, func() {
		raw := `{
			"guide_number": "5.1",
			"guide_name": "WNBC",
			"affiliate": "NBC",
			"image_url": null
		}`

		var channel Channel
		So(json.Unmarshal([]byte(raw), &channel), ShouldBeNil)
		So(channel.GuideNumber, ShouldEqual, "5.1")
		So(channel.GuideName, ShouldEqual, "WNBC")
		So(*channel.Affiliate, ShouldEqual, "NBC")
	})

	Convey("Guide models use the tuner's PascalCase field names", t, func() {
		raw := `{
			"GuideNumber": "5.1",
			"GuideName": "WNBC",
			"Guide": [{"SeriesID": "S1", "Title": "News", "StartTime": 1700000000, "EndTime": 1700001800}]
		}`

		var channel GuideChannel
		So(json.Unmarshal([]byte(raw), &channel), ShouldBeNil)
		So(channel.Guide, ShouldHaveLength, 1)
		So(channel.Guide[0].SeriesID, ShouldEqual, "S1")
		So(channel.Guide[0].DurationMinutes(), ShouldEqual, 30)
	})

	Convey("Recording rules key off RecordingRuleID", t, func() {
		raw := `{"RecordingRuleID": "r-77", "SeriesID": "S1"}`

		var rule RecordingRule
		So(json.Unmarshal([]byte(raw), &rule), ShouldBeNil)
		So(rule.ID, ShouldEqual, "r-77")
		So(rule.SeriesID, ShouldEqual, "S1")
	})
}
