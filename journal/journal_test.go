package journal

import (
	"testing"

	"github.com/dvrdeck-cli/dvrdeck/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestJournal(t *testing.T) {
	Convey("Given a watched episode", t, func() {
		entry := Entry{
			ShowID:       7,
			ShowTitle:    "Evening News",
			EpisodeID:    42,
			EpisodeTitle: "March 14",
			Index:        3,
			Count:        12,
		}

		Convey("When saving it", func() {
			err := Save(entry)
			So(err, ShouldBeNil)

			Convey("Then it is the show's last entry", func() {
				got, ok, err := Last(7)
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(got.EpisodeID, ShouldEqual, 42)
				So(got.WatchedAt.IsZero(), ShouldBeFalse)
			})

			Convey("And other shows stay empty", func() {
				_, ok, err := Last(8)
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})

			Convey("A later save for the same show replaces it", func() {
				entry.EpisodeID = 43
				entry.Index = 4
				So(Save(entry), ShouldBeNil)

				got, ok, err := Last(7)
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(got.EpisodeID, ShouldEqual, 43)
			})

			Convey("When removing it", func() {
				So(Remove(7), ShouldBeNil)

				_, ok, err := Last(7)
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})
		})
	})

	Convey("Entries render a readable summary", t, func() {
		withTitle := &Entry{ShowTitle: "Evening News", EpisodeTitle: "March 14"}
		So(withTitle.String(), ShouldEqual, "Evening News : March 14")

		bare := &Entry{ShowTitle: "Evening News", Index: 3, Count: 12}
		So(bare.String(), ShouldEqual, "Evening News : 4 / 12")
	})
}
