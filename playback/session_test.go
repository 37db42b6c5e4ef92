package playback

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dvrdeck-cli/dvrdeck/api"
	"github.com/dvrdeck-cli/dvrdeck/player"
	. "github.com/smartystreets/goconvey/convey"
)

// fakePlayer is a scriptable collaborator: tests feed lifecycle events into
// its channel and read back the calls the session made.
type fakePlayer struct {
	mu       sync.Mutex
	events   chan player.Event
	position float64
	duration float64
	loads    []string
	seeks    []float64
	plays    int
	pauses   int
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{events: make(chan player.Event, 4)}
}

func (f *fakePlayer) Load(url, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads = append(f.loads, url)
	return nil
}

func (f *fakePlayer) Play() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plays++
	return nil
}

func (f *fakePlayer) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pauses++
	return nil
}

func (f *fakePlayer) Seek(seconds float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seeks = append(f.seeks, seconds)
	return nil
}

func (f *fakePlayer) Position() (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.position, nil
}

func (f *fakePlayer) Duration() (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.duration, nil
}

func (f *fakePlayer) Events() <-chan player.Event { return f.events }
func (f *fakePlayer) Close() error                { return nil }

func (f *fakePlayer) setPosition(pos float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.position = pos
}

func (f *fakePlayer) snapshot() (loads []string, seeks []float64, plays, pauses int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.loads...), append([]float64(nil), f.seeks...), f.plays, f.pauses
}

// progressWrite is one recorded PUT to the progress endpoint.
type progressWrite struct {
	Path     string
	Position int `json:"position"`
	Watched  int `json:"watched"`
}

// progressRecorder is an httptest server capturing progress writes.
type progressRecorder struct {
	mu     sync.Mutex
	writes []progressWrite
	srv    *httptest.Server
}

func newProgressRecorder() *progressRecorder {
	rec := &progressRecorder{}
	rec.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var write progressWrite
		_ = json.NewDecoder(r.Body).Decode(&write)
		write.Path = r.URL.Path

		rec.mu.Lock()
		rec.writes = append(rec.writes, write)
		rec.mu.Unlock()

		w.WriteHeader(http.StatusOK)
	}))
	return rec
}

func (rec *progressRecorder) all() []progressWrite {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return append([]progressWrite(nil), rec.writes...)
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func resumeAt(seconds int) *int { return &seconds }

func testEpisodes() []api.Episode {
	return []api.Episode{
		{ID: 11, SeriesTitle: "News", EpisodeTitle: "Latest", PlayURL: "http://dvr/play/11", Duration: 3600},
		{ID: 10, SeriesTitle: "News", EpisodeTitle: "Older", PlayURL: "http://dvr/play/10", Duration: 1200},
	}
}

func TestStartAndResume(t *testing.T) {
	Convey("Given a session over an episode with a saved position", t, func() {
		rec := newProgressRecorder()
		defer rec.srv.Close()
		fake := newFakePlayer()

		episodes := testEpisodes()
		episodes[0].ResumePosition = resumeAt(120)

		s := New(context.Background(), api.New(rec.srv.URL), fake, episodes, 0)
		defer s.Close()

		Convey("Start loads the episode and enters loading", func() {
			s.Start()
			So(waitFor(func() bool { loads, _, _, _ := fake.snapshot(); return len(loads) == 1 }), ShouldBeTrue)
			So(s.Snapshot().State, ShouldEqual, Loading)

			Convey("A second Start is a no-op", func() {
				s.Start()
				loads, _, _, _ := fake.snapshot()
				So(loads, ShouldHaveLength, 1)
			})

			Convey("On ready it seeks to the resume position before playing", func() {
				fake.events <- player.Event{Kind: player.Ready}
				So(waitFor(func() bool { return s.Snapshot().State == Ready }), ShouldBeTrue)

				_, seeks, plays, _ := fake.snapshot()
				So(seeks, ShouldResemble, []float64{120})
				So(plays, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a session over an episode with no saved position", t, func() {
		rec := newProgressRecorder()
		defer rec.srv.Close()
		fake := newFakePlayer()

		s := New(context.Background(), api.New(rec.srv.URL), fake, testEpisodes(), 0)
		defer s.Close()

		s.Start()
		fake.events <- player.Event{Kind: player.Ready}
		So(waitFor(func() bool { return s.Snapshot().State == Ready }), ShouldBeTrue)

		Convey("No seek occurs", func() {
			_, seeks, plays, _ := fake.snapshot()
			So(seeks, ShouldBeEmpty)
			So(plays, ShouldEqual, 1)
		})
	})
}

func TestLoadFailure(t *testing.T) {
	Convey("A player failure event moves the session to failed with a message", t, func() {
		rec := newProgressRecorder()
		defer rec.srv.Close()
		fake := newFakePlayer()

		s := New(context.Background(), api.New(rec.srv.URL), fake, testEpisodes(), 0)
		defer s.Close()

		s.Start()
		fake.events <- player.Event{Kind: player.Failed, Err: errors.New("no decoder")}
		So(waitFor(func() bool { return s.Snapshot().State == Failed }), ShouldBeTrue)
		So(s.Snapshot().Message, ShouldContainSubstring, "no decoder")
	})
}

func TestProgressThrottle(t *testing.T) {
	Convey("Given a ready session with watermark 100", t, func() {
		rec := newProgressRecorder()
		defer rec.srv.Close()
		fake := newFakePlayer()

		episodes := testEpisodes()
		episode := episodes[0]

		s := New(context.Background(), api.New(rec.srv.URL), fake, episodes, 0)
		att := &attachment{stop: make(chan struct{}), done: make(chan struct{})}
		s.att = att
		s.started = true
		s.watermark = 100
		s.duration = 3600

		Convey("A position under 5s past the watermark is not written", func() {
			fake.setPosition(104)
			s.persist(att, episode)
			So(rec.all(), ShouldBeEmpty)
			So(s.watermark, ShouldEqual, 100)
		})

		Convey("A position 5s or more past the watermark is written and advances it", func() {
			fake.setPosition(106)
			s.persist(att, episode)

			writes := rec.all()
			So(writes, ShouldHaveLength, 1)
			So(writes[0].Path, ShouldEqual, "/api/episodes/11/progress")
			So(writes[0].Position, ShouldEqual, 106)
			So(writes[0].Watched, ShouldEqual, 0)
			So(s.watermark, ShouldEqual, 106)
		})

		Convey("A position inside the last 30s is skipped even with enough advance", func() {
			s.duration = 1200
			fake.setPosition(1175)
			s.persist(att, episode)
			So(rec.all(), ShouldBeEmpty)
			So(s.watermark, ShouldEqual, 100)
		})
	})
}

func TestEndOfPlayback(t *testing.T) {
	Convey("Given a ready session on the first of two episodes", t, func() {
		rec := newProgressRecorder()
		defer rec.srv.Close()
		fake := newFakePlayer()

		s := New(context.Background(), api.New(rec.srv.URL), fake, testEpisodes(), 0)
		defer s.Close()

		s.Start()
		fake.events <- player.Event{Kind: player.Ready}
		So(waitFor(func() bool { return s.Snapshot().State == Ready }), ShouldBeTrue)

		Convey("End of media marks it watched at full duration and advances", func() {
			fake.events <- player.Event{Kind: player.Ended}

			So(waitFor(func() bool { loads, _, _, _ := fake.snapshot(); return len(loads) == 2 }), ShouldBeTrue)

			writes := rec.all()
			So(writes, ShouldHaveLength, 1)
			So(writes[0].Path, ShouldEqual, "/api/episodes/11/progress")
			So(writes[0].Position, ShouldEqual, 3600)
			So(writes[0].Watched, ShouldEqual, 1)

			snap := s.Snapshot()
			So(snap.Index, ShouldEqual, 1)
			So(snap.Episode.ID, ShouldEqual, 10)
		})
	})

	Convey("Given a ready session on the last episode", t, func() {
		rec := newProgressRecorder()
		defer rec.srv.Close()
		fake := newFakePlayer()

		s := New(context.Background(), api.New(rec.srv.URL), fake, testEpisodes(), 1)
		defer s.Close()

		s.Start()
		fake.events <- player.Event{Kind: player.Ready}
		So(waitFor(func() bool { return s.Snapshot().State == Ready }), ShouldBeTrue)

		Convey("End of media writes watched once and stays put", func() {
			fake.events <- player.Event{Kind: player.Ended}

			So(waitFor(func() bool { return len(rec.all()) == 1 }), ShouldBeTrue)
			// Give a would-be advance time to (wrongly) happen.
			time.Sleep(50 * time.Millisecond)

			writes := rec.all()
			So(writes, ShouldHaveLength, 1)
			So(writes[0].Watched, ShouldEqual, 1)

			loads, _, _, _ := fake.snapshot()
			So(loads, ShouldHaveLength, 1)
			So(s.Snapshot().Index, ShouldEqual, 1)
		})
	})
}

func TestNavigation(t *testing.T) {
	Convey("Given a ready session on the first of two episodes", t, func() {
		rec := newProgressRecorder()
		defer rec.srv.Close()
		fake := newFakePlayer()

		s := New(context.Background(), api.New(rec.srv.URL), fake, testEpisodes(), 0)
		defer s.Close()

		s.Start()
		fake.events <- player.Event{Kind: player.Ready}
		So(waitFor(func() bool { return s.Snapshot().State == Ready }), ShouldBeTrue)

		Convey("PlayPrevious at the head of the list is a no-op", func() {
			s.PlayPrevious()
			loads, _, _, _ := fake.snapshot()
			So(loads, ShouldHaveLength, 1)
			So(s.Snapshot().Index, ShouldEqual, 0)
		})

		Convey("PlayNext detaches and loads the next episode", func() {
			s.PlayNext()
			So(waitFor(func() bool { loads, _, _, _ := fake.snapshot(); return len(loads) == 2 }), ShouldBeTrue)

			snap := s.Snapshot()
			So(snap.Index, ShouldEqual, 1)
			So(snap.State, ShouldEqual, Loading)

			loads, _, _, _ := fake.snapshot()
			So(loads[1], ShouldEqual, "http://dvr/play/10")

			Convey("And PlayNext at the tail is then a no-op", func() {
				s.PlayNext()
				loads, _, _, _ := fake.snapshot()
				So(loads, ShouldHaveLength, 2)
				So(s.Snapshot().Index, ShouldEqual, 1)
			})
		})
	})
}

func TestClose(t *testing.T) {
	Convey("Given a ready session part-way through an episode", t, func() {
		rec := newProgressRecorder()
		defer rec.srv.Close()
		fake := newFakePlayer()

		s := New(context.Background(), api.New(rec.srv.URL), fake, testEpisodes(), 0)

		s.Start()
		fake.events <- player.Event{Kind: player.Ready}
		So(waitFor(func() bool { return s.Snapshot().State == Ready }), ShouldBeTrue)
		fake.setPosition(200)

		Convey("Close pauses and fires one final progress save", func() {
			s.Close()

			_, _, _, pauses := fake.snapshot()
			So(pauses, ShouldEqual, 1)

			writes := rec.all()
			So(writes, ShouldHaveLength, 1)
			So(writes[0].Position, ShouldEqual, 200)
			So(writes[0].Watched, ShouldEqual, 0)

			Convey("A second Close does nothing more", func() {
				s.Close()

				_, _, _, pauses := fake.snapshot()
				So(pauses, ShouldEqual, 1)
				So(rec.all(), ShouldHaveLength, 1)
			})
		})
	})

	Convey("Close without a prior Start is safe", t, func() {
		rec := newProgressRecorder()
		defer rec.srv.Close()
		fake := newFakePlayer()

		s := New(context.Background(), api.New(rec.srv.URL), fake, testEpisodes(), 0)
		s.Close()
		s.Close()

		_, _, _, pauses := fake.snapshot()
		So(pauses, ShouldEqual, 0)
		So(rec.all(), ShouldBeEmpty)
	})
}
