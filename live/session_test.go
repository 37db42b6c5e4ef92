package live

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dvrdeck-cli/dvrdeck/api"
	"github.com/dvrdeck-cli/dvrdeck/player"
	. "github.com/smartystreets/goconvey/convey"
)

// fakePlayer mirrors the playback package's scriptable collaborator.
type fakePlayer struct {
	mu     sync.Mutex
	events chan player.Event
	loads  []string
	plays  int
	pauses int
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

func (f *fakePlayer) Seek(float64) error          { return nil }
func (f *fakePlayer) Position() (float64, error)  { return 0, nil }
func (f *fakePlayer) Duration() (float64, error)  { return 0, nil }
func (f *fakePlayer) Events() <-chan player.Event { return f.events }
func (f *fakePlayer) Close() error                { return nil }

func (f *fakePlayer) snapshot() (loads []string, plays, pauses int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.loads...), f.plays, f.pauses
}

// tunerServer scripts the live endpoints and counts what arrives.
type tunerServer struct {
	mu              sync.Mutex
	watchStatus     int
	watchBody       string
	heartbeatStatus int
	watches         []map[string]string
	heartbeats      int
	stops           []map[string]string
	srv             *httptest.Server
}

func newTunerServer() *tunerServer {
	ts := &tunerServer{
		watchStatus:     http.StatusOK,
		watchBody:       `{"success":true,"tunerId":"tuner0","playlistUrl":"/stream/5.1/playlist.m3u8","channelNumber":"5.1"}`,
		heartbeatStatus: http.StatusOK,
	}
	ts.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.mu.Lock()
		defer ts.mu.Unlock()

		switch r.URL.Path {
		case "/api/live/watch":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			ts.watches = append(ts.watches, body)
			w.WriteHeader(ts.watchStatus)
			fmt.Fprint(w, ts.watchBody)
		case "/api/live/heartbeat":
			ts.heartbeats++
			w.WriteHeader(ts.heartbeatStatus)
			fmt.Fprint(w, `{"success":true,"message":"ok"}`)
		case "/api/live/stop":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			ts.stops = append(ts.stops, body)
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, `{"success":true,"message":"stopped"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	return ts
}

func (ts *tunerServer) heartbeatCount() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.heartbeats
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

var channel = api.Channel{GuideNumber: "5.1", GuideName: "WNBC"}

func newTestSession(ts *tunerServer, fake *fakePlayer) *Session {
	s := New(context.Background(), api.New(ts.srv.URL), fake, channel)
	s.settle = 10 * time.Millisecond
	s.beatEvery = 20 * time.Millisecond
	return s
}

func TestStartStreaming(t *testing.T) {
	Convey("Given a server that grants the tuner", t, func() {
		ts := newTunerServer()
		defer ts.srv.Close()
		fake := newFakePlayer()
		s := newTestSession(ts, fake)
		defer s.Close()

		Convey("Start sends the channel and client identifier", func() {
			s.Start()
			So(waitFor(func() bool { loads, _, _ := fake.snapshot(); return len(loads) == 1 }), ShouldBeTrue)

			ts.mu.Lock()
			watch := ts.watches[0]
			ts.mu.Unlock()
			So(watch["channelNumber"], ShouldEqual, "5.1")
			So(watch["clientId"], ShouldEqual, s.ClientID())

			Convey("The playlist URL is resolved against the base URL", func() {
				loads, _, _ := fake.snapshot()
				So(loads[0], ShouldEqual, ts.srv.URL+"/stream/5.1/playlist.m3u8")
			})

			Convey("A second Start has no effect", func() {
				s.Start()
				time.Sleep(20 * time.Millisecond)
				ts.mu.Lock()
				watches := len(ts.watches)
				ts.mu.Unlock()
				So(watches, ShouldEqual, 1)
			})

			Convey("Player ready moves the session to streaming and plays", func() {
				fake.events <- player.Event{Kind: player.Ready}
				So(waitFor(func() bool { return s.Snapshot().State == Streaming }), ShouldBeTrue)

				_, plays, _ := fake.snapshot()
				So(plays, ShouldEqual, 1)
				So(s.Snapshot().TunerID, ShouldEqual, "tuner0")
			})
		})
	})
}

func TestStartFailures(t *testing.T) {
	Convey("Given a server that declines with an explicit error", t, func() {
		ts := newTunerServer()
		defer ts.srv.Close()
		ts.watchBody = `{"success":false,"tunerId":"","playlistUrl":"","channelNumber":"5.1","error":"all tuners busy"}`

		fake := newFakePlayer()
		s := newTestSession(ts, fake)
		defer s.Close()

		Convey("The session fails with the server's message and never loads", func() {
			s.Start()
			So(waitFor(func() bool { return s.Snapshot().State == Failed }), ShouldBeTrue)
			So(s.Snapshot().Message, ShouldEqual, "all tuners busy")

			loads, _, _ := fake.snapshot()
			So(loads, ShouldBeEmpty)
		})
	})

	Convey("Given a server that declines without a message", t, func() {
		ts := newTunerServer()
		defer ts.srv.Close()
		ts.watchBody = `{"success":false,"tunerId":"","playlistUrl":"","channelNumber":"5.1"}`

		fake := newFakePlayer()
		s := newTestSession(ts, fake)
		defer s.Close()

		Convey("A generic message is used", func() {
			s.Start()
			So(waitFor(func() bool { return s.Snapshot().State == Failed }), ShouldBeTrue)
			So(s.Snapshot().Message, ShouldEqual, "The server could not start the stream.")
		})
	})

	Convey("Given a grant with an empty playlist URL", t, func() {
		ts := newTunerServer()
		defer ts.srv.Close()
		ts.watchBody = `{"success":true,"tunerId":"tuner0","playlistUrl":"","channelNumber":"5.1"}`

		fake := newFakePlayer()
		s := newTestSession(ts, fake)
		defer s.Close()

		Convey("Resolution fails and the session fails", func() {
			s.Start()
			So(waitFor(func() bool { return s.Snapshot().State == Failed }), ShouldBeTrue)
			So(s.Snapshot().Message, ShouldEqual, "Stream address could not be resolved.")
		})
	})
}

func TestHeartbeat(t *testing.T) {
	Convey("Given a streaming session", t, func() {
		ts := newTunerServer()
		defer ts.srv.Close()
		fake := newFakePlayer()
		s := newTestSession(ts, fake)
		defer s.Close()

		s.Start()
		So(waitFor(func() bool { loads, _, _ := fake.snapshot(); return len(loads) == 1 }), ShouldBeTrue)
		fake.events <- player.Event{Kind: player.Ready}
		So(waitFor(func() bool { return s.Snapshot().State == Streaming }), ShouldBeTrue)

		Convey("Heartbeats begin after the settle delay and keep ticking", func() {
			So(waitFor(func() bool { return ts.heartbeatCount() >= 3 }), ShouldBeTrue)
		})

		Convey("A 404 reply does not stop subsequent ticks", func() {
			So(waitFor(func() bool { return ts.heartbeatCount() >= 1 }), ShouldBeTrue)

			ts.mu.Lock()
			ts.heartbeatStatus = http.StatusNotFound
			ts.mu.Unlock()

			before := ts.heartbeatCount()
			So(waitFor(func() bool { return ts.heartbeatCount() >= before+2 }), ShouldBeTrue)
			So(s.Snapshot().State, ShouldEqual, Streaming)
		})

		Convey("A duplicate ready event does not start a second heartbeat loop", func() {
			fake.events <- player.Event{Kind: player.Ready}
			time.Sleep(50 * time.Millisecond)

			// With one 20ms loop, 100ms of ticks stays well under a
			// doubled rate.
			start := ts.heartbeatCount()
			time.Sleep(100 * time.Millisecond)
			So(ts.heartbeatCount()-start, ShouldBeLessThan, 10)
		})
	})
}

func TestClose(t *testing.T) {
	Convey("Given a streaming session", t, func() {
		ts := newTunerServer()
		defer ts.srv.Close()
		fake := newFakePlayer()
		s := newTestSession(ts, fake)

		s.Start()
		So(waitFor(func() bool { loads, _, _ := fake.snapshot(); return len(loads) == 1 }), ShouldBeTrue)
		fake.events <- player.Event{Kind: player.Ready}
		So(waitFor(func() bool { return s.Snapshot().State == Streaming }), ShouldBeTrue)

		Convey("Close pauses, stops the heartbeat, and releases the tuner once", func() {
			s.Close()

			_, _, pauses := fake.snapshot()
			So(pauses, ShouldEqual, 1)

			ts.mu.Lock()
			stops := append([]map[string]string(nil), ts.stops...)
			ts.mu.Unlock()
			So(stops, ShouldHaveLength, 1)
			So(stops[0]["clientId"], ShouldEqual, s.ClientID())

			beats := ts.heartbeatCount()
			time.Sleep(60 * time.Millisecond)
			So(ts.heartbeatCount(), ShouldEqual, beats)

			Convey("A second Close is a no-op", func() {
				s.Close()

				_, _, pauses := fake.snapshot()
				So(pauses, ShouldEqual, 1)

				ts.mu.Lock()
				stops := len(ts.stops)
				ts.mu.Unlock()
				So(stops, ShouldEqual, 1)
			})
		})
	})

	Convey("Close without a prior Start is safe and sends nothing", t, func() {
		ts := newTunerServer()
		defer ts.srv.Close()
		fake := newFakePlayer()
		s := newTestSession(ts, fake)

		s.Close()
		s.Close()

		_, _, pauses := fake.snapshot()
		So(pauses, ShouldEqual, 0)

		ts.mu.Lock()
		stops := len(ts.stops)
		ts.mu.Unlock()
		So(stops, ShouldEqual, 0)
	})
}
