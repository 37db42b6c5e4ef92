// Package live owns the lifecycle of watching one tuned channel: acquiring
// a tuner-backed stream from the server, keeping the reservation alive with
// a heartbeat while the stream plays, and releasing it deterministically on
// close.
package live

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/dvrdeck-cli/dvrdeck/api"
	"github.com/dvrdeck-cli/dvrdeck/log"
	"github.com/dvrdeck-cli/dvrdeck/player"
	"github.com/google/uuid"
)

// State is the session's lifecycle phase.
type State int

const (
	Idle State = iota
	Starting
	Streaming
	Failed
	Closed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Starting:
		return "starting"
	case Streaming:
		return "streaming"
	case Failed:
		return "failed"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

const (
	// settleDelay is how long a freshly ready stream gets to stabilize
	// before the first heartbeat.
	settleDelay = 5 * time.Second
	// heartbeatInterval keeps the server-side tuner reservation alive.
	heartbeatInterval = 25 * time.Second
)

// Snapshot is the published view of a live session.
type Snapshot struct {
	State   State
	Channel api.Channel
	TunerID string
	Message string
}

// OnChange receives a snapshot after every state transition. Callbacks
// stop after Close.
type OnChange func(Snapshot)

// Session drives one channel's live-watch lifecycle. The client identifier
// is generated once at construction; the server keys the tuner reservation
// by it, so no two sessions ever share one.
type Session struct {
	ctx      context.Context
	client   *api.Client
	player   player.Player
	channel  api.Channel
	clientID string

	mu      sync.Mutex
	state   State
	started bool
	closed  bool
	tunerID string
	message string

	onChange OnChange

	stop chan struct{}
	wg   sync.WaitGroup

	heartbeatOn bool

	// Timing knobs, swapped by tests.
	settle    time.Duration
	beatEvery time.Duration
}

// New builds a session for the given channel. The session takes exclusive
// use of the player until Close.
func New(ctx context.Context, client *api.Client, pl player.Player, channel api.Channel) *Session {
	return &Session{
		ctx:       ctx,
		client:    client,
		player:    pl,
		channel:   channel,
		clientID:  uuid.NewString(),
		state:     Idle,
		stop:      make(chan struct{}),
		settle:    settleDelay,
		beatEvery: heartbeatInterval,
	}
}

// ClientID returns the session's tuner reservation key.
func (s *Session) ClientID() string {
	return s.clientID
}

// SetOnChange installs the state observer. Call before Start.
func (s *Session) SetOnChange(fn OnChange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Snapshot returns the current published state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		State:   s.state,
		Channel: s.channel,
		TunerID: s.tunerID,
		Message: s.message,
	}
}

func (s *Session) notifyLocked() {
	if s.closed || s.onChange == nil {
		return
	}
	s.onChange(s.snapshotLocked())
}

// transition moves the session into state unless it is already closed.
func (s *Session) transition(state State, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.state = state
	s.message = message
	s.notifyLocked()
}

// Start acquires the stream and begins playback. One-shot: a second call
// has no effect.
func (s *Session) Start() {
	s.mu.Lock()
	if s.started || s.closed {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.state = Starting
	s.notifyLocked()
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run()
}

// run performs the start-watch handshake and then services player events.
func (s *Session) run() {
	defer s.wg.Done()

	resp, err := s.client.StartWatch(s.ctx, s.channel.GuideNumber, s.clientID)
	if err != nil {
		s.transition(Failed, userMessage(err))
		return
	}

	if resp.Error != nil || !resp.Success {
		msg := "The server could not start the stream."
		switch {
		case resp.Error != nil && *resp.Error != "":
			msg = *resp.Error
		case resp.Message != nil && *resp.Message != "":
			msg = *resp.Message
		}
		s.transition(Failed, msg)
		return
	}

	streamURL, err := s.resolvePlaylist(resp.PlaylistURL)
	if err != nil {
		s.transition(Failed, "Stream address could not be resolved.")
		return
	}

	s.mu.Lock()
	s.tunerID = resp.TunerID
	s.mu.Unlock()

	title := s.channel.GuideName
	if title == "" {
		title = "Channel " + s.channel.GuideNumber
	}
	if err := s.player.Load(streamURL, title); err != nil {
		s.transition(Failed, "Unable to start the stream: "+err.Error())
		return
	}

	for {
		select {
		case <-s.stop:
			return

		case ev, ok := <-s.player.Events():
			if !ok {
				return
			}
			switch ev.Kind {
			case player.Ready:
				if err := s.player.Play(); err != nil {
					s.transition(Failed, "Unable to start the stream: "+err.Error())
					continue
				}
				s.transition(Streaming, "")
				s.startHeartbeat()

			case player.Failed:
				msg := "Stream unavailable"
				if ev.Err != nil {
					msg = "Stream unavailable: " + ev.Err.Error()
				}
				s.transition(Failed, msg)

			case player.Ended:
				s.transition(Failed, "The live stream ended unexpectedly.")
			}
		}
	}
}

// resolvePlaylist turns the server's relative playlist URL into an absolute
// one against the configured base URL.
func (s *Session) resolvePlaylist(playlist string) (string, error) {
	if playlist == "" {
		return "", fmt.Errorf("empty playlist URL")
	}

	base, err := url.Parse(s.client.BaseURL())
	if err != nil || base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("parse base URL: %w", err)
	}

	rel, err := url.Parse(playlist)
	if err != nil {
		return "", fmt.Errorf("parse playlist URL: %w", err)
	}

	return base.ResolveReference(rel).String(), nil
}

// startHeartbeat launches the keep-alive loop once per session, after the
// stream has had time to settle.
func (s *Session) startHeartbeat() {
	s.mu.Lock()
	if s.heartbeatOn || s.closed {
		s.mu.Unlock()
		return
	}
	s.heartbeatOn = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		select {
		case <-s.stop:
			return
		case <-time.After(s.settle):
		}

		ticker := time.NewTicker(s.beatEvery)
		defer ticker.Stop()

		s.beat()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.beat()
			}
		}
	}()
}

// beat sends one heartbeat. Failures never stop the loop: a not-found reply
// means the server already expired the session, anything else is transient.
func (s *Session) beat() {
	_, err := s.client.Heartbeat(s.ctx, s.clientID)
	if err == nil {
		return
	}

	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.IsNotFound() {
		log.Debugf("heartbeat for %s: session already expired server-side", s.clientID)
		return
	}
	log.Warnf("heartbeat for %s failed: %v", s.clientID, err)
}

// Close tears the session down: pause, cancel the heartbeat and event pump,
// best-effort stop-watch. Idempotent and safe without a prior Start.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.state = Closed
	started := s.started
	s.mu.Unlock()

	close(s.stop)
	s.wg.Wait()

	if !started {
		return
	}

	if err := s.player.Pause(); err != nil {
		log.Debugf("pause on close: %v", err)
	}

	// The server releasing a reservation it no longer recognizes is fine.
	if _, err := s.client.StopWatch(s.ctx, s.clientID); err != nil {
		log.Debugf("stop watch for %s: %v", s.clientID, err)
	}
}

// userMessage maps an engine error onto the small user-facing set.
func userMessage(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	return "The server could not start the stream."
}
