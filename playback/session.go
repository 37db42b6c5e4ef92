// Package playback owns the lifecycle of watching one episode within an
// ordered episode list: loading it into the player, resuming from the saved
// position, throttled progress persistence, the watched transition at
// end-of-playback, and next/previous navigation.
package playback

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/dvrdeck-cli/dvrdeck/api"
	"github.com/dvrdeck-cli/dvrdeck/log"
	"github.com/dvrdeck-cli/dvrdeck/player"
	"github.com/dvrdeck-cli/dvrdeck/util"
)

// State is the session's lifecycle phase.
type State int

const (
	Idle State = iota
	Loading
	Ready
	Failed
	Closed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

const (
	sampleInterval  = 500 * time.Millisecond
	persistInterval = 30 * time.Second

	// minAdvance is the least the position must move past the watermark
	// before another progress write is worth issuing.
	minAdvance = 5
	// tailWindow is the stretch before the end where a position counts as
	// "ending" rather than "in progress"; the end-of-playback event, not a
	// persistence tick, owns the watched transition.
	tailWindow = 30
)

// Snapshot is the published view of a session for the presentation layer.
type Snapshot struct {
	State    State
	Episode  api.Episode
	Index    int
	Count    int
	Fraction float64
	Position float64
	Duration float64
	Message  string
}

// Clock renders the snapshot's position and duration as "pos / dur".
func (s Snapshot) Clock() string {
	return util.FormatClock(s.Position) + " / " + util.FormatClock(s.Duration)
}

// OnChange receives a snapshot after every state transition and position
// sample. Callbacks stop after Close.
type OnChange func(Snapshot)

// attachment is one episode's set of timers and the event pump. A session
// has at most one live attachment; detaching is synchronous. Auto-advance
// and explicit navigation can race to detach the same attachment, hence
// the once.
type attachment struct {
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// Session drives playback of one episode list through a player.
// All exported methods are safe for concurrent use.
type Session struct {
	ctx    context.Context
	client *api.Client
	player player.Player

	mu       sync.Mutex
	episodes []api.Episode
	cursor   int
	state    State
	started  bool
	closed   bool

	att         *attachment
	watermark   int
	watchedSent bool

	fraction float64
	position float64
	duration float64
	message  string

	onChange OnChange

	// Tick intervals, swapped by tests.
	sampleEvery  time.Duration
	persistEvery time.Duration
}

// New builds a session over the episode list positioned at startIndex.
// The list is the server's newest-first ordering and is never mutated.
// The session takes exclusive use of the player until Close.
func New(ctx context.Context, client *api.Client, pl player.Player, episodes []api.Episode, startIndex int) *Session {
	return &Session{
		ctx:          ctx,
		client:       client,
		player:       pl,
		episodes:     episodes,
		cursor:       startIndex,
		state:        Idle,
		sampleEvery:  sampleInterval,
		persistEvery: persistInterval,
	}
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
		State:    s.state,
		Episode:  s.episodes[s.cursor],
		Index:    s.cursor,
		Count:    len(s.episodes),
		Fraction: s.fraction,
		Position: s.position,
		Duration: s.duration,
		Message:  s.message,
	}
}

// notifyLocked publishes the current snapshot. Post-close observers see
// nothing.
func (s *Session) notifyLocked() {
	if s.closed || s.onChange == nil {
		return
	}
	s.onChange(s.snapshotLocked())
}

// Start begins playback of the episode at the cursor. A second call while
// already started is a no-op, as is a call after Close.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started || s.closed {
		return
	}
	s.started = true
	s.attachLocked()
}

// attachLocked wires timers and the event pump for the episode at the
// cursor. The previous attachment must already be detached.
func (s *Session) attachLocked() {
	episode := s.episodes[s.cursor]

	s.state = Loading
	s.watermark = episode.Resume()
	s.watchedSent = false
	s.fraction = 0
	s.position = float64(episode.Resume())
	s.duration = float64(episode.Duration)
	s.message = ""
	s.notifyLocked()

	att := &attachment{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	s.att = att

	go s.run(att, episode)
}

// detach stops the current attachment and waits for its goroutine to exit.
// Must be called without the mutex held.
func (s *Session) detach(att *attachment) {
	if att == nil {
		return
	}
	att.stopOnce.Do(func() { close(att.stop) })
	<-att.done
}

// run is one attachment's event pump: it loads the episode, then services
// player events and the sample and persistence tickers until stopped.
func (s *Session) run(att *attachment, episode api.Episode) {
	defer close(att.done)

	title := episode.SeriesTitle
	if episode.EpisodeTitle != "" {
		title += " - " + episode.EpisodeTitle
	}

	if err := s.player.Load(episode.PlayURL, title); err != nil {
		s.fail(att, "Unable to start playback: "+err.Error())
		return
	}

	sample := time.NewTicker(s.sampleEvery)
	defer sample.Stop()
	persist := time.NewTicker(s.persistEvery)
	defer persist.Stop()

	for {
		select {
		case <-att.stop:
			return

		case ev, ok := <-s.player.Events():
			if !ok {
				return
			}
			if ended := s.handleEvent(att, episode, ev); ended {
				return
			}

		case <-sample.C:
			s.sample(att)

		case <-persist.C:
			s.persist(att, episode)
		}
	}
}

// handleEvent reacts to one player lifecycle event. It reports true when
// the attachment's pump should exit (end of media).
func (s *Session) handleEvent(att *attachment, episode api.Episode, ev player.Event) bool {
	switch ev.Kind {
	case player.Ready:
		if resume := episode.Resume(); resume > 0 {
			if err := s.player.Seek(float64(resume)); err != nil {
				log.Warnf("resume seek to %ds failed: %v", resume, err)
			}
		}
		if err := s.player.Play(); err != nil {
			s.fail(att, "Unable to start playback: "+err.Error())
			return false
		}
		s.transition(att, Ready, "")

	case player.Failed:
		msg := "Playback failed"
		if ev.Err != nil {
			msg = "Playback failed: " + ev.Err.Error()
		}
		s.fail(att, msg)

	case player.Ended:
		s.finishEpisode(att, episode)
		go s.autoAdvance(att)
		return true
	}
	return false
}

// transition moves the session to the given state unless the attachment is
// stale or the session closed.
func (s *Session) transition(att *attachment, state State, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.att != att {
		return
	}
	s.state = state
	s.message = message
	s.notifyLocked()
}

func (s *Session) fail(att *attachment, message string) {
	s.transition(att, Failed, message)
}

// sample refreshes the published position and progress fraction.
func (s *Session) sample(att *attachment) {
	pos, err := s.player.Position()
	if err != nil {
		return
	}
	dur, err := s.player.Duration()
	if err != nil {
		dur = 0
	}

	fraction := 0.0
	if dur > 0 && !math.IsInf(dur, 0) && !math.IsNaN(dur) {
		fraction = pos / dur
		if fraction < 0 {
			fraction = 0
		}
		if fraction > 1 {
			fraction = 1
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.att != att {
		return
	}
	s.position = pos
	s.duration = dur
	s.fraction = fraction
	s.notifyLocked()
}

// persist writes the current position to the server if it has advanced far
// enough past the watermark and is not inside the tail window. Failures are
// logged; the watermark only advances on success.
func (s *Session) persist(att *attachment, episode api.Episode) {
	pos, err := s.player.Position()
	if err != nil {
		return
	}
	position := int(pos)

	s.mu.Lock()
	if s.closed || s.att != att {
		s.mu.Unlock()
		return
	}
	watermark := s.watermark
	duration := s.duration
	s.mu.Unlock()

	if position < watermark+minAdvance {
		return
	}
	if duration > 0 && float64(position) > duration-tailWindow {
		return
	}

	if err := s.client.UpdateProgress(s.ctx, episode.ID, position, false); err != nil {
		log.Warnf("progress save for episode %d failed: %v", episode.ID, err)
		return
	}

	s.mu.Lock()
	if !s.closed && s.att == att && position > s.watermark {
		s.watermark = position
	}
	s.mu.Unlock()
}

// finishEpisode marks the episode watched at full duration, exactly once
// per traversal. Failures are logged and never block navigation.
func (s *Session) finishEpisode(att *attachment, episode api.Episode) {
	s.mu.Lock()
	if s.closed || s.att != att || s.watchedSent {
		s.mu.Unlock()
		return
	}
	s.watchedSent = true
	s.fraction = 1
	s.position = float64(episode.Duration)
	s.notifyLocked()
	s.mu.Unlock()

	if err := s.client.UpdateProgress(s.ctx, episode.ID, episode.Duration, true); err != nil {
		log.Warnf("watched save for episode %d failed: %v", episode.ID, err)
	}
}

// autoAdvance moves to the next episode after end-of-media, if one exists.
// At the end of the list the session simply stays put.
func (s *Session) autoAdvance(att *attachment) {
	s.mu.Lock()
	if s.closed || s.att != att {
		s.mu.Unlock()
		return
	}
	if s.cursor+1 >= len(s.episodes) {
		s.mu.Unlock()
		return
	}
	old := s.att
	s.mu.Unlock()

	s.detach(old)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.att != old {
		return
	}
	s.cursor++
	s.attachLocked()
}

// PlayNext advances the cursor by one and restarts loading. A no-op at the
// end of the list.
func (s *Session) PlayNext() {
	s.navigate(1)
}

// PlayPrevious retreats the cursor by one and restarts loading. A no-op at
// the start of the list.
func (s *Session) PlayPrevious() {
	s.navigate(-1)
}

func (s *Session) navigate(delta int) {
	s.mu.Lock()
	if !s.started || s.closed {
		s.mu.Unlock()
		return
	}
	next := s.cursor + delta
	if next < 0 || next >= len(s.episodes) {
		s.mu.Unlock()
		return
	}
	old := s.att
	s.mu.Unlock()

	// The old attachment is fully torn down before the new one exists, so
	// a stale timer can never fire against the new episode.
	s.detach(old)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.att != old {
		return
	}
	s.cursor = next
	s.attachLocked()
}

// Close tears the session down: pause, detach timers, one best-effort final
// progress save. Idempotent and safe without a prior Start.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.state = Closed
	old := s.att
	s.att = nil
	episode := s.episodes[s.cursor]
	watermark := s.watermark
	duration := s.duration
	started := s.started
	s.mu.Unlock()

	s.detach(old)

	if !started {
		return
	}

	if err := s.player.Pause(); err != nil {
		log.Debugf("pause on close: %v", err)
	}

	// A user who exits mid-episode keeps all but the last ~30s of progress.
	pos, err := s.player.Position()
	if err != nil {
		return
	}
	position := int(pos)
	if position < watermark+minAdvance {
		return
	}
	if duration > 0 && float64(position) > duration-tailWindow {
		return
	}
	if err := s.client.UpdateProgress(s.ctx, episode.ID, position, false); err != nil {
		log.Warnf("final progress save for episode %d failed: %v", episode.ID, err)
	}
}
