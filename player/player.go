// Package player defines the media playback collaborator used by the
// session controllers. The primary implementation drives mpv through its
// JSON-IPC interface.
package player

// EventKind identifies a lifecycle transition reported by a playback engine.
type EventKind int

const (
	// Ready fires once the engine has loaded the media and can render it.
	Ready EventKind = iota
	// Failed fires when the engine could not load or continue the media.
	Failed
	// Ended fires when playback reached the end of the media.
	Ended
)

func (k EventKind) String() string {
	switch k {
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	case Ended:
		return "ended"
	default:
		return "unknown"
	}
}

// Event is one lifecycle notification from a playback engine. Err is set
// only for Failed events.
type Event struct {
	Kind EventKind
	Err  error
}

// Player encapsulates the capabilities the session controllers require from
// a playback backend.
type Player interface {
	// Load opens the given URL in the engine, replacing any current media.
	// The title is advisory display metadata.
	Load(url string, title string) error

	// Play resumes rendering.
	Play() error

	// Pause suspends rendering.
	Pause() error

	// Seek moves playback to an absolute position in seconds.
	Seek(seconds float64) error

	// Position reports the current playback position in seconds.
	Position() (float64, error)

	// Duration reports the total media length in seconds. Engines may not
	// know the duration for live streams and report zero.
	Duration() (float64, error)

	// Events returns the engine's lifecycle notifications. The channel is
	// closed when the engine shuts down.
	Events() <-chan Event

	// Close terminates the engine and releases its resources.
	Close() error
}
