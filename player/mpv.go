package player

import (
	"crypto/rand"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dvrdeck-cli/dvrdeck/log"
)

const (
	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond
	eventBuffer       = 8
)

// MPV implements the Player interface over mpv's JSON-IPC protocol. The
// process is spawned idle on first Load and reused for subsequent loads.
type MPV struct {
	socketPath  string
	cmd         *exec.Cmd
	exited      chan struct{} // closed when the mpv process exits
	events      chan Event
	closeEvents sync.Once
	listener    *listener
	mu          sync.Mutex // protects socket writes and spawn state
	started     bool
	closed      bool
}

// NewMPV creates an MPV player instance without starting a process.
func NewMPV() *MPV {
	return &MPV{
		exited: make(chan struct{}),
		events: make(chan Event, eventBuffer),
	}
}

// Load opens the URL in mpv, spawning the process on first use. Lifecycle
// transitions for the load arrive on Events.
func (m *MPV) Load(rawURL string, title string) error {
	safeURL, err := sanitizeMediaTarget(rawURL)
	if err != nil {
		return fmt.Errorf("invalid media target: %w", err)
	}
	safeTitle := sanitizeTitle(title)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("player closed")
	}

	if !m.started {
		if err := m.spawn(safeTitle); err != nil {
			return err
		}
		m.started = true
	}

	if safeTitle != "" {
		_, _ = m.send([]interface{}{"set_property", "force-media-title", safeTitle})
	}
	if _, err := m.send([]interface{}{"loadfile", safeURL, "replace"}); err != nil {
		return fmt.Errorf("load media: %w", err)
	}
	return nil
}

// spawn starts an idle mpv process with an IPC socket and attaches the
// event listener. Caller holds m.mu.
func (m *MPV) spawn(title string) error {
	// Random socket path under os.TempDir for cross-platform support
	// (macOS $TMPDIR is /var/folders/..., not /tmp).
	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		return fmt.Errorf("generate socket name: %w", err)
	}
	m.socketPath = filepath.Join(os.TempDir(), fmt.Sprintf("dvrdeck-%x.sock", randomBytes))

	// Pass only the socket, title, and idle flags. No --vo, --profile or
	// --hwdec, the user's mpv.conf stays authoritative.
	args := []string{
		"--no-terminal",
		"--really-quiet",
		fmt.Sprintf("--input-ipc-server=%s", m.socketPath),
		"--force-window=yes",
		"--idle=yes",
	}
	if title != "" {
		args = append(args,
			fmt.Sprintf("--force-media-title=%s", title),
			fmt.Sprintf("--title=%s", title))
	}

	m.cmd = exec.Command("mpv", args...)

	// Detach from the parent process group so terminal signals do not
	// cascade into the player.
	m.cmd.SysProcAttr = sysProcAttr()
	m.cmd.Stdout = nil
	m.cmd.Stderr = nil
	m.cmd.Stdin = nil

	if err := m.cmd.Start(); err != nil {
		return fmt.Errorf("start mpv: %w", err)
	}

	// Reap the process to prevent zombies. Consumers watch Wait for exit;
	// the events channel is closed by Close alone so publishes in flight
	// never race a close.
	go func() {
		_ = m.cmd.Wait()
		close(m.exited)
	}()

	if err := m.waitForSocket(); err != nil {
		select {
		case <-m.exited:
		default:
			log.Warnf("killing mpv: socket never became ready")
			_ = m.cmd.Process.Kill()
		}
		return fmt.Errorf("mpv socket not ready: %w", err)
	}

	m.listener = newListener(m.socketPath, m.publish, m.exited)
	if err := m.listener.start(); err != nil {
		return fmt.Errorf("attach event listener: %w", err)
	}
	return nil
}

// publish delivers a lifecycle event without blocking; a stalled consumer
// drops events rather than wedging the IPC read loop.
func (m *MPV) publish(ev Event) {
	select {
	case m.events <- ev:
	default:
		log.Warnf("player event dropped: %s", ev.Kind)
	}
}

// waitForSocket polls until the mpv IPC socket accepts connections.
func (m *MPV) waitForSocket() error {
	for i := 0; i < socketWaitRetries; i++ {
		time.Sleep(socketWaitDelay)

		select {
		case <-m.exited:
			return fmt.Errorf("mpv exited before socket was ready")
		default:
		}

		conn, err := net.Dial("unix", m.socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", m.socketPath, socketWaitRetries)
}

// Events returns the engine's lifecycle notifications.
func (m *MPV) Events() <-chan Event {
	return m.events
}

// Wait returns a channel that is closed when the mpv process exits, whether
// through Close or the user quitting the player.
func (m *MPV) Wait() <-chan struct{} {
	return m.exited
}

// Play resumes rendering.
func (m *MPV) Play() error {
	return m.setProperty("pause", false)
}

// Pause suspends rendering.
func (m *MPV) Pause() error {
	return m.setProperty("pause", true)
}

// Seek moves playback to the given absolute position in seconds.
func (m *MPV) Seek(seconds float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := m.send([]interface{}{"seek", seconds, "absolute"})
	return err
}

// Position returns the current playback position in seconds.
func (m *MPV) Position() (float64, error) {
	return m.floatProperty("time-pos")
}

// Duration returns the media length in seconds, zero when mpv does not
// know it (live streams).
func (m *MPV) Duration() (float64, error) {
	d, err := m.floatProperty("duration")
	if err != nil && strings.Contains(err.Error(), "property unavailable") {
		return 0, nil
	}
	return d, err
}

// Close shuts down mpv and releases the socket. Safe to call more than once.
func (m *MPV) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	started := m.started
	m.mu.Unlock()

	if !started {
		m.closeEvents.Do(func() { close(m.events) })
		return nil
	}

	if m.listener != nil {
		m.listener.stop()
	}

	// Graceful quit first, force kill if mpv does not oblige.
	m.mu.Lock()
	_, _ = m.send([]interface{}{"quit"})
	m.mu.Unlock()

	select {
	case <-m.exited:
	case <-time.After(3 * time.Second):
		_ = killProcess(m.cmd)
	}

	_ = os.Remove(m.socketPath)
	m.closeEvents.Do(func() { close(m.events) })
	return nil
}

func (m *MPV) setProperty(property string, value interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := m.send([]interface{}{"set_property", property, value})
	return err
}

func (m *MPV) floatProperty(name string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := m.send([]interface{}{"get_property", name})
	if err != nil {
		return 0, err
	}
	val, ok := data.(float64)
	if !ok {
		return 0, fmt.Errorf("property %s: expected float64, got %T", name, data)
	}
	return val, nil
}

// sanitizeMediaTarget validates that a URL is safe to hand to mpv and can
// not be mistaken for a flag.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", fmt.Errorf("empty URL")
	}
	if strings.ContainsAny(l, "\x00\n\r") {
		return "", fmt.Errorf("invalid control characters in URL")
	}
	if strings.HasPrefix(l, "-") {
		return "", fmt.Errorf("url must not start with '-' (looks like a flag)")
	}

	if strings.Contains(l, "://") {
		u, err := url.Parse(l)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return l, nil
		default:
			return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
		}
	}

	// Treat as a local file path.
	return filepath.Clean(l), nil
}

// sanitizeTitle strips characters that break mpv's argument and IPC handling.
func sanitizeTitle(title string) string {
	t := strings.ReplaceAll(title, "\n", " ")
	t = strings.ReplaceAll(t, "\r", " ")
	t = strings.ReplaceAll(t, "\t", " ")
	t = strings.ReplaceAll(t, "\x00", "")
	return strings.TrimSpace(t)
}
