package player

import (
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/dvrdeck-cli/dvrdeck/log"
)

// listener holds a persistent IPC connection and translates mpv's raw
// event stream into Player lifecycle events.
type listener struct {
	socketPath string
	publish    func(Event)
	exited     <-chan struct{}
	conn       net.Conn
	stopCh     chan struct{}
	doneCh     chan struct{}
}

func newListener(socketPath string, publish func(Event), exited <-chan struct{}) *listener {
	return &listener{
		socketPath: socketPath,
		publish:    publish,
		exited:     exited,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// start opens the event connection and begins the read loop.
func (l *listener) start() error {
	conn, err := net.Dial("unix", l.socketPath)
	if err != nil {
		return fmt.Errorf("event listener connect: %w", err)
	}
	l.conn = conn

	go l.readLoop()

	log.Debugf("mpv event listener started on %s", l.socketPath)
	return nil
}

// stop terminates the read loop and waits for it to exit, so no publish
// can happen after stop returns.
func (l *listener) stop() {
	select {
	case <-l.stopCh:
	default:
		close(l.stopCh)
		if l.conn != nil {
			l.conn.Close()
		}
	}
	<-l.doneCh
}

// readLoop consumes newline-delimited JSON events from mpv until the
// listener is stopped or the process exits.
func (l *listener) readLoop() {
	defer close(l.doneCh)

	buf := make([]byte, 4096)
	var remainder []byte

	for {
		select {
		case <-l.stopCh:
			return
		case <-l.exited:
			return
		default:
		}

		if err := l.conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
			return
		}

		n, err := l.conn.Read(buf)
		if err != nil {
			if strings.Contains(err.Error(), "timeout") || strings.Contains(err.Error(), "deadline") {
				continue
			}
			select {
			case <-l.stopCh:
			case <-l.exited:
			default:
				log.Warnf("event listener read error: %v", err)
			}
			return
		}

		data := append(remainder, buf[:n]...)
		remainder = nil

		lines := strings.Split(string(data), "\n")
		for i, line := range lines {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}

			// A trailing partial line carries over to the next read.
			if i == len(lines)-1 && !strings.HasSuffix(string(data), "\n") {
				remainder = []byte(line)
				continue
			}

			l.processEvent(line)
		}
	}
}

// processEvent maps one raw mpv event line onto a lifecycle event.
// file-loaded means the media is ready; end-file carries a reason that
// distinguishes natural completion from load failure.
func (l *listener) processEvent(line string) {
	var event struct {
		Event     string `json:"event"`
		Reason    string `json:"reason"`
		FileError string `json:"file_error"`
	}
	if err := json.Unmarshal([]byte(line), &event); err != nil {
		return
	}

	switch event.Event {
	case "file-loaded":
		l.publish(Event{Kind: Ready})
	case "end-file":
		switch event.Reason {
		case "eof":
			l.publish(Event{Kind: Ended})
		case "error":
			msg := event.FileError
			if msg == "" {
				msg = "playback failed"
			}
			l.publish(Event{Kind: Failed, Err: fmt.Errorf("%s", msg)})
		}
		// "stop", "quit" and "redirect" reasons are driven by our own
		// commands and carry no session meaning.
	}
}
