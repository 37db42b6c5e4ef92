// Package api implements the typed client for the DVR server's HTTP API,
// including the retry engine every call goes through.
package api

import "fmt"

// Kind classifies a failed API call. The classification decides whether the
// engine retries and which user-facing message the failure maps to.
type Kind int

const (
	// KindInvalidTarget marks a malformed endpoint or base URL. Never retried.
	KindInvalidTarget Kind = iota

	// KindTransport marks a DNS, connect or read failure. Retried.
	KindTransport

	// KindDecode marks a response body that did not match the expected shape.
	// Never retried: a retry cannot fix a schema mismatch.
	KindDecode

	// KindServerStatus marks an HTTP status outside 200-299. Retried.
	KindServerStatus

	// KindTimeout marks an elapsed per-request deadline. Retried.
	KindTimeout

	// KindUnclassified marks everything else. Retried.
	KindUnclassified
)

func (k Kind) String() string {
	switch k {
	case KindInvalidTarget:
		return "invalid target"
	case KindTransport:
		return "transport failure"
	case KindDecode:
		return "decode failure"
	case KindServerStatus:
		return "server status"
	case KindTimeout:
		return "timeout"
	default:
		return "unclassified"
	}
}

// Error is the classified failure of one API call.
type Error struct {
	Kind     Kind
	Status   int // HTTP status code, set only for KindServerStatus
	Endpoint string
	Err      error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindServerStatus:
		return fmt.Sprintf("%s: server returned %d", e.Endpoint, e.Status)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Endpoint, e.Kind, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Endpoint, e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the engine may re-attempt a call that failed this way.
func (e *Error) Retryable() bool {
	return e.Kind != KindInvalidTarget && e.Kind != KindDecode
}

// IsNotFound reports whether the failure is an HTTP 404. Live heartbeat and
// stop calls treat this as an expected post-expiry response, not an error.
func (e *Error) IsNotFound() bool {
	return e.Kind == KindServerStatus && e.Status == 404
}

// UserMessage maps the classified failure onto the small set of messages
// shown to the user.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindInvalidTarget:
		return "Invalid server URL"
	case KindTransport:
		return "Could not reach the server"
	case KindDecode:
		return "The server sent an unexpected response"
	case KindServerStatus:
		return fmt.Sprintf("Server error: %d", e.Status)
	case KindTimeout:
		return "Connection timed out"
	default:
		return "Unknown error occurred"
	}
}
