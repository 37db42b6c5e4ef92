// Package network provides pre-configured HTTP clients shared across the application.
package network

import (
	"net/http"
	"time"
)

const (
	// RequestTimeout bounds ordinary control-plane calls.
	RequestTimeout = 30 * time.Second

	// TransferTimeout bounds streaming-adjacent calls that may legitimately
	// take far longer, such as tuner acquisition that waits for a stream.
	TransferTimeout = 300 * time.Second
)

// Default is the shared HTTP client for ordinary API calls.
var Default = &http.Client{
	Timeout:   RequestTimeout,
	Transport: newTransport(),
}

// Transfer is the shared HTTP client for streaming-adjacent calls.
var Transfer = &http.Client{
	Timeout:   TransferTimeout,
	Transport: newTransport(),
}

// newTransport initializes a tuned http.Transport with optimized pool and timeout parameters.
func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxIdleConnsPerHost = 100
	t.MaxConnsPerHost = 200
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 30 * time.Second
	return t
}
