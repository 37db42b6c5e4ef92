package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/dvrdeck-cli/dvrdeck/log"
	"github.com/dvrdeck-cli/dvrdeck/network"
)

// Notify receives failures the engine decided are worth showing to the user.
// The engine retries quietly; it notifies at most once per call, and only when
// the final permitted attempt has failed after a perceptible cumulative wait.
type Notify func(*Error)

// Client is the typed DVR server client. It holds no per-call state and is
// safe to share across any number of concurrent callers; each call runs its
// own independent retry sequence.
type Client struct {
	baseURL  string
	http     *http.Client
	transfer *http.Client
	notify   Notify

	// sleep is swapped out by tests to avoid real backoff waits.
	sleep func(context.Context, time.Duration) error
}

// Option customizes a Client.
type Option func(*Client)

// WithNotify installs the user-visible error hook.
func WithNotify(n Notify) Option {
	return func(c *Client) { c.notify = n }
}

// WithHTTPClients overrides the standard and transfer HTTP clients.
func WithHTTPClients(std, transfer *http.Client) Option {
	return func(c *Client) {
		c.http = std
		c.transfer = transfer
	}
}

// New creates a Client for the given server base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     network.Default,
		transfer: network.Transfer,
		sleep:    sleepContext,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the configured server base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// call describes one logical endpoint invocation.
type call struct {
	method   string
	endpoint string
	body     any

	// transfer selects the long-timeout client for streaming-adjacent calls.
	transfer bool

	// discardBody marks endpoints that answer with an empty ack.
	discardBody bool

	// single disables the retry loop. Heartbeat and teardown calls fail
	// fast and leave recovery to their own tick or to nobody.
	single bool
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// request performs one logical call with bounded exponential backoff.
// Attempts are strictly sequential: attempt n+1 is never issued before the
// outcome of attempt n is known.
func request[T any](ctx context.Context, c *Client, cl call) (T, error) {
	var zero T

	target, aerr := c.resolveTarget(cl.endpoint)
	if aerr != nil {
		return zero, aerr
	}

	for attempt := 0; ; attempt++ {
		v, aerr := attemptCall[T](ctx, c, cl, target)
		if aerr == nil {
			return v, nil
		}

		log.Debugf("api: %s %s attempt %d failed: %v", cl.method, cl.endpoint, attempt, aerr)

		if cl.single || !aerr.Retryable() || attempt == maxRetries {
			if attempt == maxRetries && cumulativeWait(attempt) >= surfaceThreshold {
				c.surface(aerr)
			}
			return zero, aerr
		}

		if err := c.sleep(ctx, backoffDelay(attempt)); err != nil {
			return zero, aerr
		}
	}
}

// resolveTarget joins the base URL with an endpoint path, classifying a
// malformed result as a non-retryable invalid target.
func (c *Client) resolveTarget(endpoint string) (string, *Error) {
	raw := c.baseURL + endpoint
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", &Error{Kind: KindInvalidTarget, Endpoint: endpoint, Err: err}
	}
	return u.String(), nil
}

// attemptCall performs a single network attempt and classifies its outcome.
func attemptCall[T any](ctx context.Context, c *Client, cl call, target string) (T, *Error) {
	var zero T

	var reqBody io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return zero, &Error{Kind: KindInvalidTarget, Endpoint: cl.endpoint, Err: err}
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, reqBody)
	if err != nil {
		return zero, &Error{Kind: KindInvalidTarget, Endpoint: cl.endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	httpClient := c.http
	if cl.transfer {
		httpClient = c.transfer
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return zero, &Error{Kind: classifyTransport(err), Endpoint: cl.endpoint, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, &Error{Kind: classifyTransport(err), Endpoint: cl.endpoint, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return zero, &Error{Kind: KindServerStatus, Status: resp.StatusCode, Endpoint: cl.endpoint}
	}

	if cl.discardBody {
		return zero, nil
	}

	var decoded T
	if err := json.Unmarshal(data, &decoded); err != nil {
		return zero, &Error{Kind: KindDecode, Endpoint: cl.endpoint, Err: err}
	}

	return decoded, nil
}

// classifyTransport distinguishes elapsed deadlines from other transport failures.
func classifyTransport(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return KindTimeout
	}

	var ne interface{ Timeout() bool }
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTimeout
	}

	return KindTransport
}

func (c *Client) surface(aerr *Error) {
	log.Warnf("api: surfacing error to user: %v", aerr)
	if c.notify != nil {
		c.notify(aerr)
	}
}

// emptyAck is the decoded shape of endpoints that answer with no payload.
type emptyAck struct{}
