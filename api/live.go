package api

import (
	"context"
	"net/http"
)

// watchRequest is the body of POST /api/live/watch.
type watchRequest struct {
	ChannelNumber string `json:"channelNumber"`
	ClientID      string `json:"clientId"`
}

// clientRequest is the body of heartbeat and stop calls.
type clientRequest struct {
	ClientID string `json:"clientId"`
}

// LiveChannels lists tunable channels via GET /api/live/channels.
func (c *Client) LiveChannels(ctx context.Context) ([]Channel, error) {
	resp, err := request[ChannelsResponse](ctx, c, call{
		method:   http.MethodGet,
		endpoint: "/api/live/channels",
	})
	if err != nil {
		return nil, err
	}
	return resp.Channels, nil
}

// CurrentPrograms lists what is airing right now per channel via GET /api/guide/now.
func (c *Client) CurrentPrograms(ctx context.Context) ([]CurrentProgram, error) {
	resp, err := request[CurrentProgramsResponse](ctx, c, call{
		method:   http.MethodGet,
		endpoint: "/api/guide/now",
	})
	if err != nil {
		return nil, err
	}
	return resp.Programs, nil
}

// StartWatch asks the server to reserve a tuner for the channel and begin
// serving a playlist, keyed by the caller's client identifier. The server
// waits for the stream to come up before responding, so this call uses the
// long transfer timeout.
func (c *Client) StartWatch(ctx context.Context, channelNumber, clientID string) (WatchResponse, error) {
	return request[WatchResponse](ctx, c, call{
		method:   http.MethodPost,
		endpoint: "/api/live/watch",
		body:     watchRequest{ChannelNumber: channelNumber, ClientID: clientID},
		transfer: true,
	})
}

// Heartbeat keeps the tuner reservation for clientID alive. A 404 reply means
// the server already expired the session; callers treat that as expected.
// A failed heartbeat is not retried mid-interval, the next tick covers it.
func (c *Client) Heartbeat(ctx context.Context, clientID string) (LiveTVResponse, error) {
	return request[LiveTVResponse](ctx, c, call{
		method:   http.MethodPost,
		endpoint: "/api/live/heartbeat",
		body:     clientRequest{ClientID: clientID},
		single:   true,
	})
}

// StopWatch releases the tuner reservation for clientID. Best-effort: a
// reservation the server no longer recognizes is already released.
func (c *Client) StopWatch(ctx context.Context, clientID string) (LiveTVResponse, error) {
	return request[LiveTVResponse](ctx, c, call{
		method:   http.MethodPost,
		endpoint: "/api/live/stop",
		body:     clientRequest{ClientID: clientID},
		single:   true,
	})
}
