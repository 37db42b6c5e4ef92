package api

import (
	"context"
	"fmt"
	"net/http"
)

// Health checks server liveness via GET /health.
func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	return request[HealthResponse](ctx, c, call{
		method:   http.MethodGet,
		endpoint: "/health",
	})
}

// Shows lists all recorded series via GET /api/shows.
func (c *Client) Shows(ctx context.Context) ([]Show, error) {
	resp, err := request[ShowsResponse](ctx, c, call{
		method:   http.MethodGet,
		endpoint: "/api/shows",
	})
	if err != nil {
		return nil, err
	}
	return resp.Shows, nil
}

// Episodes lists a show's recordings via GET /api/shows/{id}/episodes.
// The server returns them newest-first.
func (c *Client) Episodes(ctx context.Context, showID int) (EpisodesResponse, error) {
	return request[EpisodesResponse](ctx, c, call{
		method:   http.MethodGet,
		endpoint: fmt.Sprintf("/api/shows/%d/episodes", showID),
	})
}

// UpdateProgress persists one episode's playback position and watched state
// via PUT /api/episodes/{id}/progress.
func (c *Client) UpdateProgress(ctx context.Context, episodeID int, position int, watched bool) error {
	w := 0
	if watched {
		w = 1
	}

	_, err := request[emptyAck](ctx, c, call{
		method:      http.MethodPut,
		endpoint:    fmt.Sprintf("/api/episodes/%d/progress", episodeID),
		body:        progressUpdate{Position: position, Watched: w},
		discardBody: true,
	})
	return err
}
