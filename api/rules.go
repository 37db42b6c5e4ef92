package api

import (
	"context"
	"fmt"
	"net/http"
)

// RecordingRules lists all series recording rules via GET /api/rules.
func (c *Client) RecordingRules(ctx context.Context) ([]RecordingRule, error) {
	resp, err := request[RecordingRulesResponse](ctx, c, call{
		method:   http.MethodGet,
		endpoint: "/api/rules",
	})
	if err != nil {
		return nil, err
	}
	return resp.Rules, nil
}

// CreateRecordingRule registers a recording rule for the series via POST /api/rules.
func (c *Client) CreateRecordingRule(ctx context.Context, seriesID string) (RecordingRuleResponse, error) {
	return request[RecordingRuleResponse](ctx, c, call{
		method:   http.MethodPost,
		endpoint: "/api/rules",
		body:     CreateRecordingRuleRequest{SeriesID: seriesID},
	})
}

// DeleteRecordingRule removes a recording rule via DELETE /api/rules/{id}.
func (c *Client) DeleteRecordingRule(ctx context.Context, ruleID string) error {
	_, err := request[emptyAck](ctx, c, call{
		method:      http.MethodDelete,
		endpoint:    fmt.Sprintf("/api/rules/%s", ruleID),
		discardBody: true,
	})
	return err
}
