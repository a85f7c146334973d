package api

import (
	"context"
	"net/http"
	"net/url"
)

// JoinQueue submits the public intake form and returns the created entry,
// including the assigned staff name.
func (c *Client) JoinQueue(ctx context.Context, req JoinQueueRequest) (QueueEntry, error) {
	var entry QueueEntry
	err := c.do(ctx, http.MethodPost, "/public/queue", nil, req, nil, &entry)
	return entry, err
}

// CheckQueueByName looks up a submitted ticket by applicant name.
func (c *Client) CheckQueueByName(ctx context.Context, fullName string) (QueueEntry, error) {
	q := url.Values{"full_name": {fullName}}
	var entry QueueEntry
	err := c.do(ctx, http.MethodGet, "/public/queue/check", q, nil, nil, &entry)
	return entry, err
}

// CancelQueue cancels an applicant's own entry.
func (c *Client) CancelQueue(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/public/queue/cancel/"+id, nil, nil, nil, nil)
}

// MoveBack pushes an applicant's own entry back in the queue.
func (c *Client) MoveBack(ctx context.Context, id string) (QueueEntry, error) {
	var entry QueueEntry
	err := c.do(ctx, http.MethodPut, "/public/queue/move-back/"+id, nil, nil, nil, &entry)
	return entry, err
}

// QueueCount returns the number of waiting applicants. Unauthenticated.
func (c *Client) QueueCount(ctx context.Context) (QueueCount, error) {
	var count QueueCount
	err := c.do(ctx, http.MethodGet, "/public/queue/count", nil, nil, nil, &count)
	return count, err
}

// DisplayQueue returns the entries currently shown on the public board.
func (c *Client) DisplayQueue(ctx context.Context) ([]QueueEntry, error) {
	var entries []QueueEntry
	err := c.do(ctx, http.MethodGet, "/public/display-queue", nil, nil, nil, &entries)
	return entries, err
}

// PublicVideoSettings returns the board's video settings. Unauthenticated.
func (c *Client) PublicVideoSettings(ctx context.Context) (VideoSettings, error) {
	var settings VideoSettings
	err := c.do(ctx, http.MethodGet, "/public/video-settings", nil, nil, nil, &settings)
	return settings, err
}
