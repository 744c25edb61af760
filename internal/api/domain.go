package api

import (
	"context"
	"fmt"
	"net/http"
)

// Thin wrappers over the per-domain REST endpoints. These carry no logic
// of their own: header injection, refresh, and error classification all
// happen in Call.

// Page is the paginated list wrapper the service returns for collections.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// Activity is an organization activity or meeting.
type Activity struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Type   string `json:"type"`
	Status string `json:"status"`
	Date   string `json:"date"`
}

// Honor is an honor application record.
type Honor struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// Transfer is a membership transfer request.
type Transfer struct {
	ID        int    `json:"id"`
	TargetOrg string `json:"target_org"`
	Status    string `json:"status"`
}

// Notification is a system or organization notice.
type Notification struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Read    bool   `json:"read"`
	SentAt  string `json:"sent_at"`
}

func (c *Client) ListActivities(ctx context.Context, page, size int) (*Page[Activity], error) {
	return list[Activity](ctx, c, "/api/activities", page, size)
}

func (c *Client) ListHonors(ctx context.Context, page, size int) (*Page[Honor], error) {
	return list[Honor](ctx, c, "/api/honors", page, size)
}

func (c *Client) ListTransfers(ctx context.Context, page, size int) (*Page[Transfer], error) {
	return list[Transfer](ctx, c, "/api/transfers", page, size)
}

func (c *Client) ListNotifications(ctx context.Context, page, size int) (*Page[Notification], error) {
	return list[Notification](ctx, c, "/api/notifications", page, size)
}

func list[T any](ctx context.Context, c *Client, path string, page, size int) (*Page[T], error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	var out Page[T]
	err := c.Call(ctx, http.MethodGet, fmt.Sprintf("%s?page=%d&size=%d", path, page, size), nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
