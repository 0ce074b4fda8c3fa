// REST client for the Innonet backend endpoints used by the calendar and the
// notification indicator.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ds124wfegd/innonet-bff/internal/entity"
)

const maxBodySize = 4 << 20

type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithToken returns a copy that sends the bearer token on every request.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

func (c *Client) CalendarEvents(ctx context.Context, year, month int) (*entity.CalendarResponse, error) {
	q := url.Values{}
	q.Set("year", strconv.Itoa(year))
	q.Set("month", strconv.Itoa(month))

	var resp entity.CalendarResponse
	if err := c.do(ctx, "calendar events", http.MethodGet, []string{"events", "calendar"}, q, &resp); err != nil {
		return nil, err
	}
	if resp.Events == nil {
		resp.Events = []entity.CalendarEvent{}
	}
	return &resp, nil
}

func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var resp entity.UnreadCountResponse
	if err := c.do(ctx, "unread count", http.MethodGet, []string{"notifications", "count"}, nil, &resp); err != nil {
		return 0, err
	}
	return resp.UnreadCount, nil
}

func (c *Client) ListNotifications(ctx context.Context, opts entity.ListOptions) (*entity.NotificationListResponse, error) {
	q := url.Values{}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.UnreadOnly {
		q.Set("unread_only", "true")
	}

	var resp entity.NotificationListResponse
	if err := c.do(ctx, "list notifications", http.MethodGet, []string{"notifications"}, q, &resp); err != nil {
		return nil, err
	}
	if resp.Notifications == nil {
		resp.Notifications = []entity.Notification{}
	}
	return &resp, nil
}

func (c *Client) MarkRead(ctx context.Context, id string) (*entity.Notification, error) {
	var resp entity.Notification
	if err := c.do(ctx, "mark read", http.MethodPost, []string{"notifications", id, "read"}, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) MarkAllRead(ctx context.Context) (*entity.MarkAllReadResponse, error) {
	var resp entity.MarkAllReadResponse
	if err := c.do(ctx, "mark all read", http.MethodPost, []string{"notifications", "read-all"}, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, op, method string, path []string, query url.Values, out interface{}) error {
	endpoint, err := url.JoinPath(c.baseURL, path...)
	if err != nil {
		return fmt.Errorf("%s: build url: %w", op, err)
	}
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Detail: parseDetail(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &DecodeError{Op: op, Err: err}
	}
	return nil
}
