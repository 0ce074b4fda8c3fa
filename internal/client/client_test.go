package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ds124wfegd/innonet-bff/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/v1", time.Second)
}

func TestCalendarEvents(t *testing.T) {
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/events/calendar", r.URL.Path)
		assert.Equal(t, "2025", r.URL.Query().Get("year"))
		assert.Equal(t, "3", r.URL.Query().Get("month"))
		assert.Equal(t, "Bearer tkn", r.Header.Get("Authorization"))
		w.Write([]byte(`{"events":[{"id":"e1","name":"Demo day","start_datetime":"2025-03-15T10:00:00","is_registered":true,"location_city":"Kazan"}],"month":3,"year":2025}`))
	}).WithToken("tkn")

	resp, err := c.CalendarEvents(context.Background(), 2025, 3)
	require.NoError(t, err)
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "Demo day", resp.Events[0].Name)
	assert.Equal(t, 15, resp.Events[0].StartDatetime.Day())
	require.NotNil(t, resp.Events[0].LocationCity)
	assert.Equal(t, "Kazan", *resp.Events[0].LocationCity)
}

func TestWithTokenDoesNotMutateOriginal(t *testing.T) {
	var seen []string
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		w.Write([]byte(`{"unread_count":1}`))
	})

	_, err := c.WithToken("a").UnreadCount(context.Background())
	require.NoError(t, err)
	_, err = c.UnreadCount(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Bearer a", ""}, seen)
}

func TestNotificationsEndpoints(t *testing.T) {
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/notifications/count":
			w.Write([]byte(`{"unread_count":5}`))
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/notifications":
			assert.Equal(t, "50", r.URL.Query().Get("limit"))
			assert.Equal(t, "true", r.URL.Query().Get("unread_only"))
			w.Write([]byte(`{"notifications":[{"id":"n1","type":"new_message","title":"Hi","message":"m","is_read":false,"created_at":"2025-03-01T12:00:00"}],"total":1,"unread_count":5}`))
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/notifications/n1/read":
			w.Write([]byte(`{"id":"n1","type":"new_message","title":"Hi","message":"m","is_read":true,"created_at":"2025-03-01T12:00:00"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/notifications/read-all":
			w.Write([]byte(`{"marked_read":4}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail":"Not Found"}`))
		}
	})
	ctx := context.Background()

	count, err := c.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	list, err := c.ListNotifications(ctx, entity.ListOptions{Limit: 50, UnreadOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 5, list.UnreadCount)
	require.Len(t, list.Notifications, 1)
	assert.Equal(t, entity.TypeNewMessage, list.Notifications[0].Type)

	n, err := c.MarkRead(ctx, "n1")
	require.NoError(t, err)
	assert.True(t, n.IsRead)

	all, err := c.MarkAllRead(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, all.MarkedRead)
}

func TestAPIErrorCarriesDetail(t *testing.T) {
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"Notification not found"}`))
	})

	_, err := c.MarkRead(context.Background(), "missing")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Notification not found", apiErr.Detail)
	assert.True(t, IsNotFound(err))
}

func TestAPIErrorValidationDetail(t *testing.T) {
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":[{"loc":["query","year"],"msg":"Input should be less than or equal to 2030","type":"less_than_equal"}]}`))
	})

	_, err := c.CalendarEvents(context.Background(), 2040, 1)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Input should be less than or equal to 2030", apiErr.Detail)
}

func TestDecodeError(t *testing.T) {
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"unread_count":"many"}`))
	})

	_, err := c.UnreadCount(context.Background())
	var decErr *DecodeError
	assert.True(t, errors.As(err, &decErr))
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	_, err := New(base, time.Second).UnreadCount(context.Background())
	var trErr *TransportError
	assert.True(t, errors.As(err, &trErr))
}

func TestUnauthorized(t *testing.T) {
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Not authenticated"}`))
	})

	_, err := c.UnreadCount(context.Background())
	assert.True(t, IsUnauthorized(err))
	assert.False(t, IsNotFound(err))
}
