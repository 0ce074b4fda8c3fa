package notification

import (
	"testing"
	"time"

	"github.com/ds124wfegd/innonet-bff/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notif(id string, read bool) entity.Notification {
	return entity.Notification{
		ID:        id,
		Type:      entity.TypeNewMessage,
		Title:     "Title " + id,
		Message:   "Message " + id,
		IsRead:    read,
		CreatedAt: entity.NewTimestamp(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)),
	}
}

func listOf(unread int, items ...entity.Notification) *entity.NotificationListResponse {
	return &entity.NotificationListResponse{Notifications: items, Total: len(items), UnreadCount: unread}
}

func loaded(t *testing.T, strict bool, unread int, items ...entity.Notification) *Reconciler {
	t.Helper()
	r := NewReconciler(strict)
	require.True(t, r.ApplyList(r.BeginFetch(), listOf(unread, items...)))
	return r
}

func TestMarkReadScenario(t *testing.T) {
	r := NewReconciler(true)
	require.True(t, r.ApplyCount(r.BeginFetch(), 5))

	require.True(t, r.ApplyList(r.BeginFetch(), listOf(5, notif("a", false), notif("b", false), notif("c", true))))
	assert.Equal(t, 5, r.UnreadCount())

	m, err := r.MarkRead("a")
	require.NoError(t, err)
	assert.Equal(t, 4, r.UnreadCount())

	a, _ := r.Get("a")
	b, _ := r.Get("b")
	c, _ := r.Get("c")
	assert.True(t, a.Notification.IsRead)
	assert.Equal(t, entity.EntryPending, a.Status)
	assert.False(t, b.Notification.IsRead)
	assert.True(t, c.Notification.IsRead)
	assert.Equal(t, entity.EntryCommitted, b.Status)

	r.Commit(m, nil)
	a, _ = r.Get("a")
	assert.Equal(t, entity.EntryCommitted, a.Status)
}

func TestMarkReadFloorsAtZero(t *testing.T) {
	for _, start := range []int{0, 1, 3} {
		r := loaded(t, true, start, notif("a", false), notif("b", true))

		_, err := r.MarkRead("b")
		require.NoError(t, err)
		assert.Equal(t, start, r.UnreadCount(), "already read must not decrement")

		_, err = r.MarkRead("a")
		require.NoError(t, err)
		_, err = r.MarkRead("a")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, r.UnreadCount(), 0)
		if start > 0 {
			assert.Equal(t, start-1, r.UnreadCount())
		}
	}
}

func TestMarkReadUnknownID(t *testing.T) {
	r := loaded(t, true, 1, notif("a", false))
	_, err := r.MarkRead("zzz")
	assert.ErrorIs(t, err, entity.ErrNotificationNotFound)
}

func TestMarkAllRead(t *testing.T) {
	for _, start := range []int{0, 2, 17} {
		r := loaded(t, true, start, notif("a", false), notif("b", true), notif("c", false))

		_, err := r.MarkAllRead()
		require.NoError(t, err)

		assert.Equal(t, 0, r.UnreadCount())
		for _, it := range r.Items() {
			assert.True(t, it.Notification.IsRead)
		}
	}
}

func TestRevertMarkRead(t *testing.T) {
	r := loaded(t, true, 2, notif("a", false), notif("b", false))

	m, err := r.MarkRead("a")
	require.NoError(t, err)
	assert.Equal(t, 1, r.UnreadCount())

	assert.True(t, r.Revert(m))
	a, _ := r.Get("a")
	assert.False(t, a.Notification.IsRead)
	assert.Equal(t, entity.EntryCommitted, a.Status)
	assert.Equal(t, 2, r.UnreadCount())
}

func TestRevertMarkAllRead(t *testing.T) {
	r := loaded(t, true, 2, notif("a", false), notif("b", true), notif("c", false))

	m, err := r.MarkAllRead()
	require.NoError(t, err)

	r.Revert(m)
	assert.Equal(t, 2, r.UnreadCount())
	a, _ := r.Get("a")
	b, _ := r.Get("b")
	assert.False(t, a.Notification.IsRead)
	assert.True(t, b.Notification.IsRead)
}

func TestRevertKeepsNewerServerCount(t *testing.T) {
	r := loaded(t, true, 3, notif("a", false))

	m, err := r.MarkRead("a")
	require.NoError(t, err)

	// a poll sent after the mutation reports the server value
	require.True(t, r.ApplyCount(r.BeginFetch(), 3))
	r.Revert(m)

	assert.Equal(t, 3, r.UnreadCount())
}

func TestCommitReplacesWithServerCopy(t *testing.T) {
	r := loaded(t, true, 1, notif("a", false))

	m, err := r.MarkRead("a")
	require.NoError(t, err)

	server := notif("a", true)
	server.Title = "Updated"
	r.Commit(m, &server)

	a, _ := r.Get("a")
	assert.Equal(t, "Updated", a.Notification.Title)
	assert.Equal(t, entity.EntryCommitted, a.Status)
}

func TestStrictOrderingDiscardsStaleCount(t *testing.T) {
	r := loaded(t, true, 5, notif("a", false))

	slow := r.BeginFetch()
	fast := r.BeginFetch()

	assert.True(t, r.ApplyCount(fast, 7))
	assert.False(t, r.ApplyCount(slow, 2))
	assert.Equal(t, 7, r.UnreadCount())
}

func TestStrictOrderingProtectsLocalDecrement(t *testing.T) {
	r := loaded(t, true, 5, notif("a", false))

	inFlight := r.BeginFetch()
	_, err := r.MarkRead("a")
	require.NoError(t, err)

	assert.False(t, r.ApplyCount(inFlight, 5))
	assert.Equal(t, 4, r.UnreadCount())
}

// Without ordering tokens a slow response can overwrite fresher state.
// This is the accepted staleness window of last-write-wins polling.
func TestLastWriteWinsStalenessWindow(t *testing.T) {
	r := loaded(t, false, 5, notif("a", false))

	slow := r.BeginFetch()
	fast := r.BeginFetch()
	assert.True(t, r.ApplyCount(fast, 7))
	assert.True(t, r.ApplyCount(slow, 2))
	assert.Equal(t, 2, r.UnreadCount())

	inFlight := r.BeginFetch()
	_, err := r.MarkRead("a")
	require.NoError(t, err)
	assert.Equal(t, 1, r.UnreadCount())
	assert.True(t, r.ApplyCount(inFlight, 5))
	assert.Equal(t, 5, r.UnreadCount())
}

func TestListKeepsNewerLocalFlip(t *testing.T) {
	r := loaded(t, true, 2, notif("a", false), notif("b", false))

	inFlight := r.BeginFetch()
	_, err := r.MarkRead("a")
	require.NoError(t, err)

	assert.True(t, r.ApplyList(inFlight, listOf(2, notif("a", false), notif("b", false), notif("c", false))))

	a, _ := r.Get("a")
	assert.True(t, a.Notification.IsRead)
	assert.Equal(t, entity.EntryPending, a.Status)
	assert.Equal(t, 3, r.Len())
	// count from the older list is discarded
	assert.Equal(t, 1, r.UnreadCount())
}

func TestStoppedReconcilerIgnoresUpdates(t *testing.T) {
	r := loaded(t, true, 2, notif("a", false))
	ticket := r.BeginFetch()
	r.Stop()

	assert.False(t, r.ApplyCount(ticket, 9))
	assert.False(t, r.ApplyList(ticket, listOf(0)))
	_, err := r.MarkRead("a")
	assert.ErrorIs(t, err, entity.ErrIndicatorStopped)
	assert.Equal(t, 2, r.UnreadCount())
}
