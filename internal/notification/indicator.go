// Notification bell: unread counter polling, lazily loaded dropdown list and
// optimistic read-state changes.
package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ds124wfegd/innonet-bff/internal/entity"
	"github.com/ds124wfegd/innonet-bff/pkg/scheduler"

	"github.com/sirupsen/logrus"
)

// API is the subset of the backend the indicator talks to.
type API interface {
	UnreadCount(ctx context.Context) (int, error)
	ListNotifications(ctx context.Context, opts entity.ListOptions) (*entity.NotificationListResponse, error)
	MarkRead(ctx context.Context, id string) (*entity.Notification, error)
	MarkAllRead(ctx context.Context) (*entity.MarkAllReadResponse, error)
}

// Observer is told about read-state mutations and activations.
type Observer interface {
	Observe(ctx context.Context, ev entity.IndicatorEvent)
}

type Config struct {
	PollInterval   time.Duration
	ListLimit      int
	StrictOrdering bool
	Location       *time.Location
}

type Indicator struct {
	api       API
	cfg       Config
	rec       *Reconciler
	registry  *DismissRegistry
	observer  Observer
	log       *logrus.Entry
	now       func() time.Time
	sessionID string

	mu      sync.Mutex
	open    bool
	region  entity.Region
	detach  func()
	loading bool
	lastErr string
	started bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewIndicator(api API, registry *DismissRegistry, cfg Config, log *logrus.Entry) *Indicator {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = 50
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if registry == nil {
		registry = NewDismissRegistry()
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Indicator{
		api:      api,
		cfg:      cfg,
		rec:      NewReconciler(cfg.StrictOrdering),
		registry: registry,
		log:      log,
		now:      time.Now,
	}
}

func (i *Indicator) WithObserver(sessionID string, o Observer) *Indicator {
	i.sessionID = sessionID
	i.observer = o
	return i
}

func (i *Indicator) WithClock(now func() time.Time) *Indicator {
	i.now = now
	return i
}

// Start launches the unread-count poll. The first poll runs right away.
func (i *Indicator) Start(ctx context.Context) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.started || i.stopped {
		return
	}
	i.started = true

	pollCtx, cancel := context.WithCancel(ctx)
	i.cancel = cancel
	i.done = make(chan struct{})

	poller := scheduler.NewScheduler("notification-poll", i.Poll, i.cfg.PollInterval).RunImmediately()
	go func() {
		defer close(i.done)
		poller.Start(pollCtx)
	}()
}

// Stop ends polling, detaches the pointer listener and ignores any response
// that resolves afterwards.
func (i *Indicator) Stop() {
	i.mu.Lock()
	if i.stopped {
		i.mu.Unlock()
		return
	}
	i.stopped = true
	i.open = false
	detach := i.detach
	i.detach = nil
	cancel, done := i.cancel, i.done
	i.mu.Unlock()

	i.rec.Stop()
	if detach != nil {
		detach()
	}
	if cancel != nil {
		cancel()
		<-done
	}
}

func (i *Indicator) isStopped() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.stopped
}

// Poll refreshes the unread counter once.
func (i *Indicator) Poll(ctx context.Context) error {
	if i.isStopped() {
		return entity.ErrIndicatorStopped
	}

	ticket := i.rec.BeginFetch()
	count, err := i.api.UnreadCount(ctx)
	if err != nil {
		i.log.Warnf("Failed to poll unread count: %v", err)
		return fmt.Errorf("poll unread count: %w", err)
	}
	if !i.rec.ApplyCount(ticket, count) {
		i.log.WithField("ticket", ticket).Debug("Discarding stale unread count")
	}
	return nil
}

// Open shows the dropdown. The list is fetched only while the cache is empty.
func (i *Indicator) Open(ctx context.Context, region entity.Region) (entity.IndicatorSnapshot, error) {
	i.mu.Lock()
	if i.stopped {
		i.mu.Unlock()
		return entity.IndicatorSnapshot{}, entity.ErrIndicatorStopped
	}
	i.open = true
	i.region = region
	if i.detach == nil {
		i.detach = i.registry.Attach(i.onPointer)
	}
	needList := i.rec.Len() == 0
	if needList {
		i.loading = true
		i.lastErr = ""
	}
	i.mu.Unlock()

	if needList {
		i.fetchList(ctx)
	}
	return i.Snapshot(), nil
}

func (i *Indicator) fetchList(ctx context.Context) {
	ticket := i.rec.BeginFetch()
	resp, err := i.api.ListNotifications(ctx, entity.ListOptions{Limit: i.cfg.ListLimit})

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.stopped {
		return
	}
	i.loading = false
	if err != nil {
		i.log.Errorf("Failed to fetch notifications: %v", err)
		i.lastErr = fmt.Sprintf("failed to load notifications: %v", err)
		return
	}
	if !i.rec.ApplyList(ticket, resp) {
		i.log.WithField("ticket", ticket).Debug("Discarding stale notification list")
	}
}

// Close hides the dropdown and removes its pointer listener.
func (i *Indicator) Close() {
	i.mu.Lock()
	i.open = false
	detach := i.detach
	i.detach = nil
	i.mu.Unlock()

	if detach != nil {
		detach()
	}
}

func (i *Indicator) onPointer(p entity.Point) {
	i.mu.Lock()
	inside := i.open && i.region.Contains(p)
	open := i.open
	i.mu.Unlock()

	if open && !inside {
		i.Close()
	}
}

// MarkRead marks one cached notification read, reverting on failure.
func (i *Indicator) MarkRead(ctx context.Context, id string) error {
	m, err := i.rec.MarkRead(id)
	if err != nil {
		return err
	}
	i.emit(ctx, m, entity.MutationPending, nil)

	server, err := i.api.MarkRead(ctx, id)
	if err != nil {
		if !i.settle(ctx, m, entity.MutationReverted, err, func() { i.rec.Revert(m) }) {
			return entity.ErrIndicatorStopped
		}
		i.log.WithField("notification_id", id).Errorf("Failed to mark notification read: %v", err)
		return fmt.Errorf("mark notification %s read: %w", id, err)
	}

	if !i.settle(ctx, m, entity.MutationCommitted, nil, func() { i.rec.Commit(m, server) }) {
		return entity.ErrIndicatorStopped
	}
	return nil
}

// MarkAllRead marks every cached notification read and zeroes the counter.
func (i *Indicator) MarkAllRead(ctx context.Context) error {
	m, err := i.rec.MarkAllRead()
	if err != nil {
		return err
	}
	i.emit(ctx, m, entity.MutationPending, nil)

	if _, err := i.api.MarkAllRead(ctx); err != nil {
		if !i.settle(ctx, m, entity.MutationReverted, err, func() { i.rec.Revert(m) }) {
			return entity.ErrIndicatorStopped
		}
		i.log.Errorf("Failed to mark all notifications read: %v", err)
		return fmt.Errorf("mark all notifications read: %w", err)
	}

	if !i.settle(ctx, m, entity.MutationCommitted, nil, func() { i.rec.Commit(m, nil) }) {
		return entity.ErrIndicatorStopped
	}
	return nil
}

// settle applies a finished mutation and reports it, unless Stop got there first.
// Holding mu keeps Stop from slipping in between.
func (i *Indicator) settle(ctx context.Context, m Mutation, status entity.MutationStatus, err error, apply func()) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.stopped {
		return false
	}
	apply()
	i.emit(ctx, m, status, err)
	return true
}

// Activate handles a click on a notification. An unread one is marked read
// first; a failed mark does not prevent navigation.
func (i *Indicator) Activate(ctx context.Context, id string) (entity.ActivateResult, error) {
	if i.isStopped() {
		return entity.ActivateResult{}, entity.ErrIndicatorStopped
	}
	item, ok := i.rec.Get(id)
	if !ok {
		return entity.ActivateResult{}, entity.ErrNotificationNotFound
	}

	var result entity.ActivateResult
	if !item.Notification.IsRead {
		result.Marked = i.MarkRead(ctx, id) == nil
	}
	if link := item.Notification.Link; link != nil && *link != "" {
		result.Navigate = true
		result.Link = *link
		i.Close()
	}

	if i.observer != nil {
		i.observer.Observe(ctx, entity.IndicatorEvent{
			SessionID:      i.sessionID,
			Kind:           entity.EventActivate,
			NotificationID: id,
			UnreadCount:    i.rec.UnreadCount(),
			OccurredAt:     i.now(),
		})
	}
	return result, nil
}

func (i *Indicator) emit(ctx context.Context, m Mutation, status entity.MutationStatus, err error) {
	if i.observer == nil {
		return
	}
	ev := entity.IndicatorEvent{
		ID:             m.Ref,
		SessionID:      i.sessionID,
		Kind:           m.Kind,
		NotificationID: m.ID,
		Status:         status,
		UnreadCount:    i.rec.UnreadCount(),
		OccurredAt:     i.now(),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	i.observer.Observe(ctx, ev)
}

// Listening reports whether the dropdown currently holds a pointer listener.
func (i *Indicator) Listening() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.detach != nil
}

// Snapshot renders the indicator. Relative times are computed now.
func (i *Indicator) Snapshot() entity.IndicatorSnapshot {
	i.mu.Lock()
	snap := entity.IndicatorSnapshot{
		Open:    i.open,
		Loading: i.loading,
		Error:   i.lastErr,
	}
	i.mu.Unlock()

	now := i.now()
	items := i.rec.Items()
	snap.UnreadCount = i.rec.UnreadCount()
	snap.ListLoaded = i.rec.Fetched()
	snap.Notifications = make([]entity.NotificationView, 0, len(items))
	for _, it := range items {
		snap.Notifications = append(snap.Notifications, entity.NotificationView{
			Notification: it.Notification,
			Icon:         it.Notification.Type.Icon(),
			Label:        it.Notification.Type.Label(),
			RelativeTime: FormatRelative(it.Notification.CreatedAt.Time, now, i.cfg.Location),
			Status:       it.Status,
		})
	}
	return snap
}
