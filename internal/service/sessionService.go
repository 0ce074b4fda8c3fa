package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ds124wfegd/innonet-bff/internal/calendar"
	"github.com/ds124wfegd/innonet-bff/internal/database"
	"github.com/ds124wfegd/innonet-bff/internal/entity"
	"github.com/ds124wfegd/innonet-bff/internal/notification"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Session is one mounted page: a calendar view and a notification indicator
// that share a pointer registry.
type Session struct {
	ID        string
	CreatedAt time.Time
	Calendar  *calendar.View
	Indicator *notification.Indicator
	Pointer   *notification.DismissRegistry

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

type SessionOptions struct {
	Notifications notification.Config
	Location      *time.Location
}

type sessionService struct {
	baseCtx  context.Context
	backends BackendFactory
	opts     SessionOptions
	cache    database.CountCache
	journal  database.MutationJournal
	observer *indicatorObserver
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionService creates the session registry. Poll loops of mounted
// sessions live until baseCtx is cancelled or the session is unmounted.
func NewSessionService(
	baseCtx context.Context,
	backends BackendFactory,
	opts SessionOptions,
	cache database.CountCache,
	journal database.MutationJournal,
	publisher EventPublisher,
) SessionService {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	opts.Notifications.Location = opts.Location
	return &sessionService{
		baseCtx:  baseCtx,
		backends: backends,
		opts:     opts,
		cache:    cache,
		journal:  journal,
		observer: newIndicatorObserver(journal, publisher),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

func (s *sessionService) Mount(ctx context.Context, token string) (*Session, error) {
	id := uuid.NewString()
	now := s.now()
	log := logrus.WithField("session_id", id)

	backend := s.backends(token)
	api := newCachedNotificationAPI(backend, s.cache, token, log)
	pointer := notification.NewDismissRegistry()

	sess := &Session{
		ID:        id,
		CreatedAt: now,
		Pointer:   pointer,
		Calendar:  calendar.NewView(backend, s.opts.Location, calendar.CursorFor(now.In(s.opts.Location)), log),
		Indicator: notification.NewIndicator(api, pointer, s.opts.Notifications, log).WithObserver(id, s.observer),
		lastSeen:  now,
	}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	sess.Indicator.Start(s.baseCtx)
	sess.Calendar.Load(ctx)

	s.observer.Observe(ctx, entity.IndicatorEvent{
		SessionID:   id,
		Kind:        entity.EventSessionMounted,
		UnreadCount: sess.Indicator.Snapshot().UnreadCount,
		OccurredAt:  now,
	})
	log.Info("Session mounted")
	return sess, nil
}

func (s *sessionService) Unmount(ctx context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return entity.ErrSessionNotFound
	}

	sess.Indicator.Stop()
	sess.Calendar.Close()

	s.observer.Observe(ctx, entity.IndicatorEvent{
		SessionID:  id,
		Kind:       entity.EventSessionUnmounted,
		OccurredAt: s.now(),
	})
	logrus.WithField("session_id", id).Info("Session unmounted")
	return nil
}

// Get returns a mounted session and marks it as active.
func (s *sessionService) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return nil, entity.ErrSessionNotFound
	}
	sess.Touch(s.now())
	return sess, nil
}

func (s *sessionService) Snapshot(id string) (*entity.SessionSnapshot, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return &entity.SessionSnapshot{
		ID:            sess.ID,
		CreatedAt:     sess.CreatedAt,
		LastSeen:      sess.LastSeen(),
		Calendar:      sess.Calendar.Snapshot(),
		Notifications: sess.Indicator.Snapshot(),
	}, nil
}

// ExpireIdle unmounts sessions not touched within idle and reports how many.
func (s *sessionService) ExpireIdle(ctx context.Context, idle time.Duration) int {
	cutoff := s.now().Add(-idle)

	s.mu.RLock()
	var expired []string
	for id, sess := range s.sessions {
		if sess.LastSeen().Before(cutoff) {
			expired = append(expired, id)
		}
	}
	s.mu.RUnlock()

	removed := 0
	for _, id := range expired {
		if ctx.Err() != nil {
			break
		}
		if err := s.Unmount(ctx, id); err == nil {
			removed++
		}
	}
	return removed
}

func (s *sessionService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *sessionService) Journal(ctx context.Context, id string, limit int) ([]*entity.MutationRecord, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	if s.journal == nil {
		return []*entity.MutationRecord{}, nil
	}
	return s.journal.ListBySession(ctx, id, limit)
}

// Mutation returns one journaled mutation of the session.
func (s *sessionService) Mutation(ctx context.Context, id, ref string) (*entity.MutationRecord, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	if s.journal == nil {
		return nil, entity.ErrMutationNotFound
	}
	rec, err := s.journal.GetByRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	// чужие мутации не показываем
	if rec == nil || rec.SessionID != id {
		return nil, entity.ErrMutationNotFound
	}
	return rec, nil
}

func (s *sessionService) MutationStats(ctx context.Context) (*entity.MutationStats, error) {
	stats := &entity.MutationStats{DroppedEvents: s.observer.Dropped()}
	if s.journal == nil {
		return stats, nil
	}
	stats.Journaled = true

	for status, dst := range map[entity.MutationStatus]*int{
		entity.MutationPending:   &stats.Pending,
		entity.MutationCommitted: &stats.Committed,
		entity.MutationReverted:  &stats.Reverted,
	} {
		n, err := s.journal.CountByStatus(ctx, status)
		if err != nil {
			return nil, fmt.Errorf("count %s mutations: %w", status, err)
		}
		*dst = n
	}
	return stats, nil
}

// Shutdown unmounts every session, then flushes pending indicator events.
func (s *sessionService) Shutdown(ctx context.Context) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	for _, id := range ids {
		s.Unmount(ctx, id)
	}
	s.observer.Stop(ctx)
}
