package service

import (
	"context"
	"time"

	"github.com/ds124wfegd/innonet-bff/internal/calendar"
	"github.com/ds124wfegd/innonet-bff/internal/entity"
	"github.com/ds124wfegd/innonet-bff/internal/notification"
)

// Backend is everything a session needs from the upstream API.
type Backend interface {
	calendar.EventSource
	notification.API
}

// BackendFactory returns a backend that authenticates with token.
type BackendFactory func(token string) Backend

type CalendarService interface {
	Month(ctx context.Context, token string, year, month int) (*entity.MonthGrid, error)
}

type SessionService interface {
	// Жизненный цикл
	Mount(ctx context.Context, token string) (*Session, error)
	Unmount(ctx context.Context, id string) error
	Get(id string) (*Session, error)
	Snapshot(id string) (*entity.SessionSnapshot, error)

	// Обслуживание
	ExpireIdle(ctx context.Context, idle time.Duration) int
	Count() int
	Journal(ctx context.Context, id string, limit int) ([]*entity.MutationRecord, error)
	Mutation(ctx context.Context, id, ref string) (*entity.MutationRecord, error)
	MutationStats(ctx context.Context) (*entity.MutationStats, error)
	Shutdown(ctx context.Context)
}

// EventPublisher delivers indicator events to a broker.
type EventPublisher interface {
	Publish(ctx context.Context, ev *entity.IndicatorEvent) error
}
