package database

import (
	"context"

	"github.com/ds124wfegd/innonet-bff/internal/entity"
)

// CountCache shares the last known unread count between sessions of one user.
// Every Invalidate bumps the user's version; SetUnreadCount with an older
// version returns entity.ErrStaleResponse and stores nothing.
type CountCache interface {
	GetUnreadCount(ctx context.Context, userKey string) (int, error)
	CountVersion(ctx context.Context, userKey string) (int64, error)
	SetUnreadCount(ctx context.Context, userKey string, count int, version int64) error
	Invalidate(ctx context.Context, userKey string) error
}

// MutationJournal stores optimistic read-state changes and their outcome.
type MutationJournal interface {
	Record(ctx context.Context, rec *entity.MutationRecord) error
	GetByRef(ctx context.Context, ref string) (*entity.MutationRecord, error)
	ListBySession(ctx context.Context, sessionID string, limit int) ([]*entity.MutationRecord, error)
	CountByStatus(ctx context.Context, status entity.MutationStatus) (int, error)
}
