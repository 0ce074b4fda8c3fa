package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/ds124wfegd/innonet-bff/internal/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var mutationColumns = []string{
	"id", "ref", "session_id", "kind", "notification_id", "status", "error", "created_at", "updated_at",
}

func newMock(t *testing.T) (*mutationRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &mutationRepository{db: db}, mock
}

func TestRecordUpsertsByRef(t *testing.T) {
	repo, mock := newMock(t)
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO mutation_log")).
		WithArgs("ref-1", "s1", "mark_read", "n1", "committed", "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(7, at, at))

	rec := &entity.MutationRecord{
		Ref:            "ref-1",
		SessionID:      "s1",
		Kind:           entity.EventMarkRead,
		NotificationID: "n1",
		Status:         entity.MutationCommitted,
	}
	require.NoError(t, repo.Record(context.Background(), rec))
	assert.Equal(t, int64(7), rec.ID)
	assert.True(t, rec.CreatedAt.Equal(at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordWrapsDatabaseError(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO mutation_log")).
		WillReturnError(errors.New("connection reset"))

	err := repo.Record(context.Background(), &entity.MutationRecord{Ref: "ref-1"})
	assert.ErrorIs(t, err, entity.ErrDatabaseError)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestListBySession(t *testing.T) {
	repo, mock := newMock(t)
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM mutation_log")).
		WithArgs("s1", 100).
		WillReturnRows(sqlmock.NewRows(mutationColumns).
			AddRow(2, "ref-2", "s1", "mark_all_read", "", "reverted", "backend returned 500", at, at).
			AddRow(1, "ref-1", "s1", "mark_read", "n1", "committed", "", at, at))

	records, err := repo.ListBySession(context.Background(), "s1", 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, entity.EventMarkAllRead, records[0].Kind)
	assert.Equal(t, entity.MutationReverted, records[0].Status)
	assert.Equal(t, "backend returned 500", records[0].Error)
	assert.Equal(t, "n1", records[1].NotificationID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByRefMissing(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE ref = $1")).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	rec, err := repo.GetByRef(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestCountByStatus(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM mutation_log WHERE status = $1")).
		WithArgs("pending").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := repo.CountByStatus(context.Background(), entity.MutationPending)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
