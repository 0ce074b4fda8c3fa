package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ds124wfegd/innonet-bff/internal/database"
	"github.com/ds124wfegd/innonet-bff/internal/entity"
)

type mutationRepository struct {
	db *sql.DB
}

func NewMutationRepository(db *sql.DB) database.MutationJournal {
	return &mutationRepository{db: db}
}

// Record inserts a mutation or moves an existing one (same ref) to its new status.
func (r *mutationRepository) Record(ctx context.Context, rec *entity.MutationRecord) error {
	query := `
		INSERT INTO mutation_log (ref, session_id, kind, notification_id, status, error, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, NULLIF($6, ''), NOW(), NOW())
		ON CONFLICT (ref) DO UPDATE
		SET status = EXCLUDED.status, error = EXCLUDED.error, updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		rec.Ref,
		rec.SessionID,
		string(rec.Kind),
		rec.NotificationID,
		string(rec.Status),
		rec.Error,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: record mutation %s: %v", entity.ErrDatabaseError, rec.Ref, err)
	}
	return nil
}

func (r *mutationRepository) GetByRef(ctx context.Context, ref string) (*entity.MutationRecord, error) {
	query := `
		SELECT id, ref, session_id, kind, COALESCE(notification_id, ''), status, COALESCE(error, ''), created_at, updated_at
		FROM mutation_log
		WHERE ref = $1
	`

	rec, err := scanMutation(r.db.QueryRowContext(ctx, query, ref))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get mutation %s: %v", entity.ErrDatabaseError, ref, err)
	}
	return rec, nil
}

func (r *mutationRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]*entity.MutationRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, ref, session_id, kind, COALESCE(notification_id, ''), status, COALESCE(error, ''), created_at, updated_at
		FROM mutation_log
		WHERE session_id = $1
		ORDER BY id DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list mutations: %v", entity.ErrDatabaseError, err)
	}
	defer rows.Close()

	var records []*entity.MutationRecord
	for rows.Next() {
		rec, err := scanMutation(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan mutation: %v", entity.ErrDatabaseError, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *mutationRepository) CountByStatus(ctx context.Context, status entity.MutationStatus) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM mutation_log WHERE status = $1`, string(status)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: count mutations: %v", entity.ErrDatabaseError, err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMutation(row rowScanner) (*entity.MutationRecord, error) {
	var rec entity.MutationRecord
	var kind, status string
	err := row.Scan(
		&rec.ID,
		&rec.Ref,
		&rec.SessionID,
		&kind,
		&rec.NotificationID,
		&status,
		&rec.Error,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Kind = entity.IndicatorEventKind(kind)
	rec.Status = entity.MutationStatus(status)
	return &rec, nil
}
