package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/fieldsync/internal/common"
	"github.com/dmitrijs2005/fieldsync/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Append(ctx context.Context, rec Record) (bool, error) {
	query := `INSERT INTO ledger (idempotency_key, kind, key, payload, attempt, saved_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(idempotency_key) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query,
		rec.IdempotencyKey, rec.Kind, rec.Key, []byte(rec.Payload), rec.Attempt, rec.SavedAt.UnixNano())
	if err != nil {
		return false, fmt.Errorf("failed to append ledger record: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return ra == 1, nil
}

func (r *SQLiteRepository) List(ctx context.Context, kind string) ([]Record, error) {
	query := `SELECT idempotency_key, kind, key, payload, attempt, saved_at FROM ledger
		WHERE (? = '' OR kind = ?) ORDER BY saved_at, rowid`
	rows, err := r.db.QueryContext(ctx, query, kind, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to select ledger records: %w", err)
	}
	defer rows.Close()

	var result []Record
	for rows.Next() {
		rec, err := scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Latest(ctx context.Context, kind, key string) (*Record, error) {
	query := `SELECT idempotency_key, kind, key, payload, attempt, saved_at FROM ledger
		WHERE kind = ? AND key = ? ORDER BY saved_at DESC, rowid DESC LIMIT 1`
	rec, err := scan(r.db.QueryRowContext(ctx, query, kind, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	return rec, err
}

func (r *SQLiteRepository) Count(ctx context.Context, kind string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ledger WHERE kind = ?`, kind).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count ledger records: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*Record, error) {
	var (
		rec     Record
		payload []byte
		savedAt int64
	)
	if err := row.Scan(&rec.IdempotencyKey, &rec.Kind, &rec.Key, &payload, &rec.Attempt, &savedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan ledger record: %w", err)
	}
	rec.Payload = payload
	rec.SavedAt = time.Unix(0, savedAt).UTC()
	return &rec, nil
}
