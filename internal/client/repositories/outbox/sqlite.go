package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/fieldsync/internal/dbx"
	"github.com/dmitrijs2005/fieldsync/internal/queue"
)

// SQLiteStore implements queue.Store over a DBTX (either *sql.DB or *sql.Tx).
type SQLiteStore[T any] struct {
	db   dbx.DBTX
	kind string
}

var _ queue.Store[struct{}] = (*SQLiteStore[struct{}])(nil)

// NewSQLiteStore returns a store for items of the given kind.
func NewSQLiteStore[T any](db dbx.DBTX, kind string) *SQLiteStore[T] {
	return &SQLiteStore[T]{db: db, kind: kind}
}

// Load returns the items of this kind ordered by seq.
func (s *SQLiteStore[T]) Load(ctx context.Context) ([]queue.Item[T], error) {
	query := `SELECT id, key, seq, payload, draft_id, draft_version, queued_at, attempts, last_error
		FROM queued_items WHERE kind = ? ORDER BY seq`
	rows, err := s.db.QueryContext(ctx, query, s.kind)
	if err != nil {
		return nil, fmt.Errorf("failed to select queued items: %w", err)
	}
	defer rows.Close()

	var result []queue.Item[T]
	for rows.Next() {
		var (
			item     queue.Item[T]
			payload  []byte
			queuedAt int64
		)
		if err := rows.Scan(&item.ID, &item.Key, &item.Seq, &payload,
			&item.Origin.DraftID, &item.Origin.Version, &queuedAt, &item.Attempts, &item.LastError); err != nil {
			return nil, fmt.Errorf("failed to scan queued item: %w", err)
		}
		if err := json.Unmarshal(payload, &item.Payload); err != nil {
			return nil, fmt.Errorf("failed to decode payload of %s/%s: %w", s.kind, item.Key, err)
		}
		item.QueuedAt = time.Unix(0, queuedAt).UTC()
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Save upserts the item by (kind, key).
func (s *SQLiteStore[T]) Save(ctx context.Context, item queue.Item[T]) error {
	payload, err := json.Marshal(item.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	query := `INSERT INTO queued_items
			(kind, key, id, seq, payload, draft_id, draft_version, queued_at, attempts, last_error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(kind, key) DO UPDATE SET id = excluded.id,
			seq = excluded.seq,
			payload = excluded.payload,
			draft_id = excluded.draft_id,
			draft_version = excluded.draft_version,
			queued_at = excluded.queued_at,
			attempts = excluded.attempts,
			last_error = excluded.last_error`
	_, err = s.db.ExecContext(ctx, query, s.kind, item.Key, item.ID, item.Seq, payload,
		item.Origin.DraftID, item.Origin.Version, item.QueuedAt.UnixNano(), item.Attempts, item.LastError)
	if err != nil {
		return fmt.Errorf("failed to upsert queued item: %w", err)
	}
	return nil
}

// Delete removes the item with the given id. A missing id is not an error.
func (s *SQLiteStore[T]) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM queued_items WHERE kind = ? AND id = ?`, s.kind, id)
	if err != nil {
		return fmt.Errorf("failed to delete queued item: %w", err)
	}
	return nil
}
