package ledger

import (
	"context"
	"encoding/json"
	"time"
)

// Record is one accepted submission.
type Record struct {
	IdempotencyKey string
	Kind           string
	Key            string
	Payload        json.RawMessage
	Attempt        int
	SavedAt        time.Time
}

// Repository describes ledger persistence.
type Repository interface {
	// Append stores r. It reports false, without error, when a record with
	// the same idempotency key already exists.
	Append(ctx context.Context, r Record) (bool, error)

	// List returns records in the order they were saved. An empty kind lists
	// every kind.
	List(ctx context.Context, kind string) ([]Record, error)

	// Latest returns the most recent record for kind and key, or
	// common.ErrorNotFound.
	Latest(ctx context.Context, kind, key string) (*Record, error)

	// Count returns the number of records of a kind.
	Count(ctx context.Context, kind string) (int, error)
}
