// Package metadata keeps small bookkeeping values of the local client, such
// as when each record kind was last synced.
package metadata

import (
	"context"
	"time"
)

type Repository interface {
	// Get returns the raw value for key or common.ErrorNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)

	// LastSync returns when a flush last delivered items of kind. The zero
	// time means never.
	LastSync(ctx context.Context, kind string) (time.Time, error)
	MarkSynced(ctx context.Context, kind string, at time.Time) error
}
