package queue

import "context"

// Store persists queue items. Implementations must keep at most one item per
// key: Save upserts by key.
type Store[T any] interface {
	// Load returns all persisted items ordered by Seq.
	Load(ctx context.Context) ([]Item[T], error)
	// Save inserts or replaces the item for item.Key.
	Save(ctx context.Context, item Item[T]) error
	// Delete removes the item with the given ID. Missing IDs are not an error.
	Delete(ctx context.Context, id string) error
}
