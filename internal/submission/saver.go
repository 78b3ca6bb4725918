package submission

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Submission is what the save collaborator receives.
type Submission[T any] struct {
	Kind string
	Key  string
	// IdempotencyKey is unique per logical submission. Replays of a queued
	// item reuse it so the collaborator can drop duplicates.
	IdempotencyKey string
	Payload        T
	// Attempt is 1 for the first delivery of a queued item; 1 for direct saves.
	Attempt int
}

// Saver persists a submission. It is the only collaborator a Controller
// depends on; it may be simulated, timed, or backed by a network client.
type Saver[T any] interface {
	Save(ctx context.Context, sub Submission[T]) error
}

// SaverFunc adapts a function to Saver.
type SaverFunc[T any] func(ctx context.Context, sub Submission[T]) error

func (f SaverFunc[T]) Save(ctx context.Context, sub Submission[T]) error { return f(ctx, sub) }

// saveWithTimeout calls saver and gives up after timeout even if the saver
// ignores its context. A late answer is dropped.
func saveWithTimeout[T any](ctx context.Context, saver Saver[T], sub Submission[T], timeout time.Duration) error {
	if saver == nil {
		return ErrNoSaver
	}

	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- saver.Save(sctx, sub) }()

	var err error
	select {
	case err = <-done:
	case <-sctx.Done():
		err = sctx.Err()
	}

	if err != nil && errors.Is(sctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w after %s: %w", ErrSubmitTimeout, timeout, err)
	}
	return err
}
