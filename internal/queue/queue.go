package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/fieldsync/internal/common"
	"github.com/google/uuid"
)

// SendFunc delivers one queued item. Returning an error that wraps
// common.ErrUnavailable ends the current flush pass.
type SendFunc[T any] func(ctx context.Context, item Item[T]) error

// OfflineQueue is a FIFO of submissions deferred while offline. Payloads are
// treated as immutable once queued.
type OfflineQueue[T any] struct {
	mu    sync.Mutex
	items []Item[T]
	seq   int64

	store    Store[T]
	now      func() time.Time
	newID    func() string
	onDepth  func(depth int)
	flushing atomic.Bool
}

// Option customizes an OfflineQueue.
type Option[T any] func(*OfflineQueue[T])

// WithStore enables write-through persistence.
func WithStore[T any](s Store[T]) Option[T] {
	return func(q *OfflineQueue[T]) { q.store = s }
}

// WithClock overrides time.Now, for tests.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(q *OfflineQueue[T]) { q.now = now }
}

// WithDepthHook registers a callback receiving the queue length after every
// change. It is called without the queue lock held.
func WithDepthHook[T any](fn func(depth int)) Option[T] {
	return func(q *OfflineQueue[T]) { q.onDepth = fn }
}

// New returns an empty queue.
func New[T any](opts ...Option[T]) *OfflineQueue[T] {
	q := &OfflineQueue[T]{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Open returns a queue backed by store and preloaded with its items.
func Open[T any](ctx context.Context, store Store[T], opts ...Option[T]) (*OfflineQueue[T], error) {
	q := New(append(opts, WithStore(store))...)

	items, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load queue: %w", err)
	}

	q.items = items
	for _, it := range items {
		if it.Seq > q.seq {
			q.seq = it.Seq
		}
	}
	q.notifyDepth(len(items))
	return q, nil
}

// Enqueue appends payload under key and returns the stored item. If key is
// already queued its payload is replaced in place.
func (q *OfflineQueue[T]) Enqueue(ctx context.Context, key string, payload T, origin Origin) (Item[T], error) {
	if key == "" {
		return Item[T]{}, ErrEmptyKey
	}

	q.mu.Lock()

	idx := q.indexByKeyLocked(key)
	var item Item[T]
	if idx >= 0 {
		item = q.items[idx]
	} else {
		item = Item[T]{Key: key, Seq: q.seq + 1}
	}
	item.ID = q.newID()
	item.Payload = payload
	item.Origin = origin
	item.QueuedAt = q.now().UTC()
	item.Attempts = 0
	item.LastError = ""

	if err := q.save(ctx, item); err != nil {
		q.mu.Unlock()
		return Item[T]{}, err
	}

	if idx >= 0 {
		q.items[idx] = item
	} else {
		q.seq = item.Seq
		q.items = append(q.items, item)
	}
	depth := len(q.items)
	q.mu.Unlock()

	q.notifyDepth(depth)
	return item, nil
}

// Remove deletes the item queued under key. It reports whether one existed.
func (q *OfflineQueue[T]) Remove(ctx context.Context, key string) (bool, error) {
	q.mu.Lock()
	idx := q.indexByKeyLocked(key)
	if idx < 0 {
		q.mu.Unlock()
		return false, nil
	}
	removed, err := q.removeAtLocked(ctx, idx)
	depth := len(q.items)
	q.mu.Unlock()

	if removed {
		q.notifyDepth(depth)
	}
	return removed, err
}

// Len returns the number of queued items.
func (q *OfflineQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Items returns a copy of the queue in FIFO order.
func (q *OfflineQueue[T]) Items() []Item[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Item[T], len(q.items))
	copy(out, q.items)
	return out
}

// Get returns the item queued under key.
func (q *OfflineQueue[T]) Get(key string) (Item[T], bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	idx := q.indexByKeyLocked(key)
	if idx < 0 {
		return Item[T]{}, false
	}
	return q.items[idx], true
}

// Flushing reports whether a flush pass is running.
func (q *OfflineQueue[T]) Flushing() bool {
	return q.flushing.Load()
}

// Flush sends queued items in FIFO order, see the package documentation for
// the stop conditions. online may be nil. Store failures do not stop the pass;
// they are joined into the returned error.
func (q *OfflineQueue[T]) Flush(ctx context.Context, send SendFunc[T], online func() bool) (FlushReport, error) {
	if !q.flushing.CompareAndSwap(false, true) {
		return FlushReport{}, ErrFlushInProgress
	}
	defer q.flushing.Store(false)

	var (
		report FlushReport
		errs   []error
	)

	for _, item := range q.Items() {
		if ctx.Err() != nil || (online != nil && !online()) {
			report.Interrupted = true
			break
		}

		report.Attempted++
		err := send(ctx, item)
		if err == nil {
			report.Delivered++
			if _, derr := q.removeByID(ctx, item.ID); derr != nil {
				errs = append(errs, derr)
			}
			continue
		}

		report.Failed++
		if serr := q.markFailed(ctx, item.ID, err); serr != nil {
			errs = append(errs, serr)
		}
		if errors.Is(err, common.ErrUnavailable) || ctx.Err() != nil {
			report.Interrupted = true
			break
		}
	}

	report.Remaining = q.Len()
	return report, errors.Join(errs...)
}

func (q *OfflineQueue[T]) removeByID(ctx context.Context, id string) (bool, error) {
	q.mu.Lock()
	idx := -1
	for i := range q.items {
		if q.items[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		q.mu.Unlock()
		return false, nil
	}
	removed, err := q.removeAtLocked(ctx, idx)
	depth := len(q.items)
	q.mu.Unlock()

	if removed {
		q.notifyDepth(depth)
	}
	return removed, err
}

func (q *OfflineQueue[T]) markFailed(ctx context.Context, id string, cause error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.items {
		if q.items[i].ID != id {
			continue
		}
		item := q.items[i]
		item.Attempts++
		item.LastError = cause.Error()
		if err := q.save(ctx, item); err != nil {
			return err
		}
		q.items[i] = item
		return nil
	}
	return nil
}

func (q *OfflineQueue[T]) removeAtLocked(ctx context.Context, idx int) (bool, error) {
	item := q.items[idx]
	if q.store != nil {
		if err := q.store.Delete(ctx, item.ID); err != nil {
			return false, fmt.Errorf("delete queued item %s: %w", item.ID, err)
		}
	}
	q.items = append(q.items[:idx], q.items[idx+1:]...)
	return true, nil
}

func (q *OfflineQueue[T]) save(ctx context.Context, item Item[T]) error {
	if q.store == nil {
		return nil
	}
	if err := q.store.Save(ctx, item); err != nil {
		return fmt.Errorf("save queued item %s: %w", item.Key, err)
	}
	return nil
}

func (q *OfflineQueue[T]) indexByKeyLocked(key string) int {
	for i := range q.items {
		if q.items[i].Key == key {
			return i
		}
	}
	return -1
}

func (q *OfflineQueue[T]) notifyDepth(depth int) {
	if q.onDepth != nil {
		q.onDepth(depth)
	}
}
