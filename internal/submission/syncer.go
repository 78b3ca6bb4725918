package submission

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/fieldsync/internal/connectivity"
	"github.com/dmitrijs2005/fieldsync/internal/draft"
	"github.com/dmitrijs2005/fieldsync/internal/logging"
	"github.com/dmitrijs2005/fieldsync/internal/metrics"
	"github.com/dmitrijs2005/fieldsync/internal/queue"
)

// Flush results reported to the metrics recorder.
const (
	FlushComplete    = "complete"
	FlushInterrupted = "interrupted"
	FlushBusy        = "busy"
	FlushEmpty       = "empty"
	FlushError       = "error"
)

var ErrSyncerClosed = errors.New("syncer closed")

type deliveryHandler[T any] interface {
	delivered(ctx context.Context, item queue.Item[T])
}

// FlushListener receives the result of every completed flush pass.
type FlushListener func(report queue.FlushReport, err error)

// Syncer replays the offline queue of one record kind when connectivity
// returns.
type Syncer[T any] struct {
	kind    string
	queue   *queue.OfflineQueue[T]
	saver   Saver[T]
	signal  connectivity.Signal
	timeout time.Duration
	log     logging.Logger
	rec     metrics.Recorder
	onFlush []FlushListener

	mu          sync.Mutex
	handlers    map[string]deliveryHandler[T]
	started     bool
	closed      bool
	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()
	wg          sync.WaitGroup
}

// SyncerOption customizes a Syncer.
type SyncerOption[T any] func(*Syncer[T])

func WithSyncLogger[T any](l logging.Logger) SyncerOption[T] {
	return func(s *Syncer[T]) { s.log = l }
}

func WithSyncRecorder[T any](r metrics.Recorder) SyncerOption[T] {
	return func(s *Syncer[T]) { s.rec = r }
}

// WithSendTimeout bounds each replayed save. Non-positive values keep the default.
func WithSendTimeout[T any](d time.Duration) SyncerOption[T] {
	return func(s *Syncer[T]) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// OnFlush registers a listener for flush results.
func OnFlush[T any](fn FlushListener) SyncerOption[T] {
	return func(s *Syncer[T]) { s.onFlush = append(s.onFlush, fn) }
}

// NewSyncer wires a queue, a saver and a connectivity signal together. Call
// Start to begin reacting to the signal.
func NewSyncer[T any](kind string, q *queue.OfflineQueue[T], saver Saver[T], signal connectivity.Signal, opts ...SyncerOption[T]) *Syncer[T] {
	s := &Syncer[T]{
		kind:     kind,
		queue:    q,
		saver:    saver,
		signal:   signal,
		timeout:  DefaultTimeout,
		log:      logging.Discard(),
		rec:      metrics.NoopRecorder{},
		handlers: make(map[string]deliveryHandler[T]),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("kind", kind)
	s.rec.SetQueueDepth(kind, q.Len())
	return s
}

// Start subscribes to the signal. Every offline to online transition
// triggers a background flush. If the signal is already online and the
// queue holds items restored from storage, a flush starts right away.
func (s *Syncer[T]) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSyncerClosed
	}
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	unsubscribe := s.signal.Subscribe(func(online bool) {
		if online {
			s.trigger()
		}
	})

	s.mu.Lock()
	s.unsubscribe = unsubscribe
	s.mu.Unlock()

	if s.signal.Online() && s.queue.Len() > 0 {
		s.trigger()
	}
	return nil
}

// Close stops reacting to the signal and waits for a running flush.
func (s *Syncer[T]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	unsubscribe, cancel := s.unsubscribe, s.cancel
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

func (s *Syncer[T]) Kind() string { return s.kind }

func (s *Syncer[T]) Online() bool { return s.signal.Online() }

// Queue exposes the underlying queue for inspection.
func (s *Syncer[T]) Queue() *queue.OfflineQueue[T] { return s.queue }

// Pending returns the number of queued items.
func (s *Syncer[T]) Pending() int { return s.queue.Len() }

// FlushAll performs one flush pass. Each queued item is saved with its ID
// as idempotency key and, once saved, handed to the controller that queued
// it. Calling FlushAll while another pass runs returns
// queue.ErrFlushInProgress.
func (s *Syncer[T]) FlushAll(ctx context.Context) (queue.FlushReport, error) {
	pending := s.queue.Len()
	if pending == 0 {
		s.rec.IncFlush(s.kind, FlushEmpty)
		return queue.FlushReport{}, nil
	}
	s.log.Info(ctx, "syncing queued submissions", "pending", pending)

	report, err := s.queue.Flush(ctx, s.send, s.signal.Online)
	switch {
	case errors.Is(err, queue.ErrFlushInProgress):
		s.rec.IncFlush(s.kind, FlushBusy)
		s.log.Debug(ctx, "flush already running")
		return report, err
	case err != nil:
		s.rec.IncFlush(s.kind, FlushError)
		s.log.Error(ctx, "flush finished with store errors", "error", err)
	case report.Interrupted:
		s.rec.IncFlush(s.kind, FlushInterrupted)
	default:
		s.rec.IncFlush(s.kind, FlushComplete)
	}
	s.rec.IncFlushedItems(s.kind, report.Delivered, report.Failed)
	s.rec.SetQueueDepth(s.kind, report.Remaining)

	s.log.Info(ctx, "flush finished",
		"attempted", report.Attempted,
		"delivered", report.Delivered,
		"failed", report.Failed,
		"remaining", report.Remaining,
		"interrupted", report.Interrupted,
	)
	for _, fn := range s.onFlush {
		fn(report, err)
	}
	return report, err
}

func (s *Syncer[T]) send(ctx context.Context, item queue.Item[T]) error {
	sub := Submission[T]{
		Kind:           s.kind,
		Key:            item.Key,
		IdempotencyKey: item.ID,
		Payload:        item.Payload,
		Attempt:        item.Attempts + 1,
	}
	if err := saveWithTimeout(ctx, s.saver, sub, s.timeout); err != nil {
		s.log.Warn(ctx, "replay failed", "key", item.Key, "attempt", sub.Attempt, "error", err)
		return err
	}

	s.mu.Lock()
	h := s.handlers[item.Key]
	s.mu.Unlock()
	if h != nil {
		h.delivered(ctx, item)
	}
	return nil
}

func (s *Syncer[T]) trigger() {
	s.mu.Lock()
	if s.closed || s.ctx == nil {
		s.mu.Unlock()
		return
	}
	ctx := s.ctx
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		_, _ = s.FlushAll(ctx)
	}()
}

func (s *Syncer[T]) register(key string, h deliveryHandler[T]) func() {
	s.mu.Lock()
	s.handlers[key] = h
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.handlers[key] == h {
				delete(s.handlers, key)
			}
		})
	}
}

func (s *Syncer[T]) enqueue(ctx context.Context, key string, snap draft.Snapshot[T]) (queue.Item[T], error) {
	item, err := s.queue.Enqueue(ctx, key, snap.Value, queue.Origin{DraftID: snap.DraftID, Version: snap.Version})
	if err != nil {
		return item, err
	}
	s.rec.SetQueueDepth(s.kind, s.queue.Len())
	return item, nil
}

func (s *Syncer[T]) settle(ctx context.Context, key string) (bool, error) {
	removed, err := s.queue.Remove(ctx, key)
	if removed {
		s.rec.SetQueueDepth(s.kind, s.queue.Len())
	}
	return removed, err
}
