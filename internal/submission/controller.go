package submission

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/fieldsync/internal/common"
	"github.com/dmitrijs2005/fieldsync/internal/draft"
	"github.com/dmitrijs2005/fieldsync/internal/logging"
	"github.com/dmitrijs2005/fieldsync/internal/metrics"
	"github.com/dmitrijs2005/fieldsync/internal/queue"
	"github.com/google/uuid"
)

const DefaultTimeout = 10 * time.Second

// StateListener is called after every transition, outside the controller lock.
type StateListener func(from, to State)

// Controller submits one draft through a Saver.
type Controller[T any] struct {
	mu      sync.Mutex
	state   State
	lastErr error

	kind  string
	key   string
	draft *draft.Draft[T]
	saver Saver[T]

	syncer     *Syncer[T]
	unregister func()

	// resumed maps an item queued by an earlier draft of this record to the
	// snapshot of this draft that now holds its payload.
	resumedID     string
	resumedOrigin queue.Origin

	validate  func(T) error
	stamp     func(v *T)
	timeout   time.Duration
	log       logging.Logger
	rec       metrics.Recorder
	newID     func() string
	now       func() time.Time
	listeners []StateListener
}

// ControllerOption customizes a Controller.
type ControllerOption[T any] func(*Controller[T])

// WithSyncer attaches the controller to a syncer: submissions made while the
// syncer is offline are queued, and flushed deliveries are reported back.
func WithSyncer[T any](s *Syncer[T]) ControllerOption[T] {
	return func(c *Controller[T]) { c.syncer = s }
}

// WithValidator rejects drafts before anything is sent or queued.
func WithValidator[T any](fn func(T) error) ControllerOption[T] {
	return func(c *Controller[T]) { c.validate = fn }
}

// WithStamp edits the draft right before an accepted submission is sent or
// queued, e.g. to set a capture time. Skipped and rejected submissions leave
// the draft untouched.
func WithStamp[T any](fn func(v *T)) ControllerOption[T] {
	return func(c *Controller[T]) { c.stamp = fn }
}

// WithTimeout bounds a single save. Non-positive values keep the default.
func WithTimeout[T any](d time.Duration) ControllerOption[T] {
	return func(c *Controller[T]) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger[T any](l logging.Logger) ControllerOption[T] {
	return func(c *Controller[T]) { c.log = l }
}

func WithRecorder[T any](r metrics.Recorder) ControllerOption[T] {
	return func(c *Controller[T]) { c.rec = r }
}

// OnStateChange registers a transition listener.
func OnStateChange[T any](fn StateListener) ControllerOption[T] {
	return func(c *Controller[T]) { c.listeners = append(c.listeners, fn) }
}

// NewController returns an Idle controller for the record identified by
// kind and key. saver may be nil when a syncer is attached; the syncer's
// saver is used then.
//
// If the syncer's queue already holds an item for key that was taken from
// another draft, for example before a restart, the draft is set to the queued
// payload and the controller starts Queued until that item is delivered.
func NewController[T any](kind, key string, d *draft.Draft[T], saver Saver[T], opts ...ControllerOption[T]) *Controller[T] {
	c := &Controller[T]{
		kind:    kind,
		key:     key,
		draft:   d,
		saver:   saver,
		timeout: DefaultTimeout,
		log:     logging.Discard(),
		rec:     metrics.NoopRecorder{},
		newID:   uuid.NewString,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("kind", kind, "key", key)

	if c.syncer != nil {
		if c.saver == nil {
			c.saver = c.syncer.saver
		}
		if item, ok := c.syncer.queue.Get(key); ok && item.Origin.DraftID != d.ID() {
			c.resume(item)
		}
		c.unregister = c.syncer.register(key, c)
	}
	return c
}

func (c *Controller[T]) Kind() string { return c.kind }

func (c *Controller[T]) Key() string { return c.key }

// Draft returns the controlled draft. Edits made on it directly do not move
// the state back to Idle; prefer the controller's edit methods.
func (c *Controller[T]) Draft() *draft.Draft[T] { return c.draft }

// State returns the current state.
func (c *Controller[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the error of the last failed submission, nil otherwise.
func (c *Controller[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// CanSubmit reports whether a save action should be offered: the draft is
// dirty and nothing is pending.
func (c *Controller[T]) CanSubmit() bool {
	return c.State() != StatePending && c.draft.IsDirty()
}

// Close detaches the controller from its syncer.
func (c *Controller[T]) Close() {
	if c.unregister != nil {
		c.unregister()
	}
}

func (c *Controller[T]) Update(partial T) error {
	if err := c.draft.Update(partial); err != nil {
		return err
	}
	c.touch()
	return nil
}

func (c *Controller[T]) Edit(fn func(v *T)) {
	c.draft.Edit(fn)
	c.touch()
}

func (c *Controller[T]) Set(v T) {
	c.draft.Set(v)
	c.touch()
}

func (c *Controller[T]) Reset() {
	c.draft.Reset()
	c.touch()
}

// Submit saves the current draft value. See Outcome for the possible results.
// A returned error is non-nil only for OutcomeInvalid and OutcomeFailed.
func (c *Controller[T]) Submit(ctx context.Context) (Outcome, error) {
	start := c.now()

	c.mu.Lock()
	if c.state == StatePending {
		c.mu.Unlock()
		c.log.Debug(ctx, "submit ignored, already pending")
		return OutcomeBusy, nil
	}
	if !c.draft.IsDirty() {
		c.mu.Unlock()
		c.log.Debug(ctx, "submit skipped, draft is clean")
		return OutcomeSkipped, nil
	}

	snap := c.draft.Snapshot()

	if c.validate != nil {
		if err := c.validate(snap.Value); err != nil {
			c.mu.Unlock()
			if !errors.Is(err, common.ErrValidation) {
				err = fmt.Errorf("%w: %w", common.ErrValidation, err)
			}
			c.log.Debug(ctx, "submit rejected by validator", "error", err)
			c.rec.ObserveSubmission(c.kind, string(OutcomeInvalid), c.now().Sub(start))
			return OutcomeInvalid, err
		}
	}
	if c.stamp != nil {
		c.draft.Edit(c.stamp)
		snap = c.draft.Snapshot()
	}

	if c.syncer != nil && !c.syncer.Online() {
		_, err := c.syncer.enqueue(ctx, c.key, snap)
		from := c.state
		if err != nil {
			c.state, c.lastErr = StateFailure, err
		} else {
			c.state, c.lastErr = StateQueued, nil
		}
		to := c.state
		c.mu.Unlock()
		c.notify(from, to)

		if err != nil {
			c.log.Error(ctx, "queue submission failed", "error", err)
			c.rec.ObserveSubmission(c.kind, string(OutcomeFailed), c.now().Sub(start))
			return OutcomeFailed, err
		}
		c.log.Info(ctx, "offline, submission queued", "version", snap.Version)
		c.rec.ObserveSubmission(c.kind, string(OutcomeQueued), c.now().Sub(start))
		return OutcomeQueued, nil
	}

	from := c.state
	c.state, c.lastErr = StatePending, nil
	c.mu.Unlock()
	c.notify(from, StatePending)

	sub := Submission[T]{
		Kind:           c.kind,
		Key:            c.key,
		IdempotencyKey: c.newID(),
		Payload:        snap.Value,
		Attempt:        1,
	}
	err := saveWithTimeout(ctx, c.saver, sub, c.timeout)
	if err != nil {
		c.finish(StateFailure, err)
		c.log.Warn(ctx, "submission failed", "error", err)
		c.rec.ObserveSubmission(c.kind, string(OutcomeFailed), c.now().Sub(start))
		return OutcomeFailed, err
	}

	current := c.draft.CommitSnapshot(snap)
	if c.syncer != nil {
		// a direct save supersedes anything queued earlier for this record
		if _, rerr := c.syncer.settle(ctx, c.key); rerr != nil {
			c.log.Warn(ctx, "drop superseded queue item", "error", rerr)
		}
	}
	c.finish(StateSuccess, nil)

	outcome := OutcomeCommitted
	if !current {
		outcome = OutcomeStale
		c.log.Info(ctx, "submission saved, draft edited meanwhile", "version", snap.Version)
	} else {
		c.log.Info(ctx, "submission saved", "version", snap.Version)
	}
	c.rec.ObserveSubmission(c.kind, string(outcome), c.now().Sub(start))
	return outcome, nil
}

func (c *Controller[T]) resume(item queue.Item[T]) {
	c.draft.Set(item.Payload)
	snap := c.draft.Snapshot()
	c.resumedID = item.ID
	c.resumedOrigin = queue.Origin{DraftID: snap.DraftID, Version: snap.Version}
	c.state = StateQueued
}

// delivered is called by the syncer after a queued item for this key was
// saved by a flush.
func (c *Controller[T]) delivered(ctx context.Context, item queue.Item[T]) {
	c.mu.Lock()
	origin := item.Origin
	if item.ID == c.resumedID {
		origin = c.resumedOrigin
	}
	c.mu.Unlock()

	c.draft.CommitSnapshot(draft.Snapshot[T]{
		DraftID: origin.DraftID,
		Version: origin.Version,
		Value:   item.Payload,
	})

	c.mu.Lock()
	if queued, ok := c.syncer.queue.Get(c.key); ok && queued.ID != item.ID {
		// replaced by a newer submission while this one was in flight
		c.mu.Unlock()
		c.log.Debug(ctx, "delivered item superseded", "id", item.ID, "pending", queued.ID)
		return
	}
	if st := c.state; st != StateQueued {
		c.mu.Unlock()
		c.log.Debug(ctx, "queued submission delivered", "state", st.String())
		return
	}
	c.state = StateSuccess
	c.mu.Unlock()

	c.log.Info(ctx, "queued submission delivered")
	c.notify(StateQueued, StateSuccess)
}

func (c *Controller[T]) touch() {
	c.mu.Lock()
	from := c.state
	switch from {
	case StateSuccess, StateFailure, StateQueued:
		c.state = StateIdle
		c.lastErr = nil
	default:
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.notify(from, StateIdle)
}

func (c *Controller[T]) finish(to State, err error) {
	c.mu.Lock()
	from := c.state
	c.state, c.lastErr = to, err
	c.mu.Unlock()
	c.notify(from, to)
}

func (c *Controller[T]) notify(from, to State) {
	if from == to {
		return
	}
	for _, fn := range c.listeners {
		fn(from, to)
	}
}
