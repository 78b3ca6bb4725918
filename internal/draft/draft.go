package draft

import (
	"fmt"
	"reflect"
	"sync"

	"dario.cat/mergo"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

// Draft is an editable copy of a record paired with its last committed value.
type Draft[T any] struct {
	mu       sync.RWMutex
	id       string
	value    T
	baseline T
	version  uint64

	clone   func(T) T
	equal   func(a, b T) bool
	cmpOpts []cmp.Option
}

// Snapshot is a frozen copy of a draft value taken at a given version.
type Snapshot[T any] struct {
	DraftID string
	Version uint64
	Value   T
}

// New returns a Draft whose value and baseline both equal initial.
func New[T any](initial T, opts ...Option[T]) *Draft[T] {
	d := &Draft[T]{
		id:      uuid.NewString(),
		clone:   deepCopy[T],
		cmpOpts: defaultCmpOptions(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.value = d.clone(initial)
	d.baseline = d.clone(initial)
	return d
}

// ID identifies this draft instance. Two drafts of the same record have
// different IDs.
func (d *Draft[T]) ID() string {
	return d.id
}

// Value returns a copy of the current working value.
func (d *Draft[T]) Value() T {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.clone(d.value)
}

// Baseline returns a copy of the last committed value.
func (d *Draft[T]) Baseline() T {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.clone(d.baseline)
}

// Version returns the edit counter. It starts at zero.
func (d *Draft[T]) Version() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.version
}

// Set replaces the working value.
func (d *Draft[T]) Set(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.value = d.clone(v)
	d.version++
}

// Update merges the non-zero fields of partial into the working value.
// Nested structs and maps are merged recursively; slices are replaced.
// Zero values in partial are ignored, use Edit to clear a field. For other
// kinds of T a non-zero partial replaces the value.
func (d *Draft[T]) Update(partial T) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	next := d.clone(d.value)
	pv := reflect.ValueOf(&partial).Elem()
	if mergeable(pv.Type()) {
		if err := mergo.Merge(&next, d.clone(partial), mergo.WithOverride); err != nil {
			return fmt.Errorf("merge draft: %w", err)
		}
	} else if !pv.IsZero() {
		next = d.clone(partial)
	}
	d.value = next
	d.version++
	return nil
}

// Edit applies fn to a copy of the working value and stores the result.
func (d *Draft[T]) Edit(fn func(v *T)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	next := d.clone(d.value)
	fn(&next)
	d.value = next
	d.version++
}

// Reset discards edits: value = baseline.
func (d *Draft[T]) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.value = d.clone(d.baseline)
	d.version++
}

// Commit marks the working value as persisted: baseline = value.
func (d *Draft[T]) Commit() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.baseline = d.clone(d.value)
}

// Snapshot captures the working value together with the current version.
func (d *Draft[T]) Snapshot() Snapshot[T] {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return Snapshot[T]{DraftID: d.id, Version: d.version, Value: d.clone(d.value)}
}

// CommitSnapshot records a persisted snapshot as the new baseline and reports
// whether it was still current. The working value is never touched, so edits
// made after the snapshot was taken survive and keep the draft dirty.
// Snapshots from another draft instance are ignored.
func (d *Draft[T]) CommitSnapshot(s Snapshot[T]) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if s.DraftID != d.id {
		return false
	}
	d.baseline = d.clone(s.Value)
	return s.Version == d.version
}

// IsDirty reports whether the working value differs from the baseline.
func (d *Draft[T]) IsDirty() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return !d.equalLocked(d.value, d.baseline)
}

// Diff describes how the working value differs from the baseline
// (-baseline +value). It is empty when the draft is clean.
func (d *Draft[T]) Diff() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.equal != nil {
		if d.equal(d.value, d.baseline) {
			return ""
		}
	}
	return cmp.Diff(d.baseline, d.value, d.cmpOpts...)
}

func (d *Draft[T]) equalLocked(a, b T) bool {
	if d.equal != nil {
		return d.equal(a, b)
	}
	return cmp.Equal(a, b, d.cmpOpts...)
}
