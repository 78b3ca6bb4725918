package draft

import (
	"reflect"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// Option customizes a Draft.
type Option[T any] func(*Draft[T])

// WithClone sets the deep-copy function used for values crossing the Draft
// boundary.
func WithClone[T any](fn func(T) T) Option[T] {
	return func(d *Draft[T]) {
		if fn != nil {
			d.clone = fn
		}
	}
}

// WithEqual sets the structural equality used by IsDirty.
func WithEqual[T any](fn func(a, b T) bool) Option[T] {
	return func(d *Draft[T]) {
		if fn != nil {
			d.equal = fn
		}
	}
}

// WithCmpOptions appends go-cmp options to the default comparison, e.g.
// cmpopts.IgnoreFields for volatile fields.
func WithCmpOptions[T any](opts ...cmp.Option) Option[T] {
	return func(d *Draft[T]) {
		d.cmpOpts = append(d.cmpOpts, opts...)
	}
}

// defaultCmpOptions treats nil and empty as equal and compares unexported
// fields instead of panicking on them.
func defaultCmpOptions() []cmp.Option {
	return []cmp.Option{
		cmpopts.EquateEmpty(),
		cmp.Exporter(func(reflect.Type) bool { return true }),
	}
}
