package evslot

import "sync/atomic"

// ShallowCopier duplicates values into the second copy of the map without a
// deep copy, and releases owners the map no longer needs.
//
// Both methods must be total: they must not panic and must not fail. The map
// calls ShallowCopy exactly once per stored value when a write is applied to
// the first copy, and relies on it completing before the write is published.
type ShallowCopier[V any] interface {
	// ShallowCopy returns a second logical owner of v's data without
	// allocating a new backing store.
	ShallowCopy(v V) V

	// Release drops one logical owner of v without affecting the other.
	Release(v V)
}

// CopyValues is the ShallowCopier for types with plain value semantics.
//
// ShallowCopy returns v as is and Release does nothing. This is also correct
// for slices, maps and pointers that are never mutated after being stored:
// the map only ever replaces stored values, it never writes through them.
type CopyValues[V any] struct{}

// ShallowCopy returns v.
func (CopyValues[V]) ShallowCopy(v V) V { return v }

// Release is a no-op.
func (CopyValues[V]) Release(V) {}

// Rc is a reference-counted value. The free callback runs exactly once, when
// the last owner releases it.
type Rc[T any] struct {
	value T
	refs  atomic.Int64
	free  func(T)
}

// NewRc returns an Rc holding v with a single owner. free may be nil.
func NewRc[T any](v T, free func(T)) *Rc[T] {
	rc := &Rc[T]{value: v, free: free}
	rc.refs.Store(1)

	return rc
}

// Value returns the wrapped value.
func (rc *Rc[T]) Value() T {
	return rc.value
}

// Refs returns the current number of owners.
func (rc *Rc[T]) Refs() int64 {
	return rc.refs.Load()
}

// Retain adds an owner and returns rc.
func (rc *Rc[T]) Retain() *Rc[T] {
	if rc == nil {
		return nil
	}

	rc.refs.Add(1)

	return rc
}

// Release drops an owner. The last Release runs the free callback.
// Releasing more times than retained panics.
func (rc *Rc[T]) Release() {
	if rc == nil {
		return
	}

	switch n := rc.refs.Add(-1); {
	case n == 0:
		if rc.free != nil {
			rc.free(rc.value)
		}
	case n < 0:
		panic("evslot: Rc released more times than retained")
	}
}

// RcCopier is the ShallowCopier for *Rc values.
type RcCopier[T any] struct{}

// ShallowCopy retains rc.
func (RcCopier[T]) ShallowCopy(rc *Rc[T]) *Rc[T] { return rc.Retain() }

// Release releases rc.
func (RcCopier[T]) Release(rc *Rc[T]) { rc.Release() }
