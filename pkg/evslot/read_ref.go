package evslot

import (
	"iter"

	"github.com/calvinalkan/evslot/pkg/evslot/internal/slotmap"
)

// ReadRef is an open read section on one copy of the map.
//
// While a ReadRef is open the copy it reads cannot change, and every write
// call blocks until the ReadRef is closed. Pointers returned by Get and All
// are only valid until Close.
type ReadRef[V any] struct {
	handle *ReadHandle[V]
	data   *slotmap.Map[V]
}

func (ref *ReadRef[V]) mustOpen() {
	if ref.data == nil {
		panic("evslot: ReadRef used after Close")
	}
}

// Close ends the read section. Calling Close more than once is a no-op.
func (ref *ReadRef[V]) Close() {
	if ref.data == nil {
		return
	}

	ref.data = nil
	ref.handle.leave()
}

// Get returns a pointer to the value stored under key.
func (ref *ReadRef[V]) Get(key Key) (*V, bool) {
	ref.mustOpen()

	return ref.data.Get(key)
}

// ContainsKey reports whether key is live.
func (ref *ReadRef[V]) ContainsKey(key Key) bool {
	ref.mustOpen()

	return ref.data.Contains(key)
}

// Len returns the number of stored values.
func (ref *ReadRef[V]) Len() int {
	ref.mustOpen()

	return ref.data.Len()
}

// IsEmpty reports whether the map holds no values.
func (ref *ReadRef[V]) IsEmpty() bool {
	return ref.Len() == 0
}

// All iterates over all values in slot order.
func (ref *ReadRef[V]) All() iter.Seq2[Key, *V] {
	ref.mustOpen()

	return ref.data.All()
}

// Snapshot exports the complete state of the copy, including vacant slots,
// their generations and the order in which they will be reused.
//
// Each value in the snapshot is a new owner created with the map's
// ShallowCopier; the caller is responsible for it.
func (ref *ReadRef[V]) Snapshot() Snapshot[V] {
	ref.mustOpen()

	return snapshotFromState(ref.data.Export(ref.handle.core.copier.ShallowCopy))
}
