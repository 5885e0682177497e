package evslot

import (
	"fmt"

	"github.com/calvinalkan/evslot/pkg/evslot/internal/slotmap"
)

// ReadHandle reads a map without locks.
//
// A ReadHandle owns an epoch cell that tells the writer when the handle is
// inside a read section, so a handle must not be used by more than one
// goroutine at a time. Use [ReadHandle.Clone] or a [ReadHandleFactory] to
// get a handle per goroutine.
//
// Reads never wait for the writer. Every read is served from a single
// copy of the map, so it sees either all of a write or none of it.
type ReadHandle[V any] struct {
	core *core[V]
	cell *epochCell

	// depth counts nested read sections; gen is the generation the
	// outermost one observed.
	depth  int
	gen    uint64
	closed bool
}

func (r *ReadHandle[V]) mustOpen() {
	if r.closed {
		panic(fmt.Errorf("read handle: %w", ErrClosed))
	}
}

// enter starts a read section and returns the copy to read from. It returns
// false, without an open section, if the writer closed the map.
func (r *ReadHandle[V]) enter() (*slotmap.Map[V], bool) {
	r.mustOpen()

	if r.depth > 0 {
		r.depth++

		return r.core.bufs[r.gen&1], true
	}

	g := r.core.enter(r.cell)
	if g&closedBit != 0 {
		r.cell.leave()

		return nil, false
	}

	r.depth = 1
	r.gen = g

	return r.core.bufs[g&1], true
}

func (r *ReadHandle[V]) leave() {
	r.depth--
	if r.depth == 0 {
		r.cell.leave()
	}
}

// Get returns a copy of the value stored under key.
//
// The copy is taken inside the read section. For reference-counted values
// the returned value is borrowed; use [ReadHandle.Read] and retain it inside
// the section to keep it past later writes.
func (r *ReadHandle[V]) Get(key Key) (V, bool) {
	var zero V

	m, ok := r.enter()
	if !ok {
		return zero, false
	}
	defer r.leave()

	p, ok := m.Get(key)
	if !ok {
		return zero, false
	}

	return *p, true
}

// ContainsKey reports whether key is live.
func (r *ReadHandle[V]) ContainsKey(key Key) bool {
	m, ok := r.enter()
	if !ok {
		return false
	}
	defer r.leave()

	return m.Contains(key)
}

// Len returns the number of stored values.
func (r *ReadHandle[V]) Len() int {
	m, ok := r.enter()
	if !ok {
		return 0
	}
	defer r.leave()

	return m.Len()
}

// IsEmpty reports whether the map holds no values.
func (r *ReadHandle[V]) IsEmpty() bool {
	return r.Len() == 0
}

// IsDestroyed reports whether the writer closed the map.
func (r *ReadHandle[V]) IsDestroyed() bool {
	r.mustOpen()

	return r.core.isClosed()
}

// Read opens a read section and returns a reference to the copy it reads.
// It returns false if the writer closed the map.
//
// Until the ReadRef is closed, every write call blocks. Close it as soon as
// possible. Read may be nested; nested references share the outermost
// section.
func (r *ReadHandle[V]) Read() (*ReadRef[V], bool) {
	m, ok := r.enter()
	if !ok {
		return nil, false
	}

	return &ReadRef[V]{handle: r, data: m}, true
}

// Clone returns a new handle for the same map, for use by another goroutine.
func (r *ReadHandle[V]) Clone() *ReadHandle[V] {
	r.mustOpen()

	return r.core.newReader()
}

// Factory returns a factory that produces handles for the same map.
func (r *ReadHandle[V]) Factory() *ReadHandleFactory[V] {
	r.mustOpen()

	return &ReadHandleFactory[V]{core: r.core}
}

// Close unregisters the handle. It panics if a ReadRef from this handle is
// still open. Calling Close more than once is a no-op.
func (r *ReadHandle[V]) Close() {
	if r.closed {
		return
	}

	if r.depth > 0 {
		panic("evslot: ReadHandle closed inside a read section")
	}

	r.closed = true
	r.core.registry.unregister(r.cell)
}

// ReadHandleFactory produces [ReadHandle]s for one map. It is safe for
// concurrent use.
//
// Producing a handle takes a lock and copies the registry, so do not expect
// creating handles rapidly to scale.
type ReadHandleFactory[V any] struct {
	core *core[V]
}

// Handle returns a new reader.
func (f *ReadHandleFactory[V]) Handle() *ReadHandle[V] {
	return f.core.newReader()
}

// Readers returns the number of registered, unclosed readers.
func (f *ReadHandleFactory[V]) Readers() int {
	return f.core.registry.len()
}
