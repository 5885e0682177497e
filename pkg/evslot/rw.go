package evslot

import "sync"

// RWHandle pairs a reader factory with a mutex-guarded writer, for maps that
// are written from more than one goroutine. It is safe for concurrent use.
//
// Readers still never take the mutex; it only serializes writers.
type RWHandle[V any] struct {
	factory *ReadHandleFactory[V]

	mu sync.Mutex
	w  *WriteHandle[V]
}

// NewRW creates an empty map behind an RWHandle.
func NewRW[V any](opts Options[V]) *RWHandle[V] {
	r, w := New(opts)
	r.Close()

	return WrapWriter(w)
}

// WrapWriter puts an existing writer behind an RWHandle. The caller must not
// use w directly afterwards.
func WrapWriter[V any](w *WriteHandle[V]) *RWHandle[V] {
	return &RWHandle[V]{factory: w.Factory(), w: w}
}

// Write runs fn with exclusive access to the writer.
func (h *RWHandle[V]) Write(fn func(w *WriteHandle[V])) {
	h.mu.Lock()
	defer h.mu.Unlock()

	fn(h.w)
}

// Insert stores v and returns its key.
func (h *RWHandle[V]) Insert(v V) Key {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.w.Insert(v)
}

// Update replaces the value stored under key. See [WriteHandle.Update].
func (h *RWHandle[V]) Update(key Key, v V) (V, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.w.Update(key, v)
}

// Remove deletes the value stored under key. See [WriteHandle.Remove].
func (h *RWHandle[V]) Remove(key Key) (V, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.w.Remove(key)
}

// Clear removes every value. See [WriteHandle.Clear].
func (h *RWHandle[V]) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.w.Clear()
}

// Stats returns the writer's counters.
func (h *RWHandle[V]) Stats() WriterStats {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.w.Stats()
}

// Reader returns a new reader for the calling goroutine.
func (h *RWHandle[V]) Reader() *ReadHandle[V] {
	return h.factory.Handle()
}

// Factory returns the reader factory.
func (h *RWHandle[V]) Factory() *ReadHandleFactory[V] {
	return h.factory
}

// Close closes the writer. See [WriteHandle.Close].
func (h *RWHandle[V]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.w.Close()
}
