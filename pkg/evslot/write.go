package evslot

import (
	"fmt"

	"github.com/calvinalkan/evslot/pkg/evslot/internal/slotmap"
)

// WriterStats counts the work a [WriteHandle] has done.
type WriterStats struct {
	// Writes is the number of write calls, including ones that changed
	// nothing because their key was stale.
	Writes uint64

	// Publishes is the number of times a new copy was exposed to readers.
	Publishes uint64

	// DrainPasses is the total number of reader registry scans.
	DrainPasses uint64

	// DrainYields is the number of times a drain yielded the processor.
	DrainYields uint64
}

// WriteHandle is the single writer of a map.
//
// Every write is visible to any read that starts after the call returns.
// WriteHandle is not safe for concurrent use; see [RWHandle].
type WriteHandle[V any] struct {
	core   *core[V]
	stats  WriterStats
	closed bool
}

// New creates an empty map and returns its first reader and its writer.
func New[V any](opts Options[V]) (*ReadHandle[V], *WriteHandle[V]) {
	return newPair(slotmap.New[V](opts.Capacity), opts)
}

// NewWithValues creates a map holding values, inserted in order, and returns
// the keys they were stored under. Ownership of each value moves to the map.
func NewWithValues[V any](values []V, opts Options[V]) (*ReadHandle[V], *WriteHandle[V], []Key) {
	m := slotmap.New[V](max(opts.Capacity, len(values)))

	keys := make([]Key, len(values))
	for i, v := range values {
		keys[i] = m.Insert(v)
	}

	r, w := newPair(m, opts)

	return r, w, keys
}

func newPair[V any](first *slotmap.Map[V], opts Options[V]) (*ReadHandle[V], *WriteHandle[V]) {
	c := newCore(first, opts)

	return c.newReader(), &WriteHandle[V]{core: c}
}

func (w *WriteHandle[V]) mustOpen() {
	if w.closed {
		panic(fmt.Errorf("write handle: %w", ErrClosed))
	}
}

func (w *WriteHandle[V]) record(st drainStats) {
	w.stats.Publishes++
	w.stats.DrainPasses += st.passes
	w.stats.DrainYields += st.yields
}

// Insert stores v and returns its key. Insert always succeeds; it panics
// only if the index space is exhausted.
func (w *WriteHandle[V]) Insert(v V) Key {
	w.mustOpen()
	w.stats.Writes++

	c := w.core
	key := c.standby().Insert(c.copier.ShallowCopy(v))

	w.record(c.publish(func(m *slotmap.Map[V]) {
		mustMatch("insert", key, m.Insert(v))
	}))

	return key
}

// Update replaces the value stored under key and returns the previous value.
//
// If key is stale or unknown, Update returns ok=false, stores nothing and
// leaves v owned by the caller. Otherwise ownership of v moves to the map and
// the caller becomes the owner of the returned previous value.
func (w *WriteHandle[V]) Update(key Key, v V) (prev V, ok bool) {
	w.mustOpen()
	w.stats.Writes++

	c := w.core

	standby := c.standby()
	if !standby.Contains(key) {
		return prev, false
	}

	prev, _ = standby.Update(key, c.copier.ShallowCopy(v))

	w.record(c.publish(func(m *slotmap.Map[V]) {
		old, found := m.Update(key, v)
		mustMatch("update", true, found)
		c.copier.Release(old)
	}))

	return prev, true
}

// Remove deletes the value stored under key and returns it. The caller
// becomes the owner of the returned value.
//
// If key is stale or unknown, Remove returns ok=false and leaves the map
// untouched; in particular the slot generation does not change.
func (w *WriteHandle[V]) Remove(key Key) (V, bool) {
	w.mustOpen()
	w.stats.Writes++

	c := w.core

	removed, ok := c.standby().Remove(key)
	if !ok {
		return removed, false
	}

	w.record(c.publish(func(m *slotmap.Map[V]) {
		old, found := m.Remove(key)
		mustMatch("remove", true, found)
		c.copier.Release(old)
	}))

	return removed, true
}

// Clear removes every value. All outstanding keys become stale.
func (w *WriteHandle[V]) Clear() {
	w.mustOpen()
	w.stats.Writes++

	c := w.core

	standby := c.standby()
	if standby.Len() == 0 {
		return
	}

	standby.Clear(c.copier.Release)

	w.record(c.publish(func(m *slotmap.Map[V]) {
		m.Clear(c.copier.Release)
	}))
}

// Get returns the value stored under key.
//
// The writer reads its converged state directly; no read section is needed
// because nothing else mutates the map.
func (w *WriteHandle[V]) Get(key Key) (V, bool) {
	if w.closed {
		var zero V

		return zero, false
	}

	p, ok := w.core.exposed().Get(key)
	if !ok {
		var zero V

		return zero, false
	}

	return *p, true
}

// ContainsKey reports whether key is live.
func (w *WriteHandle[V]) ContainsKey(key Key) bool {
	return !w.closed && w.core.exposed().Contains(key)
}

// Len returns the number of stored values.
func (w *WriteHandle[V]) Len() int {
	if w.closed {
		return 0
	}

	return w.core.exposed().Len()
}

// Reader returns a new reader registered against this map.
func (w *WriteHandle[V]) Reader() *ReadHandle[V] {
	return w.core.newReader()
}

// Factory returns a factory for readers of this map.
func (w *WriteHandle[V]) Factory() *ReadHandleFactory[V] {
	return &ReadHandleFactory[V]{core: w.core}
}

// Stats returns counters describing the writes done so far.
func (w *WriteHandle[V]) Stats() WriterStats {
	return w.stats
}

// Close takes the map away from all readers and releases every stored
// value. Once Close returns, readers observe an empty map and
// [ReadHandle.IsDestroyed] reports true.
//
// Close waits for readers inside a read section, like any write. Calling
// Close more than once is a no-op.
func (w *WriteHandle[V]) Close() {
	if w.closed {
		return
	}

	w.closed = true

	c := w.core

	w.record(c.shutdown())

	for _, m := range c.bufs {
		m.Clear(c.copier.Release)
	}
}
