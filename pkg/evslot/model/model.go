// Package model provides a deliberately simple, in-memory model of the
// publicly observable behavior of an evslot map.
//
// The model is intentionally easy to audit: it favors clarity over
// performance, has no concurrency and keeps a single copy of the data.
package model

import (
	"math"
	"slices"

	"github.com/calvinalkan/evslot/pkg/evslot"
)

// Map models one evslot map.
//
// Generations has one entry per slot ever allocated. Live maps the index of
// each occupied slot to its value. Free is the reuse stack; the last entry is
// reused first.
type Map[V any] struct {
	Generations []uint32
	Live        map[uint32]V
	Free        []uint32
}

// New returns an empty model.
func New[V any]() *Map[V] {
	return &Map[V]{Live: map[uint32]V{}}
}

// Clone makes a deep copy of the model's bookkeeping. Values are copied by
// assignment.
func (m *Map[V]) Clone() *Map[V] {
	c := &Map[V]{
		Generations: slices.Clone(m.Generations),
		Live:        make(map[uint32]V, len(m.Live)),
		Free:        slices.Clone(m.Free),
	}

	for idx, v := range m.Live {
		c.Live[idx] = v
	}

	return c
}

func (m *Map[V]) isLive(key evslot.Key) bool {
	if int(key.Index) >= len(m.Generations) {
		return false
	}

	_, occupied := m.Live[key.Index]

	return occupied && m.Generations[key.Index] == key.Generation
}

// Insert stores v and returns the key the real map must return.
func (m *Map[V]) Insert(v V) evslot.Key {
	var idx uint32

	if n := len(m.Free); n > 0 {
		idx = m.Free[n-1]
		m.Free = m.Free[:n-1]
	} else {
		idx = uint32(len(m.Generations))
		m.Generations = append(m.Generations, 0)
	}

	m.Live[idx] = v

	return evslot.Key{Index: idx, Generation: m.Generations[idx]}
}

// Get returns the value stored under key.
func (m *Map[V]) Get(key evslot.Key) (V, bool) {
	if !m.isLive(key) {
		var zero V

		return zero, false
	}

	return m.Live[key.Index], true
}

// ContainsKey reports whether key is live.
func (m *Map[V]) ContainsKey(key evslot.Key) bool {
	return m.isLive(key)
}

// Update replaces the value stored under key.
func (m *Map[V]) Update(key evslot.Key, v V) (V, bool) {
	prev, ok := m.Get(key)
	if !ok {
		return prev, false
	}

	m.Live[key.Index] = v

	return prev, true
}

// Remove deletes the value stored under key.
func (m *Map[V]) Remove(key evslot.Key) (V, bool) {
	prev, ok := m.Get(key)
	if !ok {
		return prev, false
	}

	m.vacate(key.Index)

	return prev, true
}

// Clear removes every value in ascending index order.
func (m *Map[V]) Clear() {
	indices := make([]uint32, 0, len(m.Live))
	for idx := range m.Live {
		indices = append(indices, idx)
	}

	slices.Sort(indices)

	for _, idx := range indices {
		m.vacate(idx)
	}
}

func (m *Map[V]) vacate(idx uint32) {
	delete(m.Live, idx)

	if m.Generations[idx] == math.MaxUint32 {
		return
	}

	m.Generations[idx]++
	m.Free = append(m.Free, idx)
}

// Len returns the number of stored values.
func (m *Map[V]) Len() int {
	return len(m.Live)
}

// Entry is a live key and its value.
type Entry[V any] struct {
	Key   evslot.Key
	Value V
}

// Entries returns all live entries in slot order.
func (m *Map[V]) Entries() []Entry[V] {
	out := make([]Entry[V], 0, len(m.Live))

	for idx, gen := range m.Generations {
		v, ok := m.Live[uint32(idx)]
		if !ok {
			continue
		}

		out = append(out, Entry[V]{Key: evslot.Key{Index: uint32(idx), Generation: gen}, Value: v})
	}

	return out
}
