// Package slotmap provides a generation-tagged, one-way slot map.
//
// Values live at integer slots. Insert returns a [Key] made of the slot index
// and the slot's current generation. A key stays valid until the value at its
// slot is removed; removal bumps the slot generation, so every key issued for
// the previous occupant becomes stale even after the index is reused.
//
// There is no way to map a value back to its key.
//
// A Map has no synchronization of its own. Callers own it exclusively.
package slotmap

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidKey is returned by [ParseKey] for malformed input.
var ErrInvalidKey = errors.New("slotmap: invalid key")

// maxSlots bounds the index space. Index math.MaxUint32 is never issued so
// that len(slots) always fits in a uint32.
const maxSlots = math.MaxUint32

// Key identifies a value stored in a [Map].
//
// Keys are only meaningful for the map that issued them.
type Key struct {
	Index      uint32
	Generation uint32
}

// String renders the key as "index:generation".
func (k Key) String() string {
	return strconv.FormatUint(uint64(k.Index), 10) + ":" + strconv.FormatUint(uint64(k.Generation), 10)
}

// ParseKey parses the "index:generation" form produced by [Key.String].
func ParseKey(s string) (Key, error) {
	idxStr, genStr, ok := strings.Cut(s, ":")
	if !ok {
		return Key{}, fmt.Errorf("%w: %q (want index:generation)", ErrInvalidKey, s)
	}

	idx, err := strconv.ParseUint(idxStr, 10, 32)
	if err != nil {
		return Key{}, fmt.Errorf("%w: index %q: %w", ErrInvalidKey, idxStr, err)
	}

	gen, err := strconv.ParseUint(genStr, 10, 32)
	if err != nil {
		return Key{}, fmt.Errorf("%w: generation %q: %w", ErrInvalidKey, genStr, err)
	}

	return Key{Index: uint32(idx), Generation: uint32(gen)}, nil
}

type slot[V any] struct {
	occupied   bool
	generation uint32
	value      V
}

// Map is a slot map holding values of type V.
//
// The zero value is an empty map ready to use.
type Map[V any] struct {
	slots []slot[V]
	free  []uint32 // LIFO; top of stack is reused first
	live  int
}

// New returns an empty map with room for capacity values before growing.
func New[V any](capacity int) *Map[V] {
	m := &Map[V]{}
	if capacity > 0 {
		m.slots = make([]slot[V], 0, capacity)
	}

	return m
}

// Len returns the number of occupied slots.
func (m *Map[V]) Len() int {
	return m.live
}

// Cap returns the number of slots ever allocated, occupied or not.
func (m *Map[V]) Cap() int {
	return len(m.slots)
}

// Insert stores v and returns its key.
//
// The most recently freed slot is reused first; otherwise a new slot is
// appended. Insert panics when the index space is exhausted.
func (m *Map[V]) Insert(v V) Key {
	var idx uint32

	if n := len(m.free); n > 0 {
		idx = m.free[n-1]
		m.free = m.free[:n-1]
	} else {
		if uint64(len(m.slots)) >= maxSlots {
			panic("slotmap: index space exhausted")
		}

		idx = uint32(len(m.slots))
		m.slots = append(m.slots, slot[V]{})
	}

	s := &m.slots[idx]
	s.occupied = true
	s.value = v
	m.live++

	return Key{Index: idx, Generation: s.generation}
}

// lookup returns the slot for k if k is live.
func (m *Map[V]) lookup(k Key) *slot[V] {
	if uint64(k.Index) >= uint64(len(m.slots)) {
		return nil
	}

	s := &m.slots[k.Index]
	if !s.occupied || s.generation != k.Generation {
		return nil
	}

	return s
}

// Get returns a pointer to the value stored under k.
//
// The pointer is only valid until the next mutation of the map.
func (m *Map[V]) Get(k Key) (*V, bool) {
	s := m.lookup(k)
	if s == nil {
		return nil, false
	}

	return &s.value, true
}

// Contains reports whether k is live.
func (m *Map[V]) Contains(k Key) bool {
	return m.lookup(k) != nil
}

// Update replaces the value stored under k and returns the previous value.
// The slot generation does not change. A stale or unknown key leaves the
// map untouched.
func (m *Map[V]) Update(k Key, v V) (V, bool) {
	s := m.lookup(k)
	if s == nil {
		var zero V

		return zero, false
	}

	prev := s.value
	s.value = v

	return prev, true
}

// Remove vacates the slot for k and returns the value it held.
//
// The slot generation is incremented and the index becomes available for
// reuse. A slot whose generation cannot be incremented again is retired
// instead of being reused. A stale or unknown key leaves the map untouched.
func (m *Map[V]) Remove(k Key) (V, bool) {
	s := m.lookup(k)
	if s == nil {
		var zero V

		return zero, false
	}

	return m.vacate(k.Index, s), true
}

func (m *Map[V]) vacate(idx uint32, s *slot[V]) V {
	var zero V

	prev := s.value
	s.value = zero
	s.occupied = false
	m.live--

	if s.generation == math.MaxUint32 {
		return prev
	}

	s.generation++
	m.free = append(m.free, idx)

	return prev
}

// Clear removes every value, in slot order, calling release for each one
// if release is non-nil. Every outstanding key becomes stale.
func (m *Map[V]) Clear(release func(V)) {
	for i := range m.slots {
		s := &m.slots[i]
		if !s.occupied {
			continue
		}

		v := m.vacate(uint32(i), s)
		if release != nil {
			release(v)
		}
	}
}

// All iterates over live entries in slot order.
//
// The map must not be mutated during iteration.
func (m *Map[V]) All() iter.Seq2[Key, *V] {
	return func(yield func(Key, *V) bool) {
		for i := range m.slots {
			s := &m.slots[i]
			if !s.occupied {
				continue
			}

			if !yield(Key{Index: uint32(i), Generation: s.generation}, &s.value) {
				return
			}
		}
	}
}
