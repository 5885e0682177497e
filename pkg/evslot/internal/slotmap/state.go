package slotmap

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidState is returned by [FromState] when the exported state is
// internally inconsistent.
var ErrInvalidState = errors.New("slotmap: invalid state")

// SlotState is the exported form of a single slot.
type SlotState[V any] struct {
	Occupied   bool
	Generation uint32
	Value      V
}

// State is the exported form of a whole map. Free lists the reusable slot
// indices bottom-to-top, so the last element is reused first.
type State[V any] struct {
	Slots []SlotState[V]
	Free  []uint32
}

// Export returns a copy of the map's complete state, including vacant slots
// and the free list. Values are copied with dup if it is non-nil.
func (m *Map[V]) Export(dup func(V) V) State[V] {
	st := State[V]{
		Slots: make([]SlotState[V], len(m.slots)),
		Free:  append([]uint32(nil), m.free...),
	}

	for i, s := range m.slots {
		v := s.value
		if s.occupied && dup != nil {
			v = dup(v)
		}

		st.Slots[i] = SlotState[V]{Occupied: s.occupied, Generation: s.generation, Value: v}
	}

	return st
}

// Clone returns a structurally identical map. Occupied values are copied
// with dup if it is non-nil.
func (m *Map[V]) Clone(dup func(V) V) *Map[V] {
	c := &Map[V]{
		slots: make([]slot[V], len(m.slots), cap(m.slots)),
		free:  append([]uint32(nil), m.free...),
		live:  m.live,
	}

	for i, s := range m.slots {
		if s.occupied && dup != nil {
			s.value = dup(s.value)
		}

		c.slots[i] = s
	}

	return c
}

// FromState rebuilds a map from exported state.
//
// If st.Free is nil, the free list is derived from the vacant slots that can
// still be reused, in ascending index order.
func FromState[V any](st State[V]) (*Map[V], error) {
	if uint64(len(st.Slots)) > maxSlots {
		return nil, fmt.Errorf("%w: %d slots exceeds index space", ErrInvalidState, len(st.Slots))
	}

	m := &Map[V]{slots: make([]slot[V], len(st.Slots))}

	for i, s := range st.Slots {
		m.slots[i] = slot[V]{occupied: s.Occupied, generation: s.Generation}
		if s.Occupied {
			m.slots[i].value = s.Value
			m.live++
		}
	}

	if st.Free == nil {
		for i, s := range m.slots {
			if !s.occupied && s.generation != math.MaxUint32 {
				m.free = append(m.free, uint32(i))
			}
		}

		return m, nil
	}

	seen := make(map[uint32]struct{}, len(st.Free))

	for _, idx := range st.Free {
		if uint64(idx) >= uint64(len(m.slots)) {
			return nil, fmt.Errorf("%w: free index %d out of range", ErrInvalidState, idx)
		}

		if m.slots[idx].occupied {
			return nil, fmt.Errorf("%w: free index %d is occupied", ErrInvalidState, idx)
		}

		if _, dup := seen[idx]; dup {
			return nil, fmt.Errorf("%w: free index %d listed twice", ErrInvalidState, idx)
		}

		seen[idx] = struct{}{}
	}

	m.free = append([]uint32(nil), st.Free...)

	return m, nil
}
