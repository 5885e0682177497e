package evslot

import (
	"fmt"

	"github.com/calvinalkan/evslot/pkg/evslot/internal/slotmap"
)

// Snapshot is the complete exported state of a map.
//
// Vacant slots are kept so that generations survive a round trip: a key that
// was stale before export stays stale in a map built from the snapshot.
type Snapshot[V any] struct {
	Slots []SnapshotSlot[V] `json:"slots"`

	// Free lists reusable slot indices; the last one is reused first.
	Free []uint32 `json:"free"`
}

// SnapshotSlot is one exported slot.
type SnapshotSlot[V any] struct {
	Occupied   bool   `json:"occupied"`
	Generation uint32 `json:"generation"`
	Value      V      `json:"value,omitempty"`
}

// Len returns the number of occupied slots.
func (s Snapshot[V]) Len() int {
	n := 0

	for _, slot := range s.Slots {
		if slot.Occupied {
			n++
		}
	}

	return n
}

// Get returns the value stored under key in the snapshot.
func (s Snapshot[V]) Get(key Key) (V, bool) {
	if uint64(key.Index) >= uint64(len(s.Slots)) {
		var zero V

		return zero, false
	}

	slot := s.Slots[key.Index]
	if !slot.Occupied || slot.Generation != key.Generation {
		var zero V

		return zero, false
	}

	return slot.Value, true
}

func snapshotFromState[V any](st slotmap.State[V]) Snapshot[V] {
	s := Snapshot[V]{
		Slots: make([]SnapshotSlot[V], len(st.Slots)),
		Free:  st.Free,
	}

	for i, slot := range st.Slots {
		s.Slots[i] = SnapshotSlot[V](slot)
	}

	return s
}

// NewFromSnapshot creates a map holding exactly the state in s, and returns
// its first reader and its writer. Keys that were valid for the exported map
// are valid for the new one. Ownership of the snapshot's values moves to the
// map.
func NewFromSnapshot[V any](s Snapshot[V], opts Options[V]) (*ReadHandle[V], *WriteHandle[V], error) {
	st := slotmap.State[V]{
		Slots: make([]slotmap.SlotState[V], len(s.Slots)),
		Free:  s.Free,
	}

	for i, slot := range s.Slots {
		st.Slots[i] = slotmap.SlotState[V](slot)
	}

	m, err := slotmap.FromState(st)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}

	r, w := newPair(m, opts)

	return r, w, nil
}
