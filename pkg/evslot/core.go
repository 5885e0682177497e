package evslot

import (
	"fmt"
	"sync/atomic"

	"github.com/calvinalkan/evslot/pkg/evslot/internal/slotmap"
)

// closedBit is set in the published generation once the writer closed the
// map. Readers that observe it leave immediately and report absence.
const closedBit = uint64(1) << 62

// core is the state shared by a writer and all of its readers.
//
// bufs[generation&1] is the copy exposed to readers; the other one belongs
// to the writer. Between write calls both copies hold the same slots, the
// same generations and owners of the same values.
type core[V any] struct {
	generation atomic.Uint64
	bufs       [2]*slotmap.Map[V]
	registry   epochRegistry
	copier     ShallowCopier[V]
	spins      int
}

func newCore[V any](first *slotmap.Map[V], opts Options[V]) *core[V] {
	c := &core[V]{
		copier: opts.copier(),
		spins:  opts.spins(),
	}

	c.bufs[0] = first
	c.bufs[1] = first.Clone(c.copier.ShallowCopy)

	return c
}

// exposed returns the copy readers currently see. Only the writer may call
// it without an epoch cell, and only between write calls.
func (c *core[V]) exposed() *slotmap.Map[V] {
	return c.bufs[c.generation.Load()&1]
}

// standby returns the copy no new reader can reach. Only the writer may
// mutate it.
func (c *core[V]) standby() *slotmap.Map[V] {
	return c.bufs[(c.generation.Load()+1)&1]
}

func (c *core[V]) isClosed() bool {
	return c.generation.Load()&closedBit != 0
}

// enter announces cell as reading and returns the generation whose copy the
// reader may use until it leaves.
//
// The generation is re-read after the announcement. If a publish slipped in
// between, the writer may already have scanned past this cell, so the
// reader re-announces the newer generation instead of using the old copy.
func (c *core[V]) enter(cell *epochCell) uint64 {
	g := c.generation.Load()

	for {
		cell.enter(g)

		now := c.generation.Load()
		if now == g {
			return g
		}

		g = now
	}
}

// publish exposes the standby copy, waits until no reader is still using
// the previously exposed copy, and hands that copy to converge.
//
// The caller must already have applied its mutation to the standby copy.
func (c *core[V]) publish(converge func(*slotmap.Map[V])) drainStats {
	g := c.generation.Load()
	next := g + 1

	c.generation.Store(next)

	st := c.registry.drain(next, c.spins)

	converge(c.bufs[g&1])

	return st
}

// shutdown publishes the closed generation and waits for every reader that
// may still be using either copy. After it returns no reader touches bufs.
func (c *core[V]) shutdown() drainStats {
	next := (c.generation.Load() + 1) | closedBit

	c.generation.Store(next)

	return c.registry.drain(next, c.spins)
}

func (c *core[V]) newReader() *ReadHandle[V] {
	return &ReadHandle[V]{core: c, cell: c.registry.register()}
}

func mustMatch[T comparable](op string, first, second T) {
	if first != second {
		panic(fmt.Errorf("%w: %s returned %v then %v", errDiverged, op, first, second))
	}
}
