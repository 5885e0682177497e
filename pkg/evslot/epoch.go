package evslot

import (
	"runtime"
	"slices"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// activeBit marks an epoch cell whose reader is inside a read section. The
// remaining bits hold the buffer generation the reader observed on entry.
const activeBit = uint64(1) << 63

// epochCell is one reader's progress marker. Only the owning reader writes
// it; the writer only loads it.
//
// Cells are padded to their own cache line so a reader entering and leaving
// does not invalidate its neighbours.
type epochCell struct {
	_     cpu.CacheLinePad
	state atomic.Uint64
	_     cpu.CacheLinePad
}

func (c *epochCell) enter(generation uint64) {
	c.state.Store(activeBit | generation)
}

func (c *epochCell) leave() {
	c.state.Store(0)
}

// isStale reports whether the reader is inside a read section that started
// against a generation other than target.
func (c *epochCell) isStale(target uint64) bool {
	s := c.state.Load()

	return s&activeBit != 0 && s&^activeBit != target
}

// epochRegistry tracks the cells of all registered readers.
//
// Registration swaps in a new cell slice under mu. The writer scans whatever
// slice is current without taking mu, so a reader registering from inside a
// read section cannot deadlock against a draining writer. A reader that
// registers after the writer loaded the slice necessarily observes the
// already published generation, so skipping it is safe.
type epochRegistry struct {
	mu    sync.Mutex
	cells atomic.Pointer[[]*epochCell]
}

func (reg *epochRegistry) register() *epochCell {
	cell := &epochCell{}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	var next []*epochCell
	if cur := reg.cells.Load(); cur != nil {
		next = append(next, *cur...)
	}

	next = append(next, cell)
	reg.cells.Store(&next)

	return cell
}

func (reg *epochRegistry) unregister(cell *epochCell) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	cur := reg.cells.Load()
	if cur == nil {
		return
	}

	next := slices.DeleteFunc(slices.Clone(*cur), func(c *epochCell) bool { return c == cell })
	reg.cells.Store(&next)
}

func (reg *epochRegistry) len() int {
	cur := reg.cells.Load()
	if cur == nil {
		return 0
	}

	return len(*cur)
}

// drainStats describes the cost of one drain.
type drainStats struct {
	passes uint64
	yields uint64
}

// drain blocks until no registered reader is stale with respect to target.
//
// It spins for spinsBeforeYield passes and then yields the processor
// between passes. There is no timeout.
func (reg *epochRegistry) drain(target uint64, spinsBeforeYield int) drainStats {
	var st drainStats

	cur := reg.cells.Load()
	if cur == nil {
		return st
	}

	cells := *cur
	start := 0

	for {
		st.passes++

		stale := -1

		for i := start; i < len(cells); i++ {
			if cells[i].isStale(target) {
				stale = i

				break
			}
		}

		if stale < 0 {
			return st
		}

		// Cells before the stale one were idle or already on target. A reader
		// entering on them re-checks the generation before touching a copy,
		// so it can only end up reading target. They are not rescanned.
		start = stale

		if st.passes > uint64(max(spinsBeforeYield, 0)) {
			runtime.Gosched()

			st.yields++
		}
	}
}
