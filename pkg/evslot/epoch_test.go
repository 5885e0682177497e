package evslot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_EpochCell_Is_Stale_Only_When_Active_On_Other_Generation(t *testing.T) {
	t.Parallel()

	var cell epochCell

	assert.False(t, cell.isStale(3), "idle cell")

	cell.enter(3)
	assert.False(t, cell.isStale(3), "active on target")
	assert.True(t, cell.isStale(4), "active on older generation")

	cell.leave()
	assert.False(t, cell.isStale(4), "left")
}

func Test_EpochCell_Is_Stale_When_Active_On_Generation_Zero(t *testing.T) {
	t.Parallel()

	var cell epochCell

	cell.enter(0)
	assert.True(t, cell.isStale(1))
}

func Test_Registry_Unregister_Removes_Only_Given_Cell(t *testing.T) {
	t.Parallel()

	var reg epochRegistry

	a := reg.register()
	b := reg.register()
	c := reg.register()

	require.Equal(t, 3, reg.len())

	reg.unregister(b)

	require.Equal(t, 2, reg.len())
	assert.Equal(t, []*epochCell{a, c}, *reg.cells.Load())

	reg.unregister(b)
	assert.Equal(t, 2, reg.len(), "unregistering twice is harmless")
}

func Test_Drain_Returns_After_One_Pass_When_No_Reader_Is_Stale(t *testing.T) {
	t.Parallel()

	var reg epochRegistry

	reg.register() // idle
	onTarget := reg.register()

	onTarget.enter(7)

	st := reg.drain(7, DefaultSpinsBeforeYield)
	assert.Equal(t, uint64(1), st.passes)
	assert.Equal(t, uint64(0), st.yields)
}

func Test_Drain_Blocks_Until_Stale_Reader_Leaves(t *testing.T) {
	t.Parallel()

	var reg epochRegistry

	reader := reg.register()
	reader.enter(1)

	done := make(chan drainStats)

	go func() {
		done <- reg.drain(2, 0)
	}()

	select {
	case <-done:
		t.Fatal("drain returned while a reader was still on the old generation")
	case <-time.After(20 * time.Millisecond):
	}

	reader.leave()

	select {
	case st := <-done:
		assert.Greater(t, st.passes, uint64(1))
		assert.Positive(t, st.yields)
	case <-time.After(5 * time.Second):
		t.Fatal("drain did not return after the reader left")
	}
}

func Test_Core_Enter_Announces_Current_Generation(t *testing.T) {
	t.Parallel()

	r, w := New(Options[int]{})
	defer w.Close()
	defer r.Close()

	w.Insert(1)

	g := r.core.enter(r.cell)
	assert.Equal(t, r.core.generation.Load(), g)
	assert.False(t, r.cell.isStale(g))

	r.cell.leave()
}
