package model_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/evslot/pkg/evslot"
	"github.com/calvinalkan/evslot/pkg/evslot/model"
)

func Test_Model_Reuses_Most_Recently_Freed_Slot_When_Inserting(t *testing.T) {
	t.Parallel()

	m := model.New[string]()

	a := m.Insert("a")
	b := m.Insert("b")
	m.Insert("c")

	m.Remove(a)
	m.Remove(b)

	assert.Equal(t, evslot.Key{Index: 1, Generation: 1}, m.Insert("d"))
	assert.Equal(t, evslot.Key{Index: 0, Generation: 1}, m.Insert("e"))
	assert.Equal(t, evslot.Key{Index: 3, Generation: 0}, m.Insert("f"))
}

func Test_Model_Rejects_Stale_Key_When_Slot_Was_Reused(t *testing.T) {
	t.Parallel()

	m := model.New[int]()

	stale := m.Insert(1)
	m.Remove(stale)
	live := m.Insert(2)

	_, ok := m.Get(stale)
	assert.False(t, ok)

	_, ok = m.Update(stale, 3)
	assert.False(t, ok)

	_, ok = m.Remove(stale)
	assert.False(t, ok)

	v, ok := m.Get(live)
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func Test_Model_Clear_Vacates_In_Ascending_Index_Order(t *testing.T) {
	t.Parallel()

	m := model.New[int]()

	for i := range 5 {
		m.Insert(i)
	}

	m.Clear()

	assert.Equal(t, 0, m.Len())
	assert.Equal(t, []uint32{0, 1, 2, 3, 4}, m.Free)

	// Highest index was vacated last, so it is reused first.
	assert.Equal(t, evslot.Key{Index: 4, Generation: 1}, m.Insert(9))
}

func Test_Model_Retires_Slot_When_Generation_Is_Exhausted(t *testing.T) {
	t.Parallel()

	m := model.New[int]()

	key := m.Insert(1)
	m.Generations[key.Index] = math.MaxUint32

	_, ok := m.Remove(evslot.Key{Index: key.Index, Generation: math.MaxUint32})
	require.True(t, ok)

	assert.Empty(t, m.Free)
	assert.Equal(t, evslot.Key{Index: 1}, m.Insert(2))
}

func Test_Model_Entries_Are_In_Slot_Order(t *testing.T) {
	t.Parallel()

	m := model.New[string]()

	a := m.Insert("a")
	m.Insert("b")
	m.Insert("c")
	m.Remove(a)
	d := m.Insert("d")

	want := []model.Entry[string]{
		{Key: d, Value: "d"},
		{Key: evslot.Key{Index: 1}, Value: "b"},
		{Key: evslot.Key{Index: 2}, Value: "c"},
	}

	if diff := cmp.Diff(want, m.Entries()); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
}

func Test_Model_Clone_Is_Independent_Of_Source(t *testing.T) {
	t.Parallel()

	m := model.New[int]()
	key := m.Insert(1)

	c := m.Clone()
	c.Update(key, 2)
	c.Insert(3)

	v, ok := m.Get(key)
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 2, c.Len())
}
