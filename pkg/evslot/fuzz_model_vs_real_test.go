package evslot_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/calvinalkan/evslot/pkg/evslot"
	"github.com/calvinalkan/evslot/pkg/evslot/internal/testutil"
	"github.com/calvinalkan/evslot/pkg/evslot/model"
)

// maxFuzzOps bounds the work done per fuzz input.
const maxFuzzOps = 400

// harness applies the same operations to the model and to a real map.
type harness struct {
	t     *testing.T
	model *model.Map[string]
	r     *evslot.ReadHandle[string]
	w     *evslot.WriteHandle[string]
	gen   *testutil.OpGenerator
}

func newHarness(t *testing.T, data []byte) *harness {
	t.Helper()

	r, w := evslot.New(evslot.Options[string]{})

	t.Cleanup(func() {
		r.Close()
		w.Close()
	})

	return &harness{
		t:     t,
		model: model.New[string](),
		r:     r,
		w:     w,
		gen:   testutil.NewOpGenerator(data),
	}
}

type outcome struct {
	Key   evslot.Key
	Value string
	OK    bool
	Len   int
}

func (h *harness) apply(op testutil.Operation) (want, got outcome) {
	switch op := op.(type) {
	case testutil.OpInsert:
		want.Key = h.model.Insert(op.Value)
		got.Key = h.w.Insert(op.Value)
		h.gen.Remember(got.Key)
	case testutil.OpUpdate:
		want.Value, want.OK = h.model.Update(op.Key, op.Value)
		got.Value, got.OK = h.w.Update(op.Key, op.Value)
	case testutil.OpRemove:
		want.Value, want.OK = h.model.Remove(op.Key)
		got.Value, got.OK = h.w.Remove(op.Key)
	case testutil.OpClear:
		h.model.Clear()
		h.w.Clear()
	case testutil.OpGet:
		want.Value, want.OK = h.model.Get(op.Key)
		got.Value, got.OK = h.r.Get(op.Key)
	case testutil.OpContainsKey:
		want.OK = h.model.ContainsKey(op.Key)
		got.OK = h.r.ContainsKey(op.Key)
	case testutil.OpLen:
		want.Len = h.model.Len()
		got.Len = h.r.Len()
	case testutil.OpSnapshot:
		h.compareSnapshot()
	default:
		h.t.Fatalf("unknown operation %T", op)
	}

	return want, got
}

func (h *harness) compareSnapshot() {
	h.t.Helper()

	ref, ok := h.r.Read()
	if !ok {
		h.t.Fatal("map destroyed while writer is open")
	}
	defer ref.Close()

	var got []model.Entry[string]
	for key, v := range ref.All() {
		got = append(got, model.Entry[string]{Key: key, Value: *v})
	}

	if diff := cmp.Diff(h.model.Entries(), got, cmpopts.EquateEmpty()); diff != "" {
		h.t.Fatalf("entries mismatch (-model +real):\n%s", diff)
	}

	snap := ref.Snapshot()
	if snap.Len() != h.model.Len() {
		h.t.Fatalf("snapshot len=%d, model len=%d", snap.Len(), h.model.Len())
	}

	if diff := cmp.Diff(h.model.Free, snap.Free, cmpopts.EquateEmpty()); diff != "" {
		h.t.Fatalf("free list mismatch (-model +real):\n%s", diff)
	}
}

func (h *harness) run() {
	h.t.Helper()

	var history []string

	for i := 0; i < maxFuzzOps && h.gen.HasMore(); i++ {
		op := h.gen.Next()
		history = append(history, op.String())

		want, got := h.apply(op)
		if diff := cmp.Diff(want, got); diff != "" {
			h.t.Fatalf("op %d %s mismatch (-model +real):\n%s\nhistory: %v", i, op, diff, history)
		}
	}

	h.compareSnapshot()
}

func FuzzMap_Matches_Model(f *testing.F) {
	f.Add([]byte{0, 0, 0, 50, 0, 0, 0, 0, 0, 0, 0, 20, 1, 0, 0, 0, 0})
	f.Add([]byte{10, 10, 10, 40, 1, 1, 1, 1, 1, 60, 2, 0, 0, 0, 0, 0, 0, 66, 5, 90})
	f.Add([]byte{99, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18})

	f.Fuzz(func(t *testing.T, data []byte) {
		newHarness(t, data).run()
	})
}

func Test_Map_Matches_Model_When_Driven_By_Deterministic_Seeds(t *testing.T) {
	t.Parallel()

	for seed := range 32 {
		data := make([]byte, 512)

		x := uint32(seed*2654435761 + 1)
		for i := range data {
			x ^= x << 13
			x ^= x >> 17
			x ^= x << 5
			data[i] = byte(x)
		}

		newHarness(t, data).run()
	}
}
