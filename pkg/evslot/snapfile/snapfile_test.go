package snapfile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/evslot/pkg/evslot"
	"github.com/calvinalkan/evslot/pkg/evslot/snapfile"
)

func exportStrings(t *testing.T, values ...string) (evslot.Snapshot[string], []evslot.Key) {
	t.Helper()

	r, w, keys := evslot.NewWithValues(values, evslot.Options[string]{})
	defer w.Close()
	defer r.Close()

	if len(keys) > 0 {
		w.Remove(keys[0])
	}

	ref, ok := r.Read()
	require.True(t, ok)

	defer ref.Close()

	return ref.Snapshot(), keys
}

func Test_Save_Then_Open_Restores_Map_When_File_Is_Valid(t *testing.T) {
	t.Parallel()

	snap, keys := exportStrings(t, "a", "b", "c")
	path := filepath.Join(t.TempDir(), "map.json")

	require.NoError(t, snapfile.Save(path, snap))

	loaded, err := snapfile.Load[string](path)
	require.NoError(t, err)

	if diff := cmp.Diff(snap, loaded, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("snapshot mismatch (-saved +loaded):\n%s", diff)
	}

	r, w, err := snapfile.Open(path, evslot.Options[string]{})
	require.NoError(t, err)

	defer r.Close()
	defer w.Close()

	assert.False(t, r.ContainsKey(keys[0]))

	v, ok := r.Get(keys[2])
	require.True(t, ok)
	assert.Equal(t, "c", v)

	reused := w.Insert("d")
	assert.Equal(t, keys[0].Index, reused.Index)
	assert.Equal(t, keys[0].Generation+1, reused.Generation)
}

func Test_Save_Replaces_Existing_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "map.json")

	first, _ := exportStrings(t, "a")
	second, _ := exportStrings(t, "x", "y")

	require.NoError(t, snapfile.Save(path, first))
	require.NoError(t, snapfile.Save(path, second))

	loaded, err := snapfile.Load[string](path)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Len())

	v, ok := loaded.Get(evslot.Key{Index: 1})
	require.True(t, ok)
	assert.Equal(t, "y", v)
}

func Test_Unmarshal_Returns_Error_When_Document_Is_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
		want error
	}{
		{name: "not json", data: "{", want: snapfile.ErrFormat},
		{name: "wrong marker", data: `{"format":"other","version":1,"snapshot":{}}`, want: snapfile.ErrFormat},
		{name: "future version", data: `{"format":"evslot-snapshot","version":2,"snapshot":{}}`, want: snapfile.ErrVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := snapfile.Unmarshal[string]([]byte(tt.data))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func Test_Open_Returns_Invalid_Snapshot_When_Free_List_Is_Inconsistent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.json")
	data := `{"format":"evslot-snapshot","version":1,"snapshot":{"slots":[{"occupied":true,"generation":0,"value":"a"}],"free":[0]}}`

	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	_, _, err := snapfile.Open(path, evslot.Options[string]{})
	require.ErrorIs(t, err, evslot.ErrInvalidSnapshot)
}

func Test_Load_Returns_Error_When_File_Is_Missing(t *testing.T) {
	t.Parallel()

	_, err := snapfile.Load[string](filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
