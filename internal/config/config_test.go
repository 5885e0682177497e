package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/evslot/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func Test_Load_Returns_Defaults_When_No_Files_Exist(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	home := t.TempDir()

	cfg, err := config.Load(config.LoadInput{WorkDir: dir, Env: map[string]string{"HOME": home}})
	require.NoError(t, err)

	def := config.Default()
	assert.Equal(t, def.StressReaders, cfg.StressReaders)
	assert.Equal(t, def.StressWrites, cfg.StressWrites)
	assert.Equal(t, def.StressKeys, cfg.StressKeys)
	assert.Equal(t, filepath.Join(home, ".evsloty_history"), cfg.HistoryFile)
	assert.Equal(t, dir, cfg.EffectiveCwd)
	assert.Empty(t, cfg.Sources.Global)
	assert.Empty(t, cfg.Sources.Project)
}

func Test_Load_Applies_Precedence_When_All_Sources_Are_Present(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	xdg := t.TempDir()

	globalPath := filepath.Join(xdg, "evsloty", "config.json")
	writeFile(t, globalPath, `{
		// global
		"stress_readers": 2,
		"stress_writes": 50,
		"stress_keys": 3,
	}`)
	writeFile(t, filepath.Join(dir, config.FileName), `{"stress_writes": 60, "stress_keys": 4}`)

	cfg, err := config.Load(config.LoadInput{
		WorkDir:   dir,
		Overrides: config.Config{StressKeys: 5},
		Env:       map[string]string{"XDG_CONFIG_HOME": xdg},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.StressReaders, "from global")
	assert.Equal(t, 60, cfg.StressWrites, "project beats global")
	assert.Equal(t, 5, cfg.StressKeys, "override beats project")
	assert.Equal(t, globalPath, cfg.Sources.Global)
	assert.Equal(t, filepath.Join(dir, config.FileName), cfg.Sources.Project)
}

func Test_Load_Uses_Explicit_File_Instead_Of_Project_File_When_Given(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, config.FileName), `{"spins_before_yield": 3}`)
	writeFile(t, filepath.Join(dir, "custom.json"), `{"snapshot_file": "snap.json"}`)

	cfg, err := config.Load(config.LoadInput{WorkDir: dir, ConfigPath: "custom.json"})
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.SpinsBeforeYield)
	assert.Equal(t, filepath.Join(dir, "snap.json"), cfg.SnapshotFile)
	assert.Equal(t, filepath.Join(dir, "custom.json"), cfg.Sources.Project)
}

func Test_Load_Returns_Error_When_Explicit_File_Is_Missing(t *testing.T) {
	t.Parallel()

	_, err := config.Load(config.LoadInput{WorkDir: t.TempDir(), ConfigPath: "nope.json"})
	require.ErrorIs(t, err, config.ErrFileNotFound)
}

func Test_Load_Returns_Error_When_File_Is_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "broken jsonc", content: `{"stress_keys": }`},
		{name: "unknown field", content: `{"ticket_dir": "x"}`},
		{name: "wrong type", content: `{"stress_keys": "many"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, config.FileName), tt.content)

			_, err := config.Load(config.LoadInput{WorkDir: dir})
			require.ErrorIs(t, err, config.ErrInvalid)
		})
	}
}

func Test_Load_Returns_Error_When_Stress_Value_Is_Negative(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.FileName), `{"stress_readers": -1}`)

	_, err := config.Load(config.LoadInput{WorkDir: dir})
	require.ErrorIs(t, err, config.ErrInvalidValue)
}

func Test_Load_Keeps_Absolute_Paths_When_Configured(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	abs := filepath.Join(t.TempDir(), "hist")

	cfg, err := config.Load(config.LoadInput{
		WorkDir:   dir,
		Overrides: config.Config{HistoryFile: abs},
	})
	require.NoError(t, err)

	assert.Equal(t, abs, cfg.HistoryFile)
}

func Test_Format_Omits_Resolved_Fields(t *testing.T) {
	t.Parallel()

	out, err := config.Format(config.Config{StressKeys: 2, EffectiveCwd: "/somewhere"})
	require.NoError(t, err)

	assert.Contains(t, out, `"stress_keys": 2`)
	assert.NotContains(t, out, "somewhere")
}
