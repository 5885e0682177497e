package cli_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/evslot/internal/cli"
)

// Tests for print-config command.

func Test_Print_Config_Defaults_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.MustRun("print-config")

	cli.AssertContains(t, stdout, "effective_cwd="+c.Dir)
	cli.AssertContains(t, stdout, "stress_readers=4")
	cli.AssertContains(t, stdout, "history_file="+filepath.Join(c.Env["HOME"], ".evsloty_history"))
	cli.AssertContains(t, stdout, "(defaults only)")
	cli.AssertNotContains(t, stdout, "snapshot_file=")
}

func Test_Print_Config_From_Config_File_With_Comments_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile(".evsloty.json", `{
		// readers for the stress command
		"stress_readers": 7,
		"snapshot_file": "data/map.json",
	}`)

	stdout := c.MustRun("print-config")

	cli.AssertContains(t, stdout, "stress_readers=7")
	cli.AssertContains(t, stdout, "snapshot_file="+c.Path("data/map.json"))
	cli.AssertContains(t, stdout, "project_config="+c.Path(".evsloty.json"))
}

func Test_Print_Config_Explicit_Config_Flag_When_Invoked(t *testing.T) {
	t.Parallel()

	for _, args := range [][]string{
		{"-c", "custom.json", "print-config"},
		{"--config=custom.json", "print-config"},
	} {
		c := cli.NewCLI(t)
		c.WriteFile("custom.json", `{"stress_writes": 12}`)

		stdout := c.MustRun(args...)
		cli.AssertContains(t, stdout, "stress_writes=12")
	}
}

func Test_Print_Config_Global_Config_When_XDG_Is_Set(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	xdg := t.TempDir()
	c.Env["XDG_CONFIG_HOME"] = xdg

	require.NoError(t, os.MkdirAll(filepath.Join(xdg, "evsloty"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(xdg, "evsloty", "config.json"), []byte(`{"stress_keys": 9}`), 0o600))

	stdout := c.MustRun("print-config")

	cli.AssertContains(t, stdout, "stress_keys=9")
	cli.AssertContains(t, stdout, "global_config="+filepath.Join(xdg, "evsloty", "config.json"))
}

func Test_Print_Config_Spins_Flag_Overrides_File_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile(".evsloty.json", `{"spins_before_yield": 5}`)

	stdout := c.MustRun("--spins=-1", "print-config")
	cli.AssertContains(t, stdout, "spins_before_yield=-1")
}

func Test_Print_Config_JSON_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.MustRun("print-config", "--json")

	cli.AssertContains(t, stdout, `"stress_writes": 10000`)
	cli.AssertNotContains(t, stdout, "effective_cwd")
}

func Test_Print_Config_Missing_Explicit_Config_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("--config", "missing.json", "print-config")

	cli.AssertContains(t, stderr, "config file not found")
}
