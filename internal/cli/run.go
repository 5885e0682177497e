package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/evslot/internal/config"
)

// ErrNoCommand is returned when global flags are given without a command.
var ErrNoCommand = errors.New("no command provided")

// ErrUnknownCommand is returned for a command name that does not exist.
var ErrUnknownCommand = errors.New("unknown command")

// Run is the main entry point. Returns exit code.
//
// A signal received on sigCh cancels the running command's context. sigCh
// may be nil.
func Run(in io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	globals := newGlobalFlags()

	if len(args) < 2 {
		printUsage(out, globals.fs, nil)

		return 0
	}

	err := globals.fs.Parse(args[1:])
	if err != nil {
		fprintln(errOut, "error:", err)
		printUsage(errOut, globals.fs, nil)

		return 1
	}

	if *globals.help {
		printUsage(out, globals.fs, nil)

		return 0
	}

	rest := globals.fs.Args()
	if len(rest) == 0 {
		fprintln(errOut, "error:", ErrNoCommand)
		printUsage(errOut, globals.fs, nil)

		return 1
	}

	overrides := config.Config{}
	if globals.fs.Changed("spins") {
		overrides.SpinsBeforeYield = *globals.spins
	}

	cfg, err := config.Load(config.LoadInput{
		WorkDir:    *globals.workDir,
		ConfigPath: *globals.configPath,
		Overrides:  overrides,
		Env:        env,
	})
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	commands := []*Command{
		ReplCmd(&cfg, in),
		StressCmd(&cfg),
		PrintConfigCmd(&cfg),
	}

	name := rest[0]

	var cmd *Command

	for _, c := range commands {
		if c.Name() == name {
			cmd = c

			break
		}
	}

	if cmd == nil {
		fprintln(errOut, "error:", fmt.Errorf("%w: %s", ErrUnknownCommand, name))
		printUsage(errOut, globals.fs, commands)

		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sigCh != nil {
		go func() {
			select {
			case <-sigCh:
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	o := NewIO(out, errOut)

	code := cmd.Run(ctx, o, rest[1:])
	if code != 0 {
		return code
	}

	return o.Finish()
}

type globalFlags struct {
	fs         *flag.FlagSet
	workDir    *string
	configPath *string
	spins      *int
	help       *bool
}

func newGlobalFlags() globalFlags {
	fs := flag.NewFlagSet("evsloty", flag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.SetOutput(&strings.Builder{}) // discard pflag output

	return globalFlags{
		fs:         fs,
		workDir:    fs.StringP("cwd", "C", "", "Run as if started in `dir`"),
		configPath: fs.StringP("config", "c", "", "Use specified config `file`"),
		spins:      fs.Int("spins", 0, "Registry scans before a draining writer yields (negative: never spin)"),
		help:       fs.BoolP("help", "h", false, "Show help"),
	}
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func printUsage(w io.Writer, fs *flag.FlagSet, commands []*Command) {
	if commands == nil {
		cfg := config.Default()
		commands = []*Command{
			ReplCmd(&cfg, nil),
			StressCmd(&cfg),
			PrintConfigCmd(&cfg),
		}
	}

	fprintln(w, `evsloty - playground for double-buffered slot maps

Usage: evsloty [global flags] <command> [args]

Global flags:`)
	fprintln(w, strings.TrimRight(fs.FlagUsages(), "\n"))
	fprintln(w)
	fprintln(w, "Commands:")

	for _, c := range commands {
		fprintln(w, c.HelpLine())
	}
}
