package cli

import (
	"context"
	"strconv"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/evslot/internal/config"
)

// PrintConfigCmd returns the print-config command.
func PrintConfigCmd(cfg *config.Config) *Command {
	fs := flag.NewFlagSet("print-config", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "Print the configuration as JSON")

	return &Command{
		Flags: fs,
		Usage: "print-config [--json]",
		Short: "Show resolved configuration",
		Long:  "Display the effective configuration and which files it was loaded from.",
		Exec: func(_ context.Context, io *IO, _ []string) error {
			if *asJSON {
				return execPrintConfigJSON(io, cfg)
			}

			return execPrintConfig(io, cfg)
		},
	}
}

func execPrintConfig(io *IO, cfg *config.Config) error {
	io.Println("effective_cwd=" + cfg.EffectiveCwd)
	io.Println("history_file=" + cfg.HistoryFile)

	if cfg.SnapshotFile != "" {
		io.Println("snapshot_file=" + cfg.SnapshotFile)
	}

	io.Println("spins_before_yield=" + strconv.Itoa(cfg.SpinsBeforeYield))
	io.Println("stress_readers=" + strconv.Itoa(cfg.StressReaders))
	io.Println("stress_writes=" + strconv.Itoa(cfg.StressWrites))
	io.Println("stress_keys=" + strconv.Itoa(cfg.StressKeys))

	io.Println("")
	io.Println("# sources")

	if cfg.Sources.Global == "" && cfg.Sources.Project == "" {
		io.Println("(defaults only)")
	} else {
		if cfg.Sources.Global != "" {
			io.Println("global_config=" + cfg.Sources.Global)
		}

		if cfg.Sources.Project != "" {
			io.Println("project_config=" + cfg.Sources.Project)
		}
	}

	return nil
}

func execPrintConfigJSON(io *IO, cfg *config.Config) error {
	formatted, err := config.Format(*cfg)
	if err != nil {
		return err
	}

	io.Println(formatted)

	return nil
}
