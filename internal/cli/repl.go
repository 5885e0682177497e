package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/evslot/internal/config"
	"github.com/calvinalkan/evslot/pkg/evslot"
	"github.com/calvinalkan/evslot/pkg/evslot/snapfile"
)

// ErrTooManyArgs is returned when a command receives extra positional args.
var ErrTooManyArgs = errors.New("too many arguments")

const replPrompt = "evsloty> "

var replCommands = []string{
	"insert", "get", "update", "remove",
	"len", "list", "clear", "save", "stats",
	"help", "exit", "quit", "q",
}

// ReplCmd returns the repl command. in is the source of REPL lines; when it
// is os.Stdin the REPL gets line editing and history.
func ReplCmd(cfg *config.Config, in io.Reader) *Command {
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)
	noHistory := fs.Bool("no-history", false, "Do not read or write the history file")

	return &Command{
		Flags: fs,
		Usage: "repl [snapshot-file]",
		Short: "Interactive shell over a string map",
		Long: `Start an interactive shell over an in-memory map of strings.

If snapshot-file is given the map is loaded from it, otherwise from the
configured snapshot_file when that file exists. "save" without an argument
writes back to the same file.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			return execRepl(ctx, o, cfg, in, args, *noHistory)
		},
	}
}

func execRepl(ctx context.Context, o *IO, cfg *config.Config, in io.Reader, args []string, noHistory bool) error {
	if len(args) > 1 {
		return fmt.Errorf("%w: %v", ErrTooManyArgs, args[1:])
	}

	path := cfg.SnapshotFile
	mustLoad := false

	if len(args) == 1 {
		path = resolvePath(cfg.EffectiveCwd, args[0])
		mustLoad = true
	}

	h, err := openMap(path, mustLoad, evslot.Options[string]{SpinsBeforeYield: cfg.SpinsBeforeYield})
	if err != nil {
		return err
	}

	defer h.Close()

	s := &replSession{
		o:        o,
		h:        h,
		reader:   h.Reader(),
		cwd:      cfg.EffectiveCwd,
		savePath: path,
	}
	defer s.reader.Close()

	history := cfg.HistoryFile
	if noHistory {
		history = ""
	}

	src := newLineSource(in, history)
	defer func() {
		closeErr := src.Close()
		if closeErr != nil {
			o.Warn("history not saved", closeErr.Error())
		}
	}()

	return s.loop(ctx, src)
}

// openMap loads the map stored at path. A missing file yields an empty map
// unless mustLoad is set.
func openMap(path string, mustLoad bool, opts evslot.Options[string]) (*evslot.RWHandle[string], error) {
	if path == "" {
		return evslot.NewRW(opts), nil
	}

	r, w, err := snapfile.Open(path, opts)
	if err != nil {
		if !mustLoad && errors.Is(err, os.ErrNotExist) {
			return evslot.NewRW(opts), nil
		}

		return nil, err
	}

	r.Close()

	return evslot.WrapWriter(w), nil
}

type replSession struct {
	o        *IO
	h        *evslot.RWHandle[string]
	reader   *evslot.ReadHandle[string]
	cwd      string
	savePath string
}

func (s *replSession) loop(ctx context.Context, src lineSource) error {
	s.o.Printf("evsloty - %d values loaded\n", s.reader.Len())
	s.o.Println("Type 'help' for available commands.")

	for ctx.Err() == nil {
		line, err := src.Prompt(replPrompt)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				s.o.Println("Bye!")

				return nil
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		src.AppendHistory(line)

		if s.exec(line) {
			s.o.Println("Bye!")

			return nil
		}
	}

	return ctx.Err()
}

// exec runs one REPL line and reports whether the session should end.
func (s *replSession) exec(line string) bool {
	parts := strings.Fields(line)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	var err error

	switch cmd {
	case "exit", "quit", "q":
		return true
	case "help", "?":
		s.printHelp()
	case "insert", "put":
		err = s.cmdInsert(args)
	case "get":
		err = s.cmdGet(args)
	case "update", "set":
		err = s.cmdUpdate(args)
	case "remove", "del", "rm":
		err = s.cmdRemove(args)
	case "len", "count":
		s.o.Println(s.reader.Len())
	case "list", "ls":
		s.cmdList()
	case "clear":
		s.h.Clear()
		s.o.Println("cleared")
	case "save":
		err = s.cmdSave(args)
	case "stats":
		s.cmdStats()
	default:
		s.o.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
	}

	if err != nil {
		s.o.Println("error:", err)
	}

	return false
}

func (s *replSession) printHelp() {
	s.o.Println("Commands:")
	s.o.Println("  insert <value>           Store a value, print its key")
	s.o.Println("  get <key>                Print the value stored under key")
	s.o.Println("  update <key> <value>     Replace a value, print the previous one")
	s.o.Println("  remove <key>             Remove a value, print it")
	s.o.Println("  len                      Count stored values")
	s.o.Println("  list                     List all keys and values in slot order")
	s.o.Println("  clear                    Remove every value")
	s.o.Println("  save [file]              Write a snapshot file")
	s.o.Println("  stats                    Show writer counters")
	s.o.Println("  help                     Show this help")
	s.o.Println("  exit / quit / q          Exit")
	s.o.Println()
	s.o.Println("Keys are written index:generation, e.g. 0:1.")
}

func parseKeyArg(args []string, want int, usage string) (evslot.Key, error) {
	if len(args) < want {
		return evslot.Key{}, fmt.Errorf("usage: %s", usage)
	}

	return evslot.ParseKey(args[0])
}

func (s *replSession) cmdInsert(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: insert <value>")
	}

	s.o.Println(s.h.Insert(strings.Join(args, " ")))

	return nil
}

func (s *replSession) cmdGet(args []string) error {
	key, err := parseKeyArg(args, 1, "get <key>")
	if err != nil {
		return err
	}

	v, ok := s.reader.Get(key)
	if !ok {
		s.o.Println("(absent)")

		return nil
	}

	s.o.Printf("%q\n", v)

	return nil
}

func (s *replSession) cmdUpdate(args []string) error {
	key, err := parseKeyArg(args, 2, "update <key> <value>")
	if err != nil {
		return err
	}

	prev, ok := s.h.Update(key, strings.Join(args[1:], " "))
	if !ok {
		s.o.Println("(absent)")

		return nil
	}

	s.o.Printf("was %q\n", prev)

	return nil
}

func (s *replSession) cmdRemove(args []string) error {
	key, err := parseKeyArg(args, 1, "remove <key>")
	if err != nil {
		return err
	}

	prev, ok := s.h.Remove(key)
	if !ok {
		s.o.Println("(absent)")

		return nil
	}

	s.o.Printf("removed %q\n", prev)

	return nil
}

func (s *replSession) cmdList() {
	ref, ok := s.reader.Read()
	if !ok {
		return
	}
	defer ref.Close()

	for key, v := range ref.All() {
		s.o.Printf("%s\t%q\n", key, *v)
	}

	s.o.Printf("(%d values)\n", ref.Len())
}

func (s *replSession) cmdSave(args []string) error {
	path := s.savePath
	if len(args) > 0 {
		path = resolvePath(s.cwd, args[0])
	}

	if path == "" {
		return errors.New("usage: save <file> (no snapshot_file configured)")
	}

	ref, ok := s.reader.Read()
	if !ok {
		return evslot.ErrClosed
	}

	snap := ref.Snapshot()
	ref.Close()

	err := snapfile.Save(path, snap)
	if err != nil {
		return err
	}

	s.savePath = path
	s.o.Printf("saved %d values to %s\n", snap.Len(), path)

	return nil
}

func (s *replSession) cmdStats() {
	st := s.h.Stats()

	s.o.Printf("writes=%d publishes=%d drain_passes=%d drain_yields=%d readers=%d\n",
		st.Writes, st.Publishes, st.DrainPasses, st.DrainYields, s.h.Factory().Readers())
}

func resolvePath(cwd, path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(cwd, path)
}

// lineSource yields REPL input lines.
type lineSource interface {
	Prompt(prompt string) (string, error)
	AppendHistory(line string)
	Close() error
}

func newLineSource(in io.Reader, historyFile string) lineSource {
	if f, ok := in.(*os.File); ok && f == os.Stdin {
		return newLinerSource(historyFile)
	}

	if in == nil {
		in = strings.NewReader("")
	}

	return &scannerSource{scanner: bufio.NewScanner(in)}
}

// linerSource reads from the terminal with line editing and history.
type linerSource struct {
	state       *liner.State
	historyFile string
}

func newLinerSource(historyFile string) *linerSource {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	state.SetCompleter(completeCommand)

	if historyFile != "" {
		if f, err := os.Open(historyFile); err == nil {
			_, _ = state.ReadHistory(f)
			_ = f.Close()
		}
	}

	return &linerSource{state: state, historyFile: historyFile}
}

func (l *linerSource) Prompt(prompt string) (string, error) {
	return l.state.Prompt(prompt)
}

func (l *linerSource) AppendHistory(line string) {
	l.state.AppendHistory(line)
}

func (l *linerSource) Close() error {
	defer func() { _ = l.state.Close() }()

	if l.historyFile == "" {
		return nil
	}

	f, err := os.Create(l.historyFile)
	if err != nil {
		return fmt.Errorf("write history: %w", err)
	}

	_, err = l.state.WriteHistory(f)

	return errors.Join(err, f.Close())
}

func completeCommand(line string) []string {
	var completions []string

	lower := strings.ToLower(line)
	for _, cmd := range replCommands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}

	return completions
}

// scannerSource reads lines from a non-interactive reader, echoing nothing.
type scannerSource struct {
	scanner *bufio.Scanner
}

func (s *scannerSource) Prompt(string) (string, error) {
	if s.scanner.Scan() {
		return s.scanner.Text(), nil
	}

	err := s.scanner.Err()
	if err != nil {
		return "", err
	}

	return "", io.EOF
}

func (*scannerSource) AppendHistory(string) {}

func (*scannerSource) Close() error { return nil }
