package cli

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/evslot/internal/config"
	"github.com/calvinalkan/evslot/pkg/evslot"
)

// ErrStressViolation is returned when a reader observed a value the writer
// never assigned.
var ErrStressViolation = errors.New("stress: readers observed inconsistent values")

// ErrInvalidFlag is returned for out-of-range flag values.
var ErrInvalidFlag = errors.New("invalid flag value")

// StressCmd returns the stress command.
func StressCmd(cfg *config.Config) *Command {
	fs := flag.NewFlagSet("stress", flag.ContinueOnError)
	readers := fs.IntP("readers", "r", cfg.StressReaders, "Number of reader goroutines")
	writes := fs.IntP("writes", "n", cfg.StressWrites, "Number of updates the writer performs")
	keys := fs.IntP("keys", "k", cfg.StressKeys, "Number of keys the writer cycles through")

	return &Command{
		Flags: fs,
		Usage: "stress [flags]",
		Short: "Run readers against a busy writer",
		Long: `Run reader goroutines against a writer that keeps updating a fixed set of
keys with increasing sequence numbers. Every reader checks that each key only
ever moves forward and never shows a value the writer did not assign, then
the writer counters are printed.`,
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			return execStress(ctx, o, stressParams{
				readers: *readers,
				writes:  *writes,
				keys:    *keys,
				spins:   cfg.SpinsBeforeYield,
			})
		},
	}
}

type stressParams struct {
	readers int
	writes  int
	keys    int
	spins   int
}

type stressResult struct {
	stats      evslot.WriterStats
	reads      uint64
	violations uint64
	elapsed    time.Duration
}

func execStress(ctx context.Context, o *IO, p stressParams) error {
	for name, v := range map[string]int{"--readers": p.readers, "--writes": p.writes, "--keys": p.keys} {
		if v < 1 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidFlag, name, v)
		}
	}

	res, err := runStress(ctx, p)
	if err != nil {
		return err
	}

	o.Printf("readers=%d writes=%d keys=%d\n", p.readers, p.writes, p.keys)
	o.Printf("publishes=%d drain_passes=%d drain_yields=%d\n",
		res.stats.Publishes, res.stats.DrainPasses, res.stats.DrainYields)
	o.Printf("reads=%d violations=%d elapsed=%s\n", res.reads, res.violations, res.elapsed.Round(time.Millisecond))

	if res.violations > 0 {
		return fmt.Errorf("%w: %d", ErrStressViolation, res.violations)
	}

	return nil
}

// runStress has write seq store seq under key seq%keys. Key i therefore only
// ever holds -1 or a number congruent to i modulo the key count, and its
// value never decreases.
func runStress(ctx context.Context, p stressParams) (stressResult, error) {
	initial := make([]int, p.keys)
	for i := range initial {
		initial[i] = -1
	}

	r, w, keys := evslot.NewWithValues(initial, evslot.Options[int]{SpinsBeforeYield: p.spins})
	defer w.Close()

	var (
		stop       atomic.Bool
		reads      atomic.Uint64
		violations atomic.Uint64
		wg         sync.WaitGroup
	)

	for range p.readers {
		reader := r.Clone()

		wg.Add(1)

		go func() {
			defer wg.Done()
			defer reader.Close()

			last := make([]int, len(keys))
			for i := range last {
				last[i] = -1
			}

			for !stop.Load() {
				for i, key := range keys {
					v, ok := reader.Get(key)
					reads.Add(1)

					if !ok || v < last[i] || v >= p.writes || (v >= 0 && v%len(keys) != i) {
						violations.Add(1)

						continue
					}

					last[i] = v
				}
			}
		}()
	}

	r.Close()

	start := time.Now()

	var err error

	for seq := range p.writes {
		if ctx.Err() != nil {
			err = ctx.Err()

			break
		}

		w.Update(keys[seq%len(keys)], seq)
	}

	elapsed := time.Since(start)

	stop.Store(true)
	wg.Wait()

	if err != nil {
		return stressResult{}, err
	}

	return stressResult{
		stats:      w.Stats(),
		reads:      reads.Load(),
		violations: violations.Load(),
		elapsed:    elapsed,
	}, nil
}
