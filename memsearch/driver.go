package memsearch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/weiihann/parsebench/harness"
)

// Sink receives outcomes as soon as they are known.
type Sink interface {
	Write(o harness.Outcome) error
}

// Console receives human-readable progress lines.
type Console interface {
	Info(msg string)
	Success(msg string)
	Warn(msg string)
	Error(msg string)
}

// Driver searches every input file in turn and records the outcomes.
type Driver struct {
	cfg      Config
	searcher *Searcher
	sink     Sink
	console  Console
	logger   *slog.Logger
}

// NewDriver creates a Driver that probes through p and writes to sink.
func NewDriver(
	cfg Config,
	p Prober,
	sink Sink,
	console Console,
	logger *slog.Logger,
) *Driver {
	return &Driver{
		cfg:      cfg,
		searcher: NewSearcher(cfg, p),
		sink:     sink,
		console:  console,
		logger:   logger,
	}
}

// Run searches files in order. Each outcome is written to the sink before
// the next file starts. On error the outcomes gathered so far are
// returned with it; a fatal exit code stops the run immediately.
func (d *Driver) Run(ctx context.Context, files []string) ([]harness.Outcome, error) {
	outcomes := make([]harness.Outcome, 0, len(files))

	for i, path := range files {
		name := filepath.Base(path)

		d.console.Info(fmt.Sprintf("[%d/%d] %s", i+1, len(files), name))

		start := time.Now()

		mem, err := d.searcher.Search(ctx, path)
		if err != nil {
			var fatal *FatalExitError
			if errors.As(err, &fatal) {
				d.console.Error(fmt.Sprintf(
					"%s: tool exited with code %d at %dMB, aborting",
					name, fatal.Code, fatal.MemMB,
				))
			}

			return outcomes, fmt.Errorf("search %s: %w", name, err)
		}

		outcome := harness.Outcome{File: name, MemMB: mem}

		if err := d.sink.Write(outcome); err != nil {
			return outcomes, fmt.Errorf("record %s: %w", name, err)
		}

		outcomes = append(outcomes, outcome)

		d.logger.InfoContext(ctx, "file searched",
			slog.String("file", name),
			slog.Int("mem_mb", mem),
			slog.Bool("exceeded", outcome.Exceeded(d.cfg.MaxMB)),
			slog.Duration("elapsed", time.Since(start)),
		)

		if outcome.Exceeded(d.cfg.MaxMB) {
			d.console.Warn(fmt.Sprintf("%s: still failing at %dMB", name, d.cfg.MaxMB))
		} else {
			d.console.Success(fmt.Sprintf("%s: %dMB", name, mem))
		}
	}

	return outcomes, nil
}
