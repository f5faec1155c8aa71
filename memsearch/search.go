// Package memsearch estimates the smallest heap limit under which the
// parsing tool succeeds on a file.
package memsearch

import (
	"context"
	"errors"
	"fmt"

	"github.com/weiihann/parsebench/harness"
)

// Defaults for the probed memory range, in megabytes.
const (
	DefaultStartMB   = 1
	DefaultMaxMB     = 4096
	DefaultFatalCode = 42
)

// ErrFatalExit is matched by errors returned when the tool exits with the
// fatal code.
var ErrFatalExit = errors.New("tool exited with fatal code")

// FatalExitError carries the probe that hit the fatal exit code.
type FatalExitError struct {
	File  string
	MemMB int
	Code  int
}

func (e *FatalExitError) Error() string {
	return fmt.Sprintf("%s at %dMB on %s: exit code %d",
		ErrFatalExit, e.MemMB, e.File, e.Code)
}

func (e *FatalExitError) Unwrap() error { return ErrFatalExit }

// Prober runs the tool on a file with a heap limit and reports its exit
// code. A non-nil error means the process could not be run.
type Prober interface {
	Probe(ctx context.Context, file string, memMB int) (int, error)
}

// Config bounds the search.
type Config struct {
	StartMB   int
	MaxMB     int
	FatalCode int
}

// DefaultConfig returns the standard 1MB..4096MB search.
func DefaultConfig() Config {
	return Config{
		StartMB:   DefaultStartMB,
		MaxMB:     DefaultMaxMB,
		FatalCode: DefaultFatalCode,
	}
}

// Validate checks that the bounds describe a usable range.
func (c Config) Validate() error {
	if c.StartMB < 1 {
		return fmt.Errorf("start memory must be at least 1MB, got %d", c.StartMB)
	}

	if c.MaxMB < c.StartMB {
		return fmt.Errorf("max memory %dMB is below start memory %dMB",
			c.MaxMB, c.StartMB)
	}

	if c.FatalCode == 0 {
		return fmt.Errorf("fatal exit code must be non-zero")
	}

	return nil
}

// Searcher runs the doubling and bisection search for single files.
type Searcher struct {
	cfg    Config
	prober Prober
}

// NewSearcher creates a Searcher probing through p.
func NewSearcher(cfg Config, p Prober) *Searcher {
	return &Searcher{cfg: cfg, prober: p}
}

// Search returns the largest heap limit, in MB, at which the tool still
// failed on file; one more megabyte is the smallest working limit. A file
// that fails at MaxMB yields harness.ExceededSentinel(MaxMB).
func (s *Searcher) Search(ctx context.Context, file string) (int, error) {
	cache := make(map[int]int)

	succeeds := func(mem int) (bool, error) {
		code, ok := cache[mem]
		if !ok {
			var err error

			code, err = s.prober.Probe(ctx, file, mem)
			if err != nil {
				return false, fmt.Errorf("probe %dMB: %w", mem, err)
			}

			cache[mem] = code
		}

		if code == s.cfg.FatalCode {
			return false, &FatalExitError{File: file, MemMB: mem, Code: code}
		}

		return code == 0, nil
	}

	l, r := 0, s.cfg.StartMB

	for r <= s.cfg.MaxMB {
		ok, err := succeeds(r)
		if err != nil {
			return 0, err
		}

		if ok {
			break
		}

		l = r
		r *= 2
	}

	// Exhausting the range returns before bisection; l is not refined.
	if r > s.cfg.MaxMB {
		return harness.ExceededSentinel(s.cfg.MaxMB), nil
	}

	for r-l > 1 {
		m := (l + r) / 2

		ok, err := succeeds(m)
		if err != nil {
			return 0, err
		}

		if ok {
			r = m
		} else {
			l = m
		}
	}

	return l, nil
}
