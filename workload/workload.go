// Package workload selects the input files a memory search runs over.
// Selection is deterministic: files are taken in name order and an
// optional sample is drawn from a seeded source.
package workload

import (
	"fmt"
	mrand "math/rand"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Config controls which files are selected.
type Config struct {
	Dir string
	// Sample limits the run to this many files; zero or less keeps all.
	Sample int
	Seed   int64
}

// Select discovers the files in cfg.Dir and applies the sample limit.
func Select(cfg Config) ([]string, error) {
	files, err := Discover(cfg.Dir)
	if err != nil {
		return nil, err
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no input files in %s", cfg.Dir)
	}

	return Sample(files, cfg.Sample, cfg.Seed), nil
}

// Discover returns the regular, non-hidden files directly inside dir in
// name order.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}

	files := make([]string, 0, len(entries))

	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		if !entry.Type().IsRegular() {
			continue
		}

		files = append(files, filepath.Join(dir, entry.Name()))
	}

	return files, nil
}

// Sample picks n of files using a source seeded with seed. The picked
// files keep their relative order.
func Sample(files []string, n int, seed int64) []string {
	if n <= 0 || n >= len(files) {
		return files
	}

	rng := mrand.New(mrand.NewSource(seed))

	picked := rng.Perm(len(files))[:n]
	slices.Sort(picked)

	out := make([]string, n)
	for i, idx := range picked {
		out[i] = files[idx]
	}

	return out
}
