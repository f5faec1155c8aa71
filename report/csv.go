package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/weiihann/parsebench/harness"
)

// OutcomeHeader is the header row of an outcome file.
var OutcomeHeader = []string{"file", "mem"}

// OutcomeFileName returns the result file name used for tool.
func OutcomeFileName(tool string) string {
	return tool + "_res.txt"
}

type syncer interface {
	Sync() error
}

// OutcomeWriter appends outcome rows to a CSV stream, flushing after
// every row so partial results survive an aborted run.
type OutcomeWriter struct {
	w   *csv.Writer
	out io.Writer
}

// NewOutcomeWriter writes the header to w and returns a writer for rows.
func NewOutcomeWriter(w io.Writer) (*OutcomeWriter, error) {
	ow := &OutcomeWriter{w: csv.NewWriter(w), out: w}
	if err := ow.writeRow(OutcomeHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	return ow, nil
}

// Write appends one outcome row.
func (ow *OutcomeWriter) Write(o harness.Outcome) error {
	return ow.writeRow([]string{o.File, strconv.Itoa(o.MemMB)})
}

func (ow *OutcomeWriter) writeRow(row []string) error {
	if err := ow.w.Write(row); err != nil {
		return err
	}

	ow.w.Flush()
	if err := ow.w.Error(); err != nil {
		return err
	}

	if s, ok := ow.out.(syncer); ok {
		return s.Sync()
	}

	return nil
}

// CreateOutcomeFile creates <dir>/<tool>_res.txt, truncating any previous
// run, and returns a writer for it along with the file to close.
func CreateOutcomeFile(dir, tool string) (*OutcomeWriter, *os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(dir, OutcomeFileName(tool))

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}

	ow, err := NewOutcomeWriter(f)
	if err != nil {
		f.Close()

		return nil, nil, fmt.Errorf("write %s: %w", path, err)
	}

	return ow, f, nil
}

// ReadOutcomes parses an outcome file written by OutcomeWriter.
func ReadOutcomes(r io.Reader) ([]harness.Outcome, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read outcomes: %w", err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("read outcomes: missing header")
	}

	outcomes := make([]harness.Outcome, 0, len(records)-1)

	for i, rec := range records[1:] {
		if len(rec) != len(OutcomeHeader) {
			return nil, fmt.Errorf("line %d: want %d fields, got %d",
				i+2, len(OutcomeHeader), len(rec))
		}

		mem, err := strconv.Atoi(rec[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: parse mem: %w", i+2, err)
		}

		outcomes = append(outcomes, harness.Outcome{File: rec[0], MemMB: mem})
	}

	return outcomes, nil
}
