// Package results loads benchmark result trees: one directory per dataset,
// one CSV file per tool inside it.
package results

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Defaults for loading result trees.
const (
	DefaultComment        = "#"
	DefaultAggregateLabel = "All projects"
	csvExt                = ".csv"
)

var (
	// ErrNoDatasets is returned when the root has no dataset directories.
	ErrNoDatasets = errors.New("no dataset directories")
	// ErrNoData is returned for a dataset or file with nothing to plot.
	ErrNoData = errors.New("no data")
	// ErrColumnOutOfRange is returned when the header is too short for
	// the requested column.
	ErrColumnOutOfRange = errors.New("column out of range")
)

// Series is the ordered sequence of values one tool produced.
type Series struct {
	Tool   string
	Values []float64
}

// Dataset groups the series of every tool benchmarked on one project.
type Dataset struct {
	Name   string
	Series []Series
}

// Tools returns the tool names in series order.
func (d Dataset) Tools() []string {
	tools := make([]string, len(d.Series))
	for i, s := range d.Series {
		tools[i] = s.Tool
	}

	return tools
}

// Values returns the series for tool, or nil if the tool is absent.
func (d Dataset) Values(tool string) []float64 {
	for _, s := range d.Series {
		if s.Tool == tool {
			return s.Values
		}
	}

	return nil
}

// LoadOptions selects what is read from each CSV file.
type LoadOptions struct {
	// Column is the 0-based index into the header row.
	Column int
	// Comment marks rows to skip when it equals the first field.
	Comment string
}

func (o LoadOptions) comment() string {
	if o.Comment == "" {
		return DefaultComment
	}

	return o.Comment
}

// Load reads every dataset directory directly under root. Datasets and
// tools are ordered by name.
func Load(root string, opts LoadOptions) ([]Dataset, error) {
	if opts.Column < 0 {
		return nil, fmt.Errorf("%w: column %d", ErrColumnOutOfRange, opts.Column)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read results dir: %w", err)
	}

	var datasets []Dataset

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		ds, err := loadDataset(filepath.Join(root, entry.Name()), opts)
		if err != nil {
			return nil, err
		}

		datasets = append(datasets, ds)
	}

	if len(datasets) == 0 {
		return nil, fmt.Errorf("%s: %w", root, ErrNoDatasets)
	}

	return datasets, nil
}

func loadDataset(dir string, opts LoadOptions) (Dataset, error) {
	ds := Dataset{Name: filepath.Base(dir)}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return ds, fmt.Errorf("read dataset %s: %w", ds.Name, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), csvExt) {
			continue
		}

		path := filepath.Join(dir, entry.Name())

		values, err := ReadFile(path, opts)
		if err != nil {
			return ds, err
		}

		ds.Series = append(ds.Series, Series{
			Tool:   strings.TrimSuffix(entry.Name(), csvExt),
			Values: values,
		})
	}

	if len(ds.Series) == 0 {
		return ds, fmt.Errorf("dataset %s: %w: no %s files", ds.Name, ErrNoData, csvExt)
	}

	return ds, nil
}

// ReadFile reads the selected column of a single CSV file.
func ReadFile(path string, opts LoadOptions) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	values, err := ReadColumn(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return values, nil
}

// commentFilter blanks every line starting with the marker before the
// CSV reader sees it. Blank lines are skipped by encoding/csv but still
// counted, so reported line numbers match the file.
type commentFilter struct {
	sc     *bufio.Scanner
	marker string
	buf    []byte
}

func newCommentFilter(r io.Reader, marker string) *commentFilter {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	return &commentFilter{sc: sc, marker: marker}
}

func (f *commentFilter) Read(p []byte) (int, error) {
	for len(f.buf) == 0 {
		if !f.sc.Scan() {
			if err := f.sc.Err(); err != nil {
				return 0, err
			}

			return 0, io.EOF
		}

		line := f.sc.Bytes()
		if strings.HasPrefix(strings.TrimLeft(string(line), " \t"), f.marker) {
			line = nil
		}

		f.buf = append(f.buf[:0], line...)
		f.buf = append(f.buf, '\n')
	}

	n := copy(p, f.buf)
	f.buf = f.buf[n:]

	return n, nil
}

// ReadColumn reads the selected column from CSV data. Lines starting with
// the comment marker are dropped, the first remaining row is the header,
// and every later row must hold a number in the column.
func ReadColumn(r io.Reader, opts LoadOptions) ([]float64, error) {
	cr := csv.NewReader(newCommentFilter(r, opts.comment()))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var (
		header []string
		values []float64
	)

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}

		line, _ := cr.FieldPos(0)

		if header == nil {
			header = rec
			if opts.Column >= len(header) {
				return nil, fmt.Errorf("line %d: %w: column %d, header has %d fields",
					line, ErrColumnOutOfRange, opts.Column, len(header))
			}

			continue
		}

		if opts.Column >= len(rec) {
			return nil, fmt.Errorf("line %d: %w: missing column %q",
				line, ErrColumnOutOfRange, header[opts.Column])
		}

		cell := strings.TrimSpace(rec[opts.Column])

		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: column %q: %q is not a number",
				line, header[opts.Column], cell)
		}

		values = append(values, v)
	}

	if len(values) == 0 {
		return nil, ErrNoData
	}

	return values, nil
}
