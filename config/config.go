// Package config holds the settings of both subcommands and loads them
// from an optional YAML file. Values given on the command line win over
// the file, and the file wins over the defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/weiihann/parsebench/harness"
	"github.com/weiihann/parsebench/memsearch"
	"github.com/weiihann/parsebench/results"
)

// MemSearch configures the memory search.
type MemSearch struct {
	StartMB    int           `yaml:"start_mb"`
	MaxMB      int           `yaml:"max_mb"`
	FatalCode  int           `yaml:"fatal_code"`
	Runtime    string        `yaml:"runtime"`
	Entrypoint string        `yaml:"entrypoint"`
	OutDir     string        `yaml:"out_dir"`
	Timeout    time.Duration `yaml:"timeout"`
	Sample     int           `yaml:"sample"`
	Seed       int64         `yaml:"seed"`
	BuildDir   string        `yaml:"build_dir"`
	BuildTask  string        `yaml:"build_task"`
	Summary    bool          `yaml:"summary"`
	JSON       bool          `yaml:"json"`
}

// Plot configures the result plotter. Sizes are in inches.
type Plot struct {
	Results        string  `yaml:"results"`
	Metric         string  `yaml:"metric"`
	Column         int     `yaml:"column"`
	Output         string  `yaml:"output"`
	ValueLabel     string  `yaml:"value_label"`
	Comment        string  `yaml:"comment"`
	AggregateLabel string  `yaml:"aggregate_label"`
	Width          float64 `yaml:"width"`
	PanelHeight    float64 `yaml:"panel_height"`
	Summary        bool    `yaml:"summary"`
}

// File is the layout of a config file.
type File struct {
	MemSearch MemSearch `yaml:"memsearch"`
	Plot      Plot      `yaml:"plot"`

	// fileKeys holds "section.key" for every key a decoded document set.
	fileKeys map[string]bool
}

// SetInFile reports whether a decoded config document set key (the YAML
// name) in section.
func (f *File) SetInFile(section, key string) bool {
	return f.fileKeys[section+"."+key]
}

// PlotExplicit reports, per plot flag name, whether the value was given on
// the command line or in the config file.
func (f *File) PlotExplicit(flags *pflag.FlagSet) func(field string) bool {
	return func(field string) bool {
		if flags != nil && flags.Changed(field) {
			return true
		}

		return f.SetInFile("plot", strings.ReplaceAll(field, "-", "_"))
	}
}

// Metric is a preset selecting the column, output file and axis label of
// a plot.
type Metric struct {
	Column     int
	Output     string
	ValueLabel string
}

// Metrics lists the known presets.
var Metrics = map[string]Metric{
	"time":   {Column: 1, Output: "time.png", ValueLabel: "time"},
	"memory": {Column: 2, Output: "memory.png", ValueLabel: "memory"},
}

// Default returns the built-in settings.
func Default() File {
	return File{
		MemSearch: MemSearch{
			StartMB:    memsearch.DefaultStartMB,
			MaxMB:      memsearch.DefaultMaxMB,
			FatalCode:  memsearch.DefaultFatalCode,
			Runtime:    harness.DefaultRuntime,
			Entrypoint: harness.DefaultEntrypoint,
			OutDir:     ".",
			Seed:       1,
			BuildTask:  "shadowJar",
		},
		Plot: Plot{
			Results:        "results",
			Column:         1,
			Output:         "time.png",
			ValueLabel:     "time",
			Comment:        results.DefaultComment,
			AggregateLabel: results.DefaultAggregateLabel,
			Width:          8,
			PanelHeight:    3,
		},
	}
}

// Decode reads YAML from r into f. Keys absent from the document leave
// the current values untouched; unknown keys are rejected.
func Decode(r io.Reader, f *File) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}

		return fmt.Errorf("decode config: %w", err)
	}

	var sections map[string]map[string]any
	if err := yaml.Unmarshal(data, &sections); err != nil {
		return fmt.Errorf("decode config keys: %w", err)
	}

	for section, keys := range sections {
		for key := range keys {
			if f.fileKeys == nil {
				f.fileKeys = make(map[string]bool)
			}

			f.fileKeys[section+"."+key] = true
		}
	}

	return nil
}

// Overlay decodes the file at path into f and then re-applies every flag
// that was set on the command line, so explicit flags keep precedence.
func Overlay(path string, f *File, flags *pflag.FlagSet) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	explicit := make(map[string]string)
	flags.Visit(func(fl *pflag.Flag) {
		explicit[fl.Name] = fl.Value.String()
	})

	if err := Decode(bytes.NewReader(data), f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	for name, value := range explicit {
		if err := flags.Set(name, value); err != nil {
			return fmt.Errorf("reapply --%s: %w", name, err)
		}
	}

	return nil
}

// ApplyMetric fills the column, output and value label from the metric
// preset, if one is selected, leaving any field for which explicit
// reports true.
func (p *Plot) ApplyMetric(explicit func(field string) bool) error {
	if p.Metric == "" {
		return nil
	}

	m, ok := Metrics[p.Metric]
	if !ok {
		return fmt.Errorf("unknown metric %q (want time or memory)", p.Metric)
	}

	if !explicit("column") {
		p.Column = m.Column
	}
	if !explicit("output") {
		p.Output = m.Output
	}
	if !explicit("value-label") {
		p.ValueLabel = m.ValueLabel
	}

	return nil
}
