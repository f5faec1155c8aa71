// Package report writes memory search outcomes and summaries of benchmark
// results.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/weiihann/parsebench/harness"
	"github.com/weiihann/parsebench/results"
)

// GenerateOutcomes writes a markdown table of memory search outcomes.
// Outcomes at the sentinel are shown as exceeding maxMB.
func GenerateOutcomes(w io.Writer, outcomes []harness.Outcome, maxMB int) error {
	if len(outcomes) == 0 {
		return fmt.Errorf("no outcomes to report")
	}

	exceeded := 0
	for _, o := range outcomes {
		if o.Exceeded(maxMB) {
			exceeded++
		}
	}

	fmt.Fprintln(w, "## Memory Search Results")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Files: **%d**, exceeded %s: **%d**\n",
		len(outcomes), formatMB(maxMB), exceeded)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "| File | Largest failing | Minimal working |")
	fmt.Fprintln(w, "|------|-----------------|-----------------|")

	for _, o := range outcomes {
		if o.Exceeded(maxMB) {
			fmt.Fprintf(w, "| %s | - | > %s |\n", o.File, formatMB(maxMB))

			continue
		}

		fmt.Fprintf(w, "| %s | %s | %s |\n",
			o.File, formatMB(o.MemMB), formatMB(o.MemMB+1))
	}

	return nil
}

// GenerateJSON writes outcomes as JSON to w.
func GenerateJSON(w io.Writer, outcomes []harness.Outcome) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(outcomes)
}

// Summary holds the descriptive statistics of one series.
type Summary struct {
	Count  int
	Min    float64
	Median float64
	Mean   float64
	Max    float64
}

// Summarize computes the statistics of values. The zero Summary is
// returned for an empty slice.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	return Summary{
		Count:  len(sorted),
		Min:    sorted[0],
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Mean:   stat.Mean(sorted, nil),
		Max:    sorted[len(sorted)-1],
	}
}

// GenerateStats writes one markdown table per panel with the statistics
// of every tool.
func GenerateStats(w io.Writer, panels []results.Dataset) error {
	if len(panels) == 0 {
		return fmt.Errorf("no datasets to report")
	}

	fmt.Fprintln(w, "## Benchmark Results")

	for _, ds := range panels {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "### %s\n", ds.Name)
		fmt.Fprintln(w)
		fmt.Fprintln(w, "| Tool | Count | Min | Median | Mean | Max |")
		fmt.Fprintln(w, "|------|-------|-----|--------|------|-----|")

		for _, s := range ds.Series {
			sum := Summarize(s.Values)
			fmt.Fprintf(w, "| %s | %d | %s | %s | %s | %s |\n",
				s.Tool,
				sum.Count,
				formatFloat(sum.Min),
				formatFloat(sum.Median),
				formatFloat(sum.Mean),
				formatFloat(sum.Max),
			)
		}
	}

	return nil
}

func formatMB(mb int) string {
	if mb < 1024 {
		return strconv.Itoa(mb) + " MB"
	}

	formatted := fmt.Sprintf("%.2f", float64(mb)/1024)
	formatted = strings.TrimRight(formatted, "0")
	formatted = strings.TrimRight(formatted, ".")

	return formatted + " GB"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
