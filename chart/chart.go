// Package chart renders benchmark result panels as stacked horizontal
// box plots.
package chart

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/weiihann/parsebench/results"
)

// Default figure geometry.
const (
	DefaultWidth       = 8 * vg.Inch
	DefaultPanelHeight = 3 * vg.Inch
	DefaultBoxWidth    = 20 // points
)

// ErrEmptySeries is returned when a tool has no values to draw.
var ErrEmptySeries = errors.New("empty series")

// Options controls figure geometry and labels.
type Options struct {
	Width       vg.Length
	PanelHeight vg.Length
	BoxWidth    vg.Length
	ValueLabel  string
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.PanelHeight <= 0 {
		o.PanelHeight = DefaultPanelHeight
	}
	if o.BoxWidth <= 0 {
		o.BoxWidth = vg.Points(DefaultBoxWidth)
	}

	return o
}

// Panel builds the plot for one dataset: one horizontal box per tool,
// tools labelled on the Y axis in series order.
func Panel(ds results.Dataset, opts Options) (*plot.Plot, error) {
	opts = opts.withDefaults()

	p := plot.New()
	p.Title.Text = ds.Name
	p.X.Label.Text = opts.ValueLabel

	for i, s := range ds.Series {
		if len(s.Values) == 0 {
			return nil, fmt.Errorf("%s/%s: %w", ds.Name, s.Tool, ErrEmptySeries)
		}

		box, err := plotter.NewBoxPlot(opts.BoxWidth, float64(i), plotter.Values(s.Values))
		if err != nil {
			return nil, fmt.Errorf("box plot %s/%s: %w", ds.Name, s.Tool, err)
		}

		box.Horizontal = true
		p.Add(box)
	}

	p.NominalY(ds.Tools()...)

	return p, nil
}

// Panels builds one plot per dataset, preserving order.
func Panels(panels []results.Dataset, opts Options) ([]*plot.Plot, error) {
	plots := make([]*plot.Plot, 0, len(panels))

	for _, ds := range panels {
		p, err := Panel(ds, opts)
		if err != nil {
			return nil, err
		}

		plots = append(plots, p)
	}

	return plots, nil
}

// Render draws the panels top to bottom into a single figure at path.
// The image format follows the file extension.
func Render(panels []results.Dataset, path string, opts Options) error {
	if len(panels) == 0 {
		return fmt.Errorf("render %s: no panels", path)
	}

	opts = opts.withDefaults()

	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if format == "" {
		return fmt.Errorf("render %s: missing file extension", path)
	}

	plots, err := Panels(panels, opts)
	if err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}

	height := opts.PanelHeight * vg.Length(len(plots))

	c, err := draw.NewFormattedCanvas(opts.Width, height, format)
	if err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}

	grid := make([][]*plot.Plot, len(plots))
	for i, p := range plots {
		grid[i] = []*plot.Plot{p}
	}

	tiles := draw.Tiles{
		Rows:      len(plots),
		Cols:      1,
		PadX:      vg.Millimeter,
		PadY:      3 * vg.Millimeter,
		PadTop:    2 * vg.Millimeter,
		PadBottom: 2 * vg.Millimeter,
		PadLeft:   2 * vg.Millimeter,
		PadRight:  4 * vg.Millimeter,
	}

	canvases := plot.Align(grid, tiles, draw.New(c))
	for i := range grid {
		grid[i][0].Draw(canvases[i][0])
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if _, err := c.WriteTo(f); err != nil {
		f.Close()

		return fmt.Errorf("write %s: %w", path, err)
	}

	return f.Close()
}
