// Package preview draws imported series with gonum/plot so an import can be
// checked by eye.
package preview

import (
	"errors"
	"fmt"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/scigolib/hdf5import/series"
)

// Default figure size.
const (
	Width  = 6 * vg.Inch
	Height = 4 * vg.Inch
)

// ErrEmpty is returned for a dataset with nothing to draw.
var ErrEmpty = errors.New("preview: no finite values to draw")

// Options control a rendering.
type Options struct {
	Title  string
	Format string // "png", "svg", "pdf", ...; empty means png
	Width  vg.Length
	Height vg.Length
}

// Render draws ds to w. Numeric and date/time series become lines (with
// error bars when present), grids become heat maps. Text cannot be drawn.
func Render(w io.Writer, ds series.Dataset, opts Options) error {
	p, err := Plot(ds)
	if err != nil {
		return err
	}
	p.Title.Text = opts.Title

	width, height, format := opts.Width, opts.Height, opts.Format
	if width == 0 {
		width = Width
	}
	if height == 0 {
		height = Height
	}
	if format == "" {
		format = "png"
	}
	wt, err := p.WriterTo(width, height, format)
	if err != nil {
		return fmt.Errorf("preview: %v", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// Plot builds the plot of ds.
func Plot(ds series.Dataset) (*plot.Plot, error) {
	p, err := plot.New()
	if err != nil {
		return nil, err
	}

	switch d := ds.(type) {
	case *series.Plain1D:
		err = addSeries(p, d)
		p.X.Label.Text = "index"
	case *series.DateTime1D:
		err = addLine(p, finitePoints(d.Values))
		p.X.Label.Text = "index"
		p.Y.Label.Text = "seconds since " + series.Epoch.Format("2006-01-02")
	case *series.Grid2D:
		err = addGrid(p, d)
	case *series.Text1D:
		err = fmt.Errorf("preview: text datasets cannot be drawn")
	default:
		err = fmt.Errorf("preview: unsupported dataset %T", ds)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func finitePoints(v []float64) plotter.XYs {
	pts := make(plotter.XYs, 0, len(v))
	for i, y := range v {
		if math.IsNaN(y) || math.IsInf(y, 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(i), Y: y})
	}
	return pts
}

func addLine(p *plot.Plot, pts plotter.XYs) error {
	if len(pts) == 0 {
		return ErrEmpty
	}
	l, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	p.Add(l)
	return nil
}

// errorPoints pairs the finite points of a series with their error bars.
type errorPoints struct {
	plotter.XYs
	plotter.YErrors
}

func addSeries(p *plot.Plot, s *series.Plain1D) error {
	if s.Serr == nil && s.Nerr == nil && s.Perr == nil {
		return addLine(p, finitePoints(s.Data))
	}

	var pts errorPoints
	for i, y := range s.Data {
		if math.IsNaN(y) || math.IsInf(y, 0) {
			continue
		}
		lo, hi := errorAt(s.Serr, i), errorAt(s.Serr, i)
		if s.Serr == nil {
			lo, hi = errorAt(s.Nerr, i), errorAt(s.Perr, i)
		}
		pts.XYs = append(pts.XYs, plotter.XY{X: float64(i), Y: y})
		pts.YErrors = append(pts.YErrors, struct{ Low, High float64 }{Low: lo, High: hi})
	}
	if err := addLine(p, pts.XYs); err != nil {
		return err
	}
	bars, err := plotter.NewYErrorBars(pts)
	if err != nil {
		return err
	}
	p.Add(bars)
	return nil
}

// errorAt returns the magnitude of error i. Negative error datasets may be
// stored signed.
func errorAt(errs []float64, i int) float64 {
	if i >= len(errs) {
		return 0
	}
	e := math.Abs(errs[i])
	if math.IsNaN(e) || math.IsInf(e, 0) {
		return 0
	}
	return e
}

// grid adapts a Grid2D to plotter.GridXYZ. Cells are centered on evenly
// spaced coordinates inside the grid's ranges, or on their indexes.
type grid struct {
	g *series.Grid2D
}

func (g grid) Dims() (c, r int) {
	rows, cols := g.g.Dims()
	return cols, rows
}

func (g grid) Z(c, r int) float64 { return g.g.Data.At(r, c) }

func (g grid) X(c int) float64 {
	_, cols := g.g.Dims()
	return coord(g.g.XRange, c, cols)
}

func (g grid) Y(r int) float64 {
	rows, _ := g.g.Dims()
	return coord(g.g.YRange, r, rows)
}

func coord(rng *series.Range, i, n int) float64 {
	if rng == nil {
		return float64(i)
	}
	step := (rng.Max - rng.Min) / float64(n)
	return rng.Min + (float64(i)+0.5)*step
}

func addGrid(p *plot.Plot, g *series.Grid2D) error {
	if g.Data == nil {
		return ErrEmpty
	}
	h := plotter.NewHeatMap(grid{g: g}, palette.Heat(12, 1))
	if h.Min == h.Max {
		h.Min--
		h.Max++
	}
	p.Add(h)
	return nil
}
