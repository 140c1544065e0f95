// Package plotting renders a reconstructed triple as three vertically
// aligned panels (f, f', f'') sharing one x range.
package plotting

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/njchilds90/antideriv"
)

// Figure is what Render draws.
type Figure struct {
	Curves     antideriv.Curves
	Critical   []float64
	Inflection []float64
	// Titles for the f, f' and f'' panels.
	Titles [3]string
}

// NewFigure samples res on n points of [min, max] and collects its
// annotations. Sampling warnings are returned alongside the figure.
func NewFigure(res *antideriv.Result, min, max float64, n int) (Figure, []string, error) {
	curves, warnings, err := res.Sample(min, max, n)
	if err != nil {
		return Figure{}, nil, err
	}
	return Figure{
		Curves:     curves,
		Critical:   antideriv.Values(res.Critical),
		Inflection: antideriv.Values(res.Inflection),
		Titles: [3]string{
			"f(x) = " + res.Triple.F.String(),
			"f'(x) = " + res.Triple.FPrime.String(),
			"f''(x) = " + res.Triple.FDoublePrime.String(),
		},
	}, warnings, nil
}

// Options sets the canvas size.
type Options struct {
	Width  vg.Length
	Height vg.Length
}

// DefaultOptions is a 6x10 inch canvas.
var DefaultOptions = Options{Width: 6 * vg.Inch, Height: 10 * vg.Inch}

var connectorStyle = draw.LineStyle{
	Color:  color.Gray{Y: 128},
	Width:  vg.Points(1),
	Dashes: []vg.Length{vg.Points(4), vg.Points(3)},
}

// Render draws fig and writes it to w as PNG.
func Render(w io.Writer, fig Figure, opt Options) error {
	if len(fig.Curves.X) < 2 {
		return fmt.Errorf("plotting: need at least 2 samples, got %d", len(fig.Curves.X))
	}
	if opt.Width <= 0 || opt.Height <= 0 {
		opt = DefaultOptions
	}
	xmin, xmax := fig.Curves.X[0], fig.Curves.X[len(fig.Curves.X)-1]

	series := [3][]float64{fig.Curves.F, fig.Curves.FPrime, fig.Curves.FDoublePrime}
	labels := [3]string{"f(x)", "f'(x)", "f''(x)"}
	// markers[i] lists the x positions drawn in panel i.
	markers := [3][]float64{
		append(append([]float64(nil), fig.Critical...), fig.Inflection...),
		fig.Critical,
		fig.Inflection,
	}

	plots := make([][]*plot.Plot, 3)
	for i := range series {
		p := plot.New()
		p.Title.Text = fig.Titles[i]
		p.X.Label.Text = "x"
		p.Y.Label.Text = labels[i]
		p.X.Min, p.X.Max = xmin, xmax
		p.Add(plotter.NewGrid())

		for _, seg := range segments(fig.Curves.X, series[i]) {
			l, err := plotter.NewLine(seg)
			if err != nil {
				return fmt.Errorf("plotting: %s: %w", labels[i], err)
			}
			l.LineStyle.Width = vg.Points(1.5)
			l.LineStyle.Color = plotutil.Color(i)
			p.Add(l)
		}

		lo, hi, ok := finiteRange(series[i])
		if ok {
			for _, x := range markers[i] {
				if x < xmin || x > xmax {
					continue
				}
				l, err := plotter.NewLine(plotter.XYs{{X: x, Y: lo}, {X: x, Y: hi}})
				if err != nil {
					return fmt.Errorf("plotting: connector at %v: %w", x, err)
				}
				l.LineStyle = connectorStyle
				p.Add(l)
			}
		}
		plots[i] = []*plot.Plot{p}
	}

	img := vgimg.New(opt.Width, opt.Height)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      3,
		Cols:      1,
		PadX:      vg.Millimeter,
		PadY:      3 * vg.Millimeter,
		PadTop:    vg.Millimeter,
		PadBottom: vg.Millimeter,
		PadLeft:   vg.Millimeter,
		PadRight:  vg.Millimeter,
	}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("plotting: write png: %w", err)
	}
	return nil
}

// segments splits the curve at NaN samples; plotter rejects non-finite
// points.
func segments(xs, ys []float64) []plotter.XYs {
	var out []plotter.XYs
	var cur plotter.XYs
	for i := range xs {
		if i >= len(ys) || math.IsNaN(ys[i]) || math.IsInf(ys[i], 0) {
			if len(cur) > 1 {
				out = append(out, cur)
			}
			cur = nil
			continue
		}
		cur = append(cur, plotter.XY{X: xs[i], Y: ys[i]})
	}
	if len(cur) > 1 {
		out = append(out, cur)
	}
	return out
}

func finiteRange(ys []float64) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, y := range ys {
		if math.IsNaN(y) || math.IsInf(y, 0) {
			continue
		}
		lo, hi = math.Min(lo, y), math.Max(hi, y)
		ok = true
	}
	if ok && lo == hi {
		lo, hi = lo-1, hi+1
	}
	return lo, hi, ok
}
