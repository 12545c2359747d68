// Package viz renders the diagnostic figures of the pipeline with gonum/plot:
// a before/after box plot of the color columns, a per-color side-by-side
// comparison of ground truths and predictions, and a density-colored
// truth-vs-prediction scatter. Figures are written as PNG files under the
// configured directory only when Save is set.
package viz

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"stellar-feh/internal/common"
	"stellar-feh/internal/dataset"
)

// Options configures figure rendering.
type Options struct {
	Colors []string // series colors by name; padded with firebrick, skyblue
	Save   bool     // write the PNG under Dir
	DPI    int      // output resolution
	Dir    string   // figures directory, created on demand
}

var namedColors = map[string]color.RGBA{
	"firebrick":  {178, 34, 34, 255},
	"skyblue":    {135, 206, 235, 255},
	"steelblue":  {70, 130, 180, 255},
	"darkorange": {255, 140, 0, 255},
	"seagreen":   {46, 139, 87, 255},
	"black":      {0, 0, 0, 255},
	"red":        {255, 0, 0, 255},
}

// seriesColors resolves the configured color names, falling back to the
// default pair when fewer than two are given or a name is unknown.
func seriesColors(names []string) [2]color.RGBA {
	out := [2]color.RGBA{namedColors["firebrick"], namedColors["skyblue"]}
	for i, name := range names {
		if i >= 2 {
			break
		}
		if c, ok := namedColors[strings.ToLower(name)]; ok {
			out[i] = c
		}
	}
	return out
}

// BoxPlot renders the before/after filtering comparison for the four color
// columns. before and after hold one value slice per color column, in
// common.ColorColumns order.
func BoxPlot(before, after [][]float64, opts Options) error {
	titles := [2]string{"Before Pre-processing Data", "After Pre-processing Data"}
	data := [2][][]float64{before, after}

	plots := make([][]*plot.Plot, 1)
	plots[0] = make([]*plot.Plot, 2)
	for j := 0; j < 2; j++ {
		p := plot.New()
		p.Title.Text = titles[j]
		p.X.Label.Text = "Color Magnitude"
		if j == 0 {
			p.Y.Label.Text = "Colors"
		}
		for i, vals := range data[j] {
			b, err := plotter.NewBoxPlot(vg.Points(20), float64(i), plotter.Values(vals))
			if err != nil {
				return fmt.Errorf("box plot for %s: %w", common.ColorColumns[i], err)
			}
			b.Horizontal = true
			p.Add(b)
		}
		p.NominalY(common.ColorColumns...)
		plots[0][j] = p
	}

	return write(plots, 1, 2, 10*vg.Inch, 5*vg.Inch, opts, "boxplot.png")
}

// TruthPredSide renders a 4x2 grid of scatter plots comparing ground truths
// (left column) and model predictions (right column) against each color index.
func TruthPredSide(x *dataset.Frame, truth, pred []float64, opts Options) error {
	colors := seriesColors(opts.Colors)

	plots := make([][]*plot.Plot, len(common.ColorColumns))
	for i, col := range common.ColorColumns {
		vals, err := x.Column(col)
		if err != nil {
			return err
		}
		label := fmt.Sprintf("%c-%c", col[0], col[1])

		plots[i] = make([]*plot.Plot, 2)
		for j := 0; j < 2; j++ {
			p := plot.New()
			ys := truth
			series := "True Value"
			p.Title.Text = "True " + strings.ToUpper(label)
			if j == 1 {
				ys = pred
				series = "Predicted Value"
				p.Title.Text = "Predicted " + strings.ToUpper(label)
			}
			s, err := plotter.NewScatter(xyPairs(vals, ys))
			if err != nil {
				return fmt.Errorf("scatter for %s: %w", col, err)
			}
			s.GlyphStyle.Color = colors[j]
			s.GlyphStyle.Radius = vg.Points(1.5)
			p.Add(s)
			p.Legend.Add(series, s)
			p.X.Label.Text = label
			p.Y.Label.Text = "Metallicity [Fe/H]"
			plots[i][j] = p
		}
	}

	return write(plots, len(common.ColorColumns), 2, 8*vg.Inch, 12*vg.Inch, opts, "comp_side.png")
}

// TruthPredScatter renders predictions against ground truths, colored by a
// Gaussian kernel density estimate, with the one-to-one line for reference.
func TruthPredScatter(truth, pred []float64, opts Options) error {
	if len(truth) == 0 {
		return errors.New("density scatter: no data points")
	}
	density := gaussianKDE(truth, pred)
	lo, hi := minMax(density)

	heat := palette.Heat(12, 1).Colors()

	p := plot.New()
	p.Title.Text = "Model Predictions vs Ground Truth Scatter Plot"
	p.X.Label.Text = "[Fe/H] truth"
	p.Y.Label.Text = "[Fe/H] predicted"

	s, err := plotter.NewScatter(xyPairs(truth, pred))
	if err != nil {
		return fmt.Errorf("density scatter: %w", err)
	}
	s.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		idx := 0
		if hi > lo {
			idx = int((density[i] - lo) / (hi - lo) * float64(len(heat)-1))
		}
		return draw.GlyphStyle{Color: heat[idx], Radius: vg.Points(1.5), Shape: draw.CircleGlyph{}}
	}
	p.Add(s)

	tLo, tHi := minMax(truth)
	line, err := plotter.NewLine(plotter.XYs{{X: tLo, Y: tLo}, {X: tHi, Y: tHi}})
	if err != nil {
		return fmt.Errorf("one-to-one line: %w", err)
	}
	line.Color = namedColors["red"]
	p.Add(line)
	p.Legend.Add("One-to-one Regression Line", line)

	return write([][]*plot.Plot{{p}}, 1, 1, 6*vg.Inch, 6*vg.Inch, opts, "scat.png")
}

// write tiles the plots onto one canvas and saves it when opts.Save is set.
func write(plots [][]*plot.Plot, rows, cols int, w, h vg.Length, opts Options, name string) error {
	dpi := opts.DPI
	if dpi <= 0 {
		dpi = common.DefaultDPI
	}
	img := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(dpi))
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: rows,
		Cols: cols,
		PadX: vg.Millimeter * 2,
		PadY: vg.Millimeter * 2,
	}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		for j := range plots[i] {
			if plots[i][j] != nil {
				plots[i][j].Draw(canvases[i][j])
			}
		}
	}

	if !opts.Save {
		return nil
	}
	dir := opts.Dir
	if dir == "" {
		dir = common.FiguresSubdir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create figures directory: %w", err)
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create figure: %w", err)
	}
	defer f.Close()
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return fmt.Errorf("write figure: %w", err)
	}
	log.Debug().Str("path", path).Msg("figure written")
	fmt.Printf("Saved %s\n", filepath.Join(common.FiguresSubdir, name))
	return nil
}

func xyPairs(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	return pts
}

// gaussianKDE returns the bivariate Gaussian kernel density estimate at each
// (x[i], y[i]), with bandwidths set by Scott's rule.
func gaussianKDE(x, y []float64) []float64 {
	n := len(x)
	factor := math.Pow(float64(n), -1.0/6.0)
	hx := stat.StdDev(x, nil) * factor
	hy := stat.StdDev(y, nil) * factor
	if hx <= 0 || math.IsNaN(hx) {
		hx = 1
	}
	if hy <= 0 || math.IsNaN(hy) {
		hy = 1
	}

	norm := 1 / (float64(n) * 2 * math.Pi * hx * hy)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := 0.0
		for j := 0; j < n; j++ {
			dx := (x[i] - x[j]) / hx
			dy := (y[i] - y[j]) / hy
			sum += math.Exp(-0.5 * (dx*dx + dy*dy))
		}
		out[i] = sum * norm
	}
	return out
}

func minMax(xs []float64) (lo, hi float64) {
	lo, hi = xs[0], xs[0]
	for _, v := range xs[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
