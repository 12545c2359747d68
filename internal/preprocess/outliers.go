// Package preprocess removes extreme rows from a dataset before model
// training. Filtering is based on the interquartile range of the four color
// columns and can be repeated: each pass recomputes the quartiles on the
// already shrunk data, so repeated passes keep tightening the interval.
package preprocess

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"

	"stellar-feh/internal/common"
	"stellar-feh/internal/dataset"
	"stellar-feh/internal/viz"
)

// ErrEmptyDataset is returned when a quartile is requested on zero rows,
// which happens when a previous pass removed every row.
var ErrEmptyDataset = errors.New("cannot compute percentiles on an empty dataset")

// Options configures one outlier-removal call.
type Options struct {
	IQRFactor  float64 // interval half-width scale; 0 collapses to [Q1, Q3]
	NumReps    int     // number of filter passes; 0 disables filtering
	Show       bool    // render the before/after box plot
	Save       bool    // write the box plot under FiguresDir
	DPI        int     // figure resolution
	FiguresDir string  // directory for saved figures
}

// DefaultOptions returns the filter defaults: one pass at 1.5 IQR, no plots.
func DefaultOptions() Options {
	return Options{
		IQRFactor:  common.DefaultIQRFactor,
		NumReps:    common.DefaultNumReps,
		DPI:        common.DefaultDPI,
		FiguresDir: common.FiguresSubdir,
	}
}

// RemoveOutliers drops rows whose color values fall outside a global
// acceptance interval, mutating the Frame in place.
//
// Per pass, each color column contributes bounds [Q1 - f*IQR, Q3 + f*IQR].
// The interval actually applied is [min of all lower bounds, max of all upper
// bounds], shared across the four columns: a row survives only when all four
// of its color values lie inside that single interval. This keeps correlated
// structure that per-column intervals would cut.
func RemoveOutliers(f *dataset.Frame, opts Options) error {
	if opts.IQRFactor < 0 {
		return fmt.Errorf("iqr factor must be non-negative, got %f", opts.IQRFactor)
	}
	if err := f.Require(common.ColorColumns); err != nil {
		return err
	}

	var before [][]float64
	if opts.Show {
		before = snapshotColors(f)
	}

	rows := f.Len()
	for rep := 0; rep < opts.NumReps; rep++ {
		lo, hi, err := globalBounds(f, opts.IQRFactor)
		if err != nil {
			return fmt.Errorf("pass %d: %w", rep+1, err)
		}
		f.Retain(func(i int) bool {
			for _, col := range common.ColorColumns {
				vals, _ := f.Column(col)
				if vals[i] < lo || vals[i] > hi {
					return false
				}
			}
			return true
		})
		log.Debug().
			Int("pass", rep+1).
			Float64("lower", lo).
			Float64("upper", hi).
			Int("rows", f.Len()).
			Msg("outlier pass complete")
	}
	if opts.NumReps > 0 {
		log.Info().Int("before", rows).Int("after", f.Len()).Msg("outlier filtering done")
	}

	if opts.Show {
		return viz.BoxPlot(before, snapshotColors(f), viz.Options{
			Save: opts.Save,
			DPI:  opts.DPI,
			Dir:  opts.FiguresDir,
		})
	}
	return nil
}

// globalBounds computes the shared acceptance interval for one pass.
func globalBounds(f *dataset.Frame, factor float64) (lo, hi float64, err error) {
	mins := make([]float64, 0, len(common.ColorColumns))
	maxs := make([]float64, 0, len(common.ColorColumns))
	for _, col := range common.ColorColumns {
		vals, err := f.Column(col)
		if err != nil {
			return 0, 0, err
		}
		q1, err := Percentile(vals, 25)
		if err != nil {
			return 0, 0, fmt.Errorf("column %q: %w", col, err)
		}
		q3, err := Percentile(vals, 75)
		if err != nil {
			return 0, 0, fmt.Errorf("column %q: %w", col, err)
		}
		iqr := q3 - q1
		mins = append(mins, q1-factor*iqr)
		maxs = append(maxs, q3+factor*iqr)
	}
	return floats.Min(mins), floats.Max(maxs), nil
}

// Percentile returns the p-th percentile (0..100) of xs using linear
// interpolation between closest ranks. The input is not modified.
func Percentile(xs []float64, p float64) (float64, error) {
	if len(xs) == 0 {
		return 0, ErrEmptyDataset
	}
	if p < 0 || p > 100 {
		return 0, fmt.Errorf("percentile must be in [0,100], got %f", p)
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	pos := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo], nil
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac, nil
}

func snapshotColors(f *dataset.Frame) [][]float64 {
	out := make([][]float64, 0, len(common.ColorColumns))
	for _, col := range common.ColorColumns {
		vals, _ := f.Column(col)
		dup := make([]float64, len(vals))
		copy(dup, vals)
		out = append(out, dup)
	}
	return out
}
