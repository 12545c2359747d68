package ml

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"stellar-feh/internal/common"
	"stellar-feh/internal/dataset"
	"stellar-feh/internal/preprocess"
	"stellar-feh/internal/viz"
)

// EvalOptions configures one evaluation run. Defaults mirror TrainOptions;
// LoadName selects the stored model when the ModelRef asks for a load.
type EvalOptions struct {
	DataDir   string  // data root holding the valid/ subdirectory
	Filename  string  // CSV name under <data_dir>/valid; default data.csv
	LoadName  string  // stored model name; default model.gob
	IQRFactor float64 // outlier interval scale; default 1.5
	NumReps   int     // outlier passes; default 1
	Show      bool    // render truth/prediction diagnostics
	Save      bool    // write figures to disk
	Colors    []string
	DPI       int    // figure resolution; default 300
	Root      string // workspace root; default .
}

// DefaultEvalOptions returns the documented evaluation defaults.
func DefaultEvalOptions() EvalOptions {
	return EvalOptions{
		DataDir:   common.DefaultDataDir,
		Filename:  common.DefaultFilename,
		LoadName:  common.DefaultModelName,
		IQRFactor: common.DefaultIQRFactor,
		NumReps:   common.DefaultNumReps,
		DPI:       common.DefaultDPI,
		Root:      common.DefaultRoot,
	}
}

// Eval resolves the model reference, scores it on the filtered validation
// split and prints the coefficient of determination. When Show is set the
// two diagnostic figures are dispatched before the score line.
func Eval(ref ModelRef, opts EvalOptions) (float64, error) {
	if opts.Filename == "" {
		opts.Filename = common.DefaultFilename
	}
	if opts.LoadName == "" {
		opts.LoadName = common.DefaultModelName
	}
	if opts.Root == "" {
		opts.Root = common.DefaultRoot
	}

	est, err := ref.resolve(opts.Root, opts.LoadName)
	if err != nil {
		return 0, err
	}

	path := filepath.Join(opts.Root, opts.DataDir, common.ValidSubdir, opts.Filename)
	if _, err := os.Stat(path); err != nil {
		return 0, fmt.Errorf("validation data: %w", err)
	}

	f, err := dataset.ReadCSV(path)
	if err != nil {
		return 0, err
	}
	if err := preprocess.RemoveOutliers(f, filterOptions(opts.IQRFactor, opts.NumReps, opts.Show, opts.Save, opts.DPI, opts.Root)); err != nil {
		return 0, err
	}

	truth, err := f.Pop(common.TargetColumn)
	if err != nil {
		return 0, err
	}
	features := featureColumns(f)
	if err := checkSchema(est, features); err != nil {
		return 0, err
	}
	X, err := f.Matrix(features)
	if err != nil {
		return 0, err
	}
	pred, err := est.Predict(X)
	if err != nil {
		return 0, err
	}

	if opts.Show {
		vopts := viz.Options{
			Colors: opts.Colors,
			Save:   opts.Save,
			DPI:    opts.DPI,
			Dir:    filepath.Join(opts.Root, common.FiguresSubdir),
		}
		if err := viz.TruthPredSide(f, truth, pred, vopts); err != nil {
			return 0, err
		}
		if err := viz.TruthPredScatter(truth, pred, vopts); err != nil {
			return 0, err
		}
	}

	score, err := est.Score(X, truth)
	if err != nil {
		return 0, err
	}
	log.Info().Float64("score", score).Int("rows", len(truth)).Msg("model evaluated")
	fmt.Printf("Score: %.6f\n", score)
	return score, nil
}
