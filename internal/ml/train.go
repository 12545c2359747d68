package ml

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"stellar-feh/internal/common"
	"stellar-feh/internal/dataset"
	"stellar-feh/internal/forest"
	"stellar-feh/internal/preprocess"
)

// TrainOptions configures one training run. Start from DefaultTrainOptions
// and override fields; zero-valued NEstimators, Filename, DPI and Root fall
// back to their defaults so a partially filled struct stays usable.
type TrainOptions struct {
	NEstimators int     // forest size; default 10
	RandomState int64   // forest seed; default 0
	IQRFactor   float64 // outlier interval scale; default 1.5, 0 means [Q1,Q3]
	Filename    string  // CSV name under <data_dir>/train; default data.csv
	NumReps     int     // outlier passes; default 1, 0 disables filtering
	Show        bool    // render the filter box plot
	Save        bool    // write figures to disk
	SaveModel   bool    // persist the fitted model in the store
	Colors      []string
	DPI         int    // figure resolution; default 300
	Root        string // workspace root for models/ and figures/; default .
}

// DefaultTrainOptions returns the documented training defaults.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		NEstimators: common.DefaultNEstimators,
		RandomState: common.DefaultRandomState,
		IQRFactor:   common.DefaultIQRFactor,
		Filename:    common.DefaultFilename,
		NumReps:     common.DefaultNumReps,
		DPI:         common.DefaultDPI,
		Root:        common.DefaultRoot,
	}
}

// Train reads <data_dir>/train/<filename>, filters outliers, fits a random
// forest regressor on the color columns against [Fe/H], optionally persists
// it, and returns the fitted estimator.
func Train(dataDir string, opts TrainOptions) (*forest.Regressor, error) {
	if opts.Filename == "" {
		opts.Filename = common.DefaultFilename
	}
	if opts.NEstimators == 0 {
		opts.NEstimators = common.DefaultNEstimators
	}
	if opts.Root == "" {
		opts.Root = common.DefaultRoot
	}

	path := filepath.Join(opts.Root, dataDir, common.TrainSubdir, opts.Filename)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("training data: %w", err)
	}

	f, err := dataset.ReadCSV(path)
	if err != nil {
		return nil, err
	}
	if err := preprocess.RemoveOutliers(f, filterOptions(opts.IQRFactor, opts.NumReps, opts.Show, opts.Save, opts.DPI, opts.Root)); err != nil {
		return nil, err
	}

	y, err := f.Pop(common.TargetColumn)
	if err != nil {
		return nil, err
	}
	features := featureColumns(f)
	X, err := f.Matrix(features)
	if err != nil {
		return nil, err
	}

	model := forest.New(
		forest.WithEstimators(opts.NEstimators),
		forest.WithRandomState(opts.RandomState),
	)
	if err := model.Fit(X, y); err != nil {
		return nil, err
	}
	model.FeatureNames = features
	log.Info().
		Int("rows", len(y)).
		Int("n_estimators", opts.NEstimators).
		Int64("random_state", opts.RandomState).
		Msg("model trained")

	if opts.SaveModel {
		if err := SaveModel(opts.Root, model, len(y)); err != nil {
			return nil, err
		}
	}
	return model, nil
}

func filterOptions(iqrFactor float64, numReps int, show, save bool, dpi int, root string) preprocess.Options {
	if dpi == 0 {
		dpi = common.DefaultDPI
	}
	return preprocess.Options{
		IQRFactor:  iqrFactor,
		NumReps:    numReps,
		Show:       show,
		Save:       save,
		DPI:        dpi,
		FiguresDir: filepath.Join(root, common.FiguresSubdir),
	}
}
