// Package ml holds the training, evaluation and prediction operations of the
// metallicity pipeline, along with the on-disk model store. Each operation is
// independently invocable: the only state shared between invocations is the
// persisted model blob and the optional figure files.
package ml

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"stellar-feh/internal/common"
	"stellar-feh/internal/dataset"
	"stellar-feh/internal/forest"
)

// Estimator is the narrow capability the pipeline needs from a trained
// regression model. Any fitted ensemble regressor satisfies it.
type Estimator interface {
	Predict(x [][]float64) ([]float64, error)
	Score(x [][]float64, y []float64) (float64, error)
}

// LoadCommand is the string token meaning "load the model from the store".
const LoadCommand = "load"

var (
	// ErrUnknownCommand reports a string model reference other than "load".
	ErrUnknownCommand = errors.New("unknown command")
	// ErrUnknownModelType reports a model reference that is neither a
	// fitted estimator nor a recognized string.
	ErrUnknownModelType = errors.New("unknown model type")
)

// ModelRef names the model an operation should use: either an already fitted
// estimator, or an instruction to load one from the model store.
type ModelRef struct {
	est       Estimator
	fromStore bool
}

// Fitted wraps an in-memory estimator.
func Fitted(e Estimator) ModelRef { return ModelRef{est: e} }

// FromStore refers to the model saved in the store.
func FromStore() ModelRef { return ModelRef{fromStore: true} }

// RefFromValue builds a ModelRef from a dynamically typed reference, as
// accepted at the CLI boundary. Strings other than "load" and values that are
// not estimators are rejected.
func RefFromValue(v any) (ModelRef, error) {
	switch m := v.(type) {
	case Estimator:
		return Fitted(m), nil
	case string:
		if m != LoadCommand {
			return ModelRef{}, fmt.Errorf("%w: %s", ErrUnknownCommand, m)
		}
		return FromStore(), nil
	default:
		return ModelRef{}, fmt.Errorf("%w: %T", ErrUnknownModelType, v)
	}
}

// featureColumns lists the feature columns of f in canonical order: the four
// color columns first, any extra columns after them sorted by name. Feature
// positions therefore never depend on the input file's header order.
func featureColumns(f *dataset.Frame) []string {
	colors := make(map[string]bool, len(common.ColorColumns))
	for _, c := range common.ColorColumns {
		colors[c] = true
	}
	var extras []string
	for _, c := range f.Columns() {
		if !colors[c] {
			extras = append(extras, c)
		}
	}
	sort.Strings(extras)
	out := make([]string, 0, len(common.ColorColumns)+len(extras))
	out = append(out, common.ColorColumns...)
	return append(out, extras...)
}

// checkSchema verifies that the columns about to be bound to feature
// positions are the columns the model was trained with, when the model
// records them. A mismatch would otherwise misassign features silently.
func checkSchema(est Estimator, features []string) error {
	fr, ok := est.(*forest.Regressor)
	if !ok || len(fr.FeatureNames) == 0 {
		return nil
	}
	if !slices.Equal(features, fr.FeatureNames) {
		return fmt.Errorf("model was trained on columns %v, input provides %v", fr.FeatureNames, features)
	}
	return nil
}

// resolve produces a concrete estimator, loading from the store when asked.
func (r ModelRef) resolve(root, loadName string) (Estimator, error) {
	if r.fromStore {
		return LoadModel(root, loadName)
	}
	if r.est == nil {
		return nil, fmt.Errorf("%w: nil model reference", ErrUnknownModelType)
	}
	return r.est, nil
}
