package ml

import (
	"stellar-feh/internal/common"
	"stellar-feh/internal/dataset"
)

// PredictOptions configures a prediction call.
type PredictOptions struct {
	LoadName string // stored model name; default model.gob
	Inplace  bool   // mutate the caller's frame instead of copying it
	Root     string // workspace root; default .
}

// Predict applies the referenced model to the feature table x and returns x
// with an added feh column holding the approximated metallicities. The table
// must contain the four color columns; extra columns are bound as additional
// features and must match the columns the model was trained with. Columns are
// bound in a canonical order, so the header order of the input is irrelevant.
//
// With Inplace set the returned Frame is the caller's own table, mutated.
// Otherwise a deep copy is returned and x is left unchanged.
func Predict(x *dataset.Frame, ref ModelRef, opts PredictOptions) (*dataset.Frame, error) {
	if opts.LoadName == "" {
		opts.LoadName = common.DefaultModelName
	}
	if opts.Root == "" {
		opts.Root = common.DefaultRoot
	}

	est, err := ref.resolve(opts.Root, opts.LoadName)
	if err != nil {
		return nil, err
	}

	if err := x.Require(common.ColorColumns); err != nil {
		return nil, err
	}
	features := featureColumns(x)
	if err := checkSchema(est, features); err != nil {
		return nil, err
	}
	X, err := x.Matrix(features)
	if err != nil {
		return nil, err
	}
	pred, err := est.Predict(X)
	if err != nil {
		return nil, err
	}

	out := x
	if !opts.Inplace {
		out = x.Copy()
	}
	if err := out.AddColumn(common.TargetColumn, pred); err != nil {
		return nil, err
	}
	return out, nil
}
