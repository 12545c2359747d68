// Package forest implements a random-forest regressor: an ensemble of CART
// regression trees fit on bootstrap samples whose predictions are averaged.
// Training is deterministic for a fixed RandomState and fits are sequential,
// matching the batch single-process use of the pipeline.
package forest

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/stat"
)

// Regressor is an ensemble-of-trees regression estimator.
type Regressor struct {
	// Hyperparameters
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	Bootstrap       bool
	RandomState     int64

	// Fitted state
	Trees     []*Tree
	NFeatures int
	// FeatureNames optionally records the column names the model was trained
	// with, in matrix order. Fit leaves it untouched; callers that bind named
	// columns to feature positions set it and check it before predicting.
	FeatureNames []string
}

// Option is functional configuration for a Regressor.
type Option func(*Regressor)

func WithEstimators(n int) Option      { return func(rf *Regressor) { rf.NEstimators = n } }
func WithRandomState(s int64) Option   { return func(rf *Regressor) { rf.RandomState = s } }
func WithMaxDepth(d int) Option        { return func(rf *Regressor) { rf.MaxDepth = d } }
func WithMinSamplesSplit(n int) Option { return func(rf *Regressor) { rf.MinSamplesSplit = n } }
func WithBootstrap(b bool) Option      { return func(rf *Regressor) { rf.Bootstrap = b } }

// New returns a Regressor with the pipeline defaults: 10 trees, seed 0,
// bootstrap sampling, unlimited depth.
func New(opts ...Option) *Regressor {
	rf := &Regressor{
		NEstimators:     10,
		MaxDepth:        0,
		MinSamplesSplit: 2,
		Bootstrap:       true,
		RandomState:     0,
	}
	for _, o := range opts {
		o(rf)
	}
	return rf
}

// Fit trains the forest on X (n rows by p features) and targets y.
func (rf *Regressor) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return errors.New("forest: empty X")
	}
	n := len(X)
	if len(y) != n {
		return fmt.Errorf("forest: X has %d rows, y has %d", n, len(y))
	}
	p := len(X[0])
	for i := range X {
		if len(X[i]) != p {
			return errors.New("forest: inconsistent number of features in X rows")
		}
	}
	if rf.NEstimators <= 0 {
		return fmt.Errorf("forest: need at least one estimator, got %d", rf.NEstimators)
	}

	rf.NFeatures = p
	rf.Trees = make([]*Tree, rf.NEstimators)
	for i := 0; i < rf.NEstimators; i++ {
		// Per-tree seed keeps the ensemble deterministic for a fixed
		// RandomState while decorrelating the bootstrap samples.
		treeRand := rand.New(rand.NewSource(rf.RandomState + int64(i)))

		sample := make([]int, n)
		for j := 0; j < n; j++ {
			if rf.Bootstrap {
				sample[j] = treeRand.Intn(n)
			} else {
				sample[j] = j
			}
		}

		tree := &Tree{MaxDepth: rf.MaxDepth, MinSamplesSplit: rf.MinSamplesSplit}
		tree.fit(X, y, sample)
		rf.Trees[i] = tree
	}
	return nil
}

// Predict returns the tree-averaged prediction for each row of X.
func (rf *Regressor) Predict(X [][]float64) ([]float64, error) {
	if len(rf.Trees) == 0 {
		return nil, errors.New("forest: not fitted")
	}
	out := make([]float64, len(X))
	for i, row := range X {
		if len(row) != rf.NFeatures {
			return nil, fmt.Errorf("forest: row %d has %d features, model expects %d", i, len(row), rf.NFeatures)
		}
		sum := 0.0
		for _, t := range rf.Trees {
			sum += t.predict(row)
		}
		out[i] = sum / float64(len(rf.Trees))
	}
	return out, nil
}

// Score returns the coefficient of determination of the predictions on X
// against the ground truth y.
func (rf *Regressor) Score(X [][]float64, y []float64) (float64, error) {
	if len(y) != len(X) {
		return 0, fmt.Errorf("forest: X has %d rows, y has %d", len(X), len(y))
	}
	preds, err := rf.Predict(X)
	if err != nil {
		return 0, err
	}
	return stat.RSquaredFrom(preds, y, nil), nil
}

// plain is Regressor without the Binary(Un)Marshaler methods, so the gob
// round trip below does not recurse back into them.
type plain Regressor

// MarshalBinary implements encoding.BinaryMarshaler using gob.
func (rf *Regressor) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode((*plain)(rf)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler using gob.
func (rf *Regressor) UnmarshalBinary(data []byte) error {
	var decoded plain
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&decoded); err != nil {
		return err
	}
	*rf = Regressor(decoded)
	return nil
}
