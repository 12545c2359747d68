package forest

import (
	"math/rand"
	"testing"
)

// syntheticData builds n rows of 4 features with a smooth target plus noise.
func syntheticData(n int, seed int64) (X [][]float64, y []float64) {
	rnd := rand.New(rand.NewSource(seed))
	X = make([][]float64, n)
	y = make([]float64, n)
	for i := 0; i < n; i++ {
		X[i] = make([]float64, 4)
		for j := 0; j < 4; j++ {
			X[i][j] = rnd.Float64()*2 - 1
		}
		y[i] = 2*X[i][0] - X[i][1] + 0.5*X[i][2] - X[i][3] + rnd.NormFloat64()*0.05
	}
	return X, y
}

func TestRegressor_FitValidation(t *testing.T) {
	tests := []struct {
		name string
		X    [][]float64
		y    []float64
	}{
		{"empty X", nil, nil},
		{"length mismatch", [][]float64{{1, 2}}, []float64{1, 2}},
		{"ragged rows", [][]float64{{1, 2}, {1}}, []float64{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rf := New()
			if err := rf.Fit(tt.X, tt.y); err == nil {
				t.Error("expected fit error, got nil")
			}
		})
	}
}

func TestRegressor_Deterministic(t *testing.T) {
	X, y := syntheticData(150, 11)

	a := New(WithEstimators(10), WithRandomState(0))
	b := New(WithEstimators(10), WithRandomState(0))
	if err := a.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if err := b.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	pa, err := a.Predict(X)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	pb, err := b.Predict(X)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	for i := range pa {
		if pa[i] != pb[i] {
			t.Fatalf("predictions diverge at row %d: %f != %f", i, pa[i], pb[i])
		}
	}
}

func TestRegressor_LearnsSmoothTarget(t *testing.T) {
	X, y := syntheticData(300, 13)

	rf := New(WithEstimators(20), WithRandomState(1))
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	score, err := rf.Score(X, y)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if score < 0.7 {
		t.Errorf("expected training score above 0.7, got %f", score)
	}
}

func TestRegressor_PredictErrors(t *testing.T) {
	rf := New()
	if _, err := rf.Predict([][]float64{{1, 2, 3, 4}}); err == nil {
		t.Error("expected error predicting before fit, got nil")
	}

	X, y := syntheticData(50, 17)
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if _, err := rf.Predict([][]float64{{1, 2}}); err == nil {
		t.Error("expected error for wrong feature width, got nil")
	}
}

func TestRegressor_BinaryRoundTrip(t *testing.T) {
	X, y := syntheticData(80, 19)
	rf := New(WithEstimators(5), WithRandomState(3))
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	rf.FeatureNames = []string{"ug", "gr", "ri", "iz"}

	blob, err := rf.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}

	var decoded Regressor
	if err := decoded.UnmarshalBinary(blob); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if decoded.NEstimators != rf.NEstimators || decoded.RandomState != rf.RandomState {
		t.Error("hyperparameters lost in round trip")
	}
	if len(decoded.FeatureNames) != 4 || decoded.FeatureNames[0] != "ug" {
		t.Errorf("feature names lost in round trip: %v", decoded.FeatureNames)
	}

	want, err := rf.Predict(X)
	if err != nil {
		t.Fatal(err)
	}
	got, err := decoded.Predict(X)
	if err != nil {
		t.Fatal(err)
	}
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("round-tripped model diverges at row %d: %f != %f", i, got[i], want[i])
		}
	}

	if err := decoded.UnmarshalBinary([]byte("not a gob")); err == nil {
		t.Error("expected error decoding garbage, got nil")
	}
}
