package dataset

import (
	"math/rand"
	"testing"
)

func TestSplit(t *testing.T) {
	f := New()
	n := 100
	rnd := rand.New(rand.NewSource(7))
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = rnd.Float64()
	}
	if err := f.AddColumn("ug", vals); err != nil {
		t.Fatal(err)
	}

	train, valid, err := Split(f, 0.2, 42)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if train.Len() != 80 || valid.Len() != 20 {
		t.Errorf("expected 80/20 split, got %d/%d", train.Len(), valid.Len())
	}
	if f.Len() != 100 {
		t.Errorf("input frame was modified: %d rows", f.Len())
	}

	// Every source value lands in exactly one partition.
	seen := make(map[float64]int)
	for _, part := range []*Frame{train, valid} {
		col, _ := part.Column("ug")
		for _, v := range col {
			seen[v]++
		}
	}
	if len(seen) != n {
		t.Errorf("expected %d distinct values across partitions, got %d", n, len(seen))
	}

	// Same seed, same partition.
	train2, _, err := Split(f, 0.2, 42)
	if err != nil {
		t.Fatal(err)
	}
	a, _ := train.Column("ug")
	b, _ := train2.Column("ug")
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("split is not deterministic at row %d", i)
		}
	}
}

func TestSplit_BadRatio(t *testing.T) {
	f := New()
	if _, _, err := Split(f, 1.5, 0); err == nil {
		t.Error("expected error for ratio > 1, got nil")
	}
	if _, _, err := Split(f, -0.1, 0); err == nil {
		t.Error("expected error for negative ratio, got nil")
	}
}
