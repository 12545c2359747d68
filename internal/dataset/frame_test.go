package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func testFrame(t *testing.T) *Frame {
	t.Helper()
	f := New()
	cols := map[string][]float64{
		"ug":  {0.1, 0.2, 0.3, 0.4},
		"gr":  {1.1, 1.2, 1.3, 1.4},
		"feh": {-1.0, -2.0, -0.5, -1.5},
	}
	for _, name := range []string{"ug", "gr", "feh"} {
		if err := f.AddColumn(name, cols[name]); err != nil {
			t.Fatalf("AddColumn(%s): %v", name, err)
		}
	}
	return f
}

func TestReadCSV_RoundTrip(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "data.csv")

	f := testFrame(t)
	if err := f.WriteCSV(path); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	got, err := ReadCSV(path)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if got.Len() != f.Len() {
		t.Errorf("expected %d rows, got %d", f.Len(), got.Len())
	}
	wantCols := f.Columns()
	gotCols := got.Columns()
	if len(gotCols) != len(wantCols) {
		t.Fatalf("expected columns %v, got %v", wantCols, gotCols)
	}
	for i := range wantCols {
		if gotCols[i] != wantCols[i] {
			t.Errorf("column %d: expected %q, got %q", i, wantCols[i], gotCols[i])
		}
	}
	vals, err := got.Column("feh")
	if err != nil {
		t.Fatalf("Column(feh): %v", err)
	}
	if vals[1] != -2.0 {
		t.Errorf("expected feh[1] = -2.0, got %f", vals[1])
	}
}

func TestReadCSV_Errors(t *testing.T) {
	tempDir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		if _, err := ReadCSV(filepath.Join(tempDir, "absent.csv")); err == nil {
			t.Error("expected error for missing file, got nil")
		}
	})

	t.Run("malformed cell", func(t *testing.T) {
		path := filepath.Join(tempDir, "bad.csv")
		if err := os.WriteFile(path, []byte("ug,gr\n0.1,oops\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := ReadCSV(path); err == nil {
			t.Error("expected parse error, got nil")
		}
	})
}

func TestFrame_Require(t *testing.T) {
	f := testFrame(t)

	if err := f.Require([]string{"ug", "gr"}); err != nil {
		t.Errorf("expected columns present, got %v", err)
	}

	err := f.Require([]string{"ug", "gr", "ri", "iz"})
	if err == nil {
		t.Fatal("expected missing-column error, got nil")
	}
	var missing *MissingColumnError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *MissingColumnError, got %T", err)
	}
	if len(missing.Missing) != 2 {
		t.Errorf("expected 2 missing columns, got %v", missing.Missing)
	}
}

func TestFrame_Pop(t *testing.T) {
	f := testFrame(t)

	vals, err := f.Pop("feh")
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if len(vals) != 4 {
		t.Errorf("expected 4 values, got %d", len(vals))
	}
	if f.Has("feh") {
		t.Error("feh should be removed after Pop")
	}
	if len(f.Columns()) != 2 {
		t.Errorf("expected 2 remaining columns, got %v", f.Columns())
	}

	if _, err := f.Pop("feh"); err == nil {
		t.Error("expected error popping absent column, got nil")
	}
}

func TestFrame_Retain(t *testing.T) {
	f := testFrame(t)

	f.Retain(func(i int) bool { return i%2 == 0 })
	if f.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", f.Len())
	}
	ug, _ := f.Column("ug")
	if ug[0] != 0.1 || ug[1] != 0.3 {
		t.Errorf("expected rows 0 and 2 retained in order, got %v", ug)
	}
}

func TestFrame_CopyIsIndependent(t *testing.T) {
	f := testFrame(t)
	dup := f.Copy()

	dup.Retain(func(i int) bool { return false })
	if dup.Len() != 0 {
		t.Errorf("expected empty copy, got %d rows", dup.Len())
	}
	if f.Len() != 4 {
		t.Errorf("mutating the copy changed the original: %d rows", f.Len())
	}

	if _, err := dup.Pop("feh"); err != nil {
		t.Fatalf("Pop on copy: %v", err)
	}
	if !f.Has("feh") {
		t.Error("popping a column from the copy removed it from the original")
	}
}

func TestFrame_Matrix(t *testing.T) {
	f := testFrame(t)

	X, err := f.Matrix([]string{"ug", "gr"})
	if err != nil {
		t.Fatalf("Matrix: %v", err)
	}
	if len(X) != 4 || len(X[0]) != 2 {
		t.Fatalf("expected 4x2 matrix, got %dx%d", len(X), len(X[0]))
	}
	if X[2][0] != 0.3 || X[2][1] != 1.3 {
		t.Errorf("unexpected row 2: %v", X[2])
	}

	if _, err := f.Matrix([]string{"ug", "ri"}); err == nil {
		t.Error("expected missing-column error, got nil")
	}
}
