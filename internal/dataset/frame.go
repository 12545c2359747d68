// Package dataset provides the in-memory tabular representation the pipeline
// operates on. A Frame is a set of named float64 columns of equal length read
// from a headered CSV file. Columns the pipeline does not recognize are kept
// and written back unmodified.
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// MissingColumnError reports required columns absent from a Frame. The
// diagnostic lists the expected set so the operator can fix the input file.
type MissingColumnError struct {
	Missing  []string
	Expected []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("dataset is missing columns %v (expected %v)", e.Missing, e.Expected)
}

// Frame is an ordered collection of named numeric columns. All columns have
// the same number of rows. Filtering removes rows in place; rows are never
// added back.
type Frame struct {
	cols []string
	data map[string][]float64
}

// New creates an empty Frame with no columns.
func New() *Frame {
	return &Frame{data: make(map[string][]float64)}
}

// ReadCSV reads a headered CSV file into a Frame. Every cell must parse as a
// float64; malformed cells are reported with their row and column.
func ReadCSV(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}

	f := New()
	for _, name := range header {
		f.cols = append(f.cols, name)
		f.data[name] = nil
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read CSV rows: %w", err)
	}
	for i, rec := range records {
		if len(rec) != len(header) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", i+1, len(rec), len(header))
		}
		for j, cell := range rec {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: parse %q: %w", i+1, header[j], cell, err)
			}
			f.data[header[j]] = append(f.data[header[j]], v)
		}
	}
	return f, nil
}

// WriteCSV writes the Frame to path, overwriting any existing file.
func (f *Frame) WriteCSV(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(f.cols); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	rec := make([]string, len(f.cols))
	for i := 0; i < f.Len(); i++ {
		for j, name := range f.cols {
			rec[j] = strconv.FormatFloat(f.data[name][i], 'g', -1, 64)
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write CSV row %d: %w", i, err)
		}
	}
	w.Flush()
	return w.Error()
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if len(f.cols) == 0 {
		return 0
	}
	return len(f.data[f.cols[0]])
}

// Columns returns the column names in their original order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.cols))
	copy(out, f.cols)
	return out
}

// Has reports whether the Frame contains the named column.
func (f *Frame) Has(name string) bool {
	_, ok := f.data[name]
	return ok
}

// Require checks that all named columns are present and returns a
// MissingColumnError listing the absent ones otherwise.
func (f *Frame) Require(names []string) error {
	var missing []string
	for _, name := range names {
		if !f.Has(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnError{Missing: missing, Expected: names}
	}
	return nil
}

// Column returns the values of the named column. The returned slice is the
// Frame's backing storage; callers that keep it must copy it.
func (f *Frame) Column(name string) ([]float64, error) {
	vals, ok := f.data[name]
	if !ok {
		return nil, &MissingColumnError{Missing: []string{name}, Expected: []string{name}}
	}
	return vals, nil
}

// AddColumn appends a column. The values must match the current row count
// unless the Frame is empty.
func (f *Frame) AddColumn(name string, vals []float64) error {
	if f.Has(name) {
		return fmt.Errorf("column %q already exists", name)
	}
	if len(f.cols) > 0 && len(vals) != f.Len() {
		return fmt.Errorf("column %q has %d rows, frame has %d", name, len(vals), f.Len())
	}
	f.cols = append(f.cols, name)
	f.data[name] = vals
	return nil
}

// Pop removes the named column and returns its values.
func (f *Frame) Pop(name string) ([]float64, error) {
	vals, ok := f.data[name]
	if !ok {
		return nil, &MissingColumnError{Missing: []string{name}, Expected: []string{name}}
	}
	delete(f.data, name)
	for i, c := range f.cols {
		if c == name {
			f.cols = append(f.cols[:i], f.cols[i+1:]...)
			break
		}
	}
	return vals, nil
}

// Retain keeps only the rows for which keep returns true, preserving order.
// The Frame is mutated in place.
func (f *Frame) Retain(keep func(row int) bool) {
	n := f.Len()
	idx := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if keep(i) {
			idx = append(idx, i)
		}
	}
	for _, name := range f.cols {
		src := f.data[name]
		dst := src[:0]
		for _, i := range idx {
			dst = append(dst, src[i])
		}
		f.data[name] = dst
	}
}

// Copy returns a deep copy of the Frame. Mutating the copy leaves the
// original untouched.
func (f *Frame) Copy() *Frame {
	out := New()
	out.cols = make([]string, len(f.cols))
	copy(out.cols, f.cols)
	for name, vals := range f.data {
		dup := make([]float64, len(vals))
		copy(dup, vals)
		out.data[name] = dup
	}
	return out
}

// Matrix builds a row-major feature matrix from the named columns, in the
// given order.
func (f *Frame) Matrix(names []string) ([][]float64, error) {
	if err := f.Require(names); err != nil {
		return nil, err
	}
	n := f.Len()
	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, len(names))
		for j, name := range names {
			row[j] = f.data[name][i]
		}
		out[i] = row
	}
	return out, nil
}
