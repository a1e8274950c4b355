// Package dataset loads and inspects the tabular water-quality data the
// pipeline consumes. A Table holds the predictor matrix (missing entries as
// NaN) alongside the binary potability label.
package dataset

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/hydroml/potable/pkg/errors"
)

// Table is an ordered collection of samples with named numeric predictor
// columns and one binary label column. Missing predictor entries are NaN.
// The label never has missing entries and is always 0 or 1.
type Table struct {
	columns []string
	target  string
	x       *mat.Dense
	y       *mat.VecDense
}

// NewTable builds a Table from a predictor matrix and a label vector.
// The column name list must match the matrix width, and every label must be
// exactly 0 or 1.
func NewTable(columns []string, target string, x *mat.Dense, y *mat.VecDense) (*Table, error) {
	r, c := x.Dims()
	if c != len(columns) {
		return nil, errors.NewDimensionError("dataset.NewTable", len(columns), c, 1)
	}
	if y.Len() != r {
		return nil, errors.NewDimensionError("dataset.NewTable", r, y.Len(), 0)
	}
	for i := 0; i < r; i++ {
		if v := y.AtVec(i); v != 0 && v != 1 {
			return nil, errors.NewDataError("dataset.NewTable", target, "label must be 0 or 1")
		}
	}
	return &Table{columns: columns, target: target, x: x, y: y}, nil
}

// NRows returns the number of samples.
func (t *Table) NRows() int {
	r, _ := t.x.Dims()
	return r
}

// NFeatures returns the number of predictor columns.
func (t *Table) NFeatures() int {
	_, c := t.x.Dims()
	return c
}

// Columns returns the predictor column names in file order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// TargetName returns the name of the label column.
func (t *Table) TargetName() string { return t.target }

// Features returns the predictor matrix. Callers must treat it as read-only
// once preprocessing is complete.
func (t *Table) Features() *mat.Dense { return t.x }

// Target returns the label vector.
func (t *Table) Target() *mat.VecDense { return t.y }

// ColumnIndex returns the index of the named predictor column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.columns {
		if c == name {
			return i
		}
	}
	return -1
}

// MissingCounts returns the number of NaN entries per predictor column,
// aligned with Columns().
func (t *Table) MissingCounts() []int {
	r, c := t.x.Dims()
	counts := make([]int, c)
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			if math.IsNaN(t.x.At(i, j)) {
				counts[j]++
			}
		}
	}
	return counts
}

// ColumnsWithMissing returns the names of predictor columns containing at
// least one missing entry, in file order.
func (t *Table) ColumnsWithMissing() []string {
	counts := t.MissingCounts()
	var out []string
	for i, n := range counts {
		if n > 0 {
			out = append(out, t.columns[i])
		}
	}
	return out
}
