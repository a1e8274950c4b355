// Package preprocessing provides the data-preparation transformers the
// pipeline applies before model fitting: median imputation of missing
// entries and min-max feature scaling.
package preprocessing

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/hydroml/potable/core/model"
	"github.com/hydroml/potable/pkg/errors"
)

// MedianImputer fills missing (NaN) entries with the per-column median
// learned from a reference matrix. Only fills, never overwrites: entries
// already present pass through Transform unchanged.
type MedianImputer struct {
	model.BaseEstimator

	// Columns selects which columns to treat. Nil means every column that
	// has at least one missing entry in the fit matrix.
	Columns []int

	// Names optionally maps column index to name for diagnostics.
	Names []string

	// Medians holds the learned per-column fill value, keyed by column index.
	Medians map[int]float64

	nFeatures int
}

// NewMedianImputer creates an imputer for the given column indices.
// With no arguments, the treated set is discovered during Fit.
func NewMedianImputer(columns ...int) *MedianImputer {
	return &MedianImputer{Columns: columns}
}

// Fit computes the median of every treated column over its non-missing
// values. A treated column with zero present values has no defined median
// and fails with a DataError.
func (m *MedianImputer) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewDataError("MedianImputer.Fit", "", "empty matrix")
	}
	m.nFeatures = c

	cols := m.Columns
	if len(cols) == 0 {
		cols = columnsWithNaN(X)
	}

	m.Medians = make(map[int]float64, len(cols))
	for _, j := range cols {
		if j < 0 || j >= c {
			return errors.NewConfigError("MedianImputer.Fit", "columns",
				fmt.Sprintf("column index %d out of range [0,%d)", j, c))
		}
		vals := make([]float64, 0, r)
		for i := 0; i < r; i++ {
			if v := X.At(i, j); !math.IsNaN(v) {
				vals = append(vals, v)
			}
		}
		if len(vals) == 0 {
			return errors.NewDataError("MedianImputer.Fit", m.columnName(j),
				"median undefined: no non-missing values")
		}
		sort.Float64s(vals)
		m.Medians[j] = median(vals)
	}

	m.SetFitted()
	return nil
}

// Transform returns a copy of X with every missing entry in the treated
// columns replaced by the learned median. Untreated columns are passed
// through untouched, missing or not.
func (m *MedianImputer) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !m.IsFitted() {
		return nil, errors.NewNotFittedError("MedianImputer", "Transform")
	}
	r, c := X.Dims()
	if c != m.nFeatures {
		return nil, errors.NewDimensionError("MedianImputer.Transform", m.nFeatures, c, 1)
	}

	result := mat.DenseCopyOf(X)
	for j, fill := range m.Medians {
		for i := 0; i < r; i++ {
			if math.IsNaN(result.At(i, j)) {
				result.Set(i, j, fill)
			}
		}
	}
	return result, nil
}

// FitTransform fits on X and transforms the same matrix.
func (m *MedianImputer) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

func (m *MedianImputer) columnName(j int) string {
	if j < len(m.Names) {
		return m.Names[j]
	}
	return fmt.Sprintf("#%d", j)
}

// columnsWithNaN returns the indices of columns containing at least one NaN.
func columnsWithNaN(X mat.Matrix) []int {
	r, c := X.Dims()
	var out []int
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			if math.IsNaN(X.At(i, j)) {
				out = append(out, j)
				break
			}
		}
	}
	return out
}

// median returns the midpoint of sorted values, averaging the two central
// elements for even lengths.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
