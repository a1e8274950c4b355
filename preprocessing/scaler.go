package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/hydroml/potable/core/model"
	"github.com/hydroml/potable/pkg/errors"
)

// MinMaxScaler rescales each column independently into a target range
// (default [0, 1]) using per-column min/max learned from the reference
// matrix passed to Fit.
//
// A degenerate column (max == min in the reference rows) maps every value to
// exactly the lower bound of the range; this is deliberate and tested rather
// than a silent division by zero. Values from rows outside the reference set
// may land outside the range, which is expected and not an error.
type MinMaxScaler struct {
	model.BaseEstimator

	// FeatureRange is the target range [lo, hi].
	FeatureRange [2]float64

	// DataMin and DataMax are the per-column bounds of the reference rows.
	DataMin []float64
	DataMax []float64

	// Scale is max-min per column, forced to 1 for degenerate columns.
	Scale []float64

	nFeatures int
}

// NewMinMaxScaler creates a scaler targeting the given range.
func NewMinMaxScaler(featureRange [2]float64) *MinMaxScaler {
	return &MinMaxScaler{FeatureRange: featureRange}
}

// NewMinMaxScalerDefault creates a scaler targeting [0, 1].
func NewMinMaxScalerDefault() *MinMaxScaler {
	return NewMinMaxScaler([2]float64{0.0, 1.0})
}

// Fit learns per-column min and max from the reference matrix X.
// X must contain no missing entries; impute first.
func (m *MinMaxScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewDataError("MinMaxScaler.Fit", "", "empty matrix")
	}
	if m.FeatureRange[1] <= m.FeatureRange[0] {
		return errors.NewConfigError("MinMaxScaler.Fit", "feature_range",
			fmt.Sprintf("lo %v must be below hi %v", m.FeatureRange[0], m.FeatureRange[1]))
	}

	m.nFeatures = c
	m.DataMin = make([]float64, c)
	m.DataMax = make([]float64, c)
	m.Scale = make([]float64, c)

	for j := 0; j < c; j++ {
		min, max := X.At(0, j), X.At(0, j)
		for i := 0; i < r; i++ {
			v := X.At(i, j)
			if math.IsNaN(v) {
				return errors.NewDataError("MinMaxScaler.Fit", fmt.Sprintf("#%d", j),
					"missing values present; impute before scaling")
			}
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		m.DataMin[j] = min
		m.DataMax[j] = max

		if max == min {
			// Degenerate column: Transform collapses it to the lower bound.
			m.Scale[j] = 1.0
		} else {
			m.Scale[j] = max - min
		}
	}

	m.SetFitted()
	return nil
}

// Transform maps every value v to lo + (v-min)/(max-min)*(hi-lo) using the
// learned statistics.
func (m *MinMaxScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !m.IsFitted() {
		return nil, errors.NewNotFittedError("MinMaxScaler", "Transform")
	}
	r, c := X.Dims()
	if c != m.nFeatures {
		return nil, errors.NewDimensionError("MinMaxScaler.Transform", m.nFeatures, c, 1)
	}

	span := m.FeatureRange[1] - m.FeatureRange[0]
	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := X.At(i, j)
			result.Set(i, j, m.FeatureRange[0]+(v-m.DataMin[j])/m.Scale[j]*span)
		}
	}
	return result, nil
}

// FitTransform fits on X and transforms the same matrix.
func (m *MinMaxScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// InverseTransform maps scaled values back to the original column ranges.
func (m *MinMaxScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if !m.IsFitted() {
		return nil, errors.NewNotFittedError("MinMaxScaler", "InverseTransform")
	}
	r, c := X.Dims()
	if c != m.nFeatures {
		return nil, errors.NewDimensionError("MinMaxScaler.InverseTransform", m.nFeatures, c, 1)
	}

	span := m.FeatureRange[1] - m.FeatureRange[0]
	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := X.At(i, j)
			result.Set(i, j, (v-m.FeatureRange[0])/span*m.Scale[j]+m.DataMin[j])
		}
	}
	return result, nil
}

// String returns a compact description of the scaler.
func (m *MinMaxScaler) String() string {
	if !m.IsFitted() {
		return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f])",
			m.FeatureRange[0], m.FeatureRange[1])
	}
	return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f], n_features=%d)",
		m.FeatureRange[0], m.FeatureRange[1], m.nFeatures)
}
