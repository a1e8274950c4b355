// Package modelselection provides the train/test partitioner, k-fold
// cross-validation splitters and exhaustive grid search used to select and
// fit the candidate models.
package modelselection

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/hydroml/potable/pkg/errors"
)

// Split holds a disjoint, exhaustive train/test partition of a dataset.
// Row order within each partition follows the original row order.
type Split struct {
	XTrain, XTest *mat.Dense
	YTrain, YTest *mat.VecDense

	TrainIndices []int
	TestIndices  []int
}

// TrainTestSplit partitions rows into train and test sets. The shuffle is
// seeded, so identical inputs and seed always produce the identical split.
// testFraction must lie in (0, 1); roughly that fraction of rows lands in
// the test partition.
func TrainTestSplit(X mat.Matrix, y *mat.VecDense, testFraction float64, seed uint64) (*Split, error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, errors.NewConfigError("TrainTestSplit", "test_fraction",
			"must lie strictly between 0 and 1")
	}
	n, _ := X.Dims()
	if y.Len() != n {
		return nil, errors.NewDimensionError("TrainTestSplit", n, y.Len(), 0)
	}
	if n < 2 {
		return nil, errors.NewDataError("TrainTestSplit", "", "need at least 2 rows to split")
	}

	nTest := int(math.Round(float64(n) * testFraction))
	if nTest < 1 {
		nTest = 1
	}
	if nTest > n-1 {
		nTest = n - 1
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	r := rand.New(rand.NewPCG(seed, seed))
	r.Shuffle(n, func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})

	testIdx := append([]int(nil), indices[:nTest]...)
	trainIdx := append([]int(nil), indices[nTest:]...)
	// Partition membership comes from the shuffle; inside each partition the
	// original row order is preserved.
	sort.Ints(testIdx)
	sort.Ints(trainIdx)

	return &Split{
		XTrain:       SubsetRows(X, trainIdx),
		XTest:        SubsetRows(X, testIdx),
		YTrain:       SubsetVec(y, trainIdx),
		YTest:        SubsetVec(y, testIdx),
		TrainIndices: trainIdx,
		TestIndices:  testIdx,
	}, nil
}

// SubsetRows copies the selected rows of X into a new matrix.
func SubsetRows(X mat.Matrix, indices []int) *mat.Dense {
	_, c := X.Dims()
	out := mat.NewDense(len(indices), c, nil)
	for i, idx := range indices {
		for j := 0; j < c; j++ {
			out.Set(i, j, X.At(idx, j))
		}
	}
	return out
}

// SubsetVec copies the selected entries of y into a new vector.
func SubsetVec(y *mat.VecDense, indices []int) *mat.VecDense {
	out := mat.NewVecDense(len(indices), nil)
	for i, idx := range indices {
		out.SetVec(i, y.AtVec(idx))
	}
	return out
}
