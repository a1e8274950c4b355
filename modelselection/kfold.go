package modelselection

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// Splitter generates cross-validation folds over a dataset.
type Splitter interface {
	Split(X, y mat.Matrix) []CVFold
	NSplits() int
}

// CVFold is one train/test index pair of a cross-validation split.
type CVFold struct {
	TrainIndices []int
	TestIndices  []int
}

// KFold splits rows into k consecutive folds after an optional seeded
// shuffle. Every row appears in exactly one test fold.
type KFold struct {
	K       int
	Shuffle bool
	Seed    uint64
}

// NewKFold creates a k-fold splitter. Fewer than 2 splits falls back to 5.
func NewKFold(k int, shuffle bool, seed uint64) *KFold {
	if k < 2 {
		k = 5
	}
	return &KFold{K: k, Shuffle: shuffle, Seed: seed}
}

// NSplits returns the number of folds.
func (kf *KFold) NSplits() int { return kf.K }

// Split generates the train/test indices for each fold.
func (kf *KFold) Split(X, _ mat.Matrix) []CVFold {
	n, _ := X.Dims()

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	if kf.Shuffle {
		r := rand.New(rand.NewPCG(kf.Seed, kf.Seed))
		r.Shuffle(n, func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	folds := make([]CVFold, kf.K)
	foldSize := n / kf.K
	remainder := n % kf.K

	cursor := 0
	for i := 0; i < kf.K; i++ {
		testSize := foldSize
		if i < remainder {
			testSize++
		}

		testIndices := append([]int(nil), indices[cursor:cursor+testSize]...)
		inTest := make(map[int]bool, testSize)
		for _, idx := range testIndices {
			inTest[idx] = true
		}

		trainIndices := make([]int, 0, n-testSize)
		for _, idx := range indices {
			if !inTest[idx] {
				trainIndices = append(trainIndices, idx)
			}
		}

		folds[i] = CVFold{TrainIndices: trainIndices, TestIndices: testIndices}
		cursor += testSize
	}
	return folds
}

// StratifiedKFold splits rows into k folds while keeping the label
// proportions of each fold close to those of the full dataset.
type StratifiedKFold struct {
	K       int
	Shuffle bool
	Seed    uint64
}

// NewStratifiedKFold creates a stratified k-fold splitter.
func NewStratifiedKFold(k int, shuffle bool, seed uint64) *StratifiedKFold {
	if k < 2 {
		k = 5
	}
	return &StratifiedKFold{K: k, Shuffle: shuffle, Seed: seed}
}

// NSplits returns the number of folds.
func (skf *StratifiedKFold) NSplits() int { return skf.K }

// Split generates stratified train/test indices for each fold.
func (skf *StratifiedKFold) Split(X, y mat.Matrix) []CVFold {
	n, _ := X.Dims()

	// Group row indices by label, keeping label order deterministic.
	classIndices := make(map[float64][]int)
	var labels []float64
	for i := 0; i < n; i++ {
		label := y.At(i, 0)
		if _, seen := classIndices[label]; !seen {
			labels = append(labels, label)
		}
		classIndices[label] = append(classIndices[label], i)
	}

	if skf.Shuffle {
		r := rand.New(rand.NewPCG(skf.Seed, skf.Seed))
		for _, label := range labels {
			indices := classIndices[label]
			r.Shuffle(len(indices), func(i, j int) {
				indices[i], indices[j] = indices[j], indices[i]
			})
		}
	}

	folds := make([]CVFold, skf.K)

	// Deal each class across the folds so proportions stay balanced.
	for _, label := range labels {
		indices := classIndices[label]
		nClass := len(indices)
		foldSize := nClass / skf.K
		remainder := nClass % skf.K

		cursor := 0
		for i := 0; i < skf.K; i++ {
			testSize := foldSize
			if i < remainder {
				testSize++
			}
			folds[i].TestIndices = append(folds[i].TestIndices, indices[cursor:cursor+testSize]...)
			cursor += testSize
		}
	}

	for i := range folds {
		inTest := make(map[int]bool, len(folds[i].TestIndices))
		for _, idx := range folds[i].TestIndices {
			inTest[idx] = true
		}
		for j := 0; j < n; j++ {
			if !inTest[j] {
				folds[i].TrainIndices = append(folds[i].TrainIndices, j)
			}
		}
	}
	return folds
}
