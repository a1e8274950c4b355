// Package tree implements CART decision trees and random forests for the
// model-comparison pipeline.
package tree

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/hydroml/potable/core/model"
	"github.com/hydroml/potable/metrics"
	"github.com/hydroml/potable/pkg/errors"
)

// node is one split (or leaf) of a fitted tree.
type node struct {
	feature   int
	threshold float64
	left      *node
	right     *node

	// Leaf payload: class counts observed at this node.
	counts [2]int
	leaf   bool
}

func (n *node) predictProba(row []float64) float64 {
	cur := n
	for !cur.leaf {
		if row[cur.feature] <= cur.threshold {
			cur = cur.left
		} else {
			cur = cur.right
		}
	}
	total := cur.counts[0] + cur.counts[1]
	if total == 0 {
		return 0
	}
	return float64(cur.counts[1]) / float64(total)
}

// DecisionTreeClassifier is a binary CART classifier splitting on gini
// impurity or entropy.
type DecisionTreeClassifier struct {
	model.BaseEstimator

	criterion       string // "gini" or "entropy"
	maxDepth        int    // 0 means unlimited
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     string // "all", "sqrt" or "log2"
	seed            uint64

	root      *node
	nFeatures int

	rng *rand.Rand
}

// Option configures a DecisionTreeClassifier.
type Option func(*DecisionTreeClassifier)

// WithCriterion sets the split quality measure ("gini" or "entropy").
func WithCriterion(c string) Option {
	return func(t *DecisionTreeClassifier) { t.criterion = c }
}

// WithMaxDepth limits tree depth; 0 means unlimited.
func WithMaxDepth(d int) Option {
	return func(t *DecisionTreeClassifier) { t.maxDepth = d }
}

// WithMinSamplesSplit sets the minimum rows a node needs to be split.
func WithMinSamplesSplit(n int) Option {
	return func(t *DecisionTreeClassifier) { t.minSamplesSplit = n }
}

// WithMinSamplesLeaf sets the minimum rows each child must keep.
func WithMinSamplesLeaf(n int) Option {
	return func(t *DecisionTreeClassifier) { t.minSamplesLeaf = n }
}

// WithMaxFeatures sets the per-split feature subsample ("all", "sqrt", "log2").
func WithMaxFeatures(m string) Option {
	return func(t *DecisionTreeClassifier) { t.maxFeatures = m }
}

// WithSeed sets the feature-subsampling seed.
func WithSeed(seed uint64) Option {
	return func(t *DecisionTreeClassifier) { t.seed = seed }
}

// NewDecisionTreeClassifier creates a tree with scikit-learn-like defaults.
func NewDecisionTreeClassifier(opts ...Option) *DecisionTreeClassifier {
	t := &DecisionTreeClassifier{
		criterion:       "gini",
		maxDepth:        0,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
		maxFeatures:     "all",
		seed:            0,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.rng = rand.New(rand.NewPCG(t.seed, t.seed))
	return t
}

// Fit grows the tree on X (n×p) and binary labels y (n×1).
func (t *DecisionTreeClassifier) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yr, _ := y.Dims()
	if yr != nSamples {
		return errors.NewDimensionError("DecisionTreeClassifier.Fit", nSamples, yr, 0)
	}
	if nSamples == 0 {
		return errors.NewDataError("DecisionTreeClassifier.Fit", "", "empty matrix")
	}

	rows := make([][]float64, nSamples)
	labels := make([]int, nSamples)
	for i := 0; i < nSamples; i++ {
		rows[i] = make([]float64, nFeatures)
		for j := 0; j < nFeatures; j++ {
			rows[i][j] = X.At(i, j)
		}
		switch y.At(i, 0) {
		case 0:
			labels[i] = 0
		case 1:
			labels[i] = 1
		default:
			return errors.NewDataError("DecisionTreeClassifier.Fit", "",
				fmt.Sprintf("label %v at row %d is not binary", y.At(i, 0), i))
		}
	}

	t.nFeatures = nFeatures
	idx := make([]int, nSamples)
	for i := range idx {
		idx[i] = i
	}
	t.root = t.grow(rows, labels, idx, 1)
	t.SetFitted()
	return nil
}

// grow recursively builds the subtree for the given row indices.
func (t *DecisionTreeClassifier) grow(rows [][]float64, labels []int, idx []int, depth int) *node {
	n := &node{}
	for _, i := range idx {
		n.counts[labels[i]]++
	}

	pure := n.counts[0] == 0 || n.counts[1] == 0
	depthStop := t.maxDepth > 0 && depth > t.maxDepth
	if pure || depthStop || len(idx) < t.minSamplesSplit {
		n.leaf = true
		return n
	}

	feature, threshold, ok := t.bestSplit(rows, labels, idx)
	if !ok {
		n.leaf = true
		return n
	}

	var left, right []int
	for _, i := range idx {
		if rows[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < t.minSamplesLeaf || len(right) < t.minSamplesLeaf {
		n.leaf = true
		return n
	}

	n.feature = feature
	n.threshold = threshold
	n.left = t.grow(rows, labels, left, depth+1)
	n.right = t.grow(rows, labels, right, depth+1)
	return n
}

// bestSplit scans candidate features for the impurity-minimizing threshold.
// Thresholds are midpoints between consecutive distinct sorted values.
func (t *DecisionTreeClassifier) bestSplit(rows [][]float64, labels []int, idx []int) (int, float64, bool) {
	features := t.candidateFeatures()

	bestFeature, bestThreshold := -1, 0.0
	bestScore := math.Inf(1)

	values := make([]float64, 0, len(idx))
	for _, f := range features {
		values = values[:0]
		for _, i := range idx {
			values = append(values, rows[i][f])
		}
		sort.Float64s(values)

		for v := 1; v < len(values); v++ {
			if values[v] == values[v-1] {
				continue
			}
			threshold := (values[v] + values[v-1]) / 2

			var lc, rc [2]int
			for _, i := range idx {
				if rows[i][f] <= threshold {
					lc[labels[i]]++
				} else {
					rc[labels[i]]++
				}
			}
			nl := lc[0] + lc[1]
			nr := rc[0] + rc[1]
			if nl < t.minSamplesLeaf || nr < t.minSamplesLeaf {
				continue
			}

			score := (float64(nl)*t.impurity(lc) + float64(nr)*t.impurity(rc)) / float64(nl+nr)
			if score < bestScore {
				bestScore = score
				bestFeature = f
				bestThreshold = threshold
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

// candidateFeatures returns the feature indices considered at a split.
func (t *DecisionTreeClassifier) candidateFeatures() []int {
	all := make([]int, t.nFeatures)
	for j := range all {
		all[j] = j
	}

	var k int
	switch t.maxFeatures {
	case "sqrt":
		k = int(math.Ceil(math.Sqrt(float64(t.nFeatures))))
	case "log2":
		k = int(math.Ceil(math.Log2(float64(t.nFeatures) + 1)))
	default:
		return all
	}
	if k >= t.nFeatures {
		return all
	}

	t.rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	picked := all[:k]
	sort.Ints(picked)
	return picked
}

func (t *DecisionTreeClassifier) impurity(counts [2]int) float64 {
	total := counts[0] + counts[1]
	if total == 0 {
		return 0
	}
	p0 := float64(counts[0]) / float64(total)
	p1 := float64(counts[1]) / float64(total)

	if t.criterion == "entropy" {
		e := 0.0
		for _, p := range []float64{p0, p1} {
			if p > 0 {
				e -= p * math.Log2(p)
			}
		}
		return e
	}
	return 1 - p0*p0 - p1*p1
}

// Predict returns an n×1 matrix of 0/1 labels.
func (t *DecisionTreeClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	probas, err := t.PredictProba(X)
	if err != nil {
		return nil, err
	}
	r, _ := probas.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		if probas.At(i, 1) >= 0.5 {
			out.Set(i, 0, 1)
		}
	}
	return out, nil
}

// PredictProba returns an n×2 matrix of leaf class fractions.
func (t *DecisionTreeClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !t.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTreeClassifier", "PredictProba")
	}
	r, c := X.Dims()
	if c != t.nFeatures {
		return nil, errors.NewDimensionError("DecisionTreeClassifier.PredictProba", t.nFeatures, c, 1)
	}

	probas := mat.NewDense(r, 2, nil)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			row[j] = X.At(i, j)
		}
		p := t.root.predictProba(row)
		probas.Set(i, 0, 1-p)
		probas.Set(i, 1, p)
	}
	return probas, nil
}

// Classes returns the class labels.
func (t *DecisionTreeClassifier) Classes() []int { return []int{0, 1} }

// Score returns the mean accuracy of Predict(X) against y.
func (t *DecisionTreeClassifier) Score(X, y mat.Matrix) (float64, error) {
	pred, err := t.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyMatrix(y, pred)
}

// Depth returns the depth of the fitted tree, 0 for a lone leaf.
func (t *DecisionTreeClassifier) Depth() int {
	return nodeDepth(t.root)
}

func nodeDepth(n *node) int {
	if n == nil || n.leaf {
		return 0
	}
	l := nodeDepth(n.left)
	r := nodeDepth(n.right)
	if l > r {
		return l + 1
	}
	return r + 1
}

// GetParams returns the hyperparameters by name.
func (t *DecisionTreeClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"criterion":         t.criterion,
		"max_depth":         t.maxDepth,
		"min_samples_split": t.minSamplesSplit,
		"min_samples_leaf":  t.minSamplesLeaf,
		"max_features":      t.maxFeatures,
	}
}

// SetParams sets hyperparameters by name, rejecting unknown keys.
func (t *DecisionTreeClassifier) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "criterion":
			s, ok := value.(string)
			if !ok || (s != "gini" && s != "entropy") {
				return errors.NewConfigError("DecisionTreeClassifier.SetParams", key,
					fmt.Sprintf("want \"gini\" or \"entropy\", got %v", value))
			}
			t.criterion = s
		case "max_depth":
			n, ok := toInt(value)
			if !ok || n < 0 {
				return errors.NewConfigError("DecisionTreeClassifier.SetParams", key, "want a non-negative int")
			}
			t.maxDepth = n
		case "min_samples_split":
			n, ok := toInt(value)
			if !ok || n < 2 {
				return errors.NewConfigError("DecisionTreeClassifier.SetParams", key, "want an int >= 2")
			}
			t.minSamplesSplit = n
		case "min_samples_leaf":
			n, ok := toInt(value)
			if !ok || n < 1 {
				return errors.NewConfigError("DecisionTreeClassifier.SetParams", key, "want a positive int")
			}
			t.minSamplesLeaf = n
		case "max_features":
			s, ok := value.(string)
			if !ok || (s != "all" && s != "sqrt" && s != "log2") {
				return errors.NewConfigError("DecisionTreeClassifier.SetParams", key,
					fmt.Sprintf("want \"all\", \"sqrt\" or \"log2\", got %v", value))
			}
			t.maxFeatures = s
		default:
			return errors.NewConfigError("DecisionTreeClassifier.SetParams", key, "unknown parameter")
		}
	}
	return nil
}

func toInt(v interface{}) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		if x == math.Trunc(x) {
			return int(x), true
		}
	}
	return 0, false
}
