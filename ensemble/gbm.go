// Package ensemble implements gradient-boosted trees for the
// model-comparison pipeline.
package ensemble

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

// regNode is one split (or leaf) of a regression tree fitted to gradients.
type regNode struct {
	feature   int
	threshold float64
	left      *regNode
	right     *regNode

	value float64
	leaf  bool
}

func (n *regNode) eval(row []float64) float64 {
	cur := n
	for !cur.leaf {
		if row[cur.feature] <= cur.threshold {
			cur = cur.left
		} else {
			cur = cur.right
		}
	}
	return cur.value
}

// GradientBoostingClassifier boosts shallow regression trees on the logistic
// loss. Each stage fits the residual y - p and applies a Newton leaf step.
type GradientBoostingClassifier struct {
	model.BaseEstimator

	nEstimators    int
	learningRate   float64
	maxDepth       int
	minSamplesLeaf int
	subsample      float64 // row fraction per stage, 1.0 disables sampling
	seed           uint64

	baseScore float64
	stages    []*regNode
	nFeatures int
}

// Option configures a GradientBoostingClassifier.
type Option func(*GradientBoostingClassifier)

// WithNEstimators sets the number of boosting stages.
func WithNEstimators(n int) Option {
	return func(g *GradientBoostingClassifier) { g.nEstimators = n }
}

// WithLearningRate sets the shrinkage applied to each stage.
func WithLearningRate(lr float64) Option {
	return func(g *GradientBoostingClassifier) { g.learningRate = lr }
}

// WithMaxDepth limits the depth of each stage tree.
func WithMaxDepth(d int) Option {
	return func(g *GradientBoostingClassifier) { g.maxDepth = d }
}

// WithMinSamplesLeaf sets the minimum rows per stage-tree leaf.
func WithMinSamplesLeaf(n int) Option {
	return func(g *GradientBoostingClassifier) { g.minSamplesLeaf = n }
}

// WithSubsample sets the row fraction drawn per stage.
func WithSubsample(f float64) Option {
	return func(g *GradientBoostingClassifier) { g.subsample = f }
}

// WithSeed sets the subsampling seed.
func WithSeed(seed uint64) Option {
	return func(g *GradientBoostingClassifier) { g.seed = seed }
}

// NewGradientBoostingClassifier creates a booster with scikit-learn-like
// defaults.
func NewGradientBoostingClassifier(opts ...Option) *GradientBoostingClassifier {
	g := &GradientBoostingClassifier{
		nEstimators:    100,
		learningRate:   0.1,
		maxDepth:       3,
		minSamplesLeaf: 1,
		subsample:      1.0,
		seed:           0,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Fit trains the booster on X (n×p) and binary labels y (n×1).
func (g *GradientBoostingClassifier) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yr, _ := y.Dims()
	if yr != nSamples {
		return errors.NewDimensionError("GradientBoostingClassifier.Fit", nSamples, yr, 0)
	}
	if nSamples == 0 {
		return errors.NewDataError("GradientBoostingClassifier.Fit", "", "empty matrix")
	}

	rows := make([][]float64, nSamples)
	labels := make([]float64, nSamples)
	var nPos int
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
			nPos++
		default:
			return errors.NewDataError("GradientBoostingClassifier.Fit", "",
				fmt.Sprintf("label %v at row %d is not binary", y.At(i, 0), i))
		}
	}

	g.nFeatures = nFeatures

	// Initial score is the log-odds of the base rate, clipped away from the
	// infinities a single-class fold would produce.
	p0 := float64(nPos) / float64(nSamples)
	p0 = math.Min(math.Max(p0, 1e-6), 1-1e-6)
	g.baseScore = math.Log(p0 / (1 - p0))

	rng := rand.New(rand.NewPCG(g.seed, g.seed))
	scores := make([]float64, nSamples)
	for i := range scores {
		scores[i] = g.baseScore
	}

	grad := make([]float64, nSamples)
	hess := make([]float64, nSamples)
	g.stages = make([]*regNode, 0, g.nEstimators)

	for stage := 0; stage < g.nEstimators; stage++ {
		for i := 0; i < nSamples; i++ {
			p := sigmoid(scores[i])
			grad[i] = labels[i] - p
			hess[i] = p * (1 - p)
		}

		idx := g.stageRows(nSamples, rng)
		tree := g.growRegTree(rows, grad, hess, idx, 1)
		g.stages = append(g.stages, tree)

		for i := 0; i < nSamples; i++ {
			scores[i] += g.learningRate * tree.eval(rows[i])
		}
	}

	g.SetFitted()
	return nil
}

// stageRows draws the row subset one stage trains on.
func (g *GradientBoostingClassifier) stageRows(n int, rng *rand.Rand) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	if g.subsample >= 1.0 {
		return idx
	}
	rng.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
	k := int(float64(n) * g.subsample)
	if k < 1 {
		k = 1
	}
	picked := idx[:k]
	sort.Ints(picked)
	return picked
}

// growRegTree fits one regression tree to the gradients, with Newton-step
// leaf values sum(grad) / sum(hess).
func (g *GradientBoostingClassifier) growRegTree(rows [][]float64, grad, hess []float64, idx []int, depth int) *regNode {
	n := &regNode{}

	var gradSum, hessSum float64
	for _, i := range idx {
		gradSum += grad[i]
		hessSum += hess[i]
	}

	if depth > g.maxDepth || len(idx) < 2*g.minSamplesLeaf {
		n.leaf = true
		n.value = newtonStep(gradSum, hessSum)
		return n
	}

	feature, threshold, ok := g.bestRegSplit(rows, grad, idx)
	if !ok {
		n.leaf = true
		n.value = newtonStep(gradSum, hessSum)
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
	if len(left) < g.minSamplesLeaf || len(right) < g.minSamplesLeaf {
		n.leaf = true
		n.value = newtonStep(gradSum, hessSum)
		return n
	}

	n.feature = feature
	n.threshold = threshold
	n.left = g.growRegTree(rows, grad, hess, left, depth+1)
	n.right = g.growRegTree(rows, grad, hess, right, depth+1)
	return n
}

// bestRegSplit minimizes the summed squared error of the gradients around
// each side's mean.
func (g *GradientBoostingClassifier) bestRegSplit(rows [][]float64, grad []float64, idx []int) (int, float64, bool) {
	nFeatures := len(rows[idx[0]])

	bestFeature, bestThreshold := -1, 0.0
	bestScore := math.Inf(1)

	values := make([]float64, 0, len(idx))
	for f := 0; f < nFeatures; f++ {
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

			var ln, rn int
			var lSum, rSum, lSq, rSq float64
			for _, i := range idx {
				if rows[i][f] <= threshold {
					ln++
					lSum += grad[i]
					lSq += grad[i] * grad[i]
				} else {
					rn++
					rSum += grad[i]
					rSq += grad[i] * grad[i]
				}
			}
			if ln < g.minSamplesLeaf || rn < g.minSamplesLeaf {
				continue
			}

			score := (lSq - lSum*lSum/float64(ln)) + (rSq - rSum*rSum/float64(rn))
			if score < bestScore {
				bestScore = score
				bestFeature = f
				bestThreshold = threshold
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

func newtonStep(gradSum, hessSum float64) float64 {
	if hessSum < 1e-12 {
		return 0
	}
	return gradSum / hessSum
}

// Predict returns an n×1 matrix of 0/1 labels.
func (g *GradientBoostingClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	probas, err := g.PredictProba(X)
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

// PredictProba returns an n×2 matrix of class probabilities.
func (g *GradientBoostingClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !g.IsFitted() {
		return nil, errors.NewNotFittedError("GradientBoostingClassifier", "PredictProba")
	}
	r, c := X.Dims()
	if c != g.nFeatures {
		return nil, errors.NewDimensionError("GradientBoostingClassifier.PredictProba", g.nFeatures, c, 1)
	}

	probas := mat.NewDense(r, 2, nil)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			row[j] = X.At(i, j)
		}
		score := g.baseScore
		for _, stage := range g.stages {
			score += g.learningRate * stage.eval(row)
		}
		p := sigmoid(score)
		probas.Set(i, 0, 1-p)
		probas.Set(i, 1, p)
	}
	return probas, nil
}

// Classes returns the class labels.
func (g *GradientBoostingClassifier) Classes() []int { return []int{0, 1} }

// Score returns the mean accuracy of Predict(X) against y.
func (g *GradientBoostingClassifier) Score(X, y mat.Matrix) (float64, error) {
	pred, err := g.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyMatrix(y, pred)
}

// NStages returns the number of fitted boosting stages.
func (g *GradientBoostingClassifier) NStages() int { return len(g.stages) }

// GetParams returns the hyperparameters by name.
func (g *GradientBoostingClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":     g.nEstimators,
		"learning_rate":    g.learningRate,
		"max_depth":        g.maxDepth,
		"min_samples_leaf": g.minSamplesLeaf,
		"subsample":        g.subsample,
	}
}

// SetParams sets hyperparameters by name, rejecting unknown keys.
func (g *GradientBoostingClassifier) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "n_estimators":
			n, ok := toInt(value)
			if !ok || n <= 0 {
				return errors.NewConfigError("GradientBoostingClassifier.SetParams", key, "want a positive int")
			}
			g.nEstimators = n
		case "learning_rate":
			f, ok := toFloat(value)
			if !ok || f <= 0 {
				return errors.NewConfigError("GradientBoostingClassifier.SetParams", key, "want a positive number")
			}
			g.learningRate = f
		case "max_depth":
			n, ok := toInt(value)
			if !ok || n <= 0 {
				return errors.NewConfigError("GradientBoostingClassifier.SetParams", key, "want a positive int")
			}
			g.maxDepth = n
		case "min_samples_leaf":
			n, ok := toInt(value)
			if !ok || n < 1 {
				return errors.NewConfigError("GradientBoostingClassifier.SetParams", key, "want a positive int")
			}
			g.minSamplesLeaf = n
		case "subsample":
			f, ok := toFloat(value)
			if !ok || f <= 0 || f > 1 {
				return errors.NewConfigError("GradientBoostingClassifier.SetParams", key, "want a fraction in (0, 1]")
			}
			g.subsample = f
		default:
			return errors.NewConfigError("GradientBoostingClassifier.SetParams", key, "unknown parameter")
		}
	}
	return nil
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	}
	return 0, false
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
