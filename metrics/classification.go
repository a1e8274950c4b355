// Package metrics computes classification scores for model evaluation:
// accuracy, binary confusion matrices, per-class precision/recall/F1 and
// ranking AUC. All functions are deterministic given fixed inputs.
package metrics

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/hydroml/potable/pkg/errors"
)

// Accuracy returns the fraction of predictions matching the true labels.
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("Accuracy", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("Accuracy", n, yPred.Len(), 0)
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// AccuracyMatrix computes Accuracy over the first column of matrix inputs.
func AccuracyMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	tv, err := firstColumn("AccuracyMatrix", yTrue)
	if err != nil {
		return 0, err
	}
	pv, err := firstColumn("AccuracyMatrix", yPred)
	if err != nil {
		return 0, err
	}
	return Accuracy(tv, pv)
}

// ClassificationError returns 1 - Accuracy.
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - acc, nil
}

// ConfusionMatrix holds the four counts of a binary confusion matrix.
// The positive class is 1.
type ConfusionMatrix struct {
	TN int // true label 0, predicted 0
	FP int // true label 0, predicted 1
	FN int // true label 1, predicted 0
	TP int // true label 1, predicted 1
}

// NewConfusionMatrix tallies binary predictions against true labels.
// Both vectors must contain only 0 and 1.
func NewConfusionMatrix(yTrue, yPred *mat.VecDense) (ConfusionMatrix, error) {
	var cm ConfusionMatrix
	n := yTrue.Len()
	if n == 0 {
		return cm, errors.NewValueError("NewConfusionMatrix", "empty vector")
	}
	if yPred.Len() != n {
		return cm, errors.NewDimensionError("NewConfusionMatrix", n, yPred.Len(), 0)
	}

	for i := 0; i < n; i++ {
		t, p := yTrue.AtVec(i), yPred.AtVec(i)
		if (t != 0 && t != 1) || (p != 0 && p != 1) {
			return cm, errors.NewValueError("NewConfusionMatrix",
				fmt.Sprintf("labels must be binary, got true=%v pred=%v at row %d", t, p, i))
		}
		switch {
		case t == 0 && p == 0:
			cm.TN++
		case t == 0 && p == 1:
			cm.FP++
		case t == 1 && p == 0:
			cm.FN++
		default:
			cm.TP++
		}
	}
	return cm, nil
}

// Total returns the number of samples tallied.
func (cm ConfusionMatrix) Total() int {
	return cm.TN + cm.FP + cm.FN + cm.TP
}

// Accuracy returns (TN+TP)/total.
func (cm ConfusionMatrix) Accuracy() float64 {
	total := cm.Total()
	if total == 0 {
		return 0
	}
	return float64(cm.TN+cm.TP) / float64(total)
}

// Precision returns the precision for the given class (0 or 1).
// An undefined ratio (no predictions for the class) scores 0.
func (cm ConfusionMatrix) Precision(class int) float64 {
	if class == 1 {
		return safeRatio(cm.TP, cm.TP+cm.FP)
	}
	return safeRatio(cm.TN, cm.TN+cm.FN)
}

// Recall returns the recall for the given class (0 or 1).
// An undefined ratio (no true samples of the class) scores 0.
func (cm ConfusionMatrix) Recall(class int) float64 {
	if class == 1 {
		return safeRatio(cm.TP, cm.TP+cm.FN)
	}
	return safeRatio(cm.TN, cm.TN+cm.FP)
}

// F1 returns the harmonic mean of precision and recall for the given class.
func (cm ConfusionMatrix) F1(class int) float64 {
	p, r := cm.Precision(class), cm.Recall(class)
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// Support returns the number of true samples of the given class.
func (cm ConfusionMatrix) Support(class int) int {
	if class == 1 {
		return cm.TP + cm.FN
	}
	return cm.TN + cm.FP
}

func safeRatio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// ClassMetrics bundles the per-class scores of a Report.
type ClassMetrics struct {
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Report bundles every evaluation score the pipeline reports for one model.
type Report struct {
	Accuracy  float64
	Confusion ConfusionMatrix
	PerClass  [2]ClassMetrics // indexed by class label
}

// NewReport evaluates binary predictions against true labels.
func NewReport(yTrue, yPred *mat.VecDense) (Report, error) {
	cm, err := NewConfusionMatrix(yTrue, yPred)
	if err != nil {
		return Report{}, err
	}
	r := Report{Accuracy: cm.Accuracy(), Confusion: cm}
	for class := 0; class <= 1; class++ {
		r.PerClass[class] = ClassMetrics{
			Precision: cm.Precision(class),
			Recall:    cm.Recall(class),
			F1:        cm.F1(class),
			Support:   cm.Support(class),
		}
	}
	return r, nil
}

// String renders the report in the layout of a classification report.
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "accuracy: %.4f\n", r.Accuracy)
	fmt.Fprintf(&b, "confusion: [[TN=%d FP=%d] [FN=%d TP=%d]]\n",
		r.Confusion.TN, r.Confusion.FP, r.Confusion.FN, r.Confusion.TP)
	fmt.Fprintf(&b, "%5s %10s %10s %10s %10s\n", "class", "precision", "recall", "f1", "support")
	for class := 0; class <= 1; class++ {
		m := r.PerClass[class]
		fmt.Fprintf(&b, "%5d %10.4f %10.4f %10.4f %10d\n", class, m.Precision, m.Recall, m.F1, m.Support)
	}
	return b.String()
}

// AUC returns the area under the ROC curve for binary labels and real-valued
// scores. Ties in the score receive half credit. With only one class present
// the value is undefined and reported as 0.5.
func AUC(yTrue, yScore *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("AUC", "empty vector")
	}
	if yScore.Len() != n {
		return 0, errors.NewDimensionError("AUC", n, yScore.Len(), 0)
	}

	nPos, nNeg := 0, 0
	for i := 0; i < n; i++ {
		switch yTrue.AtVec(i) {
		case 1:
			nPos++
		case 0:
			nNeg++
		default:
			return 0, errors.NewValueError("AUC",
				fmt.Sprintf("labels must be binary, got %v at row %d", yTrue.AtVec(i), i))
		}
	}
	if nPos == 0 || nNeg == 0 {
		return 0.5, nil
	}

	// Rank-sum formulation with average ranks for tied scores.
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return yScore.AtVec(idx[a]) < yScore.AtVec(idx[b])
	})

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && yScore.AtVec(idx[j]) == yScore.AtVec(idx[i]) {
			j++
		}
		avgRank := float64(i+j+1) / 2 // ranks are 1-based
		for k := i; k < j; k++ {
			ranks[idx[k]] = avgRank
		}
		i = j
	}

	var posRankSum float64
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == 1 {
			posRankSum += ranks[i]
		}
	}
	auc := (posRankSum - float64(nPos)*float64(nPos+1)/2) / (float64(nPos) * float64(nNeg))
	return auc, nil
}

// firstColumn extracts the first column of a matrix as a vector.
func firstColumn(op string, m mat.Matrix) (*mat.VecDense, error) {
	if m == nil {
		return nil, errors.NewValueError(op, "nil matrix")
	}
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewValueError(op, "empty matrix")
	}
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v, nil
}
