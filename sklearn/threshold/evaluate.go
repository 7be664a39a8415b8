// Package threshold implements single-feature threshold classifiers and
// the sweeps used to choose and compare their cutoffs.
package threshold

import (
	"strings"

	"github.com/YuminosukeSato/heightsml/core/parallel"
	"github.com/YuminosukeSato/heightsml/metrics"
	"github.com/YuminosukeSato/heightsml/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// sequentialThreshold is the number of cutoffs below which a sweep runs on
// the calling goroutine.
const sequentialThreshold = 8

// Criterion selects the metric a cutoff sweep maximises.
type Criterion int

const (
	CriterionAccuracy Criterion = iota
	CriterionF1
)

func (c Criterion) String() string {
	switch c {
	case CriterionAccuracy:
		return "accuracy"
	case CriterionF1:
		return "f1"
	default:
		return "unknown"
	}
}

// ParseCriterion accepts "accuracy" or "f1" in any case.
func ParseCriterion(s string) (Criterion, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "accuracy", "acc":
		return CriterionAccuracy, nil
	case "f1", "f1_score":
		return CriterionF1, nil
	default:
		return 0, errors.NewValidationError("criterion", "must be accuracy or f1", s)
	}
}

// CutoffScore holds the evaluation of one decision threshold. Threshold is
// a height cutoff for CutoffClassifier sweeps and a probability for
// guessing.
type CutoffScore struct {
	Threshold   float64
	Matrix      metrics.ConfusionMatrix
	Accuracy    float64
	F1          float64
	Sensitivity float64
	Specificity float64
	Precision   float64
}

// FPR returns 1 - specificity.
func (s CutoffScore) FPR() float64 {
	return 1 - s.Specificity
}

// PrecisionDefined reports whether any sample was predicted positive.
func (s CutoffScore) PrecisionDefined() bool {
	return s.Matrix.TP+s.Matrix.FP > 0
}

// Value returns the score for the given criterion.
func (s CutoffScore) Value(c Criterion) float64 {
	if c == CriterionF1 {
		return s.F1
	}
	return s.Accuracy
}

func newCutoffScore(threshold float64, cm *metrics.ConfusionMatrix) CutoffScore {
	return CutoffScore{
		Threshold:   threshold,
		Matrix:      *cm,
		Accuracy:    cm.Accuracy(),
		F1:          cm.F1(),
		Sensitivity: cm.Sensitivity(),
		Specificity: cm.Specificity(),
		Precision:   cm.Precision(),
	}
}

// Best returns the index of the highest score for c. Ties go to the first
// occurrence.
func Best(scores []CutoffScore, c Criterion) int {
	best := -1
	for i, s := range scores {
		if best < 0 || s.Value(c) > scores[best].Value(c) {
			best = i
		}
	}
	return best
}

// vectorValues flattens an n×1 matrix or a vector.
func vectorValues(op, name string, m mat.Matrix) ([]float64, error) {
	if m == nil {
		return nil, errors.NewModelError(op, name+" is empty", errors.ErrEmptyData)
	}
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewModelError(op, name+" is empty", errors.ErrEmptyData)
	}
	if c != 1 {
		return nil, errors.NewDimensionError(op, 1, c, 1)
	}
	out := make([]float64, r)
	for i := range out {
		out[i] = m.At(i, 0)
	}
	return out, nil
}

func binaryLabels(op string, y []float64) error {
	for i, v := range y {
		if v != 0 && v != 1 {
			return errors.Wrapf(errors.ErrNotBinary, "%s: got %v at index %d", op, v, i)
		}
	}
	return nil
}

func validateLabel(name string, v float64) error {
	if v != 0 && v != 1 {
		return errors.NewValidationError(name, "must be 0 or 1", v)
	}
	return nil
}

// prepare validates a feature column and its labels.
func prepare(op string, X, y mat.Matrix) (x, labels []float64, err error) {
	if x, err = vectorValues(op, "X", X); err != nil {
		return nil, nil, err
	}
	if labels, err = vectorValues(op, "y", y); err != nil {
		return nil, nil, err
	}
	if len(x) != len(labels) {
		return nil, nil, errors.NewDimensionError(op, len(x), len(labels), 0)
	}
	if err := errors.CheckFinite(op, x); err != nil {
		return nil, nil, err
	}
	if err := binaryLabels(op, labels); err != nil {
		return nil, nil, err
	}
	return x, labels, nil
}

// evaluate scores every cutoff in order. Samples with x > cutoff are
// predicted above, the rest below.
func evaluate(x, y, cutoffs []float64, positive, above, below float64) []CutoffScore {
	out := make([]CutoffScore, len(cutoffs))
	parallel.ParallelizeWithThreshold(len(cutoffs), sequentialThreshold, func(start, end int) {
		for k := start; k < end; k++ {
			cm := &metrics.ConfusionMatrix{Positive: positive}
			for i, v := range x {
				pred := below
				if v > cutoffs[k] {
					pred = above
				}
				cm.Add(y[i], pred)
			}
			out[k] = newCutoffScore(cutoffs[k], cm)
		}
	})
	return out
}

// EvaluateCutoffs predicts label 1 (Male) for x > cutoff and label 0
// otherwise, and scores each cutoff against y with the given positive
// label. Results keep the order of cutoffs.
//
//	scores, err := threshold.EvaluateCutoffs(train.X(), train.Y(), []float64{61, 62, 63}, 0)
//	best := scores[threshold.Best(scores, threshold.CriterionAccuracy)]
func EvaluateCutoffs(X, y mat.Matrix, cutoffs []float64, positive float64) ([]CutoffScore, error) {
	x, labels, err := prepare("EvaluateCutoffs", X, y)
	if err != nil {
		return nil, err
	}
	if err := validateLabel("positive", positive); err != nil {
		return nil, err
	}
	if len(cutoffs) == 0 {
		return nil, errors.NewValueError("EvaluateCutoffs", "no cutoffs given")
	}
	if err := errors.CheckFinite("EvaluateCutoffs", cutoffs); err != nil {
		return nil, err
	}
	return evaluate(x, labels, cutoffs, positive, 1, 0), nil
}
