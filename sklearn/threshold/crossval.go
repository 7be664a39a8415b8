package threshold

import (
	"github.com/YuminosukeSato/heightsml/core/parallel"
	"github.com/YuminosukeSato/heightsml/pkg/errors"
	"github.com/YuminosukeSato/heightsml/pkg/log"
	"github.com/YuminosukeSato/heightsml/sklearn/model_selection"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// CVResult holds per-fold results of cross-validated cutoff selection.
type CVResult struct {
	Cutoffs     []float64 // Cutoff chosen on each training fold
	TrainScores []float64
	TestScores  []float64
}

// MeanScore returns the mean test score.
func (r *CVResult) MeanScore() float64 {
	if len(r.TestScores) == 0 {
		return 0
	}
	return stat.Mean(r.TestScores, nil)
}

// StdScore returns the sample standard deviation of the test scores.
func (r *CVResult) StdScore() float64 {
	if len(r.TestScores) < 2 {
		return 0
	}
	return stat.StdDev(r.TestScores, nil)
}

// MeanCutoff returns the average selected cutoff.
func (r *CVResult) MeanCutoff() float64 {
	if len(r.Cutoffs) == 0 {
		return 0
	}
	return stat.Mean(r.Cutoffs, nil)
}

func rows(x, y []float64, idx []int) (*mat.Dense, *mat.VecDense) {
	xs := make([]float64, len(idx))
	ys := make([]float64, len(idx))
	for k, i := range idx {
		xs[k] = x[i]
		ys[k] = y[i]
	}
	return mat.NewDense(len(xs), 1, xs), mat.NewVecDense(len(ys), ys)
}

// CrossValidate fits a CutoffClassifier configured by opts on every
// training fold and scores it, by its criterion, on the held-out fold.
func CrossValidate(X, y mat.Matrix, splitter model_selection.Splitter, opts ...Option) (*CVResult, error) {
	if splitter == nil {
		return nil, errors.NewValueError("CrossValidate", "nil splitter")
	}
	proto := NewCutoffClassifier(opts...)
	if err := proto.validate(); err != nil {
		return nil, err
	}
	x, labels, err := prepare("CrossValidate", X, y)
	if err != nil {
		return nil, err
	}
	folds := splitter.Split(len(x), mat.NewVecDense(len(labels), labels))

	res := &CVResult{
		Cutoffs:     make([]float64, len(folds)),
		TrainScores: make([]float64, len(folds)),
		TestScores:  make([]float64, len(folds)),
	}
	errs := make([]error, len(folds))
	parallel.Parallelize(len(folds), func(start, end int) {
		for f := start; f < end; f++ {
			fold := folds[f]
			if len(fold.TrainIndices) == 0 || len(fold.TestIndices) == 0 {
				errs[f] = errors.New("empty partition")
				continue
			}
			clf := NewCutoffClassifier(opts...)
			xTrain, yTrain := rows(x, labels, fold.TrainIndices)
			if errs[f] = clf.Fit(xTrain, yTrain); errs[f] != nil {
				continue
			}
			res.Cutoffs[f] = clf.Cutoff()

			xTest, yTest := rows(x, labels, fold.TestIndices)
			trainScore, err := clf.foldScore(xTrain, yTrain)
			if err != nil {
				errs[f] = err
				continue
			}
			testScore, err := clf.foldScore(xTest, yTest)
			if err != nil {
				errs[f] = err
				continue
			}
			res.TrainScores[f] = trainScore
			res.TestScores[f] = testScore
		}
	})
	for f, err := range errs {
		if err != nil {
			return nil, errors.Wrapf(err, "fold %d", f)
		}
	}

	scoreKey := log.AccuracyKey
	if proto.criterion == CriterionF1 {
		scoreKey = log.F1Key
	}
	proto.logger.Info("Cross-validation complete",
		log.OperationKey, log.OperationSweep,
		log.PhaseKey, log.PhaseTesting,
		log.MetricKey, proto.criterion.String(),
		log.FoldsKey, len(folds),
		log.ThresholdKey, res.MeanCutoff(),
		scoreKey, res.MeanScore(),
	)
	return res, nil
}

// foldScore evaluates the classifier on one fold by its criterion.
func (c *CutoffClassifier) foldScore(X mat.Matrix, y mat.Matrix) (float64, error) {
	if c.criterion == CriterionAccuracy {
		return c.Score(X, y)
	}
	cm, err := c.ConfusionMatrix(X, y)
	if err != nil {
		return 0, err
	}
	return cm.F1(), nil
}
