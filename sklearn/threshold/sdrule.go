package threshold

import (
	"github.com/YuminosukeSato/heightsml/pkg/errors"
	"github.com/YuminosukeSato/heightsml/pkg/log"
	"github.com/YuminosukeSato/heightsml/preprocessing"
	"gonum.org/v1/gonum/mat"
)

// FitSDRule builds the rule "predict the group when x lies above
// mean(group) - k*sd(group)". The statistics use the sample standard
// deviation of the rows labelled group. The returned classifier predicts
// group above the cutoff and the other label at or below it; opts may
// override the positive label.
func FitSDRule(X, y mat.Matrix, group, k float64, opts ...Option) (*CutoffClassifier, error) {
	x, labels, err := prepare("FitSDRule", X, y)
	if err != nil {
		return nil, err
	}
	if err := validateLabel("group", group); err != nil {
		return nil, err
	}

	var members []float64
	for i, v := range x {
		if labels[i] == group {
			members = append(members, v)
		}
	}
	if len(members) < 2 {
		return nil, errors.NewValueError("FitSDRule", "at least 2 samples of the group are required")
	}

	scaler := preprocessing.NewStandardScalerDefault()
	scaler.DDOF = 1
	if err := scaler.Fit(mat.NewDense(len(members), 1, members)); err != nil {
		return nil, err
	}
	cutoff, err := scaler.Bound(0, -k)
	if err != nil {
		return nil, err
	}

	all := append([]Option{WithLabels(group, 1-group)}, opts...)
	all = append(all, WithCutoff(cutoff), WithCandidates())
	clf := NewCutoffClassifier(all...)
	if err := clf.Fit(X, y); err != nil {
		return nil, err
	}
	clf.logger.Info("SD rule fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, len(members),
		log.ThresholdKey, cutoff,
	)
	return clf, nil
}
