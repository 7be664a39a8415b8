package threshold

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"
	"slices"

	"github.com/YuminosukeSato/heightsml/core/model"
	"github.com/YuminosukeSato/heightsml/metrics"
	"github.com/YuminosukeSato/heightsml/pkg/errors"
	"github.com/YuminosukeSato/heightsml/pkg/log"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
)

const cutoffModelType = "CutoffClassifier"

// CutoffClassifier predicts AboveLabel when the feature exceeds the cutoff
// and BelowLabel otherwise. With candidates it chooses the cutoff that
// maximises the criterion on the training data.
type CutoffClassifier struct {
	state *model.StateManager

	// Hyperparameters
	cutoff     float64   // Used as-is when no candidates are given
	candidates []float64 // Cutoffs swept by Fit, kept ascending
	criterion  Criterion
	positive   float64 // Label treated as positive by F1 and the decision function
	above      float64 // Label predicted for x > cutoff
	below      float64 // Label predicted for x <= cutoff

	// Fitted state
	sweep []CutoffScore

	id     string
	logger log.Logger
}

// Option configures a CutoffClassifier.
type Option func(*CutoffClassifier)

// NewCutoffClassifier creates a classifier predicting Male (1) above the
// cutoff and Female (0) at or below it, with Female as the positive class.
func NewCutoffClassifier(opts ...Option) *CutoffClassifier {
	c := &CutoffClassifier{
		state:     model.NewStateManager(),
		cutoff:    math.NaN(),
		criterion: CriterionAccuracy,
		positive:  0,
		above:     1,
		below:     0,
		id:        uuid.NewString(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = log.GetLoggerWithName("threshold").With(
		log.ModelNameKey, cutoffModelType,
		log.EstimatorIDKey, c.id,
	)
	return c
}

// WithCutoff sets a fixed cutoff.
func WithCutoff(cutoff float64) Option {
	return func(c *CutoffClassifier) {
		c.cutoff = cutoff
	}
}

// WithCandidates makes Fit sweep the given cutoffs.
func WithCandidates(candidates ...float64) Option {
	return func(c *CutoffClassifier) {
		c.candidates = normalizeCandidates(candidates)
	}
}

// WithCriterion sets the metric maximised by the sweep.
func WithCriterion(criterion Criterion) Option {
	return func(c *CutoffClassifier) {
		c.criterion = criterion
	}
}

// WithPositive sets the positive label.
func WithPositive(label float64) Option {
	return func(c *CutoffClassifier) {
		c.positive = label
	}
}

// WithLabels sets the labels predicted above and at-or-below the cutoff.
func WithLabels(above, below float64) Option {
	return func(c *CutoffClassifier) {
		c.above = above
		c.below = below
	}
}

// normalizeCandidates sorts ascending and removes duplicates so that ties
// resolve to the smallest cutoff.
func normalizeCandidates(candidates []float64) []float64 {
	out := append([]float64(nil), candidates...)
	slices.Sort(out)
	return slices.Compact(out)
}

func (c *CutoffClassifier) validate() error {
	if err := validateLabel("positive", c.positive); err != nil {
		return err
	}
	if err := validateLabel("above_label", c.above); err != nil {
		return err
	}
	if err := validateLabel("below_label", c.below); err != nil {
		return err
	}
	if c.above == c.below {
		return errors.NewValidationError("labels", "above and below labels must differ", c.above)
	}
	if c.criterion != CriterionAccuracy && c.criterion != CriterionF1 {
		return errors.NewValidationError("criterion", "unknown criterion", int(c.criterion))
	}
	if len(c.candidates) == 0 && (math.IsNaN(c.cutoff) || math.IsInf(c.cutoff, 0)) {
		return errors.NewValidationError("cutoff", "a finite cutoff or candidate list is required", c.cutoff)
	}
	return errors.CheckFinite("CutoffClassifier", c.candidates)
}

// Fit selects the cutoff. X must be n×1; y holds 0/1 labels.
func (c *CutoffClassifier) Fit(X, y mat.Matrix) error {
	if err := c.validate(); err != nil {
		return err
	}
	x, labels, err := prepare("CutoffClassifier.Fit", X, y)
	if err != nil {
		c.logger.Error("Fit failed", err, log.OperationKey, log.OperationFit)
		return err
	}

	c.sweep = nil
	if len(c.candidates) > 0 {
		c.sweep = evaluate(x, labels, c.candidates, c.positive, c.above, c.below)
		best := Best(c.sweep, c.criterion)
		c.cutoff = c.sweep[best].Threshold
		c.logger.Info("Cutoff selected",
			log.OperationKey, log.OperationSweep,
			log.PhaseKey, log.PhaseTraining,
			log.CandidatesKey, len(c.candidates),
			log.MetricKey, c.criterion.String(),
			log.ThresholdKey, c.cutoff,
			log.AccuracyKey, c.sweep[best].Accuracy,
			log.F1Key, c.sweep[best].F1,
		)
	}

	c.state.SetDimensions(1, len(x))
	c.state.SetFitted()
	c.logger.Debug("Fit complete",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, len(x),
		log.ThresholdKey, c.cutoff,
	)
	return nil
}

// Predict returns an n×1 matrix of predicted labels.
func (c *CutoffClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := c.state.RequireFitted(cutoffModelType, "Predict"); err != nil {
		return nil, err
	}
	x, err := vectorValues("CutoffClassifier.Predict", "X", X)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(len(x), 1, nil)
	for i, v := range x {
		if v > c.cutoff {
			out.Set(i, 0, c.above)
		} else {
			out.Set(i, 0, c.below)
		}
	}
	return out, nil
}

// DecisionFunction returns a score that grows toward the positive class:
// x - cutoff when the positive label is predicted above the cutoff, and
// cutoff - x otherwise.
func (c *CutoffClassifier) DecisionFunction(X mat.Matrix) (*mat.VecDense, error) {
	if err := c.state.RequireFitted(cutoffModelType, "DecisionFunction"); err != nil {
		return nil, err
	}
	x, err := vectorValues("CutoffClassifier.DecisionFunction", "X", X)
	if err != nil {
		return nil, err
	}
	sign := -1.0
	if c.positive == c.above {
		sign = 1
	}
	scores := mat.NewVecDense(len(x), nil)
	for i, v := range x {
		scores.SetVec(i, sign*(v-c.cutoff))
	}
	return scores, nil
}

// Score returns the accuracy on X against y.
func (c *CutoffClassifier) Score(X, y mat.Matrix) (float64, error) {
	pred, err := c.Predict(X)
	if err != nil {
		return 0, err
	}
	yTrue, err := vectorValues("CutoffClassifier.Score", "y", y)
	if err != nil {
		return 0, err
	}
	yPred, _ := vectorValues("CutoffClassifier.Score", "pred", pred)
	acc, err := metrics.Accuracy(mat.NewVecDense(len(yTrue), yTrue), mat.NewVecDense(len(yPred), yPred))
	if err != nil {
		return 0, err
	}
	c.logger.Debug("Scored",
		log.OperationKey, log.OperationScore,
		log.SamplesKey, len(yTrue),
		log.AccuracyKey, acc,
	)
	return acc, nil
}

// ConfusionMatrix predicts X and tabulates the result against y.
func (c *CutoffClassifier) ConfusionMatrix(X, y mat.Matrix) (*metrics.ConfusionMatrix, error) {
	pred, err := c.Predict(X)
	if err != nil {
		return nil, err
	}
	yTrue, err := vectorValues("CutoffClassifier.ConfusionMatrix", "y", y)
	if err != nil {
		return nil, err
	}
	yPred, _ := vectorValues("CutoffClassifier.ConfusionMatrix", "pred", pred)
	return metrics.NewConfusionMatrix(mat.NewVecDense(len(yTrue), yTrue), mat.NewVecDense(len(yPred), yPred), c.positive)
}

// IsFitted reports whether Fit has succeeded.
func (c *CutoffClassifier) IsFitted() bool {
	return c.state.IsFitted()
}

// Classes returns the labels the classifier can emit.
func (c *CutoffClassifier) Classes() []int {
	return []int{0, 1}
}

// ID returns the instance identifier attached to log records.
func (c *CutoffClassifier) ID() string {
	return c.id
}

// Cutoff returns the current cutoff, NaN if none has been chosen yet.
func (c *CutoffClassifier) Cutoff() float64 {
	return c.cutoff
}

// Positive returns the positive label.
func (c *CutoffClassifier) Positive() float64 {
	return c.positive
}

// Sweep returns the scores of every candidate from the last Fit, in
// ascending cutoff order.
func (c *CutoffClassifier) Sweep() []CutoffScore {
	return append([]CutoffScore(nil), c.sweep...)
}

// GetParams returns the hyperparameters.
func (c *CutoffClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"cutoff":         c.cutoff,
		"candidates":     append([]float64(nil), c.candidates...),
		"criterion":      c.criterion.String(),
		"positive_label": c.positive,
		"above_label":    c.above,
		"below_label":    c.below,
	}
}

// SetParams updates hyperparameters. Changing any of them resets the
// fitted state.
func (c *CutoffClassifier) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "cutoff":
			v, ok := toFloat(value)
			if !ok {
				return errors.NewValidationError(key, "must be a number", value)
			}
			c.cutoff = v
		case "candidates":
			v, ok := value.([]float64)
			if !ok {
				return errors.NewValidationError(key, "must be []float64", value)
			}
			c.candidates = normalizeCandidates(v)
		case "criterion":
			var crit Criterion
			switch v := value.(type) {
			case string:
				parsed, err := ParseCriterion(v)
				if err != nil {
					return err
				}
				crit = parsed
			case Criterion:
				crit = v
			default:
				return errors.NewValidationError(key, "must be a string or Criterion", value)
			}
			c.criterion = crit
		case "positive_label", "above_label", "below_label":
			v, ok := toFloat(value)
			if !ok {
				return errors.NewValidationError(key, "must be a number", value)
			}
			switch key {
			case "positive_label":
				c.positive = v
			case "above_label":
				c.above = v
			default:
				c.below = v
			}
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
	}
	c.state.Reset()
	c.sweep = nil
	return c.validate()
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}

// ExportWeights captures the fitted cutoff and labels.
func (c *CutoffClassifier) ExportWeights() (*model.ModelWeights, error) {
	if err := c.state.RequireFitted(cutoffModelType, "ExportWeights"); err != nil {
		return nil, err
	}
	_, n := c.state.GetDimensions()
	return &model.ModelWeights{
		ModelType:     cutoffModelType,
		Version:       model.WeightsVersion,
		Threshold:     c.cutoff,
		AboveLabel:    int(c.above),
		BelowLabel:    int(c.below),
		PositiveLabel: int(c.positive),
		Hyperparameters: map[string]interface{}{
			"criterion":  c.criterion.String(),
			"candidates": append([]float64(nil), c.candidates...),
		},
		Metadata: map[string]interface{}{
			"n_samples": n,
			"id":        c.id,
		},
		IsFitted: true,
	}, nil
}

// ImportWeights restores a classifier from exported weights.
func (c *CutoffClassifier) ImportWeights(w *model.ModelWeights) error {
	if w == nil {
		return errors.NewValueError("CutoffClassifier.ImportWeights", "nil weights")
	}
	if err := w.Validate(); err != nil {
		return err
	}
	if w.ModelType != cutoffModelType {
		return errors.NewValidationError("model_type", "expected "+cutoffModelType, w.ModelType)
	}
	c.cutoff = w.Threshold
	c.above = float64(w.AboveLabel)
	c.below = float64(w.BelowLabel)
	c.positive = float64(w.PositiveLabel)
	if name, ok := w.Hyperparameters["criterion"].(string); ok {
		crit, err := ParseCriterion(name)
		if err != nil {
			return err
		}
		c.criterion = crit
	}
	switch v := w.Hyperparameters["candidates"].(type) {
	case []float64:
		c.candidates = normalizeCandidates(v)
	case []interface{}:
		// JSON decodes arrays as []interface{}
		cands := make([]float64, 0, len(v))
		for _, item := range v {
			f, ok := item.(float64)
			if !ok {
				return errors.NewValidationError("candidates", "must be numbers", item)
			}
			cands = append(cands, f)
		}
		c.candidates = normalizeCandidates(cands)
	}
	c.sweep = nil
	c.state.Reset()
	if w.IsFitted {
		c.state.SetFitted()
	}
	return nil
}

// GobEncode persists the classifier through its exported weights.
func (c *CutoffClassifier) GobEncode() ([]byte, error) {
	w, err := c.ExportWeights()
	if err != nil {
		return nil, err
	}
	data, err := w.ToJSON()
	if err != nil {
		return nil, errors.Wrap(err, "encode cutoff classifier")
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(data); err != nil {
		return nil, errors.Wrap(err, "encode cutoff classifier")
	}
	return buf.Bytes(), nil
}

// GobDecode restores a classifier written by GobEncode.
func (c *CutoffClassifier) GobDecode(data []byte) error {
	var raw []byte
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&raw); err != nil {
		return errors.Wrap(err, "decode cutoff classifier")
	}
	w := &model.ModelWeights{}
	if err := w.FromJSON(raw); err != nil {
		return err
	}
	if c.state == nil {
		*c = *NewCutoffClassifier()
	}
	if id, ok := w.Metadata["id"].(string); ok && id != "" {
		c.id = id
		c.logger = log.GetLoggerWithName("threshold").With(
			log.ModelNameKey, cutoffModelType,
			log.EstimatorIDKey, c.id,
		)
	}
	return c.ImportWeights(w)
}

// String returns a short description.
func (c *CutoffClassifier) String() string {
	return fmt.Sprintf("CutoffClassifier(cutoff=%g, criterion=%s, positive=%g, fitted=%t)",
		c.cutoff, c.criterion, c.positive, c.IsFitted())
}

var (
	_ model.Classifier         = (*CutoffClassifier)(nil)
	_ model.DecisionFunctioner = (*CutoffClassifier)(nil)
	_ model.ParameterGetter    = (*CutoffClassifier)(nil)
	_ model.ParameterSetter    = (*CutoffClassifier)(nil)
	_ model.WeightExporter     = (*CutoffClassifier)(nil)
)
