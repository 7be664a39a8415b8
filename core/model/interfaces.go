// Package model provides the estimator interfaces shared by the classifiers.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Scorer is the interface for models that can compute a score.
type Scorer interface {
	// Score returns the accuracy of the predictions on X against y.
	Score(X mat.Matrix, y mat.Matrix) (float64, error)
}

// Classifier combines interfaces for binary classification models.
type Classifier interface {
	Estimator
	Predictor
	Scorer

	// Classes returns the class labels the model can emit.
	Classes() []int
}

// DecisionFunctioner is implemented by classifiers that expose a continuous
// score; larger values favour the positive class. ROC and precision-recall
// curves are built from it.
type DecisionFunctioner interface {
	DecisionFunction(X mat.Matrix) (*mat.VecDense, error)
}

// ParameterGetter is the interface for models that expose their parameters.
type ParameterGetter interface {
	// GetParams returns the model's hyperparameters.
	GetParams() map[string]interface{}
}

// ParameterSetter is the interface for models that allow parameter modification.
type ParameterSetter interface {
	// SetParams sets the model's hyperparameters.
	SetParams(params map[string]interface{}) error
}

// WeightExporter is implemented by models whose fitted state can be exported
// as ModelWeights.
type WeightExporter interface {
	ExportWeights() (*ModelWeights, error)
	ImportWeights(weights *ModelWeights) error
}
