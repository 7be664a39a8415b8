package threshold

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/YuminosukeSato/heightsml/core/model"
	"github.com/YuminosukeSato/heightsml/core/parallel"
	"github.com/YuminosukeSato/heightsml/metrics"
	"github.com/YuminosukeSato/heightsml/pkg/errors"
	"github.com/YuminosukeSato/heightsml/pkg/log"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

const guessModelType = "GuessClassifier"

// GuessClassifier ignores its input and predicts label 1 (Male) with
// probability P, label 0 otherwise. It is the baseline every cutoff rule
// is compared against.
type GuessClassifier struct {
	state *model.StateManager

	P    float64
	Seed uint64

	src    rand.Source
	id     string
	logger log.Logger
}

// NewGuessClassifier creates a guesser with the given probability and seed.
func NewGuessClassifier(p float64, seed uint64) *GuessClassifier {
	g := &GuessClassifier{
		state: model.NewStateManager(),
		P:     p,
		Seed:  seed,
		src:   rand.NewPCG(seed, seed),
		id:    uuid.NewString(),
	}
	g.logger = log.GetLoggerWithName("threshold").With(
		log.ModelNameKey, guessModelType,
		log.EstimatorIDKey, g.id,
	)
	return g
}

func validateProbability(p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return errors.NewValidationError("p", "must be in [0, 1]", p)
	}
	return nil
}

// Fit checks the inputs; guessing learns nothing.
func (g *GuessClassifier) Fit(X, y mat.Matrix) error {
	if err := validateProbability(g.P); err != nil {
		return err
	}
	x, _, err := prepare("GuessClassifier.Fit", X, y)
	if err != nil {
		return err
	}
	g.state.SetDimensions(1, len(x))
	g.state.SetFitted()
	return nil
}

// Predict draws one label per row. Successive calls continue the same
// random stream.
func (g *GuessClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := g.state.RequireFitted(guessModelType, "Predict"); err != nil {
		return nil, err
	}
	r, _ := X.Dims()
	if r == 0 {
		return nil, errors.NewModelError("GuessClassifier.Predict", "X is empty", errors.ErrEmptyData)
	}
	return mat.NewDense(r, 1, guess(r, g.P, g.src)), nil
}

func guess(n int, p float64, src rand.Source) []float64 {
	b := distuv.Bernoulli{P: p, Src: src}
	out := make([]float64, n)
	for i := range out {
		out[i] = b.Rand()
	}
	return out
}

// Score returns the accuracy of one round of guesses against y.
func (g *GuessClassifier) Score(X, y mat.Matrix) (float64, error) {
	pred, err := g.Predict(X)
	if err != nil {
		return 0, err
	}
	yTrue, err := vectorValues("GuessClassifier.Score", "y", y)
	if err != nil {
		return 0, err
	}
	yPred, _ := vectorValues("GuessClassifier.Score", "pred", pred)
	return metrics.Accuracy(mat.NewVecDense(len(yTrue), yTrue), mat.NewVecDense(len(yPred), yPred))
}

// IsFitted reports whether Fit has succeeded.
func (g *GuessClassifier) IsFitted() bool {
	return g.state.IsFitted()
}

// Classes returns the labels the classifier can emit.
func (g *GuessClassifier) Classes() []int {
	return []int{0, 1}
}

// GetParams returns the hyperparameters.
func (g *GuessClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{"p": g.P, "seed": g.Seed}
}

func (g *GuessClassifier) String() string {
	return fmt.Sprintf("GuessClassifier(p=%g, seed=%d)", g.P, g.Seed)
}

// EvaluateGuessing scores guessing Male with each probability in probs
// against y. Every probability draws from its own stream derived from
// seed, so results do not depend on evaluation order.
func EvaluateGuessing(y mat.Matrix, probs []float64, seed uint64, positive float64) ([]CutoffScore, error) {
	labels, err := vectorValues("EvaluateGuessing", "y", y)
	if err != nil {
		return nil, err
	}
	if err := binaryLabels("EvaluateGuessing", labels); err != nil {
		return nil, err
	}
	if err := validateLabel("positive", positive); err != nil {
		return nil, err
	}
	if len(probs) == 0 {
		return nil, errors.NewValueError("EvaluateGuessing", "no probabilities given")
	}
	for _, p := range probs {
		if err := validateProbability(p); err != nil {
			return nil, err
		}
	}

	out := make([]CutoffScore, len(probs))
	parallel.ParallelizeWithThreshold(len(probs), sequentialThreshold, func(start, end int) {
		for k := start; k < end; k++ {
			pred := guess(len(labels), probs[k], rand.NewPCG(seed, uint64(k)))
			cm := &metrics.ConfusionMatrix{Positive: positive}
			for i, v := range labels {
				cm.Add(v, pred[i])
			}
			out[k] = newCutoffScore(probs[k], cm)
		}
	})

	log.GetLoggerWithName("threshold").Debug("Guessing evaluated",
		log.OperationKey, log.OperationSweep,
		log.ModelNameKey, guessModelType,
		log.CandidatesKey, len(probs),
		log.SamplesKey, len(labels),
	)
	return out, nil
}

var _ model.Classifier = (*GuessClassifier)(nil)
