package metrics

import (
	"math"
	"testing"

	"github.com/YuminosukeSato/heightsml/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// buildLabels はTP/FP/FN/TNの件数から正解と予測のベクトルを作る（陽性=1）
func buildLabels(tp, fp, fn, tn int) (*mat.VecDense, *mat.VecDense) {
	var yTrue, yPred []float64
	add := func(count int, truth, pred float64) {
		for i := 0; i < count; i++ {
			yTrue = append(yTrue, truth)
			yPred = append(yPred, pred)
		}
	}
	add(tp, 1, 1)
	add(fp, 0, 1)
	add(fn, 1, 0)
	add(tn, 0, 0)
	return mat.NewVecDense(len(yTrue), yTrue), mat.NewVecDense(len(yPred), yPred)
}

func silenceWarnings(t *testing.T) *[]error {
	t.Helper()
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	errors.SetZerologWarnFunc(nil)
	t.Cleanup(func() { errors.SetWarningHandler(func(error) {}) })
	return &warnings
}

func TestConfusionMatrixStatistics(t *testing.T) {
	yTrue, yPred := buildLabels(50, 27, 69, 379)

	cm, err := NewConfusionMatrix(yTrue, yPred, 1)
	require.NoError(t, err)

	assert.Equal(t, 50, cm.TP)
	assert.Equal(t, 27, cm.FP)
	assert.Equal(t, 69, cm.FN)
	assert.Equal(t, 379, cm.TN)
	assert.Equal(t, 525, cm.Total())

	assert.InDelta(t, 0.8171428571, cm.Accuracy(), 1e-9)
	assert.InDelta(t, 0.4201680672, cm.Sensitivity(), 1e-9)
	assert.InDelta(t, 0.9334975369, cm.Specificity(), 1e-9)
	assert.InDelta(t, 0.6493506494, cm.Precision(), 1e-9)
	assert.InDelta(t, 0.8459821429, cm.NPV(), 1e-9)
	assert.InDelta(t, 0.5102040816, cm.F1(), 1e-9)
	assert.InDelta(t, 0.4520795660, cm.FBeta(2), 1e-9)
	assert.InDelta(t, 0.4040721735, cm.Kappa(), 1e-9)
	assert.InDelta(t, 1-cm.Specificity(), cm.FPR(), 1e-12)
	assert.InDelta(t, 119.0/525, cm.Prevalence(), 1e-12)
	assert.InDelta(t, 50.0/525, cm.DetectionRate(), 1e-12)
	assert.InDelta(t, 77.0/525, cm.DetectionPrevalence(), 1e-12)
	assert.InDelta(t, (cm.Sensitivity()+cm.Specificity())/2, cm.BalancedAccuracy(), 1e-12)

	assert.Equal(t, cm.Sensitivity(), cm.Recall())
	assert.Equal(t, cm.Sensitivity(), cm.TPR())
	assert.Equal(t, cm.Specificity(), cm.TNR())
	assert.Equal(t, cm.Precision(), cm.PPV())
}

func TestConfusionMatrixPositiveZero(t *testing.T) {
	yTrue, yPred := buildLabels(50, 27, 69, 379)

	// 陽性を0にすると役割が入れ替わる
	cm, err := NewConfusionMatrix(yTrue, yPred, 0)
	require.NoError(t, err)
	assert.Equal(t, 379, cm.TP)
	assert.Equal(t, 50, cm.TN)
	assert.Equal(t, 69, cm.FP)
	assert.Equal(t, 27, cm.FN)

	table := cm.Table()
	assert.Equal(t, 379, table[0][0], "predicted 0, reference 0")
	assert.Equal(t, 69, table[0][1], "predicted 0, reference 1")
	assert.Equal(t, 27, table[1][0], "predicted 1, reference 0")
	assert.Equal(t, 50, table[1][1], "predicted 1, reference 1")
}

func TestConfusionMatrixTableMatchesLabels(t *testing.T) {
	yTrue, yPred := buildLabels(3, 2, 1, 4)
	cm, err := NewConfusionMatrix(yTrue, yPred, 1)
	require.NoError(t, err)

	table := cm.Table()
	assert.Equal(t, [2][2]int{{4, 1}, {2, 3}}, table)
}

func TestConfusionMatrixErrors(t *testing.T) {
	tests := []struct {
		name     string
		yTrue    *mat.VecDense
		yPred    *mat.VecDense
		positive float64
	}{
		{"nil", nil, nil, 1},
		{"mismatch", mat.NewVecDense(2, []float64{0, 1}), mat.NewVecDense(1, []float64{0}), 1},
		{"bad positive", mat.NewVecDense(2, []float64{0, 1}), mat.NewVecDense(2, []float64{0, 1}), 2},
		{"non-binary truth", mat.NewVecDense(2, []float64{0, 2}), mat.NewVecDense(2, []float64{0, 1}), 1},
		{"non-binary pred", mat.NewVecDense(2, []float64{0, 1}), mat.NewVecDense(2, []float64{0, 0.5}), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfusionMatrix(tt.yTrue, tt.yPred, tt.positive)
			assert.Error(t, err)
		})
	}

	_, err := NewConfusionMatrix(mat.NewVecDense(1, []float64{3}), mat.NewVecDense(1, []float64{1}), 1)
	assert.True(t, errors.Is(err, errors.ErrNotBinary))
}

func TestConfusionMatrixUndefinedMetrics(t *testing.T) {
	warnings := silenceWarnings(t)

	// 陽性の予測が一つもない
	yTrue, yPred := buildLabels(0, 0, 3, 5)
	cm, err := NewConfusionMatrix(yTrue, yPred, 1)
	require.NoError(t, err)

	assert.Equal(t, 0.0, cm.Precision())
	assert.Equal(t, 0.0, cm.Sensitivity())
	assert.Equal(t, 1.0, cm.Specificity())
	require.Len(t, *warnings, 1)

	var w *errors.UndefinedMetricWarning
	require.True(t, errors.As((*warnings)[0], &w))
	assert.Equal(t, "precision", w.Metric)

	empty := &ConfusionMatrix{Positive: 1}
	assert.Equal(t, 0.0, empty.F1())
	assert.Equal(t, 0.0, empty.Kappa())
	assert.False(t, math.IsNaN(empty.BalancedAccuracy()))
}

func TestFunctionForms(t *testing.T) {
	yTrue, yPred := buildLabels(50, 27, 69, 379)

	sens, err := Sensitivity(yTrue, yPred, 1)
	require.NoError(t, err)
	rec, err := Recall(yTrue, yPred, 1)
	require.NoError(t, err)
	assert.Equal(t, sens, rec)

	tnr, err := Specificity(yTrue, yPred, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.9334975369, tnr, 1e-9)

	prec, err := Precision(yTrue, yPred, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.6493506494, prec, 1e-9)

	f1, err := F1Score(yTrue, yPred, 1)
	require.NoError(t, err)
	assert.InDelta(t, 2*prec*rec/(prec+rec), f1, 1e-12)

	_, err = FBetaScore(yTrue, yPred, 1, 0)
	assert.Error(t, err)

	_, err = Sensitivity(nil, yPred, 1)
	assert.Error(t, err)
}
