package metrics

import (
	"github.com/YuminosukeSato/heightsml/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ConfusionMatrix は二値分類の混同行列
// Positive は陽性とみなすラベル（0または1）
type ConfusionMatrix struct {
	TP, FP, TN, FN int
	Positive       float64
}

// NewConfusionMatrix は正解ラベルと予測ラベルから混同行列を作成する
//
// パラメータ:
//   - yTrue: 正解ラベル（0/1）
//   - yPred: 予測ラベル（0/1）
//   - positive: 陽性クラスのラベル（0または1）
//
// 使用例:
//
//	cm, err := metrics.NewConfusionMatrix(yTest, yHat, 0)
//	fmt.Println(cm.Sensitivity(), cm.Specificity())
func NewConfusionMatrix(yTrue, yPred *mat.VecDense, positive float64) (*ConfusionMatrix, error) {
	n, err := validatePair("NewConfusionMatrix", yTrue, yPred)
	if err != nil {
		return nil, err
	}
	if positive != 0 && positive != 1 {
		return nil, errors.NewValidationError("positive", "must be 0 or 1", positive)
	}
	if err := validateBinary("NewConfusionMatrix", yTrue); err != nil {
		return nil, err
	}
	if err := validateBinary("NewConfusionMatrix", yPred); err != nil {
		return nil, err
	}

	cm := &ConfusionMatrix{Positive: positive}
	for i := 0; i < n; i++ {
		cm.Add(yTrue.AtVec(i), yPred.AtVec(i))
	}
	return cm, nil
}

// Add は1サンプル分の結果を加算する
// ラベルが0/1であることは呼び出し側が保証する
func (cm *ConfusionMatrix) Add(truth, pred float64) {
	actualPos := truth == cm.Positive
	predPos := pred == cm.Positive
	switch {
	case actualPos && predPos:
		cm.TP++
	case !actualPos && predPos:
		cm.FP++
	case !actualPos && !predPos:
		cm.TN++
	default:
		cm.FN++
	}
}

// Total はサンプル数を返す
func (cm *ConfusionMatrix) Total() int {
	return cm.TP + cm.FP + cm.TN + cm.FN
}

// Table は表を返す。行が予測、列が正解で、添字はラベル値（0/1）
func (cm *ConfusionMatrix) Table() [2][2]int {
	pos := int(cm.Positive)
	neg := 1 - pos
	var t [2][2]int
	t[pos][pos] = cm.TP
	t[pos][neg] = cm.FP
	t[neg][pos] = cm.FN
	t[neg][neg] = cm.TN
	return t
}

// ratio は分母がゼロのとき定義されない比率を扱う
func ratio(num, den int) (float64, bool) {
	if den == 0 {
		return 0, false
	}
	return float64(num) / float64(den), true
}

// warnRatio は未定義の場合にUndefinedMetricWarningを出して0を返す
func warnRatio(metric, condition string, num, den int) float64 {
	v, ok := ratio(num, den)
	if !ok {
		errors.Warn(errors.NewUndefinedMetricWarning(metric, condition, 0))
	}
	return v
}

// Accuracy は正解率 (TP+TN)/N
func (cm *ConfusionMatrix) Accuracy() float64 {
	return warnRatio("accuracy", "no samples", cm.TP+cm.TN, cm.Total())
}

// Sensitivity は感度（再現率, TPR）TP/(TP+FN)
func (cm *ConfusionMatrix) Sensitivity() float64 {
	return warnRatio("sensitivity", "no true positive samples", cm.TP, cm.TP+cm.FN)
}

// Recall はSensitivityの別名
func (cm *ConfusionMatrix) Recall() float64 { return cm.Sensitivity() }

// TPR はSensitivityの別名
func (cm *ConfusionMatrix) TPR() float64 { return cm.Sensitivity() }

// Specificity は特異度（TNR）TN/(TN+FP)
func (cm *ConfusionMatrix) Specificity() float64 {
	return warnRatio("specificity", "no true negative samples", cm.TN, cm.TN+cm.FP)
}

// TNR はSpecificityの別名
func (cm *ConfusionMatrix) TNR() float64 { return cm.Specificity() }

// FPR は偽陽性率 FP/(FP+TN) = 1 - 特異度
func (cm *ConfusionMatrix) FPR() float64 {
	return warnRatio("fpr", "no true negative samples", cm.FP, cm.TN+cm.FP)
}

// Precision は適合率（PPV）TP/(TP+FP)
func (cm *ConfusionMatrix) Precision() float64 {
	return warnRatio("precision", "no predicted positive samples", cm.TP, cm.TP+cm.FP)
}

// PPV はPrecisionの別名
func (cm *ConfusionMatrix) PPV() float64 { return cm.Precision() }

// NPV は陰性的中率 TN/(TN+FN)
func (cm *ConfusionMatrix) NPV() float64 {
	return warnRatio("npv", "no predicted negative samples", cm.TN, cm.TN+cm.FN)
}

// Prevalence は陽性の有病率 (TP+FN)/N
func (cm *ConfusionMatrix) Prevalence() float64 {
	return warnRatio("prevalence", "no samples", cm.TP+cm.FN, cm.Total())
}

// DetectionRate は TP/N
func (cm *ConfusionMatrix) DetectionRate() float64 {
	return warnRatio("detection_rate", "no samples", cm.TP, cm.Total())
}

// DetectionPrevalence は陽性と予測された割合 (TP+FP)/N
func (cm *ConfusionMatrix) DetectionPrevalence() float64 {
	return warnRatio("detection_prevalence", "no samples", cm.TP+cm.FP, cm.Total())
}

// BalancedAccuracy は感度と特異度の平均
func (cm *ConfusionMatrix) BalancedAccuracy() float64 {
	return (cm.Sensitivity() + cm.Specificity()) / 2
}

// F1 は適合率と再現率の調和平均 2TP/(2TP+FP+FN)
func (cm *ConfusionMatrix) F1() float64 {
	return cm.FBeta(1)
}

// FBeta は再現率をbeta倍重視したF値
// (1+β²)TP / ((1+β²)TP + β²FN + FP)
func (cm *ConfusionMatrix) FBeta(beta float64) float64 {
	b2 := beta * beta
	num := (1 + b2) * float64(cm.TP)
	den := num + b2*float64(cm.FN) + float64(cm.FP)
	if den == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("f_beta", "no positive samples in y_true or y_pred", 0))
		return 0
	}
	return num / den
}

// Kappa はCohenのκ係数
func (cm *ConfusionMatrix) Kappa() float64 {
	n := float64(cm.Total())
	if n == 0 {
		return 0
	}
	po := float64(cm.TP+cm.TN) / n
	pe := (float64(cm.TP+cm.FP)*float64(cm.TP+cm.FN) + float64(cm.FN+cm.TN)*float64(cm.FP+cm.TN)) / (n * n)
	if pe == 1 {
		return 0
	}
	return (po - pe) / (1 - pe)
}

// Sensitivity は関数形式の感度
func Sensitivity(yTrue, yPred *mat.VecDense, positive float64) (float64, error) {
	cm, err := NewConfusionMatrix(yTrue, yPred, positive)
	if err != nil {
		return 0, err
	}
	return cm.Sensitivity(), nil
}

// Recall はSensitivityの別名
func Recall(yTrue, yPred *mat.VecDense, positive float64) (float64, error) {
	return Sensitivity(yTrue, yPred, positive)
}

// Specificity は関数形式の特異度
func Specificity(yTrue, yPred *mat.VecDense, positive float64) (float64, error) {
	cm, err := NewConfusionMatrix(yTrue, yPred, positive)
	if err != nil {
		return 0, err
	}
	return cm.Specificity(), nil
}

// Precision は関数形式の適合率
func Precision(yTrue, yPred *mat.VecDense, positive float64) (float64, error) {
	cm, err := NewConfusionMatrix(yTrue, yPred, positive)
	if err != nil {
		return 0, err
	}
	return cm.Precision(), nil
}

// F1Score は関数形式のF1
func F1Score(yTrue, yPred *mat.VecDense, positive float64) (float64, error) {
	return FBetaScore(yTrue, yPred, positive, 1)
}

// FBetaScore は関数形式のFβ
func FBetaScore(yTrue, yPred *mat.VecDense, positive, beta float64) (float64, error) {
	if beta <= 0 {
		return 0, errors.NewValidationError("beta", "must be positive", beta)
	}
	cm, err := NewConfusionMatrix(yTrue, yPred, positive)
	if err != nil {
		return 0, err
	}
	return cm.FBeta(beta), nil
}
