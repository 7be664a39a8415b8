package metrics

import (
	"fmt"
	"math"
	"strings"

	"github.com/YuminosukeSato/heightsml/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"
)

// Report は混同行列に基づく統計量の一覧（caretのconfusionMatrix出力に相当）
type Report struct {
	Matrix ConfusionMatrix

	// ClassNames はラベル0とラベル1の表示名
	ClassNames [2]string

	Accuracy      float64
	AccuracyLower float64 // 95%信頼区間下限（Clopper-Pearson）
	AccuracyUpper float64 // 95%信頼区間上限
	NoInformation float64 // 多数派クラスの割合
	AccPValue     float64 // 片側二項検定 P[Acc > NIR]
	Kappa         float64
	McnemarPValue float64 // 非対角要素が全て0の場合はNaN

	Sensitivity         float64
	Specificity         float64
	PosPredValue        float64
	NegPredValue        float64
	Prevalence          float64
	DetectionRate       float64
	DetectionPrevalence float64
	BalancedAccuracy    float64
}

// NewReport は混同行列から統計量を計算する
// classNames[0]はラベル0、classNames[1]はラベル1の名前
func NewReport(cm *ConfusionMatrix, classNames [2]string) (*Report, error) {
	if cm == nil {
		return nil, errors.NewValueError("NewReport", "nil confusion matrix")
	}
	n := cm.Total()
	if n == 0 {
		return nil, errors.NewModelError("NewReport", "empty confusion matrix", errors.ErrEmptyData)
	}

	correct := cm.TP + cm.TN
	lower, upper := ClopperPearson(correct, n, 0.95)

	nir := math.Max(float64(cm.TP+cm.FN), float64(cm.TN+cm.FP)) / float64(n)

	r := &Report{
		Matrix:        *cm,
		ClassNames:    classNames,
		Accuracy:      float64(correct) / float64(n),
		AccuracyLower: lower,
		AccuracyUpper: upper,
		NoInformation: nir,
		AccPValue:     binomialUpperTail(correct, n, nir),
		Kappa:         cm.Kappa(),
		McnemarPValue: mcnemarPValue(cm.FP, cm.FN),
	}

	r.Sensitivity, _ = ratio(cm.TP, cm.TP+cm.FN)
	r.Specificity, _ = ratio(cm.TN, cm.TN+cm.FP)
	r.PosPredValue, _ = ratio(cm.TP, cm.TP+cm.FP)
	r.NegPredValue, _ = ratio(cm.TN, cm.TN+cm.FN)
	r.Prevalence, _ = ratio(cm.TP+cm.FN, n)
	r.DetectionRate, _ = ratio(cm.TP, n)
	r.DetectionPrevalence, _ = ratio(cm.TP+cm.FP, n)
	r.BalancedAccuracy = (r.Sensitivity + r.Specificity) / 2
	return r, nil
}

// ClopperPearson は成功数xと試行数nに対する正確な二項信頼区間を返す
func ClopperPearson(x, n int, level float64) (lower, upper float64) {
	if n <= 0 {
		return math.NaN(), math.NaN()
	}
	alpha := 1 - level
	if x > 0 {
		lower = distuv.Beta{Alpha: float64(x), Beta: float64(n - x + 1)}.Quantile(alpha / 2)
	}
	upper = 1
	if x < n {
		upper = distuv.Beta{Alpha: float64(x + 1), Beta: float64(n - x)}.Quantile(1 - alpha/2)
	}
	return lower, upper
}

// binomialUpperTail は X~Bin(n, p) に対して P(X >= x) を返す
func binomialUpperTail(x, n int, p float64) float64 {
	if x <= 0 || p >= 1 {
		return 1
	}
	if p <= 0 {
		return 0
	}
	return 1 - distuv.Binomial{N: float64(n), P: p}.CDF(float64(x-1))
}

// mcnemarPValue は連続修正付きMcNemar検定のp値
func mcnemarPValue(b, c int) float64 {
	if b+c == 0 {
		return math.NaN()
	}
	d := math.Abs(float64(b-c)) - 1
	stat := d * d / float64(b+c)
	return distuv.ChiSquared{K: 1}.Survival(stat)
}

// PositiveName は陽性クラスの表示名を返す
func (r *Report) PositiveName() string {
	return r.ClassNames[int(r.Matrix.Positive)]
}

// String はcaretと同様の書式で統計量を整形する
func (r *Report) String() string {
	var b strings.Builder
	t := r.Matrix.Table()

	width := len("Prediction")
	for _, name := range r.ClassNames {
		if len(name) > width {
			width = len(name)
		}
	}
	cell := 6
	for _, name := range r.ClassNames {
		if len(name)+1 > cell {
			cell = len(name) + 1
		}
	}

	b.WriteString("Confusion Matrix and Statistics\n\n")
	fmt.Fprintf(&b, "%*s Reference\n", width, "")
	fmt.Fprintf(&b, "%-*s", width, "Prediction")
	for _, name := range r.ClassNames {
		fmt.Fprintf(&b, "%*s", cell, name)
	}
	b.WriteString("\n")
	for pred := 0; pred < 2; pred++ {
		fmt.Fprintf(&b, "%*s", width, r.ClassNames[pred])
		for ref := 0; ref < 2; ref++ {
			fmt.Fprintf(&b, "%*d", cell, t[pred][ref])
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	line := func(label, value string) {
		fmt.Fprintf(&b, "%23s : %s\n", label, value)
	}
	line("Accuracy", formatStat(r.Accuracy))
	line("95% CI", fmt.Sprintf("(%s, %s)", formatStat(r.AccuracyLower), formatStat(r.AccuracyUpper)))
	line("No Information Rate", formatStat(r.NoInformation))
	line("P-Value [Acc > NIR]", formatPValue(r.AccPValue))
	b.WriteString("\n")
	line("Kappa", formatStat(r.Kappa))
	b.WriteString("\n")
	line("Mcnemar's Test P-Value", formatPValue(r.McnemarPValue))
	b.WriteString("\n")
	line("Sensitivity", formatStat(r.Sensitivity))
	line("Specificity", formatStat(r.Specificity))
	line("Pos Pred Value", formatStat(r.PosPredValue))
	line("Neg Pred Value", formatStat(r.NegPredValue))
	line("Prevalence", formatStat(r.Prevalence))
	line("Detection Rate", formatStat(r.DetectionRate))
	line("Detection Prevalence", formatStat(r.DetectionPrevalence))
	line("Balanced Accuracy", formatStat(r.BalancedAccuracy))
	b.WriteString("\n")
	line("'Positive' Class", r.PositiveName())
	return b.String()
}

func formatStat(v float64) string {
	if math.IsNaN(v) {
		return "NA"
	}
	return fmt.Sprintf("%.4f", v)
}

func formatPValue(p float64) string {
	switch {
	case math.IsNaN(p):
		return "NA"
	case p < 2.2e-16:
		return "< 2.2e-16"
	case p < 1e-4:
		return fmt.Sprintf("%.3e", p)
	default:
		return fmt.Sprintf("%.4f", p)
	}
}
