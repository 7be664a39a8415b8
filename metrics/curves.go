package metrics

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/heightsml/pkg/errors"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/mat"
)

// binaryCounts は閾値を降順に下げたときの累積TP/FPを返す
// distinct にはスコアの異なり値（降順）が入る
func binaryCounts(op string, yTrue, yScore *mat.VecDense, positive float64) (tps, fps []int, distinct []float64, nPos, nNeg int, err error) {
	n, err := validatePair(op, yTrue, yScore)
	if err != nil {
		return nil, nil, nil, 0, 0, err
	}
	if positive != 0 && positive != 1 {
		return nil, nil, nil, 0, 0, errors.NewValidationError("positive", "must be 0 or 1", positive)
	}
	if err := validateBinary(op, yTrue); err != nil {
		return nil, nil, nil, 0, 0, err
	}
	scores := make([]float64, n)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
		scores[i] = yScore.AtVec(i)
	}
	if err := errors.CheckFinite(op, scores); err != nil {
		return nil, nil, nil, 0, 0, err
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})

	tp, fp := 0, 0
	for k, i := range idx {
		if yTrue.AtVec(i) == positive {
			tp++
		} else {
			fp++
		}
		// 同じスコアが続く間は点を打たない
		if k+1 < n && scores[idx[k+1]] == scores[i] {
			continue
		}
		tps = append(tps, tp)
		fps = append(fps, fp)
		distinct = append(distinct, scores[i])
	}
	return tps, fps, distinct, tp, fp, nil
}

// ROCCurve はROC曲線（FPR, TPR, 閾値）を計算する
// スコアは大きいほど陽性らしいものとし、閾値 t では score >= t を陽性と予測する
// 先頭には閾値+Infの点(0, 0)が入る
func ROCCurve(yTrue, yScore *mat.VecDense, positive float64) (fpr, tpr, thresholds []float64, err error) {
	tps, fps, distinct, nPos, nNeg, err := binaryCounts("ROCCurve", yTrue, yScore, positive)
	if err != nil {
		return nil, nil, nil, err
	}
	if nPos == 0 || nNeg == 0 {
		return nil, nil, nil, errors.NewValueError("ROCCurve", "both classes must be present in y_true")
	}

	fpr = append(make([]float64, 0, len(tps)+1), 0)
	tpr = append(make([]float64, 0, len(tps)+1), 0)
	thresholds = append(make([]float64, 0, len(tps)+1), math.Inf(1))
	for i := range tps {
		fpr = append(fpr, float64(fps[i])/float64(nNeg))
		tpr = append(tpr, float64(tps[i])/float64(nPos))
		thresholds = append(thresholds, distinct[i])
	}
	return fpr, tpr, thresholds, nil
}

// PrecisionRecallCurve は適合率-再現率曲線を計算する
// 閾値は降順で、再現率は単調非減少になる
func PrecisionRecallCurve(yTrue, yScore *mat.VecDense, positive float64) (precision, recall, thresholds []float64, err error) {
	tps, fps, distinct, nPos, _, err := binaryCounts("PrecisionRecallCurve", yTrue, yScore, positive)
	if err != nil {
		return nil, nil, nil, err
	}
	if nPos == 0 {
		return nil, nil, nil, errors.NewValueError("PrecisionRecallCurve", "no positive samples in y_true")
	}

	for i := range tps {
		// 累積なので tps+fps > 0 は常に成り立つ
		precision = append(precision, float64(tps[i])/float64(tps[i]+fps[i]))
		recall = append(recall, float64(tps[i])/float64(nPos))
		thresholds = append(thresholds, distinct[i])
	}
	return precision, recall, thresholds, nil
}

// AveragePrecision は Σ(R_n - R_{n-1}) P_n で平均適合率を計算する
func AveragePrecision(yTrue, yScore *mat.VecDense, positive float64) (float64, error) {
	precision, recall, _, err := PrecisionRecallCurve(yTrue, yScore, positive)
	if err != nil {
		return 0, err
	}
	var ap, prev float64
	for i := range precision {
		ap += (recall[i] - prev) * precision[i]
		prev = recall[i]
	}
	return ap, nil
}

// AUCFromCurve は台形則で曲線下面積を求める
// x は単調（増加または減少）である必要がある
func AUCFromCurve(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, errors.NewDimensionError("AUCFromCurve", len(x), len(y), 0)
	}
	if len(x) < 2 {
		return 0, errors.NewValueError("AUCFromCurve", "at least 2 points are required")
	}

	xs := append([]float64(nil), x...)
	ys := append([]float64(nil), y...)
	if !sort.Float64sAreSorted(xs) {
		for i, j := 0, len(xs)-1; i < j; i, j = i+1, j-1 {
			xs[i], xs[j] = xs[j], xs[i]
			ys[i], ys[j] = ys[j], ys[i]
		}
		if !sort.Float64sAreSorted(xs) {
			return 0, errors.NewValueError("AUCFromCurve", "x is neither increasing nor decreasing")
		}
	}
	return integrate.Trapezoidal(xs, ys), nil
}
