// Package metrics は二値分類の評価指標を提供する
// ラベルは0/1のfloat64で表し、scikit-learnと同じ意味論に従う
package metrics

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/heightsml/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// logLossEpsilon はlog(0)を避けるためのクリッピング幅
const logLossEpsilon = 1e-15

// validatePair は正解ベクトルと予測ベクトルの長さを検証する
func validatePair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError(op, "empty vector")
	}
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// validateBinary はベクトルの値が全て0または1であることを検証する
func validateBinary(op string, y *mat.VecDense) error {
	for i := 0; i < y.Len(); i++ {
		v := y.AtVec(i)
		if v != 0 && v != 1 {
			return errors.Wrapf(errors.ErrNotBinary, "%s: got %v at index %d", op, v, i)
		}
	}
	return nil
}

// columnVector は行列の先頭列をVecDenseとして取り出す
func columnVector(op string, m mat.Matrix) (*mat.VecDense, error) {
	if m == nil {
		return nil, errors.NewValueError(op, "nil matrix")
	}
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewValueError(op, "empty matrix")
	}
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v, nil
}

// Accuracy は正解率（予測が正解と一致した割合）を計算する
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := validatePair("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ClassificationError は誤分類率（1 - 正解率）を計算する
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, errors.Wrap(err, "ClassificationError")
	}
	return 1 - acc, nil
}

// ByClassAccuracy は正解クラスごとの正解率を返す
// 二値分類ではクラス1の値が感度、クラス0の値が特異度（陽性=1の場合）に一致する
func ByClassAccuracy(yTrue, yPred *mat.VecDense) (map[float64]float64, error) {
	n, err := validatePair("ByClassAccuracy", yTrue, yPred)
	if err != nil {
		return nil, err
	}

	total := make(map[float64]int)
	correct := make(map[float64]int)
	for i := 0; i < n; i++ {
		label := yTrue.AtVec(i)
		total[label]++
		if yPred.AtVec(i) == label {
			correct[label]++
		}
	}

	out := make(map[float64]float64, len(total))
	for label, cnt := range total {
		out[label] = float64(correct[label]) / float64(cnt)
	}
	return out, nil
}

// AUC はROC曲線下面積をMann-Whitney統計量として計算する
// 同点のスコアは0.5として数える。片方のクラスしか存在しない場合は0.5を返す
func AUC(yTrue, yScore *mat.VecDense) (float64, error) {
	n, err := validatePair("AUC", yTrue, yScore)
	if err != nil {
		return 0, err
	}
	if err := validateBinary("AUC", yTrue); err != nil {
		return 0, err
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return yScore.AtVec(idx[a]) < yScore.AtVec(idx[b])
	})

	// 同点を平均順位で扱う
	var rankSumPos float64
	nPos := 0
	for i := 0; i < n; {
		j := i
		for j+1 < n && yScore.AtVec(idx[j+1]) == yScore.AtVec(idx[i]) {
			j++
		}
		avgRank := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			if yTrue.AtVec(idx[k]) == 1 {
				rankSumPos += avgRank
				nPos++
			}
		}
		i = j + 1
	}

	nNeg := n - nPos
	if nPos == 0 || nNeg == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("AUC", "only one class present in y_true", 0.5))
		return 0.5, nil
	}

	u := rankSumPos - float64(nPos*(nPos+1))/2
	return u / float64(nPos*nNeg), nil
}

// AUCMatrix は行列形式の入力に対してAUCを計算する（先頭列を使用）
func AUCMatrix(yTrue, yScore mat.Matrix) (float64, error) {
	t, err := columnVector("AUCMatrix", yTrue)
	if err != nil {
		return 0, err
	}
	s, err := columnVector("AUCMatrix", yScore)
	if err != nil {
		return 0, err
	}
	return AUC(t, s)
}

// BinaryLogLoss は二値クロスエントロピーを計算する
// 予測確率は [eps, 1-eps] にクリップされる
func BinaryLogLoss(yTrue, yProba *mat.VecDense) (float64, error) {
	n, err := validatePair("BinaryLogLoss", yTrue, yProba)
	if err != nil {
		return 0, err
	}
	if err := validateBinary("BinaryLogLoss", yTrue); err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		p := errors.ClipValue(yProba.AtVec(i), logLossEpsilon, 1-logLossEpsilon)
		if yTrue.AtVec(i) == 1 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(n), nil
}
