// Package preprocessing は特徴量の標準化を提供する
package preprocessing

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/heightsml/core/model"
	"github.com/YuminosukeSato/heightsml/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// zeroScaleTolerance 未満の標準偏差は1として扱う
const zeroScaleTolerance = 1e-8

// StandardScaler はscikit-learn互換の標準化スケーラー
// データを平均0、標準偏差1に変換する
type StandardScaler struct {
	model.BaseEstimator

	// Mean は各特徴量の平均値
	Mean []float64

	// Scale は各特徴量の標準偏差（ゼロ分散の列は1）
	Scale []float64

	// NFeatures は特徴量の数
	NFeatures int

	// NSamples は学習に使ったサンプル数
	NSamples int

	// WithMean は平均を引くかどうか (デフォルト: true)
	WithMean bool

	// WithStd は標準偏差で割るかどうか (デフォルト: true)
	WithStd bool

	// DDOF は分散の自由度補正。0は母標準偏差、1は標本標準偏差（Rのsd()と同じ）
	DDOF int
}

// NewStandardScaler は新しいStandardScalerを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	err := scaler.Fit(X)
//	z, err := scaler.Transform(X)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewStandardScalerDefault はデフォルト設定でStandardScalerを作成する
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// column は行列のj列目をコピーして返す
func column(X mat.Matrix, j int) []float64 {
	r, _ := X.Dims()
	out := make([]float64, r)
	for i := range out {
		out[i] = X.At(i, j)
	}
	return out
}

// Fit は訓練データから平均と標準偏差を計算する
func (s *StandardScaler) Fit(X mat.Matrix) error {
	if X == nil {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	if s.DDOF < 0 || s.DDOF >= r {
		return errors.NewValidationError("ddof", fmt.Sprintf("must be in [0, %d)", r), s.DDOF)
	}

	s.NFeatures = c
	s.NSamples = r
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	for j := 0; j < c; j++ {
		x := column(X, j)
		if err := errors.CheckFinite("StandardScaler.Fit", x); err != nil {
			return err
		}
		mean, popVar := stat.PopMeanVariance(x, nil)
		if s.WithMean {
			s.Mean[j] = mean
		}
		s.Scale[j] = 1
		if s.WithStd {
			sd := math.Sqrt(popVar * float64(r) / float64(r-s.DDOF))
			if sd >= zeroScaleTolerance {
				s.Scale[j] = sd
			}
		}
	}

	s.SetFitted()
	return nil
}

func (s *StandardScaler) apply(op string, X mat.Matrix, fn func(v float64, j int) float64) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", op)
	}
	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler."+op, s.NFeatures, c, 1)
	}
	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, _ float64) float64 {
		return fn(X.At(i, j), j)
	}, result)
	return result, nil
}

// Transform は学習済みの統計情報を使ってデータを標準化する
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	return s.apply("Transform", X, func(v float64, j int) float64 {
		return (v - s.Mean[j]) / s.Scale[j]
	})
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform は標準化されたデータを元のスケールに戻す
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	return s.apply("InverseTransform", X, func(v float64, j int) float64 {
		return v*s.Scale[j] + s.Mean[j]
	})
}

// Bound は特徴量jについて平均からk標準偏差離れた値 mean + k*sd を返す
// k が負なら平均より下側になる
func (s *StandardScaler) Bound(j int, k float64) (float64, error) {
	if !s.IsFitted() {
		return 0, errors.NewNotFittedError("StandardScaler", "Bound")
	}
	if j < 0 || j >= s.NFeatures {
		return 0, errors.NewValidationError("feature", "out of range", j)
	}
	z := mat.NewDense(1, s.NFeatures, nil)
	z.Set(0, j, k)
	x, err := s.InverseTransform(z)
	if err != nil {
		return 0, err
	}
	return x.At(0, j), nil
}

// GetParams はスケーラーのパラメータを取得する
func (s *StandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean": s.WithMean,
		"with_std":  s.WithStd,
		"ddof":      s.DDOF,
	}
}

// String はスケーラーの文字列表現を返す
func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, ddof=%d)", s.WithMean, s.WithStd, s.DDOF)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, ddof=%d, n_features=%d)",
		s.WithMean, s.WithStd, s.DDOF, s.NFeatures)
}

var _ model.InverseTransformer = (*StandardScaler)(nil)
