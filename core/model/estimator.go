package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	// X は n×1 の身長行列、y は n×1 のラベル列
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測ラベル（n×1）を返す
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Estimator は学習と学習状態の確認ができるモデル
type Estimator interface {
	Fitter
	IsFitted() bool
}
