package model

import (
	"encoding/json"

	"github.com/YuminosukeSato/heightsml/pkg/errors"
)

// WeightsVersion は現在のModelWeights形式のバージョン
const WeightsVersion = "1"

// ModelWeights は閾値モデルの学習結果を表す構造体（シリアライゼーション用）
type ModelWeights struct {
	// ModelType はモデルの種類（CutoffClassifier, GuessClassifier等）
	ModelType string `json:"model_type"`

	// Version は形式のバージョン（互換性チェック用）
	Version string `json:"version"`

	// Threshold は決定閾値（身長のカットオフ、または推測確率）
	Threshold float64 `json:"threshold"`

	// AboveLabel は閾値を超えた場合に予測するラベル
	AboveLabel int `json:"above_label"`

	// BelowLabel は閾値以下の場合に予測するラベル
	BelowLabel int `json:"below_label"`

	// PositiveLabel は評価時に陽性とみなすラベル
	PositiveLabel int `json:"positive_label"`

	// Hyperparameters はモデルのハイパーパラメータ
	Hyperparameters map[string]interface{} `json:"hyperparameters"`

	// Metadata は追加のメタデータ（学習時の指標値等）
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// IsFitted はモデルが学習済みかどうか
	IsFitted bool `json:"is_fitted"`
}

// ToJSON はModelWeightsをJSON形式にシリアライズ
func (mw *ModelWeights) ToJSON() ([]byte, error) {
	return json.MarshalIndent(mw, "", "  ")
}

// FromJSON はJSON形式からModelWeightsをデシリアライズ
func (mw *ModelWeights) FromJSON(data []byte) error {
	if err := json.Unmarshal(data, mw); err != nil {
		return errors.Wrap(err, "decode model weights")
	}
	return nil
}

// Validate はModelWeightsの妥当性を検証
func (mw *ModelWeights) Validate() error {
	if mw.ModelType == "" {
		return errors.NewValidationError("model_type", "is required", mw.ModelType)
	}
	if mw.Version == "" {
		return errors.NewValidationError("version", "is required", mw.Version)
	}
	if mw.Version != WeightsVersion {
		return errors.NewValidationError("version", "unsupported version", mw.Version)
	}
	for name, label := range map[string]int{
		"above_label":    mw.AboveLabel,
		"below_label":    mw.BelowLabel,
		"positive_label": mw.PositiveLabel,
	} {
		if label != 0 && label != 1 {
			return errors.NewValidationError(name, "must be 0 or 1", label)
		}
	}
	return nil
}

// Clone はModelWeightsのディープコピーを作成
func (mw *ModelWeights) Clone() *ModelWeights {
	clone := *mw
	clone.Hyperparameters = make(map[string]interface{}, len(mw.Hyperparameters))
	clone.Metadata = make(map[string]interface{}, len(mw.Metadata))
	for k, v := range mw.Hyperparameters {
		clone.Hyperparameters[k] = v
	}
	for k, v := range mw.Metadata {
		clone.Metadata[k] = v
	}
	return &clone
}
