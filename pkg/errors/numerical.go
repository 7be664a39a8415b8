package errors

import (
	"fmt"
	"math"
)

// CheckScalar は単一の値がNaNまたはInfでないかを検査します。
func CheckScalar(operation string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return NewValueError(operation, fmt.Sprintf("non-finite value %v", value))
	}
	return nil
}

// CheckFinite はスライス内の全ての値が有限であるかを検査します。
// 最初に見つかった非有限値の位置をエラーに含めます。
func CheckFinite(operation string, values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewValueError(operation, fmt.Sprintf("non-finite value %v at index %d", v, i))
		}
	}
	return nil
}

// SafeDivide はゼロ除算を避けて割り算を行います。
// 分母がゼロに近い場合は0を返します。
func SafeDivide(numerator, denominator float64) float64 {
	if math.Abs(denominator) < 1e-10 {
		return 0
	}
	return numerator / denominator
}

// ClipValue は値を [min, max] に収めます。
func ClipValue(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
