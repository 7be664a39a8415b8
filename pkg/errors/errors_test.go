package errors

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name     string
		op       string
		kind     string
		err      error
		wantMsg  string
		hasStack bool
	}{
		{
			name:     "with original error",
			op:       "Fit",
			kind:     "invalid input",
			err:      fmt.Errorf("test error"),
			wantMsg:  "heightsml: Fit: invalid input: test error",
			hasStack: true,
		},
		{
			name:     "without original error",
			op:       "Predict",
			kind:     "not fitted",
			err:      nil,
			wantMsg:  "heightsml: Predict: not fitted",
			hasStack: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			if tt.hasStack {
				formatted := fmt.Sprintf("%+v", err)
				if !strings.Contains(formatted, "errors_test.go") {
					t.Error("Expected stack trace to contain test file name")
				}
			}

			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Predict", 10, 8, 0)

	want := "heightsml: Predict: dimension mismatch on axis 0 (rows). Expected 10, got 8"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Fatal("Error should be castable to *DimensionError")
	}
	assert.Equal(t, 8, dimErr.Got)

	featureErr := NewDimensionError("Transform", 1, 3, 1)
	assert.Contains(t, featureErr.Error(), "(features)")
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("CutoffClassifier", "Predict")

	want := "heightsml: CutoffClassifier: this model is not fitted yet. Call Fit() before using Predict()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var notFittedErr *NotFittedError
	if !As(err, &notFittedErr) {
		t.Error("Error should be castable to *NotFittedError")
	}
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("test_fraction", "must be in (0, 1)", 1.5)

	assert.Equal(t, "heightsml: validation failed for parameter 'test_fraction': must be in (0, 1) (got: 1.5)", err.Error())

	var valErr *ValidationError
	require.True(t, As(err, &valErr))
	assert.Equal(t, "test_fraction", valErr.ParamName)
}

func TestNewValueError(t *testing.T) {
	err := NewValueError("AUC", "labels must be 0 or 1")
	assert.Equal(t, "heightsml: AUC: labels must be 0 or 1", err.Error())

	var valErr *ValueError
	assert.True(t, As(err, &valErr))
}

func TestUndefinedMetricWarning(t *testing.T) {
	w := NewUndefinedMetricWarning("precision", "no predicted samples", 0)
	assert.Equal(t, "'precision' is ill-defined and being set to 0.000000 due to no predicted samples.", w.Error())

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	logger.Warn().EmbedObject(w).Msg("warn")
	assert.Contains(t, buf.String(), `"metric":"precision"`)
	assert.Contains(t, buf.String(), `"type":"UndefinedMetricWarning"`)
}

func TestWarnRouting(t *testing.T) {
	var got []error
	SetWarningHandler(func(w error) { got = append(got, w) })
	defer SetWarningHandler(func(error) {})

	previous := zerologWarnFunc
	SetZerologWarnFunc(nil)
	defer SetZerologWarnFunc(previous)

	Warn(NewUndefinedMetricWarning("recall", "no true samples", 0))
	require.Len(t, got, 1)

	var routed []error
	SetZerologWarnFunc(func(w error) { routed = append(routed, w) })
	Warn(NewUndefinedMetricWarning("f1", "precision and recall are zero", 0))
	assert.Len(t, routed, 1)
	assert.Len(t, got, 1, "zerolog hook takes precedence over the handler")
}

func TestWrapAndIs(t *testing.T) {
	wrapped := Wrap(ErrNotBinary, "in AUC")

	if !Is(wrapped, ErrNotBinary) {
		t.Error("Expected Is(wrapped, ErrNotBinary) to be true")
	}

	if !strings.Contains(wrapped.Error(), "in AUC") {
		t.Error("Expected wrapped error to contain wrapping message")
	}
}

func TestWrapf(t *testing.T) {
	wrapped := Wrapf(ErrEmptyData, "in %s: expected %d, got %d", "Predict", 10, 5)

	if !Is(wrapped, ErrEmptyData) {
		t.Error("Expected Is(wrapped, ErrEmptyData) to be true")
	}

	expectedMsg := "in Predict: expected 10, got 5"
	if !strings.Contains(wrapped.Error(), expectedMsg) {
		t.Errorf("Expected wrapped error to contain %q", expectedMsg)
	}
}

func TestErrorChaining(t *testing.T) {
	err1 := fmt.Errorf("base error")
	err2 := Wrap(err1, "wrapped once")
	err3 := NewModelError("Operation", "failed", err2)

	if !strings.Contains(err3.Error(), "base error") {
		t.Error("Expected error chain to contain base error")
	}

	formatted := fmt.Sprintf("%+v", err3)
	if !strings.Contains(formatted, "errors_test.go") {
		t.Error("Expected detailed error to contain stack trace")
	}
}

func TestStacktrace(t *testing.T) {
	assert.Empty(t, Stacktrace(nil))
	assert.Empty(t, Stacktrace(fmt.Errorf("plain")))
	assert.NotEmpty(t, Stacktrace(NewValueError("op", "msg")))
}

func TestNumericalHelpers(t *testing.T) {
	assert.Equal(t, 0.0, SafeDivide(1, 0))
	assert.Equal(t, 0.5, SafeDivide(1, 2))
	assert.Equal(t, 1.0, ClipValue(3, 0, 1))
	assert.Equal(t, 0.0, ClipValue(-3, 0, 1))
	assert.Equal(t, 0.25, ClipValue(0.25, 0, 1))

	assert.NoError(t, CheckScalar("op", 1.5))
	assert.Error(t, CheckFinite("op", []float64{1, 2, nan()}))
	assert.NoError(t, CheckFinite("op", []float64{1, 2, 3}))
}

func nan() float64 {
	var zero float64
	return zero / zero
}
