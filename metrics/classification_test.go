package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// vecOrNil returns nil for an empty slice so that the empty-input path
// is exercised.
func vecOrNil(v []float64) *mat.VecDense {
	if len(v) == 0 {
		return nil
	}
	return mat.NewVecDense(len(v), v)
}

// 身長を得点とみなした小さな例（女性=0, 男性=1）
var (
	toyHeights = []float64{60, 62, 63, 65, 64, 66, 68, 70}
	toyLabels  = []float64{0, 0, 0, 0, 1, 1, 1, 1}
)

func TestAUC(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yScore  []float64
		want    float64
		wantErr bool
	}{
		{name: "heights as scores", yTrue: toyLabels, yScore: toyHeights, want: 15.0 / 16},
		{name: "separated", yTrue: []float64{0, 0, 1, 1}, yScore: []float64{61, 63, 67, 69}, want: 1},
		{name: "reversed", yTrue: []float64{0, 0, 1, 1}, yScore: []float64{69, 67, 63, 61}, want: 0},
		{name: "all tied", yTrue: []float64{0, 1, 0, 1}, yScore: []float64{65, 65, 65, 65}, want: 0.5},
		{name: "one tie across classes", yTrue: []float64{0, 0, 1, 1}, yScore: []float64{62, 66, 66, 70}, want: 0.875},
		{name: "only males", yTrue: []float64{1, 1, 1}, yScore: []float64{66, 68, 70}, want: 0.5},
		{name: "only females", yTrue: []float64{0, 0, 0}, yScore: []float64{60, 62, 64}, want: 0.5},
		{name: "non-binary labels", yTrue: []float64{0, 2, 1}, yScore: []float64{60, 65, 70}, wantErr: true},
		{name: "length mismatch", yTrue: []float64{0, 1}, yScore: []float64{60}, wantErr: true},
		{name: "empty", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AUC(vecOrNil(tt.yTrue), vecOrNil(tt.yScore))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestAUCMatrix(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   mat.Matrix
		yScore  mat.Matrix
		want    float64
		wantErr bool
	}{
		{
			name:   "column matrices",
			yTrue:  mat.NewDense(8, 1, toyLabels),
			yScore: mat.NewDense(8, 1, toyHeights),
			want:   15.0 / 16,
		},
		{
			name:   "first column is used",
			yTrue:  mat.NewDense(4, 2, []float64{0, 9, 0, 9, 1, 9, 1, 9}),
			yScore: mat.NewDense(4, 2, []float64{61, 0, 64, 0, 63, 0, 68, 0}),
			want:   0.75,
		},
		{name: "nil", yScore: mat.NewDense(1, 1, []float64{65}), wantErr: true},
		{name: "empty", yTrue: &mat.Dense{}, yScore: &mat.Dense{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AUCMatrix(tt.yTrue, tt.yScore)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestBinaryLogLoss(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yProba  []float64
		want    float64
		delta   float64
		wantErr bool
	}{
		// 0と1はクリップされるので損失はほぼ0
		{name: "certain and right", yTrue: []float64{0, 0, 1, 1}, yProba: []float64{0, 0, 1, 1}, want: 0, delta: 1e-6},
		{name: "confident and right", yTrue: []float64{0, 0, 1, 1}, yProba: []float64{0.1, 0.2, 0.8, 0.9}, want: 0.164252, delta: 1e-6},
		{name: "confident and wrong", yTrue: []float64{0, 0, 1, 1}, yProba: []float64{0.9, 0.9, 0.1, 0.1}, want: 2.302585, delta: 1e-6},
		{name: "non-binary labels", yTrue: []float64{0, 0.5, 1}, yProba: []float64{0.1, 0.5, 0.9}, wantErr: true},
		{name: "empty", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BinaryLogLoss(vecOrNil(tt.yTrue), vecOrNil(tt.yProba))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, tt.delta)
		})
	}
}

func TestAccuracyAndError(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yPred   []float64
		want    float64
		wantErr bool
	}{
		{name: "all right", yTrue: []float64{0, 1, 1, 0, 1}, yPred: []float64{0, 1, 1, 0, 1}, want: 1},
		{name: "one wrong", yTrue: []float64{0, 1, 1, 0, 1}, yPred: []float64{0, 1, 0, 0, 1}, want: 0.8},
		{name: "all wrong", yTrue: []float64{0, 0, 0}, yPred: []float64{1, 1, 1}, want: 0},
		// 閾値64の規則: 65の女性と64の男性を誤分類
		{name: "cutoff 64 on toy heights", yTrue: toyLabels, yPred: []float64{0, 0, 0, 1, 0, 1, 1, 1}, want: 0.75},
		{name: "length mismatch", yTrue: []float64{0, 1}, yPred: []float64{0}, wantErr: true},
		{name: "empty", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yTrue, yPred := vecOrNil(tt.yTrue), vecOrNil(tt.yPred)

			acc, err := Accuracy(yTrue, yPred)
			if tt.wantErr {
				assert.Error(t, err)
				_, err = ClassificationError(yTrue, yPred)
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, acc, 1e-12)

			ce, err := ClassificationError(yTrue, yPred)
			require.NoError(t, err)
			assert.InDelta(t, 1-tt.want, ce, 1e-12)
		})
	}
}

func TestByClassAccuracy(t *testing.T) {
	// 閾値62: 女性は60と62のみ正解、男性は全員正解
	yPred := mat.NewVecDense(8, []float64{0, 0, 1, 1, 1, 1, 1, 1})
	got, err := ByClassAccuracy(mat.NewVecDense(8, toyLabels), yPred)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.InDelta(t, 0.5, got[0], 1e-12)
	assert.Equal(t, 1.0, got[1])

	// 陽性=男性のとき、クラス1の値は感度、クラス0の値は特異度
	cm, err := NewConfusionMatrix(mat.NewVecDense(8, toyLabels), yPred, 1)
	require.NoError(t, err)
	assert.InDelta(t, cm.Sensitivity(), got[1], 1e-12)
	assert.InDelta(t, cm.Specificity(), got[0], 1e-12)

	_, err = ByClassAccuracy(mat.NewVecDense(8, toyLabels), mat.NewVecDense(1, []float64{0}))
	assert.Error(t, err)
}

func BenchmarkAUC(b *testing.B) {
	n := 1000
	yTrue := make([]float64, n)
	yScore := make([]float64, n)
	for i := range yTrue {
		if i%4 == 0 {
			yTrue[i] = 0
			yScore[i] = 60 + float64(i%9)
		} else {
			yTrue[i] = 1
			yScore[i] = 64 + float64(i%9)
		}
	}
	yt, ys := mat.NewVecDense(n, yTrue), mat.NewVecDense(n, yScore)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = AUC(yt, ys)
	}
}

func BenchmarkConfusionMatrix(b *testing.B) {
	n := 1000
	yTrue := make([]float64, n)
	yPred := make([]float64, n)
	for i := range yTrue {
		yTrue[i] = float64(i % 2)
		yPred[i] = float64((i / 3) % 2)
	}
	yt, yp := mat.NewVecDense(n, yTrue), mat.NewVecDense(n, yPred)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = NewConfusionMatrix(yt, yp, 0)
	}
}
