package model_selection

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkPartition(t *testing.T, n int, folds []Fold) {
	t.Helper()
	seenTest := make([]int, n)
	for _, f := range folds {
		assert.True(t, sort.IntsAreSorted(f.TrainIndices))
		assert.True(t, sort.IntsAreSorted(f.TestIndices))
		assert.Equal(t, n, len(f.TrainIndices)+len(f.TestIndices))
		for _, i := range f.TestIndices {
			seenTest[i]++
		}
	}
	for i, c := range seenTest {
		assert.Equal(t, 1, c, "sample %d should be tested exactly once", i)
	}
}

func TestKFold(t *testing.T) {
	tests := []struct {
		name    string
		splits  int
		shuffle bool
		n       int
		sizes   []int
	}{
		{"even", 5, false, 10, []int{2, 2, 2, 2, 2}},
		{"remainder", 3, false, 10, []int{4, 3, 3}},
		{"shuffled", 4, true, 9, []int{3, 2, 2, 2}},
		{"default splits", 1, false, 5, []int{1, 1, 1, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kf := NewKFold(tt.splits, tt.shuffle, 7)
			folds := kf.Split(tt.n, nil)
			require.Len(t, folds, kf.NSplits())
			for i, f := range folds {
				assert.Len(t, f.TestIndices, tt.sizes[i])
			}
			checkPartition(t, tt.n, folds)
		})
	}

	folds := NewKFold(2, false, 0).Split(4, nil)
	assert.Equal(t, []int{0, 1}, folds[0].TestIndices)
	assert.Equal(t, []int{2, 3}, folds[0].TrainIndices)
}

func TestStratifiedKFold(t *testing.T) {
	y := labels(6, 12)

	skf := NewStratifiedKFold(3, true, 11)
	folds := skf.Split(y.Len(), y)
	require.Len(t, folds, 3)
	checkPartition(t, y.Len(), folds)

	for _, f := range folds {
		zeros := 0
		for _, i := range f.TestIndices {
			if y.AtVec(i) == 0 {
				zeros++
			}
		}
		assert.Equal(t, 2, zeros)
		assert.Len(t, f.TestIndices, 6)
	}

	again := NewStratifiedKFold(3, true, 11).Split(y.Len(), y)
	assert.Equal(t, folds, again)
}
