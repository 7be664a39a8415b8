package model_selection

import (
	"gonum.org/v1/gonum/mat"
)

// Splitter yields cross-validation folds.
type Splitter interface {
	Split(n int, y mat.Vector) []Fold
	NSplits() int
}

// Fold is one train/test assignment. Both index lists are ascending.
type Fold struct {
	TrainIndices []int
	TestIndices  []int
}

// KFold assigns consecutive (optionally shuffled) blocks to its folds.
type KFold struct {
	Splits  int
	Shuffle bool
	Seed    uint64
}

// NewKFold creates a k-fold splitter. Fewer than 2 splits defaults to 5.
func NewKFold(nSplits int, shuffle bool, seed uint64) *KFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &KFold{Splits: nSplits, Shuffle: shuffle, Seed: seed}
}

// NSplits returns the number of folds.
func (kf *KFold) NSplits() int {
	return kf.Splits
}

// Split ignores y.
func (kf *KFold) Split(n int, _ mat.Vector) []Fold {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	if kf.Shuffle {
		r := newRand(kf.Seed)
		r.Shuffle(n, func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	assignment := make([]int, n)
	foldSize, remainder := n/kf.Splits, n%kf.Splits
	current := 0
	for f := 0; f < kf.Splits; f++ {
		size := foldSize
		if f < remainder {
			size++
		}
		for _, idx := range indices[current : current+size] {
			assignment[idx] = f
		}
		current += size
	}
	return foldsFromAssignment(assignment, kf.Splits)
}

// StratifiedKFold keeps the class proportions of y in every fold.
type StratifiedKFold struct {
	Splits  int
	Shuffle bool
	Seed    uint64
}

// NewStratifiedKFold creates a stratified k-fold splitter.
func NewStratifiedKFold(nSplits int, shuffle bool, seed uint64) *StratifiedKFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &StratifiedKFold{Splits: nSplits, Shuffle: shuffle, Seed: seed}
}

// NSplits returns the number of folds.
func (skf *StratifiedKFold) NSplits() int {
	return skf.Splits
}

// Split distributes each class round-robin over the folds.
func (skf *StratifiedKFold) Split(n int, y mat.Vector) []Fold {
	labels, groups := groupByClass(y)
	r := newRand(skf.Seed)

	assignment := make([]int, n)
	offset := 0
	for _, label := range labels {
		members := groups[label]
		if skf.Shuffle {
			r.Shuffle(len(members), func(i, j int) {
				members[i], members[j] = members[j], members[i]
			})
		}
		// continue from where the previous class stopped so fold sizes stay balanced
		for k, idx := range members {
			assignment[idx] = (offset + k) % skf.Splits
		}
		offset += len(members)
	}
	return foldsFromAssignment(assignment, skf.Splits)
}

func foldsFromAssignment(assignment []int, k int) []Fold {
	folds := make([]Fold, k)
	for idx, f := range assignment {
		for j := range folds {
			if j == f {
				folds[j].TestIndices = append(folds[j].TestIndices, idx)
			} else {
				folds[j].TrainIndices = append(folds[j].TrainIndices, idx)
			}
		}
	}
	return folds
}
