// Package model_selection splits datasets into training and test partitions.
package model_selection

import (
	"math"
	"math/rand/v2"
	"slices"

	"github.com/YuminosukeSato/heightsml/datasets"
	"github.com/YuminosukeSato/heightsml/pkg/errors"
	"github.com/YuminosukeSato/heightsml/pkg/log"
	"gonum.org/v1/gonum/mat"
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func validateFraction(p float64) error {
	if math.IsNaN(p) || p <= 0 || p >= 1 {
		return errors.NewValidationError("p", "must be in (0, 1)", p)
	}
	return nil
}

// groupByClass returns sample indices per label, labels in ascending order.
func groupByClass(y mat.Vector) ([]float64, map[float64][]int) {
	groups := make(map[float64][]int)
	for i := 0; i < y.Len(); i++ {
		label := y.AtVec(i)
		groups[label] = append(groups[label], i)
	}
	labels := make([]float64, 0, len(groups))
	for label := range groups {
		labels = append(labels, label)
	}
	slices.Sort(labels)
	return labels, groups
}

// CreateDataPartition draws a stratified random sample of indices. From
// each class with n_k members, ceil(p*n_k) indices are sampled without
// replacement. The result is sorted ascending.
func CreateDataPartition(y mat.Vector, p float64, seed uint64) ([]int, error) {
	if y == nil || y.Len() == 0 {
		return nil, errors.NewModelError("CreateDataPartition", "empty labels", errors.ErrEmptyData)
	}
	if err := validateFraction(p); err != nil {
		return nil, err
	}

	r := newRand(seed)
	labels, groups := groupByClass(y)
	var out []int
	for _, label := range labels {
		members := groups[label]
		size := int(math.Ceil(p * float64(len(members))))
		perm := r.Perm(len(members))
		for _, k := range perm[:size] {
			out = append(out, members[k])
		}
	}
	slices.Sort(out)
	return out, nil
}

// Complement returns the indices in [0, n) that are not in idx.
func Complement(n int, idx []int) []int {
	taken := make([]bool, n)
	for _, i := range idx {
		if i >= 0 && i < n {
			taken[i] = true
		}
	}
	out := make([]int, 0, n-len(idx))
	for i := 0; i < n; i++ {
		if !taken[i] {
			out = append(out, i)
		}
	}
	return out
}

// TrainTestSplit shuffles [0, n) and returns sorted train and test indices.
// The test partition holds ceil(testFraction*n) samples.
func TrainTestSplit(n int, testFraction float64, seed uint64) (train, test []int, err error) {
	if n < 2 {
		return nil, nil, errors.NewValidationError("n", "at least 2 samples are required", n)
	}
	if err := validateFraction(testFraction); err != nil {
		return nil, nil, err
	}
	nTest := int(math.Ceil(testFraction * float64(n)))
	if nTest >= n {
		nTest = n - 1
	}
	perm := newRand(seed).Perm(n)
	test = append([]int(nil), perm[:nTest]...)
	train = append([]int(nil), perm[nTest:]...)
	slices.Sort(test)
	slices.Sort(train)
	return train, test, nil
}

// SplitHeights partitions h the way the analysis does: a stratified
// sample of size testFraction becomes the test set, the rest trains.
func SplitHeights(h *datasets.Heights, testFraction float64, seed uint64) (train, test *datasets.Heights, err error) {
	if h == nil || h.Len() == 0 {
		return nil, nil, errors.NewModelError("SplitHeights", "empty dataset", errors.ErrEmptyData)
	}
	testIdx, err := CreateDataPartition(h.Y(), testFraction, seed)
	if err != nil {
		return nil, nil, err
	}
	trainIdx := Complement(h.Len(), testIdx)
	if len(trainIdx) == 0 {
		return nil, nil, errors.NewValueError("SplitHeights", "training partition is empty")
	}

	if test, err = h.Subset(testIdx); err != nil {
		return nil, nil, err
	}
	if train, err = h.Subset(trainIdx); err != nil {
		return nil, nil, err
	}

	log.GetLoggerWithName("model_selection").Info("Split created",
		log.OperationKey, log.OperationSplit,
		log.SamplesKey, h.Len(),
		log.TrainSamplesKey, train.Len(),
		log.TestSamplesKey, test.Len(),
		log.RandomSeedKey, seed,
	)
	return train, test, nil
}
