// Package datasets provides the heights dataset used throughout heightsml:
// self-reported heights in inches labelled by sex.
package datasets

import (
	"fmt"
	"strings"

	"github.com/YuminosukeSato/heightsml/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Sex is the outcome label. Female is the first level and encodes to 0.
type Sex int

const (
	Female Sex = iota
	Male
)

// Sexes lists the levels in label order.
var Sexes = [2]Sex{Female, Male}

// ClassNames returns the display names indexed by label.
func ClassNames() [2]string {
	return [2]string{Female.String(), Male.String()}
}

func (s Sex) String() string {
	switch s {
	case Female:
		return "Female"
	case Male:
		return "Male"
	default:
		return fmt.Sprintf("Sex(%d)", int(s))
	}
}

// Label returns the numeric encoding used by classifiers and metrics.
func (s Sex) Label() float64 {
	return float64(s)
}

// ParseSex accepts "Female"/"Male" in any case, plus "F"/"M".
func ParseSex(v string) (Sex, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "female", "f":
		return Female, nil
	case "male", "m":
		return Male, nil
	default:
		return 0, errors.NewValidationError("sex", "must be Female or Male", v)
	}
}

// SexFromLabel converts a 0/1 label back to a Sex.
func SexFromLabel(label float64) (Sex, error) {
	switch label {
	case 0:
		return Female, nil
	case 1:
		return Male, nil
	default:
		return 0, errors.Wrapf(errors.ErrNotBinary, "label %v", label)
	}
}

// Heights is a column-oriented table of (sex, height) observations.
type Heights struct {
	Sex    []Sex
	Height []float64
}

// NewHeights validates that both columns have the same length.
func NewHeights(sex []Sex, height []float64) (*Heights, error) {
	if len(sex) != len(height) {
		return nil, errors.NewDimensionError("NewHeights", len(sex), len(height), 0)
	}
	return &Heights{Sex: sex, Height: height}, nil
}

// Len returns the number of observations.
func (h *Heights) Len() int {
	return len(h.Height)
}

// X returns the heights as an n×1 feature matrix.
func (h *Heights) X() *mat.Dense {
	if h.Len() == 0 {
		return &mat.Dense{}
	}
	data := append([]float64(nil), h.Height...)
	return mat.NewDense(h.Len(), 1, data)
}

// Y returns the outcome as a label vector (Female=0, Male=1).
func (h *Heights) Y() *mat.VecDense {
	if h.Len() == 0 {
		return &mat.VecDense{}
	}
	y := make([]float64, h.Len())
	for i, s := range h.Sex {
		y[i] = s.Label()
	}
	return mat.NewVecDense(len(y), y)
}

// Subset returns the rows at the given indices, in the given order.
func (h *Heights) Subset(indices []int) (*Heights, error) {
	out := &Heights{
		Sex:    make([]Sex, 0, len(indices)),
		Height: make([]float64, 0, len(indices)),
	}
	for _, i := range indices {
		if i < 0 || i >= h.Len() {
			return nil, errors.NewValidationError("indices", "out of range", i)
		}
		out.Sex = append(out.Sex, h.Sex[i])
		out.Height = append(out.Height, h.Height[i])
	}
	return out, nil
}

// Heights returns the heights of the given sex.
func (h *Heights) Heights(sex Sex) []float64 {
	var out []float64
	for i, s := range h.Sex {
		if s == sex {
			out = append(out, h.Height[i])
		}
	}
	return out
}

// Count returns the number of observations of the given sex.
func (h *Heights) Count(sex Sex) int {
	n := 0
	for _, s := range h.Sex {
		if s == sex {
			n++
		}
	}
	return n
}

// Prevalence returns the proportion of observations of the given sex.
func (h *Heights) Prevalence(sex Sex) float64 {
	if h.Len() == 0 {
		return 0
	}
	return float64(h.Count(sex)) / float64(h.Len())
}

// GroupSummary holds per-sex descriptive statistics.
type GroupSummary struct {
	Sex  Sex
	N    int
	Mean float64
	SD   float64 // sample standard deviation (n-1)
}

// Summary returns the per-sex count, mean and standard deviation in label
// order. Groups with no observations are omitted.
func (h *Heights) Summary() []GroupSummary {
	var out []GroupSummary
	for _, sex := range Sexes {
		x := h.Heights(sex)
		if len(x) == 0 {
			continue
		}
		g := GroupSummary{Sex: sex, N: len(x), Mean: stat.Mean(x, nil)}
		if len(x) > 1 {
			g.SD = stat.StdDev(x, nil)
		}
		out = append(out, g)
	}
	return out
}
