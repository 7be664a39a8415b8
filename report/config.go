package report

import (
	"math"
	"os"
	"strings"

	"github.com/YuminosukeSato/heightsml/datasets"
	"github.com/YuminosukeSato/heightsml/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ConfigEnv names the environment variable consulted for a config file
// when no path is given explicitly.
const ConfigEnv = "HEIGHTSML_CONFIG"

// Config parameterises a notebook run. The zero value is not valid; start
// from DefaultConfig.
type Config struct {
	// Seed drives the partition, the guessing baseline and synthetic data.
	Seed uint64 `yaml:"seed"`

	// DataPath is a CSV with sex and height columns. Empty selects the
	// synthetic sample.
	DataPath string `yaml:"data"`

	// TestFraction is the share of each class put in the test set.
	TestFraction float64 `yaml:"test_fraction"`

	// Positive names the positive class, "Female" or "Male".
	Positive string `yaml:"positive"`

	SDMultiplier       float64   `yaml:"sd_multiplier"`
	AccuracyCutoffs    []float64 `yaml:"accuracy_cutoffs"`
	F1Cutoffs          []float64 `yaml:"f1_cutoffs"`
	ROCCutoffs         []float64 `yaml:"roc_cutoffs"`
	GuessProbabilities []float64 `yaml:"guess_probabilities"`

	// CVFolds enables a stratified cross-validation cell when at least 2.
	CVFolds int `yaml:"cv_folds"`

	HeadRows      int    `yaml:"head_rows"`
	HistogramBins int    `yaml:"histogram_bins"`
	FigureFormat  string `yaml:"figure_format"`
}

func seq(from, to, by float64) []float64 {
	var out []float64
	for v := from; v <= to+by/2; v += by {
		out = append(out, math.Round(v*1e9)/1e9)
	}
	return out
}

// linspace returns n evenly spaced values from lo to hi inclusive.
func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	return out
}

// DefaultConfig returns the settings of the reference course analysis.
func DefaultConfig() Config {
	roc := append([]float64{50}, seq(60, 75, 1)...)
	roc = append(roc, 80)
	return Config{
		Seed:               2007,
		TestFraction:       0.5,
		Positive:           datasets.Female.String(),
		SDMultiplier:       2,
		AccuracyCutoffs:    seq(61, 70, 1),
		F1Cutoffs:          seq(61, 70, 1),
		ROCCutoffs:         roc,
		GuessProbabilities: linspace(0, 1, 10),
		CVFolds:            5,
		HeadRows:           6,
		HistogramBins:      20,
		FigureFormat:       "png",
	}
}

// LoadConfig reads a YAML file over DefaultConfig. Keys absent from the
// file keep their defaults. An empty path falls back to $HEIGHTSML_CONFIG,
// and to the defaults alone when that is unset too.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = os.Getenv(ConfigEnv)
	}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, cfg.Validate()
}

// PositiveSex resolves the configured positive class.
func (c Config) PositiveSex() (datasets.Sex, error) {
	return datasets.ParseSex(c.Positive)
}

func nonEmptyFinite(name string, v []float64) error {
	if len(v) == 0 {
		return errors.NewValidationError(name, "must not be empty", v)
	}
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return errors.NewValidationError(name, "must be finite", x)
		}
	}
	return nil
}

// Validate checks every field and returns the first problem found.
func (c Config) Validate() error {
	if math.IsNaN(c.TestFraction) || c.TestFraction <= 0 || c.TestFraction >= 1 {
		return errors.NewValidationError("test_fraction", "must be in (0, 1)", c.TestFraction)
	}
	if _, err := c.PositiveSex(); err != nil {
		return errors.NewValidationError("positive", "must be Female or Male", c.Positive)
	}
	if math.IsNaN(c.SDMultiplier) || c.SDMultiplier < 0 {
		return errors.NewValidationError("sd_multiplier", "must be non-negative", c.SDMultiplier)
	}
	for _, f := range []struct {
		name   string
		values []float64
	}{
		{"accuracy_cutoffs", c.AccuracyCutoffs},
		{"f1_cutoffs", c.F1Cutoffs},
		{"roc_cutoffs", c.ROCCutoffs},
	} {
		if err := nonEmptyFinite(f.name, f.values); err != nil {
			return err
		}
	}
	if err := nonEmptyFinite("guess_probabilities", c.GuessProbabilities); err != nil {
		return err
	}
	for _, p := range c.GuessProbabilities {
		if p < 0 || p > 1 {
			return errors.NewValidationError("guess_probabilities", "must be in [0, 1]", p)
		}
	}
	if c.CVFolds == 1 || c.CVFolds < 0 {
		return errors.NewValidationError("cv_folds", "must be 0 or at least 2", c.CVFolds)
	}
	if c.HeadRows < 0 {
		return errors.NewValidationError("head_rows", "must be non-negative", c.HeadRows)
	}
	if c.HistogramBins < 1 {
		return errors.NewValidationError("histogram_bins", "must be positive", c.HistogramBins)
	}
	switch strings.ToLower(c.FigureFormat) {
	case "png", "svg", "pdf", "jpg", "jpeg", "tif", "tiff", "eps":
	default:
		return errors.NewValidationError("figure_format", "unsupported format", c.FigureFormat)
	}
	return nil
}
