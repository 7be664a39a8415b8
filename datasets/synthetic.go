package datasets

import (
	"math"
	"math/rand/v2"

	"github.com/YuminosukeSato/heightsml/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"
)

// Group describes the height distribution of one sex.
type Group struct {
	N    int
	Mean float64
	SD   float64
}

// Default group parameters, matching the shape of the reported-heights
// survey: 238 women and 812 men.
var (
	DefaultFemale = Group{N: 238, Mean: 64.9, SD: 3.76}
	DefaultMale   = Group{N: 812, Mean: 69.3, SD: 3.61}
)

// DefaultSeed is the seed used by MakeHeights unless overridden.
const DefaultSeed uint64 = 2007

type heightsConfig struct {
	seed     uint64
	female   Group
	male     Group
	decimals int
	shuffle  bool
}

// Option configures MakeHeights.
type Option func(*heightsConfig)

// WithSeed sets the random seed.
func WithSeed(seed uint64) Option {
	return func(c *heightsConfig) {
		c.seed = seed
	}
}

// WithGroup overrides the distribution of one sex.
func WithGroup(sex Sex, g Group) Option {
	return func(c *heightsConfig) {
		if sex == Female {
			c.female = g
		} else {
			c.male = g
		}
	}
}

// WithDecimals rounds generated heights to the given number of decimals.
// A negative value disables rounding.
func WithDecimals(d int) Option {
	return func(c *heightsConfig) {
		c.decimals = d
	}
}

// WithShuffle controls whether rows are interleaved. When disabled all
// Female rows precede the Male rows.
func WithShuffle(shuffle bool) Option {
	return func(c *heightsConfig) {
		c.shuffle = shuffle
	}
}

// MakeHeights generates a deterministic synthetic heights table. Each sex
// is drawn from a normal distribution; the same options always yield the
// same rows.
func MakeHeights(opts ...Option) (*Heights, error) {
	cfg := heightsConfig{
		seed:     DefaultSeed,
		female:   DefaultFemale,
		male:     DefaultMale,
		decimals: 2,
		shuffle:  true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	for _, g := range []Group{cfg.female, cfg.male} {
		if g.N < 0 {
			return nil, errors.NewValidationError("n", "must be non-negative", g.N)
		}
		if g.SD <= 0 || math.IsNaN(g.SD) {
			return nil, errors.NewValidationError("sd", "must be positive", g.SD)
		}
	}
	if cfg.female.N+cfg.male.N == 0 {
		return nil, errors.NewModelError("MakeHeights", "no rows requested", errors.ErrEmptyData)
	}

	src := rand.NewPCG(cfg.seed, cfg.seed^0x9e3779b97f4a7c15)
	h := &Heights{
		Sex:    make([]Sex, 0, cfg.female.N+cfg.male.N),
		Height: make([]float64, 0, cfg.female.N+cfg.male.N),
	}
	scale := math.Pow(10, float64(cfg.decimals))
	for _, sex := range Sexes {
		g := cfg.female
		if sex == Male {
			g = cfg.male
		}
		dist := distuv.Normal{Mu: g.Mean, Sigma: g.SD, Src: src}
		for i := 0; i < g.N; i++ {
			v := dist.Rand()
			if cfg.decimals >= 0 {
				v = math.Round(v*scale) / scale
			}
			h.Sex = append(h.Sex, sex)
			h.Height = append(h.Height, v)
		}
	}

	if cfg.shuffle {
		rng := rand.New(src)
		rng.Shuffle(h.Len(), func(i, j int) {
			h.Sex[i], h.Sex[j] = h.Sex[j], h.Sex[i]
			h.Height[i], h.Height[j] = h.Height[j], h.Height[i]
		})
	}
	return h, nil
}
