// Package climate produces a smooth year-to-year hardship index from seeded
// simplex noise. Hard years raise mortality, mild years lower it.
package climate

import (
	"fmt"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Hardship bounds.
const (
	MinHardship = 0.5
	MaxHardship = 1.5
)

// Config controls the noise shape.
type Config struct {
	Seed        int64
	Octaves     int
	Frequency   float64
	Persistence float64
}

// DefaultConfig returns settings that give runs of good and bad years
// lasting roughly a decade.
func DefaultConfig(seed int64) Config {
	return Config{
		Seed:        seed,
		Octaves:     3,
		Frequency:   0.08,
		Persistence: 0.5,
	}
}

// Climate maps years to hardship.
type Climate struct {
	cfg   Config
	noise opensimplex.Noise
}

// New creates a climate from cfg. Octaves below one are treated as one.
func New(cfg Config) *Climate {
	if cfg.Octaves < 1 {
		cfg.Octaves = 1
	}
	return &Climate{
		cfg:   cfg,
		noise: opensimplex.NewNormalized(cfg.Seed + 3),
	}
}

// Hardship returns the mortality multiplier for year, in [0.5, 1.5].
// The same seed and year always give the same value.
func (c *Climate) Hardship(year int) float64 {
	n := octaveNoise(c.noise, float64(year), c.cfg.Octaves, c.cfg.Frequency, c.cfg.Persistence)
	h := MinHardship + n*(MaxHardship-MinHardship)
	if h < MinHardship {
		return MinHardship
	}
	if h > MaxHardship {
		return MaxHardship
	}
	return h
}

// Describe names the hardship band of a year for event text.
func Describe(h float64) string {
	switch {
	case h >= 1.3:
		return "harsh"
	case h >= 1.1:
		return "lean"
	case h <= 0.7:
		return "bountiful"
	case h <= 0.9:
		return "mild"
	default:
		return "ordinary"
	}
}

// Report formats a hardship value for logs.
func Report(year int, h float64) string {
	return fmt.Sprintf("year %d was %s (%.2f)", year, Describe(h), h)
}

// octaveNoise layers several frequencies of normalized noise along one axis.
func octaveNoise(noise opensimplex.Noise, x float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, 0.5) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
