package climate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHardship_range(t *testing.T) {
	c := New(DefaultConfig(42))
	for year := 0; year < 500; year++ {
		h := c.Hardship(year)
		assert.GreaterOrEqual(t, h, MinHardship, "year %d", year)
		assert.LessOrEqual(t, h, MaxHardship, "year %d", year)
	}
}

func TestHardship_deterministic(t *testing.T) {
	a, b := New(DefaultConfig(7)), New(DefaultConfig(7))
	other := New(DefaultConfig(8))
	differs := false
	for year := 0; year < 50; year++ {
		assert.Equal(t, a.Hardship(year), b.Hardship(year))
		if a.Hardship(year) != other.Hardship(year) {
			differs = true
		}
	}
	assert.True(t, differs, "seeds should matter")
}

func TestNew_octaves(t *testing.T) {
	c := New(Config{Seed: 1, Frequency: 0.1, Persistence: 0.5})
	assert.Equal(t, 1, c.cfg.Octaves)
}

func TestDescribe(t *testing.T) {
	for h, want := range map[float64]string{
		1.5: "harsh", 1.3: "harsh", 1.2: "lean",
		1.0: "ordinary", 0.85: "mild", 0.6: "bountiful",
	} {
		assert.Equal(t, want, Describe(h), "%.2f", h)
	}
	assert.Equal(t, "year 4 was harsh (1.40)", Report(4, 1.4))
}
