package people_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/talgya/kindred/internal/people"
)

func uniform(v float64) people.Traits {
	var vec [people.NumTraits]float64
	for i := range vec {
		vec[i] = v
	}
	return people.TraitsFromVector(vec)
}

func TestInheritTraits(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	testCases{
		{"extremes average to the middle", func(t *testing.T) {
			for i := 0; i < 100; i++ {
				child := people.InheritTraits(uniform(0), uniform(1), rng)
				for _, v := range child.Vector() {
					assert.InDelta(t, 0.5, v, people.InheritanceNoise)
				}
			}
		}},

		{"clamped at the edges", func(t *testing.T) {
			for i := 0; i < 100; i++ {
				assert.NoError(t, people.InheritTraits(uniform(1), uniform(1), rng).Validate())
				assert.NoError(t, people.InheritTraits(uniform(0), uniform(0), rng).Validate())
			}
		}},
	}.run(t)
}

func TestRandomTraits(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 100; i++ {
		assert.NoError(t, people.RandomTraits(rng).Validate())
	}
}

func TestTraits_vector(t *testing.T) {
	tr := people.Traits{Intelligence: 0.1, Charisma: 0.2, Courage: 0.4, Adaptability: 1}
	assert.Equal(t, tr, people.TraitsFromVector(tr.Vector()))
	assert.InDelta(t, 0.7, tr.LeadershipScore(), 1e-9)
}

func TestClampMean(t *testing.T) {
	assert.Equal(t, 0.0, people.Clamp(-0.2, 0, 1))
	assert.Equal(t, 1.0, people.Clamp(1.2, 0, 1))
	assert.Equal(t, 0.3, people.Clamp(0.3, 0, 1))

	assert.Equal(t, 0.0, people.Mean[float64]())
	assert.InDelta(t, 0.5, people.Mean(0.25, 0.75), 1e-9)
	assert.InDelta(t, float32(2), people.Mean[float32](1, 2, 3), 1e-6)
}
