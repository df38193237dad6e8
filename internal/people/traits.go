// Personality traits: ten independent scalars in [0, 1], randomized at
// creation and blended at inheritance.
package people

import (
	"errors"
	"fmt"
	"math/rand"

	"golang.org/x/exp/constraints"
)

// ErrTraitRange is returned when a trait component falls outside [0, 1].
var ErrTraitRange = errors.New("trait out of range")

// NumTraits is the dimension of the trait vector.
const NumTraits = 10

// InheritanceNoise bounds the uniform noise added to each inherited trait.
const InheritanceNoise = 0.1

// TraitNames lists trait names in vector order.
var TraitNames = [NumTraits]string{
	"intelligence", "charisma", "empathy", "courage", "ambition",
	"loyalty", "creativity", "patience", "honesty", "adaptability",
}

// Traits is a person's personality vector.
type Traits struct {
	Intelligence float64 `json:"intelligence" yaml:"intelligence"`
	Charisma     float64 `json:"charisma" yaml:"charisma"`
	Empathy      float64 `json:"empathy" yaml:"empathy"`
	Courage      float64 `json:"courage" yaml:"courage"`
	Ambition     float64 `json:"ambition" yaml:"ambition"`
	Loyalty      float64 `json:"loyalty" yaml:"loyalty"`
	Creativity   float64 `json:"creativity" yaml:"creativity"`
	Patience     float64 `json:"patience" yaml:"patience"`
	Honesty      float64 `json:"honesty" yaml:"honesty"`
	Adaptability float64 `json:"adaptability" yaml:"adaptability"`
}

// Vector returns the traits in TraitNames order.
func (t Traits) Vector() [NumTraits]float64 {
	return [NumTraits]float64{
		t.Intelligence, t.Charisma, t.Empathy, t.Courage, t.Ambition,
		t.Loyalty, t.Creativity, t.Patience, t.Honesty, t.Adaptability,
	}
}

// TraitsFromVector is the inverse of Vector.
func TraitsFromVector(v [NumTraits]float64) Traits {
	return Traits{
		Intelligence: v[0],
		Charisma:     v[1],
		Empathy:      v[2],
		Courage:      v[3],
		Ambition:     v[4],
		Loyalty:      v[5],
		Creativity:   v[6],
		Patience:     v[7],
		Honesty:      v[8],
		Adaptability: v[9],
	}
}

// Validate checks every component lies in [0, 1].
func (t Traits) Validate() error {
	for i, v := range t.Vector() {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s=%.3f", ErrTraitRange, TraitNames[i], v)
		}
	}
	return nil
}

// LeadershipScore ranks leader candidates: charisma + courage + intelligence.
func (t Traits) LeadershipScore() float64 {
	return t.Charisma + t.Courage + t.Intelligence
}

// RandomTraits draws every component independently from U[0, 1).
func RandomTraits(rng *rand.Rand) Traits {
	var v [NumTraits]float64
	for i := range v {
		v[i] = rng.Float64()
	}
	return TraitsFromVector(v)
}

// InheritTraits blends two parents: per-trait mean plus U[-0.1, 0.1] noise,
// clamped to [0, 1].
func InheritTraits(a, b Traits, rng *rand.Rand) Traits {
	va, vb := a.Vector(), b.Vector()
	var child [NumTraits]float64
	for i := range child {
		noise := (rng.Float64()*2 - 1) * InheritanceNoise
		child[i] = Clamp(Mean(va[i], vb[i])+noise, 0, 1)
	}
	return TraitsFromVector(child)
}

// Clamp limits v to [lo, hi].
func Clamp[T constraints.Float](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Mean returns the arithmetic mean, or 0 for no values.
func Mean[T constraints.Float](values ...T) T {
	if len(values) == 0 {
		return 0
	}
	var sum T
	for _, v := range values {
		sum += v
	}
	return sum / T(len(values))
}
