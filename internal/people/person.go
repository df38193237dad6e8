// Package people provides the person data model and the registry of the
// living population.
package people

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrUnknownGender is returned for any gender outside {male, female}.
	ErrUnknownGender = errors.New("unknown gender")
	// ErrNegativeAge is returned when an explicit age is below zero.
	ErrNegativeAge = errors.New("negative age")
	// ErrUnknownPerson is returned when an ID is not in the living set.
	ErrUnknownPerson = errors.New("unknown person")
)

// PersonID is a stable unique identifier for a person.
type PersonID = uuid.UUID

// NewID draws a version 4 identifier from r. Passing a seeded source keeps
// identifiers reproducible across runs.
func NewID(r io.Reader) (PersonID, error) {
	id, err := uuid.NewRandomFromReader(r)
	if err != nil {
		return uuid.Nil, fmt.Errorf("new person id: %w", err)
	}
	return id, nil
}

// Gender is the closed set of genders the population model knows about.
type Gender uint8

const (
	Male   Gender = 1
	Female Gender = 2
)

// Genders lists every valid gender, in the order random picks use.
var Genders = [...]Gender{Male, Female}

func (g Gender) String() string {
	switch g {
	case Male:
		return "male"
	case Female:
		return "female"
	default:
		return fmt.Sprintf("gender(%d)", uint8(g))
	}
}

// Valid reports whether g is male or female.
func (g Gender) Valid() bool {
	return g == Male || g == Female
}

// ParseGender maps "male"/"female" (case-insensitive) to a Gender.
func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male":
		return Male, nil
	case "female":
		return Female, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownGender, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (g Gender) MarshalText() ([]byte, error) {
	if !g.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownGender, uint8(g))
	}
	return []byte(g.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *Gender) UnmarshalText(text []byte) error {
	parsed, err := ParseGender(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// Person is an individual in the simulated population.
type Person struct {
	ID   PersonID `json:"id" yaml:"id"`
	Name string   `json:"name" yaml:"name"`

	// Demographics
	Age    int    `json:"age" yaml:"age"` // Sim-years
	Gender Gender `json:"gender" yaml:"gender"`
	Job    string `json:"job" yaml:"job"`

	Traits Traits `json:"traits" yaml:"traits"`

	// Metadata
	Born int `json:"born" yaml:"born"` // Sim-year of registration
}

func (p *Person) String() string {
	return fmt.Sprintf("%s (%d, %s)", p.Name, p.Age, p.Gender)
}
