// Person registry: creates persons and owns the living set. No relational
// logic lives here; the graph is told about new persons through a NodeSink.
package people

import (
	"fmt"
	"log/slog"
	"math/rand"
)

// Age bounds for persons created without an explicit age.
const (
	MinRandomAge = 10
	MaxRandomAge = 90
)

// DefaultJob is assigned to every freshly created person.
const DefaultJob = "worker"

// NameSource produces a display name for a gender, or fails.
type NameSource interface {
	Generate(g Gender) (string, error)
}

// NodeSink receives every registered person as an isolated graph node.
type NodeSink interface {
	AddNode(id PersonID)
}

// CreateOptions holds the optional inputs of Registry.Create. Zero values
// mean "choose for me".
type CreateOptions struct {
	Gender string // "male", "female" or "" for a uniform pick
	Name   string
	Age    *int
}

// Registry owns the set of living persons.
type Registry struct {
	rng   *rand.Rand
	names NameSource
	sink  NodeSink

	persons []*Person
	index   map[PersonID]*Person

	// Year stamps Person.Born on registration.
	Year int
}

// NewRegistry creates an empty registry. sink may be nil.
func NewRegistry(rng *rand.Rand, names NameSource, sink NodeSink) *Registry {
	return &Registry{
		rng:   rng,
		names: names,
		sink:  sink,
		index: make(map[PersonID]*Person),
	}
}

// Create builds a person with random traits and registers it. A name
// provider failure aborts the whole operation; nothing is registered.
func (r *Registry) Create(opts CreateOptions) (*Person, error) {
	gender := Genders[r.rng.Intn(len(Genders))]
	if opts.Gender != "" {
		g, err := ParseGender(opts.Gender)
		if err != nil {
			return nil, err
		}
		gender = g
	}

	name := opts.Name
	if name == "" {
		generated, err := r.names.Generate(gender)
		if err != nil {
			return nil, fmt.Errorf("generate name: %w", err)
		}
		name = generated
	}

	age := MinRandomAge + r.rng.Intn(MaxRandomAge-MinRandomAge+1)
	if opts.Age != nil {
		if *opts.Age < 0 {
			return nil, fmt.Errorf("%w: %d", ErrNegativeAge, *opts.Age)
		}
		age = *opts.Age
	}

	id, err := NewID(r.rng)
	if err != nil {
		return nil, err
	}

	p := &Person{
		ID:     id,
		Name:   name,
		Age:    age,
		Gender: gender,
		Job:    DefaultJob,
		Traits: RandomTraits(r.rng),
	}
	if err := r.Register(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Register adds a pre-built person (e.g. a newborn) to the living set.
func (r *Registry) Register(p *Person) error {
	if !p.Gender.Valid() {
		return fmt.Errorf("register %s: %w", p.Name, ErrUnknownGender)
	}
	if err := p.Traits.Validate(); err != nil {
		return fmt.Errorf("register %s: %w", p.Name, err)
	}
	if _, exists := r.index[p.ID]; exists {
		return fmt.Errorf("register %s: duplicate id %s", p.Name, p.ID)
	}
	p.Born = r.Year
	r.persons = append(r.persons, p)
	r.index[p.ID] = p
	if r.sink != nil {
		r.sink.AddNode(p.ID)
	}
	slog.Debug("person registered", "name", p.Name, "age", p.Age, "gender", p.Gender)
	return nil
}

// NewChild builds an unregistered newborn with an ID from the registry's source.
func (r *Registry) NewChild(name string, gender Gender, traits Traits) (*Person, error) {
	id, err := NewID(r.rng)
	if err != nil {
		return nil, err
	}
	return &Person{
		ID:     id,
		Name:   name,
		Age:    0,
		Gender: gender,
		Job:    DefaultJob,
		Traits: traits,
	}, nil
}

// All returns the living persons in creation order. The slice is a copy;
// the persons are shared.
func (r *Registry) All() []*Person {
	out := make([]*Person, len(r.persons))
	copy(out, r.persons)
	return out
}

// Get looks up a living person.
func (r *Registry) Get(id PersonID) (*Person, bool) {
	p, ok := r.index[id]
	return p, ok
}

// Len returns the number of living persons.
func (r *Registry) Len() int {
	return len(r.persons)
}

// Remove drops a person from the living set. Pruning the person's edges is
// the caller's job.
func (r *Registry) Remove(id PersonID) error {
	if _, ok := r.index[id]; !ok {
		return fmt.Errorf("remove %s: %w", id, ErrUnknownPerson)
	}
	delete(r.index, id)
	for i, p := range r.persons {
		if p.ID == id {
			r.persons = append(r.persons[:i], r.persons[i+1:]...)
			break
		}
	}
	return nil
}

// AgeAll advances every living person by the given number of years.
func (r *Registry) AgeAll(years int) {
	for _, p := range r.persons {
		p.Age += years
	}
}
