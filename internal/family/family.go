// Package family pairs persons into spouses, grows couples into families,
// and answers family-membership queries over the relation graph.
package family

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/talgya/kindred/internal/people"
	"github.com/talgya/kindred/internal/relations"
)

// ParentsAge is the minimum age to marry or have children.
const ParentsAge = 16

// Couple is a spouse pair.
type Couple struct {
	Father *people.Person `json:"father"`
	Mother *people.Person `json:"mother"`
}

// Service forms and grows families.
type Service struct {
	rng      *rand.Rand
	registry *people.Registry
	graph    *relations.Store
	names    people.NameSource

	ParentsAge int
}

// NewService wires a family service over a registry and its relation graph.
func NewService(rng *rand.Rand, registry *people.Registry, graph *relations.Store, names people.NameSource) *Service {
	return &Service{
		rng:        rng,
		registry:   registry,
		graph:      graph,
		names:      names,
		ParentsAge: ParentsAge,
	}
}

// eligible reports whether p may marry.
func (s *Service) eligible(p *people.Person) bool {
	return p.Age >= s.ParentsAge && !s.graph.HasKind(p.ID, relations.Spouse)
}

// FormFamily marries one eligible man and one eligible woman from pool,
// each picked uniformly at random. It returns nil when either side of the
// pool has no eligible candidate. A woman who is already kin of the chosen
// man is never picked for him; tribe bonds do not count.
func (s *Service) FormFamily(pool []*people.Person) (*Couple, error) {
	var males, females []*people.Person
	for _, p := range pool {
		if !s.eligible(p) {
			continue
		}
		switch p.Gender {
		case people.Male:
			males = append(males, p)
		case people.Female:
			females = append(females, p)
		}
	}
	if len(males) == 0 || len(females) == 0 {
		slog.Debug("no family formed", "males", len(males), "females", len(females))
		return nil, nil
	}

	for _, mi := range s.rng.Perm(len(males)) {
		father := males[mi]
		var candidates []*people.Person
		for _, f := range females {
			if _, bonded := s.graph.Kin(father.ID, f.ID); !bonded {
				candidates = append(candidates, f)
			}
		}
		if len(candidates) == 0 {
			continue
		}
		mother := candidates[s.rng.Intn(len(candidates))]
		if err := s.graph.Add(father.ID, mother.ID, relations.Spouse); err != nil {
			return nil, fmt.Errorf("marry %s and %s: %w", father.Name, mother.Name, err)
		}
		slog.Info("family formed", "father", father.Name, "mother", mother.Name)
		return &Couple{Father: father, Mother: mother}, nil
	}
	return nil, nil
}

// GrowFamily gives p and p's spouse a child. It returns nil when p has no
// spouse, either spouse is under ParentsAge, or no name could be found.
func (s *Service) GrowFamily(p *people.Person) (*people.Person, error) {
	spouse := s.SpouseOf(p)
	if spouse == nil || p.Age < s.ParentsAge || spouse.Age < s.ParentsAge {
		return nil, nil
	}

	gender := people.Genders[s.rng.Intn(len(people.Genders))]
	name, err := s.names.Generate(gender)
	if err != nil {
		slog.Warn("child not named", "parent", p.Name, "error", err)
		return nil, nil
	}

	child, err := s.registry.NewChild(name, gender, people.InheritTraits(p.Traits, spouse.Traits, s.rng))
	if err != nil {
		return nil, err
	}
	if err := s.registry.Register(child); err != nil {
		return nil, fmt.Errorf("register child: %w", err)
	}
	for _, parent := range []*people.Person{p, spouse} {
		if err := s.graph.Add(parent.ID, child.ID, ParentKind(parent.Gender)); err != nil {
			return nil, fmt.Errorf("link %s to child: %w", parent.Name, err)
		}
	}

	slog.Info("child born", "name", child.Name, "parent", p.Name, "spouse", spouse.Name)
	return child, nil
}

// ParentKind is the bond a parent of the given gender holds to a child.
func ParentKind(g people.Gender) relations.Kind {
	if g == people.Female {
		return relations.Mother
	}
	return relations.Father
}

// IsInFamily reports whether p has any spouse, father or mother bond.
func (s *Service) IsInFamily(p *people.Person) bool {
	return s.graph.HasKind(p.ID, relations.FamilyKinds...)
}

// SpouseOf returns p's living spouse, or nil.
func (s *Service) SpouseOf(p *people.Person) *people.Person {
	for _, id := range s.graph.Neighbours(p.ID, relations.Spouse) {
		if spouse, ok := s.registry.Get(id); ok {
			return spouse
		}
	}
	return nil
}

// ChildrenOf returns p's living children, oldest bond first.
func (s *Service) ChildrenOf(p *people.Person) []*people.Person {
	return s.parentage(p, true)
}

// ParentsOf returns p's living parents.
func (s *Service) ParentsOf(p *people.Person) []*people.Person {
	return s.parentage(p, false)
}

func (s *Service) parentage(p *people.Person, outgoing bool) []*people.Person {
	var out []*people.Person
	for _, r := range s.graph.RelationsOf(p.ID) {
		if (r.Kind != relations.Father && r.Kind != relations.Mother) || r.Outgoing != outgoing {
			continue
		}
		if other, ok := s.registry.Get(r.Other); ok {
			out = append(out, other)
		}
	}
	return out
}

// Couples lists every living spouse pair once, in registry order of the
// husband.
func (s *Service) Couples() []Couple {
	var out []Couple
	for _, p := range s.registry.All() {
		if p.Gender != people.Male {
			continue
		}
		if spouse := s.SpouseOf(p); spouse != nil {
			out = append(out, Couple{Father: p, Mother: spouse})
		}
	}
	return out
}
