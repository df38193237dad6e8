// Package tribe forms tribes around charismatic leaders, reconstructs them
// from the relation graph, merges them, and exposes the primitives an
// external succession routine needs.
//
// The relation graph is the source of truth. The ledger is a convenience
// list written at formation and merge time; it is not kept in step with
// other graph edits and may drift.
package tribe

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/talgya/kindred/internal/people"
	"github.com/talgya/kindred/internal/relations"
)

// Defaults for tribe formation.
const (
	MinTribeSize   = 5
	LeaderMinAge   = 25
	LeaderCharisma = 0.6
)

// ErrNotLeader is returned by primitives that need a current leader.
var ErrNotLeader = errors.New("not a tribe leader")

// Policy holds the tunable eligibility rules.
type Policy struct {
	MinSize        int
	LeaderMinAge   int
	LeaderCharisma float64

	// ExcludeFamilies keeps anyone with a spouse, father or mother bond out
	// of the member pool.
	ExcludeFamilies bool
}

// DefaultPolicy returns the standard formation rules.
func DefaultPolicy() Policy {
	return Policy{
		MinSize:        MinTribeSize,
		LeaderMinAge:   LeaderMinAge,
		LeaderCharisma: LeaderCharisma,
	}
}

// Tribe is a ledger entry, recorded when a tribe forms or absorbs another.
type Tribe struct {
	Name     string           `json:"name"`
	Leader   *people.Person   `json:"leader"`
	Members  []*people.Person `json:"members"`
	Strength float64          `json:"strength"` // Mean member courage
	Wisdom   float64          `json:"wisdom"`   // Mean member intelligence
}

// Info is a tribe reconstructed from the live graph.
type Info struct {
	Name     string           `json:"name"`
	Leader   *people.Person   `json:"leader"`
	Members  []*people.Person `json:"members"`
	Size     int              `json:"size"`
	Strength float64          `json:"strength"`
	Wisdom   float64          `json:"wisdom"`
}

// Namer supplies names for tribes formed without one.
type Namer interface {
	TribeName() string
}

// Service manages tribes over a registry and relation graph.
type Service struct {
	rng      *rand.Rand
	registry *people.Registry
	graph    *relations.Store
	names    Namer

	Policy Policy

	ledger []*Tribe
}

// NewService wires a tribe service with the default policy.
func NewService(rng *rand.Rand, registry *people.Registry, graph *relations.Store, names Namer) *Service {
	return &Service{
		rng:      rng,
		registry: registry,
		graph:    graph,
		names:    names,
		Policy:   DefaultPolicy(),
	}
}

// affiliated reports whether p already leads or follows someone.
func (s *Service) affiliated(p *people.Person) bool {
	return s.graph.HasKind(p.ID, relations.TribeKinds...)
}

// CanLead reports whether p passes the age and charisma bar for leadership.
func (s *Service) CanLead(p *people.Person) bool {
	return p.Age >= s.Policy.LeaderMinAge && p.Traits.Charisma >= s.Policy.LeaderCharisma
}

// bestLeader returns the highest leadership score; ties go to the first
// candidate in iteration order.
func bestLeader(candidates []*people.Person) *people.Person {
	var best *people.Person
	for _, p := range candidates {
		if best == nil || p.Traits.LeadershipScore() > best.Traits.LeadershipScore() {
			best = p
		}
	}
	return best
}

// FormTribe picks the strongest unaffiliated leader and gathers a random
// band of unaffiliated followers around them. It returns nil when there is
// no eligible leader or fewer than MinSize eligible members. An empty name
// is replaced by a generated one.
func (s *Service) FormTribe(name string) (*Tribe, error) {
	var leaders []*people.Person
	for _, p := range s.registry.All() {
		if s.CanLead(p) && !s.affiliated(p) {
			leaders = append(leaders, p)
		}
	}
	if len(leaders) == 0 {
		slog.Debug("no tribe formed", "reason", "no eligible leader")
		return nil, nil
	}
	leader := bestLeader(leaders)

	var pool []*people.Person
	for _, p := range s.registry.All() {
		if p.ID == leader.ID || s.affiliated(p) {
			continue
		}
		if s.Policy.ExcludeFamilies && s.graph.HasKind(p.ID, relations.FamilyKinds...) {
			continue
		}
		pool = append(pool, p)
	}
	if len(pool) < s.Policy.MinSize {
		slog.Debug("no tribe formed", "reason", "pool too small", "leader", leader.Name, "pool", len(pool))
		return nil, nil
	}

	size := s.Policy.MinSize + s.rng.Intn(len(pool)-s.Policy.MinSize+1)
	members := make([]*people.Person, 0, size)
	for _, i := range s.rng.Perm(len(pool))[:size] {
		members = append(members, pool[i])
	}

	for _, m := range members {
		if err := s.graph.Add(leader.ID, m.ID, relations.Leader); err != nil {
			return nil, fmt.Errorf("admit %s: %w", m.Name, err)
		}
	}

	if name == "" && s.names != nil {
		name = s.names.TribeName()
	}
	strength, wisdom := aggregate(members)
	t := &Tribe{
		Name:     name,
		Leader:   leader,
		Members:  members,
		Strength: strength,
		Wisdom:   wisdom,
	}
	s.ledger = append(s.ledger, t)

	slog.Info("tribe formed", "name", t.Name, "leader", leader.Name, "size", len(members),
		"strength", fmt.Sprintf("%.2f", strength), "wisdom", fmt.Sprintf("%.2f", wisdom))
	return t.clone(), nil
}

// TribeInfo reconstructs the tribe led by leader from the live graph. It
// returns nil when leader leads nobody. Aggregates are recomputed from the
// current members, so they can differ from the ledger.
func (s *Service) TribeInfo(leader *people.Person) *Info {
	if leader == nil || !s.graph.HasKind(leader.ID, relations.Leader) {
		return nil
	}
	members := s.lookup(s.graph.MembersOf(leader.ID))
	if len(members) == 0 {
		return nil
	}
	strength, wisdom := aggregate(members)
	return &Info{
		Name:     s.nameOf(leader),
		Leader:   leader,
		Members:  members,
		Size:     len(members),
		Strength: strength,
		Wisdom:   wisdom,
	}
}

// MergeTribes folds the weaker-charisma leader's tribe into the other's.
// Ties keep a. It returns false if either leader has no tribe or both are
// the same person. Afterwards the survivor leads the union of both tribes.
func (s *Service) MergeTribes(a, b *people.Person) (bool, error) {
	if a == nil || b == nil || a.ID == b.ID {
		return false, nil
	}
	infoA, infoB := s.TribeInfo(a), s.TribeInfo(b)
	if infoA == nil || infoB == nil {
		return false, nil
	}

	survivor, loser, lost := a, b, infoB
	if b.Traits.Charisma > a.Traits.Charisma {
		survivor, loser, lost = b, a, infoA
	}

	moved := make([]*people.Person, 0, len(lost.Members))
	for _, m := range lost.Members {
		s.graph.Remove(loser.ID, m.ID, relations.Leader)
		if m.ID == survivor.ID {
			continue
		}
		if err := s.graph.Add(survivor.ID, m.ID, relations.Leader); err != nil {
			return false, fmt.Errorf("transfer %s: %w", m.Name, err)
		}
		moved = append(moved, m)
	}

	s.forget(loser.ID)
	entry := s.entry(survivor.ID)
	if entry == nil {
		entry = &Tribe{Name: s.nameOf(survivor), Leader: survivor}
		if info := s.TribeInfo(survivor); info != nil {
			entry.Members = info.Members
		}
		s.ledger = append(s.ledger, entry)
	} else {
		entry.Members = union(entry.Members, moved)
	}
	entry.Strength, entry.Wisdom = aggregate(entry.Members)

	slog.Info("tribes merged", "survivor", survivor.Name, "absorbed", loser.Name, "members", len(entry.Members))
	return true, nil
}

// AllTribes reconstructs every tribe in the graph, one per leader, in the
// order leaders joined the graph.
func (s *Service) AllTribes() []Info {
	var out []Info
	processed := make(map[people.PersonID]bool)
	for _, id := range s.graph.Nodes() {
		if processed[id] || !s.graph.HasKind(id, relations.Leader) {
			continue
		}
		processed[id] = true
		leader, ok := s.registry.Get(id)
		if !ok {
			continue
		}
		if info := s.TribeInfo(leader); info != nil {
			out = append(out, *info)
		}
	}
	return out
}

// Ledger returns a copy of the bookkeeping list.
func (s *Service) Ledger() []Tribe {
	out := make([]Tribe, 0, len(s.ledger))
	for _, t := range s.ledger {
		out = append(out, *t.clone())
	}
	return out
}

// clone copies a ledger entry so later ledger edits do not reach callers.
func (t *Tribe) clone() *Tribe {
	cp := *t
	cp.Members = append([]*people.Person(nil), t.Members...)
	return &cp
}

func (s *Service) entry(leader people.PersonID) *Tribe {
	for _, t := range s.ledger {
		if t.Leader.ID == leader {
			return t
		}
	}
	return nil
}

func (s *Service) forget(leader people.PersonID) {
	kept := s.ledger[:0]
	for _, t := range s.ledger {
		if t.Leader.ID != leader {
			kept = append(kept, t)
		}
	}
	s.ledger = kept
}

func (s *Service) nameOf(leader *people.Person) string {
	if t := s.entry(leader.ID); t != nil && t.Name != "" {
		return t.Name
	}
	return "Tribe of " + leader.Name
}

func (s *Service) lookup(ids []people.PersonID) []*people.Person {
	out := make([]*people.Person, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.registry.Get(id); ok {
			out = append(out, p)
		}
	}
	return out
}

// aggregate returns mean courage and mean intelligence.
func aggregate(members []*people.Person) (strength, wisdom float64) {
	courage := make([]float64, len(members))
	intelligence := make([]float64, len(members))
	for i, m := range members {
		courage[i] = m.Traits.Courage
		intelligence[i] = m.Traits.Intelligence
	}
	return people.Mean(courage...), people.Mean(intelligence...)
}

// union appends the persons of extra not already in base.
func union(base, extra []*people.Person) []*people.Person {
	seen := make(map[people.PersonID]bool, len(base))
	for _, p := range base {
		seen[p.ID] = true
	}
	for _, p := range extra {
		if !seen[p.ID] {
			seen[p.ID] = true
			base = append(base, p)
		}
	}
	return base
}
