// Package relations provides the typed relation graph over persons.
//
// The graph keeps two independent layers. The family layer holds at most one
// bond per unordered pair: spouse, or a father or mother bond pointing
// parent → child. The tribe layer maps each member to the one leader they
// follow and each leader to their members. A leader bond reads as Leader
// from the leader's end and as Member from the member's end, so writing
// (leader, member, Leader) and then (member, leader, Member) lands on the
// same bond. A pair may hold one bond in each layer at once: a chief can
// lead their own spouse.
package relations

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/talgya/kindred/internal/people"
)

var (
	// ErrRelationConflict is returned by Add when the bond collides with one
	// already stored in the same layer.
	ErrRelationConflict = errors.New("relation conflict")
	// ErrUnknownPerson is returned when an endpoint is not a node.
	ErrUnknownPerson = errors.New("unknown person")
	// ErrSelfRelation is returned for a bond from a person to itself.
	ErrSelfRelation = errors.New("self relation")
)

// PersonID aliases the people identifier.
type PersonID = people.PersonID

// Relation is one incident bond viewed from a given person.
type Relation struct {
	Other PersonID `json:"other"`
	Kind  Kind     `json:"kind"`
	// Outgoing is true when the viewer is the source of a directional bond
	// (the parent, or the leader). Always false for spouse bonds.
	Outgoing bool `json:"outgoing"`
}

// Edge is a stored bond in its canonical orientation. Kind is never Member.
type Edge struct {
	From PersonID `json:"from" yaml:"from"`
	To   PersonID `json:"to" yaml:"to"`
	Kind Kind     `json:"kind" yaml:"kind"`
}

// bond is a family-layer bond.
type bond struct {
	from, to PersonID
	kind     Kind
}

// view returns the bond as seen from p.
func (b *bond) view(p PersonID) Relation {
	other := b.to
	if p == b.to {
		other = b.from
	}
	r := Relation{Other: other, Kind: b.kind}
	if b.kind.Directional() {
		r.Outgoing = p == b.from
	}
	return r
}

// same reports whether an existing bond already says (from, to, kind).
func (b *bond) same(from, to PersonID, kind Kind) bool {
	if b.kind != kind {
		return false
	}
	if kind == Spouse {
		return true
	}
	return b.from == from && b.to == to
}

// Store is an attributed graph over persons. It is not safe for concurrent
// use; callers serialize access.
type Store struct {
	seq   uint64
	order map[PersonID]uint64
	adj   map[PersonID]map[PersonID]*bond

	leaderOf map[PersonID]PersonID
	members  map[PersonID]map[PersonID]struct{}
}

// NewStore creates an empty relation graph.
func NewStore() *Store {
	return &Store{
		order:    make(map[PersonID]uint64),
		adj:      make(map[PersonID]map[PersonID]*bond),
		leaderOf: make(map[PersonID]PersonID),
		members:  make(map[PersonID]map[PersonID]struct{}),
	}
}

// AddNode registers an isolated node. Adding an existing node is a no-op.
func (s *Store) AddNode(id PersonID) {
	if _, ok := s.order[id]; ok {
		return
	}
	s.seq++
	s.order[id] = s.seq
	s.adj[id] = make(map[PersonID]*bond)
}

// HasNode reports whether id is a node.
func (s *Store) HasNode(id PersonID) bool {
	_, ok := s.order[id]
	return ok
}

// normalize folds Member into its Leader orientation and validates input.
func (s *Store) normalize(a, b PersonID, kind Kind) (PersonID, PersonID, Kind, error) {
	if !kind.Valid() {
		return a, b, kind, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(kind))
	}
	if a == b {
		return a, b, kind, fmt.Errorf("%w: %s", ErrSelfRelation, a)
	}
	if !s.HasNode(a) {
		return a, b, kind, fmt.Errorf("%w: %s", ErrUnknownPerson, a)
	}
	if !s.HasNode(b) {
		return a, b, kind, fmt.Errorf("%w: %s", ErrUnknownPerson, b)
	}
	if kind == Member {
		return b, a, Leader, nil
	}
	return a, b, kind, nil
}

func (s *Store) put(from, to PersonID, kind Kind) {
	bd := &bond{from: from, to: to, kind: kind}
	s.adj[from][to] = bd
	s.adj[to][from] = bd
}

func (s *Store) follow(leader, member PersonID) {
	s.leaderOf[member] = leader
	if s.members[leader] == nil {
		s.members[leader] = make(map[PersonID]struct{})
	}
	s.members[leader][member] = struct{}{}
}

func (s *Store) unfollow(leader, member PersonID) bool {
	if cur, ok := s.leaderOf[member]; !ok || cur != leader {
		return false
	}
	delete(s.leaderOf, member)
	delete(s.members[leader], member)
	if len(s.members[leader]) == 0 {
		delete(s.members, leader)
	}
	return true
}

// tribal returns the tribe bond on {a, b} as seen from a.
func (s *Store) tribal(a, b PersonID) (Relation, bool) {
	if l, ok := s.leaderOf[b]; ok && l == a {
		return Relation{Other: b, Kind: Leader, Outgoing: true}, true
	}
	if l, ok := s.leaderOf[a]; ok && l == b {
		return Relation{Other: b, Kind: Member}, true
	}
	return Relation{}, false
}

// Add stores the bond kind on the pair {a, b}. Re-adding the same bond is a
// no-op. Family and tribe bonds live in separate layers and never collide
// with each other. Within a layer, Add fails with ErrRelationConflict and
// leaves the graph unchanged when the pair already holds a different family
// bond, when the member already follows another leader, or when the pair is
// led the other way round; use Replace to overwrite deliberately.
func (s *Store) Add(a, b PersonID, kind Kind) error {
	from, to, k, err := s.normalize(a, b, kind)
	if err != nil {
		return err
	}
	if k == Leader {
		if cur, ok := s.leaderOf[to]; ok {
			if cur == from {
				return nil
			}
			return fmt.Errorf("%w: %s already follows %s, refusing %s",
				ErrRelationConflict, to, cur, from)
		}
		if cur, ok := s.leaderOf[from]; ok && cur == to {
			return fmt.Errorf("%w: %s-%s is led the other way, refusing %s",
				ErrRelationConflict, a, b, kind)
		}
		s.follow(from, to)
		return nil
	}
	if existing, ok := s.adj[from][to]; ok {
		if existing.same(from, to, k) {
			return nil
		}
		return fmt.Errorf("%w: %s-%s holds %s, refusing %s",
			ErrRelationConflict, a, b, existing.view(a).Kind, kind)
	}
	s.put(from, to, k)
	return nil
}

// Replace sets the bond kind on {a, b} in its layer, destroying any previous
// bond of that layer on that exact pair. A member re-led by Replace leaves
// their previous leader. It returns the previous kind on the pair as seen
// from a; bonds of the other layer are untouched.
func (s *Store) Replace(a, b PersonID, kind Kind) (prev Kind, replaced bool, err error) {
	from, to, k, err := s.normalize(a, b, kind)
	if err != nil {
		return KindNone, false, err
	}
	if k == Leader {
		if r, ok := s.tribal(a, b); ok {
			if r.Kind == kind {
				return r.Kind, false, nil
			}
			prev, replaced = r.Kind, true
			s.unfollow(to, from)
			slog.Warn("relation overwritten", "a", a, "b", b, "previous", prev, "kind", kind)
		}
		if cur, ok := s.leaderOf[to]; ok {
			s.unfollow(cur, to)
			slog.Warn("member re-led", "member", to, "previous", cur, "leader", from)
		}
		s.follow(from, to)
		return prev, replaced, nil
	}
	if existing, ok := s.adj[from][to]; ok {
		if existing.same(from, to, k) {
			return existing.view(a).Kind, false, nil
		}
		prev = existing.view(a).Kind
		replaced = true
		slog.Warn("relation overwritten", "a", a, "b", b, "previous", prev, "kind", kind)
	}
	s.put(from, to, k)
	return prev, replaced, nil
}

// Remove deletes the bond on {a, b} that reads as kind from a, leaving the
// pair's bond in the other layer alone. It reports whether one existed.
func (s *Store) Remove(a, b PersonID, kind Kind) bool {
	switch kind {
	case Leader:
		return s.unfollow(a, b)
	case Member:
		return s.unfollow(b, a)
	}
	bd, ok := s.adj[a][b]
	if !ok || bd.view(a).Kind != kind {
		return false
	}
	delete(s.adj[a], b)
	delete(s.adj[b], a)
	return true
}

// RemoveNode deletes p and every incident bond, returning how many bonds
// were dropped.
func (s *Store) RemoveNode(p PersonID) int {
	neighbours, ok := s.adj[p]
	if !ok {
		return 0
	}
	dropped := len(neighbours)
	for other := range neighbours {
		delete(s.adj[other], p)
	}
	if leader, ok := s.leaderOf[p]; ok {
		s.unfollow(leader, p)
		dropped++
	}
	for m := range s.members[p] {
		delete(s.leaderOf, m)
		dropped++
	}
	delete(s.members, p)
	delete(s.adj, p)
	delete(s.order, p)
	return dropped
}

// Between returns every bond on {a, b} as seen from a, the family bond
// first.
func (s *Store) Between(a, b PersonID) []Relation {
	var out []Relation
	if r, ok := s.Kin(a, b); ok {
		out = append(out, r)
	}
	if r, ok := s.tribal(a, b); ok {
		out = append(out, r)
	}
	return out
}

// Kin returns the family bond on {a, b} as seen from a.
func (s *Store) Kin(a, b PersonID) (Relation, bool) {
	bd, ok := s.adj[a][b]
	if !ok {
		return Relation{}, false
	}
	return bd.view(a), true
}

// RelationsOf returns every bond touching p, ordered by when the other
// endpoint joined the graph. A pair bonded in both layers lists its family
// bond first.
func (s *Store) RelationsOf(p PersonID) []Relation {
	neighbours := s.adj[p]
	out := make([]Relation, 0, len(neighbours)+len(s.members[p])+1)
	for _, bd := range neighbours {
		out = append(out, bd.view(p))
	}
	if leader, ok := s.leaderOf[p]; ok {
		out = append(out, Relation{Other: leader, Kind: Member})
	}
	for m := range s.members[p] {
		out = append(out, Relation{Other: m, Kind: Leader, Outgoing: true})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Other != out[j].Other {
			return s.order[out[i].Other] < s.order[out[j].Other]
		}
		return !out[i].Kind.Tribal() && out[j].Kind.Tribal()
	})
	return out
}

// HasKind reports whether any bond touching p reads as one of kinds.
func (s *Store) HasKind(p PersonID, kinds ...Kind) bool {
	for _, want := range kinds {
		switch want {
		case Leader:
			if len(s.members[p]) > 0 {
				return true
			}
		case Member:
			if _, ok := s.leaderOf[p]; ok {
				return true
			}
		default:
			for _, bd := range s.adj[p] {
				if bd.view(p).Kind == want {
					return true
				}
			}
		}
	}
	return false
}

// Neighbours returns the persons bonded to p by bonds that read as kind.
func (s *Store) Neighbours(p PersonID, kind Kind) []PersonID {
	var out []PersonID
	for _, r := range s.RelationsOf(p) {
		if r.Kind == kind {
			out = append(out, r.Other)
		}
	}
	return out
}

// LeaderOf returns the leader a member follows.
func (s *Store) LeaderOf(member PersonID) (PersonID, bool) {
	leader, ok := s.leaderOf[member]
	return leader, ok
}

// MembersOf returns the members a leader leads, in node order.
func (s *Store) MembersOf(leader PersonID) []PersonID {
	out := make([]PersonID, 0, len(s.members[leader]))
	for m := range s.members[leader] {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return s.order[out[i]] < s.order[out[j]] })
	return out
}

// Nodes returns every node in insertion order.
func (s *Store) Nodes() []PersonID {
	out := make([]PersonID, 0, len(s.order))
	for id := range s.order {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return s.order[out[i]] < s.order[out[j]] })
	return out
}

// Edges returns every stored bond once, in canonical orientation. A pair
// bonded in both layers yields its family edge first.
func (s *Store) Edges() []Edge {
	var out []Edge
	for _, p := range s.Nodes() {
		for _, bd := range s.adj[p] {
			if bd.from != p {
				continue
			}
			out = append(out, Edge{From: bd.from, To: bd.to, Kind: bd.kind})
		}
	}
	for member, leader := range s.leaderOf {
		out = append(out, Edge{From: leader, To: member, Kind: Leader})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if s.order[out[i].From] != s.order[out[j].From] {
			return s.order[out[i].From] < s.order[out[j].From]
		}
		if s.order[out[i].To] != s.order[out[j].To] {
			return s.order[out[i].To] < s.order[out[j].To]
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// Count returns the number of bonds of the given kind. Member counts leader
// bonds, since each one has exactly one member end.
func (s *Store) Count(kind Kind) int {
	if kind.Tribal() {
		return len(s.leaderOf)
	}
	n := 0
	for _, e := range s.Edges() {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Len returns the number of nodes.
func (s *Store) Len() int {
	return len(s.order)
}
