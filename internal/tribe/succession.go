// Succession primitives. An external routine uses these to re-wire a tribe
// when its leader is lost; none of them run on their own.
package tribe

import (
	"fmt"
	"log/slog"

	"github.com/talgya/kindred/internal/people"
	"github.com/talgya/kindred/internal/relations"
)

// Admit adds member to leader's tribe.
func (s *Service) Admit(leader, member *people.Person) error {
	if s.affiliated(member) {
		return fmt.Errorf("admit %s: already affiliated", member.Name)
	}
	return s.graph.Add(leader.ID, member.ID, relations.Leader)
}

// Detach removes member from leader's tribe. It reports whether member was
// led by leader.
func (s *Service) Detach(leader, member *people.Person) bool {
	return s.graph.Remove(leader.ID, member.ID, relations.Leader)
}

// SuccessorFor picks the member of leader's tribe best fit to lead it:
// eligible by age and charisma, not skipped, highest leadership score.
// skip may be nil.
func (s *Service) SuccessorFor(leader *people.Person, skip func(*people.Person) bool) *people.Person {
	var candidates []*people.Person
	for _, m := range s.lookup(s.graph.MembersOf(leader.ID)) {
		if !s.CanLead(m) || (skip != nil && skip(m)) {
			continue
		}
		candidates = append(candidates, m)
	}
	return bestLeader(candidates)
}

// AppointSuccessor hands every member of old's tribe to successor and
// returns how many members followed. successor must be unaffiliated or one
// of old's members. The ledger entry, if any, moves to the successor.
func (s *Service) AppointSuccessor(old, successor *people.Person) (int, error) {
	if !s.graph.HasKind(old.ID, relations.Leader) {
		return 0, fmt.Errorf("appoint successor to %s: %w", old.Name, ErrNotLeader)
	}
	if leader, ok := s.graph.LeaderOf(successor.ID); ok && leader != old.ID {
		return 0, fmt.Errorf("appoint %s: follows another leader", successor.Name)
	}
	if s.graph.HasKind(successor.ID, relations.Leader) {
		return 0, fmt.Errorf("appoint %s: already leads a tribe", successor.Name)
	}

	members := s.graph.MembersOf(old.ID)
	for _, id := range members {
		s.graph.Remove(old.ID, id, relations.Leader)
	}

	moved := 0
	for _, id := range members {
		if id == successor.ID {
			continue
		}
		if err := s.graph.Add(successor.ID, id, relations.Leader); err != nil {
			return moved, fmt.Errorf("hand over %s: %w", id, err)
		}
		moved++
	}

	if entry := s.entry(old.ID); entry != nil {
		entry.Leader = successor
	}
	s.Refresh(successor)

	slog.Info("leader succeeded", "old", old.Name, "new", successor.Name, "members", moved)
	return moved, nil
}

// Dissolve releases every member of leader's tribe and drops its ledger
// entry. It returns how many members were released.
func (s *Service) Dissolve(leader *people.Person) int {
	members := s.graph.MembersOf(leader.ID)
	for _, id := range members {
		s.graph.Remove(leader.ID, id, relations.Leader)
	}
	s.forget(leader.ID)
	if len(members) > 0 {
		slog.Info("tribe dissolved", "leader", leader.Name, "members", len(members))
	}
	return len(members)
}

// Refresh re-derives the ledger entry for leader from the graph: members,
// strength and wisdom. A leader with no entry is left alone.
func (s *Service) Refresh(leader *people.Person) {
	entry := s.entry(leader.ID)
	if entry == nil {
		return
	}
	entry.Members = s.lookup(s.graph.MembersOf(leader.ID))
	entry.Strength, entry.Wisdom = aggregate(entry.Members)
}

// Forget drops the ledger entry for leader without touching the graph.
func (s *Service) Forget(leader *people.Person) {
	s.forget(leader.ID)
}
