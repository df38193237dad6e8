// Succession: re-wiring tribes whose leaders die.
package engine

import (
	"fmt"

	"github.com/talgya/kindred/internal/people"
	"github.com/talgya/kindred/internal/relations"
)

// processSuccession hands each dying leader's tribe to the best surviving
// eligible member, or dissolves it when nobody qualifies. It must run
// before the dead are buried.
func (s *Simulation) processSuccession(year int, dead []*people.Person) {
	c := s.Community
	dying := make(map[people.PersonID]bool, len(dead))
	for _, p := range dead {
		dying[p.ID] = true
	}
	skip := func(p *people.Person) bool { return dying[p.ID] }

	for _, p := range dead {
		if !c.Graph.HasKind(p.ID, relations.Leader) {
			c.Tribes.Forget(p)
			continue
		}
		name := "Tribe of " + p.Name
		if info := c.Tribes.TribeInfo(p); info != nil {
			name = info.Name
		}

		successor := c.Tribes.SuccessorFor(p, skip)
		if successor == nil {
			released := c.Tribes.Dissolve(p)
			s.emit(year, CategorySuccession, fmt.Sprintf("%s breaks up after %s dies; %d released",
				name, p.Name, released))
			continue
		}

		moved, err := c.Tribes.AppointSuccessor(p, successor)
		if err != nil {
			// Only reachable if the graph was edited behind the service.
			released := c.Tribes.Dissolve(p)
			s.emit(year, CategorySuccession, fmt.Sprintf("%s breaks up after %s dies; %d released",
				name, p.Name, released))
			continue
		}
		s.emit(year, CategorySuccession, fmt.Sprintf("%s succeeds %s at the head of %s (%d followers)",
			successor.Name, p.Name, name, moved))
	}
}
