// Read-only copies of the population for the API and exports.
package community

import (
	"github.com/talgya/kindred/internal/people"
	"github.com/talgya/kindred/internal/relations"
	"github.com/talgya/kindred/internal/tribe"
)

// TribeView is a tribe flattened to identifiers.
type TribeView struct {
	Name       string            `json:"name" yaml:"name"`
	Leader     people.PersonID   `json:"leader" yaml:"leader"`
	LeaderName string            `json:"leader_name" yaml:"leader_name"`
	Members    []people.PersonID `json:"members" yaml:"members"`
	Size       int               `json:"size" yaml:"size"`
	Strength   float64           `json:"strength" yaml:"strength"`
	Wisdom     float64           `json:"wisdom" yaml:"wisdom"`
}

// NewTribeView flattens a reconstructed tribe.
func NewTribeView(info tribe.Info) TribeView {
	ids := make([]people.PersonID, len(info.Members))
	for i, m := range info.Members {
		ids[i] = m.ID
	}
	return TribeView{
		Name:       info.Name,
		Leader:     info.Leader.ID,
		LeaderName: info.Leader.Name,
		Members:    ids,
		Size:       info.Size,
		Strength:   info.Strength,
		Wisdom:     info.Wisdom,
	}
}

// Snapshot is a point-in-time copy of the community.
type Snapshot struct {
	Year     int              `json:"year" yaml:"year"`
	Persons  []people.Person  `json:"persons" yaml:"persons"`
	Edges    []relations.Edge `json:"edges" yaml:"edges"`
	Tribes   []TribeView      `json:"tribes" yaml:"tribes"`
	Families int              `json:"families" yaml:"families"`
}

// Snapshot copies the current population, graph and tribes.
func (c *Community) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot()
}

func (c *Community) snapshot() Snapshot {
	all := c.Registry.All()
	persons := make([]people.Person, len(all))
	for i, p := range all {
		persons[i] = *p
	}

	infos := c.Tribes.AllTribes()
	tribes := make([]TribeView, len(infos))
	for i, info := range infos {
		tribes[i] = NewTribeView(info)
	}

	return Snapshot{
		Year:     c.Registry.Year,
		Persons:  persons,
		Edges:    c.Graph.Edges(),
		Tribes:   tribes,
		Families: c.Graph.Count(relations.Spouse),
	}
}
