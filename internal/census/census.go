// Package census renders a simulation as a self-contained document for
// export as YAML or JSON.
package census

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/talgya/kindred/internal/community"
	"github.com/talgya/kindred/internal/engine"
	"github.com/talgya/kindred/internal/people"
	"github.com/talgya/kindred/internal/relations"
)

// Supported formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Family is one couple and their living children.
type Family struct {
	Father   people.PersonID   `json:"father" yaml:"father"`
	Mother   people.PersonID   `json:"mother" yaml:"mother"`
	Children []people.PersonID `json:"children" yaml:"children"`
}

// Document is a full census.
type Document struct {
	Year      int                   `json:"year" yaml:"year"`
	Stats     engine.Stats          `json:"stats" yaml:"stats"`
	Persons   []people.Person       `json:"persons" yaml:"persons"`
	Relations []relations.Edge      `json:"relations" yaml:"relations"`
	Tribes    []community.TribeView `json:"tribes" yaml:"tribes"`
	Families  []Family              `json:"families" yaml:"families"`
	History   []engine.Stats        `json:"history" yaml:"history"`
	Events    []engine.Event        `json:"events" yaml:"events"`
}

// Build takes a census of sim. eventLimit caps the recent events included;
// zero includes none.
func Build(sim *engine.Simulation, eventLimit int) Document {
	c := sim.Community
	snap := c.Snapshot()
	stats, history := sim.LatestStats()

	families := []Family{}
	c.View(func() {
		for _, couple := range c.Family.Couples() {
			f := Family{Father: couple.Father.ID, Mother: couple.Mother.ID, Children: []people.PersonID{}}
			for _, child := range c.Family.ChildrenOf(couple.Father) {
				f.Children = append(f.Children, child.ID)
			}
			families = append(families, f)
		}
	})

	events := []engine.Event{}
	if eventLimit > 0 {
		events = append(events, sim.RecentEvents(eventLimit)...)
	}
	edges := snap.Edges
	if edges == nil {
		edges = []relations.Edge{}
	}

	return Document{
		Year:      snap.Year,
		Stats:     stats,
		Persons:   snap.Persons,
		Relations: edges,
		Tribes:    snap.Tribes,
		Families:  families,
		History:   history,
		Events:    events,
	}
}

// Write encodes doc to w in the given format.
func Write(w io.Writer, doc Document, format string) error {
	switch strings.ToLower(format) {
	case FormatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// Read decodes a YAML or JSON census.
func Read(r io.Reader, format string) (Document, error) {
	var doc Document
	switch strings.ToLower(format) {
	case FormatYAML, "yml":
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			return Document{}, fmt.Errorf("decode yaml: %w", err)
		}
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return Document{}, fmt.Errorf("decode json: %w", err)
		}
	default:
		return Document{}, fmt.Errorf("unknown export format %q", format)
	}
	return doc, nil
}
