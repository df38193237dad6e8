// Simulation drives a community forward one year at a time: aging, deaths,
// succession, tribe and family formation, births and merges.
package engine

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/talgya/kindred/internal/climate"
	"github.com/talgya/kindred/internal/community"
	"github.com/talgya/kindred/internal/people"
)

// Event categories.
const (
	CategoryDeath      = "death"
	CategoryBirth      = "birth"
	CategoryFamily     = "family"
	CategoryTribe      = "tribe"
	CategorySuccession = "succession"
	CategoryMerge      = "merge"
	CategoryClimate    = "climate"
)

// Event is a notable occurrence in the community.
type Event struct {
	Year        int    `json:"year" yaml:"year" db:"year"`
	Description string `json:"description" yaml:"description" db:"description"`
	Category    string `json:"category" yaml:"category" db:"category"`
}

// Stats summarises the community at the end of a year.
type Stats struct {
	Year       int     `json:"year" yaml:"year" db:"year"`
	Population int     `json:"population" yaml:"population" db:"population"`
	Tribes     int     `json:"tribes" yaml:"tribes" db:"tribes"`
	Families   int     `json:"families" yaml:"families" db:"families"`
	Births     int     `json:"births" yaml:"births" db:"births"`
	Deaths     int     `json:"deaths" yaml:"deaths" db:"deaths"`
	AvgAge     float64 `json:"avg_age" yaml:"avg_age" db:"avg_age"`
	Hardship   float64 `json:"hardship" yaml:"hardship" db:"hardship"`
}

// Rules holds the yearly population dynamics.
type Rules struct {
	LeaderShare     float64 // Share of seeded persons given leader-like traits
	DeathAge        int     // Mortality starts above this age
	DeathDivisor    float64 // Chance per year past DeathAge is (age-DeathAge)/DeathDivisor
	PeoplePerTribe  int     // One tribe wanted per this many persons
	TribeAttempts   int     // Formation attempts per year while below target
	MinFamilies     int     // Marriage attempts per year, at least
	PeoplePerFamily int     // One marriage attempt per this many persons
	BirthChance     float64 // Chance per couple per year of a child
	MaxEvents       int     // Events kept in memory
	MaxHistory      int     // Yearly stats kept in memory
}

// DefaultRules returns the standard dynamics.
func DefaultRules() Rules {
	return Rules{
		LeaderShare:     0.3,
		DeathAge:        60,
		DeathDivisor:    200,
		PeoplePerTribe:  20,
		TribeAttempts:   5,
		MinFamilies:     3,
		PeoplePerFamily: 6,
		BirthChance:     0.3,
		MaxEvents:       1000,
		MaxHistory:      1000,
	}
}

// Simulation wires a community to a climate and a set of rules.
type Simulation struct {
	Community *community.Community
	Climate   *climate.Climate
	Rules     Rules

	Events  []Event
	History []Stats
	Stats   Stats

	// OnYearEnd, if set, receives each year's stats and new events while
	// the community is still locked.
	OnYearEnd func(stats Stats, events []Event) error
}

// NewSimulation creates a simulation over c.
func NewSimulation(c *community.Community, clim *climate.Climate, rules Rules) *Simulation {
	return &Simulation{
		Community: c,
		Climate:   clim,
		Rules:     rules,
	}
}

// CurrentYear returns the last completed year.
func (s *Simulation) CurrentYear() int {
	var year int
	s.Community.View(func() { year = s.Community.Registry.Year })
	return year
}

// Seed creates n persons. A share of them are leader-like: high charisma,
// courage and intelligence, aged 25 to 40.
func (s *Simulation) Seed(n int) error {
	err := s.Community.Update(func() error {
		rng := s.Community.Rand
		for i := 0; i < n; i++ {
			p, err := s.Community.Registry.Create(people.CreateOptions{})
			if err != nil {
				return fmt.Errorf("seed person %d: %w", i, err)
			}
			if rng.Float64() < s.Rules.LeaderShare {
				p.Traits.Charisma = 0.7 + rng.Float64()*0.3
				p.Traits.Courage = 0.7 + rng.Float64()*0.3
				p.Traits.Intelligence = 0.7 + rng.Float64()*0.3
				p.Age = 25 + rng.Intn(16)
			}
		}
		s.updateStats(0, 0, 1)
		return nil
	})
	if err != nil {
		return err
	}
	slog.Info("population seeded", "persons", humanize.Comma(int64(n)))
	return nil
}

// TickYear advances the community by one year.
func (s *Simulation) TickYear() error {
	return s.Community.Update(func() error {
		return s.tickYear()
	})
}

func (s *Simulation) tickYear() error {
	c := s.Community
	c.Registry.Year++
	year := c.Registry.Year
	mark := len(s.Events)

	hardship := 1.0
	if s.Climate != nil {
		hardship = s.Climate.Hardship(year)
		slog.Debug("climate", "report", climate.Report(year, hardship))
		if band := climate.Describe(hardship); band == "harsh" || band == "bountiful" {
			s.emit(year, CategoryClimate, fmt.Sprintf("A %s year (hardship %.2f)", band, hardship))
		}
	}

	c.Registry.AgeAll(1)
	dead := s.processDeaths(year, hardship)
	s.processSuccession(year, dead)
	for _, p := range dead {
		if err := c.BuryLocked(p.ID); err != nil {
			return fmt.Errorf("bury %s: %w", p.Name, err)
		}
	}
	for _, t := range c.Tribes.Ledger() {
		c.Tribes.Refresh(t.Leader)
	}

	if err := s.processTribes(year); err != nil {
		return err
	}
	if err := s.processFamilies(year); err != nil {
		return err
	}
	births, err := s.processBirths(year)
	if err != nil {
		return err
	}
	if err := s.processMerges(year); err != nil {
		return err
	}

	s.updateStats(births, len(dead), hardship)
	s.report()

	fresh := append([]Event(nil), s.Events[mark:]...)
	if len(s.Events) > s.Rules.MaxEvents && s.Rules.MaxEvents > 0 {
		s.Events = s.Events[len(s.Events)-s.Rules.MaxEvents:]
	}
	if s.OnYearEnd != nil {
		return s.OnYearEnd(s.Stats, fresh)
	}
	return nil
}

func (s *Simulation) emit(year int, category, description string) {
	s.Events = append(s.Events, Event{Year: year, Description: description, Category: category})
}

// processDeaths rolls old-age mortality, scaled by hardship.
func (s *Simulation) processDeaths(year int, hardship float64) []*people.Person {
	var dead []*people.Person
	for _, p := range s.Community.Registry.All() {
		if p.Age <= s.Rules.DeathAge {
			continue
		}
		chance := float64(p.Age-s.Rules.DeathAge) / s.Rules.DeathDivisor * hardship
		if s.Community.Rand.Float64() < chance {
			dead = append(dead, p)
			s.emit(year, CategoryDeath, fmt.Sprintf("%s has died at %d", p.Name, p.Age))
		}
	}
	return dead
}

// processTribes forms tribes until there is one per PeoplePerTribe persons.
func (s *Simulation) processTribes(year int) error {
	c := s.Community
	tribes := len(c.Tribes.AllTribes())
	if tribes == 0 {
		if err := s.formTribe(year); err != nil {
			return err
		}
		tribes = len(c.Tribes.AllTribes())
	}

	pop := c.Registry.Len()
	if pop < c.Tribes.Policy.MinSize {
		return nil
	}
	target := s.tribeTarget(pop)
	for i := 0; i < s.Rules.TribeAttempts && tribes < target; i++ {
		if err := s.formTribe(year); err != nil {
			return err
		}
		tribes = len(c.Tribes.AllTribes())
	}
	return nil
}

func (s *Simulation) tribeTarget(pop int) int {
	return max(1, pop/s.Rules.PeoplePerTribe)
}

func (s *Simulation) formTribe(year int) error {
	t, err := s.Community.Tribes.FormTribe("")
	if err != nil {
		return fmt.Errorf("form tribe: %w", err)
	}
	if t != nil {
		s.emit(year, CategoryTribe, fmt.Sprintf("%s gathers %d followers as %s",
			t.Leader.Name, len(t.Members), t.Name))
	}
	return nil
}

// processFamilies runs the yearly marriage attempts.
func (s *Simulation) processFamilies(year int) error {
	c := s.Community
	attempts := max(s.Rules.MinFamilies, c.Registry.Len()/s.Rules.PeoplePerFamily)
	for i := 0; i < attempts; i++ {
		couple, err := c.Family.FormFamily(c.Registry.All())
		if err != nil {
			return fmt.Errorf("form family: %w", err)
		}
		if couple == nil {
			break
		}
		s.emit(year, CategoryFamily, fmt.Sprintf("%s marries %s", couple.Father.Name, couple.Mother.Name))
	}
	return nil
}

// processBirths gives each couple a chance of a child.
func (s *Simulation) processBirths(year int) (int, error) {
	c := s.Community
	births := 0
	for _, couple := range c.Family.Couples() {
		if c.Rand.Float64() >= s.Rules.BirthChance {
			continue
		}
		child, err := c.Family.GrowFamily(couple.Father)
		if err != nil {
			return births, fmt.Errorf("grow family: %w", err)
		}
		if child == nil {
			continue
		}
		births++
		s.emit(year, CategoryBirth, fmt.Sprintf("%s is born to %s and %s",
			child.Name, couple.Father.Name, couple.Mother.Name))
	}
	return births, nil
}

// processMerges folds the two smallest tribes together while there are
// more than one above the target.
func (s *Simulation) processMerges(year int) error {
	c := s.Community
	infos := c.Tribes.AllTribes()
	if len(infos) <= s.tribeTarget(c.Registry.Len())+1 {
		return nil
	}
	sort.SliceStable(infos, func(i, j int) bool { return infos[i].Size < infos[j].Size })
	a, b := infos[0], infos[1]
	merged, err := c.Tribes.MergeTribes(a.Leader, b.Leader)
	if err != nil {
		return fmt.Errorf("merge tribes: %w", err)
	}
	if merged {
		s.emit(year, CategoryMerge, fmt.Sprintf("%s and %s unite", a.Name, b.Name))
	}
	return nil
}

func (s *Simulation) updateStats(births, deaths int, hardship float64) {
	c := s.Community
	all := c.Registry.All()
	ages := make([]float64, len(all))
	for i, p := range all {
		ages[i] = float64(p.Age)
	}

	s.Stats = Stats{
		Year:       c.Registry.Year,
		Population: len(all),
		Tribes:     len(c.Tribes.AllTribes()),
		Families:   len(c.Family.Couples()),
		Births:     births,
		Deaths:     deaths,
		AvgAge:     people.Mean(ages...),
		Hardship:   hardship,
	}
	s.History = append(s.History, s.Stats)
	if s.Rules.MaxHistory > 0 && len(s.History) > s.Rules.MaxHistory {
		s.History = s.History[len(s.History)-s.Rules.MaxHistory:]
	}
}

func (s *Simulation) report() {
	slog.Info("yearly report",
		"year", humanize.Ordinal(s.Stats.Year),
		"population", humanize.Comma(int64(s.Stats.Population)),
		"tribes", s.Stats.Tribes,
		"families", s.Stats.Families,
		"births", s.Stats.Births,
		"deaths", s.Stats.Deaths,
		"avg_age", fmt.Sprintf("%.1f", s.Stats.AvgAge),
		"hardship", fmt.Sprintf("%.2f", s.Stats.Hardship),
	)
}

// RecentEvents returns up to limit of the newest events, oldest first.
func (s *Simulation) RecentEvents(limit int) []Event {
	var out []Event
	s.Community.View(func() {
		start := 0
		if limit > 0 && len(s.Events) > limit {
			start = len(s.Events) - limit
		}
		out = append(out, s.Events[start:]...)
	})
	return out
}

// LatestStats returns the most recent yearly stats and the retained history.
func (s *Simulation) LatestStats() (Stats, []Stats) {
	var (
		latest  Stats
		history []Stats
	)
	s.Community.View(func() {
		latest = s.Stats
		history = append(history, s.History...)
	})
	return latest, history
}
