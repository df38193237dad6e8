// Package community ties the registry, relation graph, name provider and the
// family and tribe services into one population, guarded by a single lock.
//
// The services themselves are single-writer and unsynchronised. Every
// exported method here takes the lock for the whole call, so a driver
// mutating the population and an API reading it can share a Community.
package community

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/talgya/kindred/internal/family"
	"github.com/talgya/kindred/internal/names"
	"github.com/talgya/kindred/internal/people"
	"github.com/talgya/kindred/internal/relations"
	"github.com/talgya/kindred/internal/tribe"
)

// Options configures a new community.
type Options struct {
	Seed       int64
	ParentsAge int
	Tribe      tribe.Policy
}

// DefaultOptions returns the standard rules with the given seed.
func DefaultOptions(seed int64) Options {
	return Options{
		Seed:       seed,
		ParentsAge: family.ParentsAge,
		Tribe:      tribe.DefaultPolicy(),
	}
}

// Community is a population and its relation graph.
type Community struct {
	mu sync.RWMutex

	Rand     *rand.Rand
	Names    *names.Provider
	Registry *people.Registry
	Graph    *relations.Store
	Family   *family.Service
	Tribes   *tribe.Service
}

// New builds an empty community.
func New(opts Options) *Community {
	rng := rand.New(rand.NewSource(opts.Seed))
	graph := relations.NewStore()
	provider := names.NewProvider(rng)
	registry := people.NewRegistry(rng, provider, graph)

	fam := family.NewService(rng, registry, graph, provider)
	if opts.ParentsAge > 0 {
		fam.ParentsAge = opts.ParentsAge
	}
	tribes := tribe.NewService(rng, registry, graph, provider)
	if opts.Tribe.MinSize > 0 {
		tribes.Policy = opts.Tribe
	}

	return &Community{
		Rand:     rng,
		Names:    provider,
		Registry: registry,
		Graph:    graph,
		Family:   fam,
		Tribes:   tribes,
	}
}

// Update runs fn with exclusive access to the services.
func (c *Community) Update(fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn()
}

// View runs fn with shared read access to the services.
func (c *Community) View(fn func()) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn()
}

// CreatePerson registers a new person.
func (c *Community) CreatePerson(opts people.CreateOptions) (*people.Person, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Registry.Create(opts)
}

// Persons returns the living population in creation order.
func (c *Community) Persons() []*people.Person {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Registry.All()
}

// Person looks up one living person.
func (c *Community) Person(id people.PersonID) (*people.Person, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Registry.Get(id)
}

// FormFamily marries a couple drawn from pool, or from everyone when pool
// is nil.
func (c *Community) FormFamily(pool []*people.Person) (*family.Couple, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pool == nil {
		pool = c.Registry.All()
	}
	return c.Family.FormFamily(pool)
}

// GrowFamily gives the person with the given id and their spouse a child.
func (c *Community) GrowFamily(id people.PersonID) (*people.Person, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.Registry.Get(id)
	if !ok {
		return nil, fmt.Errorf("grow family %s: %w", id, people.ErrUnknownPerson)
	}
	return c.Family.GrowFamily(p)
}

// IsInFamily reports whether the person has any family bond.
func (c *Community) IsInFamily(id people.PersonID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.Registry.Get(id)
	return ok && c.Family.IsInFamily(p)
}

// FormTribe forms a tribe; an empty name is generated.
func (c *Community) FormTribe(name string) (*tribe.Tribe, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Tribes.FormTribe(name)
}

// TribeInfo reconstructs the tribe led by the given person.
func (c *Community) TribeInfo(leader people.PersonID) *tribe.Info {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.Registry.Get(leader)
	if !ok {
		return nil
	}
	return c.Tribes.TribeInfo(p)
}

// MergeTribes merges the tribes of two leaders.
func (c *Community) MergeTribes(a, b people.PersonID) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pa, okA := c.Registry.Get(a)
	pb, okB := c.Registry.Get(b)
	if !okA || !okB {
		return false, nil
	}
	return c.Tribes.MergeTribes(pa, pb)
}

// AllTribes reconstructs every tribe from the graph.
func (c *Community) AllTribes() []tribe.Info {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Tribes.AllTribes()
}

// Relations returns the raw bonds of one person.
func (c *Community) Relations(id people.PersonID) []relations.Relation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Graph.RelationsOf(id)
}

// Bury removes a person and every bond touching them. Succession for a
// buried leader must happen before this call.
func (c *Community) Bury(id people.PersonID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bury(id)
}

func (c *Community) bury(id people.PersonID) error {
	if err := c.Registry.Remove(id); err != nil {
		return err
	}
	c.Graph.RemoveNode(id)
	return nil
}

// BuryLocked is Bury for callers already inside Update.
func (c *Community) BuryLocked(id people.PersonID) error {
	return c.bury(id)
}
