package family_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/kindred/internal/family"
	"github.com/talgya/kindred/internal/names"
	"github.com/talgya/kindred/internal/people"
	"github.com/talgya/kindred/internal/relations"
)

type world struct {
	rng      *rand.Rand
	registry *people.Registry
	graph    *relations.Store
	family   *family.Service
}

func newWorld(seed int64) *world {
	rng := rand.New(rand.NewSource(seed))
	graph := relations.NewStore()
	provider := names.NewProvider(rng)
	registry := people.NewRegistry(rng, provider, graph)
	return &world{
		rng:      rng,
		registry: registry,
		graph:    graph,
		family:   family.NewService(rng, registry, graph, provider),
	}
}

func (w *world) add(t *testing.T, gender string, age int) *people.Person {
	t.Helper()
	p, err := w.registry.Create(people.CreateOptions{Gender: gender, Age: &age})
	require.NoError(t, err)
	return p
}

func (w *world) spouses(p *people.Person) int {
	return len(w.graph.Neighbours(p.ID, relations.Spouse))
}

type failingNames struct{}

func (failingNames) Generate(people.Gender) (string, error) { return "", errors.New("out of names") }

type testCases []testCase
type testCase struct {
	name string
	run  func(t *testing.T)
}

func (tcs testCases) run(t *testing.T) {
	for _, tc := range tcs {
		t.Run(tc.name, tc.run)
	}
}

func TestFormFamily(t *testing.T) {
	testCases{
		{"five couples then nothing", func(t *testing.T) {
			w := newWorld(1)
			for i := 0; i < 5; i++ {
				w.add(t, "male", 20+i)
				w.add(t, "female", 20+i)
			}

			for i := 0; i < 5; i++ {
				couple, err := w.family.FormFamily(w.registry.All())
				require.NoError(t, err)
				require.NotNil(t, couple, "formation %d", i)
				assert.Equal(t, people.Male, couple.Father.Gender)
				assert.Equal(t, people.Female, couple.Mother.Gender)
			}

			couple, err := w.family.FormFamily(w.registry.All())
			require.NoError(t, err)
			assert.Nil(t, couple)

			for _, p := range w.registry.All() {
				assert.Equal(t, 1, w.spouses(p), p.Name)
			}
			assert.Len(t, w.family.Couples(), 5)
		}},

		{"too young", func(t *testing.T) {
			w := newWorld(2)
			w.add(t, "male", family.ParentsAge-1)
			w.add(t, "female", 30)
			couple, err := w.family.FormFamily(w.registry.All())
			require.NoError(t, err)
			assert.Nil(t, couple)
			assert.Empty(t, w.graph.Edges())
		}},

		{"one gender only", func(t *testing.T) {
			w := newWorld(3)
			w.add(t, "female", 30)
			w.add(t, "female", 31)
			couple, err := w.family.FormFamily(w.registry.All())
			require.NoError(t, err)
			assert.Nil(t, couple)
		}},

		{"empty pool", func(t *testing.T) {
			w := newWorld(3)
			couple, err := w.family.FormFamily(nil)
			require.NoError(t, err)
			assert.Nil(t, couple)
		}},

		{"kin are never paired", func(t *testing.T) {
			w := newWorld(4)
			father := w.add(t, "male", 50)
			daughter := w.add(t, "female", 20)
			other := w.add(t, "female", 22)
			require.NoError(t, w.graph.Add(father.ID, daughter.ID, relations.Father))

			couple, err := w.family.FormFamily(w.registry.All())
			require.NoError(t, err)
			require.NotNil(t, couple)
			assert.Equal(t, other, couple.Mother)

			couple, err = w.family.FormFamily(w.registry.All())
			require.NoError(t, err)
			assert.Nil(t, couple)
		}},

		{"a chief may marry a follower", func(t *testing.T) {
			w := newWorld(12)
			chief := w.add(t, "male", 40)
			follower := w.add(t, "female", 25)
			require.NoError(t, w.graph.Add(chief.ID, follower.ID, relations.Leader))

			couple, err := w.family.FormFamily(w.registry.All())
			require.NoError(t, err)
			require.NotNil(t, couple)
			assert.Equal(t, follower, couple.Mother)
			assert.Len(t, w.graph.Between(chief.ID, follower.ID), 2)
			assert.True(t, w.family.IsInFamily(follower))
		}},

		{"pool restricts candidates", func(t *testing.T) {
			w := newWorld(5)
			m := w.add(t, "male", 30)
			w.add(t, "female", 30)
			f := w.add(t, "female", 30)
			couple, err := w.family.FormFamily([]*people.Person{m, f})
			require.NoError(t, err)
			require.NotNil(t, couple)
			assert.Equal(t, f, couple.Mother)
		}},
	}.run(t)
}

func TestGrowFamily(t *testing.T) {
	testCases{
		{"child inherits and is linked", func(t *testing.T) {
			w := newWorld(6)
			dad := w.add(t, "male", 30)
			mum := w.add(t, "female", 28)
			require.NoError(t, w.graph.Add(dad.ID, mum.ID, relations.Spouse))
			w.registry.Year = 7

			child, err := w.family.GrowFamily(mum)
			require.NoError(t, err)
			require.NotNil(t, child)

			assert.Zero(t, child.Age)
			assert.Equal(t, 7, child.Born)
			assert.NotEmpty(t, child.Name)
			assert.NoError(t, child.Traits.Validate())
			assert.Equal(t, 3, w.registry.Len())
			assert.True(t, w.graph.HasNode(child.ID))

			r, ok := w.graph.Kin(dad.ID, child.ID)
			require.True(t, ok)
			assert.Equal(t, relations.Father, r.Kind)
			assert.True(t, r.Outgoing)
			r, ok = w.graph.Kin(mum.ID, child.ID)
			require.True(t, ok)
			assert.Equal(t, relations.Mother, r.Kind)

			assert.ElementsMatch(t, []*people.Person{dad, mum}, w.family.ParentsOf(child))
			assert.Equal(t, []*people.Person{child}, w.family.ChildrenOf(dad))
			assert.True(t, w.family.IsInFamily(child))
		}},

		{"traits stay near the parents' mean", func(t *testing.T) {
			w := newWorld(7)
			dad := w.add(t, "male", 30)
			mum := w.add(t, "female", 30)
			require.NoError(t, w.graph.Add(dad.ID, mum.ID, relations.Spouse))
			for i := 0; i < 20; i++ {
				child, err := w.family.GrowFamily(dad)
				require.NoError(t, err)
				require.NotNil(t, child)
				want := people.Mean(dad.Traits.Courage, mum.Traits.Courage)
				assert.InDelta(t, want, child.Traits.Courage, people.InheritanceNoise+1e-9)
			}
			assert.Len(t, w.family.ChildrenOf(mum), 20)
		}},

		{"no spouse", func(t *testing.T) {
			w := newWorld(8)
			single := w.add(t, "male", 30)
			child, err := w.family.GrowFamily(single)
			require.NoError(t, err)
			assert.Nil(t, child)
			assert.Equal(t, 1, w.registry.Len())
		}},

		{"under-age spouse", func(t *testing.T) {
			w := newWorld(9)
			dad := w.add(t, "male", 30)
			mum := w.add(t, "female", 15)
			require.NoError(t, w.graph.Add(dad.ID, mum.ID, relations.Spouse))
			child, err := w.family.GrowFamily(dad)
			require.NoError(t, err)
			assert.Nil(t, child)
		}},

		{"name failure", func(t *testing.T) {
			w := newWorld(10)
			svc := family.NewService(w.rng, w.registry, w.graph, failingNames{})
			dad := w.add(t, "male", 30)
			mum := w.add(t, "female", 30)
			require.NoError(t, w.graph.Add(dad.ID, mum.ID, relations.Spouse))
			child, err := svc.GrowFamily(dad)
			require.NoError(t, err)
			assert.Nil(t, child)
			assert.Equal(t, 2, w.registry.Len())
		}},
	}.run(t)
}

func TestIsInFamily(t *testing.T) {
	w := newWorld(11)
	a := w.add(t, "male", 30)
	b := w.add(t, "female", 30)
	c := w.add(t, "male", 30)
	require.NoError(t, w.graph.Add(a.ID, b.ID, relations.Spouse))
	require.NoError(t, w.graph.Add(c.ID, a.ID, relations.Leader))

	assert.True(t, w.family.IsInFamily(a))
	assert.True(t, w.family.IsInFamily(b))
	assert.False(t, w.family.IsInFamily(c), "tribe bonds are not family")
	assert.Equal(t, b, w.family.SpouseOf(a))
	assert.Nil(t, w.family.SpouseOf(c))
}
