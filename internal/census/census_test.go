package census_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/kindred/internal/census"
	"github.com/talgya/kindred/internal/climate"
	"github.com/talgya/kindred/internal/community"
	"github.com/talgya/kindred/internal/engine"
)

func simulate(t *testing.T) *engine.Simulation {
	t.Helper()
	c := community.New(community.DefaultOptions(21))
	sim := engine.NewSimulation(c, climate.New(climate.DefaultConfig(21)), engine.DefaultRules())
	require.NoError(t, sim.Seed(40))
	for i := 0; i < 10; i++ {
		require.NoError(t, sim.TickYear())
	}
	return sim
}

func TestBuild(t *testing.T) {
	sim := simulate(t)
	doc := census.Build(sim, 5)

	assert.Equal(t, 10, doc.Year)
	assert.Equal(t, 10, doc.Stats.Year)
	assert.Len(t, doc.Persons, doc.Stats.Population)
	assert.Len(t, doc.History, 11)
	assert.LessOrEqual(t, len(doc.Events), 5)
	assert.Len(t, doc.Families, doc.Stats.Families)
	assert.Len(t, doc.Tribes, doc.Stats.Tribes)

	assert.Empty(t, census.Build(sim, 0).Events)
}

func TestWriteRead(t *testing.T) {
	doc := census.Build(simulate(t), 20)

	for _, format := range []string{census.FormatYAML, census.FormatJSON, "YML"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, census.Write(&buf, doc, format))

			got, err := census.Read(&buf, format)
			require.NoError(t, err)
			assert.Equal(t, doc.Year, got.Year)
			assert.Equal(t, doc.Stats, got.Stats)
			assert.Equal(t, doc.Persons, got.Persons)
			assert.Equal(t, doc.Tribes, got.Tribes)
			assert.ElementsMatch(t, doc.Relations, got.Relations)
			assert.ElementsMatch(t, doc.Events, got.Events)
			assert.Len(t, got.Families, len(doc.Families))
		})
	}
}

func TestWrite_yamlShape(t *testing.T) {
	doc := census.Build(simulate(t), 1)
	var buf bytes.Buffer
	require.NoError(t, census.Write(&buf, doc, census.FormatYAML))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "year: 10\n"), out[:40])
	assert.Contains(t, out, "\n  population: ")
	assert.Regexp(t, `gender: (male|female)`, out)
}

func TestUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorContains(t, census.Write(&buf, census.Document{}, "toml"), "unknown export format")
	_, err := census.Read(strings.NewReader(""), "xml")
	assert.ErrorContains(t, err, "unknown export format")
}
