package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/kindred/internal/census"
	"github.com/talgya/kindred/internal/persistence"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestExport(t *testing.T) {
	out := execute(t, "export", "--years", "3", "--population", "25", "--format", "json", "--log-level", "error")

	doc, err := census.Read(bytes.NewBufferString(out), census.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, 3, doc.Year)
	assert.Len(t, doc.History, 4)
	assert.Len(t, doc.Persons, doc.Stats.Population)
}

func TestRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "chronicle.db")
	out := execute(t, "run", "--years", "2", "--population", "20", "--db", path, "--log-level", "error")
	assert.Contains(t, out, "After 2 years")

	db, err := persistence.Open(path)
	require.NoError(t, err)
	defer db.Close()
	rows, err := db.History(10)
	require.NoError(t, err)
	assert.Len(t, rows, 3, "seed year plus two")
	year, err := db.GetMeta("last_year")
	require.NoError(t, err)
	assert.Equal(t, "2", year)
}
