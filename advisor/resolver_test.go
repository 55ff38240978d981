package advisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogOf(names ...string) *Catalog {
	entries := make([]CatalogEntry, len(names))
	for i, n := range names {
		entries[i] = CatalogEntry{Line: i + 2, CityNameRaw: n}
	}
	return NewCatalog(entries)
}

func fixedScorer(scores map[string]int) Scorer {
	return func(_, candidate string) int { return scores[candidate] }
}

func TestResolve_AccentAndCaseInsensitive(t *testing.T) {
	catalog := catalogOf("Bogotá", "Medellín", "Cali")
	r := NewResolver(nil)

	var first ResolvedMatch
	for i, q := range []string{"MEDELLÍN", "medellin", "  Medellín  "} {
		m, err := r.Resolve(q, catalog)
		require.NoError(t, err)
		assert.True(t, m.Found)
		assert.Equal(t, "Medellín", m.Entry.CityNameRaw)
		assert.Equal(t, 100, m.Similarity)
		if i == 0 {
			first = m
			continue
		}
		assert.Same(t, first.Entry, m.Entry)
		assert.Equal(t, first.Similarity, m.Similarity)
	}
}

func TestResolve_ThresholdBoundary(t *testing.T) {
	catalog := catalogOf("Cali")

	m, err := NewResolver(fixedScorer(map[string]int{"cali": 70})).Resolve("kali", catalog)
	require.NoError(t, err)
	assert.True(t, m.Found)
	assert.Equal(t, 70, m.Similarity)
	require.NotNil(t, m.Entry)

	m, err = NewResolver(fixedScorer(map[string]int{"cali": 69})).Resolve("kali", catalog)
	require.NoError(t, err)
	assert.False(t, m.Found)
	assert.Equal(t, 69, m.Similarity)
	assert.Nil(t, m.Entry)
	assert.Equal(t, "cali", m.Candidate)
	assert.Equal(t, "Cali", m.CandidateDisplay)
}

func TestResolve_TiesKeepFirstIndexed(t *testing.T) {
	catalog := catalogOf("Cota", "Cali", "Chía")
	scorer := func(string, string) int { return 80 }

	for range 5 {
		m, err := NewResolver(scorer).Resolve("cxxa", catalog)
		require.NoError(t, err)
		assert.Equal(t, "Cota", m.Entry.CityNameRaw)
	}
}

func TestResolve_BestScoreWins(t *testing.T) {
	catalog := catalogOf("Cota", "Cali", "Chía")
	m, err := NewResolver(fixedScorer(map[string]int{"cota": 40, "cali": 75, "chia": 90})).Resolve("q", catalog)
	require.NoError(t, err)
	assert.Equal(t, "Chía", m.Entry.CityNameRaw)
	assert.Equal(t, 90, m.Similarity)
}

func TestResolve_ClampsScorer(t *testing.T) {
	m, err := NewResolver(func(string, string) int { return 250 }).Resolve("q", catalogOf("Cali"))
	require.NoError(t, err)
	assert.Equal(t, 100, m.Similarity)
}

func TestResolve_NotFoundIsNotAnError(t *testing.T) {
	m, err := NewResolver(nil).Resolve("xyzabc123", catalogOf("Bogotá", "Medellín"))
	require.NoError(t, err)
	assert.False(t, m.Found)
	assert.Nil(t, m.Entry)
	assert.NotEmpty(t, m.CandidateDisplay)
	assert.Less(t, m.Similarity, AcceptanceThreshold)
}

func TestResolve_EmptyQuery(t *testing.T) {
	for _, q := range []string{"", "   ", "\t\n"} {
		_, err := NewResolver(nil).Resolve(q, catalogOf("Cali"))
		assert.ErrorIs(t, err, ErrEmptyQuery)
	}
}

func TestResolve_EmptyCatalog(t *testing.T) {
	_, err := NewResolver(nil).Resolve("cali", NewCatalog(nil))
	assert.ErrorIs(t, err, ErrCatalogEmpty)

	_, err = NewResolver(nil).Resolve("cali", catalogOf("", "  "))
	assert.ErrorIs(t, err, ErrCatalogEmpty)

	_, err = NewResolver(nil).Resolve("", nil)
	assert.ErrorIs(t, err, ErrCatalogEmpty)
}
