// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/trendsift/pkg/types"
)

func testItems() []types.ResultItem {
	published := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	return []types.ResultItem{
		{ID: "web:https://a.example", Provider: types.ProviderWeb, Title: "A", URL: "https://a.example", Snippet: "first", Position: 1, Published: &published},
		{ID: "web:https://b.example", Provider: types.ProviderWeb, Title: "B", URL: "https://b.example", Snippet: "second", Position: 2},
		{ID: "neural:https://c.example", Provider: types.ProviderNeural, Title: "C", URL: "https://c.example", Snippet: "third", Position: 1},
	}
}

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestReplaceAndAll(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.Replace(testItems()))

	got, err := s.All()
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Aggregation order is preserved.
	assert.Equal(t, "A", got[0].Title)
	assert.Equal(t, "C", got[2].Title)
	require.NotNil(t, got[0].Published)
	assert.Equal(t, 2026, got[0].Published.Year())
	assert.Nil(t, got[1].Published)
	assert.Equal(t, types.ProviderNeural, got[2].Provider)
}

func TestMarkAndSelected(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.Replace(testItems()))

	require.NoError(t, s.Mark("web:https://a.example", true))
	require.NoError(t, s.Mark("neural:https://c.example", true))

	ids, err := s.SelectedIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"web:https://a.example", "neural:https://c.example"}, ids)

	require.NoError(t, s.Mark("web:https://a.example", false))
	ids, err = s.SelectedIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"neural:https://c.example"}, ids)
}

func TestMarkUnknownID(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.Replace(testItems()))
	assert.Error(t, s.Mark("web:https://nope.example", true))
}

func TestReplaceClearsSelections(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.Replace(testItems()))
	require.NoError(t, s.Mark("web:https://a.example", true))
	require.NoError(t, s.Mark("web:https://b.example", true))

	// A new pass supersedes the old one wholesale.
	require.NoError(t, s.Replace([]types.ResultItem{
		{ID: "scholar:https://d.example", Provider: types.ProviderScholar, Title: "D", URL: "https://d.example", Snippet: "s", Position: 1},
	}))

	ids, err := s.SelectedIDs()
	require.NoError(t, err)
	assert.Empty(t, ids, "selections from a previous query must not leak")

	got, err := s.All()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "D", got[0].Title)
}

func TestReset(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.Replace(testItems()))
	require.NoError(t, s.Mark("web:https://a.example", true))

	require.NoError(t, s.Reset())

	ids, err := s.SelectedIDs()
	require.NoError(t, err)
	assert.Empty(t, ids)

	got, err := s.All()
	require.NoError(t, err)
	assert.Len(t, got, 3, "reset clears flags, not items")
}

func TestAttachEnrichment(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.Replace(testItems()))

	ec := types.EnrichedContent{
		FullText:  "full text",
		Summary:   "summary",
		FetchedAt: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
		Status:    types.EnrichmentOK,
	}
	require.NoError(t, s.AttachEnrichment("web:https://a.example", ec))

	got, err := s.All()
	require.NoError(t, err)
	require.NotNil(t, got[0].Enrichment)
	assert.True(t, got[0].Enrichment.OK())
	assert.Equal(t, "full text", got[0].Enrichment.FullText)
	assert.Nil(t, got[1].Enrichment)

	failed := types.EnrichedContent{Status: types.EnrichmentFailed, FailReason: "HTTP 500", FetchedAt: time.Now()}
	require.NoError(t, s.AttachEnrichment("web:https://b.example", failed))

	got, err = s.All()
	require.NoError(t, err)
	require.NotNil(t, got[1].Enrichment)
	assert.False(t, got[1].Enrichment.OK())
	assert.Equal(t, "HTTP 500", got[1].Enrichment.FailReason)
}

func TestAttachEnrichmentUnknownID(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.Replace(testItems()))
	assert.Error(t, s.AttachEnrichment("web:https://nope.example", types.EnrichedContent{Status: types.EnrichmentOK}))
}
