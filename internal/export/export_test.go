// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/pdiddy/trendsift/pkg/types"
)

func sampleItems() []types.ResultItem {
	published := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	return []types.ResultItem{
		{
			ID: "web:https://go.dev", Provider: types.ProviderWeb,
			Title: "Go", URL: "https://go.dev", Snippet: "s", Position: 1,
			Published:  &published,
			Enrichment: &types.EnrichedContent{Status: types.EnrichmentOK, FullText: "text"},
		},
		{
			ID: "neural:https://example.com", Provider: types.ProviderNeural,
			Title: "Example", URL: "https://example.com", Snippet: types.NotAvailable, Position: 1,
			Enrichment: &types.EnrichedContent{Status: types.EnrichmentFailed, FailReason: "HTTP 500"},
		},
	}
}

func sampleSeries() *types.TrendSeries {
	return &types.TrendSeries{
		Query: "golang",
		Points: []types.TrendPoint{
			{Date: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Value: 45},
			{Date: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), Value: 52.5},
		},
		Top: []types.RelatedQuery{{Query: "golang tutorial", Value: 100}},
	}
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	Table(&buf, sampleItems())
	s := buf.String()

	if !strings.Contains(s, "Go") || !strings.Contains(s, "Example") {
		t.Errorf("table missing titles:\n%s", s)
	}
	if !strings.Contains(s, "2026-01-10") {
		t.Error("table should show the published date")
	}
	if !strings.Contains(s, "2 results") {
		t.Error("table should show the result count")
	}
}

func TestTableTruncatesTitleOnRuneBoundary(t *testing.T) {
	title := strings.Repeat("b", 46) + "日本語" // 日 straddles the 47-byte cut
	items := []types.ResultItem{{
		ID: "web:https://x.example", Provider: types.ProviderWeb,
		Title: title, URL: "https://x.example", Snippet: "s", Position: 1,
	}}

	var buf bytes.Buffer
	Table(&buf, items)
	if !utf8.ValidString(buf.String()) {
		t.Fatalf("table output is not valid UTF-8:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), strings.Repeat("b", 46)+"...") {
		t.Errorf("title not truncated on the rune boundary:\n%s", buf.String())
	}
}

func TestTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	Table(&buf, nil)
	if !strings.Contains(buf.String(), "No results") {
		t.Error("empty output should say 'No results'")
	}
}

func TestJSONRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, sampleItems()); err != nil {
		t.Fatalf("JSON: %v", err)
	}

	var parsed []types.ResultItem
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("len(parsed) = %d, want 2", len(parsed))
	}
	if parsed[0].ID != "web:https://go.dev" {
		t.Errorf("ID = %q", parsed[0].ID)
	}
	if parsed[1].Enrichment == nil || parsed[1].Enrichment.FailReason != "HTTP 500" {
		t.Errorf("Enrichment = %+v", parsed[1].Enrichment)
	}
}

func TestYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := YAML(&buf, sampleItems()); err != nil {
		t.Fatalf("YAML: %v", err)
	}
	s := buf.String()
	if !strings.Contains(s, "id: web:https://go.dev") {
		t.Errorf("yaml output missing id:\n%s", s)
	}
}

func TestSeriesCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := SeriesCSV(&buf, sampleSeries()); err != nil {
		t.Fatalf("SeriesCSV: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want header + 2 rows", len(lines))
	}
	if lines[0] != "date,value" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "2026-01-01,45" {
		t.Errorf("row 1 = %q", lines[1])
	}
	if lines[2] != "2026-01-02,52.5" {
		t.Errorf("row 2 = %q", lines[2])
	}
}

func TestSeriesTable(t *testing.T) {
	var buf bytes.Buffer
	SeriesTable(&buf, sampleSeries())
	s := buf.String()
	if !strings.Contains(s, `"golang"`) {
		t.Errorf("series table missing query:\n%s", s)
	}
	if !strings.Contains(s, "golang tutorial") {
		t.Error("series table should list top related queries")
	}
}

func TestSeriesTableNil(t *testing.T) {
	var buf bytes.Buffer
	SeriesTable(&buf, nil)
	if !strings.Contains(buf.String(), "No trend data") {
		t.Error("nil series should print 'No trend data'")
	}
}
