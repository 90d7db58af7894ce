// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export renders aggregation output for humans and files: a
// result table for the terminal, JSON and YAML for downstream tooling,
// and CSV for the trend series.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/trendsift/pkg/types"
)

// Table writes items as a human-readable table to w.
func Table(w io.Writer, items []types.ResultItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No results.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-8s  %-50s  %-10s  %-3s  %s\n",
		"Pos", "Provider", "Title", "Date", "Enr", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for i, item := range items {
		title := item.Title
		if len(title) > 50 {
			title = truncateRunes(title, 47) + "..."
		}
		date := ""
		if item.Published != nil {
			date = item.Published.Format("2006-01-02")
		}
		enriched := ""
		switch {
		case item.Enrichment.OK():
			enriched = "ok"
		case item.Enrichment != nil:
			enriched = "err"
		}
		fmt.Fprintf(w, "%-4d  %-8s  %-50s  %-10s  %-3s  %s\n",
			i+1, item.Provider, title, date, enriched, item.URL)
	}
	fmt.Fprintf(w, "\n%d results\n", len(items))
}

// truncateRunes cuts s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// JSON writes items as indented JSON to w.
func JSON(w io.Writer, items []types.ResultItem) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

// YAML writes items as YAML to w.
func YAML(w io.Writer, items []types.ResultItem) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

// SeriesTable writes the trend series as a short table to w.
func SeriesTable(w io.Writer, series *types.TrendSeries) {
	if series == nil || len(series.Points) == 0 {
		fmt.Fprintln(w, "No trend data.")
		return
	}

	fmt.Fprintf(w, "Interest over time for %q (%d points)\n", series.Query, len(series.Points))
	for _, p := range series.Points {
		fmt.Fprintf(w, "  %s  %6.1f\n", p.Date.Format("2006-01-02"), p.Value)
	}

	if len(series.Top) > 0 {
		fmt.Fprintln(w, "Top related queries:")
		for _, rq := range series.Top {
			fmt.Fprintf(w, "  %-40s  %.0f\n", rq.Query, rq.Value)
		}
	}
	if len(series.Rising) > 0 {
		fmt.Fprintln(w, "Rising related queries:")
		for _, rq := range series.Rising {
			fmt.Fprintf(w, "  %-40s  %.0f\n", rq.Query, rq.Value)
		}
	}
}

// SeriesCSV writes the trend series as date,value rows to w.
func SeriesCSV(w io.Writer, series *types.TrendSeries) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "value"}); err != nil {
		return err
	}
	if series != nil {
		for _, p := range series.Points {
			row := []string{
				p.Date.Format("2006-01-02"),
				strconv.FormatFloat(p.Value, 'f', -1, 64),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
