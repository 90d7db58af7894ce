// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/trendsift/internal/cache"
	"github.com/pdiddy/trendsift/internal/enrich"
	"github.com/pdiddy/trendsift/internal/export"
	"github.com/pdiddy/trendsift/internal/pipeline"
	"github.com/pdiddy/trendsift/internal/providers"
	"github.com/pdiddy/trendsift/internal/ratelimit"
	"github.com/pdiddy/trendsift/internal/session"
	"github.com/pdiddy/trendsift/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run one aggregation pass across the requested providers",
	Long: `Search fans a query out to the requested providers (trends, web, scholar,
neural), tolerating per-provider failure, and prints the merged results.
Positions passed via --select mark items for the second-stage content fetch,
which --enrich runs under the content-fetch service's rate limit.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("query", "", "search term (required)")
	searchCmd.Flags().String("timeframe", "1m", "relative window: 7d, 1m, 3m, 12m, or 5y")
	searchCmd.Flags().String("from", "", "explicit range start (YYYY-MM-DD, overrides --timeframe)")
	searchCmd.Flags().String("to", "", "explicit range end (YYYY-MM-DD)")
	searchCmd.Flags().String("providers", "trends,web", "comma-separated providers: trends, web, scholar, neural")
	searchCmd.Flags().String("category", "news", "neural search category: company, paper, news, or social-post")
	searchCmd.Flags().Int("max-results", 0, "results requested per provider (0 uses the configured default)")
	searchCmd.Flags().String("select", "", "comma-separated result positions to mark for enrichment")
	searchCmd.Flags().Bool("enrich", false, "fetch full content for selected results")
	searchCmd.Flags().Bool("force", false, "re-enrich results that already have content")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().String("export", "", "write results to a file (.csv for the trend series, .json or .yaml for items)")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query, err := buildQuery(cmd)
	if err != nil {
		return err
	}
	kinds, err := parseProviders(cmd)
	if err != nil {
		return err
	}

	cfg := pipelineConfig()
	if n, _ := cmd.Flags().GetInt("max-results"); n > 0 {
		cfg.Serper.MaxResults = n
		cfg.Exa.MaxResults = n
	}
	orch, cleanup, err := buildOrchestrator(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	agg, err := orch.RunQuery(ctx, query, kinds)
	if err != nil {
		return err
	}

	switch agg.Outcome() {
	case pipeline.OutcomeAllFailed:
		fmt.Fprintln(os.Stderr, "all providers failed:")
		for kind, perr := range agg.Errors {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", kind, perr)
		}
		return fmt.Errorf("no provider returned data")
	case pipeline.OutcomeEmpty:
		fmt.Fprintln(os.Stderr, "no data available for the given query and time range")
	case pipeline.OutcomePartial:
		for kind, perr := range agg.Errors {
			fmt.Fprintf(os.Stderr, "warning: %s failed: %v\n", kind, perr)
		}
	}

	items := agg.Items
	if sel, _ := cmd.Flags().GetString("select"); sel != "" {
		if err := selectPositions(orch, items, sel); err != nil {
			return err
		}
	}

	if doEnrich, _ := cmd.Flags().GetBool("enrich"); doEnrich {
		force, _ := cmd.Flags().GetBool("force")
		if _, err := orch.EnrichSelected(ctx, force); err != nil {
			return err
		}
		// Re-read so printed items carry their enrichment.
		items, err = orch.Items()
		if err != nil {
			return err
		}
	}

	if path, _ := cmd.Flags().GetString("export"); path != "" {
		if err := exportTo(path, agg, items); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return export.JSON(os.Stdout, items)
	}
	if agg.Series != nil {
		export.SeriesTable(os.Stdout, agg.Series)
		fmt.Fprintln(os.Stdout)
	}
	export.Table(os.Stdout, items)
	return nil
}

// buildQuery assembles the pass query from flags.
func buildQuery(cmd *cobra.Command) (providers.Query, error) {
	text, _ := cmd.Flags().GetString("query")
	tf, _ := cmd.Flags().GetString("timeframe")
	catName, _ := cmd.Flags().GetString("category")

	query := providers.Query{
		Text:      text,
		Timeframe: providers.Timeframe(tf),
		Category:  types.Category(catName),
	}

	fromStr, _ := cmd.Flags().GetString("from")
	toStr, _ := cmd.Flags().GetString("to")
	if fromStr != "" || toStr != "" {
		from, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			return query, fmt.Errorf("parsing --from: %w", err)
		}
		to, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return query, fmt.Errorf("parsing --to: %w", err)
		}
		query.DateFrom, query.DateTo = from, to
	}

	return query, query.Validate()
}

// parseProviders maps the --providers flag to provider kinds, preserving
// the requested order.
func parseProviders(cmd *cobra.Command) ([]types.ProviderKind, error) {
	raw, _ := cmd.Flags().GetString("providers")
	var kinds []types.ProviderKind
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		switch kind := types.ProviderKind(name); kind {
		case types.ProviderTrends, types.ProviderWeb, types.ProviderScholar, types.ProviderNeural:
			kinds = append(kinds, kind)
		default:
			return nil, fmt.Errorf("unknown provider %q (want trends, web, scholar, or neural)", name)
		}
	}
	return kinds, nil
}

// buildOrchestrator wires the pipeline from the stage configuration.
func buildOrchestrator(cfg types.PipelineConfig) (*pipeline.Orchestrator, func(), error) {
	sess, err := session.Open()
	if err != nil {
		return nil, nil, err
	}

	limiter := ratelimit.New(cfg.Enrich.RatePerMinute, time.Minute)
	fetcher := enrich.NewFetcher(httpClient(cfg.Enrich.HTTPConfig), limiter, cfg.Exa.APIKey, cfg.Enrich)

	provs := []providers.Provider{
		&providers.TrendsProvider{Client: httpClient(cfg.Trends.HTTPConfig), Config: cfg.Trends},
		&providers.SerperProvider{Client: httpClient(cfg.Serper.HTTPConfig), Config: cfg.Serper},
		&providers.SerperProvider{Client: httpClient(cfg.Serper.HTTPConfig), Config: cfg.Serper, Scholar: true},
		&providers.ExaProvider{Client: httpClient(cfg.Exa.HTTPConfig), Config: cfg.Exa},
	}

	orch := pipeline.New(provs, cache.New(), sess, fetcher, cfg.Cache.TTL, cfg.Enrich.Parallelism, os.Stderr)
	return orch, func() { sess.Close() }, nil
}

// selectPositions marks 1-based result positions for enrichment.
func selectPositions(orch *pipeline.Orchestrator, items []types.ResultItem, raw string) error {
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		pos, err := strconv.Atoi(field)
		if err != nil || pos < 1 || pos > len(items) {
			return fmt.Errorf("invalid selection %q: want a position between 1 and %d", field, len(items))
		}
		if err := orch.Select(items[pos-1].ID); err != nil {
			return err
		}
	}
	return nil
}

// exportTo writes the pass output to path, picking the format from the
// file extension.
func exportTo(path string, agg *pipeline.Aggregation, items []types.ResultItem) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		if agg.Series == nil {
			return fmt.Errorf("no trend series to export as CSV (run with the trends provider)")
		}
		return export.SeriesCSV(f, agg.Series)
	case ".json":
		return export.JSON(f, items)
	case ".yaml", ".yml":
		return export.YAML(f, items)
	default:
		return fmt.Errorf("unsupported export format %q (want .csv, .json, or .yaml)", ext)
	}
}
