// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives one aggregation pass: it fans a query out to the
// requested providers through the memoization cache, merges normalized
// results in requested-provider order, and runs the second-stage content
// fetch over the items the caller selected. A failure on one provider is
// recorded and surfaced next to the other providers' results; partial
// output is an expected outcome, not a failure mode.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/trendsift/internal/cache"
	"github.com/pdiddy/trendsift/internal/enrich"
	"github.com/pdiddy/trendsift/internal/providers"
	"github.com/pdiddy/trendsift/internal/session"
	"github.com/pdiddy/trendsift/pkg/types"
)

// Outcome classifies an aggregation pass for the caller. The three
// zero-item cases stay distinguishable: no providers requested, all
// providers errored, and all providers returned no data.
type Outcome string

const (
	// OutcomeNoProviders means the pass ran with an empty provider set.
	OutcomeNoProviders Outcome = "no_providers"

	// OutcomeAllFailed means every requested provider errored.
	OutcomeAllFailed Outcome = "all_failed"

	// OutcomeEmpty means providers responded but none returned data.
	OutcomeEmpty Outcome = "empty"

	// OutcomePartial means some providers returned data and some errored.
	OutcomePartial Outcome = "partial"

	// OutcomeOK means every requested provider returned data or no data,
	// with no errors.
	OutcomeOK Outcome = "ok"
)

// Aggregation is the merged output of one pass.
type Aggregation struct {
	// Query is the query the pass ran.
	Query providers.Query

	// Requested lists the provider kinds in request order.
	Requested []types.ProviderKind

	// Items holds all normalized hits, grouped by provider in request
	// order, provider-native order within each group. Items from
	// different providers pointing at the same URL are kept distinct.
	Items []types.ResultItem

	// Series is the trends time series, when the trends provider ran
	// and returned data.
	Series *types.TrendSeries

	// Errors maps each failed provider to its classified error.
	Errors map[types.ProviderKind]error

	// Empty lists providers that responded successfully with zero data.
	Empty []types.ProviderKind
}

// Outcome classifies the pass.
func (a *Aggregation) Outcome() Outcome {
	switch {
	case len(a.Requested) == 0:
		return OutcomeNoProviders
	case len(a.Items) == 0 && a.Series == nil:
		if len(a.Errors) == len(a.Requested) {
			return OutcomeAllFailed
		}
		return OutcomeEmpty
	case len(a.Errors) > 0:
		return OutcomePartial
	default:
		return OutcomeOK
	}
}

// Orchestrator owns the long-lived pipeline state: the provider set, the
// call cache, the shared content fetcher, and the session store scoping
// results and selection to the current pass.
type Orchestrator struct {
	providers map[types.ProviderKind]providers.Provider
	cache     *cache.Cache
	session   *session.Store
	fetcher   *enrich.Fetcher

	ttl         time.Duration
	parallelism int
	w           io.Writer
}

// New wires an orchestrator. ttl bounds cache entries (default 1h);
// parallelism bounds concurrent enrichment workers (default 4).
func New(provs []providers.Provider, c *cache.Cache, sess *session.Store, fetcher *enrich.Fetcher, ttl time.Duration, parallelism int, w io.Writer) *Orchestrator {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if parallelism <= 0 {
		parallelism = 4
	}
	if w == nil {
		w = io.Discard
	}
	byKind := make(map[types.ProviderKind]providers.Provider, len(provs))
	for _, p := range provs {
		byKind[p.Kind()] = p
	}
	return &Orchestrator{
		providers:   byKind,
		cache:       c,
		session:     sess,
		fetcher:     fetcher,
		ttl:         ttl,
		parallelism: parallelism,
		w:           w,
	}
}

// RunQuery fans query out to the requested provider kinds and merges their
// normalized output. The previous pass's items and selections are
// discarded first, so a superseded pass can never leak into this one. An
// empty kinds set yields an empty aggregation, not an error.
func (o *Orchestrator) RunQuery(ctx context.Context, query providers.Query, kinds []types.ProviderKind) (*Aggregation, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	// Supersede the previous pass before any provider is contacted.
	if err := o.session.Replace(nil); err != nil {
		return nil, fmt.Errorf("resetting session: %w", err)
	}

	agg := &Aggregation{
		Query:     query,
		Requested: append([]types.ProviderKind(nil), kinds...),
		Errors:    make(map[types.ProviderKind]error),
	}
	if len(kinds) == 0 {
		return agg, nil
	}

	// Record unconfigured kinds before any goroutine starts, so the
	// errors map is only ever written under mu once the fan-out is live.
	for _, kind := range kinds {
		if _, ok := o.providers[kind]; !ok {
			agg.Errors[kind] = fmt.Errorf("provider %q not configured", kind)
		}
	}

	outputs := make([]*providers.Output, len(kinds))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for i, kind := range kinds {
		i, kind := i, kind
		p, ok := o.providers[kind]
		if !ok {
			continue
		}
		g.Go(func() error {
			out, err := o.searchCached(gctx, p, query)
			if err != nil {
				mu.Lock()
				agg.Errors[kind] = err
				mu.Unlock()
				fmt.Fprintf(o.w, "warning: provider %s failed: %v\n", kind, err)
				return nil
			}
			outputs[i] = out
			return nil
		})
	}
	// Provider errors are collected, never propagated.
	_ = g.Wait()

	// Assemble in requested-provider order, native order within each.
	for i, kind := range kinds {
		out := outputs[i]
		if out == nil {
			continue
		}
		if out.Series != nil {
			agg.Series = out.Series
		}
		if len(out.Items) == 0 && out.Series == nil {
			agg.Empty = append(agg.Empty, kind)
			continue
		}
		agg.Items = append(agg.Items, out.Items...)
	}

	if err := o.session.Replace(agg.Items); err != nil {
		return nil, fmt.Errorf("storing pass items: %w", err)
	}
	return agg, nil
}

// searchCached memoizes one (provider, query, timeframe) call. The
// zero-hits outcome is stored as an empty output so it honors the TTL like
// any other response; real failures are never cached.
func (o *Orchestrator) searchCached(ctx context.Context, p providers.Provider, query providers.Query) (*providers.Output, error) {
	v, err := o.cache.GetOrCompute(query.CacheKey(p.Kind()), o.ttl, func() (any, error) {
		out, err := p.Search(ctx, query)
		if providers.IsEmpty(err) {
			return &providers.Output{}, nil
		}
		if err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	out, ok := v.(*providers.Output)
	if !ok {
		return nil, fmt.Errorf("unexpected cache value %T", v)
	}
	return out, nil
}

// Select marks one item of the current pass for enrichment.
func (o *Orchestrator) Select(id string) error { return o.session.Mark(id, true) }

// Unselect clears one item's selection flag.
func (o *Orchestrator) Unselect(id string) error { return o.session.Mark(id, false) }

// SelectedIDs returns the IDs currently marked for enrichment.
func (o *Orchestrator) SelectedIDs() ([]string, error) { return o.session.SelectedIDs() }

// Items returns the current pass's items, with any attached enrichment.
func (o *Orchestrator) Items() ([]types.ResultItem, error) { return o.session.All() }

// EnrichSelected fetches full content for every selected item with bounded
// parallelism; the shared rate limiter still gates actual call frequency.
// Items already enriched successfully are skipped unless force is set.
// Enrichment failures are attached as failed content; no item is dropped.
func (o *Orchestrator) EnrichSelected(ctx context.Context, force bool) ([]types.ResultItem, error) {
	selected, err := o.session.Selected()
	if err != nil {
		return nil, fmt.Errorf("loading selected items: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.parallelism)

	var mu sync.Mutex // session writes serialized explicitly
	for _, item := range selected {
		item := item
		if item.Enrichment.OK() && !force {
			continue
		}
		g.Go(func() error {
			content := o.fetcher.Fetch(gctx, item.URL)
			if content.Status == types.EnrichmentFailed {
				fmt.Fprintf(o.w, "warning: enrichment failed for %s: %s\n", item.ID, content.FailReason)
			}
			mu.Lock()
			defer mu.Unlock()
			if err := o.session.AttachEnrichment(item.ID, content); err != nil {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return o.session.Selected()
}
