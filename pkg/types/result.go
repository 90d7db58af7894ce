// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the trendsift pipeline:
// the normalized result model every provider adapter maps into, the trends
// time series, enrichment payloads, and per-stage configuration.
package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// NotAvailable marks an optional provider field that was absent from the
// response. Adapters substitute it instead of failing normalization.
const NotAvailable = "n/a"

// ProviderKind identifies which adapter produced a result and how to
// render its identity.
type ProviderKind string

const (
	ProviderTrends  ProviderKind = "trends"
	ProviderWeb     ProviderKind = "web"
	ProviderScholar ProviderKind = "scholar"
	ProviderNeural  ProviderKind = "neural"
)

// Category narrows neural search to one content type.
type Category string

const (
	CategoryCompany    Category = "company"
	CategoryPaper      Category = "paper"
	CategoryNews       Category = "news"
	CategorySocialPost Category = "social-post"
)

// ResultItem is the normalized form of one provider hit. Created by an
// adapter and owned by the aggregation pass that produced it; never mutated
// afterwards except to attach Enrichment.
type ResultItem struct {
	// ID is stable within one aggregation pass: provider kind plus the
	// source-native URL, or the native position when the URL is absent.
	ID string `json:"id" yaml:"id"`

	// Provider identifies the adapter that produced this item.
	Provider ProviderKind `json:"provider" yaml:"provider"`

	// Title is the result title, or NotAvailable.
	Title string `json:"title" yaml:"title"`

	// URL is the source-native link, or NotAvailable.
	URL string `json:"url" yaml:"url"`

	// Snippet is a short excerpt or abstract, or NotAvailable.
	Snippet string `json:"snippet" yaml:"snippet"`

	// Published is the publication date when the provider supplied one.
	Published *time.Time `json:"published,omitempty" yaml:"published,omitempty"`

	// Position is the provider-native rank, used for ordering and as an
	// ID fallback.
	Position int `json:"position" yaml:"position"`

	// Raw preserves the provider-native payload for this hit.
	Raw json.RawMessage `json:"-" yaml:"-"`

	// Enrichment holds the second-stage full-content fetch, if one ran.
	Enrichment *EnrichedContent `json:"enrichment,omitempty" yaml:"enrichment,omitempty"`
}

// ItemID derives a ResultItem ID from the provider, native URL, and position.
func ItemID(kind ProviderKind, url string, position int) string {
	if url == "" || url == NotAvailable {
		return fmt.Sprintf("%s:#%d", kind, position)
	}
	return fmt.Sprintf("%s:%s", kind, url)
}

// EnrichmentStatus reports the outcome of a full-content fetch.
type EnrichmentStatus string

const (
	EnrichmentOK     EnrichmentStatus = "ok"
	EnrichmentFailed EnrichmentStatus = "failed"
)

// EnrichedContent is the full text and summary fetched for one result.
// Failure is data: an exhausted or permanently failed fetch is recorded
// with a failed status and a reason, never raised past the fetcher.
type EnrichedContent struct {
	FullText  string           `json:"full_text" yaml:"full_text"`
	Summary   string           `json:"summary" yaml:"summary"`
	FetchedAt time.Time        `json:"fetched_at" yaml:"fetched_at"`
	Status    EnrichmentStatus `json:"status" yaml:"status"`

	// FailReason holds the last failure when Status is failed.
	FailReason string `json:"fail_reason,omitempty" yaml:"fail_reason,omitempty"`
}

// OK reports whether the enrichment completed successfully.
func (e *EnrichedContent) OK() bool {
	return e != nil && e.Status == EnrichmentOK
}
