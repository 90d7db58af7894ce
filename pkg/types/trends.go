// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// TrendPoint is one sample in an interest-over-time series.
type TrendPoint struct {
	Date  time.Time `json:"date" yaml:"date"`
	Value float64   `json:"value" yaml:"value"`
}

// RelatedQuery is a phrase the trends provider associates with the query,
// with its relative score.
type RelatedQuery struct {
	Query string  `json:"query" yaml:"query"`
	Value float64 `json:"value" yaml:"value"`
}

// TrendSeries is the interest-over-time output of the trends provider.
// It is not part of the generic result list: it is a continuous series,
// not a set of hits.
type TrendSeries struct {
	// Query is the search term the series was built for.
	Query string `json:"query" yaml:"query"`

	// Points holds the series in chronological order. Rows whose value
	// failed numeric conversion are dropped during normalization.
	Points []TrendPoint `json:"points" yaml:"points"`

	// Top and Rising hold related-query buckets when the provider
	// returned them.
	Top    []RelatedQuery `json:"top,omitempty" yaml:"top,omitempty"`
	Rising []RelatedQuery `json:"rising,omitempty" yaml:"rising,omitempty"`
}
