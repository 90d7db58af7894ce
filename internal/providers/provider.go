// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package providers queries external search services and normalizes their
// divergent response schemas into the common result model. Each provider
// (trends, web, scholar, neural) implements the Provider interface per the
// Strategy pattern; failures are classified into a small taxonomy at this
// boundary so the orchestrator can surface them per provider.
package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/trendsift/pkg/types"
)

// Timeframe is a relative window for the query.
type Timeframe string

const (
	Timeframe7D  Timeframe = "7d"
	Timeframe1M  Timeframe = "1m"
	Timeframe3M  Timeframe = "3m"
	Timeframe12M Timeframe = "12m"
	Timeframe5Y  Timeframe = "5y"
)

// Duration returns the window length of the timeframe.
func (tf Timeframe) Duration() (time.Duration, error) {
	const day = 24 * time.Hour
	switch tf {
	case Timeframe7D:
		return 7 * day, nil
	case Timeframe1M:
		return 30 * day, nil
	case Timeframe3M:
		return 90 * day, nil
	case Timeframe12M:
		return 365 * day, nil
	case Timeframe5Y:
		return 5 * 365 * day, nil
	default:
		return 0, fmt.Errorf("unknown timeframe %q", string(tf))
	}
}

// Query holds the search parameters for one aggregation pass. Immutable
// once issued. When DateFrom/DateTo are set they take precedence over
// Timeframe.
type Query struct {
	Text      string
	Timeframe Timeframe
	DateFrom  time.Time
	DateTo    time.Time

	// Category narrows neural search; ignored by other providers.
	Category types.Category
}

// Validate checks that the query is usable.
func (q Query) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("query text is empty")
	}
	if q.DateFrom.IsZero() != q.DateTo.IsZero() {
		return fmt.Errorf("date range requires both from and to")
	}
	if q.DateFrom.IsZero() {
		if _, err := q.Timeframe.Duration(); err != nil {
			return err
		}
	} else if q.DateTo.Before(q.DateFrom) {
		return fmt.Errorf("date range end %s precedes start %s",
			q.DateTo.Format("2006-01-02"), q.DateFrom.Format("2006-01-02"))
	}
	return nil
}

// Range resolves the query to an absolute date range, anchoring relative
// timeframes at now.
func (q Query) Range(now time.Time) (from, to time.Time) {
	if !q.DateFrom.IsZero() {
		return q.DateFrom, q.DateTo
	}
	d, err := q.Timeframe.Duration()
	if err != nil {
		d = 30 * 24 * time.Hour
	}
	return now.Add(-d), now
}

// CacheKey identifies one (provider, query, timeframe) tuple for
// memoization. Category is included because neural results differ per
// category for the same text. Fields are length-prefixed so query text
// containing the separator cannot collide with a different field split.
func (q Query) CacheKey(kind types.ProviderKind) string {
	rangePart := string(q.Timeframe)
	if !q.DateFrom.IsZero() {
		rangePart = q.DateFrom.Format("2006-01-02") + ".." + q.DateTo.Format("2006-01-02")
	}
	var b strings.Builder
	for _, field := range []string{string(kind), string(q.Category), q.Text, rangePart} {
		fmt.Fprintf(&b, "%d:%s|", len(field), field)
	}
	return b.String()
}

// Output is what one provider call produces: a normalized hit list, or for
// the trends provider a time series.
type Output struct {
	Items  []types.ResultItem
	Series *types.TrendSeries
}

// Provider searches a single external service.
type Provider interface {
	Kind() types.ProviderKind
	Search(ctx context.Context, query Query) (*Output, error)
}
