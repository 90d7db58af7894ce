// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pdiddy/trendsift/pkg/types"
)

// trendsAPIBase is the SerpApi Google Trends endpoint. Declared as a var
// so tests can substitute an httptest server.
var trendsAPIBase = "https://serpapi.com/search.json"

// TrendsProvider queries the Google Trends API (via SerpApi) and parses
// the interest-over-time timeline into a TrendSeries.
type TrendsProvider struct {
	Client *http.Client
	Config types.TrendsConfig
}

// Kind returns the provider identifier.
func (p *TrendsProvider) Kind() types.ProviderKind { return types.ProviderTrends }

// Search fetches the interest-over-time series and related-query buckets
// for the query. Timeline rows whose value fails numeric conversion are
// dropped, not fatal to the series.
func (p *TrendsProvider) Search(ctx context.Context, query Query) (*Output, error) {
	if p.Config.APIKey == "" {
		return nil, adapterErr(p.Kind(), ErrAuth, fmt.Errorf("missing trends API key"))
	}

	params := url.Values{
		"engine":  {"google_trends"},
		"q":       {query.Text},
		"date":    {trendsDate(query)},
		"api_key": {p.Config.APIKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, trendsAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, adapterErr(p.Kind(), ErrTransport, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("User-Agent", p.Config.UserAgent)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, classifyTransport(p.Kind(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(p.Kind(), resp.StatusCode)
	}

	var tr trendsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, adapterErr(p.Kind(), ErrMalformed, fmt.Errorf("parsing trends response: %w", err))
	}

	if len(tr.InterestOverTime.TimelineData) == 0 {
		return nil, adapterErr(p.Kind(), ErrEmpty, fmt.Errorf("no timeline data for %q", query.Text))
	}

	series := &types.TrendSeries{Query: query.Text}
	for _, row := range tr.InterestOverTime.TimelineData {
		point, ok := parseTimelineRow(row)
		if !ok {
			continue
		}
		series.Points = append(series.Points, point)
	}
	if len(series.Points) == 0 {
		return nil, adapterErr(p.Kind(), ErrMalformed, fmt.Errorf("no usable timeline rows"))
	}

	series.Top = parseRelated(tr.RelatedQueries.Top)
	series.Rising = parseRelated(tr.RelatedQueries.Rising)

	return &Output{Series: series}, nil
}

// trendsDate maps the query window to the provider's date parameter.
func trendsDate(q Query) string {
	if !q.DateFrom.IsZero() {
		return q.DateFrom.Format("2006-01-02") + " " + q.DateTo.Format("2006-01-02")
	}
	switch q.Timeframe {
	case Timeframe7D:
		return "now 7-d"
	case Timeframe1M:
		return "today 1-m"
	case Timeframe3M:
		return "today 3-m"
	case Timeframe12M:
		return "today 12-m"
	case Timeframe5Y:
		return "today 5-y"
	default:
		return "today 1-m"
	}
}

// parseTimelineRow converts one timeline row into a TrendPoint. Rows with
// an unparsable date or value are reported as not ok and dropped.
func parseTimelineRow(row trendsTimelineRow) (types.TrendPoint, bool) {
	var point types.TrendPoint

	epoch, err := strconv.ParseInt(row.Timestamp, 10, 64)
	if err != nil {
		return point, false
	}
	point.Date = time.Unix(epoch, 0).UTC()

	// The value sits one level down, in the first element of values.
	if len(row.Values) == 0 {
		return point, false
	}
	v := row.Values[0]
	if v.ExtractedValue != nil {
		point.Value = *v.ExtractedValue
		return point, true
	}
	parsed, err := strconv.ParseFloat(v.Value, 64)
	if err != nil {
		return point, false
	}
	point.Value = parsed
	return point, true
}

// parseRelated normalizes a related-query bucket, dropping entries without
// a query string.
func parseRelated(raw []trendsRelatedQuery) []types.RelatedQuery {
	var out []types.RelatedQuery
	for _, rq := range raw {
		if rq.Query == "" {
			continue
		}
		out = append(out, types.RelatedQuery{Query: rq.Query, Value: float64(rq.ExtractedValue)})
	}
	return out
}

// SerpApi Google Trends JSON structures.
type trendsResponse struct {
	InterestOverTime struct {
		TimelineData []trendsTimelineRow `json:"timeline_data"`
	} `json:"interest_over_time"`
	RelatedQueries struct {
		Top    []trendsRelatedQuery `json:"top"`
		Rising []trendsRelatedQuery `json:"rising"`
	} `json:"related_queries"`
}

type trendsTimelineRow struct {
	Date      string        `json:"date"`
	Timestamp string        `json:"timestamp"`
	Values    []trendsValue `json:"values"`
}

type trendsValue struct {
	Value          string   `json:"value"`
	ExtractedValue *float64 `json:"extracted_value"`
}

type trendsRelatedQuery struct {
	Query          string `json:"query"`
	Value          string `json:"value"`
	ExtractedValue int    `json:"extracted_value"`
}
