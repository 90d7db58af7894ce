// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pdiddy/trendsift/pkg/types"
)

// serperAPIBase is the Serper search endpoint. The search type ("search"
// or "scholar") is appended as the path. Declared as a var so tests can
// substitute an httptest server.
var serperAPIBase = "https://google.serper.dev"

// SerperProvider queries the Serper API. One instance serves either the
// general web index or the scholar index, selected by Scholar.
type SerperProvider struct {
	Client  *http.Client
	Config  types.SerperConfig
	Scholar bool
}

// Kind returns the provider identifier.
func (p *SerperProvider) Kind() types.ProviderKind {
	if p.Scholar {
		return types.ProviderScholar
	}
	return types.ProviderWeb
}

// Search queries Serper and normalizes the organic result array. Missing
// optional fields are substituted with explicit not-available markers.
func (p *SerperProvider) Search(ctx context.Context, query Query) (*Output, error) {
	kind := p.Kind()
	if p.Config.APIKey == "" {
		return nil, adapterErr(kind, ErrAuth, fmt.Errorf("missing serper API key"))
	}

	num := p.Config.MaxResults
	if num <= 0 {
		num = 10
	}

	body, err := json.Marshal(serperRequest{Q: query.Text, Num: num})
	if err != nil {
		return nil, adapterErr(kind, ErrTransport, fmt.Errorf("encoding request: %w", err))
	}

	path := "/search"
	if p.Scholar {
		path = "/scholar"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serperAPIBase+path, bytes.NewReader(body))
	if err != nil {
		return nil, adapterErr(kind, ErrTransport, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", p.Config.APIKey)
	req.Header.Set("User-Agent", p.Config.UserAgent)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, classifyTransport(kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(kind, resp.StatusCode)
	}

	var sr serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, adapterErr(kind, ErrMalformed, fmt.Errorf("parsing serper response: %w", err))
	}

	if len(sr.Organic) == 0 {
		return nil, adapterErr(kind, ErrEmpty, fmt.Errorf("no organic results for %q", query.Text))
	}

	out := &Output{}
	for i, hit := range sr.Organic {
		position := hit.Position
		if position == 0 {
			position = i + 1
		}
		item := types.ResultItem{
			Provider: kind,
			Title:    orNA(hit.Title),
			URL:      orNA(hit.Link),
			Snippet:  orNA(hit.Snippet),
			Position: position,
		}
		item.ID = types.ItemID(kind, hit.Link, position)
		if t, ok := parseSerperDate(hit.Date); ok {
			item.Published = &t
		}
		if raw, err := json.Marshal(hit); err == nil {
			item.Raw = raw
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}

// parseSerperDate parses the loosely formatted date Serper attaches to
// some results. Relative dates ("2 days ago") are not resolved.
func parseSerperDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"Jan 2, 2006", "2 Jan 2006", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// orNA substitutes the not-available marker for absent optional fields.
func orNA(s string) string {
	if s == "" {
		return types.NotAvailable
	}
	return s
}

// Serper API JSON structures.
type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

type serperResponse struct {
	Organic []serperHit `json:"organic"`
}

type serperHit struct {
	Title           string `json:"title"`
	Link            string `json:"link"`
	Snippet         string `json:"snippet"`
	Date            string `json:"date,omitempty"`
	Position        int    `json:"position,omitempty"`
	PublicationInfo string `json:"publicationInfo,omitempty"`
}
