// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/pdiddy/trendsift/pkg/types"
)

// exaSearchBase is the Exa neural search endpoint. Declared as a var so
// tests can substitute an httptest server.
var exaSearchBase = "https://api.exa.ai/search"

// snippetLimit caps how much of the returned text becomes the snippet.
const snippetLimit = 280

// exaCategories maps our category names onto Exa's.
var exaCategories = map[types.Category]string{
	types.CategoryCompany:    "company",
	types.CategoryPaper:      "research paper",
	types.CategoryNews:       "news",
	types.CategorySocialPost: "tweet",
}

// ExaProvider queries the Exa neural search API for one content category.
type ExaProvider struct {
	Client *http.Client
	Config types.ExaConfig
}

// Kind returns the provider identifier.
func (p *ExaProvider) Kind() types.ProviderKind { return types.ProviderNeural }

// Search queries Exa within the query's category and date range and
// normalizes the results array.
func (p *ExaProvider) Search(ctx context.Context, query Query) (*Output, error) {
	kind := p.Kind()
	if p.Config.APIKey == "" {
		return nil, adapterErr(kind, ErrAuth, fmt.Errorf("missing exa API key"))
	}

	num := p.Config.MaxResults
	if num <= 0 {
		num = 10
	}

	from, to := query.Range(time.Now())
	reqBody := exaRequest{
		Query:              query.Text,
		NumResults:         num,
		UseAutoprompt:      p.Config.UseAutoprompt,
		StartPublishedDate: from.Format("2006-01-02"),
		EndPublishedDate:   to.Format("2006-01-02"),
	}
	if cat, ok := exaCategories[query.Category]; ok {
		reqBody.Category = cat
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, adapterErr(kind, ErrTransport, fmt.Errorf("encoding request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, exaSearchBase, bytes.NewReader(body))
	if err != nil {
		return nil, adapterErr(kind, ErrTransport, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.Config.APIKey)
	req.Header.Set("User-Agent", p.Config.UserAgent)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, classifyTransport(kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(kind, resp.StatusCode)
	}

	var er exaResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, adapterErr(kind, ErrMalformed, fmt.Errorf("parsing exa response: %w", err))
	}

	if len(er.Results) == 0 {
		return nil, adapterErr(kind, ErrEmpty, fmt.Errorf("no neural results for %q", query.Text))
	}

	out := &Output{}
	for i, hit := range er.Results {
		item := types.ResultItem{
			Provider: kind,
			Title:    orNA(hit.Title),
			URL:      orNA(hit.URL),
			Snippet:  exaSnippet(hit),
			Position: i + 1,
		}
		item.ID = types.ItemID(kind, hit.URL, i+1)
		if hit.PublishedDate != "" {
			if t, err := time.Parse(time.RFC3339, hit.PublishedDate); err == nil {
				item.Published = &t
			} else if t, err := time.Parse("2006-01-02", hit.PublishedDate); err == nil {
				item.Published = &t
			}
		}
		if raw, err := json.Marshal(hit); err == nil {
			item.Raw = raw
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}

// exaSnippet prefers the first highlight, then trimmed page text.
func exaSnippet(hit exaResult) string {
	if len(hit.Highlights) > 0 && hit.Highlights[0] != "" {
		return hit.Highlights[0]
	}
	if hit.Text == "" {
		return types.NotAvailable
	}
	if len(hit.Text) > snippetLimit {
		return truncateRunes(hit.Text, snippetLimit) + "..."
	}
	return hit.Text
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

// Exa API JSON structures.
type exaRequest struct {
	Query              string `json:"query"`
	NumResults         int    `json:"numResults"`
	Category           string `json:"category,omitempty"`
	UseAutoprompt      bool   `json:"useAutoprompt"`
	StartPublishedDate string `json:"startPublishedDate,omitempty"`
	EndPublishedDate   string `json:"endPublishedDate,omitempty"`
}

type exaResponse struct {
	Results []exaResult `json:"results"`
}

type exaResult struct {
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	Text          string   `json:"text,omitempty"`
	Highlights    []string `json:"highlights,omitempty"`
	PublishedDate string   `json:"publishedDate,omitempty"`
	Author        string   `json:"author,omitempty"`
}
