// Package exa searches the web through the Exa search-and-contents API and
// renders the results as reports.
package exa

import (
	"context"
	"fmt"
	"time"

	"researchkit/internal/httpclient"
)

const (
	DefaultBaseURL = "https://api.exa.ai"
	// always excluded from results
	wikipediaDomain = "en.wikipedia.org"
)

// SearchParams mirrors the options of the search command.
type SearchParams struct {
	Query              string
	NumResults         int
	IncludeDomains     []string
	ExcludeDomains     []string
	StartPublishedDate string
	EndPublishedDate   string
	UseAutoprompt      bool
}

// Result is one search hit. JSON tags follow the saved report format.
type Result struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	PublishedDate string   `json:"published_date"`
	Author        string   `json:"author"`
	Text          string   `json:"text"`
	Score         *float64 `json:"score"`
}

type searchRequest struct {
	Query              string         `json:"query"`
	NumResults         int            `json:"numResults,omitempty"`
	IncludeDomains     []string       `json:"includeDomains,omitempty"`
	ExcludeDomains     []string       `json:"excludeDomains,omitempty"`
	StartPublishedDate string         `json:"startPublishedDate,omitempty"`
	EndPublishedDate   string         `json:"endPublishedDate,omitempty"`
	UseAutoprompt      bool           `json:"useAutoprompt,omitempty"`
	Contents           searchContents `json:"contents"`
}

type searchContents struct {
	Text bool `json:"text"`
}

type searchResponse struct {
	Results []struct {
		ID            string   `json:"id"`
		Title         string   `json:"title"`
		URL           string   `json:"url"`
		PublishedDate string   `json:"publishedDate"`
		Author        string   `json:"author"`
		Text          string   `json:"text"`
		Score         *float64 `json:"score"`
	} `json:"results"`
}

type Client struct {
	http *httpclient.Client
}

// NewClient returns a client for baseURL (DefaultBaseURL when empty).
func NewClient(apiKey, baseURL string, opts ...httpclient.Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	all := append([]httpclient.Option{
		httpclient.WithBaseURL(baseURL),
		httpclient.WithHeader("x-api-key", apiKey),
	}, opts...)
	return &Client{http: httpclient.New(60*time.Second, all...)}
}

// Search runs a search-and-contents query with page text included.
func (c *Client) Search(ctx context.Context, p SearchParams) ([]Result, error) {
	req := searchRequest{
		Query:              p.Query,
		NumResults:         p.NumResults,
		IncludeDomains:     p.IncludeDomains,
		ExcludeDomains:     withWikipedia(p.ExcludeDomains),
		StartPublishedDate: p.StartPublishedDate,
		EndPublishedDate:   p.EndPublishedDate,
		UseAutoprompt:      p.UseAutoprompt,
		Contents:           searchContents{Text: true},
	}
	var resp searchResponse
	if err := c.http.PostJSON(ctx, "/search", req, &resp); err != nil {
		return nil, fmt.Errorf("exa search: %w", err)
	}
	out := make([]Result, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, Result{
			ID:            r.ID,
			Title:         r.Title,
			URL:           r.URL,
			PublishedDate: r.PublishedDate,
			Author:        r.Author,
			Text:          r.Text,
			Score:         r.Score,
		})
	}
	return out, nil
}

func withWikipedia(domains []string) []string {
	out := make([]string, 0, len(domains)+1)
	out = append(out, domains...)
	return append(out, wikipediaDomain)
}
