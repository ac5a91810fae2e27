package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"researchkit/internal/exa"
	"researchkit/internal/reportdb"
	"researchkit/internal/textrecord"
	"researchkit/internal/version"
	"researchkit/internal/youtube"
)

type ListReportsParams struct {
	Kind  *string `json:"kind,omitempty"`
	Limit *int    `json:"limit,omitempty"`
}

type TranscriptParams struct {
	URL string `json:"url"`
}

type WebSearchParams struct {
	Query          string   `json:"query"`
	NumResults     *int     `json:"num_results,omitempty"`
	IncludeDomains []string `json:"include_domains,omitempty"`
	StartDate      *string  `json:"start_date,omitempty"`
	IncludeContent bool     `json:"include_content"`
}

type VideoSearchParams struct {
	Query      string `json:"query"`
	MaxResults *int   `json:"max_results,omitempty"`
}

type TranscriptSource interface {
	Transcript(ctx context.Context, url string) string
}

type VideoSearcher interface {
	Search(ctx context.Context, term string, maxResults int) ([]textrecord.Video, error)
}

// Tools backs the MCP tool handlers. A nil dependency makes its tool answer
// with a hint instead of failing.
type Tools struct {
	DBPath      string
	Transcripts TranscriptSource
	Web         exa.Searcher
	Videos      VideoSearcher
}

func Run(ctx context.Context, tools *Tools) error {
	server := mcp.NewServer(&mcp.Implementation{Name: "researchkit", Version: "v" + version.Version}, nil)

	mcp.AddTool(server, &mcp.Tool{Name: "list_reports", Description: "List reports generated by ResearchKit, newest first"}, tools.handleListReports)
	mcp.AddTool(server, &mcp.Tool{Name: "youtube_transcript", Description: "Fetch the transcript of a YouTube video"}, tools.handleTranscript)
	mcp.AddTool(server, &mcp.Tool{Name: "youtube_search", Description: "Search YouTube videos with titles and view counts"}, tools.handleVideoSearch)
	mcp.AddTool(server, &mcp.Tool{Name: "web_search", Description: "Search the web with Exa"}, tools.handleWebSearch)

	return server.Run(ctx, &mcp.StdioTransport{})
}

func (t *Tools) handleListReports(ctx context.Context, req *mcp.CallToolRequest, p ListReportsParams) (*mcp.CallToolResult, any, error) {
	lim := 50
	if p.Limit != nil && *p.Limit > 0 {
		lim = *p.Limit
	}
	kind := ""
	if p.Kind != nil {
		kind = strings.TrimSpace(*p.Kind)
	}
	if !fileExists(t.DBPath) {
		return nil, map[string]any{
			"ok":      false,
			"message": fmt.Sprintf("ResearchKit database not found at %s", t.DBPath),
			"hint":    "Run any research command once to create it, or set database.path in ~/.config/researchkit/config.yaml.",
			"db_path": t.DBPath,
		}, nil
	}
	db, err := reportdb.Open(t.DBPath)
	if err != nil {
		return nil, map[string]any{
			"ok":      false,
			"message": "Failed opening the ResearchKit database",
			"error":   err.Error(),
			"db_path": t.DBPath,
		}, nil
	}
	defer db.Close()
	return nil, listReports(ctx, db, kind, lim), nil
}

func listReports(ctx context.Context, db *sql.DB, kind string, limit int) map[string]any {
	rows, err := reportdb.List(ctx, db, kind, limit)
	if err != nil {
		return map[string]any{
			"ok":      false,
			"message": "Query failed while reading reports",
			"error":   err.Error(),
		}
	}
	type item struct {
		ID        string    `json:"id"`
		Kind      string    `json:"kind"`
		Query     string    `json:"query"`
		Path      string    `json:"path"`
		Items     int       `json:"items"`
		CreatedAt time.Time `json:"created_at"`
	}
	items := make([]item, 0, len(rows))
	for _, r := range rows {
		items = append(items, item{ID: r.ID, Kind: r.Kind, Query: r.Query, Path: r.Path, Items: r.Items, CreatedAt: r.CreatedAt})
	}
	return map[string]any{"count": len(items), "items": items}
}

func (t *Tools) handleTranscript(ctx context.Context, req *mcp.CallToolRequest, p TranscriptParams) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(p.URL) == "" {
		return nil, map[string]any{"ok": false, "message": "url is required"}, nil
	}
	if !youtube.IsYouTubeURL(p.URL) {
		return nil, map[string]any{"ok": false, "message": "not a YouTube URL: " + p.URL}, nil
	}
	if t.Transcripts == nil {
		return nil, map[string]any{"ok": false, "message": "transcripts are not available"}, nil
	}
	text := t.Transcripts.Transcript(ctx, p.URL)
	return nil, map[string]any{"url": p.URL, "transcript": text}, nil
}

func (t *Tools) handleVideoSearch(ctx context.Context, req *mcp.CallToolRequest, p VideoSearchParams) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(p.Query) == "" {
		return nil, map[string]any{"ok": false, "message": "query is required"}, nil
	}
	if t.Videos == nil {
		return nil, map[string]any{
			"ok":      false,
			"message": "YouTube search is not configured",
			"hint":    "Set YOUTUBE_API_KEY or run 'research setup'.",
		}, nil
	}
	n := 10
	if p.MaxResults != nil && *p.MaxResults > 0 {
		n = *p.MaxResults
	}
	videos, err := t.Videos.Search(ctx, p.Query, n)
	if err != nil {
		return nil, nil, err
	}
	type item struct {
		Title string `json:"title"`
		URL   string `json:"url"`
		Views int64  `json:"views"`
	}
	items := make([]item, 0, len(videos))
	for _, v := range videos {
		items = append(items, item{Title: v.Title, URL: v.URL, Views: v.ViewCount})
	}
	return nil, map[string]any{"count": len(items), "items": items}, nil
}

func (t *Tools) handleWebSearch(ctx context.Context, req *mcp.CallToolRequest, p WebSearchParams) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(p.Query) == "" {
		return nil, map[string]any{"ok": false, "message": "query is required"}, nil
	}
	if t.Web == nil {
		return nil, map[string]any{
			"ok":      false,
			"message": "Exa search is not configured",
			"hint":    "Set EXA_API_KEY or run 'research setup'.",
		}, nil
	}
	sp := exa.SearchParams{Query: p.Query, NumResults: 10, IncludeDomains: p.IncludeDomains, UseAutoprompt: true}
	if p.NumResults != nil && *p.NumResults > 0 {
		sp.NumResults = *p.NumResults
	}
	if p.StartDate != nil && strings.TrimSpace(*p.StartDate) != "" {
		d, err := exa.ParseDate(*p.StartDate)
		if err != nil {
			return nil, map[string]any{"ok": false, "message": err.Error()}, nil
		}
		sp.StartPublishedDate = d
	}
	results, err := t.Web.Search(ctx, sp)
	if err != nil {
		return nil, nil, err
	}
	out := make([]map[string]any, 0, len(results))
	for _, r := range results {
		out = append(out, serialize(r, p.IncludeContent))
	}
	return nil, map[string]any{"count": len(out), "items": out}, nil
}

// content is restricted to 400 characters unless asked for
func serialize(r exa.Result, includeContent bool) map[string]any {
	m := map[string]any{
		"title":          r.Title,
		"url":            r.URL,
		"published_date": r.PublishedDate,
		"author":         r.Author,
	}
	if r.Score != nil {
		m["score"] = *r.Score
	}
	if includeContent {
		m["content"] = r.Text
	} else {
		runes := []rune(r.Text)
		if len(runes) > 400 {
			m["content_preview"] = string(runes[:400]) + "..."
		} else {
			m["content_preview"] = r.Text
		}
	}
	return m
}

func fileExists(p string) bool {
	if p == "" {
		return false
	}
	_, err := os.Stat(p)
	return err == nil
}
