package exa

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29T00:00:00", got)

	_, err = ParseDate("29/02/2024")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Use YYYY-MM-DD")
}

func TestFormatMarkdown(t *testing.T) {
	now := time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)
	results := []Result{
		{Title: "Article", URL: "https://example.com/a", PublishedDate: "2024-12-25T08:00:00.000Z", Text: strings.Repeat("é", 501)},
		{PublishedDate: "sometime"},
	}
	md := FormatMarkdown(results, "go tips", now)

	want := "# Search Results: go tips\n\n" +
		"*Search performed on: 2025-01-02 15:04:05*\n\n" +
		"## 1. Article\n\n" +
		"**URL:** [https://example.com/a](https://example.com/a)\n\n" +
		"**Date:** December 25, 2024\n\n" +
		"**Source:** example.com\n\n" +
		"**Preview:**\n\n" + strings.Repeat("é", 500) + "...\n\n" +
		"---\n\n" +
		"## 2. No Title\n\n" +
		"**URL:** [No URL](No URL)\n\n" +
		"**Date:** sometime\n\n" +
		"**Source:** Unknown source\n\n" +
		"**Preview:**\n\nNo text content available\n\n" +
		"---\n\n" +
		"*Total results: 2*"
	assert.Equal(t, want, md)
}

func TestFormatMarkdownNoResults(t *testing.T) {
	md := FormatMarkdown(nil, "q", time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC))
	assert.True(t, strings.HasSuffix(md, "*Total results: 0*"))
	assert.Equal(t, "Unknown date", displayDate(""))
}

func TestSaveResults(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)
	results := []Result{{Title: "A & B", URL: "https://example.com"}}

	md, err := SaveResults(dir, results, "Thrive Capital Valuation 2025 and more words", "markdown", now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Thrive_Capital_Valuation_2025__2025-01-02_15-04-05.md"), md)

	js, err := SaveResults(dir, results, "q?", "JSON", now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "q__2025-01-02_15-04-05.json"), js)

	b, err := os.ReadFile(js)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"title": "A & B"`)
	var decoded []Result
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, results, decoded)
}
