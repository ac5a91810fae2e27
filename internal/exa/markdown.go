package exa

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"researchkit/internal/textrecord"
)

const previewRunes = 500

// ParseDate turns a YYYY-MM-DD flag value into the ISO timestamp Exa expects.
func ParseDate(s string) (string, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return "", fmt.Errorf("invalid date format: %s. Use YYYY-MM-DD", s)
	}
	return t.Format("2006-01-02T15:04:05"), nil
}

// parseISO accepts the timestamp shapes Exa returns.
func parseISO(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// displayDate renders ISO dates as "January 02, 2006"; other values pass through.
func displayDate(s string) string {
	if s == "" {
		return "Unknown date"
	}
	if t, ok := parseISO(s); ok {
		return t.Format("January 02, 2006")
	}
	return s
}

func source(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		return u.Host
	}
	return "Unknown source"
}

func preview(text string) string {
	if text == "" {
		return "No text content available"
	}
	r := []rune(text)
	if len(r) > previewRunes {
		return string(r[:previewRunes]) + "..."
	}
	return text
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// FormatMarkdown renders results as the search report.
func FormatMarkdown(results []Result, query string, now time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Search Results: %s\n\n", query)
	fmt.Fprintf(&sb, "*Search performed on: %s*\n\n", now.Format("2006-01-02 15:04:05"))
	for i, r := range results {
		link := orDefault(r.URL, "No URL")
		fmt.Fprintf(&sb, "## %d. %s\n\n", i+1, orDefault(r.Title, "No Title"))
		fmt.Fprintf(&sb, "**URL:** [%s](%s)\n\n", link, link)
		fmt.Fprintf(&sb, "**Date:** %s\n\n", displayDate(r.PublishedDate))
		fmt.Fprintf(&sb, "**Source:** %s\n\n", source(r.URL))
		fmt.Fprintf(&sb, "**Preview:**\n\n%s\n\n", preview(r.Text))
		sb.WriteString("---\n\n")
	}
	fmt.Fprintf(&sb, "*Total results: %d*", len(results))
	return sb.String()
}

// SaveResults writes results under dir as Markdown, or JSON when format is
// "json", and returns the file path.
func SaveResults(dir string, results []Result, query, format string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	base := textrecord.SafeName(query, 30) + "_" + now.Format("2006-01-02_15-04-05")

	var (
		path string
		data []byte
	)
	if strings.EqualFold(format, "json") {
		path = filepath.Join(dir, base+".json")
		if results == nil {
			results = []Result{}
		}
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return "", err
		}
		data = buf.Bytes()
	} else {
		path = filepath.Join(dir, base+".md")
		data = []byte(FormatMarkdown(results, query, now))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
