package tui

import (
	"os"
	"path/filepath"
	"strings"

	"researchkit/internal/reportdb"
)

func reportToDetail(r reportdb.Report) *reportDetail {
	d := &reportDetail{
		kind:      r.Kind,
		query:     r.Query,
		path:      r.Path,
		items:     r.Items,
		createdAt: r.CreatedAt,
	}
	b, err := os.ReadFile(r.Path)
	if err != nil {
		d.err = err
		return d
	}
	d.content = string(b)
	return d
}

// filterReports keeps reports whose kind, query or file name contain q,
// ignoring case.
func filterReports(all []reportdb.Report, q string) []reportdb.Report {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return all
	}
	var out []reportdb.Report
	for _, r := range all {
		hay := strings.ToLower(r.Kind + " " + r.Query + " " + filepath.Base(r.Path))
		if strings.Contains(hay, q) {
			out = append(out, r)
		}
	}
	return out
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:max(0, maxLen)])
	}
	return string(r[:maxLen-3]) + "..."
}

func isMarkdown(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".md" || ext == ".markdown"
}
