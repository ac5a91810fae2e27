package pageagent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"researchkit/internal/reportdb"
	"researchkit/internal/textrecord"
)

// RenderMarkdown renders the posts as a list, or the raw answer when it
// did not parse.
func RenderMarkdown(res *Result) string {
	var sb strings.Builder
	sb.WriteString("# Browse Results\n\n")
	fmt.Fprintf(&sb, "**Task:** %s\n\n", res.Task)
	fmt.Fprintf(&sb, "**Start URL:** [%s](%s)\n\n", res.StartURL, res.StartURL)
	if len(res.Pages) > 0 {
		fmt.Fprintf(&sb, "**Pages read:** %d\n\n", len(res.Pages))
	}
	sb.WriteString("---\n\n")
	if res.Posts == nil {
		sb.WriteString(strings.TrimSpace(res.Raw))
		sb.WriteString("\n")
		return sb.String()
	}
	for i, p := range res.Posts.Posts {
		fmt.Fprintf(&sb, "## %d. %s\n\n", i+1, p.Caption)
		fmt.Fprintf(&sb, "[%s](%s)\n\n", p.URL, p.URL)
	}
	fmt.Fprintf(&sb, "*Total posts: %d*\n", len(res.Posts.Posts))
	return sb.String()
}

// Save writes the report under dir and indexes it.
func Save(ctx context.Context, dir string, res *Result, rec *reportdb.Recorder, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	name := "browse_" + textrecord.SafeName(res.Task, 30) + "_" + now.Format("2006-01-02_15-04-05") + ".md"
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(RenderMarkdown(res)), 0o644); err != nil {
		return "", err
	}
	items := 0
	if res.Posts != nil {
		items = len(res.Posts.Posts)
	}
	rec.Record(ctx, reportdb.Report{Kind: reportdb.KindBrowse, Query: res.Task, Path: path, Items: items})
	return path, nil
}
