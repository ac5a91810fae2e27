package exa

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"researchkit/internal/reportdb"
)

// Searcher is the subset of Client used by the commands.
type Searcher interface {
	Search(ctx context.Context, p SearchParams) ([]Result, error)
}

// Runner holds what the search and tweets commands share.
type Runner struct {
	Searcher  Searcher
	Recorder  *reportdb.Recorder
	Logger    *slog.Logger
	OutputDir string
	Out       io.Writer
	Now       func() time.Time
}

func (r *Runner) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func (r *Runner) out() io.Writer {
	if r.Out == nil {
		return io.Discard
	}
	return r.Out
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

// Search runs one query and saves the report. A failed search is logged and
// treated as an empty result set, in which case no file is written and the
// returned path is empty.
func (r *Runner) Search(ctx context.Context, p SearchParams, format string) (string, error) {
	fmt.Fprintf(r.out(), "Searching for: %s\n", p.Query)
	results, err := r.Searcher.Search(ctx, p)
	if err != nil {
		r.logger().Error("Error during search", slog.Any("error", err))
		results = nil
	}
	if len(results) == 0 {
		fmt.Fprintln(r.out(), "No results found or an error occurred during search.")
		return "", nil
	}
	now := r.now()
	path, err := SaveResults(r.OutputDir, results, p.Query, format, now)
	if err != nil {
		return "", err
	}
	r.Recorder.Record(ctx, reportdb.Report{Kind: reportdb.KindExa, Query: p.Query, Path: path, Items: len(results)})
	fmt.Fprintf(r.out(), "Found %d results. Saved to: %s\n", len(results), path)
	return path, nil
}

// Tweets collects recent tweets for query and writes the tweets report.
func (r *Runner) Tweets(ctx context.Context, query string, n, days int) (string, error) {
	now := r.now()
	fmt.Fprintln(r.out(), "Searching for tweets about AI breakthroughs...")
	results, err := r.Searcher.Search(ctx, tweetParams(query, n, days, now))
	if err != nil {
		return "", err
	}
	fmt.Fprintf(r.out(), "Found %d tweets\n", len(results))

	if err := os.MkdirAll(r.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(r.OutputDir, TweetsFile)
	if err := os.WriteFile(path, []byte(FormatTweets(results, now)), 0o644); err != nil {
		return "", err
	}
	r.Recorder.Record(ctx, reportdb.Report{Kind: reportdb.KindTweets, Query: query, Path: path, Items: len(results)})
	fmt.Fprintf(r.out(), "Successfully saved %d tweets to %s\n", len(results), path)
	return path, nil
}
