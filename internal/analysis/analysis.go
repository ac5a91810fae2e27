// Package analysis turns video transcripts into summaries with key quotes.
package analysis

import (
	"context"
	"fmt"
	"io"
	"time"

	"researchkit/internal/llm"
	"researchkit/internal/textrecord"
)

// Analysis is the model output for one video.
type Analysis struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Text  string `json:"analysis"`
}

// Analyze asks gen for a summary of rec. A failed call is reported in Text.
func Analyze(ctx context.Context, gen llm.Generator, rec textrecord.TranscriptRecord) Analysis {
	out := Analysis{Title: rec.Title, URL: rec.URL}
	text, err := gen.Generate(ctx, BuildPrompt(rec))
	if err != nil {
		out.Text = "Error analyzing transcript: " + err.Error()
		return out
	}
	out.Text = text
	return out
}

// AnalyzeAll analyzes records in order, sleeping delay after every model call
// but the last. Progress lines go to progress when non-nil.
func AnalyzeAll(ctx context.Context, gen llm.Generator, records []textrecord.TranscriptRecord, delay time.Duration, progress io.Writer) ([]Analysis, error) {
	if progress == nil {
		progress = io.Discard
	}
	out := make([]Analysis, 0, len(records))
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		fmt.Fprintf(progress, "Analyzing video %d/%d: %s\n", i+1, len(records), rec.Title)
		out = append(out, Analyze(ctx, gen, rec))
		if i == len(records)-1 || delay <= 0 {
			continue
		}
		fmt.Fprintf(progress, "Waiting %s before next analysis...\n", delay)
		if err := sleep(ctx, delay); err != nil {
			return out, err
		}
	}
	return out, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
