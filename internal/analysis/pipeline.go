package analysis

import (
	"context"
	"fmt"
	"io"
	"time"

	"researchkit/internal/llm"
	"researchkit/internal/reportdb"
	"researchkit/internal/textrecord"
)

// VideoSearcher finds videos for a search term.
type VideoSearcher interface {
	Search(ctx context.Context, term string, maxResults int) ([]textrecord.Video, error)
}

// TranscriptSource returns a transcript, or a placeholder describing why
// there is none.
type TranscriptSource interface {
	Transcript(ctx context.Context, videoURL string) string
}

// Pipeline runs the scrape, transcripts and summaries steps. Each step reads
// the previous step's file from OutputDir, so they may run separately.
type Pipeline struct {
	Searcher  VideoSearcher
	Source    TranscriptSource
	Generator llm.Generator
	Recorder  *reportdb.Recorder

	OutputDir  string
	MaxResults int
	Delay      time.Duration
	Out        io.Writer
	Now        func() time.Time
}

func (p *Pipeline) out() io.Writer {
	if p.Out == nil {
		return io.Discard
	}
	return p.Out
}

func (p *Pipeline) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

func (p *Pipeline) record(ctx context.Context, kind, term, path string, items int) {
	p.Recorder.Record(ctx, reportdb.Report{Kind: kind, Query: term, Path: path, Items: items})
}

// Scrape searches videos for term and writes the videos file.
func (p *Pipeline) Scrape(ctx context.Context, term string) (string, []textrecord.Video, error) {
	videos, err := p.Searcher.Search(ctx, term, p.MaxResults)
	if err != nil {
		return "", nil, err
	}
	path := textrecord.VideosPath(p.OutputDir, term)
	f, err := textrecord.CreateFile(path)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()
	if err := textrecord.WriteVideos(f, term, videos, p.now()); err != nil {
		return "", nil, err
	}
	p.record(ctx, reportdb.KindVideos, term, path, len(videos))
	return path, videos, nil
}

// Transcripts fetches a transcript for every video in the videos file.
func (p *Pipeline) Transcripts(ctx context.Context, term string) (string, error) {
	videos, err := textrecord.ReadVideosFile(textrecord.VideosPath(p.OutputDir, term))
	if err != nil {
		return "", err
	}
	return p.writeTranscripts(ctx, term, videos)
}

func (p *Pipeline) writeTranscripts(ctx context.Context, term string, videos []textrecord.Video) (string, error) {
	path := textrecord.TranscriptsPath(p.OutputDir, term)
	f, err := textrecord.CreateFile(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	tw, err := textrecord.NewTranscriptWriter(f, term)
	if err != nil {
		return "", err
	}
	for i, v := range videos {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		fmt.Fprintf(p.out(), "Fetching transcript %d/%d: %s\n", i+1, len(videos), v.Title)
		rec := textrecord.TranscriptRecord{Title: v.Title, URL: v.URL, Transcript: p.Source.Transcript(ctx, v.URL)}
		if err := tw.Write(rec); err != nil {
			return "", err
		}
	}
	p.record(ctx, reportdb.KindTranscripts, term, path, len(videos))
	return path, nil
}

// Summarize analyzes every transcript in the transcripts file and writes
// the summaries report.
func (p *Pipeline) Summarize(ctx context.Context, term string) (string, error) {
	records, err := textrecord.ReadTranscriptsFile(textrecord.TranscriptsPath(p.OutputDir, term))
	if err != nil {
		return "", err
	}
	analyses, err := AnalyzeAll(ctx, p.Generator, records, p.Delay, p.out())
	if err != nil {
		return "", err
	}
	path := textrecord.SummariesPath(p.OutputDir, term)
	f, err := textrecord.CreateFile(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := WriteSummaries(f, term, analyses); err != nil {
		return "", err
	}
	p.record(ctx, reportdb.KindSummaries, term, path, len(analyses))
	return path, nil
}

// Workflow runs all three steps for term.
func (p *Pipeline) Workflow(ctx context.Context, term string) (string, error) {
	w := p.out()

	fmt.Fprintln(w, "\nStep 1: Fetching YouTube videos...")
	videosPath, videos, err := p.Scrape(ctx, term)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(w, "Videos saved to: %s\n", videosPath)

	fmt.Fprintln(w, "\nStep 2: Fetching video transcripts...")
	transcriptsPath, err := p.writeTranscripts(ctx, term, videos)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(w, "Transcripts saved to: %s\n", transcriptsPath)

	fmt.Fprintln(w, "\nStep 3: Generating summaries with Gemini...")
	summariesPath, err := p.Summarize(ctx, term)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(w, "\nSummaries have been saved to: %s\n", summariesPath)
	return summariesPath, nil
}
