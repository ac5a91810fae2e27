package assembly

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"researchkit/internal/reportdb"
	"researchkit/internal/youtube"
)

var ErrNotYouTube = errors.New("not a YouTube URL")

// AudioDownloader saves the audio of a video under dir and returns the file path.
type AudioDownloader func(ctx context.Context, videoURL, dir string) (string, error)

// Job transcribes one YouTube video end to end.
type Job struct {
	Client       *Client
	Download     AudioDownloader
	Recorder     *reportdb.Recorder
	OutputDir    string
	PollInterval time.Duration
	Chapters     bool
	Out          io.Writer
}

// TranscriptPath is where the transcript of videoURL is written.
func TranscriptPath(dir, videoURL string) string {
	if id, ok := youtube.ExtractVideoID(videoURL); ok {
		return filepath.Join(dir, id+"_transcript.md")
	}
	return filepath.Join(dir, "transcript.md")
}

// Run downloads, uploads, transcribes and renders videoURL, returning the
// Markdown path.
func (j *Job) Run(ctx context.Context, videoURL string) (string, error) {
	if !youtube.IsYouTubeURL(videoURL) {
		return "", fmt.Errorf("%w: %s", ErrNotYouTube, videoURL)
	}
	out := j.Out
	if out == nil {
		out = io.Discard
	}
	download := j.Download
	if download == nil {
		download = youtube.DownloadAudio
	}

	workDir, err := os.MkdirTemp("", "research-audio-")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(workDir)

	fmt.Fprintln(out, "Downloading audio from YouTube...")
	audio, err := download(ctx, videoURL, workDir)
	if err != nil {
		return "", err
	}
	fmt.Fprintln(out, "Audio downloaded to", audio)

	fmt.Fprintln(out, "Uploading audio to AssemblyAI...")
	audioURL, err := j.Client.Upload(ctx, audio)
	if err != nil {
		return "", err
	}
	fmt.Fprintln(out, "Audio uploaded. URL:", audioURL)

	fmt.Fprintln(out, "Requesting transcription...")
	id, err := j.Client.Request(ctx, audioURL, RequestOptions{SpeakerLabels: true, AutoChapters: true})
	if err != nil {
		return "", err
	}
	fmt.Fprintln(out, "Transcription requested. ID:", id)

	fmt.Fprintln(out, "Polling transcription...")
	result, err := j.Client.Poll(ctx, id, j.PollInterval)
	if err != nil {
		return "", err
	}

	fmt.Fprintln(out, "Generating markdown transcript...")
	if err := os.MkdirAll(j.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := TranscriptPath(j.OutputDir, videoURL)
	if err := os.WriteFile(path, []byte(RenderMarkdown(result, j.Chapters)), 0o644); err != nil {
		return "", err
	}
	j.Recorder.Record(ctx, reportdb.Report{Kind: reportdb.KindAssembly, Query: videoURL, Path: path, Items: len(result.Utterances)})
	fmt.Fprintf(out, "Transcript saved to %s\n", path)
	return path, nil
}
