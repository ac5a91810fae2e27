// Package assembly transcribes audio with AssemblyAI and renders the
// transcript as Markdown.
package assembly

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"researchkit/internal/httpclient"
)

const (
	DefaultBaseURL = "https://api.assemblyai.com"
	uploadChunk    = 5 << 20
)

var ErrTranscriptionFailed = errors.New("transcription failed")

type Utterance struct {
	Start   int64  `json:"start"`
	End     int64  `json:"end"`
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

type Chapter struct {
	Start   int64  `json:"start"`
	End     int64  `json:"end"`
	Gist    string `json:"gist"`
	Summary string `json:"summary"`
}

// Transcript is the subset of the transcript resource the report uses.
// Utterances is nil when the job ran without speaker labels.
type Transcript struct {
	ID         string      `json:"id"`
	Status     string      `json:"status"`
	Error      string      `json:"error"`
	Text       *string     `json:"text"`
	Utterances []Utterance `json:"utterances"`
	Chapters   []Chapter   `json:"chapters"`
}

type RequestOptions struct {
	SpeakerLabels bool
	AutoChapters  bool
}

type Client struct {
	http *httpclient.Client
	// Progress receives the upload progress bar; nil disables it.
	Progress io.Writer
	Logger   *slog.Logger
}

func NewClient(apiKey, baseURL string, opts ...httpclient.Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	all := append([]httpclient.Option{
		httpclient.WithBaseURL(baseURL),
		httpclient.WithHeader("authorization", apiKey),
	}, opts...)
	// uploads of long recordings outlive any fixed deadline
	return &Client{http: httpclient.New(0, all...), Logger: slog.Default()}
}

// Upload sends the file at path and returns the URL AssemblyAI stores it under.
func (c *Client) Upload(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var body io.Reader = bufio.NewReaderSize(f, uploadChunk)
	if c.Progress != nil {
		size := int64(-1)
		if st, err := f.Stat(); err == nil {
			size = st.Size()
		}
		bar := progressbar.NewOptions64(size,
			progressbar.OptionSetWriter(c.Progress),
			progressbar.OptionSetDescription("uploading"),
			progressbar.OptionShowBytes(true),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(c.Progress) }),
		)
		body = io.TeeReader(body, bar)
	}

	resp, err := c.http.Post(ctx, "/v2/upload", body, map[string]string{"Content-Type": "application/octet-stream"})
	if err != nil {
		return "", fmt.Errorf("error uploading file: %w", err)
	}
	var out struct {
		UploadURL string `json:"upload_url"`
	}
	if err := httpclient.Decode(resp, &out); err != nil {
		return "", fmt.Errorf("error uploading file: %w", err)
	}
	return out.UploadURL, nil
}

// Request starts a transcription job and returns its ID.
func (c *Client) Request(ctx context.Context, audioURL string, opts RequestOptions) (string, error) {
	in := map[string]any{
		"audio_url":      audioURL,
		"speaker_labels": opts.SpeakerLabels,
		"auto_chapters":  opts.AutoChapters,
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := c.http.PostJSON(ctx, "/v2/transcript", in, &out); err != nil {
		return "", fmt.Errorf("error requesting transcription: %w", err)
	}
	return out.ID, nil
}

// Poll checks the job every interval until it completes or fails. There is
// no attempt limit; cancel ctx to give up.
func (c *Client) Poll(ctx context.Context, id string, interval time.Duration) (*Transcript, error) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	for {
		var t Transcript
		if err := c.http.GetJSON(ctx, "/v2/transcript/"+id, &t); err != nil {
			return nil, fmt.Errorf("poll transcription: %w", err)
		}
		switch t.Status {
		case "completed":
			return &t, nil
		case "error":
			return nil, fmt.Errorf("%w: %s", ErrTranscriptionFailed, t.Error)
		}
		c.logger().Info("Transcription status", slog.String("id", id), slog.String("status", t.Status))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}

func (c *Client) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
