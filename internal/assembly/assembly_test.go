package assembly

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietClient(baseURL string) *Client {
	c := NewClient("aai-key", baseURL)
	c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return c
}

func TestConvertMsToTime(t *testing.T) {
	tests := map[int64]string{
		0:       "00:00",
		999:     "00:00",
		61000:   "01:01",
		3599999: "59:59",
		3661000: "01:01:01",
	}
	for ms, want := range tests {
		assert.Equal(t, want, ConvertMsToTime(ms), "ms=%d", ms)
	}
}

func TestRenderMarkdownUtterances(t *testing.T) {
	tr := &Transcript{
		Utterances: []Utterance{
			{Start: 0, End: 61000, Speaker: "A", Text: "Hello."},
			{Start: 61000, End: 3661000, Text: "Long answer."},
		},
		Chapters: []Chapter{{Start: 0, End: 1000, Gist: "Intro"}},
	}
	want := "# Transcript for YouTube Video\n\n## Transcript Segments\n\n" +
		"- **[00:00 - 01:01] Speaker A:** Hello.\n" +
		"- **[01:01 - 01:01:01] Speaker Unknown:** Long answer.\n"
	assert.Equal(t, want, RenderMarkdown(tr, false))

	withChapters := RenderMarkdown(tr, true)
	assert.Contains(t, withChapters, "## Chapters\n\n### Chapter 1\n- **Time:** 00:00 - 00:01\n- **Gist:** Intro\n- **Summary:** No summary\n")
}

func TestRenderMarkdownFallbacks(t *testing.T) {
	text := "plain words"
	assert.Equal(t, "# Transcript for YouTube Video\n\n## Transcript Segments\n\nplain words\n",
		RenderMarkdown(&Transcript{Text: &text}, false))
	assert.Equal(t, "# Transcript for YouTube Video\n\n## Transcript Segments\n\nNo transcript available.\n",
		RenderMarkdown(&Transcript{}, false))
}

func TestUploadAndRequest(t *testing.T) {
	audio := filepath.Join(t.TempDir(), "audio.m4a")
	require.NoError(t, os.WriteFile(audio, bytes.Repeat([]byte{1}, 4096), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "aai-key", r.Header.Get("authorization"))
		switch r.URL.Path {
		case "/v2/upload":
			b, _ := io.ReadAll(r.Body)
			assert.Len(t, b, 4096)
			fmt.Fprint(w, `{"upload_url":"https://cdn.example/abc"}`)
		case "/v2/transcript":
			var in map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			assert.Equal(t, "https://cdn.example/abc", in["audio_url"])
			assert.Equal(t, true, in["speaker_labels"])
			assert.Equal(t, false, in["auto_chapters"])
			fmt.Fprint(w, `{"id":"job-1","status":"queued"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := quietClient(srv.URL)
	var progress bytes.Buffer
	c.Progress = &progress

	u, err := c.Upload(t.Context(), audio)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/abc", u)
	assert.Contains(t, progress.String(), "uploading")

	id, err := c.Request(t.Context(), u, RequestOptions{SpeakerLabels: true})
	require.NoError(t, err)
	assert.Equal(t, "job-1", id)
}

func TestPoll(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/transcript/job-1", r.URL.Path)
		if calls.Add(1) < 3 {
			fmt.Fprint(w, `{"id":"job-1","status":"processing"}`)
			return
		}
		fmt.Fprint(w, `{"id":"job-1","status":"completed","text":"hi","utterances":[{"start":0,"end":1000,"speaker":"A","text":"hi"}]}`)
	}))
	defer srv.Close()

	got, err := quietClient(srv.URL).Poll(t.Context(), "job-1", time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	require.Len(t, got.Utterances, 1)
	assert.Equal(t, "A", got.Utterances[0].Speaker)
}

func TestPollError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"job-1","status":"error","error":"audio too short"}`)
	}))
	defer srv.Close()

	_, err := quietClient(srv.URL).Poll(t.Context(), "job-1", time.Millisecond)
	require.ErrorIs(t, err, ErrTranscriptionFailed)
	assert.Contains(t, err.Error(), "audio too short")
}

func TestPollCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"job-1","status":"queued"}`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()
	_, err := quietClient(srv.URL).Poll(ctx, "job-1", time.Hour)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestJobRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/upload":
			fmt.Fprint(w, `{"upload_url":"https://cdn.example/abc"}`)
		case "/v2/transcript":
			fmt.Fprint(w, `{"id":"job-9"}`)
		case "/v2/transcript/job-9":
			fmt.Fprint(w, `{"status":"completed","utterances":[{"start":0,"end":2000,"speaker":"B","text":"done"}]}`)
		}
	}))
	defer srv.Close()

	outDir := t.TempDir()
	job := &Job{
		Client: quietClient(srv.URL),
		Download: func(_ context.Context, _ string, dir string) (string, error) {
			p := filepath.Join(dir, "audio.webm")
			return p, os.WriteFile(p, []byte("audio"), 0o644)
		},
		OutputDir:    outDir,
		PollInterval: time.Millisecond,
	}
	path, err := job.Run(t.Context(), "https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "dQw4w9WgXcQ_transcript.md"), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "- **[00:00 - 00:02] Speaker B:** done")
}

func TestJobRunRejectsOtherHosts(t *testing.T) {
	downloaded := false
	job := &Job{
		Download: func(context.Context, string, string) (string, error) {
			downloaded = true
			return "", nil
		},
		OutputDir: t.TempDir(),
	}
	_, err := job.Run(t.Context(), "https://vimeo.com/123456")
	assert.ErrorIs(t, err, ErrNotYouTube)
	assert.False(t, downloaded)
}
