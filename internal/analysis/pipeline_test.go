package analysis

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"researchkit/internal/reportdb"
	"researchkit/internal/textrecord"
)

type fakeSearcher struct{ videos []textrecord.Video }

func (f fakeSearcher) Search(context.Context, string, int) ([]textrecord.Video, error) {
	return f.videos, nil
}

type fakeTranscripts map[string]string

func (f fakeTranscripts) Transcript(_ context.Context, url string) string {
	if t, ok := f[url]; ok {
		return t
	}
	return "Could not fetch transcript: disabled"
}

func TestWorkflow(t *testing.T) {
	dir := t.TempDir()
	db, err := reportdb.Open(filepath.Join(dir, "r.db"))
	require.NoError(t, err)
	defer db.Close()

	var out bytes.Buffer
	gen := &recordingGen{reply: func(p string) (string, error) {
		return "SUMMARY:\nabout " + strings.SplitN(strings.SplitN(p, "Title: ", 2)[1], "\n", 2)[0], nil
	}}
	p := &Pipeline{
		Searcher: fakeSearcher{videos: []textrecord.Video{
			{Title: "One", URL: "https://www.youtube.com/watch?v=aaaaaaaaaaa", ViewCount: 1500},
			{Title: "Two", URL: "https://www.youtube.com/watch?v=bbbbbbbbbbb", ViewCount: 3},
		}},
		Source: fakeTranscripts{
			"https://www.youtube.com/watch?v=aaaaaaaaaaa": "first line\nsecond line",
		},
		Generator: gen,
		Recorder:  &reportdb.Recorder{DB: db},
		OutputDir: dir,
		Out:       &out,
		Now:       func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) },
	}

	path, err := p.Workflow(t.Context(), "ai agents")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ai_agents_summaries.md"), path)

	videos, err := textrecord.ReadVideosFile(filepath.Join(dir, "ai_agents_videos.txt"))
	require.NoError(t, err)
	assert.Len(t, videos, 2)

	// the failed transcript is a placeholder, which still counts as text
	records, err := textrecord.ReadTranscriptsFile(filepath.Join(dir, "ai_agents_transcripts.txt"))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "first line\nsecond line", records[0].Transcript)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "## Video #1: [One](https://www.youtube.com/watch?v=aaaaaaaaaaa)")
	assert.Contains(t, string(b), "### Summary\n\nabout Two")

	for _, step := range []string{"Step 1:", "Step 2:", "Step 3:", "Analyzing video 2/2: Two"} {
		assert.Contains(t, out.String(), step)
	}

	reports, err := reportdb.List(t.Context(), db, "", 0)
	require.NoError(t, err)
	assert.Len(t, reports, 3)
}

func TestSummarizeWithoutTranscripts(t *testing.T) {
	p := &Pipeline{OutputDir: t.TempDir(), Generator: &recordingGen{}}
	_, err := p.Summarize(t.Context(), "missing")
	require.ErrorIs(t, err, textrecord.ErrNotFound)
	assert.Contains(t, err.Error(), "research yt transcripts")
}
