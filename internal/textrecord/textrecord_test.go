package textrecord

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscriptsRoundTrip(t *testing.T) {
	records := []TranscriptRecord{
		{
			Title:      "How to build a startup",
			URL:        "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			Transcript: "first line\nsecond line\n\n  third line with padding  ",
		},
		{
			Title:      "Title: with a colon",
			URL:        "https://youtu.be/abcdefghijk",
			Transcript: "Could not fetch transcript: transcripts disabled or unavailable",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTranscripts(&buf, "startups", records))

	got, err := ReadTranscripts(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, records[0].Title, got[0].Title)
	assert.Equal(t, records[0].URL, got[0].URL)
	assert.Equal(t, "first line\nsecond line\nthird line with padding", got[0].Transcript)

	assert.Equal(t, records[1].Title, got[1].Title)
	assert.Equal(t, records[1].URL, got[1].URL)
	assert.Equal(t, records[1].Transcript, got[1].Transcript)
}

func TestReadTranscripts(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		titles []string
	}{
		{
			name:   "empty input",
			input:  "",
			titles: nil,
		},
		{
			name: "record without transcript section is dropped",
			input: strings.Join([]string{
				"Video #1",
				"Title: no transcript",
				"URL: https://www.youtube.com/watch?v=aaaaaaaaaaa",
				"Video #2",
				"Title: has transcript",
				"URL: https://www.youtube.com/watch?v=bbbbbbbbbbb",
				"TRANSCRIPT:",
				"hello",
			}, "\n"),
			titles: []string{"has transcript"},
		},
		{
			name: "empty transcript section is dropped",
			input: strings.Join([]string{
				"Video #1",
				"Title: empty",
				"URL: https://www.youtube.com/watch?v=aaaaaaaaaaa",
				"TRANSCRIPT:",
				"",
				strings.Repeat("=", 80),
			}, "\n"),
			titles: nil,
		},
		{
			name: "partial record at end of input is dropped",
			input: strings.Join([]string{
				"Video #1",
				"TRANSCRIPT:",
				"text without identity",
			}, "\n"),
			titles: nil,
		},
		{
			name: "fields before any video sentinel still count",
			input: strings.Join([]string{
				"Title: orphan",
				"URL: https://youtu.be/ccccccccccc",
				"TRANSCRIPT:",
				"words",
			}, "\n"),
			titles: []string{"orphan"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadTranscripts(strings.NewReader(tt.input))
			require.NoError(t, err)
			var titles []string
			for _, r := range got {
				titles = append(titles, r.Title)
			}
			assert.Equal(t, tt.titles, titles)
		})
	}
}

func TestVideosRoundTrip(t *testing.T) {
	videos := []Video{
		{Title: "One", URL: "https://www.youtube.com/watch?v=aaaaaaaaaaa", ViewCount: 1234567},
		{Title: "Two", URL: "https://www.youtube.com/watch?v=bbbbbbbbbbb", ViewCount: 12},
	}
	now := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, WriteVideos(&buf, "go", videos, now))

	out := buf.String()
	assert.Contains(t, out, "YouTube Search Results for: 'go'\n")
	assert.Contains(t, out, "Generated on: 2025-03-01 09:30:00\n")
	assert.Contains(t, out, "View Count: 1,234,567\n")

	got, err := ReadVideos(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, videos, got)
}

func TestFormatCount(t *testing.T) {
	tests := map[int64]string{
		0:          "0",
		999:        "999",
		1000:       "1,000",
		123456:     "123,456",
		1234567890: "1,234,567,890",
		-4500:      "-4,500",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatCount(in), "FormatCount(%d)", in)
	}
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "Thrive_Capital_Valuation_2025", SafeName("Thrive Capital Valuation 2025", 0))
	assert.Equal(t, "a_b_c", SafeName("a/b.c", 0))
	assert.Equal(t, "abc", SafeName("abcdef", 3))
	assert.Equal(t, "", SafeName("", 30))
}

func TestReadFilesMissing(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadVideosFile(VideosPath(dir, "nothing"))
	require.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "research yt scrape")

	_, err = ReadTranscriptsFile(TranscriptsPath(dir, "nothing"))
	require.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "research yt transcripts")
}

func TestCreateFileMakesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "results", "x_videos.txt")
	f, err := CreateFile(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	_, err = os.Stat(path)
	require.NoError(t, err)
}
