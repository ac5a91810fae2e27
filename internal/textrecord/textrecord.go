package textrecord

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Sentinel lines shared by the writers and readers. The readers match on the
// exact text the writers emit.
const (
	videoPrefix      = "Video #"
	titlePrefix      = "Title: "
	urlPrefix        = "URL: "
	viewCountPrefix  = "View Count: "
	transcriptMarker = "TRANSCRIPT:"
	sectionRule      = "="
)

var (
	heavyRule = strings.Repeat("=", 80)
	lightRule = strings.Repeat("-", 80)
)

// ErrNotFound is returned when a step's input file has not been produced yet.
var ErrNotFound = errors.New("input file not found")

// Video is a single search hit as written to the videos file.
type Video struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	ViewCount int64  `json:"view_count"`
}

// TranscriptRecord is a video plus its transcript text.
type TranscriptRecord struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	Transcript string `json:"transcript"`
}

// WriteVideos renders the videos file.
func WriteVideos(w io.Writer, term string, videos []Video, now time.Time) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "YouTube Search Results for: '%s'\n", term)
	fmt.Fprintf(bw, "Generated on: %s\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(bw, "%s\n\n", heavyRule)
	for i, v := range videos {
		fmt.Fprintf(bw, "%s%d\n", videoPrefix, i+1)
		fmt.Fprintf(bw, "%s%s\n", titlePrefix, v.Title)
		fmt.Fprintf(bw, "%s%s\n", urlPrefix, v.URL)
		fmt.Fprintf(bw, "%s%s\n", viewCountPrefix, FormatCount(v.ViewCount))
		fmt.Fprintf(bw, "%s\n\n", lightRule)
	}
	return bw.Flush()
}

// ReadVideos parses a videos file. A Title line opens a record and the
// following URL line completes it.
func ReadVideos(r io.Reader) ([]Video, error) {
	var (
		out     []Video
		current Video
	)
	sc := newScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, titlePrefix):
			current = Video{Title: line[len(titlePrefix):]}
		case strings.HasPrefix(line, urlPrefix):
			current.URL = line[len(urlPrefix):]
			out = append(out, current)
		case strings.HasPrefix(line, viewCountPrefix):
			if len(out) == 0 {
				continue
			}
			raw := strings.ReplaceAll(line[len(viewCountPrefix):], ",", "")
			if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
				out[len(out)-1].ViewCount = n
			}
		}
	}
	return out, sc.Err()
}

// WriteTranscripts renders the transcripts file.
func WriteTranscripts(w io.Writer, term string, records []TranscriptRecord) error {
	tw, err := NewTranscriptWriter(w, term)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if err := tw.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// TranscriptWriter writes the transcripts file one record at a time so that
// progress survives a failure halfway through a long fetch.
type TranscriptWriter struct {
	bw *bufio.Writer
	n  int
}

// NewTranscriptWriter writes the file header and returns a writer for the records.
func NewTranscriptWriter(w io.Writer, term string) (*TranscriptWriter, error) {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "YouTube Video Transcripts for Search Term: '%s'\n", term)
	fmt.Fprintf(bw, "%s\n\n", heavyRule)
	return &TranscriptWriter{bw: bw}, bw.Flush()
}

// Write appends one record.
func (tw *TranscriptWriter) Write(rec TranscriptRecord) error {
	tw.n++
	if err := writeTranscript(tw.bw, tw.n, rec); err != nil {
		return err
	}
	return tw.bw.Flush()
}

func writeTranscript(bw *bufio.Writer, n int, rec TranscriptRecord) error {
	fmt.Fprintf(bw, "%s%d\n", videoPrefix, n)
	fmt.Fprintf(bw, "%s%s\n", titlePrefix, rec.Title)
	fmt.Fprintf(bw, "%s%s\n", urlPrefix, rec.URL)
	fmt.Fprintf(bw, "%s\n\n", lightRule)
	fmt.Fprintf(bw, "%s\n", transcriptMarker)
	bw.WriteString(rec.Transcript)
	_, err := fmt.Fprintf(bw, "\n%s\n\n", heavyRule)
	return err
}

// accumulator holds the record being rebuilt while scanning.
type accumulator struct {
	title, url string
	lines      []string
	inText     bool
}

func (a *accumulator) complete() bool {
	return a.title != "" && a.url != "" && len(a.lines) > 0
}

func (a *accumulator) record() TranscriptRecord {
	return TranscriptRecord{Title: a.title, URL: a.url, Transcript: strings.Join(a.lines, "\n")}
}

// ReadTranscripts rebuilds transcript records from a transcripts file.
//
// Lines are trimmed. A "Video #" line flushes the accumulator, "Title: " and
// "URL: " assign fields, and "TRANSCRIPT:" switches to collecting free text
// until the next record. Rule lines and blank lines are never part of the
// text. Records missing a title, URL or any transcript text are dropped.
func ReadTranscripts(r io.Reader) ([]TranscriptRecord, error) {
	var (
		out []TranscriptRecord
		acc accumulator
	)
	flush := func() {
		if acc.complete() {
			out = append(out, acc.record())
		}
		acc = accumulator{}
	}
	sc := newScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, videoPrefix):
			flush()
		case acc.inText:
			if line != "" && !strings.HasPrefix(line, sectionRule) {
				acc.lines = append(acc.lines, line)
			}
		case strings.HasPrefix(line, titlePrefix):
			acc.title = line[len(titlePrefix):]
		case strings.HasPrefix(line, urlPrefix):
			acc.url = line[len(urlPrefix):]
		case line == transcriptMarker:
			acc.inText = true
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()
	return out, nil
}

// transcripts can carry very long caption lines
func newScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return sc
}

// FormatCount renders n with comma thousands separators.
func FormatCount(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// SafeName replaces every non-alphanumeric rune with an underscore and keeps
// at most max runes. max <= 0 keeps the whole name.
func SafeName(query string, max int) string {
	runes := []rune(query)
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			runes[i] = '_'
		}
	}
	if max > 0 && len(runes) > max {
		runes = runes[:max]
	}
	return string(runes)
}

func VideosPath(dir, term string) string {
	return filepath.Join(dir, SafeName(term, 0)+"_videos.txt")
}

func TranscriptsPath(dir, term string) string {
	return filepath.Join(dir, SafeName(term, 0)+"_transcripts.txt")
}

func SummariesPath(dir, term string) string {
	return filepath.Join(dir, SafeName(term, 0)+"_summaries.md")
}

// ReadVideosFile reads the videos file written by the scrape step.
func ReadVideosFile(path string) ([]Video, error) {
	f, err := open(path, "research yt scrape")
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadVideos(f)
}

// ReadTranscriptsFile reads the transcripts file written by the transcripts step.
func ReadTranscriptsFile(path string) ([]TranscriptRecord, error) {
	f, err := open(path, "research yt transcripts")
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTranscripts(f)
}

func open(path, producer string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: could not find %s, run %q first", ErrNotFound, path, producer)
		}
		return nil, err
	}
	return f, nil
}

// CreateFile creates path and any missing parent directories.
func CreateFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return os.Create(path)
}
