// Package reportdb keeps a SQLite index of generated reports and a cache of
// fetched transcripts.
package reportdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// Report kinds.
const (
	KindVideos      = "yt-videos"
	KindTranscripts = "yt-transcripts"
	KindSummaries   = "yt-summaries"
	KindAnalysis    = "yt-analysis"
	KindAssembly    = "assembly"
	KindExa         = "exa-search"
	KindTweets      = "exa-tweets"
	KindBrowse      = "browse"
)

const timeLayout = "2006-01-02 15:04:05"

type Report struct {
	ID        string
	Kind      string
	Query     string
	Path      string
	Items     int
	CreatedAt time.Time
}

func Open(dbPath string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := InitSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return db, nil
}

// Insert stores r, assigning an ID and timestamp when they are empty.
func Insert(ctx context.Context, db *sql.DB, r Report) (Report, error) {
	if strings.TrimSpace(r.Kind) == "" || strings.TrimSpace(r.Path) == "" {
		return r, errors.New("missing kind or path")
	}
	if r.ID == "" {
		r.ID = ulid.Make().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := db.ExecContext(ctx, `INSERT INTO reports (id, kind, query, path, items, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.Kind, r.Query, r.Path, r.Items, r.CreatedAt.UTC().Format(timeLayout))
	return r, err
}

// List returns reports newest first, optionally filtered by kind.
func List(ctx context.Context, db *sql.DB, kind string, limit int) ([]Report, error) {
	q := `SELECT id, kind, query, path, items, created_at FROM reports`
	var args []any
	if kind != "" {
		q += " WHERE kind = ?"
		args = append(args, kind)
	}
	// ULIDs sort by creation time within the same second
	q += " ORDER BY created_at DESC, id DESC"
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Report
	for rows.Next() {
		var (
			r       Report
			created string
		)
		if err := rows.Scan(&r.ID, &r.Kind, &r.Query, &r.Path, &r.Items, &created); err != nil {
			return nil, err
		}
		if t, err := time.ParseInLocation(timeLayout, created, time.UTC); err == nil {
			r.CreatedAt = t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetTranscript returns a cached transcript, or "" when none is stored.
func GetTranscript(ctx context.Context, db *sql.DB, videoID string) (string, error) {
	var text string
	err := db.QueryRowContext(ctx, `SELECT transcript FROM transcript_cache WHERE video_id = ?`, videoID).Scan(&text)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return text, nil
}

func PutTranscript(ctx context.Context, db *sql.DB, videoID, url, transcript string) error {
	if strings.TrimSpace(videoID) == "" || strings.TrimSpace(transcript) == "" {
		return nil
	}
	_, err := db.ExecContext(ctx, `INSERT INTO transcript_cache (video_id, url, transcript, fetched_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(video_id) DO UPDATE SET
           url=excluded.url,
           transcript=excluded.transcript,
           fetched_at=excluded.fetched_at`,
		videoID, url, transcript, time.Now().UTC().Format(timeLayout))
	return err
}

// TranscriptStore adapts the transcript cache to youtube.TranscriptCache.
type TranscriptStore struct {
	DB *sql.DB
}

func (s TranscriptStore) Get(ctx context.Context, videoID string) (string, error) {
	return GetTranscript(ctx, s.DB, videoID)
}

func (s TranscriptStore) Put(ctx context.Context, videoID, url, transcript string) error {
	return PutTranscript(ctx, s.DB, videoID, url, transcript)
}

// Recorder indexes reports, logging instead of failing when the DB is unavailable.
type Recorder struct {
	DB     *sql.DB
	Logger *slog.Logger
}

func (rec *Recorder) Record(ctx context.Context, r Report) {
	if rec == nil || rec.DB == nil {
		return
	}
	if _, err := Insert(ctx, rec.DB, r); err != nil && rec.Logger != nil {
		rec.Logger.Warn("could not index report", slog.String("path", r.Path), slog.Any("error", err))
	}
}
