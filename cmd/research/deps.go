package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"researchkit/internal/analysis"
	"researchkit/internal/config"
	"researchkit/internal/exa"
	"researchkit/internal/llm"
	"researchkit/internal/prompt"
	"researchkit/internal/reportdb"
	"researchkit/internal/youtube"
)

// deps is what a command needs, built from the loaded configuration.
type deps struct {
	cfg    config.AppConfig
	logger *slog.Logger
	db     *sql.DB
}

func loadDeps(load config.ConfigLoad) (*deps, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	d := &deps{cfg: cfg, logger: slog.Default()}
	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		d.logger.Warn("report index disabled", slog.Any("error", err))
		return d, nil
	}
	db, err := reportdb.Open(cfg.DatabasePath)
	if err != nil {
		// Reports are still written; only the index is lost.
		d.logger.Warn("report index disabled", slog.String("path", cfg.DatabasePath), slog.Any("error", err))
		return d, nil
	}
	d.db = db
	return d, nil
}

func (d *deps) Close() {
	if d.db != nil {
		_ = d.db.Close()
	}
}

func (d *deps) recorder() *reportdb.Recorder {
	if d.db == nil {
		return nil
	}
	return &reportdb.Recorder{DB: d.db, Logger: d.logger}
}

func (d *deps) outputDir(c *cli.Command) string {
	if v := strings.TrimSpace(c.String("output-dir")); v != "" {
		return config.ExpandPath(v)
	}
	return d.cfg.OutputDir
}

func (d *deps) transcriber() *youtube.Transcriber {
	var ws *youtube.WebshareProxyConfig
	if d.cfg.YouTube.WebshareUsername != "" {
		ws = &youtube.WebshareProxyConfig{
			Username: d.cfg.YouTube.WebshareUsername,
			Password: d.cfg.YouTube.WebsharePassword,
		}
	}
	t := youtube.NewTranscriber(ws, d.logger)
	if d.db != nil {
		t.Cache = reportdb.TranscriptStore{DB: d.db}
	}
	return t
}

func (d *deps) searcher(ctx context.Context) (*youtube.Searcher, error) {
	if err := d.cfg.RequireYouTube(); err != nil {
		return nil, err
	}
	return youtube.NewSearcher(ctx, d.cfg.YouTube.APIKey, d.logger)
}

func (d *deps) gemini() (*llm.Gemini, error) {
	if err := d.cfg.RequireGemini(); err != nil {
		return nil, err
	}
	return llm.NewGemini(d.cfg.Gemini), nil
}

func (d *deps) exaClient() (*exa.Client, error) {
	if err := d.cfg.RequireExa(); err != nil {
		return nil, err
	}
	return exa.NewClient(d.cfg.Exa.APIKey, d.cfg.Exa.BaseURL), nil
}

func (d *deps) pipeline(c *cli.Command) *analysis.Pipeline {
	maxResults := d.cfg.YouTube.MaxResults
	if n := c.Int("max-results"); n > 0 {
		maxResults = n
	}
	return &analysis.Pipeline{
		Source:     d.transcriber(),
		Recorder:   d.recorder(),
		OutputDir:  d.outputDir(c),
		MaxResults: maxResults,
		Delay:      time.Duration(d.cfg.Gemini.DelaySeconds) * time.Second,
		Out:        os.Stdout,
	}
}

// resolveQuery takes --query, then the first positional argument, then asks.
func resolveQuery(ctx context.Context, c *cli.Command, label string) (string, error) {
	if q := strings.TrimSpace(c.String("query")); q != "" {
		return q, nil
	}
	if q := strings.TrimSpace(c.Args().First()); q != "" {
		return q, nil
	}
	q, err := prompt.Ask(ctx, label)
	if errors.Is(err, prompt.ErrEmpty) {
		return "", fmt.Errorf("a search term is required")
	}
	return q, err
}

// optionalDate converts a YYYY-MM-DD flag, reporting and ignoring bad values.
func optionalDate(c *cli.Command, name string) string {
	v := strings.TrimSpace(c.String(name))
	if v == "" {
		return ""
	}
	d, err := exa.ParseDate(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid %s: %v\n", strings.ReplaceAll(name, "-", " "), err)
		return ""
	}
	return d
}
