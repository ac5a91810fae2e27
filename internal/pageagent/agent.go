// Package pageagent answers a browsing task over a small crawl of a site,
// asking the model for a structured list of posts.
package pageagent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"text/template"
	"time"

	"golang.org/x/time/rate"

	"researchkit/internal/httpclient"
	"researchkit/internal/llm"
)

type Post struct {
	Caption string `json:"caption"`
	URL     string `json:"url"`
}

type Posts struct {
	Posts []Post `json:"posts"`
}

// Result is the outcome of a run. Posts is nil when the answer was not
// valid JSON for the Posts schema.
type Result struct {
	Task     string
	StartURL string
	Pages    []string
	Raw      string
	Posts    *Posts
}

type Agent struct {
	HTTP      *httpclient.Client
	Generator llm.Generator
	Logger    *slog.Logger
	// MaxPages bounds the crawl, start page included.
	MaxPages int
	// MaxChars bounds the page text placed in the prompt.
	MaxChars int
	// Limiter spaces page fetches; nil fetches without pause.
	Limiter *rate.Limiter
}

func New(gen llm.Generator, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		HTTP:      httpclient.New(30*time.Second, httpclient.WithHeader("User-Agent", "researchkit/1.0 (+page agent)")),
		Generator: gen,
		Logger:    logger,
		MaxPages:  5,
		MaxChars:  60000,
		Limiter:   rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
	}
}

// Run crawls from startURL breadth-first over same-host links and asks the
// model to perform task on what it read.
func (a *Agent) Run(ctx context.Context, task, startURL string) (*Result, error) {
	pages, err := a.crawl(ctx, startURL)
	if err != nil {
		return nil, err
	}
	raw, err := a.Generator.Generate(ctx, a.prompt(task, startURL, pages))
	if err != nil {
		return nil, fmt.Errorf("page agent: %w", err)
	}
	res := &Result{Task: task, StartURL: startURL, Raw: raw}
	for _, p := range pages {
		res.Pages = append(res.Pages, p.URL)
	}
	if posts, err := ParsePosts(raw); err == nil {
		res.Posts = posts
	} else {
		a.Logger.Warn("answer does not match the posts schema", slog.Any("error", err))
	}
	return res, nil
}

func (a *Agent) crawl(ctx context.Context, startURL string) ([]*Page, error) {
	maxPages := max(a.MaxPages, 1)
	queue := []string{startURL}
	visited := map[string]bool{startURL: true}
	var pages []*Page
	for len(queue) > 0 && len(pages) < maxPages {
		next := queue[0]
		queue = queue[1:]
		if a.Limiter != nil {
			if err := a.Limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		page, err := fetchPage(ctx, a.HTTP, next)
		if err != nil {
			if len(pages) == 0 {
				return nil, err
			}
			a.Logger.Debug("skipping page", slog.String("url", next), slog.Any("error", err))
			continue
		}
		a.Logger.Debug("fetched page", slog.String("url", next), slog.Int("links", len(page.Links)))
		pages = append(pages, page)
		for _, l := range page.Links {
			if !visited[l.URL] {
				visited[l.URL] = true
				queue = append(queue, l.URL)
			}
		}
	}
	return pages, nil
}

var promptTmpl = template.Must(template.New("agent").Parse(`You are a web research agent. Complete the task using only the pages below.

Task: {{.Task}}
Start URL: {{.StartURL}}
{{range .Pages}}
## Page: {{.URL}}{{if .Title}} ({{.Title}}){{end}}

{{.Content}}
{{end}}
Links found on the start page:
{{- range .Links}}
- {{if .Text}}{{.Text}}: {{end}}{{.URL}}
{{- end}}

Answer with JSON only, no prose, matching this schema:
{"posts": [{"caption": "string", "url": "string"}]}
`))

func (a *Agent) prompt(task, startURL string, pages []*Page) string {
	remaining := a.MaxChars
	trimmed := make([]Page, 0, len(pages))
	for _, p := range pages {
		cp := *p
		if a.MaxChars > 0 {
			r := []rune(cp.Content)
			switch {
			case remaining <= 0:
				cp.Content = "[omitted]"
			case len(r) > remaining:
				cp.Content = string(r[:remaining]) + "\n[truncated]"
				remaining = 0
			default:
				remaining -= len(r)
			}
		}
		trimmed = append(trimmed, cp)
	}
	var links []Link
	if len(pages) > 0 {
		links = pages[0].Links
	}
	var buf bytes.Buffer
	_ = promptTmpl.Execute(&buf, map[string]any{
		"Task":     task,
		"StartURL": startURL,
		"Pages":    trimmed,
		"Links":    links,
	})
	return buf.String()
}

// ParsePosts decodes a model answer, tolerating Markdown code fences.
func ParsePosts(raw string) (*Posts, error) {
	var p Posts
	if err := json.Unmarshal([]byte(llm.StripFences(raw)), &p); err != nil {
		return nil, err
	}
	return &p, nil
}
