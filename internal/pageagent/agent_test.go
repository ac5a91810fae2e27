package pageagent

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"researchkit/internal/httpclient"
	"researchkit/internal/llm"
)

func siteServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<html><head><title>Docs</title></head><body>
<nav><a href="/guide#top">Guide</a> <a href="/guide">Guide again</a> <a href="https://elsewhere.example/x">Off site</a> <a href="/missing">Missing</a></nav>
<main><h1>Welcome</h1><p>`+strings.Repeat("Introductory documentation text. ", 10)+`</p></main>
</body></html>`)
	})
	mux.HandleFunc("/guide", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><article><h1>Guide</h1><p>`+strings.Repeat("Step by step guide content. ", 10)+`</p></article></body></html>`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testAgent(gen llm.Generator) *Agent {
	return &Agent{
		HTTP:      httpclient.New(5 * time.Second),
		Generator: gen,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		MaxPages:  5,
		MaxChars:  60000,
	}
}

func TestAgentRun(t *testing.T) {
	srv := siteServer(t)
	var prompt string
	gen := llm.GeneratorFunc(func(_ context.Context, p string) (string, error) {
		prompt = p
		return "```json\n{\"posts\":[{\"caption\":\"Guide\",\"url\":\"" + srv.URL + "/guide\"}]}\n```", nil
	})

	res, err := testAgent(gen).Run(t.Context(), "List the guides", srv.URL+"/")
	require.NoError(t, err)
	require.NotNil(t, res.Posts)
	assert.Equal(t, []Post{{Caption: "Guide", URL: srv.URL + "/guide"}}, res.Posts.Posts)
	// the missing page is skipped, the off-site link never followed
	assert.Equal(t, []string{srv.URL + "/", srv.URL + "/guide"}, res.Pages)

	assert.Contains(t, prompt, "Task: List the guides")
	assert.Contains(t, prompt, "Introductory documentation text.")
	assert.Contains(t, prompt, "Step by step guide content.")
	assert.Contains(t, prompt, "- Guide: "+srv.URL+"/guide\n")
	assert.NotContains(t, prompt, "elsewhere.example")
	assert.Contains(t, prompt, `{"posts": [{"caption": "string", "url": "string"}]}`)
}

func TestAgentSpacesFetches(t *testing.T) {
	srv := siteServer(t)
	gen := llm.GeneratorFunc(func(context.Context, string) (string, error) { return "{}", nil })
	a := testAgent(gen)
	a.Limiter = rate.NewLimiter(rate.Every(80*time.Millisecond), 1)

	start := time.Now()
	res, err := a.Run(t.Context(), "List the guides", srv.URL+"/")
	require.NoError(t, err)
	// three fetches: start page, guide, missing page
	assert.Len(t, res.Pages, 2)
	assert.GreaterOrEqual(t, time.Since(start), 160*time.Millisecond)
}

func TestAgentCrawlCancelled(t *testing.T) {
	srv := siteServer(t)
	gen := llm.GeneratorFunc(func(context.Context, string) (string, error) { return "{}", nil })
	a := testAgent(gen)
	a.Limiter = rate.NewLimiter(rate.Every(time.Hour), 1)

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()
	_, err := a.Run(ctx, "List the guides", srv.URL+"/")
	require.Error(t, err)
}

func TestAgentRunUnparsedAnswer(t *testing.T) {
	srv := siteServer(t)
	gen := llm.GeneratorFunc(func(context.Context, string) (string, error) {
		return "I could not find any posts.", nil
	})
	a := testAgent(gen)
	a.MaxPages = 1
	res, err := a.Run(t.Context(), "find posts", srv.URL+"/")
	require.NoError(t, err)
	assert.Nil(t, res.Posts)
	assert.Len(t, res.Pages, 1)

	md := RenderMarkdown(res)
	assert.Contains(t, md, "**Task:** find posts")
	assert.True(t, strings.HasSuffix(md, "---\n\nI could not find any posts.\n"))
}

func TestAgentStartPageFailure(t *testing.T) {
	srv := siteServer(t)
	_, err := testAgent(llm.GeneratorFunc(func(context.Context, string) (string, error) {
		t.Fatal("model must not be called")
		return "", nil
	})).Run(t.Context(), "task", srv.URL+"/missing")
	require.Error(t, err)
}

func TestPromptBudget(t *testing.T) {
	a := testAgent(nil)
	a.MaxChars = 10
	p := a.prompt("t", "u", []*Page{
		{URL: "a", Content: "0123456789abcdef"},
		{URL: "b", Content: "never shown"},
	})
	assert.Contains(t, p, "0123456789\n[truncated]")
	assert.Contains(t, p, "## Page: b\n\n[omitted]")
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	res := &Result{Task: "docs", StartURL: "https://docs.example", Posts: &Posts{Posts: []Post{{Caption: "Intro", URL: "https://docs.example/intro"}}}}
	path, err := Save(t.Context(), dir, res, nil, time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "browse_docs_2025-02-03_04-05-06.md"))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "## 1. Intro\n\n[https://docs.example/intro](https://docs.example/intro)\n\n*Total posts: 1*\n")
}

func TestParsePosts(t *testing.T) {
	p, err := ParsePosts(`{"posts":[]}`)
	require.NoError(t, err)
	assert.Empty(t, p.Posts)

	_, err = ParsePosts("nope")
	assert.Error(t, err)
}
