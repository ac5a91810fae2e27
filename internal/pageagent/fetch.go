package pageagent

import (
	"bytes"
	"context"
	"fmt"
	"io"
	neturl "net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	trafilatura "github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"

	"researchkit/internal/httpclient"
	"researchkit/internal/markdown"
)

const (
	maxBodyBytes = 5 << 20
	// shorter extractions are treated as misses
	minContentChars = 100
)

// Page is one fetched page reduced to Markdown.
type Page struct {
	URL     string
	Title   string
	Content string
	Links   []Link
}

type Link struct {
	Text string
	URL  string
}

func fetchPage(ctx context.Context, client *httpclient.Client, pageURL string) (*Page, error) {
	resp, err := client.Get(ctx, pageURL, map[string]string{"Accept": "text/html"})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	base, err := neturl.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	page := &Page{URL: pageURL}
	page.Title, page.Content = extractContent(body, base)
	page.Links = harvestLinks(body, base)
	return page, nil
}

// extractContent keeps the main content of the page: trafilatura first,
// readability second, otherwise the whole document.
func extractContent(body []byte, base *neturl.URL) (title, content string) {
	res, err := trafilatura.Extract(bytes.NewReader(body), trafilatura.Options{
		OriginalURL:    base,
		EnableFallback: true,
		Focus:          trafilatura.Balanced,
	})
	if err == nil && res != nil {
		title = res.Metadata.Title
		if res.ContentNode != nil && len(strings.TrimSpace(res.ContentText)) > minContentChars {
			var buf bytes.Buffer
			if err := html.Render(&buf, res.ContentNode); err == nil {
				if md := markdown.FromHTML(buf.String(), base.String()); md != "" {
					return title, md
				}
			}
			return title, strings.TrimSpace(res.ContentText)
		}
	}
	art, err := readability.FromReader(bytes.NewReader(body), base)
	if err == nil && len(strings.TrimSpace(art.TextContent)) > minContentChars {
		if title == "" {
			title = art.Title
		}
		if md := markdown.FromHTML(art.Content, base.String()); md != "" {
			return title, md
		}
		return title, strings.TrimSpace(art.TextContent)
	}
	return title, markdown.FromHTML(string(body), base.String())
}

// harvestLinks returns the distinct same-host http(s) links of the page in
// document order, fragments removed.
func harvestLinks(body []byte, base *neturl.URL) []Link {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}
	seen := map[string]bool{}
	var links []Link
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		u, err := base.Parse(strings.TrimSpace(href))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host != base.Host {
			return
		}
		u.Fragment = ""
		key := u.String()
		if seen[key] {
			return
		}
		seen[key] = true
		links = append(links, Link{Text: strings.Join(strings.Fields(s.Text()), " "), URL: key})
	})
	return links
}
