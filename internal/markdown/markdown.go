// Package markdown converts fetched HTML pages into Markdown for prompts
// and reports.
package markdown

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
)

var blankRunRe = regexp.MustCompile(`\n{3,}`)

// FromHTML converts an HTML document or fragment. pageURL, when set,
// resolves relative links. If the full converter rejects the input, the
// simpler node walker is used instead.
func FromHTML(htmlStr, pageURL string) string {
	if strings.TrimSpace(htmlStr) == "" {
		return ""
	}
	var opts []converter.ConvertOptionFunc
	if pageURL != "" {
		opts = append(opts, converter.WithDomain(pageURL))
	}
	md, err := htmltomarkdown.ConvertString(htmlStr, opts...)
	if err != nil || strings.TrimSpace(md) == "" {
		md = Walk(htmlStr)
	}
	return Tidy(md)
}

// Tidy trims trailing spaces and collapses runs of blank lines.
func Tidy(md string) string {
	lines := strings.Split(md, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	md = strings.Join(lines, "\n")
	return strings.TrimSpace(blankRunRe.ReplaceAllString(md, "\n\n"))
}
