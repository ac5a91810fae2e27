package markdown

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// skipped elements never contribute text
var skipped = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"svg": true, "iframe": true, "head": true,
}

// Walk converts HTML to Markdown by walking the parsed node tree. It covers
// headings, emphasis, links, lists, code and quotes; everything else
// contributes only its text.
func Walk(htmlStr string) string {
	doc, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return ""
	}
	root := findElement(doc, "body")
	if root == nil {
		root = doc
	}
	var w walker
	w.children(root)
	return w.sb.String()
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

type walker struct {
	sb strings.Builder
}

func (w *walker) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.node(c)
	}
}

// inner renders the children of n into a separate buffer.
func inner(n *html.Node) string {
	var sub walker
	sub.children(n)
	return sub.sb.String()
}

func (w *walker) node(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.sb.WriteString(n.Data)
		return
	case html.ElementNode:
	default:
		w.children(n)
		return
	}

	tag := strings.ToLower(n.Data)
	if skipped[tag] {
		return
	}
	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		if text := collapse(inner(n)); text != "" {
			level := int(tag[1] - '0')
			w.sb.WriteString("\n\n" + strings.Repeat("#", level) + " " + text + "\n\n")
		}
	case "p":
		if text := strings.TrimSpace(inner(n)); text != "" {
			w.sb.WriteString("\n\n" + text + "\n\n")
		}
	case "strong", "b":
		w.wrap(n, "**")
	case "em", "i":
		w.wrap(n, "*")
	case "code":
		w.wrap(n, "`")
	case "a":
		text := collapse(inner(n))
		href := attr(n, "href")
		switch {
		case text == "":
		case href == "":
			w.sb.WriteString(text)
		default:
			w.sb.WriteString("[" + text + "](" + href + ")")
		}
	case "br":
		w.sb.WriteString("\n")
	case "hr":
		w.sb.WriteString("\n\n---\n\n")
	case "ul", "ol":
		w.list(n, tag == "ol")
	case "pre":
		if text := inner(n); strings.TrimSpace(text) != "" {
			w.sb.WriteString("\n\n```\n" + strings.Trim(text, "\n") + "\n```\n\n")
		}
	case "blockquote":
		w.quote(n)
	default:
		w.children(n)
	}
}

func (w *walker) wrap(n *html.Node, marker string) {
	if text := inner(n); strings.TrimSpace(text) != "" {
		w.sb.WriteString(marker + strings.TrimSpace(text) + marker)
	}
}

func (w *walker) list(n *html.Node, ordered bool) {
	idx := 0
	var items []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "li" {
			continue
		}
		text := collapse(inner(c))
		if text == "" {
			continue
		}
		idx++
		bullet := "- "
		if ordered {
			bullet = strconv.Itoa(idx) + ". "
		}
		items = append(items, bullet+text)
	}
	if len(items) > 0 {
		w.sb.WriteString("\n\n" + strings.Join(items, "\n") + "\n\n")
	}
}

func (w *walker) quote(n *html.Node) {
	text := strings.TrimSpace(Tidy(inner(n)))
	if text == "" {
		return
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		if l = strings.TrimSpace(l); l == "" {
			lines[i] = ">"
		} else {
			lines[i] = "> " + l
		}
	}
	w.sb.WriteString("\n\n" + strings.Join(lines, "\n") + "\n\n")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
