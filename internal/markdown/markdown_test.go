package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWalk(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"heading", "<h2>Hello <b>there</b></h2>", "## Hello **there**"},
		{"paragraphs", "<p>one</p><p> two </p>", "one\n\ntwo"},
		{"link", `<p>see <a href="https://go.dev">the   site</a></p>`, "see [the site](https://go.dev)"},
		{"link without href", `<a>plain</a>`, "plain"},
		{"ordered list", "<ol><li>first</li><li></li><li>second</li></ol>", "1. first\n2. second"},
		{"unordered list", "<ul><li>a</li><li>b</li></ul>", "- a\n- b"},
		{"script skipped", "<p>kept</p><script>var x = 1;</script><style>p{}</style>", "kept"},
		{"pre", "<pre>go test ./...\n</pre>", "```\ngo test ./...\n```"},
		{"quote", "<blockquote><p>line one</p><p>line two</p></blockquote>", "> line one\n>\n> line two"},
		{"inline code", "<p>run <code>make</code></p>", "run `make`"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tidy(Walk(tt.html)))
		})
	}
}

func TestFromHTML(t *testing.T) {
	md := FromHTML(`<html><body><h1>Title</h1><p>Read <a href="/post/1">this</a>.</p></body></html>`, "https://blog.example.com")
	assert.Contains(t, md, "# Title")
	assert.Contains(t, md, "[this](https://blog.example.com/post/1)")

	assert.Empty(t, FromHTML("   ", ""))
}

func TestTidy(t *testing.T) {
	assert.Equal(t, "a\n\nb", Tidy("\n\na   \n\n\n\n\nb\n"))
}
