package analysis

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteSummaries renders analyses as the summaries Markdown report.
func WriteSummaries(w io.Writer, term string, analyses []Analysis) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# YouTube Video Summaries for '%s'\n\n", term)
	for i, a := range analyses {
		fmt.Fprintf(bw, "## Video #%d: [%s](%s)\n\n", i+1, a.Title, a.URL)
		for _, section := range strings.Split(a.Text, "\n\n") {
			writeSection(bw, section)
		}
		bw.WriteString("---\n\n")
	}
	return bw.Flush()
}

func writeSection(bw *bufio.Writer, section string) {
	switch {
	case strings.HasPrefix(section, "SUMMARY:"):
		bw.WriteString("### Summary\n\n")
		bw.WriteString(strings.TrimSpace(strings.Replace(section, "SUMMARY:", "", 1)))
		bw.WriteString("\n\n")
	case strings.HasPrefix(section, "QUOTES:"):
		bw.WriteString("### Key Quotes\n\n")
		quotes := strings.TrimSpace(strings.Replace(section, "QUOTES:", "", 1))
		for _, q := range strings.Split(quotes, "\n") {
			if q = strings.TrimSpace(q); q != "" {
				fmt.Fprintf(bw, "- %s\n", q)
			}
		}
		bw.WriteString("\n")
	case strings.HasPrefix(section, "URL:"):
		// already linked from the video heading
	default:
		bw.WriteString(section + "\n\n")
	}
}
