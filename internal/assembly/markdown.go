package assembly

import (
	"fmt"
	"strings"
)

// ConvertMsToTime formats milliseconds as MM:SS, or HH:MM:SS from one hour.
func ConvertMsToTime(ms int64) string {
	seconds := ms / 1000
	m, s := seconds/60, seconds%60
	h, m := m/60, m%60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// RenderMarkdown renders a finished transcript. Chapters are included only
// when withChapters is set and the job produced some.
func RenderMarkdown(t *Transcript, withChapters bool) string {
	lines := []string{
		"# Transcript for YouTube Video",
		"",
		"## Transcript Segments",
		"",
	}
	switch {
	case t.Utterances != nil:
		for _, u := range t.Utterances {
			speaker := u.Speaker
			if speaker == "" {
				speaker = "Unknown"
			}
			lines = append(lines, fmt.Sprintf("- **[%s - %s] Speaker %s:** %s",
				ConvertMsToTime(u.Start), ConvertMsToTime(u.End), speaker, u.Text))
		}
	case t.Text != nil:
		lines = append(lines, *t.Text)
	default:
		lines = append(lines, "No transcript available.")
	}
	lines = append(lines, "")

	if withChapters && len(t.Chapters) > 0 {
		lines = append(lines, "## Chapters", "")
		for i, ch := range t.Chapters {
			lines = append(lines,
				fmt.Sprintf("### Chapter %d", i+1),
				fmt.Sprintf("- **Time:** %s - %s", ConvertMsToTime(ch.Start), ConvertMsToTime(ch.End)),
				"- **Gist:** "+orDefault(ch.Gist, "No gist"),
				"- **Summary:** "+orDefault(ch.Summary, "No summary"),
				"",
			)
		}
	}
	return strings.Join(lines, "\n")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
