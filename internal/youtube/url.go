package youtube

import (
	neturl "net/url"
	"regexp"
	"strings"
)

var (
	// Tried in order; the first also covers /shorts/<id> and /embed/<id>.
	videoIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:v=|/)([0-9A-Za-z_-]{11}).*`),
		regexp.MustCompile(`youtu\.be/([0-9A-Za-z_-]{11})`),
	}
	ytHostRe = regexp.MustCompile(`(?i)(^|\.)youtube\.com$`)
)

// ExtractVideoID returns the 11-character video ID of a long-form or
// youtu.be URL. ok is false when nothing matches.
func ExtractVideoID(u string) (id string, ok bool) {
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(u); len(m) == 2 {
			return m[1], true
		}
	}
	return "", false
}

// WatchURL is the canonical URL written to the videos file.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

func IsYouTubeURL(u string) bool {
	if strings.TrimSpace(u) == "" {
		return false
	}
	parsed, err := neturl.Parse(u)
	if err != nil {
		return false
	}
	h := strings.ToLower(parsed.Host)
	if h == "youtu.be" {
		return true
	}
	return ytHostRe.MatchString(h)
}
