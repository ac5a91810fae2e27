package youtube

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	neturl "net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Transcript retrieval follows the public player flow:
// watch page -> innertube player -> captionTracks -> timedtext XML.

const (
	defaultSiteURL = "https://www.youtube.com"
	userAgent      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// Android client context accepted by the player endpoint.
var innertubeContext = map[string]any{
	"client": map[string]string{
		"clientName":    "ANDROID",
		"clientVersion": "20.10.38",
	},
}

type WebshareProxyConfig struct {
	Username string
	Password string
	Domain   string // defaults to p.webshare.io
	Port     int    // defaults to 80
}

func (w *WebshareProxyConfig) url() string {
	if w == nil || strings.TrimSpace(w.Username) == "" || strings.TrimSpace(w.Password) == "" {
		return ""
	}
	domain := w.Domain
	if domain == "" {
		domain = "p.webshare.io"
	}
	port := w.Port
	if port == 0 {
		port = 80
	}
	return fmt.Sprintf("http://%s-rotate:%s@%s:%d/", w.Username, w.Password, domain, port)
}

// NewHTTPClient returns an http.Client with optional Webshare proxy.
func NewHTTPClient(ws *WebshareProxyConfig, timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	tr := &http.Transport{}
	if p := ws.url(); p != "" {
		if u, err := neturl.Parse(p); err == nil {
			tr.Proxy = http.ProxyURL(u)
		}
		// rotating proxies hand out a new exit per connection
		tr.DisableKeepAlives = true
	}
	return &http.Client{Transport: tr, Timeout: timeout}
}

// Snippet is a single caption entry.
type Snippet struct {
	Text     string
	StartSec float64
	Duration float64
}

// TranscriptCache stores successfully fetched transcripts by video ID.
type TranscriptCache interface {
	Get(ctx context.Context, videoID string) (string, error)
	Put(ctx context.Context, videoID, url, transcript string) error
}

// Transcriber fetches caption text for videos.
type Transcriber struct {
	Client  *http.Client
	SiteURL string
	Logger  *slog.Logger
	Cache   TranscriptCache // optional
}

func NewTranscriber(ws *WebshareProxyConfig, logger *slog.Logger) *Transcriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transcriber{Client: NewHTTPClient(ws, 30*time.Second), SiteURL: defaultSiteURL, Logger: logger}
}

// Transcript returns the transcript of the video at videoURL as one caption
// per line. Failures are reported inside the returned text so that a report
// can still be written for the remaining videos.
func (t *Transcriber) Transcript(ctx context.Context, videoURL string) string {
	id, ok := ExtractVideoID(videoURL)
	if !ok {
		return "Could not extract video ID from URL"
	}
	if t.Cache != nil {
		if text, err := t.Cache.Get(ctx, id); err == nil && text != "" {
			t.Logger.Debug("transcript cache hit", slog.String("video_id", id))
			return text
		}
	}
	snippets, err := t.Snippets(ctx, id)
	if err != nil {
		t.Logger.Debug("transcript unavailable", slog.String("video_id", id), slog.Any("error", err))
		return "Could not fetch transcript: " + err.Error()
	}
	text := FormatText(snippets)
	if t.Cache != nil {
		if err := t.Cache.Put(ctx, id, videoURL, text); err != nil {
			t.Logger.Warn("transcript cache write failed", slog.String("video_id", id), slog.Any("error", err))
		}
	}
	return text
}

// FormatText joins snippet texts with newlines.
func FormatText(snippets []Snippet) string {
	lines := make([]string, 0, len(snippets))
	for _, s := range snippets {
		lines = append(lines, s.Text)
	}
	return strings.Join(lines, "\n")
}

// Snippets fetches the default caption track for a video ID.
func (t *Transcriber) Snippets(ctx context.Context, videoID string) ([]Snippet, error) {
	htmlStr, cookie, err := t.fetchWatchHTML(ctx, videoID)
	if err != nil {
		return nil, err
	}
	apiKey, err := extractAPIKey(htmlStr)
	if err != nil {
		return nil, err
	}
	data, err := t.postPlayer(ctx, apiKey, videoID, cookie)
	if err != nil {
		return nil, err
	}
	baseURL, err := pickCaptionURL(data)
	if err != nil {
		return nil, err
	}
	// srv3 is a richer XML dialect; the default format is what parseTimedTextXML reads
	if u, err := neturl.Parse(baseURL); err == nil {
		q := u.Query()
		if q.Get("fmt") == "srv3" {
			q.Del("fmt")
			u.RawQuery = q.Encode()
			baseURL = u.String()
		}
	}

	b, err := t.get(ctx, baseURL, cookie)
	if err != nil {
		return nil, fmt.Errorf("captions fetch failed: %w", err)
	}
	return parseTimedTextXML(b)
}

func (t *Transcriber) get(ctx context.Context, url, cookie string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US")
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	resp, err := t.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status=%d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// fetchWatchHTML fetches the watch page, accepting the consent gate once if shown.
func (t *Transcriber) fetchWatchHTML(ctx context.Context, videoID string) (string, string, error) {
	url := strings.TrimRight(t.SiteURL, "/") + "/watch?v=" + neturl.QueryEscape(videoID)
	b, err := t.get(ctx, url, "")
	if err != nil {
		return "", "", fmt.Errorf("watch page: %w", err)
	}
	s := string(b)
	if !strings.Contains(s, `action="https://consent.youtube.com/s"`) {
		return s, "", nil
	}
	v := extractConsentV(s)
	if v == "" {
		return "", "", errors.New("failed to create consent cookie")
	}
	cookie := "CONSENT=YES+" + v
	b, err = t.get(ctx, url, cookie)
	if err != nil {
		return "", "", fmt.Errorf("watch page: %w", err)
	}
	return string(b), cookie, nil
}

var apiKeyRe = regexp.MustCompile(`"INNERTUBE_API_KEY"\s*:\s*"([a-zA-Z0-9_-]+)"`)

func extractAPIKey(htmlStr string) (string, error) {
	if m := apiKeyRe.FindStringSubmatch(htmlStr); len(m) == 2 {
		return m[1], nil
	}
	if strings.Contains(htmlStr, `class="g-recaptcha"`) {
		return "", errors.New("IP blocked (captcha)")
	}
	return "", errors.New("could not extract INNERTUBE_API_KEY")
}

func (t *Transcriber) postPlayer(ctx context.Context, apiKey, videoID, cookie string) (map[string]any, error) {
	endpoint := strings.TrimRight(t.SiteURL, "/") + "/youtubei/v1/player?key=" + neturl.QueryEscape(apiKey)
	body, _ := json.Marshal(map[string]any{
		"context": innertubeContext,
		"videoId": videoID,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", "en-US")
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	resp, err := t.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errors.New("request blocked (429)")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("player request failed: %d", resp.StatusCode)
	}
	var data map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}
	if ps, ok := data["playabilityStatus"].(map[string]any); ok {
		if st, _ := ps["status"].(string); st != "OK" && st != "" {
			reason, _ := ps["reason"].(string)
			return nil, fmt.Errorf("video unplayable: %s", reason)
		}
	}
	return data, nil
}

// pickCaptionURL prefers a manually created track over ASR.
func pickCaptionURL(playerData map[string]any) (string, error) {
	capRoot, _ := playerData["captions"].(map[string]any)
	tracklist, _ := capRoot["playerCaptionsTracklistRenderer"].(map[string]any)
	tracks, _ := tracklist["captionTracks"].([]any)
	if len(tracks) == 0 {
		return "", errors.New("transcripts disabled or unavailable")
	}
	first := ""
	for _, it := range tracks {
		tr, _ := it.(map[string]any)
		base, _ := tr["baseUrl"].(string)
		kind, _ := tr["kind"].(string)
		if base == "" {
			continue
		}
		if first == "" {
			first = base
		}
		if strings.TrimSpace(kind) != "asr" {
			return base, nil
		}
	}
	if first != "" {
		return first, nil
	}
	return "", errors.New("no usable caption track found")
}

// parseTimedTextXML parses timedtext XML into snippets with tags stripped.
func parseTimedTextXML(b []byte) ([]Snippet, error) {
	type textEl struct {
		Start string `xml:"start,attr"`
		Dur   string `xml:"dur,attr"`
		Body  string `xml:",innerxml"`
	}
	var tx struct {
		XMLName xml.Name `xml:"transcript"`
		Texts   []textEl `xml:"text"`
	}
	if err := xml.Unmarshal(b, &tx); err != nil {
		return nil, err
	}
	var out []Snippet
	for _, el := range tx.Texts {
		txt := stripHTML(html.UnescapeString(el.Body))
		if txt == "" {
			continue
		}
		out = append(out, Snippet{Text: txt, StartSec: parseSeconds(el.Start), Duration: parseSeconds(el.Dur)})
	}
	if len(out) == 0 {
		return nil, errors.New("empty transcript")
	}
	return out, nil
}

func parseSeconds(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

var (
	tagRe     = regexp.MustCompile(`<[^>]*>`)
	consentRe = regexp.MustCompile(`name="v" value="(.*?)"`)
)

// stripHTML drops tags from a caption body, turning <br> into spaces.
func stripHTML(s string) string {
	s = strings.NewReplacer("<br>", " ", "<br/>", " ", "<br />", " ").Replace(s)
	s = tagRe.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

func extractConsentV(htmlStr string) string {
	if m := consentRe.FindStringSubmatch(htmlStr); len(m) == 2 {
		return m[1]
	}
	return ""
}
