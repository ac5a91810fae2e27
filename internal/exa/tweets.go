package exa

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	TweetQuery   = "here's an exciting breakthrough in artificial intelligence:"
	TweetsFile   = "ai_breakthrough_tweets.md"
	complexTweet = "Complex tweet data that couldn't be parsed cleanly. Please check the original tweet."
)

var tweetDomains = []string{"twitter.com", "x.com"}

// SearchTweets finds up to n tweets matching query published in the last days.
func (c *Client) SearchTweets(ctx context.Context, query string, n, days int, now time.Time) ([]Result, error) {
	return c.Search(ctx, tweetParams(query, n, days, now))
}

func tweetParams(query string, n, days int, now time.Time) SearchParams {
	return SearchParams{
		Query:              query,
		NumResults:         n,
		IncludeDomains:     tweetDomains,
		StartPublishedDate: now.AddDate(0, 0, -days).Format("2006-01-02T15:04:05"),
	}
}

var (
	urlRe        = regexp.MustCompile(`https?://\S+`)
	jsonObjectRe = regexp.MustCompile(`(\{.*\})`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	jsonishRe    = regexp.MustCompile(`[{}\[\]"\\]`)
	tweetMetaRes = compileAll(
		`\|\s*created_at:.*?(\||$)`,
		`\|\s*favorite_count:.*?(\||$)`,
		`\|\s*lang:.*?(\||$)`,
		`\|\s*profile_url:.*?(\||$)`,
		`\|\s*name:.*?(\||$)`,
		`\|\s*favourites_count:.*?(\||$)`,
		`\|\s*followers_count:.*?(\||$)`,
		`\|\s*friends_count:.*?(\||$)`,
		`\|\s*statuses_count:.*?(\||$)`,
		`\|\s*media_count:.*?(\||$)`,
		`created_at:.*?(\n|$)`,
		`favourites_count:.*?(\n|$)`,
		`friends_count:.*?(\n|$)`,
		`name:.*?(\n|$)`,
	)
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// CleanTweetText strips links and scraped profile metadata from tweet text.
// Text that embeds a JSON user or tweet object is reduced to its name, bio
// and tweet fields.
func CleanTweetText(text string) string {
	if text == "" {
		return "No text available"
	}
	text = urlRe.ReplaceAllString(text, "")
	for _, re := range tweetMetaRes {
		text = re.ReplaceAllString(text, "")
	}

	if looksLikeJSON(text) {
		if info := jsonSummary(text); info != "" {
			return info
		}
	}

	text = strings.NewReplacer(`\n`, " ", `\r`, " ").Replace(text)
	text = strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))

	if len([]rune(text)) > 500 && jsonishRe.MatchString(text) {
		return complexTweet
	}
	return text
}

func looksLikeJSON(text string) bool {
	t := strings.TrimSpace(text)
	return (strings.HasPrefix(t, "{") && strings.Contains(t, "}")) ||
		(strings.HasPrefix(t, `"{"`) && strings.Contains(t, `}"`))
}

func jsonSummary(text string) string {
	m := jsonObjectRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(m[1]), &parsed); err != nil {
		return ""
	}
	legacy, _ := parsed["legacy"].(map[string]any)
	field := func(key string) string {
		if v, ok := parsed[key]; ok {
			return stringValue(v)
		}
		if legacy != nil {
			return stringValue(legacy[key])
		}
		return ""
	}

	var info []string
	if name := field("name"); name != "" {
		info = append(info, "**Name:** "+name)
	}
	if bio := field("description"); bio != "" {
		info = append(info, "**Bio:** "+bio)
	}
	if tweet := field("full_text"); tweet != "" {
		info = append(info, "**Tweet:** "+tweet)
	}
	return strings.Join(info, "\n\n")
}

func stringValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

// TweetAuthor returns the handle segment of a tweet URL.
func TweetAuthor(u string) string {
	parts := strings.Split(u, "/")
	if len(parts) > 3 {
		return parts[3]
	}
	return "Unknown"
}

// FormatTweets renders tweets as the tweets Markdown report.
func FormatTweets(results []Result, now time.Time) string {
	var sb strings.Builder
	sb.WriteString("# AI Breakthrough Tweets\n\n")
	fmt.Fprintf(&sb, "*Collected on %s*\n\n", now.Format("January 02, 2006"))
	for i, r := range results {
		fmt.Fprintf(&sb, "## Tweet %d: @%s\n\n", i+1, TweetAuthor(r.URL))
		fmt.Fprintf(&sb, "**Date:** %s\n\n", displayDate(r.PublishedDate))
		fmt.Fprintf(&sb, "**URL:** [%s](%s)\n\n", r.URL, r.URL)
		fmt.Fprintf(&sb, "**Content:**\n\n%s\n\n", CleanTweetText(r.Text))
		sb.WriteString("---\n\n")
	}
	fmt.Fprintf(&sb, "*Total tweets collected: %d*", len(results))
	return sb.String()
}
