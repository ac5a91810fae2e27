package youtube

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"researchkit/internal/textrecord"
)

const channelFeedURL = "https://www.youtube.com/feeds/videos.xml?channel_id="

// ChannelFeed reads the public Atom feed of a channel. It needs no API key
// and returns the channel's most recent uploads.
type ChannelFeed struct {
	parser  *gofeed.Parser
	BaseURL string
}

func NewChannelFeed(client *http.Client) *ChannelFeed {
	p := gofeed.NewParser()
	if client != nil {
		p.Client = client
	}
	return &ChannelFeed{parser: p, BaseURL: channelFeedURL}
}

// ChannelVideos returns the latest uploads of channelID, newest first.
func (c *ChannelFeed) ChannelVideos(ctx context.Context, channelID string, limit int) ([]textrecord.Video, error) {
	feed, err := c.parser.ParseURLWithContext(c.BaseURL+channelID, ctx)
	if err != nil {
		return nil, fmt.Errorf("channel feed %s: %w", channelID, err)
	}
	return feedVideos(feed, limit), nil
}

// Search treats channelID as the search term, so a channel can stand in for
// a Data API query in the scrape step.
func (c *ChannelFeed) Search(ctx context.Context, channelID string, maxResults int) ([]textrecord.Video, error) {
	return c.ChannelVideos(ctx, channelID, maxResults)
}

func feedVideos(feed *gofeed.Feed, limit int) []textrecord.Video {
	var out []textrecord.Video
	for _, it := range feed.Items {
		if it == nil {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		link := strings.TrimSpace(it.Link)
		if id := extValue(it.Extensions, "yt", "videoId"); id != "" {
			link = WatchURL(id)
		}
		if link == "" {
			continue
		}
		out = append(out, textrecord.Video{
			Title:     strings.TrimSpace(it.Title),
			URL:       link,
			ViewCount: feedViews(it.Extensions),
		})
	}
	return out
}

func extValue(e ext.Extensions, ns, name string) string {
	if e == nil {
		return ""
	}
	if vals := e[ns][name]; len(vals) > 0 {
		return strings.TrimSpace(vals[0].Value)
	}
	return ""
}

// feedViews digs media:group/media:community/media:statistics@views.
func feedViews(e ext.Extensions) int64 {
	groups := e["media"]["group"]
	if len(groups) == 0 {
		return 0
	}
	community := groups[0].Children["community"]
	if len(community) == 0 {
		return 0
	}
	stats := community[0].Children["statistics"]
	if len(stats) == 0 {
		return 0
	}
	n, err := strconv.ParseInt(stats[0].Attrs["views"], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
