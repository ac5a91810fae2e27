package youtube

import (
	"testing"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"researchkit/internal/textrecord"
)

const channelAtom = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns:media="http://search.yahoo.com/mrss/" xmlns="http://www.w3.org/2005/Atom">
 <title>Some Channel</title>
 <entry>
  <id>yt:video:aaaaaaaaaaa</id>
  <yt:videoId>aaaaaaaaaaa</yt:videoId>
  <title>First upload</title>
  <link rel="alternate" href="https://www.youtube.com/watch?v=aaaaaaaaaaa"/>
  <media:group>
   <media:title>First upload</media:title>
   <media:community>
    <media:starRating count="10" average="5.00" min="1" max="5"/>
    <media:statistics views="4321"/>
   </media:community>
  </media:group>
 </entry>
 <entry>
  <id>yt:video:bbbbbbbbbbb</id>
  <yt:videoId>bbbbbbbbbbb</yt:videoId>
  <title>Second upload</title>
  <link rel="alternate" href="https://www.youtube.com/shorts/bbbbbbbbbbb"/>
 </entry>
</feed>`

func TestFeedVideos(t *testing.T) {
	feed, err := gofeed.NewParser().ParseString(channelAtom)
	require.NoError(t, err)

	got := feedVideos(feed, 0)
	assert.Equal(t, []textrecord.Video{
		{Title: "First upload", URL: "https://www.youtube.com/watch?v=aaaaaaaaaaa", ViewCount: 4321},
		{Title: "Second upload", URL: "https://www.youtube.com/watch?v=bbbbbbbbbbb"},
	}, got)

	assert.Len(t, feedVideos(feed, 1), 1)
}
