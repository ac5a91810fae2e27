package youtube

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"

	"researchkit/internal/textrecord"
)

// the Videos.List endpoint accepts at most 50 IDs per call
const maxIDsPerLookup = 50

// Searcher queries the YouTube Data API.
type Searcher struct {
	svc    *ytapi.Service
	logger *slog.Logger
}

// NewSearcher builds a Searcher. Extra options (endpoint, http client) are
// appended after the API key.
func NewSearcher(ctx context.Context, apiKey string, logger *slog.Logger, opts ...option.ClientOption) (*Searcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	all := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := ytapi.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("youtube service: %w", err)
	}
	return &Searcher{svc: svc, logger: logger}, nil
}

// NewSearcherWithClient is NewSearcher against a custom endpoint, used by tests.
func NewSearcherWithClient(ctx context.Context, apiKey, endpoint string, hc *http.Client) (*Searcher, error) {
	return NewSearcher(ctx, apiKey, nil, option.WithEndpoint(endpoint), option.WithHTTPClient(hc))
}

// Search returns up to maxResults videos matching term, in search rank order,
// each with its title, watch URL and view count.
func (s *Searcher) Search(ctx context.Context, term string, maxResults int) ([]textrecord.Video, error) {
	if maxResults <= 0 {
		maxResults = 20
	}
	resp, err := s.svc.Search.List([]string{"id", "snippet"}).
		Q(term).
		Type("video").
		MaxResults(int64(maxResults)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube search: %w", err)
	}
	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		ids = append(ids, item.Id.VideoId)
	}
	s.logger.Debug("youtube search", slog.String("term", term), slog.Int("hits", len(ids)))
	return s.Lookup(ctx, ids)
}

// Lookup fetches title and statistics for ids, preserving their order.
// IDs the API does not return are skipped.
func (s *Searcher) Lookup(ctx context.Context, ids []string) ([]textrecord.Video, error) {
	byID := make(map[string]textrecord.Video, len(ids))
	for start := 0; start < len(ids); start += maxIDsPerLookup {
		end := min(start+maxIDsPerLookup, len(ids))
		resp, err := s.svc.Videos.List([]string{"snippet", "statistics"}).
			Id(ids[start:end]...).
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("youtube videos: %w", err)
		}
		for _, item := range resp.Items {
			v := textrecord.Video{URL: WatchURL(item.Id)}
			if item.Snippet != nil {
				v.Title = item.Snippet.Title
			}
			if item.Statistics != nil {
				v.ViewCount = int64(item.Statistics.ViewCount)
			}
			byID[item.Id] = v
		}
	}
	out := make([]textrecord.Video, 0, len(ids))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}
