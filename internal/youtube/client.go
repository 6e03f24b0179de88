// Package youtube implements the discovery search and statistics providers
// on top of the YouTube Data API v3.
package youtube

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/onnwee/vidrank/internal/discovery"
	"github.com/onnwee/vidrank/internal/quota"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"
)

// maxIDsPerCall is the most ids videos.list accepts in one request.
const maxIDsPerCall = 50

// Data API operation names used in errors and quota records.
const (
	opSearch     = "search.list"
	opVideosList = "videos.list"
)

// QuotaRecorder receives the unit cost of every Data API call.
type QuotaRecorder interface {
	Record(ctx context.Context, op string, units int64) error
}

// Config holds the client settings.
type Config struct {
	APIKey string

	// Quota is optional. Recording failures are logged and ignored.
	Quota QuotaRecorder

	Logger *slog.Logger
}

// Client is a Data API client implementing discovery.SearchProvider and
// discovery.StatisticsProvider.
type Client struct {
	svc    *yt.Service
	quota  QuotaRecorder
	logger *slog.Logger
}

var (
	_ discovery.SearchProvider     = (*Client)(nil)
	_ discovery.StatisticsProvider = (*Client)(nil)
)

// NewClient creates a Data API client. Extra options are appended after the
// API key, which lets tests point the client at a local server.
func NewClient(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Client, error) {
	var clientOpts []option.ClientOption
	if cfg.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(cfg.APIKey))
	}
	clientOpts = append(clientOpts, opts...)
	if len(clientOpts) == 0 {
		return nil, errors.New("youtube API key is required")
	}

	svc, err := yt.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{svc: svc, quota: cfg.Quota, logger: logger}, nil
}

// Search runs search.list for q and maps the hits to candidates in
// response order.
func (c *Client) Search(ctx context.Context, q discovery.SearchQuery) ([]discovery.VideoCandidate, error) {
	call := c.svc.Search.List([]string{"id", "snippet"}).
		Q(q.Keyword).
		Type("video").
		Order(q.Order).
		MaxResults(int64(q.MaxResults)).
		RegionCode(q.RegionCode).
		RelevanceLanguage(q.RelevanceLanguage).
		Context(ctx)
	if q.Duration != "" {
		call = call.VideoDuration(q.Duration)
	}
	if !q.PublishedAfter.IsZero() {
		call = call.PublishedAfter(q.PublishedAfter.UTC().Format(time.RFC3339))
	}

	resp, err := call.Do()
	c.recordQuota(ctx, opSearch, quota.CostSearch)
	if err != nil {
		return nil, wrapError(opSearch, err)
	}

	candidates := make([]discovery.VideoCandidate, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		candidates = append(candidates, toCandidate(item.Id.VideoId, item.Snippet))
	}
	return candidates, nil
}

// Statistics runs videos.list for ids in batches of 50. Ids the API does
// not return are absent from the result.
func (c *Client) Statistics(ctx context.Context, ids []string) (map[string]discovery.VideoStatistics, error) {
	stats := make(map[string]discovery.VideoStatistics, len(ids))

	for start := 0; start < len(ids); start += maxIDsPerCall {
		batch := ids[start:min(start+maxIDsPerCall, len(ids))]

		resp, err := c.svc.Videos.List([]string{"statistics", "contentDetails"}).
			Id(batch...).
			Context(ctx).
			Do()
		c.recordQuota(ctx, opVideosList, quota.CostVideosList)
		if err != nil {
			return nil, wrapError(opVideosList, err)
		}

		for _, item := range resp.Items {
			stats[item.Id] = toStatistics(item)
		}
	}
	return stats, nil
}

func (c *Client) recordQuota(ctx context.Context, op string, units int64) {
	if c.quota == nil {
		return
	}
	if err := c.quota.Record(ctx, op, units); err != nil {
		c.logger.WarnContext(ctx, "failed to record quota usage", "op", op, "error", err)
	}
}

func toCandidate(id string, s *yt.SearchResultSnippet) discovery.VideoCandidate {
	c := discovery.VideoCandidate{
		ID:           id,
		Title:        s.Title,
		ChannelTitle: s.ChannelTitle,
		Description:  discovery.TruncateDescription(s.Description),
	}
	if t, err := time.Parse(time.RFC3339, s.PublishedAt); err == nil {
		c.PublishedAt = t.UTC()
	}
	if s.Thumbnails != nil && s.Thumbnails.High != nil {
		c.Thumbnail = s.Thumbnails.High.Url
	}
	return c
}

func toStatistics(v *yt.Video) discovery.VideoStatistics {
	var s discovery.VideoStatistics
	if v.Statistics != nil {
		s.ViewCount = int64(v.Statistics.ViewCount)
		s.LikeCount = int64(v.Statistics.LikeCount)
		s.CommentCount = int64(v.Statistics.CommentCount)
	}

	s.Duration = "PT0S"
	if v.ContentDetails != nil && v.ContentDetails.Duration != "" {
		s.Duration = v.ContentDetails.Duration
	}
	s.DurationSeconds = discovery.ParseDuration(s.Duration)
	return s
}
