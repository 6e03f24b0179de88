package api

import (
	"context"
	"errors"
	"sync"

	"github.com/onnwee/vidrank/internal/discovery"
	"github.com/onnwee/vidrank/internal/quota"
	"github.com/onnwee/vidrank/internal/ranking"
)

// fakeAnalyzer records the last call and returns canned results.
type fakeAnalyzer struct {
	mu      sync.Mutex
	videos  []discovery.ScoredVideo
	err     error
	calls   int
	keyword string
	topN    int
	filters discovery.SearchFilters
}

func (f *fakeAnalyzer) AnalyzeTopVideos(ctx context.Context, keyword string, topN int, filters discovery.SearchFilters) ([]discovery.ScoredVideo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.keyword, f.topN, f.filters = keyword, topN, filters
	if f.err != nil {
		return nil, f.err
	}
	if len(f.videos) > topN {
		return f.videos[:topN], nil
	}
	return f.videos, nil
}

// fakeAggregator records the last call and returns canned results.
type fakeAggregator struct {
	videos   []discovery.ScoredVideo
	report   discovery.AggregateReport
	err      error
	calls    int
	keywords []string
	filters  discovery.SearchFilters
	topN     int
}

func (f *fakeAggregator) Aggregate(ctx context.Context, keywords []string, filters discovery.SearchFilters, topN int) ([]discovery.ScoredVideo, discovery.AggregateReport, error) {
	f.calls++
	f.keywords, f.filters, f.topN = keywords, filters, topN
	return f.videos, f.report, f.err
}

type fakeQuota struct {
	usage quota.Usage
	err   error
}

func (f fakeQuota) Usage(ctx context.Context) (quota.Usage, error) {
	return f.usage, f.err
}

type fakeChecker struct {
	err error
}

func (f fakeChecker) HealthCheck(ctx context.Context) error {
	return f.err
}

var errBoom = errors.New("boom")

func scored(id string, views int64, score float64) discovery.ScoredVideo {
	return discovery.ScoredVideo{
		VideoCandidate: discovery.VideoCandidate{
			ID:           id,
			Title:        "video " + id,
			ChannelTitle: "channel",
		},
		VideoStatistics: discovery.VideoStatistics{
			ViewCount:       views,
			Duration:        "PT10M",
			DurationSeconds: 600,
		},
		QualityScore: ranking.QualityScore{
			Score:       score,
			ViewsPerDay: views / 10,
			DaysAgo:     10,
		},
		URL: discovery.WatchURL(id),
	}
}
