package discovery

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/onnwee/vidrank/internal/ranking"
	"github.com/onnwee/vidrank/internal/tracing"
	"go.opentelemetry.io/otel/attribute"
)

// AnalyzerConfig holds the collaborators of an Analyzer.
type AnalyzerConfig struct {
	Search     SearchProvider
	Statistics StatisticsProvider

	// Calibration tunes the quality score. Nil uses the defaults.
	Calibration *ranking.Calibration

	// MaxResults is the search page size, capped at MaxSearchResults.
	MaxResults int

	// Metrics and Logger are optional.
	Metrics *Metrics
	Logger  *slog.Logger
}

// Analyzer runs the single-keyword discovery pipeline: search, join
// statistics, filter, score and rank. It holds no per-run state and is safe
// for concurrent use.
type Analyzer struct {
	search      SearchProvider
	stats       StatisticsProvider
	calibration *ranking.Calibration
	maxResults  int
	metrics     *Metrics
	logger      *slog.Logger
	timeNow     func() time.Time // For testability
}

// NewAnalyzer creates an Analyzer from cfg.
func NewAnalyzer(cfg AnalyzerConfig) (*Analyzer, error) {
	if cfg.Search == nil {
		return nil, errors.New("search provider is required")
	}
	if cfg.Statistics == nil {
		return nil, errors.New("statistics provider is required")
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 || maxResults > MaxSearchResults {
		maxResults = MaxSearchResults
	}

	calibration := cfg.Calibration
	if calibration == nil {
		calibration = ranking.DefaultCalibration()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Analyzer{
		search:      cfg.Search,
		stats:       cfg.Statistics,
		calibration: calibration,
		maxResults:  maxResults,
		metrics:     cfg.Metrics,
		logger:      logger,
		timeNow:     time.Now,
	}, nil
}

// AnalyzeTopVideos searches for keyword and returns the topN best videos
// under filters. Provider failures are returned as *ProviderError with no
// partial output. An empty result is not an error.
func (a *Analyzer) AnalyzeTopVideos(ctx context.Context, keyword string, topN int, filters SearchFilters) ([]ScoredVideo, error) {
	if topN <= 0 {
		return nil, ErrInvalidTopN
	}
	if err := filters.Validate(); err != nil {
		return nil, err
	}

	ctx, endSpan := tracing.StartSpan(ctx, "analyze_top_videos")
	tracing.SetAttributes(ctx,
		attribute.String("discovery.keyword", keyword),
		attribute.Int("discovery.top_n", topN),
		attribute.Bool("discovery.trending_mode", filters.TrendingMode),
	)

	start := time.Now()
	videos, err := a.run(ctx, keyword, filters)
	endSpan(err)
	if err != nil {
		return nil, err
	}

	mode := ModeQuality
	if filters.TrendingMode {
		mode = ModeTrending
	}
	a.metrics.ObserveRun(mode, time.Since(start).Seconds())

	return Rank(videos, filters.TrendingMode, topN), nil
}

// run executes the pipeline for one keyword and returns every surviving
// video, ranked but not truncated.
func (a *Analyzer) run(ctx context.Context, keyword string, filters SearchFilters) ([]ScoredVideo, error) {
	now := a.timeNow()
	query := NewSearchQuery(keyword, filters, a.maxResults, now)

	searchCtx, endSearch := tracing.StartProviderSpan(ctx, tracing.ProviderOperationSearch, keyword)
	candidates, err := a.search.Search(searchCtx, query)
	endSearch(err)
	if err != nil {
		a.metrics.IncProviderError(OpSearch)
		return nil, &ProviderError{Op: OpSearch, Keyword: keyword, Err: err}
	}
	if len(candidates) == 0 {
		a.logger.DebugContext(ctx, "search returned no candidates", "keyword", keyword)
		return []ScoredVideo{}, nil
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}

	statsCtx, endStats := tracing.StartProviderSpan(ctx, tracing.ProviderOperationStatistics, keyword)
	stats, err := a.stats.Statistics(statsCtx, ids)
	endStats(err)
	if err != nil {
		a.metrics.IncProviderError(OpStatistics)
		return nil, &ProviderError{Op: OpStatistics, Keyword: keyword, Err: err}
	}

	accepted := a.join(candidates, stats, filters)
	scored := a.score(accepted, filters, now)

	a.logger.DebugContext(ctx, "pipeline run complete",
		"keyword", keyword,
		"candidates", len(candidates),
		"accepted", len(scored))

	return sortedCopy(scored, filters.TrendingMode), nil
}

// joined pairs a candidate with its statistics.
type joined struct {
	candidate VideoCandidate
	stats     VideoStatistics
}

// join attaches statistics to candidates in arrival order and applies the
// candidate filter. Candidates without statistics are dropped.
func (a *Analyzer) join(candidates []VideoCandidate, stats map[string]VideoStatistics, filters SearchFilters) []joined {
	accepted := make([]joined, 0, len(candidates))
	for _, c := range candidates {
		s, ok := stats[c.ID]
		if !ok {
			a.metrics.IncRejected(RejectNoStatistics)
			continue
		}
		s.IsShorts = IsShortForm(s.DurationSeconds, c.Title)

		if reason := rejectReason(c, s, filters); reason != "" {
			a.metrics.IncRejected(reason)
			continue
		}
		accepted = append(accepted, joined{candidate: c, stats: s})
	}
	return accepted
}

// score computes quality scores against the largest view count of this run.
func (a *Analyzer) score(accepted []joined, filters SearchFilters, now time.Time) []ScoredVideo {
	var maxViews int64
	for _, j := range accepted {
		maxViews = max(maxViews, j.stats.ViewCount)
	}

	weights := filters.Weights()
	scored := make([]ScoredVideo, 0, len(accepted))
	for _, j := range accepted {
		quality := ranking.Score(ranking.Inputs{
			ViewCount:    j.stats.ViewCount,
			LikeCount:    j.stats.LikeCount,
			CommentCount: j.stats.CommentCount,
			PublishedAt:  j.candidate.PublishedAt,
			MaxViews:     maxViews,
		}, weights, a.calibration, now)

		scored = append(scored, ScoredVideo{
			VideoCandidate:  j.candidate,
			VideoStatistics: j.stats,
			QualityScore:    quality,
			URL:             WatchURL(j.candidate.ID),
		})
	}
	return scored
}
