package discovery

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/onnwee/vidrank/internal/tracing"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// DefaultAggregatorConcurrency bounds keyword fan-out when none is configured.
const DefaultAggregatorConcurrency = 4

// AggregatorConfig holds the settings of an Aggregator.
type AggregatorConfig struct {
	Analyzer *Analyzer

	// Concurrency caps the keyword runs in flight. It is further capped
	// at the number of keywords.
	Concurrency int

	// FallbackKeyword runs once when every keyword yields nothing.
	// Empty disables the fallback.
	FallbackKeyword string

	// Metrics and Logger are optional.
	Metrics *Metrics
	Logger  *slog.Logger
}

// Aggregator runs the pipeline across several keywords and merges the
// results by video id, first occurrence in keyword order winning.
type Aggregator struct {
	analyzer    *Analyzer
	concurrency int
	fallback    string
	metrics     *Metrics
	logger      *slog.Logger
}

// NewAggregator creates an Aggregator from cfg.
func NewAggregator(cfg AggregatorConfig) (*Aggregator, error) {
	if cfg.Analyzer == nil {
		return nil, errors.New("analyzer is required")
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultAggregatorConcurrency
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		analyzer:    cfg.Analyzer,
		concurrency: concurrency,
		fallback:    cfg.FallbackKeyword,
		metrics:     cfg.Metrics,
		logger:      logger,
	}, nil
}

// keywordResult is the outcome of one keyword run.
type keywordResult struct {
	videos []ScoredVideo
	err    error
}

// Aggregate runs every keyword, merges the results and returns the topN
// videos by view velocity. Keyword failures never fail the aggregation; they
// are listed in the report. The only error is ErrNoKeywords, returned when
// keywords is empty and no fallback keyword is configured.
func (g *Aggregator) Aggregate(ctx context.Context, keywords []string, filters SearchFilters, topN int) ([]ScoredVideo, AggregateReport, error) {
	report := AggregateReport{Skipped: []KeywordFailure{}}

	if topN <= 0 {
		return nil, report, ErrInvalidTopN
	}
	if err := filters.Validate(); err != nil {
		return nil, report, err
	}
	if len(keywords) == 0 && g.fallback == "" {
		return nil, report, ErrNoKeywords
	}

	ctx, endSpan := tracing.StartSpan(ctx, "aggregate_keywords")
	defer endSpan(nil)
	tracing.SetAttributes(ctx, attribute.Int("discovery.keywords", len(keywords)))

	start := time.Now()
	results := g.runAll(ctx, keywords, filters)

	seen := make(map[string]struct{})
	merged := make([]ScoredVideo, 0)
	for i, res := range results {
		if res.err != nil {
			g.skip(ctx, &report, keywords[i], res.err)
			continue
		}
		merged = mergeNew(merged, seen, res.videos)
	}

	if len(merged) == 0 && g.fallback != "" {
		report.UsedFallback = true
		g.logger.InfoContext(ctx, "no videos from keywords, running fallback",
			"fallback", g.fallback,
			"keywords", len(keywords))

		videos, err := g.analyzer.run(ctx, g.fallback, filters)
		if err != nil {
			g.skip(ctx, &report, g.fallback, err)
		} else {
			merged = mergeNew(merged, seen, videos)
		}
	}

	g.metrics.ObserveRun(ModeAggregate, time.Since(start).Seconds())

	return Rank(merged, true, topN), report, nil
}

// runAll executes the keyword runs with bounded concurrency. results[i]
// belongs to keywords[i] regardless of completion order.
func (g *Aggregator) runAll(ctx context.Context, keywords []string, filters SearchFilters) []keywordResult {
	results := make([]keywordResult, len(keywords))
	if len(keywords) == 0 {
		return results
	}

	var eg errgroup.Group
	eg.SetLimit(min(g.concurrency, len(keywords)))

	for i, keyword := range keywords {
		eg.Go(func() error {
			videos, err := g.analyzer.run(ctx, keyword, filters)
			results[i] = keywordResult{videos: videos, err: err}
			// Siblings keep running; failures are reported through results.
			return nil
		})
	}
	_ = eg.Wait()

	return results
}

func (g *Aggregator) skip(ctx context.Context, report *AggregateReport, keyword string, err error) {
	g.metrics.IncKeywordsSkipped()
	report.Skipped = append(report.Skipped, failureFor(keyword, err))
	tracing.AddEvent(ctx, "keyword_skipped", attribute.String("discovery.keyword", keyword))
	g.logger.WarnContext(ctx, "skipping keyword after provider failure",
		"keyword", keyword,
		"error", err)
}

// mergeNew appends videos whose id has not been seen yet.
func mergeNew(merged []ScoredVideo, seen map[string]struct{}, videos []ScoredVideo) []ScoredVideo {
	for _, v := range videos {
		if _, dup := seen[v.ID]; dup {
			continue
		}
		seen[v.ID] = struct{}{}
		merged = append(merged, v)
	}
	return merged
}
