// Package main is the vidrank command line tool. It runs one discovery
// pipeline, or a trending aggregation, and prints the result as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/onnwee/vidrank/internal/config"
	"github.com/onnwee/vidrank/internal/discovery"
	"github.com/onnwee/vidrank/internal/middleware"
	"github.com/onnwee/vidrank/internal/ranking"
	"github.com/onnwee/vidrank/internal/validate"
	"github.com/onnwee/vidrank/internal/youtube"
)

const defaultTimeout = 60 * time.Second

// options are the parsed command line flags.
type options struct {
	configPath string
	keyword    string
	topN       int
	trending   bool
	timeout    time.Duration
	filters    discovery.SearchFilters
}

// result is printed to stdout.
type result struct {
	Keyword         string                     `json:"keyword,omitempty"`
	Trending        bool                       `json:"trending,omitempty"`
	Count           int                        `json:"count"`
	Videos          []discovery.ScoredVideo    `json:"videos"`
	SkippedKeywords []discovery.KeywordFailure `json:"skipped_keywords,omitempty"`
	UsedFallback    bool                       `json:"used_fallback,omitempty"`
}

var errUsage = errors.New("usage")

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout, os.Stderr); err != nil {
		slog.Error("vidrank failed", "error", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	defaults := discovery.DefaultSearchFilters()
	opts := options{}

	fs := flag.NewFlagSet("vidrank", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "vidrank ranks YouTube videos for a keyword")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Usage: vidrank -keyword <text> [options]")
		fmt.Fprintln(stderr, "       vidrank -trending [options]")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Options:")
		fs.PrintDefaults()
	}

	var duration, period, language string
	fs.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	fs.StringVar(&opts.keyword, "keyword", "", "search keyword")
	fs.IntVar(&opts.topN, "top", 10, "number of videos to return")
	fs.BoolVar(&opts.trending, "trending", false, "aggregate the configured trending keywords instead of one keyword")
	fs.DurationVar(&opts.timeout, "timeout", defaultTimeout, "overall deadline")
	fs.BoolVar(&opts.filters.ShortsOnly, "shorts-only", false, "keep only short-form videos")
	fs.BoolVar(&opts.filters.ExcludeShorts, "exclude-shorts", false, "drop short-form videos")
	fs.StringVar(&duration, "duration", string(defaults.Duration), "duration bucket: any, short, medium, long")
	fs.StringVar(&period, "period", string(defaults.UploadPeriod), "upload period: any, day, week, month, year")
	fs.StringVar(&language, "language", string(defaults.Language), "language: any, ko, en, ja, zh")
	fs.IntVar(&opts.filters.RecencyWeight, "recency-weight", defaults.RecencyWeight, "recency weight (0-100)")
	fs.IntVar(&opts.filters.EngagementWeight, "engagement-weight", defaults.EngagementWeight, "engagement weight (0-100)")
	fs.IntVar(&opts.filters.ViewsWeight, "views-weight", defaults.ViewsWeight, "views weight (0-100)")
	fs.BoolVar(&opts.filters.TrendingMode, "trending-mode", false, "rank by views per day instead of quality score")
	fs.Int64Var(&opts.filters.MinViews, "min-views", 0, "minimum view count")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	if !opts.trending && opts.keyword == "" {
		fs.Usage()
		return opts, fmt.Errorf("%w: -keyword is required unless -trending is set", errUsage)
	}
	if !opts.trending {
		keyword, err := validate.Keyword(opts.keyword)
		if err != nil {
			return opts, fmt.Errorf("%w: %v", errUsage, err)
		}
		opts.keyword = keyword
	}
	if opts.topN < 1 {
		return opts, fmt.Errorf("%w: -top must be positive", errUsage)
	}

	opts.filters.Duration = discovery.DurationBucket(duration)
	opts.filters.UploadPeriod = discovery.UploadPeriod(period)
	opts.filters.Language = discovery.Language(language)
	if err := opts.filters.Validate(); err != nil {
		return opts, err
	}
	if opts.trending {
		opts.filters = discovery.TrendingFilters()
	}
	return opts, nil
}

func run(ctx context.Context, opts options, stdout, stderr io.Writer) error {
	cfg, errs := config.Load(opts.configPath)

	env := config.DefaultEnv
	if cfg != nil {
		env = cfg.Env
	}
	logger := middleware.NewLoggerTo(stderr, env)
	slog.SetDefault(logger)

	if len(errs) > 0 {
		for _, err := range errs {
			logger.Error("invalid configuration", "error", err)
		}
		return fmt.Errorf("configuration has %d error(s)", len(errs))
	}

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	client, err := youtube.NewClient(ctx, youtube.Config{APIKey: cfg.YouTubeAPIKey, Logger: logger})
	if err != nil {
		return fmt.Errorf("failed to create youtube client: %w", err)
	}

	calibration, err := ranking.LoadCalibration(cfg.RankingCalibrationPath)
	if err != nil {
		logger.Warn("using default ranking calibration", "error", err)
	}

	analyzer, err := discovery.NewAnalyzer(discovery.AnalyzerConfig{
		Search:      client,
		Statistics:  client,
		Calibration: calibration,
		MaxResults:  cfg.MaxSearchResults,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	out, err := execute(ctx, opts, cfg, analyzer)
	if err != nil {
		return err
	}
	return writeResult(stdout, out)
}

// execute runs the pipeline selected by opts.
func execute(ctx context.Context, opts options, cfg *config.Config, analyzer *discovery.Analyzer) (result, error) {
	if !opts.trending {
		videos, err := analyzer.AnalyzeTopVideos(ctx, opts.keyword, opts.topN, opts.filters)
		if err != nil {
			return result{}, err
		}
		return newResult(opts.keyword, videos), nil
	}

	aggregator, err := discovery.NewAggregator(discovery.AggregatorConfig{
		Analyzer:        analyzer,
		Concurrency:     cfg.AggregatorConcurrency,
		FallbackKeyword: cfg.TrendingFallbackKeyword,
	})
	if err != nil {
		return result{}, err
	}
	videos, report, err := aggregator.Aggregate(ctx, cfg.ActiveTrendingKeywords(), opts.filters, opts.topN)
	if err != nil {
		return result{}, err
	}
	out := newResult("", videos)
	out.Trending = true
	out.SkippedKeywords = report.Skipped
	out.UsedFallback = report.UsedFallback
	return out, nil
}

func newResult(keyword string, videos []discovery.ScoredVideo) result {
	if videos == nil {
		videos = []discovery.ScoredVideo{}
	}
	return result{Keyword: keyword, Count: len(videos), Videos: videos}
}

func writeResult(w io.Writer, r result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(r)
}
