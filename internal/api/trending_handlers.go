package api

import (
	"context"
	"net/http"

	"github.com/onnwee/vidrank/internal/discovery"
)

// MaxTrendingTopN caps GET /api/trending.
const MaxTrendingTopN = 30

// TrendingAggregator merges pipeline runs over several keywords.
type TrendingAggregator interface {
	Aggregate(ctx context.Context, keywords []string, filters discovery.SearchFilters, topN int) ([]discovery.ScoredVideo, discovery.AggregateReport, error)
}

// TrendingHandlers serves the trending feed.
type TrendingHandlers struct {
	aggregator TrendingAggregator
	keywords   []string
}

// NewTrendingHandlers creates trending handlers aggregating over keywords.
// A nil aggregator means the YouTube API is not configured.
func NewTrendingHandlers(aggregator TrendingAggregator, keywords []string) *TrendingHandlers {
	return &TrendingHandlers{
		aggregator: aggregator,
		keywords:   append([]string(nil), keywords...),
	}
}

// TrendingResponse is the body of GET /api/trending.
type TrendingResponse struct {
	Success         bool                       `json:"success"`
	Type            string                     `json:"type"`
	Count           int                        `json:"count"`
	Videos          []discovery.ScoredVideo    `json:"videos"`
	SkippedKeywords []discovery.KeywordFailure `json:"skipped_keywords"`
	UsedFallback    bool                       `json:"used_fallback"`
}

// Trending handles GET /api/trending?top_n=N.
func (h *TrendingHandlers) Trending(w http.ResponseWriter, r *http.Request) {
	if h.aggregator == nil {
		writeCodedError(w, r, ErrCodeConfig, "YouTube API key is not configured")
		return
	}

	topN := DefaultTopN
	if err := parseIntParam(r.URL.Query(), "top_n", &topN); err != nil {
		writeCodedError(w, r, ErrCodeValidation, err.Error())
		return
	}
	if topN < 1 || topN > MaxTrendingTopN {
		writeCodedError(w, r, ErrCodeValidation, "top_n must be between 1 and 30")
		return
	}

	videos, report, err := h.aggregator.Aggregate(r.Context(), h.keywords, discovery.TrendingFilters(), topN)
	if err != nil {
		writePipelineError(w, r, err)
		return
	}
	if videos == nil {
		videos = []discovery.ScoredVideo{}
	}
	skipped := report.Skipped
	if skipped == nil {
		skipped = []discovery.KeywordFailure{}
	}

	writeJSON(w, r.Context(), http.StatusOK, TrendingResponse{
		Success:         true,
		Type:            "trending",
		Count:           len(videos),
		Videos:          videos,
		SkippedKeywords: skipped,
		UsedFallback:    report.UsedFallback,
	})
}
