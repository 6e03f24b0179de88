package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/onnwee/vidrank/internal/discovery"
	"github.com/onnwee/vidrank/internal/validate"
)

// Search parameter bounds.
const (
	DefaultTopN    = 10
	MaxSearchTopN  = 50
	MaxWeight      = 100
	maxRequestBody = 64 << 10
)

// VideoAnalyzer runs one discovery pipeline for a keyword.
type VideoAnalyzer interface {
	AnalyzeTopVideos(ctx context.Context, keyword string, topN int, filters discovery.SearchFilters) ([]discovery.ScoredVideo, error)
}

// SearchHandlers holds dependencies for search HTTP handlers.
type SearchHandlers struct {
	analyzer VideoAnalyzer
}

// NewSearchHandlers creates a new SearchHandlers instance. A nil analyzer
// means the YouTube API is not configured; every search then fails with
// config_error.
func NewSearchHandlers(analyzer VideoAnalyzer) *SearchHandlers {
	return &SearchHandlers{analyzer: analyzer}
}

// SearchRequest is the body of POST /api/search. Absent fields keep their
// defaults.
type SearchRequest struct {
	Keyword          string `json:"keyword"`
	TopN             int    `json:"top_n"`
	ShortsOnly       bool   `json:"shorts_only"`
	ExcludeShorts    bool   `json:"exclude_shorts"`
	DurationFilter   string `json:"duration_filter"`
	UploadPeriod     string `json:"upload_period"`
	Language         string `json:"language"`
	RecencyWeight    int    `json:"recency_weight"`
	EngagementWeight int    `json:"engagement_weight"`
	ViewsWeight      int    `json:"views_weight"`
	TrendingMode     bool   `json:"trending_mode"`
	MinViews         int64  `json:"min_views"`
}

// defaultSearchRequest mirrors discovery.DefaultSearchFilters.
func defaultSearchRequest() SearchRequest {
	f := discovery.DefaultSearchFilters()
	return SearchRequest{
		TopN:             DefaultTopN,
		DurationFilter:   string(f.Duration),
		UploadPeriod:     string(f.UploadPeriod),
		Language:         string(f.Language),
		RecencyWeight:    f.RecencyWeight,
		EngagementWeight: f.EngagementWeight,
		ViewsWeight:      f.ViewsWeight,
	}
}

// SearchResponse is returned by both search endpoints.
type SearchResponse struct {
	Success bool                    `json:"success"`
	Keyword string                  `json:"keyword"`
	Count   int                     `json:"count"`
	Filters discovery.SearchFilters `json:"filters"`
	Videos  []discovery.ScoredVideo `json:"videos"`
}

// validate checks bounds and converts the request into a normalized keyword
// and pipeline filters.
func (req SearchRequest) validate() (string, discovery.SearchFilters, error) {
	var f discovery.SearchFilters

	keyword, err := validate.Keyword(req.Keyword)
	if errors.Is(err, validate.ErrEmpty) {
		return "", f, errors.New("keyword is required")
	}
	if err != nil {
		return "", f, err
	}
	if req.TopN < 1 || req.TopN > MaxSearchTopN {
		return "", f, fmt.Errorf("top_n must be between 1 and %d", MaxSearchTopN)
	}
	weights := []struct {
		name  string
		value int
	}{
		{"recency_weight", req.RecencyWeight},
		{"engagement_weight", req.EngagementWeight},
		{"views_weight", req.ViewsWeight},
	}
	for _, w := range weights {
		if w.value < 0 || w.value > MaxWeight {
			return "", f, fmt.Errorf("%s must be between 0 and %d", w.name, MaxWeight)
		}
	}
	if req.MinViews < 0 {
		return "", f, errors.New("min_views must be non-negative")
	}

	duration, err := discovery.ParseDurationBucket(req.DurationFilter)
	if err != nil {
		return "", f, err
	}
	period, err := discovery.ParseUploadPeriod(req.UploadPeriod)
	if err != nil {
		return "", f, err
	}
	language, err := discovery.ParseLanguage(req.Language)
	if err != nil {
		return "", f, err
	}

	return keyword, discovery.SearchFilters{
		ShortsOnly:       req.ShortsOnly,
		ExcludeShorts:    req.ExcludeShorts,
		Duration:         duration,
		UploadPeriod:     period,
		Language:         language,
		RecencyWeight:    req.RecencyWeight,
		EngagementWeight: req.EngagementWeight,
		ViewsWeight:      req.ViewsWeight,
		TrendingMode:     req.TrendingMode,
		MinViews:         req.MinViews,
	}, nil
}

// SearchGet handles GET /api/search with query parameters.
func (h *SearchHandlers) SearchGet(w http.ResponseWriter, r *http.Request) {
	req, err := searchRequestFromQuery(r.URL.Query())
	if err != nil {
		writeCodedError(w, r, ErrCodeValidation, err.Error())
		return
	}
	h.search(w, r, req)
}

// SearchPost handles POST /api/search with a JSON body.
func (h *SearchHandlers) SearchPost(w http.ResponseWriter, r *http.Request) {
	req := defaultSearchRequest()

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeCodedError(w, r, ErrCodeBadRequest, "Request body too large")
			return
		}
		writeCodedError(w, r, ErrCodeBadRequest, "Invalid JSON body")
		return
	}
	h.search(w, r, req)
}

func (h *SearchHandlers) search(w http.ResponseWriter, r *http.Request, req SearchRequest) {
	if h.analyzer == nil {
		writeCodedError(w, r, ErrCodeConfig, "YouTube API key is not configured")
		return
	}

	keyword, filters, err := req.validate()
	if err != nil {
		writeCodedError(w, r, ErrCodeValidation, err.Error())
		return
	}

	videos, err := h.analyzer.AnalyzeTopVideos(r.Context(), keyword, req.TopN, filters)
	if err != nil {
		writePipelineError(w, r, err)
		return
	}
	if videos == nil {
		videos = []discovery.ScoredVideo{}
	}

	slog.DebugContext(r.Context(), "search completed",
		"keyword", keyword,
		"top_n", req.TopN,
		"count", len(videos))

	writeJSON(w, r.Context(), http.StatusOK, SearchResponse{
		Success: true,
		Keyword: keyword,
		Count:   len(videos),
		Filters: filters,
		Videos:  videos,
	})
}

// searchRequestFromQuery parses GET parameters over the defaults.
func searchRequestFromQuery(q url.Values) (SearchRequest, error) {
	req := defaultSearchRequest()
	req.Keyword = q.Get("keyword")

	ints := []struct {
		name string
		dst  *int
	}{
		{"top_n", &req.TopN},
		{"recency_weight", &req.RecencyWeight},
		{"engagement_weight", &req.EngagementWeight},
		{"views_weight", &req.ViewsWeight},
	}
	for _, p := range ints {
		if err := parseIntParam(q, p.name, p.dst); err != nil {
			return req, err
		}
	}

	if v := q.Get("min_views"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return req, errors.New("min_views must be an integer")
		}
		req.MinViews = n
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{"shorts_only", &req.ShortsOnly},
		{"exclude_shorts", &req.ExcludeShorts},
		{"trending_mode", &req.TrendingMode},
	}
	for _, p := range bools {
		if err := parseBoolParam(q, p.name, p.dst); err != nil {
			return req, err
		}
	}

	if v := q.Get("duration_filter"); v != "" {
		req.DurationFilter = v
	}
	if v := q.Get("upload_period"); v != "" {
		req.UploadPeriod = v
	}
	if v := q.Get("language"); v != "" {
		req.Language = v
	}
	return req, nil
}

func parseIntParam(q url.Values, name string, dst *int) error {
	v := q.Get(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s must be an integer", name)
	}
	*dst = n
	return nil
}

// parseBoolParam accepts true/false, 1/0, yes/no and on/off.
func parseBoolParam(q url.Values, name string, dst *bool) error {
	v := q.Get(name)
	if v == "" {
		return nil
	}
	switch strings.ToLower(v) {
	case "true", "1", "yes", "on":
		*dst = true
	case "false", "0", "no", "off":
		*dst = false
	default:
		return fmt.Errorf("%s must be a boolean", name)
	}
	return nil
}
