package discovery

import (
	"fmt"
	"time"

	"github.com/onnwee/vidrank/internal/ranking"
)

// MaxSearchResults is the largest page the search provider accepts.
const MaxSearchResults = 50

// SearchOrderViewCount orders search hits by view count, highest first.
const SearchOrderViewCount = "viewCount"

// DurationBucket narrows search results by video length at the provider.
type DurationBucket string

const (
	DurationAny    DurationBucket = "any"
	DurationShort  DurationBucket = "short"  // under 4 minutes
	DurationMedium DurationBucket = "medium" // 4 to 20 minutes
	DurationLong   DurationBucket = "long"   // over 20 minutes
)

// UploadPeriod bounds how far back the search looks.
type UploadPeriod string

const (
	UploadAny   UploadPeriod = "any"
	UploadDay   UploadPeriod = "day"
	UploadWeek  UploadPeriod = "week"
	UploadMonth UploadPeriod = "month"
	UploadYear  UploadPeriod = "year"
)

// Language selects the region and relevance language hints sent to the provider.
type Language string

const (
	LanguageAny      Language = "any"
	LanguageKorean   Language = "ko"
	LanguageEnglish  Language = "en"
	LanguageJapanese Language = "ja"
	LanguageChinese  Language = "zh"
)

var uploadPeriodDays = map[UploadPeriod]int{
	UploadDay:   1,
	UploadWeek:  7,
	UploadMonth: 30,
	UploadYear:  365,
}

// localeHint pairs a region code with a relevance language.
type localeHint struct {
	region   string
	language string
}

var languageHints = map[Language]localeHint{
	LanguageKorean:   {"KR", "ko"},
	LanguageEnglish:  {"US", "en"},
	LanguageJapanese: {"JP", "ja"},
	LanguageChinese:  {"CN", "zh-Hans"},
}

// defaultLocale applies when no language is selected.
var defaultLocale = languageHints[LanguageKorean]

// ParseDurationBucket validates a duration filter value. Empty means any.
func ParseDurationBucket(s string) (DurationBucket, error) {
	switch d := DurationBucket(s); d {
	case "":
		return DurationAny, nil
	case DurationAny, DurationShort, DurationMedium, DurationLong:
		return d, nil
	}
	return "", fmt.Errorf("%w: duration_filter must be one of any, short, medium, long (got %q)", ErrInvalidFilter, s)
}

// ParseUploadPeriod validates an upload period value. Empty means any.
func ParseUploadPeriod(s string) (UploadPeriod, error) {
	switch p := UploadPeriod(s); p {
	case "":
		return UploadAny, nil
	case UploadAny, UploadDay, UploadWeek, UploadMonth, UploadYear:
		return p, nil
	}
	return "", fmt.Errorf("%w: upload_period must be one of any, day, week, month, year (got %q)", ErrInvalidFilter, s)
}

// ParseLanguage validates a language value. Empty means any.
func ParseLanguage(s string) (Language, error) {
	switch l := Language(s); l {
	case "":
		return LanguageAny, nil
	case LanguageAny, LanguageKorean, LanguageEnglish, LanguageJapanese, LanguageChinese:
		return l, nil
	}
	return "", fmt.Errorf("%w: language must be one of any, ko, en, ja, zh (got %q)", ErrInvalidFilter, s)
}

// SearchFilters describes the caller's search intent for one pipeline run.
// It is passed by value and never modified by the pipeline.
//
// ShortsOnly and ExcludeShorts are independent; setting both is legal and
// produces an empty result.
type SearchFilters struct {
	ShortsOnly    bool           `json:"shorts_only"`
	ExcludeShorts bool           `json:"exclude_shorts"`
	Duration      DurationBucket `json:"duration_filter"`
	UploadPeriod  UploadPeriod   `json:"upload_period"`
	Language      Language       `json:"language"`

	// Weights are relative; they are normalized by their sum when scoring.
	RecencyWeight    int `json:"recency_weight"`
	EngagementWeight int `json:"engagement_weight"`
	ViewsWeight      int `json:"views_weight"`

	TrendingMode bool  `json:"trending_mode"`
	MinViews     int64 `json:"min_views"`
}

// DefaultSearchFilters returns filters with no restrictions and the default
// weights of 25 recency, 40 engagement and 35 views.
func DefaultSearchFilters() SearchFilters {
	return SearchFilters{
		Duration:         DurationAny,
		UploadPeriod:     UploadAny,
		Language:         LanguageAny,
		RecencyWeight:    25,
		EngagementWeight: 40,
		ViewsWeight:      35,
	}
}

// TrendingFilters returns the filters used by trending aggregation:
// long-form videos from the past week ranked by view velocity.
func TrendingFilters() SearchFilters {
	f := DefaultSearchFilters()
	f.ExcludeShorts = true
	f.UploadPeriod = UploadWeek
	f.TrendingMode = true
	f.RecencyWeight = 30
	f.EngagementWeight = 40
	f.ViewsWeight = 30
	return f
}

// Validate reports the first invalid field, if any.
func (f SearchFilters) Validate() error {
	if _, err := ParseDurationBucket(string(f.Duration)); err != nil {
		return err
	}
	if _, err := ParseUploadPeriod(string(f.UploadPeriod)); err != nil {
		return err
	}
	if _, err := ParseLanguage(string(f.Language)); err != nil {
		return err
	}
	if f.RecencyWeight < 0 || f.EngagementWeight < 0 || f.ViewsWeight < 0 {
		return fmt.Errorf("%w: weights must be non-negative", ErrInvalidFilter)
	}
	if f.MinViews < 0 {
		return fmt.Errorf("%w: min_views must be non-negative", ErrInvalidFilter)
	}
	return nil
}

// Weights returns the normalized scoring weights.
func (f SearchFilters) Weights() ranking.Weights {
	return ranking.NormalizeWeights(f.ViewsWeight, f.EngagementWeight, f.RecencyWeight)
}

// SearchQuery is the provider-level request derived from a keyword and filters.
type SearchQuery struct {
	Keyword           string
	MaxResults        int
	Order             string
	RegionCode        string
	RelevanceLanguage string

	// Duration is empty when no duration bucket applies.
	Duration string

	// PublishedAfter is the zero time when the upload period is unbounded.
	PublishedAfter time.Time
}

// NewSearchQuery translates filters into a provider query. maxResults is
// clamped to [1, MaxSearchResults]; now anchors the upload period window.
func NewSearchQuery(keyword string, f SearchFilters, maxResults int, now time.Time) SearchQuery {
	if maxResults <= 0 || maxResults > MaxSearchResults {
		maxResults = MaxSearchResults
	}

	hint, ok := languageHints[f.Language]
	if !ok {
		hint = defaultLocale
	}

	q := SearchQuery{
		Keyword:           keyword,
		MaxResults:        maxResults,
		Order:             SearchOrderViewCount,
		RegionCode:        hint.region,
		RelevanceLanguage: hint.language,
	}

	switch f.Duration {
	case DurationShort, DurationMedium, DurationLong:
		q.Duration = string(f.Duration)
	}

	if days, ok := uploadPeriodDays[f.UploadPeriod]; ok {
		q.PublishedAfter = now.UTC().AddDate(0, 0, -days).Truncate(time.Second)
	}

	return q
}
