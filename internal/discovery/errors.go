package discovery

import (
	"errors"
	"fmt"
)

// Errors returned by the discovery pipeline.
var (
	// ErrNoKeywords is returned when aggregation has neither keywords nor a fallback.
	ErrNoKeywords = errors.New("no keywords to aggregate")
	// ErrInvalidTopN is returned when the requested result count is not positive.
	ErrInvalidTopN = errors.New("top_n must be positive")
	// ErrInvalidFilter wraps every filter validation failure.
	ErrInvalidFilter = errors.New("invalid search filter")
)

// Provider operations recorded on ProviderError.
const (
	OpSearch     = "search"
	OpStatistics = "statistics"
)

// ProviderError reports a failed upstream call during a pipeline run.
type ProviderError struct {
	Op      string
	Keyword string
	Err     error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider failed for keyword %q: %v", e.Op, e.Keyword, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// KeywordFailure records a keyword skipped during aggregation.
type KeywordFailure struct {
	Keyword string `json:"keyword"`
	Op      string `json:"op,omitempty"`
	Error   string `json:"error"`
}

// AggregateReport carries diagnostics for an aggregation.
type AggregateReport struct {
	// Skipped lists failed keywords in declared order. A failed fallback
	// run is appended last.
	Skipped []KeywordFailure `json:"skipped_keywords"`

	// UsedFallback is true when the fallback keyword ran.
	UsedFallback bool `json:"used_fallback"`
}

func failureFor(keyword string, err error) KeywordFailure {
	f := KeywordFailure{Keyword: keyword, Error: err.Error()}
	var perr *ProviderError
	if errors.As(err, &perr) {
		f.Op = perr.Op
		f.Error = perr.Err.Error()
	}
	return f
}
