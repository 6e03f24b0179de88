package discovery

import "context"

// SearchProvider returns candidates for a keyword query in the provider's
// own relevance order.
type SearchProvider interface {
	Search(ctx context.Context, q SearchQuery) ([]VideoCandidate, error)
}

// StatisticsProvider returns statistics keyed by video id. Ids missing from
// the result have no statistics and are dropped by the pipeline.
type StatisticsProvider interface {
	Statistics(ctx context.Context, ids []string) (map[string]VideoStatistics, error)
}

// SearchFunc adapts a function to SearchProvider.
type SearchFunc func(ctx context.Context, q SearchQuery) ([]VideoCandidate, error)

// Search calls f.
func (f SearchFunc) Search(ctx context.Context, q SearchQuery) ([]VideoCandidate, error) {
	return f(ctx, q)
}

// StatisticsFunc adapts a function to StatisticsProvider.
type StatisticsFunc func(ctx context.Context, ids []string) (map[string]VideoStatistics, error)

// Statistics calls f.
func (f StatisticsFunc) Statistics(ctx context.Context, ids []string) (map[string]VideoStatistics, error) {
	return f(ctx, ids)
}
