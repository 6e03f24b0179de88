package discovery

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var testNow = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

func cand(id, title string, daysAgo int) VideoCandidate {
	return VideoCandidate{
		ID:           id,
		Title:        title,
		ChannelTitle: "channel-" + id,
		PublishedAt:  testNow.Add(-time.Duration(daysAgo)*24*time.Hour - time.Hour),
		Thumbnail:    "https://i.ytimg.com/vi/" + id + "/hqdefault.jpg",
	}
}

func stat(views, likes, comments int64, duration string) VideoStatistics {
	return VideoStatistics{
		ViewCount:       views,
		LikeCount:       likes,
		CommentCount:    comments,
		Duration:        duration,
		DurationSeconds: ParseDuration(duration),
	}
}

// fakeSearch serves canned candidates per keyword and tracks concurrency.
type fakeSearch struct {
	results map[string][]VideoCandidate
	errs    map[string]error
	delays  map[string]time.Duration

	mu      sync.Mutex
	queries []SearchQuery

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (f *fakeSearch) Search(ctx context.Context, q SearchQuery) ([]VideoCandidate, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()

	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		cur := f.maxInFlight.Load()
		if n <= cur || f.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}

	if d := f.delays[q.Keyword]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err := f.errs[q.Keyword]; err != nil {
		return nil, err
	}
	return f.results[q.Keyword], nil
}

func (f *fakeSearch) keywords() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.queries))
	for i, q := range f.queries {
		out[i] = q.Keyword
	}
	return out
}

// fakeStats serves statistics by id. When perCall is set, the n-th call is
// answered from perCall[n] instead.
type fakeStats struct {
	stats   map[string]VideoStatistics
	perCall []map[string]VideoStatistics
	err     error

	mu    sync.Mutex
	calls int
	ids   [][]string
}

func (f *fakeStats) Statistics(_ context.Context, ids []string) (map[string]VideoStatistics, error) {
	f.mu.Lock()
	call := f.calls
	f.calls++
	f.ids = append(f.ids, ids)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	source := f.stats
	if call < len(f.perCall) {
		source = f.perCall[call]
	}

	out := make(map[string]VideoStatistics, len(ids))
	for _, id := range ids {
		if s, ok := source[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

func newTestAnalyzer(t *testing.T, search SearchProvider, stats StatisticsProvider) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(AnalyzerConfig{Search: search, Statistics: stats})
	if err != nil {
		t.Fatalf("NewAnalyzer() returned error: %v", err)
	}
	a.timeNow = func() time.Time { return testNow }
	return a
}

func ids(videos []ScoredVideo) []string {
	out := make([]string, len(videos))
	for i, v := range videos {
		out[i] = v.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
