// Package discovery turns raw video search results into filtered, scored
// and ranked Top-N lists, either for one keyword or aggregated across many.
package discovery

import (
	"time"

	"github.com/onnwee/vidrank/internal/ranking"
)

// watchURLPrefix forms the canonical URL of a video from its identifier.
const watchURLPrefix = "https://www.youtube.com/watch?v="

// VideoCandidate is a search hit before statistics are attached.
type VideoCandidate struct {
	ID           string `json:"video_id"`
	Title        string `json:"title"`
	ChannelTitle string `json:"channel_title"`

	// PublishedAt is the upload time in UTC. The zero value means the
	// provider's timestamp was missing or unparseable.
	PublishedAt time.Time `json:"published_at,omitzero"`

	Thumbnail   string `json:"thumbnail"`
	Description string `json:"description"`
}

// VideoStatistics holds the per-video counters and duration reported by the
// statistics provider.
type VideoStatistics struct {
	ViewCount       int64  `json:"view_count"`
	LikeCount       int64  `json:"like_count"`
	CommentCount    int64  `json:"comment_count"`
	Duration        string `json:"duration"`
	DurationSeconds int64  `json:"duration_seconds"`
	// IsShorts is set by the analyzer from the duration and the candidate
	// title. Providers leave it false.
	IsShorts bool `json:"is_shorts"`
}

// ScoredVideo is one ranked result: the candidate, its statistics, its
// computed quality score and the canonical watch URL.
type ScoredVideo struct {
	VideoCandidate
	VideoStatistics
	ranking.QualityScore

	URL string `json:"url"`
}

// WatchURL returns the canonical watch URL for a video id.
func WatchURL(id string) string {
	return watchURLPrefix + id
}
