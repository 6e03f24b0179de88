package health

import (
	"context"
	"strings"
)

// YouTubeChecker reports whether the YouTube Data API is usable. It never
// calls the API: every request spends daily quota.
type YouTubeChecker struct {
	apiKey string
}

// NewYouTubeChecker creates a checker for the given API key.
func NewYouTubeChecker(apiKey string) *YouTubeChecker {
	return &YouTubeChecker{apiKey: strings.TrimSpace(apiKey)}
}

// Enabled reports whether an API key is configured.
func (c *YouTubeChecker) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// HealthCheck returns ErrNotConfigured when no API key is set.
func (c *YouTubeChecker) HealthCheck(ctx context.Context) error {
	if !c.Enabled() {
		return ErrNotConfigured
	}
	return ctx.Err()
}
