package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// HealthChecker defines the interface for components that can be health checked.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// readinessTimeout bounds all readiness checks together.
const readinessTimeout = 5 * time.Second

// Check results reported by /ready.
const (
	checkOK            = "ok"
	checkError         = "error"
	checkNotConfigured = "not_configured"
)

// HealthHandlers provides liveness, readiness and service status endpoints.
type HealthHandlers struct {
	redisChecker   HealthChecker
	youtubeChecker HealthChecker
	youtubeEnabled bool
	version        string
	timeNow        func() time.Time // For testability
}

// HealthHandlersConfig configures the health check handlers.
type HealthHandlersConfig struct {
	// RedisChecker is optional; Redis only backs quota and rate limiting.
	RedisChecker HealthChecker
	// YouTubeChecker fails readiness when the API key is missing.
	YouTubeChecker HealthChecker
	YouTubeEnabled bool
	Version        string
}

// NewHealthHandlers creates a new health check handler.
func NewHealthHandlers(config HealthHandlersConfig) *HealthHandlers {
	version := config.Version
	if version == "" {
		version = "dev"
	}
	return &HealthHandlers{
		redisChecker:   config.RedisChecker,
		youtubeChecker: config.YouTubeChecker,
		youtubeEnabled: config.YouTubeEnabled,
		version:        version,
		timeNow:        time.Now,
	}
}

// HealthResponse represents the JSON response for /health and /ready.
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

// ServiceStatus is the body of GET /api/health.
type ServiceStatus struct {
	Status         string `json:"status"`
	YouTubeEnabled bool   `json:"youtube_enabled"`
	Version        string `json:"version"`
}

// Health handles GET /health (liveness probe). It never touches dependencies.
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r.Context(), http.StatusOK, HealthResponse{
		Status:    "healthy",
		Checks:    map[string]string{"runtime": checkOK},
		Timestamp: h.timeNow().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready (readiness probe). It returns 503 when the YouTube
// API is unusable or a configured Redis does not answer.
func (h *HealthHandlers) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := map[string]string{"metrics": checkOK}
	healthy := true

	run := func(name string, checker HealthChecker, required bool) {
		if checker == nil {
			checks[name] = checkNotConfigured
			if required {
				healthy = false
			}
			return
		}
		if err := checker.HealthCheck(ctx); err != nil {
			checks[name] = checkError
			healthy = false
			slog.WarnContext(ctx, name+" health check failed", "error", err)
			return
		}
		checks[name] = checkOK
	}
	run("youtube", h.youtubeChecker, true)
	run("redis", h.redisChecker, false)

	status, statusCode := "healthy", http.StatusOK
	if !healthy {
		status, statusCode = "unhealthy", http.StatusServiceUnavailable
	}

	writeJSON(w, r.Context(), statusCode, HealthResponse{
		Status:    status,
		Checks:    checks,
		Timestamp: h.timeNow().UTC().Format(time.RFC3339),
	})
}

// APIHealth handles GET /api/health, the status endpoint used by clients.
func (h *HealthHandlers) APIHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r.Context(), http.StatusOK, ServiceStatus{
		Status:         "healthy",
		YouTubeEnabled: h.youtubeEnabled,
		Version:        h.version,
	})
}
