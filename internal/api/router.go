package api

import (
	"net/http"
)

// RouterConfig holds the handlers and extra endpoints mounted by NewRouter.
type RouterConfig struct {
	Search   *SearchHandlers
	Trending *TrendingHandlers
	Quota    *QuotaHandlers
	Health   *HealthHandlers

	// Metrics serves /metrics when set.
	Metrics http.Handler

	// Version is reported by the root endpoint.
	Version string
}

// ServiceInfo is the body of GET /.
type ServiceInfo struct {
	Service   string   `json:"service"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
}

// NewRouter registers every API route on a new ServeMux. Unknown paths get
// the JSON not_found envelope.
func NewRouter(cfg RouterConfig) *http.ServeMux {
	mux := http.NewServeMux()

	endpoints := []string{"GET /health", "GET /ready", "GET /api/health"}
	mux.HandleFunc("GET /health", cfg.Health.Health)
	mux.HandleFunc("GET /ready", cfg.Health.Ready)
	mux.HandleFunc("GET /api/health", cfg.Health.APIHealth)

	if cfg.Search != nil {
		mux.HandleFunc("GET /api/search", cfg.Search.SearchGet)
		mux.HandleFunc("POST /api/search", cfg.Search.SearchPost)
		endpoints = append(endpoints, "GET /api/search", "POST /api/search")
	}
	if cfg.Trending != nil {
		mux.HandleFunc("GET /api/trending", cfg.Trending.Trending)
		endpoints = append(endpoints, "GET /api/trending")
	}
	if cfg.Quota != nil {
		mux.HandleFunc("GET /api/quota", cfg.Quota.Quota)
		endpoints = append(endpoints, "GET /api/quota")
	}
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
		endpoints = append(endpoints, "GET /metrics")
	}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	info := ServiceInfo{Service: "vidrank-api", Version: version, Endpoints: endpoints}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			writeCodedError(w, r, ErrCodeNotFound, "The requested resource was not found")
			return
		}
		writeJSON(w, r.Context(), http.StatusOK, info)
	})

	return mux
}
