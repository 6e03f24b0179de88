package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/onnwee/vidrank/internal/discovery"
)

func newTestRouter(metrics http.Handler) http.Handler {
	return NewRouter(RouterConfig{
		Search:   NewSearchHandlers(&fakeAnalyzer{videos: []discovery.ScoredVideo{scored("a", 10, 5)}}),
		Trending: NewTrendingHandlers(&fakeAggregator{}, []string{"news"}),
		Quota:    NewQuotaHandlers(fakeQuota{}),
		Health:   NewHealthHandlers(HealthHandlersConfig{YouTubeChecker: fakeChecker{}, YouTubeEnabled: true}),
		Metrics:  metrics,
		Version:  "test",
	})
}

func TestRouter_Routes(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})
	router := newTestRouter(metrics)

	tests := []struct {
		method     string
		target     string
		body       string
		wantStatus int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/ready", "", http.StatusOK},
		{http.MethodGet, "/api/health", "", http.StatusOK},
		{http.MethodGet, "/api/search?keyword=go", "", http.StatusOK},
		{http.MethodPost, "/api/search", `{"keyword":"go"}`, http.StatusOK},
		{http.MethodGet, "/api/trending", "", http.StatusOK},
		{http.MethodGet, "/api/quota", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodGet, "/", "", http.StatusOK},
		{http.MethodGet, "/api/unknown", "", http.StatusNotFound},
		{http.MethodDelete, "/api/search", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			} else {
				req = httptest.NewRequest(tt.method, tt.target, nil)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d: %s", tt.wantStatus, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestRouter_NotFoundEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(nil).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if code := decodeError(t, rr).Error.Code; code != ErrCodeNotFound {
		t.Errorf("expected %s, got %s", ErrCodeNotFound, code)
	}
}

func TestRouter_ServiceInfo(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(nil).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	var info ServiceInfo
	if err := json.Unmarshal(rr.Body.Bytes(), &info); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if info.Service != "vidrank-api" || info.Version != "test" {
		t.Errorf("unexpected info %+v", info)
	}
	for _, want := range []string{"GET /api/search", "POST /api/search", "GET /api/trending", "GET /api/quota"} {
		if !slices.Contains(info.Endpoints, want) {
			t.Errorf("expected endpoint %q in %v", want, info.Endpoints)
		}
	}
	if slices.Contains(info.Endpoints, "GET /metrics") {
		t.Error("metrics endpoint listed without a handler")
	}
}

func TestRouter_OptionalHandlersOmitted(t *testing.T) {
	router := NewRouter(RouterConfig{Health: NewHealthHandlers(HealthHandlersConfig{})})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/search?keyword=go", nil))

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 without search handlers, got %d", rr.Code)
	}
}
