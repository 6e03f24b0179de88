package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestRequestID_GeneratesNewID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/search", nil))

	responseID := rr.Header().Get(RequestIDHeader)
	if responseID == "" {
		t.Fatal("expected X-Request-ID header in response")
	}
	if seen != responseID {
		t.Errorf("context ID %q does not match header %q", seen, responseID)
	}
	if _, err := uuid.Parse(responseID); err != nil {
		t.Errorf("expected generated ID to be a UUID, got %q", responseID)
	}
}

func TestRequestID_IncomingHeader(t *testing.T) {
	tests := []struct {
		name       string
		incomingID string
		wantKeep   bool
	}{
		{"valid UUID", "550e8400-e29b-41d4-a716-446655440000", true},
		{"simple token", "client.req_42", true},
		{"log injection", "test\nmalicious-log-entry", false},
		{"special characters", "test@#$%^&*()", false},
		{"too long", strings.Repeat("a", maxRequestIDLength+1), false},
		{"max length", strings.Repeat("a", maxRequestIDLength), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/search", nil)
			req.Header.Set(RequestIDHeader, tt.incomingID)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			responseID := rr.Header().Get(RequestIDHeader)
			if tt.wantKeep && responseID != tt.incomingID {
				t.Errorf("expected ID %q to be preserved, got %q", tt.incomingID, responseID)
			}
			if !tt.wantKeep && (responseID == tt.incomingID || responseID == "") {
				t.Errorf("expected ID %q to be replaced, got %q", tt.incomingID, responseID)
			}
		})
	}
}

func TestGetRequestID_EmptyContextReturnsEmptyString(t *testing.T) {
	if id := GetRequestID(context.Background()); id != "" {
		t.Errorf("expected empty string, got %q", id)
	}
}
