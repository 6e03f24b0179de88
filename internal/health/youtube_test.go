package health

import (
	"context"
	"errors"
	"testing"
)

func TestYouTubeChecker(t *testing.T) {
	tests := []struct {
		name        string
		key         string
		wantEnabled bool
	}{
		{"configured", "AIzaSyTestKey", true},
		{"empty", "", false},
		{"whitespace", "   ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewYouTubeChecker(tt.key)
			if c.Enabled() != tt.wantEnabled {
				t.Errorf("Enabled() = %v, want %v", c.Enabled(), tt.wantEnabled)
			}
			err := c.HealthCheck(context.Background())
			if tt.wantEnabled && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
			if !tt.wantEnabled && !errors.Is(err, ErrNotConfigured) {
				t.Errorf("expected ErrNotConfigured, got %v", err)
			}
		})
	}

	var nilChecker *YouTubeChecker
	if nilChecker.Enabled() {
		t.Error("nil checker should not be enabled")
	}
}

func TestYouTubeChecker_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewYouTubeChecker("key").HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
