package ranking

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCalibration(t *testing.T) {
	cal := DefaultCalibration()

	if cal.LikeSaturation != 0.05 {
		t.Errorf("expected LikeSaturation 0.05, got %f", cal.LikeSaturation)
	}
	if cal.CommentSaturation != 0.01 {
		t.Errorf("expected CommentSaturation 0.01, got %f", cal.CommentSaturation)
	}
	if !almostEqual(cal.LikeShare+cal.CommentShare, 1, 1e-9) {
		t.Errorf("expected engagement shares to sum to 1, got %f", cal.LikeShare+cal.CommentShare)
	}
	if cal.RecencyHorizonDays != 365 {
		t.Errorf("expected RecencyHorizonDays 365, got %f", cal.RecencyHorizonDays)
	}
	if cal.UnknownAgeDays != 180 || cal.UnknownRecency != 0.5 {
		t.Errorf("unexpected unknown-age fallback: %d days, recency %f", cal.UnknownAgeDays, cal.UnknownRecency)
	}
}

func TestLoadCalibration_EmptyPath(t *testing.T) {
	cal, err := LoadCalibration("")
	if err != nil {
		t.Fatalf("expected no error for empty path, got %v", err)
	}
	if *cal != *DefaultCalibration() {
		t.Errorf("expected defaults, got %+v", cal)
	}
}

func TestLoadCalibration_MissingFile(t *testing.T) {
	cal, err := LoadCalibration(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if cal == nil || *cal != *DefaultCalibration() {
		t.Errorf("expected defaults alongside error, got %+v", cal)
	}
}

func TestLoadCalibration_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	cal, err := LoadCalibration(path)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if *cal != *DefaultCalibration() {
		t.Errorf("expected defaults alongside error, got %+v", cal)
	}
}

func TestLoadCalibration_PartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cal.json")
	content := `{"version": "test", "calibration": {"like_saturation": 0.1, "recency_horizon_days": 30}}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	cal, err := LoadCalibration(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cal.LikeSaturation != 0.1 {
		t.Errorf("expected LikeSaturation override 0.1, got %f", cal.LikeSaturation)
	}
	if cal.RecencyHorizonDays != 30 {
		t.Errorf("expected RecencyHorizonDays override 30, got %f", cal.RecencyHorizonDays)
	}
	if cal.CommentSaturation != 0.01 {
		t.Errorf("expected CommentSaturation default 0.01, got %f", cal.CommentSaturation)
	}
}

func TestLoadCalibration_RepositoryFile(t *testing.T) {
	cal, err := LoadCalibration("../../configs/ranking.calibration.json")
	if err != nil {
		t.Fatalf("failed to load repository calibration: %v", err)
	}
	if *cal != *DefaultCalibration() {
		t.Errorf("repository calibration drifted from defaults: %+v", cal)
	}
}

func TestMergeCalibration(t *testing.T) {
	base := DefaultCalibration()

	t.Run("nil override copies base", func(t *testing.T) {
		got := MergeCalibration(base, nil)
		if got == base {
			t.Error("expected a copy, got the same pointer")
		}
		if *got != *base {
			t.Errorf("expected %+v, got %+v", base, got)
		}
	})

	t.Run("nil base yields defaults", func(t *testing.T) {
		got := MergeCalibration(nil, &Calibration{LikeSaturation: 1})
		if *got != *DefaultCalibration() {
			t.Errorf("expected defaults, got %+v", got)
		}
	})

	t.Run("non-zero fields override", func(t *testing.T) {
		got := MergeCalibration(base, &Calibration{UnknownAgeDays: 90, UnknownRecency: 0.25})
		if got.UnknownAgeDays != 90 || got.UnknownRecency != 0.25 {
			t.Errorf("overrides not applied: %+v", got)
		}
		if base.UnknownAgeDays != 180 {
			t.Error("base was modified")
		}
	})
}

func TestScore_UsesCalibration(t *testing.T) {
	cal := MergeCalibration(DefaultCalibration(), &Calibration{LikeSaturation: 0.5})

	in := Inputs{ViewCount: 100, LikeCount: 5, PublishedAt: daysBefore(0), MaxViews: 100}
	w := NormalizeWeights(0, 100, 0)

	withDefaults := Score(in, w, nil, testNow)
	withCustom := Score(in, w, cal, testNow)

	// 5% like rate saturates by default but only reaches a tenth of the custom threshold.
	if !almostEqual(withDefaults.Score, 60, 0.001) {
		t.Errorf("default score = %.2f, want 60.00", withDefaults.Score)
	}
	if !almostEqual(withCustom.Score, 6, 0.001) {
		t.Errorf("calibrated score = %.2f, want 6.00", withCustom.Score)
	}
}

func TestCalibrationValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Calibration)
		wantErr bool
	}{
		{"defaults", func(*Calibration) {}, false},
		{"shares rebalanced", func(c *Calibration) { c.LikeShare, c.CommentShare = 0.7, 0.3 }, false},
		{"shares above one", func(c *Calibration) { c.LikeShare, c.CommentShare = 0.9, 0.9 }, true},
		{"negative share", func(c *Calibration) { c.LikeShare, c.CommentShare = 1.2, -0.2 }, true},
		{"zero like saturation", func(c *Calibration) { c.LikeSaturation = 0 }, true},
		{"negative comment saturation", func(c *Calibration) { c.CommentSaturation = -0.01 }, true},
		{"zero horizon", func(c *Calibration) { c.RecencyHorizonDays = 0 }, true},
		{"unknown recency above one", func(c *Calibration) { c.UnknownRecency = 3 }, true},
		{"negative unknown age", func(c *Calibration) { c.UnknownAgeDays = -5 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cal := DefaultCalibration()
			tt.mutate(cal)
			err := cal.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidCalibration) {
				t.Errorf("expected ErrInvalidCalibration, got %v", err)
			}
		})
	}
}

func TestLoadCalibration_OutOfRangeFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cal.json")
	content := `{"version": "bad", "calibration": {"like_share": 0.9, "comment_share": 0.9, "unknown_recency": 3, "unknown_age_days": -5}}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	cal, err := LoadCalibration(path)
	if !errors.Is(err, ErrInvalidCalibration) {
		t.Fatalf("expected ErrInvalidCalibration, got %v", err)
	}
	if *cal != *DefaultCalibration() {
		t.Errorf("expected defaults alongside error, got %+v", cal)
	}

	// A fallback calibration keeps every score inside [0, 100].
	w := NormalizeWeights(35, 40, 25)
	got := Score(Inputs{ViewCount: 10, LikeCount: 10, CommentCount: 10, MaxViews: 10}, w, cal, testNow)
	if got.Score < 0 || got.Score > 100 || got.DaysAgo < 0 {
		t.Errorf("score out of range: %+v", got)
	}
}
