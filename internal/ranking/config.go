package ranking

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
)

// Calibration holds the tunable constants of the quality score.
type Calibration struct {
	LikeSaturation     float64 `json:"like_saturation"`      // Like rate that earns a full like score (default: 0.05)
	CommentSaturation  float64 `json:"comment_saturation"`   // Comment rate that earns a full comment score (default: 0.01)
	LikeShare          float64 `json:"like_share"`           // Share of likes in the engagement score (default: 0.6)
	CommentShare       float64 `json:"comment_share"`        // Share of comments in the engagement score (default: 0.4)
	RecencyHorizonDays float64 `json:"recency_horizon_days"` // Age at which recency reaches zero (default: 365)
	UnknownAgeDays     int     `json:"unknown_age_days"`     // Age assumed for unparseable timestamps (default: 180)
	UnknownRecency     float64 `json:"unknown_recency"`      // Recency assumed for unparseable timestamps (default: 0.5)
}

// CalibrationConfig represents the JSON structure of the calibration file.
type CalibrationConfig struct {
	Version     string      `json:"version"`
	Calibration Calibration `json:"calibration"`
}

// DefaultCalibration returns the default scoring constants.
//
// A 5% like rate and a 1% comment rate saturate their components; likes
// carry 60% of the engagement score. Recency decays to zero over a year.
// Videos with an unknown upload time are scored as if half a year old.
func DefaultCalibration() *Calibration {
	return &Calibration{
		LikeSaturation:     0.05,
		CommentSaturation:  0.01,
		LikeShare:          0.6,
		CommentShare:       0.4,
		RecencyHorizonDays: 365,
		UnknownAgeDays:     180,
		UnknownRecency:     0.5,
	}
}

// LoadCalibration loads scoring constants from a JSON calibration file.
// An empty path returns the defaults. On any read, parse or range failure the
// defaults are returned together with the error so callers can degrade.
// Partial files are merged over the defaults.
func LoadCalibration(filePath string) (*Calibration, error) {
	if filePath == "" {
		return DefaultCalibration(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultCalibration(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultCalibration(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	defaults := DefaultCalibration()
	merged := MergeCalibration(defaults, &config.Calibration)
	if err := merged.Validate(); err != nil {
		slog.Warn("invalid calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultCalibration(), fmt.Errorf("invalid calibration file: %w", err)
	}
	logCalibrationOverrides(defaults, merged)

	return merged, nil
}

// shareTolerance absorbs float rounding in LikeShare + CommentShare.
const shareTolerance = 1e-6

// ErrInvalidCalibration wraps every calibration range violation.
var ErrInvalidCalibration = errors.New("invalid calibration")

// Validate reports the first constant that would push a score outside
// [0, 100] or an age below zero.
func (c *Calibration) Validate() error {
	switch {
	case c.LikeSaturation <= 0 || c.CommentSaturation <= 0:
		return fmt.Errorf("%w: saturation thresholds must be positive", ErrInvalidCalibration)
	case c.LikeShare < 0 || c.LikeShare > 1 || c.CommentShare < 0 || c.CommentShare > 1:
		return fmt.Errorf("%w: like_share and comment_share must be within [0, 1]", ErrInvalidCalibration)
	case math.Abs(c.LikeShare+c.CommentShare-1) > shareTolerance:
		return fmt.Errorf("%w: like_share + comment_share must equal 1 (got %.4f)", ErrInvalidCalibration, c.LikeShare+c.CommentShare)
	case c.RecencyHorizonDays <= 0:
		return fmt.Errorf("%w: recency_horizon_days must be positive", ErrInvalidCalibration)
	case c.UnknownRecency < 0 || c.UnknownRecency > 1:
		return fmt.Errorf("%w: unknown_recency must be within [0, 1]", ErrInvalidCalibration)
	case c.UnknownAgeDays < 0:
		return fmt.Errorf("%w: unknown_age_days must not be negative", ErrInvalidCalibration)
	}
	return nil
}

// MergeCalibration applies the non-zero fields of override on top of base.
// Neither argument is modified.
func MergeCalibration(base *Calibration, override *Calibration) *Calibration {
	if base == nil {
		return DefaultCalibration()
	}

	result := *base
	if override == nil {
		return &result
	}

	if override.LikeSaturation != 0 {
		result.LikeSaturation = override.LikeSaturation
	}
	if override.CommentSaturation != 0 {
		result.CommentSaturation = override.CommentSaturation
	}
	if override.LikeShare != 0 {
		result.LikeShare = override.LikeShare
	}
	if override.CommentShare != 0 {
		result.CommentShare = override.CommentShare
	}
	if override.RecencyHorizonDays != 0 {
		result.RecencyHorizonDays = override.RecencyHorizonDays
	}
	if override.UnknownAgeDays != 0 {
		result.UnknownAgeDays = override.UnknownAgeDays
	}
	if override.UnknownRecency != 0 {
		result.UnknownRecency = override.UnknownRecency
	}

	return &result
}

// logCalibrationOverrides logs which constants differ from the defaults.
func logCalibrationOverrides(defaults *Calibration, loaded *Calibration) {
	var overrides []string

	check := func(name string, def, got float64) {
		if def != got {
			overrides = append(overrides, fmt.Sprintf("%s: %.3f -> %.3f", name, def, got))
		}
	}
	check("like_saturation", defaults.LikeSaturation, loaded.LikeSaturation)
	check("comment_saturation", defaults.CommentSaturation, loaded.CommentSaturation)
	check("like_share", defaults.LikeShare, loaded.LikeShare)
	check("comment_share", defaults.CommentShare, loaded.CommentShare)
	check("recency_horizon_days", defaults.RecencyHorizonDays, loaded.RecencyHorizonDays)
	check("unknown_age_days", float64(defaults.UnknownAgeDays), float64(loaded.UnknownAgeDays))
	check("unknown_recency", defaults.UnknownRecency, loaded.UnknownRecency)

	if len(overrides) > 0 {
		slog.Info("loaded ranking calibration with overrides",
			"overrides", overrides)
	} else {
		slog.Info("loaded ranking calibration (using all defaults)")
	}
}
