// Package ranking provides the quality score calculation used to order
// discovered videos, with calibration support for the scoring constants.
package ranking

import (
	"math"
	"time"
)

// defaultWeightDenominator replaces a zero weight total so normalization never
// divides by zero. With all weights at zero every normalized weight is zero.
const defaultWeightDenominator = 100

// Weights holds the normalized share of each score component.
// For any non-zero configuration the three fields sum to 1.
type Weights struct {
	Views      float64
	Engagement float64
	Recency    float64
}

// NormalizeWeights converts caller supplied integer weights into fractional
// shares of their sum. Weights are not required to add up to 100.
// Negative inputs are treated as zero.
func NormalizeWeights(views, engagement, recency int) Weights {
	views, engagement, recency = max(views, 0), max(engagement, 0), max(recency, 0)

	total := views + engagement + recency
	if total == 0 {
		total = defaultWeightDenominator
	}

	return Weights{
		Views:      float64(views) / float64(total),
		Engagement: float64(engagement) / float64(total),
		Recency:    float64(recency) / float64(total),
	}
}

// Inputs are the raw per-video signals needed to compute a QualityScore.
type Inputs struct {
	ViewCount    int64
	LikeCount    int64
	CommentCount int64

	// PublishedAt is the upload time. The zero value marks an unknown or
	// unparseable timestamp and selects the calibration's fallback recency.
	PublishedAt time.Time

	// MaxViews is the largest view count among the candidates of one
	// pipeline run.
	MaxViews int64
}

// QualityScore is the computed ranking signal for a single video.
type QualityScore struct {
	Score          float64 `json:"quality_score"`
	ViewsPerDay    int64   `json:"views_per_day"`
	DaysAgo        int     `json:"days_ago"`
	EngagementRate float64 `json:"engagement_rate"`
}

// ViewScore returns the view count as a share of the run's maximum, in [0, 1].
// Returns 0 when maxViews is zero.
func ViewScore(viewCount, maxViews int64) float64 {
	if maxViews <= 0 || viewCount <= 0 {
		return 0
	}
	return math.Min(float64(viewCount)/float64(maxViews), 1)
}

// Ratio returns part/views, or 0 when there are no views.
func Ratio(part, views int64) float64 {
	if views <= 0 || part <= 0 {
		return 0
	}
	return float64(part) / float64(views)
}

// saturate scales ratio against threshold and caps the result at 1.
func saturate(ratio, threshold float64) float64 {
	if threshold <= 0 {
		return 0
	}
	return math.Min(ratio/threshold, 1)
}

// EngagementScore blends like and comment rates into a value in [0, 1].
// Each rate saturates at its calibrated threshold, so exceeding it earns
// nothing extra.
func EngagementScore(likeRatio, commentRatio float64, cal *Calibration) float64 {
	if cal == nil {
		cal = DefaultCalibration()
	}
	likeScore := saturate(likeRatio, cal.LikeSaturation)
	commentScore := saturate(commentRatio, cal.CommentSaturation)
	return likeScore*cal.LikeShare + commentScore*cal.CommentShare
}

// DaysSince returns whole days elapsed between publishedAt and now.
// Future timestamps clamp to 0. The boolean is false for the zero time.
func DaysSince(publishedAt, now time.Time) (int, bool) {
	if publishedAt.IsZero() {
		return 0, false
	}
	elapsed := now.Sub(publishedAt)
	if elapsed < 0 {
		return 0, true
	}
	return int(elapsed / (24 * time.Hour)), true
}

// RecencyScore decays linearly from 1 on the upload day to 0 at the
// calibrated horizon.
func RecencyScore(daysAgo int, cal *Calibration) float64 {
	if cal == nil {
		cal = DefaultCalibration()
	}
	if cal.RecencyHorizonDays <= 0 {
		return 0
	}
	return math.Max(0, 1-float64(daysAgo)/cal.RecencyHorizonDays)
}

// Score computes the composite quality score and auxiliary metrics for one video.
//
// Formula: score = (view * w.Views + engagement * w.Engagement + recency * w.Recency) * 100
//
// The result is rounded to two decimals and always lies in [0, 100] when the
// weights come from NormalizeWeights.
func Score(in Inputs, w Weights, cal *Calibration, now time.Time) QualityScore {
	if cal == nil {
		cal = DefaultCalibration()
	}

	viewScore := ViewScore(in.ViewCount, in.MaxViews)
	likeRatio := Ratio(in.LikeCount, in.ViewCount)
	commentRatio := Ratio(in.CommentCount, in.ViewCount)
	engagementScore := EngagementScore(likeRatio, commentRatio, cal)

	daysAgo, known := DaysSince(in.PublishedAt, now)
	var recencyScore float64
	if known {
		recencyScore = RecencyScore(daysAgo, cal)
	} else {
		daysAgo = cal.UnknownAgeDays
		recencyScore = cal.UnknownRecency
	}

	final := (viewScore*w.Views + engagementScore*w.Engagement + recencyScore*w.Recency) * 100

	return QualityScore{
		Score:          round2(final),
		ViewsPerDay:    int64(math.Round(float64(max(in.ViewCount, 0)) / float64(max(daysAgo, 1)))),
		DaysAgo:        daysAgo,
		EngagementRate: round2((likeRatio + commentRatio) * 100),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
