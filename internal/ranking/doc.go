// Package ranking provides the quality score calculation used to order
// discovered videos, with calibration support for the scoring constants.
//
// Basic Usage:
//
//	// Load calibration (typically at startup)
//	cal, err := ranking.LoadCalibration("configs/ranking.calibration.json")
//	if err != nil {
//		slog.Warn("using default calibration", "error", err)
//	}
//
//	weights := ranking.NormalizeWeights(35, 40, 25) // views, engagement, recency
//	score := ranking.Score(ranking.Inputs{
//		ViewCount:    120000,
//		LikeCount:    4800,
//		CommentCount: 900,
//		PublishedAt:  publishedAt,
//		MaxViews:     maxViews, // largest view count in this run
//	}, weights, cal, time.Now())
//
// Component Functions:
//
// ViewScore, EngagementScore and RecencyScore each return values in the
// [0, 1] range. Score combines them with normalized weights and scales the
// result to [0, 100].
//
// Calibration:
//
// Saturation thresholds, the like/comment split and the recency horizon can
// be tuned via a JSON file loaded at startup. See
// configs/ranking.calibration.json for the default configuration.
package ranking
