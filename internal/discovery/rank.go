package discovery

import "slices"

// Rank returns a copy of videos ordered by view velocity in trending mode
// and by quality score otherwise, truncated to topN. The sort is stable so
// ties keep arrival order. A topN of zero or less yields an empty slice.
func Rank(videos []ScoredVideo, trendingMode bool, topN int) []ScoredVideo {
	if topN <= 0 {
		return []ScoredVideo{}
	}
	ranked := sortedCopy(videos, trendingMode)
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

func sortedCopy(videos []ScoredVideo, trendingMode bool) []ScoredVideo {
	ranked := slices.Clone(videos)
	if ranked == nil {
		ranked = []ScoredVideo{}
	}
	if trendingMode {
		slices.SortStableFunc(ranked, func(a, b ScoredVideo) int {
			return cmpDesc(a.ViewsPerDay, b.ViewsPerDay)
		})
	} else {
		slices.SortStableFunc(ranked, func(a, b ScoredVideo) int {
			return cmpDesc(a.QualityScore.Score, b.QualityScore.Score)
		})
	}
	return ranked
}

func cmpDesc[T int64 | float64](a, b T) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	}
	return 0
}
